package include

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/webinclude/internal/fetch"
)

// Fetcher retrieves the body of a remote resource as UTF-8 text. Errors
// should wrap fetch.ErrTransport or fetch.ErrNonUTF8.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// Headers is the request header table attached to every fetch. It is
// never modified after a run starts.
type Headers map[string]string

// Resolver turns a link into the text that replaces it.
type Resolver struct {
	fetcher Fetcher
	headers Headers
}

func NewResolver(f Fetcher, headers Headers) *Resolver {
	return &Resolver{fetcher: f, headers: headers}
}

// Resolve returns the replacement text for link. Escaped links never fail.
func (r *Resolver) Resolve(ctx context.Context, link Link) (string, error) {
	if link.Err != nil {
		return "", fmt.Errorf("invalid include %s: %w", link.Text, link.Err)
	}

	switch link.Directive.Kind {
	case DirectiveEscaped:
		return link.Text[1:], nil
	case DirectiveWebInclude:
		return r.fetch(ctx, link)
	default:
		return "", fmt.Errorf("unknown directive kind %d in %s", link.Directive.Kind, link.Text)
	}
}

func (r *Resolver) fetch(ctx context.Context, link Link) (string, error) {
	u := link.Directive.URL.String()
	body, err := r.fetcher.Fetch(ctx, u, r.headers)
	if errors.Is(err, fetch.ErrNonUTF8) {
		return "", fmt.Errorf("expected UTF-8 in %s (%s): %w", u, link.Text, err)
	}
	if err != nil {
		return "", fmt.Errorf("could not query URL %s (%s): %w", u, link.Text, err)
	}

	sel := link.Directive.Selection
	switch sel.Kind {
	case SelectAnchor:
		return TakeAnchoredLines(body, sel.Anchor), nil
	case SelectRange:
		return TakeLines(body, sel.Range), nil
	default:
		return "", fmt.Errorf("unknown selection kind %d in %s", sel.Kind, link.Text)
	}
}

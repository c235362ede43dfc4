package include

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrMalformedURL is returned when a webinclude target is not an absolute URL.
var ErrMalformedURL = errors.New("malformed URL")

// DirectiveKind tells an escaped token apart from a web include.
type DirectiveKind int

const (
	DirectiveEscaped DirectiveKind = iota
	DirectiveWebInclude
)

// SelectionKind tells a line range apart from a named anchor.
type SelectionKind int

const (
	SelectRange SelectionKind = iota
	SelectAnchor
)

// Selection narrows fetched content to a line range or an anchored block.
type Selection struct {
	Kind   SelectionKind
	Range  LineRange
	Anchor string
}

// Directive is a parsed token. URL and Selection are only set for
// DirectiveWebInclude.
type Directive struct {
	Kind      DirectiveKind
	URL       *url.URL
	Selection Selection
}

// ParseArgs parses the argument payload of a webinclude token:
// "<url> [<span>]".
func ParseArgs(args string) (Directive, error) {
	target, span := args, ""
	if i := strings.IndexFunc(args, unicode.IsSpace); i >= 0 {
		_, w := utf8.DecodeRuneInString(args[i:])
		target, span = args[:i], args[i+w:]
	}

	u, err := parseURL(target)
	if err != nil {
		return Directive{}, err
	}

	return Directive{Kind: DirectiveWebInclude, URL: u, Selection: ParseSpan(span)}, nil
}

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrMalformedURL, s, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w %q: missing scheme", ErrMalformedURL, s)
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, fmt.Errorf("%w %q: empty host", ErrMalformedURL, s)
	}
	return u, nil
}

// ParseSpan parses the optional span of a webinclude token. Line numbers
// are 1-based on input; the result is 0-based and end-exclusive.
//
//	""       whole file
//	"5"      line 5 only
//	"2:4"    lines 2 through 4
//	"2:"     line 2 to the end
//	":3"     first 3 lines
//	"intro"  the block anchored as "intro"
func ParseSpan(span string) Selection {
	parts := strings.SplitN(span, ":", 3)

	first := parts[0]
	start, hasStart := parseLineNumber(first)
	if hasStart {
		if start > 0 {
			start--
		}
	} else if first != "" {
		return Selection{Kind: SelectAnchor, Anchor: first}
	}

	var end int
	hasEnd, endValid := len(parts) > 1, false
	if hasEnd {
		end, endValid = parseLineNumber(parts[1])
	}

	var r LineRange
	switch {
	case hasStart && hasEnd && endValid:
		r = Bounded(start, end)
	case hasStart && hasEnd:
		r = From(start)
	case hasStart:
		r = Bounded(start, start+1)
	case hasEnd && endValid:
		r = To(end)
	default:
		r = Full()
	}
	return Selection{Kind: SelectRange, Range: r}
}

func parseLineNumber(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

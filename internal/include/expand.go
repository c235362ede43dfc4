// Package include expands {{#webinclude <url> [<span>]}} directives by
// fetching the referenced resource and splicing the selected lines into
// the document. Included text is expanded again, up to MaxDepth levels.
//
// Span forms, with 1-based line numbers:
//
//	{{#webinclude https://example.com/a.rs}}          whole file
//	{{#webinclude https://example.com/a.rs 5}}        line 5
//	{{#webinclude https://example.com/a.rs 2:4}}      lines 2-4
//	{{#webinclude https://example.com/a.rs 2:}}       line 2 onwards
//	{{#webinclude https://example.com/a.rs :3}}       lines 1-3
//	{{#webinclude https://example.com/a.rs setup}}    ANCHOR: setup ... ANCHOR_END: setup
//
// A leading backslash, \{{#webinclude ...}}, emits the token without the
// backslash and fetches nothing.
package include

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// MaxDepth bounds how many times included text is expanded again.
const MaxDepth = 10

// ErrDepthExceeded is logged when included text is not expanded further.
var ErrDepthExceeded = errors.New("stack depth exceeded, check for cyclic includes")

// Expander rewrites documents. It holds no per-document state and may be
// shared across goroutines if its Fetcher can.
type Expander struct {
	resolver *Resolver
	log      *slog.Logger
}

func NewExpander(resolver *Resolver, log *slog.Logger) *Expander {
	return &Expander{resolver: resolver, log: log}
}

// Report summarises one expansion.
type Report struct {
	Resolved      int         // links replaced, at any depth
	Failed        []LinkError // links left in place
	DepthExceeded int         // links whose content was not expanded further
}

// LinkError is a link that could not be resolved.
type LinkError struct {
	Link string `json:"link"`
	Err  string `json:"error"`
}

// Expand returns s with every webinclude directive replaced. A directive
// that cannot be resolved stays in the output as written.
func (e *Expander) Expand(ctx context.Context, s string) string {
	out, _ := e.ExpandReport(ctx, s)
	return out
}

// ExpandReport is Expand that also reports what happened.
func (e *Expander) ExpandReport(ctx context.Context, s string) (string, Report) {
	var rep Report
	out := e.expand(ctx, s, 0, &rep)
	return out, rep
}

func (e *Expander) expand(ctx context.Context, s string, depth int, rep *Report) string {
	var out strings.Builder
	prev := 0

	for link := range Links(s) {
		out.WriteString(s[prev:link.Start])

		content, err := e.resolver.Resolve(ctx, link)
		if err != nil {
			e.logFailure(link, err)
			rep.Failed = append(rep.Failed, LinkError{Link: link.Text, Err: err.Error()})
			// The token text is copied with the next gap.
			prev = link.Start
			continue
		}
		rep.Resolved++

		if link.Directive.Kind == DirectiveEscaped {
			// Literal token text, never expanded again.
			out.WriteString(content)
		} else if depth < MaxDepth {
			out.WriteString(e.expand(ctx, content, depth+1, rep))
		} else {
			e.log.Error(ErrDepthExceeded.Error(), "depth", depth, "link", link.Text)
			rep.DepthExceeded++
			out.WriteString(content)
		}
		prev = link.End
	}

	out.WriteString(s[prev:])
	return out.String()
}

func (e *Expander) logFailure(link Link, err error) {
	e.log.Error("error updating link", "link", link.Text, "error", err)
	for _, cause := range causes(err) {
		e.log.Warn("caused by", "error", cause)
	}
}

// causes lists the errors wrapped by err, depth first, following both
// single and multi-error wrapping.
func causes(err error) []error {
	var out []error
	var walk func(error)
	walk = func(err error) {
		var wrapped []error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			if w := u.Unwrap(); w != nil {
				wrapped = []error{w}
			}
		case interface{ Unwrap() []error }:
			wrapped = u.Unwrap()
		}
		for _, w := range wrapped {
			out = append(out, w)
			walk(w)
		}
	}
	walk(err)
	return out
}

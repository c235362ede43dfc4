// Package mdbook speaks the mdBook preprocessor protocol: the book is read
// from stdin as a JSON array [context, book] and written back to stdout
// with every chapter's content expanded.
package mdbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/webinclude/internal/config"
	"github.com/dgallion1/webinclude/internal/include"
)

// Name is the preprocessor's table name in book.toml.
const Name = "webinclude"

// Context is the subset of mdBook's PreprocessorContext that is used.
type Context struct {
	Root          string         `json:"root"`
	Config        map[string]any `json:"config"`
	Renderer      string         `json:"renderer"`
	MdbookVersion string         `json:"mdbook_version"`
}

// Headers returns [preprocessor.webinclude.headers] from book.toml.
func (c Context) Headers(log *slog.Logger) include.Headers {
	pre, _ := c.Config["preprocessor"].(map[string]any)
	own, _ := pre[Name].(map[string]any)
	raw, _ := own["headers"].(map[string]any)
	return config.StringTable(raw, log)
}

// Preprocessor expands webinclude directives in an mdBook book.
type Preprocessor struct {
	fetcher include.Fetcher
	log     *slog.Logger
}

func New(f include.Fetcher, log *slog.Logger) *Preprocessor {
	return &Preprocessor{fetcher: f, log: log}
}

// SupportsRenderer reports whether the preprocessor can run for renderer.
// Expansion is renderer independent.
func (p *Preprocessor) SupportsRenderer(renderer string) bool {
	return true
}

// Run reads [context, book] from r and writes the expanded book to w.
// Fields of the book this preprocessor does not touch are passed through.
func (p *Preprocessor) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	var input []json.RawMessage
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return fmt.Errorf("decode preprocessor input: %w", err)
	}
	if len(input) != 2 {
		return fmt.Errorf("decode preprocessor input: expected [context, book], got %d elements", len(input))
	}

	var bctx Context
	if err := json.Unmarshal(input[0], &bctx); err != nil {
		return fmt.Errorf("decode context: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(input[1]))
	dec.UseNumber()
	var book map[string]any
	if err := dec.Decode(&book); err != nil {
		return fmt.Errorf("decode book: %w", err)
	}

	log := p.log.With("renderer", bctx.Renderer, "mdbook_version", bctx.MdbookVersion)
	exp := include.NewExpander(include.NewResolver(p.fetcher, bctx.Headers(log)), log)

	n := 0
	forEachChapter(book, func(ch map[string]any) {
		content, ok := ch["content"].(string)
		if !ok {
			return
		}
		ch["content"] = exp.Expand(ctx, content)
		n++
	})
	log.Info("expanded book", "chapters", n)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(book); err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	return nil
}

// forEachChapter visits every chapter of book depth first. Books list
// their items under "sections" (mdBook 0.4) or "items" (0.5).
func forEachChapter(book map[string]any, fn func(ch map[string]any)) {
	var walk func(items []any)
	walk = func(items []any) {
		for _, it := range items {
			item, ok := it.(map[string]any)
			if !ok {
				continue // "Separator"
			}
			ch, ok := item["Chapter"].(map[string]any)
			if !ok {
				continue // {"PartTitle": ...}
			}
			fn(ch)
			if sub, ok := ch["sub_items"].([]any); ok {
				walk(sub)
			}
		}
	}
	for _, key := range []string{"sections", "items"} {
		if items, ok := book[key].([]any); ok {
			walk(items)
		}
	}
}

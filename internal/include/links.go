package include

import (
	"iter"
	"regexp"
	"strings"
)

const escapeChar = '\\'

// linkPattern matches either an escaped token (`\{{#...}}`, ending at the
// first `}}`) or a directive token `{{#kind args}}`. Group 1 is the kind,
// group 2 the argument payload; both are unset for escaped tokens.
var linkPattern = regexp.MustCompile(`\\\{\{#.*?\}\}|\{\{\s*#([a-zA-Z0-9_]+)\s+([^}]+)\}\}`)

// Link is one recognised token in a document.
type Link struct {
	Start int // byte offset of the first character
	End   int // byte offset just past the closing braces
	Text  string

	Directive Directive
	// Err is set when the token is a webinclude whose arguments could
	// not be parsed. Directive is zero in that case.
	Err error
}

// Links scans s left to right and yields every escaped token and every
// webinclude token. Tokens of other kinds belong to other preprocessors and
// are skipped.
func Links(s string) iter.Seq[Link] {
	return func(yield func(Link) bool) {
		offset := 0
		for offset < len(s) {
			loc := linkPattern.FindStringSubmatchIndex(s[offset:])
			if loc == nil {
				return
			}
			for i := range loc {
				if loc[i] >= 0 {
					loc[i] += offset
				}
			}
			offset = loc[1]

			link, ok := linkFromMatch(s, loc)
			if !ok {
				continue
			}
			if !yield(link) {
				return
			}
		}
	}
}

// FindLinks collects Links(s) into a slice.
func FindLinks(s string) []Link {
	var links []Link
	for l := range Links(s) {
		links = append(links, l)
	}
	return links
}

func linkFromMatch(s string, loc []int) (Link, bool) {
	link := Link{Start: loc[0], End: loc[1], Text: s[loc[0]:loc[1]]}

	switch {
	case loc[2] >= 0 && loc[4] >= 0:
		if s[loc[2]:loc[3]] != "webinclude" {
			return Link{}, false
		}
		link.Directive, link.Err = ParseArgs(s[loc[4]:loc[5]])
	case strings.HasPrefix(link.Text, string(escapeChar)):
		link.Directive = Directive{Kind: DirectiveEscaped}
	default:
		return Link{}, false
	}
	return link, true
}

package book

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a heading in a chapter together with the headings nested
// under it.
type Section struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Children []*Section `json:"children,omitempty"`
}

// Outline returns the heading hierarchy of a markdown document.
func Outline(src []byte) []*Section {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	type stackEntry struct {
		section *Section
		level   int
	}
	root := &Section{}
	stack := []stackEntry{{section: root, level: 0}}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		s := &Section{Title: headingText(h, src), Level: h.Level}

		// Pop until the top is a shallower heading.
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].section
		parent.Children = append(parent.Children, s)
		stack = append(stack, stackEntry{section: s, level: h.Level})
	}
	return root.Children
}

// Title returns the text of the first heading in src, or fallback.
func Title(src []byte, fallback string) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if t := headingText(h, src); t != "" {
				return t
			}
		}
	}
	return fallback
}

func headingText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				sb.Write(t.Value(src))
			case *ast.String:
				sb.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// Package book is the host document model: a book is an ordered list of
// markdown chapters, each expanded as one content unit.
package book

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Book is an ordered collection of chapters.
type Book struct {
	Title    string
	Chapters []*Chapter
}

// Chapter is a single markdown source file.
type Chapter struct {
	Name    string // First heading, or the file name without extension
	Path    string // Slash-separated path relative to the book root
	Content string
}

// IsChapterFile reports whether name looks like a markdown chapter.
func IsChapterFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// New returns an empty book.
func New(title string) *Book {
	return &Book{Title: title}
}

// Add appends a chapter and names it from its first heading.
func (b *Book) Add(path, content string) *Chapter {
	ch := &Chapter{
		Name:    Title([]byte(content), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))),
		Path:    filepath.ToSlash(path),
		Content: content,
	}
	b.Chapters = append(b.Chapters, ch)
	return ch
}

// Load reads every markdown file under root, ordered by relative path.
// Files whose slash-separated relative path matches one of the ignore
// globs (doublestar syntax, e.g. "drafts/**") are skipped.
func Load(root string, ignore ...string) (*Book, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsChapterFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ignored(filepath.ToSlash(rel), ignore) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	b := New(filepath.Base(filepath.Clean(root)))
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("read chapter: %w", err)
		}
		b.Add(rel, string(data))
	}
	return b, nil
}

func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}

// ForEachChapter calls fn for every chapter in order.
func (b *Book) ForEachChapter(fn func(ch *Chapter)) {
	for _, ch := range b.Chapters {
		fn(ch)
	}
}

// Write mirrors the chapters into dir, creating directories as needed.
// ext replaces each chapter's extension when non-empty.
func (b *Book) Write(dir, ext string) error {
	for _, ch := range b.Chapters {
		name := filepath.FromSlash(ch.Path)
		if ext != "" {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
		}
		out := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
		if err := os.WriteFile(out, []byte(ch.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}
	return nil
}

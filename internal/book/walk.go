package book

import (
	"path"
	"strings"
)

// Chapters returns every chapter of the book in reading order, drafts
// included: depth first, a parent before its sub-chapters. Separators and
// part titles contribute nothing.
//
// The returned chapters point into the book, so edits to their content are
// visible when the book is written back.
func Chapters(b *Book) []*Chapter {
	var chapters []*Chapter

	// Explicit stack of pending item lists; each frame is consumed front to back.
	stack := [][]BookItem{b.Items}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if len(top) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		item := top[0]
		stack[len(stack)-1] = top[1:]

		if item.Kind != KindChapter || item.Chapter == nil {
			continue
		}
		chapters = append(chapters, item.Chapter)
		if len(item.Chapter.SubItems) > 0 {
			stack = append(stack, item.Chapter.SubItems)
		}
	}

	return chapters
}

// Flatten is Chapters without the drafts. Sub-chapters of a draft are kept.
func Flatten(b *Book) []*Chapter {
	var chapters []*Chapter
	for _, ch := range Chapters(b) {
		if !ch.IsDraft() {
			chapters = append(chapters, ch)
		}
	}
	return chapters
}

// ID returns the chapter's canonical identifier, or "" for drafts.
func (c *Chapter) ID() string {
	if c.IsDraft() {
		return ""
	}
	return CanonicalPath(*c.SourcePath)
}

// CanonicalPath normalizes a book-relative path: forward slashes, no leading
// "./", no redundant separators or "." segments.
func CanonicalPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

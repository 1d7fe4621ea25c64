// Package srcdir builds a book tree straight from a directory of markdown
// files, for inspecting backlinks without going through mdbook.
package srcdir

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/contextutil"
)

// summaryFile is mdbook's table of contents; it is not a chapter.
const summaryFile = "SUMMARY.md"

// IOError reports a failed filesystem operation on the source directory.
type IOError struct {
	Operation string // e.g. "read", "walk"
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Scan walks root in lexical order and returns a book with one top-level
// chapter per markdown file. Hidden directories and SUMMARY.md are skipped.
// Source paths are relative to root with forward slashes.
func Scan(ctx context.Context, root string) (*book.Book, error) {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, &IOError{Operation: "stat", Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &IOError{Operation: "scan", Path: root, Err: fmt.Errorf("not a directory")}
	}

	b := &book.Book{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IOError{Operation: "walk", Path: path, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories such as .git
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		// Filter for markdown files
		if filepath.Ext(path) != ".md" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		// Normalize relative path (use forward slashes for consistency)
		relPath = filepath.ToSlash(relPath)
		if relPath == summaryFile {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return &IOError{Operation: "read", Path: path, Err: err}
		}

		name := ExtractTitle(content, relPath)
		b.Items = append(b.Items, book.ChapterItem(book.NewChapter(name, relPath, string(content))))
		logger.DebugContext(ctx, "found chapter", "source_path", relPath, "name", name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

package links

import (
	"net/url"
	"path"
	"strings"
)

// Resolved is the outcome of resolving a link: either a chapter of the book
// (Internal) or anything else (External).
type Resolved struct {
	Target   string // chapter identifier; empty when External
	Internal bool
}

// External is the result for links that do not name a chapter of the book.
var External = Resolved{}

// Internal returns the result for a link to chapter id.
func Internal(id string) Resolved {
	return Resolved{Target: id, Internal: true}
}

// ChapterSet is the set of chapter identifiers known to the book.
type ChapterSet map[string]struct{}

// NewChapterSet builds a set from identifiers.
func NewChapterSet(ids ...string) ChapterSet {
	s := make(ChapterSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a chapter of the book.
func (s ChapterSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Resolve decides whether target, written in the chapter identified by
// source, points at another chapter in chapters.
//
// The fragment and query are dropped first. Empty targets, targets with a URL
// scheme and protocol-relative targets are External. Percent escapes are decoded. A
// leading "/" is taken from the book root, anything else from the source
// chapter's directory. Paths that leave the book are External.
func Resolve(target, source string, chapters ChapterSet) Resolved {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	target = strings.TrimSpace(target)
	if target == "" || hasScheme(target) || strings.HasPrefix(target, "//") {
		return External
	}

	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}

	var joined string
	if strings.HasPrefix(target, "/") {
		joined = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		joined = path.Join(path.Dir(source), target)
	}

	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return External
	}
	if chapters.Has(joined) {
		return Internal(joined)
	}
	return External
}

// hasScheme reports whether s starts with a URL scheme such as "https:" or
// "mailto:" (RFC 3986: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ) ":").
func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return false
			}
		case c == ':':
			return i > 0
		default:
			return false
		}
	}
	return false
}

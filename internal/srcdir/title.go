package srcdir

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var titleParser = goldmark.New(goldmark.WithParserOptions(parser.WithHeadingAttribute())).Parser()

// ExtractTitle names a chapter after its first level-1 heading, else its
// first level-2 heading, else its file name. Only top-level headings count;
// a heading quoted inside a block quote or list is not a title.
func ExtractTitle(content []byte, filename string) string {
	doc := titleParser.Parse(text.NewReader(content))

	title, level := "", 0
	for n := doc.FirstChild(); n != nil && level != 1; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 2 || (level != 0 && h.Level >= level) {
			continue
		}
		if t := headingText(h, content); t != "" {
			title, level = t, h.Level
		}
	}
	if title != "" {
		return title
	}
	return titleFromFilename(filename)
}

func headingText(n ast.Node, content []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(content))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// titleFromFilename turns "getting-started.md" into "Getting Started".
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Package links finds the links in a chapter's markdown and decides which of
// them point at other chapters of the same book.
package links

import (
	"iter"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Kind says which syntax a link was written in.
type Kind int

const (
	// KindInline is [text](target).
	KindInline Kind = iota
	// KindReference is [text][label], [label][] or [label] with a definition.
	KindReference
	// KindHTML is a raw <a href="target"> anchor.
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindReference:
		return "reference"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// RawLink is a link as written in a chapter, before resolution.
type RawLink struct {
	Source string // identifier of the chapter the link appears in
	Text   string // display text, unescaped and whitespace collapsed; empty for an empty label
	Target string // destination as written
	Offset int    // byte offset of the opening '[' or '<'; -1 when unknown
	Kind   Kind
}

// Extractor finds links in markdown using goldmark.
type Extractor struct {
	md goldmark.Markdown
}

// NewExtractor creates an extractor with the markdown extensions mdbook
// enables: tables, strikethrough, task lists and footnotes.
func NewExtractor() *Extractor {
	return &Extractor{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.TaskList,
				extension.Footnote,
			),
			goldmark.WithParserOptions(parser.WithHeadingAttribute()),
		),
	}
}

// Links returns the links of one chapter in document order. The sequence
// parses content each time it is ranged over, so it can be restarted.
// Code spans and code blocks are never scanned, and images are not links.
func (e *Extractor) Links(source, content string) iter.Seq[RawLink] {
	return func(yield func(RawLink) bool) {
		src := []byte(content)
		if len(src) == 0 {
			return
		}
		doc := e.md.Parser().Parse(text.NewReader(src))

		w := &walker{src: src, source: source, yield: yield}
		_ = ast.Walk(doc, w.visit)
		if !w.stopped {
			w.flushAnchor()
		}
	}
}

// walker carries the state of one pass over a chapter's AST.
type walker struct {
	src     []byte
	source  string
	yield   func(RawLink) bool
	stopped bool

	// open inline <a> tag waiting for its </a>
	anchor       *RawLink
	anchorText   strings.Builder
	anchorParent ast.Node
}

func (w *walker) emit(l RawLink) bool {
	if w.stopped {
		return false
	}
	if !w.yield(l) {
		w.stopped = true
		return false
	}
	return true
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		if w.anchor != nil && n == w.anchorParent {
			if !w.flushAnchor() {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	}

	switch node := n.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.CodeSpan:
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		l := RawLink{
			Source: w.source,
			Text:   plainText(node, w.src),
			Target: string(node.Destination),
			Offset: w.labelStart(node),
			Kind:   w.linkKind(node),
		}
		if !w.emit(l) {
			return ast.WalkStop, nil
		}
		// The label was consumed as display text; links cannot nest.
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		raw, start := blockHTML(node, w.src)
		for _, l := range anchorsInHTML(raw, start) {
			l.Source = w.source
			if !w.emit(l) {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if !w.inlineHTML(node) {
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if w.anchor != nil {
			w.anchorText.Write(textValue(node, w.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.anchorText.WriteByte(' ')
			}
		}

	case *ast.String:
		if w.anchor != nil {
			w.anchorText.Write(node.Value)
		}
	}

	return ast.WalkContinue, nil
}

// inlineHTML tracks inline <a> ... </a> pairs, which goldmark splits into
// separate raw HTML nodes around the anchor's text.
func (w *walker) inlineHTML(node *ast.RawHTML) bool {
	var raw []byte
	for i := 0; i < node.Segments.Len(); i++ {
		seg := node.Segments.At(i)
		raw = append(raw, seg.Value(w.src)...)
	}
	offset := -1
	if node.Segments.Len() > 0 {
		offset = node.Segments.At(0).Start
	}

	tag := parseTag(raw)
	switch {
	case tag.name == "a" && tag.closing:
		return w.flushAnchor()
	case tag.name == "a" && tag.href != "":
		if !w.flushAnchor() {
			return false
		}
		w.anchor = &RawLink{Source: w.source, Target: tag.href, Offset: offset, Kind: KindHTML}
		w.anchorText.Reset()
		w.anchorParent = node.Parent()
	}
	return true
}

// flushAnchor emits the pending inline anchor, if any.
func (w *walker) flushAnchor() bool {
	if w.anchor == nil {
		return true
	}
	l := *w.anchor
	l.Text = collapseSpace(w.anchorText.String())
	w.anchor = nil
	w.anchorParent = nil
	w.anchorText.Reset()
	return w.emit(l)
}

// labelStart finds the '[' that opens a link's label.
func (w *walker) labelStart(n ast.Node) int {
	first, _ := textBounds(n)
	if first < 0 {
		return -1
	}
	for i := first - 1; i >= 0; i-- {
		if w.src[i] == '[' {
			return i
		}
	}
	return -1
}

// linkKind tells inline links from reference links by what follows the
// label: an inline link continues with "(" and a closing ")" in the same
// paragraph. goldmark does not record which form it parsed, so a shortcut
// reference followed by a literal parenthesized text is reported as inline.
func (w *walker) linkKind(n ast.Node) Kind {
	_, last := textBounds(n)
	if last < 0 {
		return KindInline
	}
	i := last
	for i < len(w.src) && w.src[i] != ']' {
		if w.src[i] == '\\' {
			i++
		}
		i++
	}
	if i+1 >= len(w.src) || w.src[i+1] != '(' {
		return KindReference
	}
	if closesParen(w.src[i+2:]) {
		return KindInline
	}
	return KindReference
}

// closesParen reports whether src holds the ")" ending an inline link's
// destination and title before the paragraph ends.
func closesParen(src []byte) bool {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return true
			}
			depth--
		case '\n':
			if i+1 < len(src) && src[i+1] == '\n' {
				return false
			}
		}
	}
	return false
}

// textBounds returns the start of the first and the end of the last text
// segment under n, or -1 when n holds no source text.
func textBounds(n ast.Node) (int, int) {
	first, last := -1, -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			if first < 0 {
				first = t.Segment.Start
			}
			last = t.Segment.Stop
		}
		return ast.WalkContinue, nil
	})
	return first, last
}

// plainText flattens the inline content under n: emphasis markers dropped,
// code spans and image alt text kept.
func plainText(n ast.Node, src []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(textValue(node, src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return collapseSpace(buf.String())
}

// textValue returns the text of t as it reads once rendered: backslash
// escapes and entity references are resolved. Code span text is raw.
func textValue(t *ast.Text, src []byte) []byte {
	v := t.Segment.Value(src)
	if t.IsRaw() {
		return v
	}
	var out []byte
	start := 0
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) && util.IsPunct(v[i+1]) {
			out = append(out, resolveEntities(v[start:i])...)
			out = append(out, v[i+1])
			i++
			start = i + 1
		}
	}
	return append(out, resolveEntities(v[start:])...)
}

func resolveEntities(b []byte) []byte {
	return util.ResolveEntityNames(util.ResolveNumericReferences(b))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// blockHTML returns the source of an HTML block and its offset.
func blockHTML(n *ast.HTMLBlock, src []byte) ([]byte, int) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return nil, -1
	}
	start := lines.At(0).Start
	stop := lines.At(lines.Len() - 1).Stop
	if n.HasClosure() {
		stop = n.ClosureLine.Stop
	}
	if stop > len(src) {
		stop = len(src)
	}
	return src[start:stop], start
}

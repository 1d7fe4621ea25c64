package links

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// htmlTag is the part of a single inline tag the extractor cares about.
type htmlTag struct {
	name    string
	href    string
	closing bool
}

// parseTag reads the first tag in raw, as found in an inline raw HTML node.
func parseTag(raw []byte) htmlTag {
	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return htmlTag{}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := htmlTag{name: string(name)}
			if tag.name == "a" && hasAttr {
				tag.href = hrefAttr(z)
			}
			return tag
		case html.EndTagToken:
			name, _ := z.TagName()
			return htmlTag{name: string(name), closing: true}
		}
	}
}

// anchorsInHTML returns every <a href> in an HTML block together with the
// text it encloses. base is the block's offset in the chapter.
func anchorsInHTML(raw []byte, base int) []RawLink {
	var (
		out  []RawLink
		open *RawLink
		text strings.Builder
		pos  int
	)

	closeAnchor := func() {
		if open == nil {
			return
		}
		open.Text = collapseSpace(text.String())
		if open.Text == "" {
			open.Text = open.Target
		}
		out = append(out, *open)
		open = nil
		text.Reset()
	}

	z := html.NewTokenizer(bytes.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tokenStart := pos
		pos += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			href := hrefAttr(z)
			if href == "" {
				continue
			}
			closeAnchor()
			offset := -1
			if base >= 0 {
				offset = base + tokenStart
			}
			open = &RawLink{Target: href, Offset: offset, Kind: KindHTML}
		case html.TextToken:
			if open != nil {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "a" {
				closeAnchor()
			}
		}
	}
	closeAnchor()

	return out
}

func hrefAttr(z *html.Tokenizer) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return strings.TrimSpace(string(val))
		}
		if !more {
			return ""
		}
	}
}

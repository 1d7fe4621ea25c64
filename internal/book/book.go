// Package book models the chapter tree mdbook hands to preprocessors and
// flattens it into reading order.
package book

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Book is the root of the chapter tree.
type Book struct {
	Items []BookItem

	// itemsKey is the JSON key the items were read from ("sections" or "items").
	itemsKey string
	extra    map[string]json.RawMessage
}

// ItemKind tags a BookItem.
type ItemKind int

const (
	// KindChapter is a chapter, possibly a draft without a source file.
	KindChapter ItemKind = iota
	// KindSeparator is a horizontal separator in the summary.
	KindSeparator
	// KindPartTitle is a part heading with no content of its own.
	KindPartTitle
)

func (k ItemKind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindSeparator:
		return "separator"
	case KindPartTitle:
		return "part_title"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// BookItem is one entry of the summary: a chapter or a structural marker.
type BookItem struct {
	Kind      ItemKind
	Chapter   *Chapter // set when Kind == KindChapter
	PartTitle string   // set when Kind == KindPartTitle
}

// Chapter is a single page of the book as the host describes it.
type Chapter struct {
	Name        string
	Content     string
	Number      []int // nil for unnumbered chapters
	SubItems    []BookItem
	Path        *string // rendered path; nil for drafts
	SourcePath  *string // path of the markdown file under src/; nil for drafts
	ParentNames []string

	extra map[string]json.RawMessage
}

// IsDraft reports whether the chapter has no backing source file.
func (c *Chapter) IsDraft() bool {
	return c.SourcePath == nil || *c.SourcePath == ""
}

// NewChapter returns a chapter backed by sourcePath. Used when a tree is
// assembled outside of mdbook.
func NewChapter(name, sourcePath, content string) *Chapter {
	src := sourcePath
	p := sourcePath
	return &Chapter{
		Name:       name,
		Content:    content,
		Path:       &p,
		SourcePath: &src,
	}
}

// ChapterItem wraps a chapter in a BookItem.
func ChapterItem(ch *Chapter) BookItem {
	return BookItem{Kind: KindChapter, Chapter: ch}
}

const (
	keySections = "sections"
	keyItems    = "items"
)

// UnmarshalJSON reads the host's book object, keeping fields it does not know.
func (b *Book) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.itemsKey = keySections
	itemsRaw, ok := raw[keySections]
	if !ok {
		if itemsRaw, ok = raw[keyItems]; ok {
			b.itemsKey = keyItems
		}
	}
	if !ok {
		return fmt.Errorf("book has neither %q nor %q", keySections, keyItems)
	}
	delete(raw, b.itemsKey)

	b.Items = nil
	if err := json.Unmarshal(itemsRaw, &b.Items); err != nil {
		return fmt.Errorf("book %s: %w", b.itemsKey, err)
	}
	b.extra = raw
	return nil
}

// MarshalJSON writes the book back under the same items key it was read from.
func (b Book) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(b.extra)+1)
	for k, v := range b.extra {
		out[k] = v
	}
	key := b.itemsKey
	if key == "" {
		key = keySections
	}
	items := b.Items
	if items == nil {
		items = []BookItem{}
	}
	out[key] = items
	if b.extra == nil && key == keySections {
		out["__non_exhaustive"] = nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the externally tagged form the host uses:
// {"Chapter": {...}}, "Separator" or {"PartTitle": "..."}.
func (it *BookItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Separator" {
			return fmt.Errorf("unknown book item %q", tag)
		}
		*it = BookItem{Kind: KindSeparator}
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("book item must have exactly one variant, got %d", len(tagged))
	}
	for tag, body := range tagged {
		switch tag {
		case "Chapter":
			ch := &Chapter{}
			if err := json.Unmarshal(body, ch); err != nil {
				return fmt.Errorf("chapter: %w", err)
			}
			*it = BookItem{Kind: KindChapter, Chapter: ch}
		case "PartTitle":
			var title string
			if err := json.Unmarshal(body, &title); err != nil {
				return fmt.Errorf("part title: %w", err)
			}
			*it = BookItem{Kind: KindPartTitle, PartTitle: title}
		case "Separator":
			*it = BookItem{Kind: KindSeparator}
		default:
			return fmt.Errorf("unknown book item %q", tag)
		}
	}
	return nil
}

// MarshalJSON encodes the item in the host's externally tagged form.
func (it BookItem) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case KindChapter:
		if it.Chapter == nil {
			return nil, fmt.Errorf("chapter item without chapter")
		}
		return json.Marshal(map[string]*Chapter{"Chapter": it.Chapter})
	case KindSeparator:
		return json.Marshal("Separator")
	case KindPartTitle:
		return json.Marshal(map[string]string{"PartTitle": it.PartTitle})
	default:
		return nil, fmt.Errorf("unknown item kind %v", it.Kind)
	}
}

type chapterFields struct {
	Name        string     `json:"name"`
	Content     string     `json:"content"`
	Number      []int      `json:"number"`
	SubItems    []BookItem `json:"sub_items"`
	Path        *string    `json:"path"`
	SourcePath  *string    `json:"source_path"`
	ParentNames []string   `json:"parent_names"`
}

var chapterKeys = []string{"name", "content", "number", "sub_items", "path", "source_path", "parent_names"}

// UnmarshalJSON decodes a chapter, keeping fields it does not know.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	var f chapterFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range chapterKeys {
		delete(raw, k)
	}

	*c = Chapter{
		Name:        f.Name,
		Content:     f.Content,
		Number:      f.Number,
		SubItems:    f.SubItems,
		Path:        f.Path,
		SourcePath:  f.SourcePath,
		ParentNames: f.ParentNames,
	}
	if len(raw) > 0 {
		c.extra = raw
	}
	return nil
}

// MarshalJSON encodes a chapter with the host's field names.
func (c *Chapter) MarshalJSON() ([]byte, error) {
	f := chapterFields{
		Name:        c.Name,
		Content:     c.Content,
		Number:      c.Number,
		SubItems:    c.SubItems,
		Path:        c.Path,
		SourcePath:  c.SourcePath,
		ParentNames: c.ParentNames,
	}
	if f.SubItems == nil {
		f.SubItems = []BookItem{}
	}
	if f.ParentNames == nil {
		f.ParentNames = []string{}
	}
	if len(c.extra) == 0 {
		return json.Marshal(f)
	}

	known, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range c.extra {
		out[k] = v
	}
	return json.Marshal(out)
}

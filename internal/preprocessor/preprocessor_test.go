package preprocessor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"mdbook-backlinks/internal/backlinks"
	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/contextutil"
)

func newBook(chapters ...*book.Chapter) *book.Book {
	b := &book.Book{}
	for _, ch := range chapters {
		b.Items = append(b.Items, book.ChapterItem(ch))
	}
	return b
}

func TestBacklinks_Run_EndToEnd(t *testing.T) {
	index := book.NewChapter("Index", "index.md", "see [x](b/x.md)")
	x := book.NewChapter("X", "b/x.md", "root doc")
	y := book.NewChapter("Y", "b/y.md", "[back](../index.md)")

	out, err := New().Run(context.Background(), &Context{}, newBook(index, x, y))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out == nil {
		t.Fatal("Run() returned nil book")
	}

	if !strings.HasPrefix(index.Content, "see [x](b/x.md)") || !strings.Contains(index.Content, "- [back](b/y.md)") {
		t.Errorf("index.md: expected backlink from b/y.md, got %q", index.Content)
	}
	if !strings.HasPrefix(x.Content, "root doc") || !strings.Contains(x.Content, "- [x](../index.md)") {
		t.Errorf("b/x.md: expected backlink from index.md, got %q", x.Content)
	}
	if y.Content != "[back](../index.md)" {
		t.Errorf("b/y.md: expected no section, got %q", y.Content)
	}
}

func TestBacklinks_Run_DanglingLink(t *testing.T) {
	a := book.NewChapter("A", "a.md", "[missing](nonexistent.md)")
	b := book.NewChapter("B", "b.md", "plain")

	if _, err := New().Run(context.Background(), &Context{}, newBook(a, b)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.Content != "[missing](nonexistent.md)" || b.Content != "plain" {
		t.Errorf("expected chapters unchanged, got %q and %q", a.Content, b.Content)
	}
}

func TestBacklinks_Run_NestedAndDrafts(t *testing.T) {
	leaf := book.NewChapter("Leaf", "part/leaf.md", "[top](../top.md)")
	draft := &book.Chapter{Name: "Draft", Content: "[top](top.md)", SubItems: []book.BookItem{book.ChapterItem(leaf)}}
	top := book.NewChapter("Top", "top.md", "# Top")
	top.SubItems = []book.BookItem{book.ChapterItem(draft)}

	b := &book.Book{Items: []book.BookItem{
		{Kind: book.KindPartTitle, PartTitle: "Part"},
		book.ChapterItem(top),
		{Kind: book.KindSeparator},
	}}

	if _, err := New().Run(context.Background(), &Context{}, b); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(top.Content, "- [top](part/leaf.md)") {
		t.Errorf("expected nested chapter to backlink top, got %q", top.Content)
	}
	if strings.Contains(top.Content, "Draft") {
		t.Errorf("draft chapters have no source and must not appear, got %q", top.Content)
	}
	if draft.Content != "[top](top.md)" {
		t.Errorf("draft content must be untouched, got %q", draft.Content)
	}
}

func TestBacklinks_Run_SelfLinkAndCode(t *testing.T) {
	a := book.NewChapter("A", "a.md", "[me](a.md#intro) and [me again](#top)")
	b := book.NewChapter("B", "b.md", "```\n[a](a.md)\n```\n\n`[a](a.md)`")

	if _, err := New().Run(context.Background(), &Context{}, newBook(a, b)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(a.Content, backlinks.Heading) {
		t.Errorf("expected no backlinks for a.md, got %q", a.Content)
	}
}

func TestBacklinks_Scan_Stats(t *testing.T) {
	a := book.NewChapter("A", "a.md", "[b](b.md) [b again](b.md) [self](a.md) [web](https://example.com)")
	b := book.NewChapter("B", "b.md", "[a](a.md)")
	draft := &book.Chapter{Name: "Draft", Content: "[a](a.md)"}

	graph, stats, err := New().Scan(context.Background(), []*book.Chapter{a, draft, b})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := backlinks.RunStats{
		ChaptersScanned: 2,
		DraftsSkipped:   1,
		LinksFound:      5,
		InternalLinks:   4,
		ExternalLinks:   1,
		SelfLinks:       1,
		DuplicateLinks:  1,
		Entries:         2,
	}
	if stats != want {
		t.Errorf("expected stats %+v, got %+v", want, stats)
	}
	if graph.Len() != 2 {
		t.Errorf("expected 2 targets, got %d", graph.Len())
	}
	if a.Content != "[b](b.md) [b again](b.md) [self](a.md) [web](https://example.com)" {
		t.Errorf("Scan must not modify chapters, got %q", a.Content)
	}
}

func TestBacklinks_Run_CountsDrafts(t *testing.T) {
	leaf := book.NewChapter("Leaf", "leaf.md", "text")
	draft := &book.Chapter{Name: "Draft", SubItems: []book.BookItem{book.ChapterItem(leaf)}}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := contextutil.WithLogger(context.Background(), logger)

	if _, err := New().Run(ctx, &Context{}, newBook(draft)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "stats.drafts_skipped=1") {
		t.Errorf("expected drafts_skipped in the run summary, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "stats.chapters_scanned=1") {
		t.Errorf("expected the draft's sub-chapter to be scanned, got %q", buf.String())
	}
}

func TestBacklinks_Run_EmptyLabelUsesChapterName(t *testing.T) {
	a := book.NewChapter("Getting Started", "a.md", "[](b.md) and <a href=\"c.md\"></a>")
	b := book.NewChapter("B", "b.md", "text")
	c := book.NewChapter("C", "c.md", "text")
	unnamed := book.NewChapter("", "sub/u.md", "[](../c.md)")

	if _, err := New().Run(context.Background(), &Context{}, newBook(a, b, c, unnamed)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(b.Content, "> - [Getting Started](a.md)") {
		t.Errorf("expected the source chapter's name as display text, got %q", b.Content)
	}
	if !strings.Contains(c.Content, "> - [Getting Started](a.md)") {
		t.Errorf("expected the source chapter's name for an empty anchor, got %q", c.Content)
	}
	if !strings.Contains(c.Content, "> - [sub/u.md](sub/u.md)") {
		t.Errorf("expected the source path when the chapter has no name, got %q", c.Content)
	}
}

func TestBacklinks_Run_EscapedLabel(t *testing.T) {
	a := book.NewChapter("A", "a.md", "text")
	b := book.NewChapter("B", "b.md", `[a\]b \*c\*](a.md)`)

	if _, err := New().Run(context.Background(), &Context{}, newBook(a, b)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := `> - [a\]b \*c\*](b.md)`; !strings.Contains(a.Content, want) {
		t.Errorf("expected %q in %q", want, a.Content)
	}
}

func TestBacklinks_Run_Cancelled(t *testing.T) {
	a := book.NewChapter("A", "a.md", "[b](b.md)")
	b := book.NewChapter("B", "b.md", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New().Run(ctx, &Context{}, newBook(a, b))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out != nil {
		t.Error("expected no book on cancellation")
	}
	if b.Content != "text" {
		t.Errorf("expected no injection on cancellation, got %q", b.Content)
	}
}

func TestBacklinks_Name(t *testing.T) {
	if got := New().Name(); got != "backlinks" {
		t.Errorf("expected name %q, got %q", "backlinks", got)
	}
}

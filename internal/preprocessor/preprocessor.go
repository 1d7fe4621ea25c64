// Package preprocessor runs the backlinks pipeline over a book and speaks
// mdbook's preprocessor protocol.
package preprocessor

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_preprocessor.go -package=mocks mdbook-backlinks/internal/preprocessor Preprocessor

import (
	"context"

	"mdbook-backlinks/internal/backlinks"
	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/contextutil"
	"mdbook-backlinks/internal/links"
)

// Name is the name the preprocessor is enabled under in book.toml.
const Name = "backlinks"

// Preprocessor transforms a book before it is rendered.
type Preprocessor interface {
	// Name returns the preprocessor's name as used in book.toml.
	Name() string
	// Run processes b and returns the book to hand back to the host.
	Run(ctx context.Context, hostCtx *Context, b *book.Book) (*book.Book, error)
}

// Backlinks appends to every chapter the list of chapters linking to it.
type Backlinks struct {
	extractor *links.Extractor
}

// New creates the backlinks preprocessor.
func New() *Backlinks {
	return &Backlinks{
		extractor: links.NewExtractor(),
	}
}

// Name implements Preprocessor.
func (p *Backlinks) Name() string {
	return Name
}

// Run implements Preprocessor. The book is modified in place and returned.
func (p *Backlinks) Run(ctx context.Context, _ *Context, b *book.Book) (*book.Book, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chapters := book.Chapters(b)
	graph, stats, err := p.Scan(ctx, chapters)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.ChaptersWithBacklinks = backlinks.Inject(chapters, graph)

	logger.InfoContext(ctx, "backlinks injected", "stats", stats)
	return b, nil
}

// Scan is the first phase: it reads every chapter, resolves its links and
// returns the finished graph. Drafts are counted and skipped. Chapters are
// not modified.
//
// A link with an empty label is listed under the name of the chapter it
// appears in, or its path when the chapter has no name.
func (p *Backlinks) Scan(ctx context.Context, chapters []*book.Chapter) (*backlinks.Graph, backlinks.RunStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var stats backlinks.RunStats
	sources := make([]*book.Chapter, 0, len(chapters))
	ids := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		if ch.IsDraft() {
			stats.DraftsSkipped++
			logger.DebugContext(ctx, "skipping draft chapter", "name", ch.Name)
			continue
		}
		sources = append(sources, ch)
		ids = append(ids, ch.ID())
	}
	known := links.NewChapterSet(ids...)

	builder := backlinks.NewBuilder()

	for i, ch := range sources {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		source := ids[i]
		stats.ChaptersScanned++

		var found, internal int
		for l := range p.extractor.Links(source, ch.Content) {
			res := links.Resolve(l.Target, source, known)
			text := l.Text
			if text == "" {
				text = ch.Name
			}
			if text == "" {
				text = source
			}
			outcome := builder.Add(source, res, text)
			stats.Record(outcome)
			found++
			if res.Internal {
				internal++
			} else {
				logger.DebugContext(ctx, "skipping external link", "source", source, "target", l.Target, "offset", l.Offset)
			}
		}
		logger.DebugContext(ctx, "scanned chapter", "source", source, "links", found, "internal", internal)
	}

	return builder.Build(), stats, nil
}

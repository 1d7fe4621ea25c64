// Command mdbook-backlinks is an mdbook preprocessor that appends a list of
// linking chapters to every chapter of a book.
//
// mdbook invokes it twice: once as "mdbook-backlinks supports <renderer>" and
// once with no arguments, feeding [context, book] JSON on stdin and reading the
// processed book from stdout. Logs always go to stderr.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"mdbook-backlinks/internal/backlinks"
	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/config"
	"mdbook-backlinks/internal/contextutil"
	"mdbook-backlinks/internal/preprocessor"
	"mdbook-backlinks/internal/srcdir"
)

const version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" default:"1" help:"Preprocess a book read from stdin (what mdbook calls)"`
	Supports SupportsCmd `cmd:"" help:"Report whether a renderer is supported"`
	Graph    GraphCmd    `cmd:"" help:"Print the backlink graph of a book source directory"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// cliContext carries what every command needs.
type cliContext struct {
	ctx    context.Context
	pre    preprocessor.Preprocessor
	stdin  io.Reader
	stdout io.Writer
}

// RunCmd handles one preprocessing exchange with mdbook.
type RunCmd struct{}

func (c *RunCmd) Run(cc *cliContext) error {
	return preprocessor.Handle(cc.ctx, cc.pre, cc.stdin, cc.stdout)
}

// SupportsCmd answers mdbook's capability query. Backlinks only touch
// markdown, so every renderer is supported.
type SupportsCmd struct {
	Renderer string `arg:"" help:"Renderer name"`
}

func (c *SupportsCmd) Run(cc *cliContext) error {
	contextutil.LoggerFromContext(cc.ctx).DebugContext(cc.ctx, "renderer supported", "renderer", c.Renderer)
	return nil
}

// GraphCmd scans a source directory and prints the backlink graph as JSON.
type GraphCmd struct {
	Dir string `arg:"" help:"Book source directory (usually src)"`
}

type graphEntry struct {
	Source string `json:"source"`
	Name   string `json:"name"` // name of the source chapter
	Text   string `json:"text"`
}

type graphOutput struct {
	Stats     backlinks.RunStats      `json:"stats"`
	Backlinks map[string][]graphEntry `json:"backlinks"`
}

func (c *GraphCmd) Run(cc *cliContext) error {
	b, err := srcdir.Scan(cc.ctx, c.Dir)
	if err != nil {
		return err
	}

	chapters := book.Chapters(b)
	graph, stats, err := preprocessor.New().Scan(cc.ctx, chapters)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	stats.ChaptersWithBacklinks = graph.Len()

	names := make(map[string]string, len(chapters))
	for _, ch := range chapters {
		names[ch.ID()] = ch.Name
	}
	out := graphOutput{Stats: stats, Backlinks: make(map[string][]graphEntry, graph.Len())}
	for _, target := range graph.Targets() {
		for _, e := range graph.Entries(target) {
			out.Backlinks[target] = append(out.Backlinks[target], graphEntry{
				Source: e.Source,
				Name:   names[e.Source],
				Text:   e.Text,
			})
		}
	}
	enc := json.NewEncoder(cc.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(cc *cliContext) error {
	_, err := fmt.Fprintf(cc.stdout, "mdbook-backlinks version %s (mdbook %s)\n", version, preprocessor.ProtocolVersion)
	return err
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// run parses args and executes the selected command, returning the exit code.
func run(args []string, pre preprocessor.Preprocessor, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := newLogger(cfg, stderr)
	slog.SetDefault(logger)
	logger = logger.With("run_id", uuid.NewString())

	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("mdbook-backlinks"),
		kong.Description("mdbook preprocessor that adds a Backlinks section to every linked chapter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to build command line: %v\n", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help and friends
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "mdbook-backlinks: %v\n", err)
		return 1
	}

	ctx := contextutil.WithLogger(context.Background(), logger)
	logger.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat, "command", kctx.Command())

	cc := &cliContext{
		ctx:    ctx,
		pre:    pre,
		stdin:  stdin,
		stdout: stdout,
	}
	if err := kctx.Run(cc); err != nil {
		logger.Error("mdbook-backlinks failed", "command", kctx.Command(), "error", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], preprocessor.New(), os.Stdin, os.Stdout, os.Stderr))
}

// Package backlinks inverts the chapter link relation and renders the result
// back into chapter content.
package backlinks

import (
	"sort"

	"mdbook-backlinks/internal/links"
)

// Entry records that Source links to a chapter, with the text of the first
// such link.
type Entry struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Graph maps a target chapter to the chapters linking to it, in discovery
// order. It is read-only once built.
type Graph struct {
	entries map[string][]Entry
}

// Entries returns the backlinks of target. The slice must not be modified.
func (g *Graph) Entries(target string) []Entry {
	if g == nil {
		return nil
	}
	return g.entries[target]
}

// Targets returns every chapter with at least one backlink, sorted.
func (g *Graph) Targets() []string {
	if g == nil {
		return nil
	}
	targets := make([]string, 0, len(g.entries))
	for t := range g.entries {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Len returns the number of chapters with backlinks.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Map returns a copy of the graph keyed by target.
func (g *Graph) Map() map[string][]Entry {
	out := make(map[string][]Entry, g.Len())
	for _, t := range g.Targets() {
		out[t] = append([]Entry(nil), g.entries[t]...)
	}
	return out
}

// Outcome says what the builder did with one link.
type Outcome int

const (
	// Added means a new entry was recorded.
	Added Outcome = iota
	// SkippedExternal means the link does not name a chapter.
	SkippedExternal
	// SkippedSelf means the chapter links to itself.
	SkippedSelf
	// SkippedDuplicate means the source already has an entry for the target.
	SkippedDuplicate
)

// Builder accumulates resolved links into a Graph. Links must be added in
// tree-walk order, and in extraction order within a chapter.
type Builder struct {
	entries map[string][]Entry
	seen    map[string]map[string]struct{} // target -> sources
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[string][]Entry),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Add records one link found in source with display text.
func (b *Builder) Add(source string, res links.Resolved, text string) Outcome {
	if !res.Internal {
		return SkippedExternal
	}
	target := res.Target
	if target == source {
		return SkippedSelf
	}

	sources, ok := b.seen[target]
	if !ok {
		sources = make(map[string]struct{})
		b.seen[target] = sources
	}
	if _, dup := sources[source]; dup {
		return SkippedDuplicate
	}
	sources[source] = struct{}{}
	b.entries[target] = append(b.entries[target], Entry{Source: source, Text: text})
	return Added
}

// Build hands the accumulated graph over. The builder must not be used
// afterwards.
func (b *Builder) Build() *Graph {
	g := &Graph{entries: b.entries}
	b.entries = nil
	b.seen = nil
	return g
}

package backlinks

import "log/slog"

// RunStats summarizes one preprocessing run.
type RunStats struct {
	// ChaptersScanned is the number of chapters with a source file.
	ChaptersScanned int `json:"chapters_scanned"`
	// DraftsSkipped is the number of draft chapters, which have no source file.
	DraftsSkipped int `json:"drafts_skipped"`
	// LinksFound is every link the extractor yielded.
	LinksFound int `json:"links_found"`
	// InternalLinks is the number of links that resolved to a chapter.
	InternalLinks int `json:"internal_links"`
	// ExternalLinks is the number of links that did not.
	ExternalLinks int `json:"external_links"`
	// SelfLinks is the number of internal links from a chapter to itself.
	SelfLinks int `json:"self_links"`
	// DuplicateLinks is the number of repeated links from one source to one target.
	DuplicateLinks int `json:"duplicate_links"`
	// Entries is the number of backlink entries in the graph.
	Entries int `json:"entries"`
	// ChaptersWithBacklinks is the number of chapters that received a section.
	ChaptersWithBacklinks int `json:"chapters_with_backlinks"`
}

// Record counts one link by what the builder did with it.
func (s *RunStats) Record(o Outcome) {
	s.LinksFound++
	switch o {
	case Added:
		s.InternalLinks++
		s.Entries++
	case SkippedExternal:
		s.ExternalLinks++
	case SkippedSelf:
		s.InternalLinks++
		s.SelfLinks++
	case SkippedDuplicate:
		s.InternalLinks++
		s.DuplicateLinks++
	}
}

// LogValue lets the stats be logged as a single group.
func (s RunStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("chapters_scanned", s.ChaptersScanned),
		slog.Int("drafts_skipped", s.DraftsSkipped),
		slog.Int("links_found", s.LinksFound),
		slog.Int("internal_links", s.InternalLinks),
		slog.Int("external_links", s.ExternalLinks),
		slog.Int("self_links", s.SelfLinks),
		slog.Int("duplicate_links", s.DuplicateLinks),
		slog.Int("entries", s.Entries),
		slog.Int("chapters_with_backlinks", s.ChaptersWithBacklinks),
	)
}

package preprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/mod/semver"

	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/contextutil"
)

// ProtocolVersion is the mdbook release whose preprocessor JSON format this
// binary speaks.
const ProtocolVersion = "0.4.40"

// Context is the first element of the host's input: where the book lives and
// who is rendering it.
type Context struct {
	Root          string          `json:"root"`
	Config        json.RawMessage `json:"config"`
	Renderer      string          `json:"renderer"`
	MDBookVersion string          `json:"mdbook_version"`
}

// ReadInput decodes the host's [context, book] pair.
func ReadInput(r io.Reader) (*Context, *book.Book, error) {
	var pair []json.RawMessage
	if err := json.NewDecoder(r).Decode(&pair); err != nil {
		return nil, nil, &ParseError{Format: "preprocessor input", Message: "expected a JSON array", Err: err}
	}
	if len(pair) != 2 {
		return nil, nil, &ParseError{
			Format:  "preprocessor input",
			Message: fmt.Sprintf("expected [context, book], got %d elements", len(pair)),
		}
	}

	var hostCtx Context
	if err := json.Unmarshal(pair[0], &hostCtx); err != nil {
		return nil, nil, &ParseError{Format: "preprocessor context", Message: "invalid context", Err: err}
	}
	var b book.Book
	if err := json.Unmarshal(pair[1], &b); err != nil {
		return nil, nil, &ParseError{Format: "book", Message: "invalid book", Err: err}
	}
	return &hostCtx, &b, nil
}

// WriteBook encodes b to w. Nothing is written if encoding fails.
func WriteBook(w io.Writer, b *book.Book) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(b); err != nil {
		return fmt.Errorf("failed to encode book: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write book: %w", err)
	}
	return nil
}

// CheckVersion reports whether the calling mdbook speaks the protocol this
// binary was written against, using caret semantics: same major version (same
// minor below 1.0) and no older than ProtocolVersion.
func CheckVersion(host string) error {
	h := "v" + strings.TrimPrefix(strings.TrimSpace(host), "v")
	built := "v" + ProtocolVersion

	fail := func(reason string) error {
		return &VersionError{Host: host, BuiltWith: ProtocolVersion, Reason: reason}
	}

	if !semver.IsValid(h) {
		return fail("not a semantic version")
	}
	if semver.Major(h) != semver.Major(built) {
		return fail("different major version")
	}
	if semver.Major(built) == "v0" && semver.MajorMinor(h) != semver.MajorMinor(built) {
		return fail("different minor version")
	}
	if semver.Compare(h, built) < 0 {
		return fail("older release")
	}
	return nil
}

// Handle runs one preprocessing exchange: read the host's input from in, run
// pre, write the processed book to out. A version mismatch is only logged.
func Handle(ctx context.Context, pre Preprocessor, in io.Reader, out io.Writer) error {
	logger := contextutil.LoggerFromContext(ctx)

	hostCtx, b, err := ReadInput(in)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "received book",
		"renderer", hostCtx.Renderer,
		"mdbook_version", hostCtx.MDBookVersion,
		"root", hostCtx.Root,
	)

	if err := CheckVersion(hostCtx.MDBookVersion); err != nil {
		logger.WarnContext(ctx, fmt.Sprintf(
			"The %s preprocessor was built against version %s of mdbook, but we're being called from version %s",
			pre.Name(), ProtocolVersion, hostCtx.MDBookVersion,
		), "error", err)
	}

	processed, err := pre.Run(ctx, hostCtx, b)
	if err != nil {
		return WrapError(err, "preprocessing failed")
	}
	return WriteBook(out, processed)
}

package backlinks

import (
	"path"
	"strings"

	"mdbook-backlinks/internal/book"
)

// Heading is the title of the injected section.
const Heading = "Backlinks"

// Inject appends a backlinks section to every chapter that has entries in g
// and returns how many chapters were changed. Other chapters are untouched.
// Call it once per run.
func Inject(chapters []*book.Chapter, g *Graph) int {
	changed := 0
	for _, ch := range chapters {
		if ch.IsDraft() {
			continue
		}
		id := ch.ID()
		entries := g.Entries(id)
		if len(entries) == 0 {
			continue
		}
		ch.Content = appendSection(ch.Content, id, entries)
		changed++
	}
	return changed
}

// Section renders the block appended to the chapter identified by target: a
// rule followed by a block quote holding the heading and one item per entry.
func Section(target string, entries []Entry) string {
	var sb strings.Builder
	sb.WriteString("---\n\n")
	sb.WriteString("> #### ")
	sb.WriteString(Heading)
	sb.WriteString("\n>\n")
	dir := path.Dir(target)
	for _, e := range entries {
		sb.WriteString("> - [")
		sb.WriteString(escapeText(e.Text))
		sb.WriteString("](")
		sb.WriteString(destination(relativePath(dir, e.Source)))
		sb.WriteString(")\n")
	}
	return sb.String()
}

// appendSection adds the section after a blank line, so the rule cannot be
// read as a setext underline of the last paragraph.
func appendSection(content, target string, entries []Entry) string {
	var sb strings.Builder
	sb.WriteString(content)
	switch {
	case content == "":
	case strings.HasSuffix(content, "\n\n"):
	case strings.HasSuffix(content, "\n"):
		sb.WriteString("\n")
	default:
		sb.WriteString("\n\n")
	}
	sb.WriteString(Section(target, entries))
	return sb.String()
}

// relativePath returns the path of target as seen from directory dir. Both
// are book-relative and slash separated.
func relativePath(dir, target string) string {
	if dir == "." || dir == "" {
		return target
	}
	from := strings.Split(dir, "/")
	to := strings.Split(target, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	return strings.Join(parts, "/")
}

// textEscaper backslash-escapes display text so it is never read as markup.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`[`, `\[`,
	`]`, `\]`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `\<`,
	`>`, `\>`,
	`&`, `\&`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// destination writes a link destination, switching to the <...> form when
// the bare form would end the link early.
func destination(p string) string {
	if !strings.ContainsAny(p, " ()<>") {
		return p
	}
	return "<" + strings.NewReplacer("<", `\<`, ">", `\>`).Replace(p) + ">"
}

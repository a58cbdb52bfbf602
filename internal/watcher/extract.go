package watcher

import (
	"fmt"
	"strings"
	"unicode"
)

// ExtractText reduces an HTML document to comparable plain text: scripts,
// styles and tags are dropped, whitespace runs collapse to single spaces and
// line breaks follow block boundaries loosely.
func ExtractText(html string) string {
	var b strings.Builder
	b.Grow(len(html) / 2)

	inTag := false
	var tagName strings.Builder
	skipUntil := "" // closing tag that ends a skipped script/style block

	for i := 0; i < len(html); i++ {
		c := html[i]

		if skipUntil != "" {
			if c == '<' && strings.HasPrefix(strings.ToLower(html[i:]), skipUntil) {
				i += len(skipUntil) - 1
				skipUntil = ""
				inTag = true
			}
			continue
		}

		switch {
		case c == '<':
			inTag = true
			tagName.Reset()
		case c == '>':
			inTag = false
			name := strings.ToLower(strings.TrimSpace(tagName.String()))
			switch {
			case name == "script" || strings.HasPrefix(name, "script "):
				skipUntil = "</script"
			case name == "style" || strings.HasPrefix(name, "style "):
				skipUntil = "</style"
			case name == "br" || name == "br/" || name == "p" || name == "/p" ||
				name == "/div" || name == "/li" || name == "/tr" ||
				name == "/h1" || name == "/h2" || name == "/h3" || name == "/h4":
				b.WriteByte('\n')
			}
		case inTag:
			tagName.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return normalizeWhitespace(b.String())
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.FieldsFunc(line, unicode.IsSpace)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}

const maxSummaryLines = 8

// Summarize describes what changed between two text snapshots as a short
// list of added lines plus a removal count.
func Summarize(oldText, newText string) string {
	oldLines := make(map[string]struct{})
	for _, line := range strings.Split(oldText, "\n") {
		oldLines[line] = struct{}{}
	}
	newLines := make(map[string]struct{})
	for _, line := range strings.Split(newText, "\n") {
		newLines[line] = struct{}{}
	}

	var added []string
	for _, line := range strings.Split(newText, "\n") {
		if _, ok := oldLines[line]; !ok && line != "" {
			added = append(added, line)
		}
	}

	removed := 0
	for line := range oldLines {
		if _, ok := newLines[line]; !ok && line != "" {
			removed++
		}
	}

	var b strings.Builder
	if len(added) > 0 {
		b.WriteString("New content:\n")
		for i, line := range added {
			if i == maxSummaryLines {
				b.WriteString("…\n")
				break
			}
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if removed > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pluralizeRemoved(removed))
	}
	if b.Len() == 0 {
		return "The page content changed."
	}
	return strings.TrimRight(b.String(), "\n")
}

func pluralizeRemoved(n int) string {
	if n == 1 {
		return "1 section was removed."
	}
	return fmt.Sprintf("%d sections were removed.", n)
}

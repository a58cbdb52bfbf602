package watcher

import (
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{
			name: "strips tags",
			html: `<html><body><h1>Title</h1><p>Hello <b>world</b></p></body></html>`,
			want: "Title\nHello world",
		},
		{
			name: "drops scripts and styles",
			html: `<head><style>.a { color: red }</style><script>var x = "<p>not text</p>";</script></head><p>Visible</p>`,
			want: "Visible",
		},
		{
			name: "collapses whitespace",
			html: "<div>  lots \t of\n   space  </div>",
			want: "lots of space",
		},
		{
			name: "block tags break lines",
			html: `<ul><li>one</li><li>two</li></ul>`,
			want: "one\ntwo",
		},
		{
			name: "empty document",
			html: "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractText(tc.html); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSummarizeListsAddedLines(t *testing.T) {
	oldText := "Title\nFirst item"
	newText := "Title\nFirst item\nSecond item"

	summary := Summarize(oldText, newText)
	if !strings.Contains(summary, "New content:") {
		t.Fatalf("summary %q missing header", summary)
	}
	if !strings.Contains(summary, "- Second item") {
		t.Fatalf("summary %q missing added line", summary)
	}
	if strings.Contains(summary, "removed") {
		t.Fatalf("summary %q reports removals for pure addition", summary)
	}
}

func TestSummarizeCountsRemovals(t *testing.T) {
	oldText := "one\ntwo\nthree"

	if got := Summarize(oldText, "one\ntwo"); got != "1 section was removed." {
		t.Fatalf("single removal: %q", got)
	}
	if got := Summarize(oldText, "one"); got != "2 sections were removed." {
		t.Fatalf("double removal: %q", got)
	}
}

func TestSummarizeCapsAddedLines(t *testing.T) {
	var newLines []string
	for i := 0; i < 20; i++ {
		newLines = append(newLines, strings.Repeat("x", i+1))
	}

	summary := Summarize("", strings.Join(newLines, "\n"))
	listed := strings.Count(summary, "- ")
	if listed != maxSummaryLines {
		t.Fatalf("summary lists %d lines, want %d", listed, maxSummaryLines)
	}
	if !strings.Contains(summary, "…") {
		t.Fatalf("summary %q missing truncation marker", summary)
	}
}

func TestSummarizeFallback(t *testing.T) {
	// Identical line sets in a different order still count as a change
	// upstream; the summary degrades to a generic notice.
	if got := Summarize("a\nb", "b\na"); got != "The page content changed." {
		t.Fatalf("fallback summary: %q", got)
	}
}

package snippet

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{name: "short untouched", text: "short text", want: "short text"},
		{
			name: "exactly at limit untouched",
			text: strings.Repeat("a", TextLimit),
			want: strings.Repeat("a", TextLimit),
		},
		{
			name: "one over limit",
			text: strings.Repeat("a", TextLimit+1),
			want: strings.Repeat("a", TextLimit) + Ellipsis,
		},
		{
			name: "long cut",
			text: strings.Repeat("ab", 100),
			want: strings.Repeat("ab", TextLimit/2) + Ellipsis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateCountsCodepoints(t *testing.T) {
	// 100 multi-byte runes: the budget is codepoints, not bytes.
	text := strings.Repeat("日", 100)
	got := Truncate(text)

	want := strings.Repeat("日", TextLimit) + Ellipsis
	if got != want {
		t.Errorf("Truncate() = %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Error("Truncate produced invalid UTF-8")
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  string
	}{
		{
			name:  "single match",
			text:  "The cat sat.",
			query: "cat",
			want:  "The <b>cat</b> sat.",
		},
		{
			name:  "case insensitive",
			text:  "Cat and CAT and cat.",
			query: "cat",
			want:  "<b>Cat</b> and <b>CAT</b> and <b>cat</b>.",
		},
		{
			name:  "no mid-word match",
			text:  "concatenate the scatter",
			query: "cat",
			want:  "concatenate the scatter",
		},
		{
			name:  "no match unchanged",
			text:  "nothing relevant here",
			query: "wifi",
			want:  "nothing relevant here",
		},
		{
			name:  "empty query",
			text:  "The cat sat.",
			query: "",
			want:  "The cat sat.",
		},
		{
			name:  "empty text",
			text:  "",
			query: "cat",
			want:  "",
		},
		{
			name:  "regex metacharacters escaped",
			text:  "what is a+b here",
			query: "a+b",
			want:  "what is <b>a+b</b> here",
		},
		{
			name:  "match at boundaries",
			text:  "cat chases cat",
			query: "cat",
			want:  "<b>cat</b> chases <b>cat</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.text, tt.query); got != tt.want {
				t.Errorf("Highlight(%q, %q) = %q, want %q", tt.text, tt.query, got, tt.want)
			}
		})
	}
}

func TestHighlightPreservesOriginalCase(t *testing.T) {
	got := Highlight("WiFi setup guide", "wifi")
	if got != "<b>WiFi</b> setup guide" {
		t.Errorf("Highlight() = %q, want original casing inside tags", got)
	}
}

func TestRender(t *testing.T) {
	// Truncation happens before highlighting: a match beyond the visible
	// window is never wrapped.
	text := strings.Repeat("x", TextLimit) + " cat"
	got := Render(text, "cat")
	if strings.Contains(got, "<b>") {
		t.Errorf("Render() highlighted text outside the visible window: %q", got)
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("Render() = %q, want ellipsis suffix", got)
	}

	// A match inside the window is wrapped and the markup does not count
	// against the budget.
	got = Render("The cat sat.", "cat")
	if got != "The <b>cat</b> sat." {
		t.Errorf("Render() = %q", got)
	}
}

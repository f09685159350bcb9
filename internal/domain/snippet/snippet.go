// Package snippet prepares result text for display: character-budget
// truncation and boundary-safe query highlighting.
package snippet

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	// TextLimit is the display budget in codepoints, excluding markup
	// and the ellipsis marker.
	TextLimit = 80

	// Ellipsis marks truncated text.
	Ellipsis = "..."

	tagOpen  = "<b>"
	tagClose = "</b>"
)

// Truncate cuts text to the TextLimit codepoint budget, appending the
// ellipsis marker only when a cut happened. Counting codepoints rather
// than bytes keeps multi-byte runes intact.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= TextLimit {
		return text
	}
	n := 0
	for i := range text {
		if n == TextLimit {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}

// Highlight wraps every word-boundary occurrence of query in text with
// <b> tags. Matching is case-insensitive and Unicode-aware; occurrences
// inside a word are left alone. Text with no boundary match is returned
// unchanged. regexp2 is used because the stdlib regexp \b assertion is
// ASCII-only.
func Highlight(text, query string) string {
	if query == "" || text == "" {
		return text
	}

	pattern := `\b(` + regexp2.Escape(query) + `)\b`
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return text
	}

	out, err := re.Replace(text, tagOpen+"$1"+tagClose, -1, -1)
	if err != nil {
		return text
	}
	return out
}

// Render produces the final highlight string for a result: truncate
// first, then highlight within the visible window.
func Render(text, query string) string {
	return Highlight(Truncate(text), query)
}

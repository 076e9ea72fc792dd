package kb

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// snippetWidth is the fixed window size in characters
const snippetWidth = 220

// buildSnippet extracts a window of content centered on the earliest match
// of any query token (case-insensitive substring). Falls back to the first
// window when no token appears verbatim. Ellipses mark clipped edges.
// The window is measured in runes so multi-byte content never gets cut
// mid-character.
func buildSnippet(content string, queryTokens []string) string {
	if content == "" {
		return ""
	}

	runes := []rune(strings.TrimSpace(content))

	// Per-rune lowering keeps rune offsets aligned with the original text
	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}
	haystack := string(lower)

	first := -1
	seen := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if pos := strings.Index(haystack, t); pos >= 0 {
			runePos := utf8.RuneCountInString(haystack[:pos])
			if first < 0 || runePos < first {
				first = runePos
			}
		}
	}

	if first < 0 {
		if len(runes) <= snippetWidth {
			return string(runes)
		}
		return string(runes[:snippetWidth]) + "..."
	}

	start := first - snippetWidth/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWidth
	if end > len(runes) {
		end = len(runes)
	}

	snippet := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}

	return snippet
}

package kb

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
)

func TestTokenize(t *testing.T) {
	t.Run("lowercase and split on non-alphanumerics", func(t *testing.T) {
		gt.V(t, tokenize("Billing-Export v2!")).Equal([]string{"billing", "export", "v2"})
	})

	t.Run("fold synonyms", func(t *testing.T) {
		gt.V(t, tokenize("HubSpot sync failing")).Equal([]string{"crm", "sync", "failed"})
		gt.V(t, tokenize("salesforce tickets")).Equal([]string{"crm", "ticket"})
	})

	t.Run("drop stop words", func(t *testing.T) {
		gt.V(t, tokenize("what should we do in the morning")).Equal([]string{"do"})
	})

	t.Run("fold before dropping", func(t *testing.T) {
		// "ops" folds to "operations", which is not a stop word
		gt.V(t, tokenize("ops runbook")).Equal([]string{"operations", "runbook"})
	})
}

func TestRawTokens(t *testing.T) {
	// No folding: the caller's verbatim word survives for snippet matching
	gt.V(t, rawTokens("HubSpot sync")).Equal([]string{"hubspot", "sync"})
	gt.V(t, rawTokens("the sync")).Equal([]string{"sync"})
}

func TestBuildSnippet(t *testing.T) {
	t.Run("short content returned whole", func(t *testing.T) {
		gt.V(t, buildSnippet("short answer", []string{"answer"})).Equal("short answer")
	})

	t.Run("empty content", func(t *testing.T) {
		gt.V(t, buildSnippet("", []string{"answer"})).Equal("")
	})

	t.Run("window centered on earliest match", func(t *testing.T) {
		content := strings.Repeat("x", 300) + " needle " + strings.Repeat("y", 300)
		snippet := buildSnippet(content, []string{"needle"})

		gt.True(t, strings.Contains(snippet, "needle"))
		gt.True(t, strings.HasPrefix(snippet, "..."))
		gt.True(t, strings.HasSuffix(snippet, "..."))
		gt.True(t, len(snippet) <= snippetWidth+6)
	})

	t.Run("match near start clips only the tail", func(t *testing.T) {
		content := "needle " + strings.Repeat("z", 400)
		snippet := buildSnippet(content, []string{"needle"})

		gt.True(t, strings.HasPrefix(snippet, "needle"))
		gt.True(t, strings.HasSuffix(snippet, "..."))
	})

	t.Run("no match falls back to head window", func(t *testing.T) {
		content := strings.Repeat("a", 250)
		snippet := buildSnippet(content, []string{"missing"})

		gt.V(t, snippet).Equal(strings.Repeat("a", snippetWidth) + "...")
	})

	t.Run("multi-byte content keeps valid edges", func(t *testing.T) {
		content := strings.Repeat("é", 300) + " needle " + strings.Repeat("ü", 300)
		snippet := buildSnippet(content, []string{"needle"})

		gt.True(t, utf8.ValidString(snippet))
		gt.True(t, strings.Contains(snippet, "needle"))
		gt.True(t, strings.HasPrefix(snippet, "..."))
		gt.True(t, strings.HasSuffix(snippet, "..."))
		gt.True(t, utf8.RuneCountInString(snippet) <= snippetWidth+6)
	})

	t.Run("multi-byte fallback window counts runes", func(t *testing.T) {
		content := strings.Repeat("é", 250)
		snippet := buildSnippet(content, []string{"missing"})

		gt.True(t, utf8.ValidString(snippet))
		gt.V(t, snippet).Equal(strings.Repeat("é", snippetWidth) + "...")
	})

	t.Run("uppercase multi-byte match found at rune offset", func(t *testing.T) {
		content := strings.Repeat("É", 100) + "Needle tail"
		snippet := buildSnippet(content, []string{"needle"})

		gt.True(t, utf8.ValidString(snippet))
		gt.True(t, strings.Contains(snippet, "Needle tail"))
	})
}

package kb

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// synonyms folds vendor-specific terms into their generic category so that a
// query for "hubspot" ranks the same as one for "crm".
var synonyms = map[string]string{
	"hubspot":    "crm",
	"salesforce": "crm",
	"ops":        "operations",
	"tickets":    "ticket",
	"failing":    "failed",
	"failure":    "failed",
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "and": {}, "or": {}, "of": {},
	"in": {}, "on": {}, "for": {}, "we": {}, "re": {}, "since": {},
	"this": {}, "morning": {}, "what": {}, "should": {}, "can": {},
	"you": {}, "me": {},
}

var troubleshootingHints = map[string]struct{}{
	"troubleshoot": {}, "troubleshooting": {}, "failed": {}, "error": {},
	"issue": {}, "incident": {}, "broken": {}, "not": {}, "working": {},
	"timeout": {}, "rate": {}, "limit": {}, "complaint": {}, "degraded": {},
}

var escalationHints = map[string]struct{}{
	"ticket": {}, "high": {}, "high_priority": {}, "priority": {},
	"operations": {}, "incident": {}, "production": {}, "escalate": {},
	"escalation": {},
}

// tokenize lowercases the text, extracts alphanumeric runs, folds synonyms
// and drops stop words. Applied identically to queries and to indexed
// title/content at index build time.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if folded, ok := synonyms[t]; ok {
			t = folded
		}
		if _, ok := stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// rawTokens tokenizes without synonym folding. Snippets match the caller's
// verbatim words, not their folded categories.
func rawTokens(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, ok := stopwords[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

func termFreq(tokens []string) map[string]int {
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

func intersects(tokens []string, vocab map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := vocab[t]; ok {
			return true
		}
	}
	return false
}

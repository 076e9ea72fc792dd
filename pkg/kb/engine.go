package kb

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/flyboard/agentd/pkg/model"
	"github.com/flyboard/agentd/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// maxTopK caps the result count regardless of caller input
const maxTopK = 10

// Engine is the retrieval and ranking engine over the knowledge base
// document. It owns the index cache.
type Engine struct {
	cache       *Cache
	defaultTopK int
}

type EngineOption func(*Engine)

func WithDefaultTopK(n int) EngineOption {
	return func(e *Engine) {
		e.defaultTopK = n
	}
}

func New(path string, opts ...EngineOption) *Engine {
	e := &Engine{
		cache:       NewCache(path),
		defaultTopK: 5,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Search ranks knowledge base entries against the query. topK <= 0 selects
// the configured default; any value is clamped to [1, 10]. Filters bias
// ranking, they never exclude entries.
func (e *Engine) Search(ctx context.Context, query string, topK int, filters *model.SearchFilters) ([]model.ScoredResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrValidation, "query must be a non-empty string")
	}

	queryTokens := tokenize(query)
	queryTF := termFreq(queryTokens)

	index, err := e.cache.Get()
	if err != nil {
		return nil, err
	}

	effectiveTopK := topK
	if effectiveTopK <= 0 {
		effectiveTopK = e.defaultTopK
	}
	if effectiveTopK < 1 {
		effectiveTopK = 1
	}
	if effectiveTopK > maxTopK {
		effectiveTopK = maxTopK
	}

	type scoredEntry struct {
		entry *indexedEntry
		score int
	}

	scored := make([]scoredEntry, 0, len(index))
	for _, idx := range index {
		base := baseScore(idx, queryTF)
		if base == 0 {
			continue
		}
		scored = append(scored, scoredEntry{
			entry: idx,
			score: base + softPreferenceBonus(idx, queryTokens, filters),
		})
	}

	// Score descending; ties broken by last_updated descending, so undated
	// entries (empty string) sort after dated ones.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].entry.entry.LastUpdated > scored[j].entry.entry.LastUpdated
	})

	if len(scored) > effectiveTopK {
		scored = scored[:effectiveTopK]
	}

	var maxScore int
	if len(scored) > 0 {
		maxScore = scored[0].score
	}

	snippetTokens := rawTokens(query)
	results := make([]model.ScoredResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, model.ScoredResult{
			ID:      s.entry.entry.ID,
			Title:   s.entry.entry.Title,
			Score:   round6(float64(s.score) / float64(maxScore)),
			Snippet: buildSnippet(s.entry.entry.Content, snippetTokens),
			Tags:    s.entry.entry.Tags,
		})
	}

	logging.From(ctx).Debug("kb search",
		"query", query,
		"top_k", effectiveTopK,
		"candidates", len(index),
		"results", len(results),
	)

	return results, nil
}

// baseScore is the weighted lexical score: per distinct query token,
// 5 x title hits + 3 x exact tag matches + 1 x content hits, each weighted
// by the token's multiplicity in the query.
func baseScore(idx *indexedEntry, queryTF map[string]int) int {
	score := 0
	for t, qc := range queryTF {
		score += qc * 5 * idx.titleTF[t]
		score += qc * 3 * countTag(idx.tags, t)
		score += qc * idx.contentTF[t]
	}
	return score
}

// softPreferenceBonus adds non-exclusionary domain heuristics on top of the
// base score. Troubleshooting and escalation bonuses are granted purely from
// the query token set; filter bonuses are granted independently of them.
func softPreferenceBonus(idx *indexedEntry, queryTokens []string, filters *model.SearchFilters) int {
	bonus := 0

	if intersects(queryTokens, troubleshootingHints) && idx.audience == "internal" {
		bonus += 2
	}

	if intersects(queryTokens, escalationHints) {
		if strings.Contains(strings.ToLower(idx.entry.Title), "escalation") ||
			countTag(idx.tags, "operations") > 0 || countTag(idx.tags, "sla") > 0 {
			bonus += 3
		}
		if idx.audience == "internal" {
			bonus++
		}
	}

	if filters == nil {
		return bonus
	}

	if audience := strings.ToLower(strings.TrimSpace(filters.Audience)); audience != "" && idx.audience == audience {
		bonus += 2
	}

	for _, tag := range filters.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if countTag(idx.tags, tag) > 0 {
			bonus++
		}
	}

	return bonus
}

func countTag(tags []string, t string) int {
	n := 0
	for _, tag := range tags {
		if tag == t {
			n++
		}
	}
	return n
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

package model

import "github.com/m-mizutani/goerr/v2"

type Audience string

const (
	AudienceCustomer    Audience = "customer"
	AudienceInternal    Audience = "internal"
	AudienceUnspecified Audience = ""
)

// Entry is a single knowledge base record, read-only at query time.
// LastUpdated is an optional ISO date; empty means unknown.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Tags        []string `json:"tags" yaml:"tags"`
	Audience    Audience `json:"audience" yaml:"audience"`
	LastUpdated string   `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	Content     string   `json:"content" yaml:"content"`
}

// Validate checks the fields required for indexing
func (e *Entry) Validate() error {
	if e.ID == "" {
		return goerr.Wrap(ErrValidation, "entry id is empty")
	}
	if e.Title == "" {
		return goerr.Wrap(ErrValidation, "entry title is empty", goerr.V("id", e.ID))
	}
	return nil
}

// ScoredResult is one ranked search hit. Score is normalized against the
// top hit of the result set, so the first result is always 1.0.
type ScoredResult struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
}

// SearchFilters bias ranking toward matching entries. They never exclude
// non-matching entries.
type SearchFilters struct {
	Audience string   `json:"audience,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

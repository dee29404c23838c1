package core

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/stockscout/provider/models"
	fetchmodels "github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
)

// LLM answers a conversation with text. Implementations never fail; an
// empty string means no answer.
type LLM interface {
	Call(ctx context.Context, messages []models.Message) string
}

// Searcher returns ranked result links, empty on any failure.
type Searcher interface {
	Search(ctx context.Context, query string, resultCount int) []string
}

// Fetcher returns the extracted text of a page, empty on any failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetchmodels.Outcome
}

// Finding pairs a sub-query and a source link with the model's summary.
type Finding struct {
	Query   string         `json:"query"`
	Link    string         `json:"link"`
	Summary string         `json:"summary"`
	Fields  *SummaryFields `json:"fields,omitempty"`
}

// Request describes one research run. Non-positive limits use defaults.
type Request struct {
	Topic            string `json:"topic"`
	MaxLinksPerQuery int    `json:"max_links_per_query,omitempty"`
	MaxSubqueries    int    `json:"max_subqueries,omitempty"`
}

// Stats accounts for every item the run skipped.
type Stats struct {
	Subqueries             int            `json:"subqueries"`
	SubqueriesWithoutLinks int            `json:"subqueries_without_links"`
	LinksAttempted         int            `json:"links_attempted"`
	EmptyFetches           int            `json:"empty_fetches"`
	EmptySummaries         int            `json:"empty_summaries"`
	CachedFetches          int            `json:"cached_fetches"`
	Findings               int            `json:"findings"`
	FetchStrategies        map[string]int `json:"fetch_strategies"`
}

// Report is the full result of a run.
type Report struct {
	RunID      string        `json:"run_id"`
	Topic      string        `json:"topic"`
	Subqueries []string      `json:"subqueries"`
	Findings   []Finding     `json:"findings"`
	Stats      Stats         `json:"stats"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

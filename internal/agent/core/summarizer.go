package core

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/provider/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const summarizerSystemPrompt = "You are a market analyst assistant. Produce machine-readable summaries in English."

// Summarizer asks the model for a fixed-field summary of one page.
type Summarizer struct {
	llm    LLM
	logger *log.Logger
}

func NewSummarizer(llm LLM, logger *log.Logger) *Summarizer {
	if logger == nil {
		logger = log.New(log.Writer(), "[SUMMARIZER] ", log.LstdFlags)
	}
	return &Summarizer{llm: llm, logger: logger}
}

// Summarize returns the model's summary verbatim. Page text beyond maxChars
// characters is not sent.
func (s *Summarizer) Summarize(ctx context.Context, subquery, url, pageText string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = config.DefaultMaxContentChars
	}
	excerpt := Truncate(pageText, maxChars)
	ctx, span := tracer.Start(ctx, "research.summarize", trace.WithAttributes(
		attribute.String("summary.url", url),
		attribute.Int("summary.chars", len([]rune(excerpt))),
	))
	defer span.End()

	return s.llm.Call(ctx, summaryMessages(subquery, url, excerpt))
}

func summaryMessages(subquery, url, excerpt string) []models.Message {
	return []models.Message{
		models.System(summarizerSystemPrompt),
		models.User(fmt.Sprintf(
			"Query: %s\nSource: %s\n\nWeb content (truncated):\n%s\n\n"+
				"Produce a concise, machine-readable summary with these fields: "+
				"title, date (YYYY-MM-DD or empty if unknown), stock symbols (comma-separated), companies, "+
				"key facts (3-6 bullets), sentiment (bullish/neutral/bearish) with short explanation, "+
				"impact score (float between -1.0 and 1.0). Keep output short and analyzable.",
			subquery, url, excerpt)),
	}
}

// Truncate keeps the first max characters of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

package core

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/provider/models"
)

const plannerSystemPrompt = "You are a financial assistant. Generate concise search queries in English."

// Planner expands a topic into focused web search queries.
type Planner struct {
	llm    LLM
	logger *log.Logger
}

// NewPlanner creates a new planner instance
func NewPlanner(llm LLM, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.New(log.Writer(), "[PLANNER] ", log.LstdFlags)
	}
	return &Planner{llm: llm, logger: logger}
}

// Plan returns between 1 and maxQueries non-empty queries for topic. When the
// model gives nothing usable the topic-derived templates are returned.
func (p *Planner) Plan(ctx context.Context, topic string, maxQueries int) []string {
	if maxQueries <= 0 {
		maxQueries = config.DefaultMaxSubqueries
	}
	ctx, span := tracer.Start(ctx, "research.plan")
	defer span.End()

	start := time.Now()
	raw := p.llm.Call(ctx, planningMessages(topic))
	queries := ParseQueryList(raw, maxQueries)
	if len(queries) == 0 {
		p.logger.Printf("planner produced no queries for %q; using templates", topic)
		queries = FallbackQueries(topic, maxQueries)
	}
	p.logger.Printf("Generated %d subqueries in %v", len(queries), time.Since(start))
	return queries
}

func planningMessages(topic string) []models.Message {
	return []models.Message{
		models.System(plannerSystemPrompt),
		models.User(fmt.Sprintf(
			"The user wants the latest information about: %s\n"+
				"Produce a short list (one line per item) of 3-4 focused web queries covering: "+
				"company performance, economic factors, political events, market psychology, "+
				"external shocks, social media, and today's news.", topic)),
	}
}

var listMarker = regexp.MustCompile(`^(?:[-*•·+–]+\s*|\(?\d+[.)](?:\s+|$))`)

// cleanLine strips bullets, numbering and wrapping quotes or emphasis.
func cleanLine(s string) string {
	s = strings.TrimSpace(s)
	for {
		next := strings.TrimSpace(listMarker.ReplaceAllString(s, ""))
		if next == s {
			return strings.TrimSpace(strings.Trim(s, "\"*`"))
		}
		s = next
	}
}

// ParseQueryList turns free-form model output into at most max queries.
// Lines are taken first; when that gives fewer than max, semicolon-separated
// fragments not already present are appended.
func ParseQueryList(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if s := cleanLine(raw); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) < max {
		seen := make(map[string]bool, len(lines))
		for _, l := range lines {
			seen[l] = true
		}
		extra := lines
	fragments:
		for _, l := range extra {
			for _, part := range strings.Split(l, ";") {
				if len(lines) >= max {
					break fragments
				}
				s := strings.TrimSpace(part)
				if s == "" || seen[s] {
					continue
				}
				seen[s] = true
				lines = append(lines, s)
			}
		}
	}
	if len(lines) > max {
		lines = lines[:max]
	}
	return lines
}

var fallbackTemplates = []string{
	"%s company performance today",
	"%s economic news today",
	"%s social media reactions today",
}

// FallbackQueries derives deterministic queries from the topic alone.
func FallbackQueries(topic string, max int) []string {
	if max <= 0 {
		max = config.DefaultMaxSubqueries
	}
	topic = strings.TrimSpace(topic)
	out := make([]string, 0, len(fallbackTemplates))
	for _, tpl := range fallbackTemplates {
		if len(out) >= max {
			break
		}
		out = append(out, strings.TrimSpace(fmt.Sprintf(tpl, topic)))
	}
	return out
}

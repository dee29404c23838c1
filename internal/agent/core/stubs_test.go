package core

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/stockscout/provider/models"
	fetchmodels "github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
)

var quiet = log.New(io.Discard, "", 0)

// stubLLM answers planning prompts with plan and summary prompts with
// summarize(userPrompt).
type stubLLM struct {
	mu        sync.Mutex
	plan      string
	summarize func(prompt string) string
	prompts   []string
}

func (s *stubLLM) Call(ctx context.Context, msgs []models.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var user string
	for _, m := range msgs {
		if m.Role == string(models.RoleUser) {
			user = m.Content
		}
	}
	s.prompts = append(s.prompts, user)
	if msgs[0].Content == plannerSystemPrompt {
		return s.plan
	}
	if s.summarize == nil {
		return ""
	}
	return s.summarize(user)
}

type stubSearcher struct {
	mu      sync.Mutex
	links   map[string][]string
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.links[query]
}

type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	urls  []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) fetchmodels.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	text, ok := s.pages[url]
	if !ok {
		return fetchmodels.Outcome{URL: url, Strategy: fetchmodels.StrategyNone}
	}
	return fetchmodels.Outcome{URL: url, Text: text, Strategy: fetchmodels.StrategyStatic}
}

// excerptOf returns the page text embedded in a summary prompt.
func excerptOf(prompt string) string {
	const head = "Web content (truncated):\n"
	i := strings.Index(prompt, head)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(head):]
	if j := strings.LastIndex(rest, "\n\nProduce a concise"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func sourceOf(prompt string) string {
	for _, l := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(l, "Source: ") {
			return strings.TrimPrefix(l, "Source: ")
		}
	}
	return ""
}

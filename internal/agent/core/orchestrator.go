package core

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	fetchmodels "github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer trace.Tracer = otel.Tracer("stockscout/internal/agent/core")

// Orchestrator drives planning, search, fetching and summarization for a topic.
type Orchestrator struct {
	planner     *Planner
	searcher    Searcher
	fetcher     Fetcher
	summarizer  *Summarizer
	cfg         config.ResearchConfig
	resultCount int
	logger      *log.Logger
	metrics     *telemetry.Metrics
}

type Option func(*Orchestrator)

func WithLogger(l *log.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

func WithMetrics(m *telemetry.Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

// WithResultCount sets how many links are requested per sub-query.
func WithResultCount(n int) Option { return func(o *Orchestrator) { o.resultCount = n } }

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(llm LLM, searcher Searcher, fetcher Fetcher, cfg config.ResearchConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher:    searcher,
		fetcher:     fetcher,
		cfg:         cfg,
		resultCount: config.DefaultResultCount,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags)
	}
	if o.resultCount <= 0 {
		o.resultCount = config.DefaultResultCount
	}
	o.planner = NewPlanner(llm, o.logger)
	o.summarizer = NewSummarizer(llm, o.logger)
	return o
}

// Research returns the findings for topic in plan order, then search-result
// order. It never fails; the list is empty when nothing could be gathered.
func (o *Orchestrator) Research(ctx context.Context, topic string, maxLinksPerQuery, maxSubqueries int) []Finding {
	return o.Run(ctx, Request{Topic: topic, MaxLinksPerQuery: maxLinksPerQuery, MaxSubqueries: maxSubqueries}).Findings
}

type workItem struct {
	query    int
	link     int
	subquery string
	url      string
}

type itemResult struct {
	item         workItem
	finding      *Finding
	strategy     fetchmodels.Strategy
	cached       bool
	emptyFetch   bool
	emptySummary bool
}

// Run executes one research pass and reports what was skipped along the way.
func (o *Orchestrator) Run(ctx context.Context, req Request) Report {
	started := time.Now()
	report := Report{
		RunID:     uuid.New().String(),
		Topic:     req.Topic,
		StartedAt: started,
		Findings:  []Finding{},
		Stats:     Stats{FetchStrategies: map[string]int{}},
	}
	maxLinks := req.MaxLinksPerQuery
	if maxLinks <= 0 {
		maxLinks = o.cfg.MaxLinksPerQuery
	}
	if maxLinks <= 0 {
		maxLinks = config.DefaultMaxLinksPerQuery
	}
	maxSubqueries := req.MaxSubqueries
	if maxSubqueries <= 0 {
		maxSubqueries = o.cfg.MaxSubqueries
	}

	ctx, span := tracer.Start(ctx, "research.run", trace.WithAttributes(
		attribute.String("run.id", report.RunID),
		attribute.String("run.topic", req.Topic),
	))
	defer span.End()
	o.metrics.RunStarted()
	o.logger.Printf("run %s started for topic: %s", report.RunID, req.Topic)

	report.Subqueries = o.planner.Plan(ctx, req.Topic, maxSubqueries)
	report.Stats.Subqueries = len(report.Subqueries)

	var (
		mu      sync.Mutex
		results []itemResult
	)
	collect := func(r itemResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	workers := o.cfg.Workers
	g, gctx := errgroup.WithContext(ctx)
	if workers > 1 {
		g.SetLimit(workers)
	}

	for qi, subquery := range report.Subqueries {
		if ctx.Err() != nil {
			o.logger.Printf("run %s cancelled; skipping remaining subqueries", report.RunID)
			break
		}
		links := o.searcher.Search(ctx, subquery, o.resultCount)
		if len(links) == 0 {
			o.logger.Printf("No links for subquery: %s", subquery)
			report.Stats.SubqueriesWithoutLinks++
			continue
		}
		if len(links) > maxLinks {
			links = links[:maxLinks]
		}
		for li, link := range links {
			item := workItem{query: qi, link: li, subquery: subquery, url: link}
			if workers <= 1 {
				collect(o.process(ctx, item))
				continue
			}
			g.Go(func() error {
				collect(o.process(gctx, item))
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].item, results[j].item
		if a.query != b.query {
			return a.query < b.query
		}
		return a.link < b.link
	})

	for _, r := range results {
		report.Stats.LinksAttempted++
		report.Stats.FetchStrategies[string(r.strategy)]++
		if r.cached {
			report.Stats.CachedFetches++
		}
		switch {
		case r.emptyFetch:
			report.Stats.EmptyFetches++
		case r.emptySummary:
			report.Stats.EmptySummaries++
		case r.finding != nil:
			report.Findings = append(report.Findings, *r.finding)
		}
	}
	report.Stats.Findings = len(report.Findings)
	report.Duration = time.Since(started)

	o.metrics.ObserveStage("run", report.Duration)
	span.SetAttributes(
		attribute.Int("run.subqueries", report.Stats.Subqueries),
		attribute.Int("run.findings", report.Stats.Findings),
	)
	o.logger.Printf("run %s finished in %v: %d findings from %d links (%d empty fetches, %d empty summaries)",
		report.RunID, report.Duration, report.Stats.Findings, report.Stats.LinksAttempted,
		report.Stats.EmptyFetches, report.Stats.EmptySummaries)
	return report
}

// process fetches and summarizes one link. Empty content or an empty
// summary is recorded and the item skipped.
func (o *Orchestrator) process(ctx context.Context, item workItem) itemResult {
	res := itemResult{item: item}
	o.logger.Printf("Fetching %s for subquery: %s", item.url, item.subquery)
	out := o.fetcher.Fetch(ctx, item.url)
	res.strategy = out.Strategy
	res.cached = out.Cached
	if out.Empty() {
		o.logger.Printf("No content from %s", item.url)
		res.emptyFetch = true
		return res
	}
	summary := o.summarizer.Summarize(ctx, item.subquery, item.url, out.Text, o.cfg.MaxContentChars)
	if strings.TrimSpace(summary) == "" {
		o.logger.Printf("Empty summary for %s", item.url)
		res.emptySummary = true
		return res
	}
	f := &Finding{Query: item.subquery, Link: item.url, Summary: summary}
	if o.cfg.ParseSummaries {
		f.Fields = ParseSummary(summary)
	}
	res.finding = f
	o.metrics.FindingAdded()
	return res
}

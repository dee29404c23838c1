package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stockscout"

// Outcome labels shared by the search and LLM counters.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
	OutcomeSkipped   = "skipped"
	OutcomeMalformed = "malformed"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	runs         prometheus.Counter
	findings     prometheus.Counter
	fetches      *prometheus.CounterVec
	searches     *prometheus.CounterVec
	searchLinks  prometheus.Counter
	llmCalls     *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	stageSeconds *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "research_runs_total",
			Help: "Research runs started.",
		}),
		findings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "findings_total",
			Help: "Findings produced across all runs.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetches_total",
			Help: "Content fetches by the strategy that produced the text.",
		}, []string{"strategy"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "searches_total",
			Help: "Search calls by outcome.",
		}, []string{"outcome"}),
		searchLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_links_total",
			Help: "Links returned by the search provider.",
		}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_calls_total",
			Help: "LLM calls by outcome.",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "page_cache_lookups_total",
			Help: "Page cache lookups by result.",
		}, []string{"result"}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.findings, m.fetches, m.searches, m.searchLinks, m.llmCalls, m.cacheLookups, m.stageSeconds)
	}
	return m
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

func (m *Metrics) FindingAdded() {
	if m == nil {
		return
	}
	m.findings.Inc()
}

// FetchOutcome counts one fetch under the strategy that won (or "none").
func (m *Metrics) FetchOutcome(strategy string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(strategy).Inc()
}

func (m *Metrics) SearchOutcome(outcome string, links int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchLinks.Add(float64(links))
}

func (m *Metrics) LLMCall(outcome string) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

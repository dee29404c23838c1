package web_fetch

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/cache"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/static"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Strategy retrieves raw markup for a URL.
type Strategy interface {
	Name() models.Strategy
	Fetch(ctx context.Context, url string) (string, error)
}

type funcStrategy struct {
	name models.Strategy
	fn   func(ctx context.Context, url string) (string, error)
}

func (s funcStrategy) Name() models.Strategy { return s.name }
func (s funcStrategy) Fetch(ctx context.Context, url string) (string, error) {
	return s.fn(ctx, url)
}

// StrategyFunc adapts a function to a named Strategy.
func StrategyFunc(name models.Strategy, fn func(ctx context.Context, url string) (string, error)) Strategy {
	return funcStrategy{name: name, fn: fn}
}

var tracer trace.Tracer = otel.Tracer("stockscout/tools/web_fetch")

// Fetcher tries its strategies in order and returns the first non-empty
// extracted text.
type Fetcher struct {
	strategies []Strategy
	extract    extract.Extractor
	cache      cache.Cache
	skip       []string
	logger     *log.Logger
	metrics    *telemetry.Metrics
}

type Option func(*Fetcher)

func WithCache(c cache.Cache) Option { return func(f *Fetcher) { f.cache = c } }

func WithLogger(l *log.Logger) Option { return func(f *Fetcher) { f.logger = l } }

func WithMetrics(m *telemetry.Metrics) Option { return func(f *Fetcher) { f.metrics = m } }

func WithExtractor(e extract.Extractor) Option { return func(f *Fetcher) { f.extract = e } }

// WithSkipDomains leaves links on these hosts, or their subdomains, unfetched.
func WithSkipDomains(domains []string) Option { return func(f *Fetcher) { f.skip = domains } }

// New builds a fetcher over an explicit strategy chain.
func New(strategies []Strategy, opts ...Option) *Fetcher {
	f := &Fetcher{strategies: strategies, extract: extract.Visible}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = log.New(log.Writer(), "[FETCH] ", log.LstdFlags)
	}
	return f
}

// NewFromConfig builds the dynamic then static chain. The dynamic strategy
// is left out when disabled or when no browser binary is present.
func NewFromConfig(cfg config.FetchConfig, opts ...Option) *Fetcher {
	var chain []Strategy
	dynamic := chromedp.Fetch{Timeout: cfg.DynamicTimeout, UserAgent: cfg.UserAgent, ExecPath: cfg.ExecPath}
	dynamicOK := cfg.DynamicEnabled && dynamic.Available()
	if dynamicOK {
		chain = append(chain, dynamic)
	}
	chain = append(chain, static.Fetch{
		Timeout:      cfg.StaticTimeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Client:       &http.Client{},
	})
	base := []Option{WithExtractor(extract.New(cfg.Extractor)), WithSkipDomains(cfg.SkipDomains)}
	f := New(chain, append(base, opts...)...)
	if cfg.DynamicEnabled && !dynamicOK {
		f.logger.Printf("[warn] no headless browser found; dynamic fetch disabled")
	}
	return f
}

// Strategies lists the chain in order.
func (f *Fetcher) Strategies() []models.Strategy {
	out := make([]models.Strategy, 0, len(f.strategies))
	for _, s := range f.strategies {
		out = append(out, s.Name())
	}
	return out
}

// Fetch never fails: when every strategy errors or yields no text the
// outcome carries empty text and StrategyNone.
func (f *Fetcher) Fetch(ctx context.Context, url string) models.Outcome {
	url = strings.TrimSpace(url)
	none := models.Outcome{URL: url, Strategy: models.StrategyNone}
	if url == "" {
		f.metrics.FetchOutcome(string(models.StrategyNone))
		return none
	}

	if f.skipped(url) {
		f.logger.Printf("skipping %s: domain excluded", url)
		f.metrics.FetchOutcome(string(models.StrategyNone))
		return none
	}

	ctx, span := tracer.Start(ctx, "fetch", trace.WithAttributes(attribute.String("fetch.url", url)))
	defer span.End()

	if f.cache != nil {
		out, ok, err := f.cache.Get(ctx, url)
		if err != nil {
			f.logger.Printf("cache lookup failed for %s: %v", url, err)
		}
		f.metrics.CacheLookup(ok)
		if ok && !out.Empty() {
			out.Cached = true
			span.SetAttributes(attribute.Bool("fetch.cached", true))
			return out
		}
	}

	start := time.Now()
	defer func() { f.metrics.ObserveStage("fetch", time.Since(start)) }()

	for _, s := range f.strategies {
		if ctx.Err() != nil {
			break
		}
		markup, err := s.Fetch(ctx, url)
		if err != nil {
			f.logger.Printf("%s fetch failed for %s: %v", s.Name(), url, err)
			continue
		}
		text := strings.TrimSpace(f.extract(markup, url))
		if text == "" {
			f.logger.Printf("%s fetch of %s produced no text", s.Name(), url)
			continue
		}
		out := models.Outcome{URL: url, Text: text, Strategy: s.Name()}
		f.metrics.FetchOutcome(string(s.Name()))
		span.SetAttributes(attribute.String("fetch.strategy", string(s.Name())))
		if f.cache != nil {
			if err := f.cache.Set(ctx, url, out); err != nil {
				f.logger.Printf("cache store failed for %s: %v", url, err)
			}
		}
		return out
	}

	f.logger.Printf("all fetch strategies failed for %s", url)
	f.metrics.FetchOutcome(string(models.StrategyNone))
	span.SetAttributes(attribute.String("fetch.strategy", string(models.StrategyNone)))
	return none
}

func (f *Fetcher) skipped(link string) bool {
	if len(f.skip) == 0 {
		return false
	}
	host := config.NormalizeHost(link)
	for _, d := range f.skip {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

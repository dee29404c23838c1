package web_search

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/stockscout/internal/httpclient"
	"github.com/mohammad-safakhou/stockscout/tools/web_search/brave"
	"github.com/mohammad-safakhou/stockscout/tools/web_search/models"
	"github.com/mohammad-safakhou/stockscout/tools/web_search/serper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

var tracer trace.Tracer = otel.Tracer("stockscout/tools/web_search")

func NewWebSearcher(provider Provider, apiKey string, http *httpclient.Client) (WebSearcher, error) {
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey, HTTP: http}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey, HTTP: http}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// Client wraps a WebSearcher with the pipeline's degrade-to-empty contract.
type Client struct {
	searcher WebSearcher
	provider Provider
	apiKey   string
	logger   *log.Logger
	metrics  *telemetry.Metrics
}

// NewClient builds the configured provider. A missing key is not an error.
func NewClient(cfg config.SearchConfig, logger *log.Logger, metrics *telemetry.Metrics) (*Client, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	s, err := NewWebSearcher(Provider(cfg.Provider), cfg.APIKey(), httpclient.New(cfg.Timeout, 1, 0))
	if err != nil {
		return nil, err
	}
	if cfg.APIKey() == "" {
		logger.Printf("[warn] %s API key is not set; searches will return no links", cfg.Provider)
	}
	return NewClientWith(s, Provider(cfg.Provider), cfg.APIKey(), logger, metrics), nil
}

// NewClientWith wraps an existing searcher.
func NewClientWith(s WebSearcher, provider Provider, apiKey string, logger *log.Logger, metrics *telemetry.Metrics) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	return &Client{searcher: s, provider: provider, apiKey: apiKey, logger: logger, metrics: metrics}
}

// Search returns up to resultCount links in provider order. It never fails:
// a missing credential, transport or status error yields an empty list.
func (c *Client) Search(ctx context.Context, query string, resultCount int) []string {
	if strings.TrimSpace(c.apiKey) == "" {
		c.logger.Printf("%s API key missing; returning no links for %q", c.provider, query)
		c.metrics.SearchOutcome(telemetry.OutcomeSkipped, 0)
		return []string{}
	}
	ctx, span := tracer.Start(ctx, "search", trace.WithAttributes(
		attribute.String("search.provider", string(c.provider)),
		attribute.String("search.query", query),
	))
	defer span.End()

	start := time.Now()
	results, err := c.searcher.Discover(ctx, query, resultCount)
	c.metrics.ObserveStage("search", time.Since(start))
	if err != nil {
		span.RecordError(err)
		c.logger.Printf("%s search failed for query %q: %v", c.provider, query, err)
		c.metrics.SearchOutcome(telemetry.OutcomeError, 0)
		return []string{}
	}

	links := make([]string, 0, len(results))
	for _, r := range results {
		link := strings.TrimSpace(r.URL)
		if link == "" {
			continue
		}
		links = append(links, link)
		if resultCount > 0 && len(links) >= resultCount {
			break
		}
	}
	outcome := telemetry.OutcomeOK
	if len(links) == 0 {
		outcome = telemetry.OutcomeEmpty
	}
	c.metrics.SearchOutcome(outcome, len(links))
	span.SetAttributes(attribute.Int("search.links", len(links)))
	c.logger.Printf("%s returned %d links for query: %s", c.provider, len(links), query)
	return links
}

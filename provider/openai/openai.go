package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/stockscout/internal/httpclient"
	"github.com/mohammad-safakhou/stockscout/provider/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingAPIKey is returned by Complete when no credential is configured.
var ErrMissingAPIKey = errors.New("llm api key not configured")

var tracer trace.Tracer = otel.Tracer("stockscout/provider/openai")

// Config carries the settings of an OpenAI-compatible chat-completions backend.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Client talks to any OpenAI-compatible /chat/completions endpoint
// (Together, OpenAI, OpenRouter).
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	http        *httpclient.Client
	logger      *log.Logger
	metrics     *telemetry.Metrics
}

// request represents a request to the chat-completions API
type request struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream"`
}

// NewClient creates a new chat client
func NewClient(cfg Config, logger *log.Logger, metrics *telemetry.Metrics) *Client {
	if logger == nil {
		logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		http:        httpclient.New(cfg.Timeout, cfg.MaxRetries, 0),
		logger:      logger,
		metrics:     metrics,
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	cp := *c
	cp.http = c.http.WithHTTPClient(h)
	return &cp
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends the normalized conversation and parses the response.
// Transport and status failures are returned as errors; shape problems are
// reported through Completion.Malformed.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (Completion, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return Completion{}, ErrMissingAPIKey
	}
	ctx, span := tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()

	body := request{
		Model:       c.model,
		Messages:    models.NormalizeAll(messages),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	raw, err := c.http.Do(ctx, http.MethodPost, c.baseURL+"/chat/completions", headers, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	return ParseCompletion(raw), nil
}

// Call is the blocking form used by the pipeline. It never fails: malformed
// responses degrade to their raw text and every other failure to "".
func (c *Client) Call(ctx context.Context, messages []models.Message) string {
	start := time.Now()
	comp, err := c.Complete(ctx, messages)
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		c.metrics.LLMCall(telemetry.OutcomeSkipped)
		return ""
	case err != nil:
		c.logger.Printf("llm call failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		c.metrics.LLMCall(telemetry.OutcomeError)
		return ""
	case comp.Malformed:
		c.logger.Printf("unexpected llm response shape (%d bytes); returning raw payload", len(comp.Raw))
		c.metrics.LLMCall(telemetry.OutcomeMalformed)
	default:
		c.metrics.LLMCall(telemetry.OutcomeOK)
	}
	return comp.String()
}

// CallAsync runs Call on its own goroutine and delivers exactly one result.
// Concurrent invocations are independent and unordered.
func (c *Client) CallAsync(ctx context.Context, messages []models.Message) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		out <- c.Call(ctx, messages)
	}()
	return out
}

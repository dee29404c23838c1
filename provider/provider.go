package provider

import (
	"errors"
	"log"

	"github.com/mohammad-safakhou/stockscout/config"
	"github.com/mohammad-safakhou/stockscout/internal/agent/telemetry"
	openai_provider "github.com/mohammad-safakhou/stockscout/provider/openai"
)

// Client names a chat-completions backend
type Client string

const (
	Together   Client = "together"
	OpenAI     Client = "openai"
	OpenRouter Client = "openrouter"
)

var baseURLs = map[Client]string{
	Together:   "https://api.together.xyz/v1",
	OpenAI:     "https://api.openai.com/v1",
	OpenRouter: "https://openrouter.ai/api/v1",
}

// ErrUnsupportedProvider is the one construction failure the pipeline cannot degrade around.
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// NewProvider builds the chat client for cfg. A missing API key only logs a
// warning; the client then answers every call with empty text.
func NewProvider(cfg config.LLMConfig, logger *log.Logger, metrics *telemetry.Metrics) (*openai_provider.Client, error) {
	base, ok := baseURLs[Client(cfg.Provider)]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	if cfg.APIKey == "" {
		logger.Printf("[warn] %s API key is not set; LLM calls will return empty text", cfg.Provider)
	}
	return openai_provider.NewClient(openai_provider.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     base,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
	}, logger, metrics), nil
}

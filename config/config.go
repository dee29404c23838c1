package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research pipeline
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Research  ResearchConfig  `mapstructure:"research"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug bool `mapstructure:"debug"`
}

// LLMConfig describes the chat-completion backend.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"` // together, openai, openrouter
	APIKey        string        `mapstructure:"api_key"`  // explicit key, wins over the per-provider ones
	TogetherKey   string        `mapstructure:"together_api_key"`
	OpenAIKey     string        `mapstructure:"openai_api_key"`
	OpenRouterKey string        `mapstructure:"openrouter_api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// ProviderKey returns the per-provider credential of the selected provider.
// Keys of other providers are never returned.
func (l LLMConfig) ProviderKey() string {
	switch strings.ToLower(strings.TrimSpace(l.Provider)) {
	case "openai":
		return l.OpenAIKey
	case "openrouter":
		return l.OpenRouterKey
	case "together", "":
		return l.TogetherKey
	}
	return ""
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // serper, brave
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	ResultCount  int           `mapstructure:"result_count"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// APIKey returns the credential of the selected provider.
func (s SearchConfig) APIKey() string {
	if s.Provider == "brave" {
		return s.BraveAPIKey
	}
	return s.SerperAPIKey
}

// FetchConfig controls the content fetcher strategies.
type FetchConfig struct {
	DynamicEnabled bool          `mapstructure:"dynamic_enabled"`
	DynamicTimeout time.Duration `mapstructure:"dynamic_timeout"`
	StaticTimeout  time.Duration `mapstructure:"static_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	ExecPath       string        `mapstructure:"exec_path"` // chrome binary; empty = discover
	Extractor      string        `mapstructure:"extractor"` // visible, readability
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	SkipDomains    []string      `mapstructure:"skip_domains"` // never fetched, subdomains included
}

// ResearchConfig bounds a single research run.
type ResearchConfig struct {
	MaxSubqueries    int  `mapstructure:"max_subqueries"`
	MaxLinksPerQuery int  `mapstructure:"max_links_per_query"`
	MaxContentChars  int  `mapstructure:"max_content_chars"`
	Workers          int  `mapstructure:"workers"`
	ParseSummaries   bool `mapstructure:"parse_summaries"`
}

// CacheConfig contains the optional Redis page cache settings
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for the Redis client.
func (c CacheConfig) Addr() string { return fmt.Sprintf("%s:%s", c.Host, c.Port) }

func (c CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("cache.host required when cache is enabled")
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("cache.port required when cache is enabled")
	}
	return nil
}

// TelemetryConfig toggles metrics and tracing. Spans are exported over
// OTLP/gRPC only when OTLPEndpoint is set.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// WatchConfig schedules recurring research runs.
type WatchConfig struct {
	Cron         string `mapstructure:"cron"`
	Stream       string `mapstructure:"stream"` // redis stream for reports; empty disables
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

const (
	DefaultMaxSubqueries    = 4
	DefaultMaxLinksPerQuery = 3
	DefaultMaxContentChars  = 15000
	DefaultResultCount      = 10
	DefaultTogetherModel    = "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo"
	DefaultUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrUnknownExtractor is returned by Validate for unsupported extractor modes.
var ErrUnknownExtractor = errors.New("fetch.extractor must be visible or readability")

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.debug", false)

	v.SetDefault("llm.provider", "together")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.together_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openrouter_api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", DefaultTogetherModel)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 2)

	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.serper_api_key", "")
	v.SetDefault("search.brave_api_key", "")
	v.SetDefault("search.result_count", DefaultResultCount)
	v.SetDefault("search.timeout", 15*time.Second)

	v.SetDefault("fetch.dynamic_enabled", true)
	v.SetDefault("fetch.dynamic_timeout", 60*time.Second)
	v.SetDefault("fetch.static_timeout", 10*time.Second)
	v.SetDefault("fetch.user_agent", DefaultUserAgent)
	v.SetDefault("fetch.exec_path", "")
	v.SetDefault("fetch.extractor", "visible")
	v.SetDefault("fetch.max_body_bytes", int64(5<<20))
	v.SetDefault("fetch.skip_domains", []string{})

	v.SetDefault("research.max_subqueries", DefaultMaxSubqueries)
	v.SetDefault("research.max_links_per_query", DefaultMaxLinksPerQuery)
	v.SetDefault("research.max_content_chars", DefaultMaxContentChars)
	v.SetDefault("research.workers", 1)
	v.SetDefault("research.parse_summaries", false)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.host", "localhost")
	v.SetDefault("cache.port", "6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 6*time.Hour)
	v.SetDefault("cache.timeout", 5*time.Second)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "stockscout")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("watch.cron", "@hourly")
	v.SetDefault("watch.stream", "stockscout:reports")
	v.SetDefault("watch.stream_max_len", int64(1000))
}

// credentialAliases lets the conventional provider variables fill the
// corresponding keys next to the prefixed STOCKSCOUT_* names.
var credentialAliases = map[string][]string{
	"search.serper_api_key":  {"STOCKSCOUT_SEARCH_SERPER_API_KEY", "SERPER_API_KEY"},
	"search.brave_api_key":   {"STOCKSCOUT_SEARCH_BRAVE_API_KEY", "BRAVE_API_KEY"},
	"llm.api_key":            {"STOCKSCOUT_LLM_API_KEY"},
	"llm.together_api_key":   {"STOCKSCOUT_LLM_TOGETHER_API_KEY", "TOGETHER_API_KEY"},
	"llm.openai_api_key":     {"STOCKSCOUT_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"llm.openrouter_api_key": {"STOCKSCOUT_LLM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
}

// LoadConfig builds the configuration from defaults, an optional file and the
// environment. An empty path searches ./config and the working directory; a
// missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("stockscout")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("STOCKSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range credentialAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults for unset or non-positive values.
func (c Config) Normalize() Config {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "together"
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		c.LLM.APIKey = c.LLM.ProviderKey()
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultTogetherModel
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	if c.Search.Provider == "" {
		c.Search.Provider = "serper"
	}
	if c.Search.ResultCount <= 0 {
		c.Search.ResultCount = DefaultResultCount
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 15 * time.Second
	}
	if c.Fetch.DynamicTimeout <= 0 {
		c.Fetch.DynamicTimeout = 60 * time.Second
	}
	if c.Fetch.StaticTimeout <= 0 {
		c.Fetch.StaticTimeout = 10 * time.Second
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		c.Fetch.UserAgent = DefaultUserAgent
	}
	c.Fetch.Extractor = strings.ToLower(strings.TrimSpace(c.Fetch.Extractor))
	if c.Fetch.Extractor == "" {
		c.Fetch.Extractor = "visible"
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 5 << 20
	}
	c.Fetch.SkipDomains = normalizeDomains(c.Fetch.SkipDomains)
	if c.Research.MaxSubqueries <= 0 {
		c.Research.MaxSubqueries = DefaultMaxSubqueries
	}
	if c.Research.MaxLinksPerQuery <= 0 {
		c.Research.MaxLinksPerQuery = DefaultMaxLinksPerQuery
	}
	if c.Research.MaxContentChars <= 0 {
		c.Research.MaxContentChars = DefaultMaxContentChars
	}
	if c.Research.Workers <= 0 {
		c.Research.Workers = 1
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 6 * time.Hour
	}
	if c.Cache.Timeout <= 0 {
		c.Cache.Timeout = 5 * time.Second
	}
	if strings.TrimSpace(c.Watch.Cron) == "" {
		c.Watch.Cron = "@hourly"
	}
	return c
}

// Validate rejects settings no component can work with. Missing credentials
// are reported by Warnings instead.
func (c Config) Validate() error {
	switch c.Fetch.Extractor {
	case "visible", "readability":
	default:
		return ErrUnknownExtractor
	}
	switch c.Search.Provider {
	case "serper", "brave":
	default:
		return fmt.Errorf("search.provider %q is not supported", c.Search.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	return c.Cache.Validate()
}

// Warnings lists configuration gaps that degrade components without
// stopping the process.
func (c Config) Warnings() []string {
	var out []string
	if strings.TrimSpace(c.Search.APIKey()) == "" {
		out = append(out, fmt.Sprintf("%s API key is not set; searches will return no links", c.Search.Provider))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		out = append(out, fmt.Sprintf("%s API key is not set; LLM calls will return empty text", c.LLM.Provider))
	}
	if !c.Fetch.DynamicEnabled {
		out = append(out, "dynamic fetch disabled; pages are fetched without script execution")
	}
	return out
}

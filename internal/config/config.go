// ABOUTME: Centralized configuration for the jarvis agent
// ABOUTME: Defaults, then an optional YAML file, then environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the agent
type Config struct {
	// Completion settings
	Provider     string
	LlamaURL     string
	Model        string
	OpenAIKey    string
	OpenAIURL    string
	MaxTokens    int
	Temperature  float64
	SamplingTopK int

	// Embedding settings
	Embedder       string
	EmbeddingURL   string
	EmbeddingModel string

	// Resilience
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64

	// Retrieval and reasoning
	Document           string
	TopK               int
	RelevanceThreshold float64
	HistorySize        int
	IndexWorkers       int

	// Session lifecycle
	MaxSessions int
	SessionTTL  time.Duration

	// Exchange action
	ExchangeEnabled bool
	ExchangeURL     string

	// Serving
	ListenAddr  string
	CORSOrigins []string

	// Observability
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
}

// fileConfig mirrors Config for YAML; nil fields were not set in the file
type fileConfig struct {
	Provider           *string  `yaml:"provider"`
	LlamaURL           *string  `yaml:"llama_url"`
	Model              *string  `yaml:"model"`
	OpenAIURL          *string  `yaml:"openai_url"`
	MaxTokens          *int     `yaml:"max_tokens"`
	Temperature        *float64 `yaml:"temperature"`
	SamplingTopK       *int     `yaml:"sampling_top_k"`
	Embedder           *string  `yaml:"embedder"`
	EmbeddingURL       *string  `yaml:"embedding_url"`
	EmbeddingModel     *string  `yaml:"embedding_model"`
	Timeout            *string  `yaml:"timeout"`
	MaxRetries         *int     `yaml:"max_retries"`
	RetryDelay         *string  `yaml:"retry_delay"`
	RateLimit          *float64 `yaml:"rate_limit"`
	Document           *string  `yaml:"document"`
	TopK               *int     `yaml:"top_k"`
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
	HistorySize        *int     `yaml:"history_size"`
	IndexWorkers       *int     `yaml:"index_workers"`
	MaxSessions        *int     `yaml:"max_sessions"`
	SessionTTL         *string  `yaml:"session_ttl"`
	ExchangeEnabled    *bool    `yaml:"exchange_enabled"`
	ExchangeURL        *string  `yaml:"exchange_url"`
	ListenAddr         *string  `yaml:"listen_addr"`
	CORSOrigins        []string `yaml:"cors_origins"`
	LogLevel           *string  `yaml:"log_level"`
	LogFormat          *string  `yaml:"log_format"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Provider:           "ollama",
		LlamaURL:           "http://127.0.0.1:11434/api/generate",
		Model:              "mistral-openorca",
		MaxTokens:          200,
		Temperature:        0,
		SamplingTopK:       20,
		Embedder:           "ollama",
		EmbeddingURL:       "http://127.0.0.1:11434/api/embeddings",
		EmbeddingModel:     "nomic-embed-text",
		Timeout:            60 * time.Second,
		MaxRetries:         2,
		RetryDelay:         500 * time.Millisecond,
		RateLimit:          0,
		TopK:               3,
		RelevanceThreshold: 0.4,
		HistorySize:        3,
		IndexWorkers:       4,
		MaxSessions:        1000,
		SessionTTL:         30 * time.Minute,
		ExchangeEnabled:    true,
		ExchangeURL:        "https://open.er-api.com/v6/latest",
		ListenAddr:         ":5000",
		CORSOrigins:        []string{"*"},
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads configuration from JARVIS_CONFIG (if set) and the environment
func Load() (*Config, error) {
	return LoadFile(os.Getenv("JARVIS_CONFIG"))
}

// LoadFile reads configuration from an optional YAML file, then applies
// environment overrides
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := cfg.applyFile(&fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyFile(fc *fileConfig) error {
	setString(&c.Provider, fc.Provider)
	setString(&c.LlamaURL, fc.LlamaURL)
	setString(&c.Model, fc.Model)
	setString(&c.OpenAIURL, fc.OpenAIURL)
	setValue(&c.MaxTokens, fc.MaxTokens)
	setValue(&c.Temperature, fc.Temperature)
	setValue(&c.SamplingTopK, fc.SamplingTopK)
	setString(&c.Embedder, fc.Embedder)
	setString(&c.EmbeddingURL, fc.EmbeddingURL)
	setString(&c.EmbeddingModel, fc.EmbeddingModel)
	setValue(&c.MaxRetries, fc.MaxRetries)
	setValue(&c.RateLimit, fc.RateLimit)
	setString(&c.Document, fc.Document)
	setValue(&c.TopK, fc.TopK)
	setValue(&c.RelevanceThreshold, fc.RelevanceThreshold)
	setValue(&c.HistorySize, fc.HistorySize)
	setValue(&c.IndexWorkers, fc.IndexWorkers)
	setValue(&c.MaxSessions, fc.MaxSessions)
	setValue(&c.ExchangeEnabled, fc.ExchangeEnabled)
	setString(&c.ExchangeURL, fc.ExchangeURL)
	setString(&c.ListenAddr, fc.ListenAddr)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}

	for _, d := range []struct {
		dst *time.Duration
		src *string
		key string
	}{
		{&c.Timeout, fc.Timeout, "timeout"},
		{&c.RetryDelay, fc.RetryDelay, "retry_delay"},
		{&c.SessionTTL, fc.SessionTTL, "session_ttl"},
	} {
		if d.src == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("JARVIS_PROVIDER", c.Provider)
	c.LlamaURL = getEnv("LLAMA_API_URL", c.LlamaURL)
	c.Model = getEnv("JARVIS_MODEL", c.Model)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIURL = getEnv("OPENAI_BASE_URL", c.OpenAIURL)
	c.MaxTokens = getEnvInt("JARVIS_MAX_TOKENS", c.MaxTokens)
	c.Temperature = getEnvFloat("JARVIS_TEMPERATURE", c.Temperature)
	c.SamplingTopK = getEnvInt("JARVIS_SAMPLING_TOP_K", c.SamplingTopK)
	c.Embedder = getEnv("JARVIS_EMBEDDER", c.Embedder)
	c.EmbeddingURL = getEnv("JARVIS_EMBEDDING_URL", c.EmbeddingURL)
	c.EmbeddingModel = getEnv("JARVIS_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Timeout = getEnvDuration("JARVIS_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("JARVIS_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("JARVIS_RETRY_DELAY", c.RetryDelay)
	c.RateLimit = getEnvFloat("JARVIS_RATE_LIMIT", c.RateLimit)
	c.Document = getEnv("JARVIS_DOCUMENT", c.Document)
	c.TopK = getEnvInt("JARVIS_TOP_K", c.TopK)
	c.RelevanceThreshold = getEnvFloat("JARVIS_RELEVANCE_THRESHOLD", c.RelevanceThreshold)
	c.HistorySize = getEnvInt("JARVIS_HISTORY_SIZE", c.HistorySize)
	c.IndexWorkers = getEnvInt("JARVIS_INDEX_WORKERS", c.IndexWorkers)
	c.MaxSessions = getEnvInt("JARVIS_MAX_SESSIONS", c.MaxSessions)
	c.SessionTTL = getEnvDuration("JARVIS_SESSION_TTL", c.SessionTTL)
	c.ExchangeEnabled = getEnvBool("JARVIS_EXCHANGE_ENABLED", c.ExchangeEnabled)
	c.ExchangeURL = getEnv("JARVIS_EXCHANGE_URL", c.ExchangeURL)
	c.ListenAddr = getEnv("JARVIS_LISTEN_ADDR", c.ListenAddr)
	c.CORSOrigins = getEnvList("JARVIS_CORS_ORIGINS", c.CORSOrigins)
	c.LogLevel = getEnv("JARVIS_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("JARVIS_LOG_FORMAT", c.LogFormat)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
}

// Validate checks ranges and provider names
func (c *Config) Validate() error {
	switch c.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("JARVIS_PROVIDER must be ollama or openai, got %q", c.Provider)
	}
	switch c.Embedder {
	case "ollama", "openai", "tfidf":
	default:
		return fmt.Errorf("JARVIS_EMBEDDER must be ollama, openai or tfidf, got %q", c.Embedder)
	}
	if (c.Provider == "openai" || c.Embedder == "openai") && c.OpenAIKey == "" && c.OpenAIURL == "" {
		return fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required for the openai backend")
	}
	if c.RelevanceThreshold < -1 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("JARVIS_RELEVANCE_THRESHOLD must be -1 to 1, got %f", c.RelevanceThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("JARVIS_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("JARVIS_RATE_LIMIT must not be negative, got %f", c.RateLimit)
	}
	for _, p := range []struct {
		name  string
		value int
	}{
		{"JARVIS_TOP_K", c.TopK},
		{"JARVIS_HISTORY_SIZE", c.HistorySize},
		{"JARVIS_MAX_TOKENS", c.MaxTokens},
		{"JARVIS_INDEX_WORKERS", c.IndexWorkers},
		{"JARVIS_MAX_SESSIONS", c.MaxSessions},
	} {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("JARVIS_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("JARVIS_SESSION_TTL must not be negative, got %v", c.SessionTTL)
	}
	return nil
}

// Helper functions
func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package core provides configuration, typed configuration errors, and small
// shared atoms for replydesk.
package core

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Config holds all configuration values for the service.
type Config struct {
	// Provider configuration. The API key here is the environment default;
	// a key supplied with a request always takes precedence.
	GroqAPIKey   string
	LLMBaseURL   string
	DefaultModel string

	// Completion limits
	MaxCompletionTokens int
	MaxRetries          int
	RetryDelay          time.Duration
	AITimeout           time.Duration

	// Local token budget (sliding window)
	RateCeilingTokens int
	RateWindow        time.Duration

	// Input caps in characters
	ThreadMaxChars     int
	SuggestionMaxChars int
	ToneMaxChars       int
	ResponseMaxChars   int

	// Analysis cache
	AnalysisCacheTTL     time.Duration
	AnalysisCacheEntries int

	// Optional tone preset catalog (yaml). Empty means built-in tones only.
	TonesPath string

	// Storage
	DataDir        string
	DatabasePath   string
	MigrationsPath string

	// HTTP server
	Host string
	Port int

	// Logging
	LogFilePath string
	DevMode     bool
}

// Defaults mirrored from the provider policy the service was tuned against:
// 6k estimated tokens per rolling minute, three linear retries at 1s base.
const (
	DefaultLLMBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel        = "llama-3.3-70b-versatile"
	DefaultMaxTokens    = 10000
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = time.Second
	DefaultAITimeout    = 60 * time.Second
	DefaultRateCeiling  = 6000
	DefaultRateWindow   = time.Minute
	DefaultThreadMax    = 6000
	DefaultSuggestMax   = 2000
	DefaultToneMax      = 50
	DefaultResponseMax  = 10000
	DefaultCacheTTL     = 24 * time.Hour
	DefaultCacheEntries = 256
	DefaultPort         = 8080
)

// LoadConfig reads configuration from environment variables, applying
// defaults for everything optional. Call godotenv.Load first if a .env file
// should be honored (main does).
//
// GROQ_API_KEY may legitimately be absent: the UI can supply a per-request
// key. Validation of its presence happens per operation, not here.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		GroqAPIKey:   GetEnvOrDefault("GROQ_API_KEY", ""),
		LLMBaseURL:   GetEnvOrDefault("LLM_BASE_URL", DefaultLLMBaseURL),
		DefaultModel: GetEnvOrDefault("LLM_DEFAULT_MODEL", DefaultModel),

		MaxCompletionTokens: ParseIntEnv("LLM_MAX_TOKENS", DefaultMaxTokens),
		MaxRetries:          ParseIntEnv("LLM_MAX_RETRIES", DefaultMaxRetries),
		RetryDelay:          ParseDurationEnv("LLM_RETRY_DELAY", DefaultRetryDelay),
		AITimeout:           ParseDurationEnv("LLM_TIMEOUT", DefaultAITimeout),

		RateCeilingTokens: ParseIntEnv("RATE_CEILING_TOKENS", DefaultRateCeiling),
		RateWindow:        ParseDurationEnv("RATE_WINDOW", DefaultRateWindow),

		ThreadMaxChars:     ParseIntEnv("THREAD_MAX_CHARS", DefaultThreadMax),
		SuggestionMaxChars: ParseIntEnv("SUGGESTION_MAX_CHARS", DefaultSuggestMax),
		ToneMaxChars:       ParseIntEnv("TONE_MAX_CHARS", DefaultToneMax),
		ResponseMaxChars:   ParseIntEnv("RESPONSE_MAX_CHARS", DefaultResponseMax),

		AnalysisCacheTTL:     ParseDurationEnv("ANALYSIS_CACHE_TTL", DefaultCacheTTL),
		AnalysisCacheEntries: ParseIntEnv("ANALYSIS_CACHE_ENTRIES", DefaultCacheEntries),

		TonesPath: GetEnvOrDefault("TONES_PATH", ""),

		DataDir:        GetEnvOrDefault("DATA_DIR", "./data"),
		MigrationsPath: GetEnvOrDefault("MIGRATIONS_PATH", "file://store/migrations"),

		Host: GetEnvOrDefault("HOST", "localhost"),
		Port: ParseIntEnv("PORT", DefaultPort),

		LogFilePath: GetEnvOrDefault("LOG_FILE", "replydesk.log"),
		DevMode:     ParseBoolEnv("DEV_MODE", false),
	}
	cfg.DatabasePath = GetEnvOrDefault("DATABASE_PATH", cfg.DataDir+"/replydesk.db")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if c.LLMBaseURL == "" {
		return ErrMissingConfig("LLM_BASE_URL")
	}
	if c.RateCeilingTokens <= 0 {
		return ErrInvalidLimit("RATE_CEILING_TOKENS", c.RateCeilingTokens)
	}
	if c.RateWindow <= 0 {
		return ErrInvalidLimit("RATE_WINDOW", int(c.RateWindow))
	}
	if c.MaxRetries < 0 {
		return ErrInvalidLimit("LLM_MAX_RETRIES", c.MaxRetries)
	}
	if c.ThreadMaxChars <= 0 || c.SuggestionMaxChars <= 0 || c.ResponseMaxChars <= 0 {
		return ErrInvalidLimit("input caps", 0)
	}
	return nil
}

// NewHTTPClient returns an http.Client configured with the AI timeout.
// A shared client keeps connection pooling across completion calls.
func (c *Config) NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: c.AITimeout,
		Transport: &http.Transport{
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConnsPerHost: 4,
		},
	}
}

// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, quota costs, LLM access,
// rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-venture-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LLMConfig defines access to the completion endpoint. An empty APIKey puts
// the application into deterministic offline mode.
type LLMConfig struct {
	Endpoint        string        // LLM_ENDPOINT ("" = provider default)
	APIKey          string        // LLM_API_KEY ("" = mock client)
	ChatModel       string        // LLM_CHAT_MODEL
	GenerationModel string        // LLM_GENERATION_MODEL
	MaxTokens       int           // LLM_MAX_TOKENS per completion
	Timeout         time.Duration // LLM_TIMEOUT per attempt
	MaxRetries      int           // LLM_MAX_RETRIES attempts total
}

// QuotaConfig defines the shared daily budget and per-operation costs.
type QuotaConfig struct {
	DailyLimit   int // DAILY_QUOTA units per user per UTC day
	ChatCost     int // CHAT_COST units per chat turn
	GenerateCost int // GENERATE_COST units per artifact generation
}

// PromptConfig tunes the prompt assembler's token budgets.
type PromptConfig struct {
	ArtifactTokens int // PROMPT_ARTIFACT_TOKENS
	HistoryTokens  int // PROMPT_HISTORY_TOKENS
	MaxPromptRunes int // MAX_PROMPT_RUNES per chat message
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath             string // SQLite path
	MaxVenturesPerUser int    // per-user venture cap

	Quota  QuotaConfig
	LLM    LLMConfig
	Prompt PromptConfig

	// Edge rate limiting (per client IP, request level; distinct from the
	// daily LLM quota)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS CORSConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:             getenv("DB_PATH", "app.db"),
		MaxVenturesPerUser: getint("MAX_VENTURES_PER_USER", 3),

		Quota: QuotaConfig{
			DailyLimit:   getint("DAILY_QUOTA", 30),
			ChatCost:     getint("CHAT_COST", 1),
			GenerateCost: getint("GENERATE_COST", 3),
		},

		LLM: LLMConfig{
			Endpoint:        getenv("LLM_ENDPOINT", ""),
			APIKey:          getenv("LLM_API_KEY", ""),
			ChatModel:       getenv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			GenerationModel: getenv("LLM_GENERATION_MODEL", "gpt-4o"),
			MaxTokens:       getint("LLM_MAX_TOKENS", 1024),
			Timeout:         getdur("LLM_TIMEOUT", 30*time.Second),
			MaxRetries:      getint("LLM_MAX_RETRIES", 3),
		},

		Prompt: PromptConfig{
			ArtifactTokens: getint("PROMPT_ARTIFACT_TOKENS", 600),
			HistoryTokens:  getint("PROMPT_HISTORY_TOKENS", 2000),
			MaxPromptRunes: getint("MAX_PROMPT_RUNES", 4000),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-venture-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MaxVenturesPerUser < 1 {
		return cfg, errors.New("MAX_VENTURES_PER_USER must be >= 1")
	}
	if cfg.Quota.DailyLimit < 1 {
		return cfg, errors.New("DAILY_QUOTA must be >= 1")
	}
	if cfg.Quota.ChatCost < 1 || cfg.Quota.GenerateCost < 1 {
		return cfg, errors.New("CHAT_COST and GENERATE_COST must be >= 1")
	}
	if cfg.Quota.ChatCost > cfg.Quota.DailyLimit || cfg.Quota.GenerateCost > cfg.Quota.DailyLimit {
		return cfg, errors.New("operation costs must not exceed DAILY_QUOTA")
	}
	if cfg.LLM.MaxTokens < 1 {
		return cfg, errors.New("LLM_MAX_TOKENS must be >= 1")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be a positive duration")
	}
	if cfg.LLM.MaxRetries < 1 {
		return cfg, errors.New("LLM_MAX_RETRIES must be >= 1")
	}
	if cfg.Prompt.ArtifactTokens < 1 || cfg.Prompt.HistoryTokens < 1 {
		return cfg, errors.New("prompt token budgets must be >= 1")
	}
	if cfg.Prompt.MaxPromptRunes < 1 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

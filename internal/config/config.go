// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment names. Anything other than production enables the
// development conveniences (dev token minting, default JWT secret).
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// devJWTSecret is the fallback signing secret outside production.
const devJWTSecret = "kotae-dev-secret-do-not-use-in-production"

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port                int
	Environment         string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	MaxRequestBodyBytes int64

	// FAQ index settings.
	FAQPath             string  // CSV file with id,question,answer,category header.
	ConfidenceThreshold float64 // Cosine similarity needed for a local answer.

	// JWT settings (HS256 shared secret).
	JWTSecret     string
	JWTExpiration time.Duration

	// mTLS enforcement. When true, requests must carry the upstream
	// terminator's X-Client-Verify: SUCCESS assertion.
	MTLSRequired bool

	// Audit and escalation storage.
	AuditLogPath string
	TicketDBPath string

	// Candidate store (Qdrant) settings. Empty URL disables the agent path.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Embedding provider settings.
	EmbeddingProvider   string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int // Vector dimensions; must match the chosen model's output.
	OllamaURL           string
	OllamaModel         string
	EmbedCacheSize      int

	// Per-call deadlines. Expiry degrades to the unavailable path rather
	// than hanging the request.
	EmbedTimeout time.Duration
	AgentTimeout time.Duration

	// Candidate retrieval fan-out on the agent path.
	CandidateTopK int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                envInt("KOTAE_PORT", 8080),
		Environment:         envStr("KOTAE_ENV", EnvDevelopment),
		ReadTimeout:         envDuration("KOTAE_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        envDuration("KOTAE_WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBodyBytes: int64(envInt("KOTAE_MAX_REQUEST_BODY_BYTES", 1*1024*1024)),
		FAQPath:             envStr("KOTAE_FAQ_CSV", "data/faq.csv"),
		ConfidenceThreshold: envFloat("KOTAE_CONFIDENCE_THRESHOLD", 0.7),
		JWTSecret:           envStr("KOTAE_JWT_SECRET", ""),
		JWTExpiration:       envDuration("KOTAE_JWT_EXPIRATION", time.Hour),
		MTLSRequired:        envBool("KOTAE_MTLS_REQUIRED", false),
		AuditLogPath:        envStr("KOTAE_AUDIT_LOG", "data/audit.jsonl"),
		TicketDBPath:        envStr("KOTAE_TICKET_DB", "data/tickets.db"),
		QdrantURL:           envStr("QDRANT_URL", ""),
		QdrantAPIKey:        envStr("QDRANT_API_KEY", ""),
		QdrantCollection:    envStr("KOTAE_QDRANT_COLLECTION", "faq"),
		EmbeddingProvider:   envStr("KOTAE_EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		EmbeddingModel:      envStr("KOTAE_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("KOTAE_EMBEDDING_DIMENSIONS", 1024),
		OllamaURL:           envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:         envStr("OLLAMA_MODEL", "mxbai-embed-large"),
		EmbedCacheSize:      envInt("KOTAE_EMBED_CACHE_SIZE", 1024),
		EmbedTimeout:        envDuration("KOTAE_EMBED_TIMEOUT", 10*time.Second),
		AgentTimeout:        envDuration("KOTAE_AGENT_TIMEOUT", 15*time.Second),
		CandidateTopK:       envInt("KOTAE_CANDIDATE_TOP_K", 5),
		OTELEndpoint:        envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:        envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:         envStr("OTEL_SERVICE_NAME", "kotae"),
		LogLevel:            envStr("KOTAE_LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" && cfg.Environment != EnvProduction {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
// Failures here are fatal: the process refuses to serve.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: KOTAE_JWT_SECRET is required in production")
	}
	if c.FAQPath == "" {
		return fmt.Errorf("config: KOTAE_FAQ_CSV is required")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("config: KOTAE_CONFIDENCE_THRESHOLD must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("config: KOTAE_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.CandidateTopK <= 0 {
		return fmt.Errorf("config: KOTAE_CANDIDATE_TOP_K must be positive")
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("config: KOTAE_MAX_REQUEST_BODY_BYTES must be positive")
	}
	return nil
}

// Production reports whether the service runs in production mode.
func (c Config) Production() bool {
	return c.Environment == EnvProduction
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

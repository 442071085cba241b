package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
// Missing vendor credentials disable the dependent features instead of
// crashing; the handlers answer 503 for the affected routes.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL  time.Duration
	RedisAddr string // optional; in-memory cache when empty

	// Observability
	OTLPEndpoint string

	// Identity provider (token verification)
	JWTSecret string
	JWTIssuer string

	// Document database (Firestore REST, service-account access)
	FirebaseProjectID   string
	FirebaseClientEmail string
	FirebasePrivateKey  string

	// Payment processor
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	// LLM API
	PerplexityAPIKey string
	PerplexityModel  string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		RedisAddr: getEnv("REDIS_ADDR", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "colespa-auth"),

		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseClientEmail: getEnv("FIREBASE_CLIENT_EMAIL", ""),
		FirebasePrivateKey:  getEnv("FIREBASE_PRIVATE_KEY", ""),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),

		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityModel:  getEnv("PERPLEXITY_MODEL", "sonar"),
	}
}

// FirestoreConfigured reports whether the document database credentials are
// complete.
func (c *Config) FirestoreConfigured() bool {
	return c.FirebaseProjectID != "" && c.FirebaseClientEmail != "" && c.FirebasePrivateKey != ""
}

// StripeConfigured reports whether the payment processor can be used.
func (c *Config) StripeConfigured() bool {
	return c.StripeSecretKey != ""
}

// PerplexityConfigured reports whether the LLM API can be used.
func (c *Config) PerplexityConfigured() bool {
	return c.PerplexityAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

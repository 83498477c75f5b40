// Package config assembles the runtime configuration from the environment.
// Every component receives its settings at construction; nothing reads
// free-standing globals.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string `env:"TUTORKIT_LISTEN_ADDR" envDefault:":8080"`
	LogLevel   string `env:"TUTORKIT_LOG_LEVEL" envDefault:"info"`

	// Authoritative entitlement store.
	DatabaseURL string `env:"TUTORKIT_DATABASE_URL"`
	DBSchema    string `env:"TUTORKIT_DB_SCHEMA" envDefault:"billing"`

	// Optional shared rate-limit backend; memory fallback when empty.
	RedisURL string `env:"TUTORKIT_REDIS_URL"`

	// Payment gateway credentials. The key secret doubles as the HMAC
	// secret for payment signatures.
	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	Currency          string `env:"TUTORKIT_CURRENCY" envDefault:"INR"`

	// Identity provider: session tokens are verified against its JWKS.
	IdentityIssuer  string `env:"TUTORKIT_IDENTITY_ISSUER"`
	IdentityAud     string `env:"TUTORKIT_IDENTITY_AUDIENCE" envDefault:"tutorkit"`
	IdentityJWKSURL string `env:"TUTORKIT_IDENTITY_JWKS_URL"`

	// Completion API for gated answer/explanation operations.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	// Device cache file for the coordinator.
	CachePath string `env:"TUTORKIT_CACHE_PATH" envDefault:"tutorkit-cache.db"`

	// External-channel origin allow-list. Empty preserves the historical
	// accept-anything-on-type behavior (logged, not silent).
	AllowedOrigins []string `env:"TUTORKIT_ALLOWED_ORIGINS" envSeparator:","`

	// Cron schedule for the periodic entitlement re-broadcast.
	SyncSchedule string `env:"TUTORKIT_SYNC_SCHEDULE" envDefault:"@every 15m"`
}

// Load parses the environment, reading an optional .env file first.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("config: load .env: %w", err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// Package config reads service configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Config captures everything the api binary needs to wire itself.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	RegistryBaseURL string
	PaymentBaseURL  string
	PublicBaseURL   string
	TokenSecret     string
	DraftTTL        time.Duration
}

// FromEnv builds the config with development defaults where safe. Secrets
// have no default outside of dev.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("MCMARKET_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        envOr("REDIS_URL", "redis://localhost:6379/0"),
		RegistryBaseURL: envOr("REGISTRY_BASE_URL", ""),
		PaymentBaseURL:  envOr("PAYMENT_BASE_URL", ""),
		PublicBaseURL:   envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
		TokenSecret:     envOr("ATTEMPT_TOKEN_SECRET", "dev-secret-change-in-production"),
		DraftTTL:        24 * time.Hour,
	}
	if raw := os.Getenv("DRAFT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.DraftTTL = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures all runtime configuration. Exactly one of DatabaseURL or
// SQLitePath selects the durable store; when both are empty the in-memory
// store is used (demo mode only - chains do not survive a restart).
type Server struct {
	Addr string `env:"AUDIT_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"AUDIT_DATABASE_URL"`
	SQLitePath  string `env:"AUDIT_SQLITE_PATH"`

	JWTSigningKey string `env:"AUDIT_JWT_SIGNING_KEY"`

	// AnchorMasterSecret seeds per-tenant anchor HMAC keys.
	AnchorMasterSecret string `env:"AUDIT_ANCHOR_SECRET"`

	// ChainCacheTTL bounds how long a cached tail digest is trusted as a hint.
	ChainCacheTTL time.Duration `env:"AUDIT_CHAIN_CACHE_TTL" envDefault:"60s"`

	// AnchorInterval is how often the worker looks for unanchored periods.
	// Zero disables the worker.
	AnchorInterval time.Duration `env:"AUDIT_ANCHOR_INTERVAL" envDefault:"1h"`

	ShutdownTimeout time.Duration `env:"AUDIT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSigningKey == "" {
		// Development fallback - must be overridden in production.
		cfg.JWTSigningKey = "dev-signing-key-change-in-production"
	}
	if cfg.AnchorMasterSecret == "" {
		cfg.AnchorMasterSecret = "dev-anchor-secret-change-in-production"
	}
	return cfg, nil
}

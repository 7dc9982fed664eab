package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"
)

type Config struct {
	Port              int           `env:"PORT" envDefault:"3318"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DatabaseType      string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	IdentitySalt      string        `env:"IDENTITY_SALT"`
	PollSlugSalt      string        `env:"POLL_SLUG_SALT"`
	JWTSecret         string        `env:"JWT_SECRET"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	TrustProxyHeaders bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// ParseFlags reads the environment, then lets flags override it
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("quickly-vote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or memory)")
	fs.DurationVar(&cfg.StoreTimeout, "store-timeout", cfg.StoreTimeout, "Per-operation store timeout")
	fs.BoolVar(&cfg.TrustProxyHeaders, "trust-proxy", cfg.TrustProxyHeaders, "Use X-Forwarded-For for client addresses")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", cfg.IdentitySalt, "Identity hashing salt (prefer env)")
	fs.StringVar(&cfg.PollSlugSalt, "slug-salt", cfg.PollSlugSalt, "Poll slug salt (prefer env)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Bearer token secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case DatabaseMemory:
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.StoreTimeout <= 0 {
		return Config{}, errors.New("store timeout must be positive")
	}

	// Secrets - MUST be provided
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}
	if cfg.PollSlugSalt == "" {
		return Config{}, errors.New("POLL_SLUG_SALT required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	return cfg, nil
}

// Package config loads the engine's configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime knob. A .env file is honored when present;
// real environment variables win.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// GatewayURL is the base URL of the relayer gateway that wraps the
	// PlayGame contract (createMatch/commitResult) and TokenStore buys.
	GatewayURL string `env:"GATEWAY_URL" envDefault:"http://localhost:3000"`

	// LedgerTimeout bounds each relayer call.
	LedgerTimeout time.Duration `env:"LEDGER_TIMEOUT" envDefault:"30s"`

	// DatabaseURL enables the PostgreSQL match-record archive when set.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL enables the read-through cache over the archive when set.
	RedisURL string `env:"REDIS_URL"`

	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
}

// Load reads .env (if any) and parses the environment.
func Load() (Config, error) {
	// Missing .env is fine; variables may come from the real environment.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

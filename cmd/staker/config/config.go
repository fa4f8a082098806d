package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration loaded from environment variables.
// The batch itself is described by the TOML job file at ConfigPath.
type Config struct {
	// Job file
	ConfigPath string `env:"STAKER_CONFIG_PATH" envDefault:"config.toml"`

	// Batch pacing
	PacingDelay  time.Duration `env:"STAKER_PACING_DELAY" envDefault:"5s"`
	StartupDelay time.Duration `env:"STAKER_STARTUP_DELAY" envDefault:"5s"`

	// RPC transport
	HttpClientTimeout time.Duration `env:"STAKER_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`

	// Optional outcome journal, disabled when empty
	DatabaseURL   string `env:"STAKER_DATABASE_URL"`
	MigrationsDir string `env:"STAKER_MIGRATIONS_DIR" envDefault:"migrations"`

	// Logging configuration
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}

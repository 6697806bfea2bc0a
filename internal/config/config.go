// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration
type Config struct {
	Host string `env:"TALLYDECK_HOST" envDefault:""`
	Port int    `env:"TALLYDECK_PORT" envDefault:"8080"`

	// StorageType selects the backend: memory, redis or sqlite
	StorageType string `env:"TALLYDECK_STORAGE" envDefault:"memory"`
	RedisURL    string `env:"TALLYDECK_REDIS_URL" envDefault:""`
	SQLitePath  string `env:"TALLYDECK_SQLITE_PATH" envDefault:"tallydeck.db"`

	JWTSecret string `env:"TALLYDECK_JWT_SECRET" envDefault:""`

	// PresenceTimeout is how long after a player's last poll they still
	// count as online
	PresenceTimeout time.Duration `env:"TALLYDECK_PRESENCE_TIMEOUT" envDefault:"45s"`
	// EventPageSize caps how many events one poll returns
	EventPageSize int `env:"TALLYDECK_EVENT_PAGE_SIZE" envDefault:"200"`

	LogLevel string `env:"TALLYDECK_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

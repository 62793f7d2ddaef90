package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all process-wide configuration. It is built once at startup and
// injected into components; nothing else reads the environment directly.
type Config struct {
	Port        string `env:"PORT, default=3000"`
	Env         string `env:"ENV, default=development"`
	DatabaseURL string `env:"DATABASE_URL, required"`
	JWTSecret   string `env:"JWT_SECRET, default=change-me"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`

	RedisAddr string `env:"REDIS_ADDR, default=localhost:6379"`
	RedisDB   int    `env:"REDIS_DB, default=0"`
	RedisPass string `env:"REDIS_PASSWORD"`
}

// Load builds Config from environment variables. A missing DATABASE_URL is a
// startup failure, not a request-time one.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production error verbosity.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

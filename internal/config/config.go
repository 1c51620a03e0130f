// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server reads from its environment.
type Config struct {
	HTTPAddr string `env:"CB2_HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"CB2_DB_PATH" envDefault:"cb2.db"`

	RedisAddr     string `env:"CB2_REDIS_ADDR"`
	RedisPassword string `env:"CB2_REDIS_PASSWORD"`
	RedisDB       int    `env:"CB2_REDIS_DB" envDefault:"0"`

	// CleanupInterval is how often finished games are swept, in seconds.
	CleanupInterval int `env:"CB2_CLEANUP_INTERVAL_S" envDefault:"30"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

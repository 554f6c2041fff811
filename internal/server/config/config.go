// Package config handles server configuration: defaults, environment
// variable overlay, then command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the sync server.
type Config struct {
	// Addr is the HTTP bind address.
	Addr string
	// DatabasePath is the SQLite database file path.
	DatabasePath string
	// JWTSecret signs access tokens (HS256).
	JWTSecret string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// RateLimit is the allowed requests per RateLimitWindow per client.
	RateLimit       int
	RateLimitWindow time.Duration
}

// LoadDefaults populates development defaults. The JWT secret must be
// overridden outside local development.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabasePath = "listsync.db"
	c.JWTSecret = "dev-secret-change-me"
	c.LogLevel = "info"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 30 * 24 * time.Hour
	c.RateLimit = 300
	c.RateLimitWindow = time.Minute
}

// Load builds the Config by applying defaults, then the environment
// variable overlay. Command-line flags are bound separately via
// RegisterFlags so the caller controls parsing.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays settings from LISTSYNC_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("LISTSYNC_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LISTSYNC_DB_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("LISTSYNC_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("LISTSYNC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LISTSYNC_ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LISTSYNC_ACCESS_TOKEN_TTL: %w", err)
		}
		c.AccessTokenTTL = d
	}
	if v := os.Getenv("LISTSYNC_REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LISTSYNC_REFRESH_TOKEN_TTL: %w", err)
		}
		c.RefreshTokenTTL = d
	}
	if v := os.Getenv("LISTSYNC_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LISTSYNC_RATE_LIMIT: %w", err)
		}
		c.RateLimit = n
	}
	if v := os.Getenv("LISTSYNC_RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LISTSYNC_RATE_LIMIT_WINDOW: %w", err)
		}
		c.RateLimitWindow = d
	}
	return nil
}

// Package config handles loading and validating the watch-daemon
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level watch-daemon configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Shopback ShopbackConfig `yaml:"shopback"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the health/metrics HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ShopbackConfig defines ShopBack API settings.
type ShopbackConfig struct {
	BaseURL        string          `yaml:"base_url"`
	GraphQLURL     string          `yaml:"graphql_url"`
	CredentialFile string          `yaml:"credential_file"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines client-side API rate limiting settings. A zero
// config disables rate limiting entirely.
type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// WatchConfig defines what the scheduled follow runs do.
type WatchConfig struct {
	Keywords []string      `yaml:"keywords"`
	Limit    int           `yaml:"limit"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand ${VAR} references so secrets can stay out of the file.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Shopback.BaseURL == "" {
		cfg.Shopback.BaseURL = "https://api-app.shopback.com.tw"
	}
	if cfg.Shopback.GraphQLURL == "" {
		cfg.Shopback.GraphQLURL = "https://api-app.shopback.com.tw/rs/graphql-auth"
	}
	if cfg.Shopback.RateLimit.PerSecond == 0 {
		cfg.Shopback.RateLimit.PerSecond = 5.0
	}
	if cfg.Shopback.RateLimit.Burst == 0 {
		cfg.Shopback.RateLimit.Burst = 10
	}
	if cfg.Shopback.RateLimit.DailyLimit == 0 {
		cfg.Shopback.RateLimit.DailyLimit = 5000
	}

	if cfg.Watch.Limit == 0 {
		cfg.Watch.Limit = 50
	}
	if cfg.Watch.Interval == 0 {
		cfg.Watch.Interval = time.Hour
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func validate(cfg *Config) error {
	if cfg.Shopback.CredentialFile == "" {
		return errors.New("shopback.credential_file is required")
	}
	if len(cfg.Watch.Keywords) == 0 {
		return errors.New("watch.keywords must not be empty")
	}
	if cfg.Watch.Interval < time.Minute {
		return fmt.Errorf("watch.interval %s is below the 1m minimum", cfg.Watch.Interval)
	}
	if cfg.Watch.Limit < 0 {
		return fmt.Errorf("watch.limit must not be negative, got %d", cfg.Watch.Limit)
	}
	return nil
}

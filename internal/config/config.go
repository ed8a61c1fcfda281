// Package config loads the YAML configuration of the tabdb command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Command line flags override it.
type Config struct {
	DataFile  string    `yaml:"data_file"`
	LogLevel  string    `yaml:"log_level"`
	Init      bool      `yaml:"init"`
	History   bool      `yaml:"history"`
	Watch     bool      `yaml:"watch"`
	Login     Login     `yaml:"login"`
	Bootstrap Bootstrap `yaml:"bootstrap,omitempty"`
}

// Login throttles failed login attempts per user.
type Login struct {
	MaxAttemptsPerMin int `yaml:"max_attempts_per_min"`
	Burst             int `yaml:"burst"`
}

// Bootstrap credentials are written to a newly initialized database.
type Bootstrap struct {
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataFile: "tabdb.json",
		LogLevel: "info",
		Init:     true,
		Login: Login{
			MaxAttemptsPerMin: 5,
			Burst:             3,
		},
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return errors.New("data_file is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Login.MaxAttemptsPerMin <= 0 {
		return fmt.Errorf("login.max_attempts_per_min must be positive, got %d", c.Login.MaxAttemptsPerMin)
	}
	if c.Login.Burst <= 0 {
		return fmt.Errorf("login.burst must be positive, got %d", c.Login.Burst)
	}
	if c.Bootstrap.Password != "" && c.Bootstrap.User == "" {
		return errors.New("bootstrap.password requires bootstrap.user")
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

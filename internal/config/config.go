// Package config loads the process configuration from COURIER_-prefixed
// environment variables and per-profile YAML records from the config dir.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds process-level settings. Profile records (endpoint, oracle,
// thresholds) live in the config dir, one YAML file per profile.
type Config struct {
	Profile   string `envconfig:"PROFILE" default:"default"`
	ConfigDir string `envconfig:"CONFIG_DIR" default:""`
	StateDir  string `envconfig:"STATE_DIR" default:""`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	OracleTimeout time.Duration `envconfig:"ORACLE_TIMEOUT" default:"10s"`
}

// New parses COURIER_* environment variables and resolves defaults.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("COURIER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults fills directory defaults from the user config/state dirs
// and validates the log level.
func (c *Config) ResolveDefaults() error {
	if c.ConfigDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		c.ConfigDir = filepath.Join(base, "courier")
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(c.ConfigDir, "state")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL: %s", c.LogLevel)
	}
	return nil
}

// StatePath is the sqlite file shared by all profiles; scope keys embed
// the profile name, so partitioning is logical, not physical.
func (c *Config) StatePath() string {
	return filepath.Join(c.StateDir, "courier.db")
}

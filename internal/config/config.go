// Package config assembles runtime settings from defaults, an optional JSON
// file, the environment (optionally seeded from a .env file) and
// command-line flags, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds runtime settings for the valet CLI.
type Config struct {
	// DatabaseDriver is "sqlite" or "postgres".
	DatabaseDriver string `envconfig:"DATABASE_DRIVER"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	// LogFormat is "text", "json" or "zerolog".
	LogFormat string `envconfig:"LOG_FORMAT"`
	// OperationTimeout bounds each storage round trip of a command.
	OperationTimeout time.Duration `envconfig:"OPERATION_TIMEOUT"`
	// DefaultLot is the lot used when a path names no lot.
	DefaultLot string `envconfig:"DEFAULT_LOT"`
}

// EnvPrefix prefixes every environment variable, e.g. VALET_DATABASE_DSN.
const EnvPrefix = "VALET"

// DefaultEnvFile is read, when present, before the environment is applied.
const DefaultEnvFile = ".env"

// LoadDefaults populates Config with defaults suitable for a local,
// single-user SQLite store.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:valet.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.OperationTimeout = 30 * time.Second
	c.DefaultLot = "main"
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DatabaseDriver))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn must not be empty"))
	}
	if c.OperationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("operation timeout must be positive, got %s", c.OperationTimeout))
	}
	if c.DefaultLot == "" || strings.Contains(c.DefaultLot, "::") {
		errs = append(errs, fmt.Errorf("invalid default lot %q", c.DefaultLot))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from args (normally os.Args[1:]) by applying
// defaults, then the JSON file named by -c/-config, then .env and VALET_*
// variables, then the flags themselves.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, DefaultEnvFile); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
)

// JsonConfig is the on-disk shape of the JSON configuration file. Fields
// left out of the file keep their current values.
type JsonConfig struct {
	DatabaseDriver   string   `json:"database_driver"`
	DatabaseDSN      string   `json:"database_dsn"`
	LogLevel         string   `json:"log_level"`
	LogFormat        string   `json:"log_format"`
	OperationTimeout Duration `json:"operation_timeout"`
	DefaultLot       string   `json:"default_lot"`
}

// jsonConfigPath returns the file named by -c or -config, or "".
func jsonConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

func parseJSON(cfg *Config, args []string) error {
	path := jsonConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIfNotEmpty(&cfg.DatabaseDriver, c.DatabaseDriver)
	setIfNotEmpty(&cfg.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&cfg.LogLevel, c.LogLevel)
	setIfNotEmpty(&cfg.LogFormat, c.LogFormat)
	setIfNotEmpty(&cfg.DefaultLot, c.DefaultLot)
	if c.OperationTimeout.Duration != 0 {
		cfg.OperationTimeout = c.OperationTimeout.Duration
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

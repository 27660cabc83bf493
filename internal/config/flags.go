package config

import (
	"flag"
	"io"
	"time"
)

// parseFlags applies command-line flags to cfg.
//
//	-d string   database driver (sqlite, postgres)
//	-s string   database DSN
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (text, json, zerolog)
//	-t int      operation timeout, seconds
//	-m string   default lot
func parseFlags(cfg *Config, args []string) error {
	args = FilterArgs(args, []string{"-d", "-s", "-l", "-f", "-t", "-m"})

	fs := flag.NewFlagSet("valet", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "d", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "s", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")
	timeout := fs.Int("t", int(cfg.OperationTimeout.Seconds()), "operation timeout (in seconds)")
	fs.StringVar(&cfg.DefaultLot, "m", cfg.DefaultLot, "default lot")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.OperationTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}

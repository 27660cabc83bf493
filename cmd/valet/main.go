package main

import (
	"context"
	"log"
	"os"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/valet/internal/cli"
	"github.com/dmitrijs2005/valet/internal/config"
	"github.com/dmitrijs2005/valet/internal/logging"
	"github.com/dmitrijs2005/valet/internal/repomanager"
	"github.com/dmitrijs2005/valet/internal/services"
)

func main() {
	// Wipe protected memory on Ctrl-C; the REPL is blocked on stdin then.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := run(context.Background()); err != nil {
		log.Printf("%v", err)
		memguard.SafeExit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	db, m, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Debug(ctx, "database ready", "driver", cfg.DatabaseDriver)

	svc := services.NewVaultService(db, m, logger, cfg.OperationTimeout, cfg.DefaultLot)
	cli.NewApp(svc, os.Stdin, os.Stdout).Run(ctx)
	return nil
}

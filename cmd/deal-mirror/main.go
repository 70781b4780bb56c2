// Command deal-mirror copies the Deals and Transactions tables from one
// backend into another, once or on an interval. A typical use is keeping
// a local SQLite book and the shared spreadsheet in step.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"dealtracker/internal/backend"
	"dealtracker/internal/cli"
	"dealtracker/internal/config"
	"dealtracker/internal/ledger"
	applog "dealtracker/internal/log"
	"dealtracker/internal/services"
)

func main() {
	fromBackend := flag.String("from-backend", string(backend.SQLiteBackend), "source backend (memory, sqlite, sheets)")
	toBackend := flag.String("to-backend", string(backend.SheetsBackend), "destination backend (memory, sqlite, sheets)")
	interval := flag.Duration("interval", 0, "repeat every interval; 0 copies once and exits")
	flag.Parse()

	cfg, logger := cli.Setup()

	from, to := backend.BackendType(*fromBackend), backend.BackendType(*toBackend)
	if !from.IsValid() || !to.IsValid() || from == to {
		logger.Error("Source and destination must be two different backends",
			"from", *fromBackend, "to", *toBackend, "valid", backend.GetBackendTypeStrings())
		os.Exit(cli.ExitUsage)
	}

	if err := run(cfg, logger, from, to, *interval); err != nil {
		logger.Error("Mirror failed", applog.FieldError, err)
		os.Exit(cli.ExitFailure)
	}
}

func run(cfg *config.Config, logger *applog.Logger, from, to backend.BackendType, interval time.Duration) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	source, err := cli.OpenBackend(ctx, cfg, logger, from)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	dest, err := cli.OpenBackend(ctx, cfg, logger, to)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer dest.Close()

	mirrorCfg := services.DefaultMirrorConfig()
	if interval > 0 {
		mirrorCfg.Interval = interval
	}
	proc := services.NewMirrorProcessor(
		ledger.New(source.Store, nil, ledger.WithLogger(logger)),
		ledger.New(dest.Store, nil, ledger.WithLogger(logger)),
		mirrorCfg, logger)

	if interval <= 0 {
		result, err := proc.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info("Mirror complete", "from", from, "to", to, "rows", result)
		return nil
	}

	if err := proc.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return proc.Stop(stopCtx)
}

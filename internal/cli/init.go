// Package cli provides the startup steps shared by the commands under cmd/:
// configuration, logging, backend selection and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dealtracker/internal/backend"
	"dealtracker/internal/config"
	applog "dealtracker/internal/log"
)

// Exit codes used by the commands.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// Setup loads configuration and builds the default logger. Failures are
// printed to stderr and end the process, since no logger exists yet.
func Setup() (*config.Config, *applog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(ExitFailure)
	}
	logger, err := applog.NewFromSettings(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure logging: %v\n", err)
		os.Exit(ExitFailure)
	}
	applog.SetDefault(logger)
	return cfg, logger
}

// MustValidate exits when cfg fails validation.
func MustValidate(cfg *config.Config, logger *applog.Logger) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(ExitFailure)
	}
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// OpenBackend creates the store for t, or for DATA_BACKEND when t is empty.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger, t backend.BackendType) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if t != "" {
		bc.Type = t
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", bc.Type, err)
	}
	logger.Info("Backend ready", applog.FieldBackend, bc.Type.String())
	return res, nil
}

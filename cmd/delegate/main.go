package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/delegate/internal/cli"
	"github.com/alexanderramin/delegate/internal/config"
	"github.com/alexanderramin/delegate/internal/metrics"
	"github.com/alexanderramin/delegate/internal/persist"
	"github.com/alexanderramin/delegate/internal/seed"
	"github.com/alexanderramin/delegate/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	backend, err := persist.OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	mode := persist.ModeNormal
	if cfg.Demo {
		mode = persist.ModeDemo
	}
	adapter := persist.NewAdapter(backend, mode, logger)
	defer adapter.Close()

	var src store.SeedSource = seed.Default(logger)
	if cfg.SeedDir != "" {
		src = seed.FromDir(cfg.SeedDir, logger)
	}

	// Store calls go to the metrics registry and, at error level, to the
	// logger. DELEGATE_LOG_CALLS traces every call.
	metricsObs := metrics.NewObserver()
	observers := []store.UseCaseObserver{metricsObs, store.NewSlogUseCaseObserver(logger)}
	if cfg.LogCalls {
		observers[1] = store.NewLogUseCaseObserver(os.Stderr)
	}

	s, err := store.Open(ctx, adapter, src, store.WithObserver(store.MultiObserver(observers...)))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	if err := metricsObs.TrackCollections(s.Counts); err != nil {
		return fmt.Errorf("registering collection metrics: %w", err)
	}

	app := &cli.App{
		Store:   s,
		Metrics: metricsObs,
		Logger:  logger,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	execErr := cli.NewRootCmd(app).ExecuteContext(ctx)

	if cfg.MetricsFile != "" {
		if err := metricsObs.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics textfile", "path", cfg.MetricsFile, "error", err)
		}
	}
	return execErr
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"shortscout/internal/config"
	"shortscout/internal/daemon"
	"shortscout/internal/logging"
	"shortscout/internal/metrics"
	"shortscout/internal/pipeline"
)

// run loads configuration from configPath (or the default locations), builds
// the pipeline, and serves the API until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := buildDaemon(ctx, cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "shortscoutd startup failed", "startup_failed", logging.Error(err))
		return err
	}
	defer d.Close()

	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("shortscoutd shutting down")
	return nil
}

func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	runtime, err := pipeline.Build(ctx, cfg, logger, metrics.New(registry))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	d, err := daemon.New(cfg, runtime, registry, logger)
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package main

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/config"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/supervisor"
	"github.com/tomtom215/lineup/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// runWorker serves the enrichment queue, the stale-artist refresh and the
// metrics endpoint under a supervisor tree until ctx is canceled.
func runWorker(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler(logger)), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Enrichment.CloseTimeout,
	})

	tree.AddWorker(a.queue)
	if cfg.Enrichment.RefreshEnabled {
		tree.AddWorker(services.NewRefreshService(a.repo, a.queue, services.RefreshConfig{
			Interval:  cfg.Enrichment.RefreshInterval,
			MaxAge:    cfg.Enrichment.RefreshMaxAge,
			BatchSize: cfg.Enrichment.RefreshBatchSize,
		}, logger))
	}
	if cfg.Metrics.Addr != "" {
		tree.AddTelemetry(services.NewHTTPServerService(services.NewMetricsServer(cfg.Metrics.Addr), 10*time.Second))
	}

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logger.Info().
		Str("version", version).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("catalog", cfg.Catalog.Enabled).
		Bool("refresh", cfg.Enrichment.RefreshEnabled).
		Str("metrics_addr", cfg.Metrics.Addr).
		Msg("Starting lineup worker")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("Lineup worker stopped")
	return nil
}

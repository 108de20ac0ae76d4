// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package supervisor runs the long-lived parts of the lineup worker under a
suture supervisor tree.

# Tree Layout

	lineup (root)
	├── workers
	│   ├── enrichment.Queue        (watermill router over gochannel)
	│   └── services.RefreshService (re-queues stale artists)
	└── telemetry
	    └── services.HTTPServerService (/metrics)

Each layer restarts its own services with exponential backoff. Supervisor
events are logged through sutureslog into the zerolog pipeline:

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler(logger)), supervisor.DefaultTreeConfig())
	tree.AddWorker(queue)
	tree.AddWorker(services.NewRefreshService(repo, queue, refreshCfg, logger))
	tree.AddTelemetry(services.NewHTTPServerService(metricsServer, 10*time.Second))
	err := tree.Serve(ctx)

# Services

Anything with Serve(ctx) error is a suture.Service. Services should return
ctx.Err() when the context is canceled and any other error to request a
restart. The services subpackage adapts components that have a different
lifecycle.
*/
package supervisor

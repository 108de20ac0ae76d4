// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package services provides suture.Service implementations for the lineup
worker that do not fit suture's Serve pattern on their own.

HTTPServerService wraps an *http.Server: ListenAndServe runs in a goroutine
and context cancellation triggers a graceful Shutdown. NewMetricsServer
builds the server that exposes /metrics and /healthz.

RefreshService sweeps the repository on an interval and queues artists whose
catalog data is older than MaxAge for re-enrichment:

	svc := services.NewRefreshService(repo, queue, services.RefreshConfig{
	    Interval: 6 * time.Hour,
	    MaxAge:   7 * 24 * time.Hour,
	}, logger)
	tree.AddWorker(svc)
*/
package services

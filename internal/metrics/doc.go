// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package metrics provides Prometheus instrumentation for the ingestion and
recommendation pipeline.

All collectors are registered with the default registry through promauto and
are exposed by the worker command's /metrics listener.

# Available Metrics

Cache Metrics:
  - lineup_cache_hits_total, lineup_cache_misses_total (counter)
    Labels: backend
  - lineup_cache_evictions_total (counter), lineup_cache_entries (gauge)
    Labels: backend
  - lineup_cache_errors_total (counter)
    Labels: backend, operation

Crawl Metrics:
  - lineup_crawl_outcomes_total (counter)
    Labels: path (structured, fallback, failed)
  - lineup_crawl_duration_seconds (histogram)
  - lineup_parse_duration_seconds (histogram)
    Labels: result
  - lineup_fetch_attempts_total (counter)
    Labels: result

Identity Metrics:
  - lineup_identity_resolutions_total (counter)
    Labels: outcome

External Services:
  - lineup_external_requests_total (counter)
    Labels: service (ai, catalog), result
  - lineup_external_request_duration_seconds (histogram)
    Labels: service
  - lineup_circuit_breaker_state (gauge), 0=closed, 1=half-open, 2=open
  - lineup_circuit_breaker_requests_total, lineup_circuit_breaker_state_transitions_total

Recommendations and Enrichment:
  - lineup_recommendations_generated_total (counter)
  - lineup_recommendations_dropped_total (counter)
    Labels: reason
  - lineup_enrichment_queued_total, lineup_enrichment_processed_total (counter)

# Usage

	start := time.Now()
	f, path, err := orchestrator.crawl(ctx, sources)
	metrics.RecordCrawl(path, time.Since(start))
*/
package metrics

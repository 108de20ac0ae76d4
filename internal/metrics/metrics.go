// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"}, // "memory", "nats"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cache_misses_total",
			Help: "Total number of cache misses (absent or expired)",
		},
		[]string{"backend"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cache_evictions_total",
			Help: "Total number of entries removed by expiry, delete or invalidation",
		},
		[]string{"backend"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineup_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"backend"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_cache_errors_total",
			Help: "Backend errors swallowed by the cache",
		},
		[]string{"backend", "operation"},
	)

	// Crawl and Parse Metrics
	CrawlOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_crawl_outcomes_total",
			Help: "Crawl results by path taken",
		},
		[]string{"path"}, // "structured", "fallback", "failed"
	)

	CrawlDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lineup_crawl_duration_seconds",
			Help:    "End-to-end duration of festival crawls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_parse_duration_seconds",
			Help:    "Duration of structured document parses",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"result"}, // "ok", "cached", error kind
	)

	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_fetch_attempts_total",
			Help: "Document fetch attempts by result",
		},
		[]string{"result"}, // "success", "retry", "exhausted", "permanent"
	)

	// Identity Metrics
	IdentityResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_identity_resolutions_total",
			Help: "Artist identity resolutions by outcome",
		},
		[]string{"outcome"}, // "repository", "catalog_existing", "created", "not_found"
	)

	// External Service Metrics
	ExternalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_external_requests_total",
			Help: "Requests to the AI capability and external catalog",
		},
		[]string{"service", "result"},
	)

	ExternalRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineup_external_request_duration_seconds",
			Help:    "Latency of requests to external services",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineup_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineup_circuit_breaker_consecutive_failures",
			Help: "Number of consecutive failures recorded by circuit breaker",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Recommendation Metrics
	RecommendationsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lineup_recommendations_generated_total",
			Help: "Recommendations returned to callers",
		},
	)

	RecommendationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_recommendations_dropped_total",
			Help: "Scored artists dropped during postprocessing",
		},
		[]string{"reason"}, // "no_act", "date_mismatch", "day_filter", "slot_filter"
	)

	// Enrichment Metrics
	EnrichmentQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lineup_enrichment_queued_total",
			Help: "Artists queued for asynchronous enrichment",
		},
	)

	EnrichmentProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineup_enrichment_processed_total",
			Help: "Enrichment jobs processed by result",
		},
		[]string{"result"}, // "success", "skipped", "failed"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineup_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordCacheHit records a cache hit for backend.
func RecordCacheHit(backend string) {
	CacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a cache miss for backend.
func RecordCacheMiss(backend string) {
	CacheMisses.WithLabelValues(backend).Inc()
}

// RecordCacheEvictions adds n evictions for backend.
func RecordCacheEvictions(backend string, n int) {
	if n > 0 {
		CacheEvictions.WithLabelValues(backend).Add(float64(n))
	}
}

// RecordCacheError records a swallowed backend error.
func RecordCacheError(backend, operation string) {
	CacheErrors.WithLabelValues(backend, operation).Inc()
}

// RecordCrawl records the path a crawl took and its duration.
func RecordCrawl(path string, duration time.Duration) {
	CrawlOutcomes.WithLabelValues(path).Inc()
	CrawlDuration.Observe(duration.Seconds())
}

// RecordParse records a structured parse. result is "ok", "cached" or the
// error kind.
func RecordParse(result string, duration time.Duration) {
	if result == "" {
		result = "unknown"
	}
	ParseDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordFetchAttempt records one document fetch attempt.
func RecordFetchAttempt(result string) {
	FetchAttempts.WithLabelValues(result).Inc()
}

// RecordIdentityResolution records how an artist name was resolved.
func RecordIdentityResolution(outcome string) {
	IdentityResolutions.WithLabelValues(outcome).Inc()
}

// RecordExternalRequest records a call to an external service.
func RecordExternalRequest(service string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	ExternalRequests.WithLabelValues(service, result).Inc()
	ExternalRequestDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordRecommendationDrop records a scored artist removed by postprocessing.
func RecordRecommendationDrop(reason string) {
	RecommendationsDropped.WithLabelValues(reason).Inc()
}

// RecordRecommendations records n recommendations returned.
func RecordRecommendations(n int) {
	RecommendationsGenerated.Add(float64(n))
}

// RecordEnrichment records the result of one enrichment job.
func RecordEnrichment(result string) {
	EnrichmentProcessed.WithLabelValues(result).Inc()
}

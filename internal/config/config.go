// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package config

import "time"

// Config is the complete lineup configuration.
type Config struct {
	Cache      CacheConfig      `koanf:"cache"`
	Storage    StorageConfig    `koanf:"storage"`
	AI         AIConfig         `koanf:"ai"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Fetch      FetchConfig      `koanf:"fetch"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is memory, nats or none.
	Backend       string          `koanf:"backend"`
	SweepInterval time.Duration   `koanf:"sweep_interval"`
	NATS          CacheNATSConfig `koanf:"nats"`
}

// CacheNATSConfig configures the JetStream key/value backend.
type CacheNATSConfig struct {
	URL    string        `koanf:"url"`
	Bucket string        `koanf:"bucket"`
	MaxTTL time.Duration `koanf:"max_ttl"`

	// Embedded runs an in-process server storing data in StoreDir.
	Embedded  bool          `koanf:"embedded"`
	StoreDir  string        `koanf:"store_dir"`
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// StorageConfig configures the BadgerDB repository.
type StorageConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// AIConfig configures the generative AI client.
type AIConfig struct {
	Enabled    bool          `koanf:"enabled"`
	APIKey     string        `koanf:"api_key"`
	BaseURL    string        `koanf:"base_url"`
	APIVersion string        `koanf:"api_version"`
	Model      string        `koanf:"model"`
	MaxTokens  int           `koanf:"max_tokens"`
	Timeout    time.Duration `koanf:"timeout"`
}

// CatalogConfig configures the Spotify catalog client.
type CatalogConfig struct {
	Enabled           bool          `koanf:"enabled"`
	ClientID          string        `koanf:"client_id"`
	ClientSecret      string        `koanf:"client_secret"`
	AccountsURL       string        `koanf:"accounts_url"`
	APIURL            string        `koanf:"api_url"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	SearchLimit       int           `koanf:"search_limit"`
	MaxRetries        int           `koanf:"max_retries"`
	Timeout           time.Duration `koanf:"timeout"`
}

// FetchConfig configures source fetching for both crawl paths.
type FetchConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
	UserAgent     string        `koanf:"user_agent"`
	MaxBodyBytes  int64         `koanf:"max_body_bytes"`

	// MaxConcurrent bounds parallel document loads on the fallback path.
	MaxConcurrent int `koanf:"max_concurrent"`
	// MaxDocChars truncates each fallback document.
	MaxDocChars int `koanf:"max_doc_chars"`
}

// EnrichmentConfig tunes the enrichment queue and the stale-artist refresh.
type EnrichmentConfig struct {
	Buffer               int           `koanf:"buffer"`
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	DedupTTL             time.Duration `koanf:"dedup_ttl"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`

	RefreshEnabled   bool          `koanf:"refresh_enabled"`
	RefreshInterval  time.Duration `koanf:"refresh_interval"`
	RefreshMaxAge    time.Duration `koanf:"refresh_max_age"`
	RefreshBatchSize int           `koanf:"refresh_batch_size"`
}

// MetricsConfig configures the worker's metrics listener.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the listener.
	Addr string `koanf:"addr"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

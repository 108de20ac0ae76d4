// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/lineup/internal/models"
)

// DefaultConfigPaths are searched in order when no path is given. The first
// file found is used.
var DefaultConfigPaths = []string{
	"lineup.yaml",
	"lineup.yml",
	"/etc/lineup/config.yaml",
	"/etc/lineup/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:       "memory",
			SweepInterval: time.Minute,
			NATS: CacheNATSConfig{
				URL:       "nats://127.0.0.1:4222",
				Bucket:    "lineup-cache",
				MaxTTL:    24 * time.Hour,
				Embedded:  false,
				StoreDir:  "/data/nats",
				OpTimeout: 5 * time.Second,
			},
		},
		Storage: StorageConfig{
			Path:     "/data/lineup",
			InMemory: false,
		},
		AI: AIConfig{
			Enabled:    false,
			BaseURL:    "https://api.anthropic.com",
			APIVersion: "2023-06-01",
			Model:      "claude-sonnet-4-5",
			MaxTokens:  8192,
			Timeout:    2 * time.Minute,
		},
		Catalog: CatalogConfig{
			Enabled:           false,
			AccountsURL:       "https://accounts.spotify.com",
			APIURL:            "https://api.spotify.com",
			RequestsPerSecond: 5,
			Burst:             5,
			SearchLimit:       10,
			MaxRetries:        3,
			Timeout:           30 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
			UserAgent:     "Mozilla/5.0 (compatible; LineupBot/1.0; +https://github.com/tomtom215/lineup)",
			MaxBodyBytes:  10 << 20,
			MaxConcurrent: 4,
			MaxDocChars:   60000,
		},
		Enrichment: EnrichmentConfig{
			Buffer:               256,
			RetryMaxRetries:      3,
			RetryInitialInterval: time.Second,
			DedupTTL:             10 * time.Minute,
			CloseTimeout:         30 * time.Second,
			RefreshEnabled:       true,
			RefreshInterval:      6 * time.Hour,
			RefreshMaxAge:        7 * 24 * time.Hour,
			RefreshBatchSize:     100,
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from three layers, later ones winning:
//  1. built-in defaults
//  2. a YAML file: path, else $CONFIG_PATH, else the first of
//     DefaultConfigPaths that exists
//  3. environment variables listed in envMappings
//
// The result is validated. Every failure is a Configuration error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, configError(path, fmt.Errorf("load defaults: %w", err))
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, configError(path, fmt.Errorf("load config file %s: %w", path, err))
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, configError(path, fmt.Errorf("load environment variables: %w", err))
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, configError(path, fmt.Errorf("unmarshal configuration: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError(path, err)
	}
	return cfg, nil
}

func configError(path string, err error) error {
	return models.NewOpError(models.KindConfiguration, "load_config", path, err)
}

// findConfigFile returns $CONFIG_PATH when it exists, else the first
// existing default path, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps environment variables (lower-cased) to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"cache_backend":        "cache.backend",
	"cache_sweep_interval": "cache.sweep_interval",
	"nats_url":             "cache.nats.url",
	"nats_bucket":          "cache.nats.bucket",
	"nats_max_ttl":         "cache.nats.max_ttl",
	"nats_embedded":        "cache.nats.embedded",
	"nats_store_dir":       "cache.nats.store_dir",
	"nats_op_timeout":      "cache.nats.op_timeout",

	"badger_path":      "storage.path",
	"badger_in_memory": "storage.in_memory",

	"ai_enabled":        "ai.enabled",
	"anthropic_api_key": "ai.api_key",
	"ai_base_url":       "ai.base_url",
	"ai_api_version":    "ai.api_version",
	"ai_model":          "ai.model",
	"ai_max_tokens":     "ai.max_tokens",
	"ai_timeout":        "ai.timeout",

	"catalog_enabled":             "catalog.enabled",
	"spotify_client_id":           "catalog.client_id",
	"spotify_client_secret":       "catalog.client_secret",
	"spotify_accounts_url":        "catalog.accounts_url",
	"spotify_api_url":             "catalog.api_url",
	"catalog_requests_per_second": "catalog.requests_per_second",
	"catalog_burst":               "catalog.burst",
	"catalog_search_limit":        "catalog.search_limit",
	"catalog_max_retries":         "catalog.max_retries",
	"catalog_timeout":             "catalog.timeout",

	"fetch_timeout":        "fetch.timeout",
	"fetch_retry_attempts": "fetch.retry_attempts",
	"fetch_retry_delay":    "fetch.retry_delay",
	"fetch_user_agent":     "fetch.user_agent",
	"fetch_max_body_bytes": "fetch.max_body_bytes",
	"fetch_max_concurrent": "fetch.max_concurrent",
	"fetch_max_doc_chars":  "fetch.max_doc_chars",

	"enrich_buffer":         "enrichment.buffer",
	"enrich_retry_max":      "enrichment.retry_max_retries",
	"enrich_retry_interval": "enrichment.retry_initial_interval",
	"enrich_dedup_ttl":      "enrichment.dedup_ttl",
	"enrich_close_timeout":  "enrichment.close_timeout",
	"refresh_enabled":       "enrichment.refresh_enabled",
	"refresh_interval":      "enrichment.refresh_interval",
	"refresh_max_age":       "enrichment.refresh_max_age",
	"refresh_batch_size":    "enrichment.refresh_batch_size",

	"metrics_addr": "metrics.addr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its config path, or
// "" to skip it.
//
// Examples:
//   - ANTHROPIC_API_KEY -> ai.api_key
//   - NATS_EMBEDDED -> cache.nats.embedded
//   - REFRESH_MAX_AGE -> enrichment.refresh_max_age
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/lineup/internal/models"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineup.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.AI.Enabled || cfg.Catalog.Enabled {
		t.Error("AI and catalog should be opt-in")
	}
	if cfg.Fetch.RetryAttempts != 3 || cfg.Fetch.RetryDelay != 2*time.Second {
		t.Errorf("fetch retry = %d/%v, want 3/2s", cfg.Fetch.RetryAttempts, cfg.Fetch.RetryDelay)
	}
	if cfg.Enrichment.RefreshMaxAge != 7*24*time.Hour {
		t.Errorf("RefreshMaxAge = %v, want 168h", cfg.Enrichment.RefreshMaxAge)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"ANTHROPIC_API_KEY", "ai.api_key"},
		{"NATS_EMBEDDED", "cache.nats.embedded"},
		{"BADGER_PATH", "storage.path"},
		{"REFRESH_MAX_AGE", "enrichment.refresh_max_age"},
		{"log_level", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

// Tests below use t.Setenv and therefore cannot run in parallel.

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Path != "/data/lineup" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
cache:
  backend: nats
  nats:
    embedded: true
    store_dir: /tmp/lineup-nats
storage:
  in_memory: true
ai:
  enabled: true
  api_key: from-file
  model: claude-haiku-4-5
fetch:
  retry_attempts: 5
logging:
  level: debug
`)
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("FETCH_RETRY_DELAY", "750ms")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Backend != "nats" || !cfg.Cache.NATS.Embedded || cfg.Cache.NATS.StoreDir != "/tmp/lineup-nats" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.NATS.Bucket != "lineup-cache" {
		t.Errorf("default bucket lost: %q", cfg.Cache.NATS.Bucket)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Errorf("AI.APIKey = %q, env should win over file", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "claude-haiku-4-5" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.Fetch.RetryAttempts != 5 || cfg.Fetch.RetryDelay != 750*time.Millisecond {
		t.Errorf("fetch = %d/%v", cfg.Fetch.RetryAttempts, cfg.Fetch.RetryDelay)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	path := writeConfigFile(t, "metrics:\n  addr: 127.0.0.1:9999\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9999" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_InvalidIsConfigurationError(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "redis")

	_, err := Load(writeConfigFile(t, "logging:\n  level: info\n"))
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("Load() error = %v, want configuration error", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Load() error = %v, want configuration error", err)
	}
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/lineup/internal/logging"
)

var (
	validCacheBackends = map[string]bool{"memory": true, "nats": true, "none": true}
	validLogFormats    = map[string]bool{"json": true, "console": true}
)

// Validate checks enums and the required fields of enabled sections.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCache() error {
	if !validCacheBackends[c.Cache.Backend] {
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, nats, none (got %q)", c.Cache.Backend)
	}
	if c.Cache.Backend != "nats" {
		return nil
	}
	n := c.Cache.NATS
	if n.Bucket == "" {
		return errors.New("NATS_BUCKET is required when CACHE_BACKEND=nats")
	}
	if n.Embedded {
		if n.StoreDir == "" {
			return errors.New("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
		}
		return nil
	}
	if n.URL == "" {
		return errors.New("NATS_URL is required when CACHE_BACKEND=nats")
	}
	if err := validateNATSURL(n.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return errors.New("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateAI() error {
	if !c.AI.Enabled {
		return nil
	}
	if c.AI.APIKey == "" {
		return errors.New("ANTHROPIC_API_KEY is required when AI_ENABLED=true")
	}
	if c.AI.Model == "" {
		return errors.New("AI_MODEL is required when AI_ENABLED=true")
	}
	if err := validateHTTPURL(c.AI.BaseURL, "AI_BASE_URL"); err != nil {
		return err
	}
	if c.AI.MaxTokens <= 0 {
		return errors.New("AI_MAX_TOKENS must be positive")
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if !c.Catalog.Enabled {
		return nil
	}
	if c.Catalog.ClientID == "" || c.Catalog.ClientSecret == "" {
		return errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required when CATALOG_ENABLED=true")
	}
	if err := validateHTTPURL(c.Catalog.AccountsURL, "SPOTIFY_ACCOUNTS_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Catalog.APIURL, "SPOTIFY_API_URL"); err != nil {
		return err
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return errors.New("CATALOG_REQUESTS_PER_SECOND must be positive")
	}
	if c.Catalog.Burst < 1 {
		return errors.New("CATALOG_BURST must be at least 1")
	}
	if c.Catalog.SearchLimit < 1 || c.Catalog.SearchLimit > 50 {
		return errors.New("CATALOG_SEARCH_LIMIT must be between 1 and 50")
	}
	if c.Catalog.MaxRetries < 0 {
		return errors.New("CATALOG_MAX_RETRIES must not be negative")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Timeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.Fetch.RetryAttempts < 1 {
		return errors.New("FETCH_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Fetch.RetryDelay < 0 {
		return errors.New("FETCH_RETRY_DELAY must not be negative")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return errors.New("FETCH_MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	e := c.Enrichment
	if e.Buffer < 1 {
		return errors.New("ENRICH_BUFFER must be at least 1")
	}
	if e.RetryMaxRetries > 0 && e.RetryInitialInterval <= 0 {
		return errors.New("ENRICH_RETRY_INTERVAL must be positive when retries are enabled")
	}
	if e.RefreshEnabled && (e.RefreshInterval <= 0 || e.RefreshMaxAge <= 0) {
		return errors.New("REFRESH_INTERVAL and REFRESH_MAX_AGE must be positive when REFRESH_ENABLED=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL requires an http(s) URL with a host.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required (e.g., localhost:4222)")
	}
	return nil
}

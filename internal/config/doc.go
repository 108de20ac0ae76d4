// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package config loads the lineup configuration with koanf.

# Sources

Layers are applied in order, later ones winning:
  - Defaults from defaultConfig()
  - An optional YAML file (explicit path, $CONFIG_PATH, or lineup.yaml)
  - Environment variables from the envMappings table

Unlisted environment variables are ignored so unrelated process state never
leaks into the configuration.

# Sections

  - cache: backend (memory, nats, none), sweep interval, JetStream KV bucket
  - storage: BadgerDB path or in-memory mode
  - ai: Messages API key, model, limits (opt-in)
  - catalog: Spotify client credentials and rate limits (opt-in)
  - fetch: source fetch timeout, retries and user agent
  - enrichment: queue buffer, retry policy, dedup window, stale-artist refresh
  - metrics: /metrics listen address for the worker
  - logging: zerolog level, format, caller

# Example

	# lineup.yaml
	cache:
	  backend: nats
	  nats:
	    embedded: true
	    store_dir: /var/lib/lineup/nats
	storage:
	  path: /var/lib/lineup/badger
	ai:
	  enabled: true
	  model: claude-sonnet-4-5

	ANTHROPIC_API_KEY=... lineup crawl https://example.com/lineup

Validation errors name the environment variable to fix. Load wraps every
failure as a Configuration error (errors.Is(err, models.ErrConfiguration)).
*/
package config

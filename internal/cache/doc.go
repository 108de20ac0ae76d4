// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package cache provides the key/value cache used by every Lineup component.

# Overview

Store is the single cache abstraction. It offers:
  - Per-entry TTL, checked lazily on every read
  - Substring invalidation (InvalidatePattern), used to drop every key that
    belongs to one festival
  - Byte values, with GetJSON/SetJSON helpers built on goccy/go-json
  - Failure absorption: backend errors are logged and read as absence

# Backends

  - Memory: in-process map guarded by sync.RWMutex with a periodic sweep
  - NATSStore: JetStream key/value bucket shared between processes, with an
    optional embedded server for single-node deployments
  - Noop: selected when no backend is configured; every read misses

# Key Policy

policy.go owns every TTL and key shape:

	cache.ParseKey("https://example.com/lineup")   // festival:parse:https://example.com/lineup
	cache.CrawlKey(sources)                        // festival:crawl:<source>|<source>
	cache.ArtistSearchKey("Björk")                 // artist:search:v1:bjork
	cache.RecommendationKey(id, digest)            // recommend:[<id>]:<digest>

Festival-scoped keys embed FestivalKeyFragment(id), so

	store.InvalidatePattern(ctx, cache.FestivalKeyFragment(id))

removes the stored record and all recommendations for that festival.

# Usage Example

	store := cache.NewMemory(time.Minute)
	defer store.Close()

	_ = cache.SetJSON(ctx, store, cache.FestivalKey(f.ID), f, cache.FestivalTTL)
	if cached, ok := cache.GetJSON[models.Festival](ctx, store, cache.FestivalKey(f.ID)); ok {
	    return &cached, nil
	}
*/
package cache

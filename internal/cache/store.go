// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store is a key/value cache with per-entry TTL and substring invalidation.
//
// Implementations are safe for concurrent use. Backend failures are logged
// and reported as absence; no method returns a backend error except Close.
// A ttl <= 0 stores the entry without expiry.
type Store interface {
	// Has reports whether key holds an unexpired entry.
	Has(ctx context.Context, key string) bool

	// Get returns a copy of the value for key, or false when it is absent
	// or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key until ttl elapses.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string)

	// InvalidatePattern removes every key containing substr. substr is a
	// plain substring, never a regular expression.
	InvalidatePattern(ctx context.Context, substr string)

	// Clear removes every entry.
	Clear(ctx context.Context)

	// Close releases background resources.
	Close() error
}

// Backend selects a Store implementation.
type Backend string

const (
	// BackendMemory is the local in-process store.
	BackendMemory Backend = "memory"

	// BackendNATS is the shared JetStream key/value store.
	BackendNATS Backend = "nats"

	// BackendNone disables caching; every read misses.
	BackendNone Backend = "none"
)

// Config holds configuration for opening a Store.
type Config struct {
	Backend Backend

	// SweepInterval is how often the memory backend removes expired entries.
	SweepInterval time.Duration

	NATS NATSConfig
}

// Open builds the Store selected by cfg.Backend. An empty backend yields the
// no-op store.
//
// Example:
//
//	store, err := cache.Open(ctx, cache.Config{Backend: cache.BackendMemory}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(cfg.SweepInterval), nil
	case BackendNATS:
		s, err := NewNATSStore(ctx, cfg.NATS, logger)
		if err != nil {
			return nil, fmt.Errorf("open nats cache: %w", err)
		}
		return s, nil
	case BackendNone, "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Verify interface implementations at compile time
var (
	_ Store = (*Memory)(nil)
	_ Store = (*NATSStore)(nil)
	_ Store = Noop{}
)

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/lineup/internal/metrics"
)

const backendMemory = string(BackendMemory)

// DefaultSweepInterval is used when NewMemory receives a non-positive interval.
const DefaultSweepInterval = 5 * time.Minute

// Entry is one cached value with its lifetime.
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time // zero means no expiry
}

// Expired reports whether a read at now must treat the entry as absent.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Memory is the thread-safe in-process Store.
//
// Expiry is checked lazily on every read and a background sweep removes
// expired entries so memory stays bounded for keys that are never read again.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	lastCleanup atomic.Int64 // unix nanos

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemory creates a memory store and starts its sweep goroutine.
// Call Close to stop the sweep.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := newMemory(time.Now)
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	go m.sweepLoop(sweepInterval)
	return m
}

// newMemory builds a store without a sweep goroutine; tests drive sweep
// directly with a controlled clock.
func newMemory(now func() time.Time) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		now:     now,
		stop:    make(chan struct{}),
	}
	m.lastCleanup.Store(now().UnixNano())
	return m
}

// Has reports whether key holds an unexpired entry without touching stats.
func (m *Memory) Has(ctx context.Context, key string) bool {
	_, ok := m.lookup(key)
	return ok
}

// Get retrieves a copy of the value for key with automatic expiration checking.
// An expired entry is removed and counted as both a miss and an eviction.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	e, ok := m.lookup(key)
	if !ok {
		m.misses.Add(1)
		metrics.RecordCacheMiss(backendMemory)
		return nil, false
	}

	m.hits.Add(1)
	metrics.RecordCacheHit(backendMemory)
	return cloneBytes(e.Value), true
}

func (m *Memory) lookup(key string) (Entry, bool) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return Entry{}, false
	}

	if e.Expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, ok := m.entries[key]; ok && cur.Expired(m.now()) {
			delete(m.entries, key)
			m.recordEvictions(1)
		}
		m.mu.Unlock()
		return Entry{}, false
	}

	return e, true
}

// Set stores a copy of value under key.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	now := m.now()
	e := Entry{
		Key:       key,
		Value:     cloneBytes(value),
		CreatedAt: now,
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	size := len(m.entries)
	m.mu.Unlock()

	metrics.CacheSize.WithLabelValues(backendMemory).Set(float64(size))
}

// Delete removes a specific cache entry by key.
func (m *Memory) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	_, existed := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()

	if existed {
		m.recordEvictions(1)
	}
}

// InvalidatePattern removes every key containing substr. An empty substr
// matches nothing.
func (m *Memory) InvalidatePattern(ctx context.Context, substr string) {
	if substr == "" {
		return
	}

	m.mu.Lock()
	removed := 0
	for key := range m.entries {
		if strings.Contains(key, substr) {
			delete(m.entries, key)
			removed++
		}
	}
	m.mu.Unlock()

	m.recordEvictions(removed)
}

// Clear removes all entries from the cache in a single atomic operation.
func (m *Memory) Clear(ctx context.Context) {
	m.mu.Lock()
	removed := len(m.entries)
	m.entries = make(map[string]Entry)
	m.mu.Unlock()

	m.recordEvictions(removed)
	metrics.CacheSize.WithLabelValues(backendMemory).Set(0)
}

// Close stops the sweep goroutine. Entries remain readable.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

// GetStats returns a snapshot of current cache performance statistics.
func (m *Memory) GetStats() Stats {
	m.mu.RLock()
	total := int64(len(m.entries))
	m.mu.RUnlock()

	return Stats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Evictions:   m.evictions.Load(),
		TotalKeys:   total,
		LastCleanup: time.Unix(0, m.lastCleanup.Load()),
	}
}

// HitRate returns the cache hit rate as a percentage
func (m *Memory) HitRate() float64 {
	stats := m.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// sweepLoop periodically removes expired entries
func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes all expired entries and returns how many it removed.
func (m *Memory) sweep() int {
	now := m.now()
	m.mu.Lock()
	removed := 0
	for key, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	size := len(m.entries)
	m.mu.Unlock()

	m.recordEvictions(removed)
	m.lastCleanup.Store(now.UnixNano())
	metrics.CacheSize.WithLabelValues(backendMemory).Set(float64(size))
	return removed
}

func (m *Memory) recordEvictions(n int) {
	if n <= 0 {
		return
	}
	m.evictions.Add(int64(n))
	metrics.RecordCacheEvictions(backendMemory, n)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"context"
	"sync"
	"time"
)

type recentEntry struct {
	key       string
	expiresAt time.Time
	prev      *recentEntry
	next      *recentEntry
}

// RecentKeys remembers keys for a TTL with bounded memory, evicting the
// least recently seen key at capacity. It backs message deduplication and
// satisfies watermill's middleware.ExpiringKeyRepository.
type RecentKeys struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*recentEntry
	// head.next is the most recently seen key, tail.prev the least.
	head *recentEntry
	tail *recentEntry
}

// NewRecentKeys creates a RecentKeys. Non-positive arguments default to
// 10000 keys and five minutes.
func NewRecentKeys(capacity int, ttl time.Duration) *RecentKeys {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	r := &RecentKeys{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*recentEntry, capacity),
		head:     &recentEntry{},
		tail:     &recentEntry{},
	}
	r.head.next = r.tail
	r.tail.prev = r.head
	return r
}

// IsDuplicate reports whether key was seen within the TTL. A key that was
// not seen is recorded.
func (r *RecentKeys) IsDuplicate(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.items[key]; ok {
		if now.Before(e.expiresAt) {
			r.unlink(e)
			r.pushFront(e)
			return true, nil
		}
		r.remove(e)
	}

	e := &recentEntry{key: key, expiresAt: now.Add(r.ttl)}
	r.pushFront(e)
	r.items[key] = e
	for len(r.items) > r.capacity {
		r.remove(r.tail.prev)
	}
	return false, nil
}

// Forget drops key so the next IsDuplicate for it reports false.
func (r *RecentKeys) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.items[key]; ok {
		r.remove(e)
	}
}

// Len returns the number of remembered keys, expired ones included until
// they are touched or evicted.
func (r *RecentKeys) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// list helpers, called with mu held

func (r *RecentKeys) pushFront(e *recentEntry) {
	e.prev = r.head
	e.next = r.head.next
	r.head.next.prev = e
	r.head.next = e
}

func (r *RecentKeys) unlink(e *recentEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (r *RecentKeys) remove(e *recentEntry) {
	r.unlink(e)
	delete(r.items, e.key)
}

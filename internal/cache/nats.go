// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/metrics"
)

const backendNATS = string(BackendNATS)

// NATSConfig configures the shared JetStream key/value backend.
type NATSConfig struct {
	URL    string
	Bucket string

	// MaxTTL is the bucket-level age limit. Per-entry TTLs are enforced on
	// read; MaxTTL only bounds how long abandoned entries occupy storage.
	MaxTTL time.Duration

	// Embedded starts an in-process server instead of dialing URL.
	Embedded         bool
	EmbeddedStoreDir string

	// OpTimeout bounds every KV round trip.
	OpTimeout time.Duration
}

// envelope is the stored form of an entry. KV keys only admit a restricted
// alphabet, so the original key travels inside the value.
type envelope struct {
	Key       string    `json:"k"`
	Value     []byte    `json:"v"`
	CreatedAt time.Time `json:"c"`
	ExpiresAt time.Time `json:"e,omitempty"`
}

// NATSStore is a Store backed by a JetStream key/value bucket, shared by
// every process connected to the same NATS cluster.
type NATSStore struct {
	nc        *nats.Conn
	kv        jetstream.KeyValue
	embedded  *EmbeddedServer
	logger    zerolog.Logger
	opTimeout time.Duration
	now       func() time.Time
}

// NewNATSStore connects to NATS (starting an embedded server when configured)
// and binds to the bucket, creating it when missing.
func NewNATSStore(ctx context.Context, cfg NATSConfig, logger zerolog.Logger) (*NATSStore, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = "lineup-cache"
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}

	s := &NATSStore{
		logger:    logger.With().Str("component", "cache").Str("backend", backendNATS).Logger(),
		opTimeout: cfg.OpTimeout,
		now:       time.Now,
	}

	url := cfg.URL
	if cfg.Embedded {
		srv, err := StartEmbeddedServer(EmbeddedConfig{Port: -1, StoreDir: cfg.EmbeddedStoreDir})
		if err != nil {
			return nil, err
		}
		s.embedded = srv
		url = srv.ClientURL()
	}
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url,
		nats.Name("lineup-cache"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		s.shutdownEmbedded()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	s.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "Lineup shared cache",
		History:     1,
		TTL:         cfg.MaxTTL,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("bind cache bucket %s: %w", cfg.Bucket, err)
	}
	s.kv = kv

	s.logger.Info().Str("url", url).Str("bucket", cfg.Bucket).Msg("Shared cache connected")
	return s, nil
}

// encodeKey maps an arbitrary key into the KV key alphabet.
func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(encoded string) (string, bool) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *NATSStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Has reports whether key holds an unexpired entry.
func (s *NATSStore) Has(ctx context.Context, key string) bool {
	_, ok := s.lookup(ctx, key)
	return ok
}

// Get returns the value for key, or false when absent, expired or unreadable.
func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, bool) {
	env, ok := s.lookup(ctx, key)
	if !ok {
		metrics.RecordCacheMiss(backendNATS)
		return nil, false
	}
	metrics.RecordCacheHit(backendNATS)
	return env.Value, true
}

func (s *NATSStore) lookup(ctx context.Context, key string) (envelope, bool) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	entry, err := s.kv.Get(opCtx, encodeKey(key))
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) && !errors.Is(err, jetstream.ErrKeyDeleted) {
			s.backendError("get", key, err)
		}
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(entry.Value(), &env); err != nil {
		s.backendError("decode", key, err)
		return envelope{}, false
	}

	if !env.ExpiresAt.IsZero() && s.now().After(env.ExpiresAt) {
		s.deleteEncoded(ctx, encodeKey(key), key)
		metrics.RecordCacheEvictions(backendNATS, 1)
		return envelope{}, false
	}
	return env, true
}

// Set stores value under key until ttl elapses.
func (s *NATSStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	now := s.now()
	env := envelope{Key: key, Value: value, CreatedAt: now}
	if ttl > 0 {
		env.ExpiresAt = now.Add(ttl)
	}

	data, err := json.Marshal(env)
	if err != nil {
		s.backendError("encode", key, err)
		return
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if _, err := s.kv.Put(opCtx, encodeKey(key), data); err != nil {
		s.backendError("set", key, err)
	}
}

// Delete removes key.
func (s *NATSStore) Delete(ctx context.Context, key string) {
	s.deleteEncoded(ctx, encodeKey(key), key)
}

func (s *NATSStore) deleteEncoded(ctx context.Context, encoded, key string) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.kv.Delete(opCtx, encoded); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		s.backendError("delete", key, err)
	}
}

// InvalidatePattern removes every key containing substr. Keys are listed and
// decoded client-side since the bucket only stores encoded names.
func (s *NATSStore) InvalidatePattern(ctx context.Context, substr string) {
	if substr == "" {
		return
	}
	removed := s.removeMatching(ctx, "invalidate", func(key string) bool {
		return strings.Contains(key, substr)
	})
	metrics.RecordCacheEvictions(backendNATS, removed)
}

// Clear removes every entry in the bucket.
func (s *NATSStore) Clear(ctx context.Context) {
	removed := s.removeMatching(ctx, "clear", func(string) bool { return true })
	metrics.RecordCacheEvictions(backendNATS, removed)
}

func (s *NATSStore) removeMatching(ctx context.Context, op string, match func(key string) bool) int {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if !errors.Is(err, jetstream.ErrNoKeysFound) {
			s.backendError(op, "", err)
		}
		return 0
	}
	defer func() { _ = lister.Stop() }()

	var targets []string
	for encoded := range lister.Keys() {
		key, ok := decodeKey(encoded)
		if !ok {
			continue
		}
		if match(key) {
			targets = append(targets, encoded)
		}
	}

	for _, encoded := range targets {
		key, _ := decodeKey(encoded)
		s.deleteEncoded(ctx, encoded, key)
	}
	return len(targets)
}

// Close drains the connection and stops an embedded server.
func (s *NATSStore) Close() error {
	var err error
	if s.nc != nil {
		err = s.nc.Drain()
	}
	s.shutdownEmbedded()
	return err
}

func (s *NATSStore) shutdownEmbedded() {
	if s.embedded == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.embedded.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
	}
}

func (s *NATSStore) backendError(op, key string, err error) {
	metrics.RecordCacheError(backendNATS, op)
	s.logger.Warn().Err(err).Str("operation", op).Str("key", key).Msg("Cache backend error")
}

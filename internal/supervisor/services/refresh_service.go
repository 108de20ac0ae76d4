// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/enrichment"
	"github.com/tomtom215/lineup/internal/models"
)

// ArtistLister lists stored artists.
type ArtistLister interface {
	GetAllArtists(ctx context.Context) ([]models.Artist, error)
}

// Enqueuer accepts enrichment jobs.
type Enqueuer interface {
	Publish(ctx context.Context, jobs ...enrichment.Job) (int, error)
}

// RefreshConfig tunes RefreshService. Zero values take defaults.
type RefreshConfig struct {
	// Interval between sweeps. Default: 6h
	Interval time.Duration

	// MaxAge is how old UpdatedAt may get before an artist is re-enriched.
	// Default: 7 days
	MaxAge time.Duration

	// BatchSize caps jobs queued per sweep, oldest first. Default: 100
	BatchSize int
}

// RefreshService periodically queues enrichment for artists whose catalog
// data has gone stale. Artists without a catalog link are never queued.
type RefreshService struct {
	artists ArtistLister
	queue   Enqueuer
	config  RefreshConfig
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRefreshService creates a RefreshService.
func NewRefreshService(artists ArtistLister, queue Enqueuer, config RefreshConfig, logger zerolog.Logger) *RefreshService {
	if config.Interval <= 0 {
		config.Interval = 6 * time.Hour
	}
	if config.MaxAge <= 0 {
		config.MaxAge = 7 * 24 * time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &RefreshService{
		artists: artists,
		queue:   queue,
		config:  config,
		logger:  logger.With().Str("component", "refresh").Logger(),
		now:     time.Now,
	}
}

// Serve implements suture.Service. It sweeps once at start and then on
// every tick. A failed sweep is logged and retried on the next tick.
func (s *RefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		if n, err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("Refresh sweep failed")
		} else if n > 0 {
			s.logger.Info().Int("queued", n).Msg("Queued stale artists for enrichment")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce queues up to BatchSize stale artists, oldest first, and returns
// how many were accepted by the queue.
func (s *RefreshService) RunOnce(ctx context.Context) (int, error) {
	all, err := s.artists.GetAllArtists(ctx)
	if err != nil {
		return 0, fmt.Errorf("list artists: %w", err)
	}

	cutoff := s.now().Add(-s.config.MaxAge)
	var stale []models.Artist
	for _, a := range all {
		if len(a.CatalogIDs) == 0 || a.UpdatedAt.After(cutoff) {
			continue
		}
		stale = append(stale, a)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	sort.SliceStable(stale, func(i, j int) bool {
		return stale[i].UpdatedAt.Before(stale[j].UpdatedAt)
	})
	if len(stale) > s.config.BatchSize {
		stale = stale[:s.config.BatchSize]
	}

	jobs := make([]enrichment.Job, len(stale))
	for i, a := range stale {
		jobs[i] = enrichment.Job{ArtistID: a.ID}
	}
	return s.queue.Publish(ctx, jobs...)
}

// String implements fmt.Stringer for suture's log messages.
func (s *RefreshService) String() string {
	return "artist-refresh"
}

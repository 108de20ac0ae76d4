// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/validation"
)

// Result limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Service produces cached, postprocessed recommendations for a festival.
type Service struct {
	recommender Recommender
	post        *Postprocessor
	lookup      ArtistLookup
	store       cache.Store
	logger      zerolog.Logger
}

// NewService creates a Service. A nil recommender makes every uncached call
// fail with a Configuration error.
func NewService(recommender Recommender, post *Postprocessor, lookup ArtistLookup, store cache.Store, logger zerolog.Logger) *Service {
	if store == nil {
		store = cache.Noop{}
	}
	return &Service{
		recommender: recommender,
		post:        post,
		lookup:      lookup,
		store:       store,
		logger:      logger.With().Str("component", "recommend").Logger(),
	}
}

// GenerateRecommendations scores the festival lineup against prefs and
// resolves the scores to acts. Results are cached per festival and
// preferences for RecommendationTTL.
func (s *Service) GenerateRecommendations(ctx context.Context, festival *models.Festival, prefs models.Preferences) ([]models.Recommendation, error) {
	start := time.Now()
	if festival == nil || festival.ID == "" {
		return nil, models.NewOpError(models.KindValidation, "recommend", "", errors.New("a saved festival is required"))
	}
	if err := validation.Preferences(&prefs); err != nil {
		return nil, models.NewOpError(models.KindValidation, "recommend", festival.ID, err)
	}

	logger := logging.Annotate(ctx, s.logger).With().Str("festival_id", festival.ID).Logger()
	key := cache.RecommendationKey(festival.ID, cache.GenerateKey("prefs", prefs))

	if cached, ok := cache.GetJSON[[]models.Recommendation](ctx, s.store, key); ok {
		logger.Debug().Int("count", len(cached)).Msg("Recommendations served from cache")
		return cached, nil
	}

	artists := LineupArtists(ctx, festival, s.lookup)
	if len(artists) == 0 {
		logger.Debug().Msg("Festival has no lineup to recommend from")
		return []models.Recommendation{}, nil
	}
	if s.recommender == nil {
		return nil, models.NewOpError(models.KindConfiguration, "recommend", festival.ID, errors.New("no recommender configured"))
	}

	scored, err := s.recommender.GenerateRecommendations(ctx, prefs, artists)
	if err != nil {
		logger.Error().Err(err).Msg("Recommender failed")
		return nil, err
	}

	recs := s.post.Resolve(ctx, scored, festival, prefs)
	if limit := effectiveLimit(prefs.Limit); len(recs) > limit {
		recs = recs[:limit]
	}

	if err := cache.SetJSON(ctx, s.store, key, recs, cache.RecommendationTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache recommendations")
	}

	metrics.RecordRecommendations(len(recs))
	logger.Info().
		Int("artists", len(artists)).
		Int("scored", len(scored)).
		Int("returned", len(recs)).
		Dur("duration", time.Since(start)).
		Msg("Recommendations generated")
	return recs, nil
}

func effectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

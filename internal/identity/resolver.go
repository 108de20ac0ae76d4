// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package identity resolves free-text artist names to stored artists,
// consulting the repository first and the external catalog second.
package identity

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/catalog"
	"github.com/tomtom215/lineup/internal/enrichment"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/matching"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/repository"
)

// Resolution outcomes recorded in metrics.
const (
	OutcomeRepository      = "repository"
	OutcomeCatalogExisting = "catalog_existing"
	OutcomeCreated         = "created"
	OutcomeNotFound        = "not_found"
)

// Resolver implements identity resolution. The catalog may be nil, in
// which case only stored artists resolve.
type Resolver struct {
	catalog catalog.Client
	repo    repository.Repository
	store   cache.Store
	logger  zerolog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cat catalog.Client, repo repository.Repository, store cache.Store, logger zerolog.Logger) *Resolver {
	if store == nil {
		store = cache.Noop{}
	}
	return &Resolver{
		catalog: cat,
		repo:    repo,
		store:   store,
		logger:  logger.With().Str("component", "identity").Logger(),
	}
}

// SearchArtistsByName returns catalog candidates for name scored against
// the normalized query, below-threshold candidates removed, ranked and
// capped at matching.MaxCandidates. Rankings are cached per normalized
// query.
func (r *Resolver) SearchArtistsByName(ctx context.Context, name string) ([]catalog.Candidate, error) {
	if r.catalog == nil {
		return nil, models.NewOpError(models.KindConfiguration, "search_artists", name, errors.New("no artist catalog configured"))
	}
	if matching.Normalize(name) == "" {
		return nil, nil
	}

	key := cache.ArtistSearchKey(name)
	if cached, ok := cache.GetJSON[[]catalog.Candidate](ctx, r.store, key); ok {
		return cached, nil
	}

	logger := logging.Annotate(ctx, r.logger)
	start := time.Now()
	raw, err := r.catalog.SearchArtists(ctx, name)
	if err != nil {
		logger.Error().Err(err).Str("query", name).Msg("Catalog search failed")
		return nil, err
	}

	ranked := Rank(name, raw)
	if err := cache.SetJSON(ctx, r.store, key, ranked, cache.ArtistSearchTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache artist search")
	}
	logger.Debug().
		Str("query", name).
		Int("raw", len(raw)).
		Int("ranked", len(ranked)).
		Dur("duration", time.Since(start)).
		Msg("Artist search completed")
	return ranked, nil
}

// SearchArtistByName returns the best ranked candidate, or nil.
func (r *Resolver) SearchArtistByName(ctx context.Context, name string) (*catalog.Candidate, error) {
	ranked, err := r.SearchArtistsByName(ctx, name)
	if err != nil || len(ranked) == 0 {
		return nil, err
	}
	best := ranked[0]
	return &best, nil
}

// Rank scores candidates against query, drops those below the acceptance
// threshold and orders the rest by score, exact normalized match, followers
// and popularity, all descending. The result holds at most
// matching.MaxCandidates entries and never aliases candidates.
func Rank(query string, candidates []catalog.Candidate) []catalog.Candidate {
	ranked := make([]catalog.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Score = matching.MatchScore(query, c.Name)
		if !matching.Accepted(c.Score) {
			continue
		}
		c.Exact = matching.IsExactMatch(query, c.Name)
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Exact != b.Exact {
			return a.Exact
		}
		if a.Followers != b.Followers {
			return a.Followers > b.Followers
		}
		return a.Popularity > b.Popularity
	})

	if len(ranked) > matching.MaxCandidates {
		ranked = ranked[:matching.MaxCandidates]
	}
	return ranked
}

// ResolveArtistIdentity returns the stored artist for name, creating and
// enriching one from the best catalog candidate when none is stored. hint
// is an optional catalog ID that is trusted over the name search. It
// returns (nil, nil) when neither the repository nor the catalog knows the
// artist.
func (r *Resolver) ResolveArtistIdentity(ctx context.Context, name, hint string) (*models.Artist, error) {
	if strings.TrimSpace(name) == "" && hint == "" {
		return nil, models.NewOpError(models.KindValidation, "resolve_artist", "", errors.New("artist name is required"))
	}
	a, _, err := r.resolve(ctx, name, hint, true)
	return a, err
}

func (r *Resolver) resolve(ctx context.Context, name, hint string, enrich bool) (*models.Artist, string, error) {
	logger := logging.Annotate(ctx, r.logger).With().Str("artist", name).Logger()

	// An exact stored name ends the lookup. A partial one only stands if
	// the catalog has nothing scoring higher.
	var (
		stored      *models.Artist
		storedScore float64
	)
	if name != "" {
		found, score, err := r.repo.SearchArtistByName(ctx, name)
		if err != nil {
			logger.Error().Err(err).Msg("Repository artist search failed")
			return nil, "", err
		}
		if found != nil && matching.Accepted(score) {
			if hint == "" && score >= 1 {
				return r.fromRepository(logger, found, score)
			}
			stored, storedScore = found, score
		}
	}

	if r.catalog == nil {
		if stored != nil {
			return r.fromRepository(logger, stored, storedScore)
		}
		metrics.RecordIdentityResolution(OutcomeNotFound)
		return nil, OutcomeNotFound, nil
	}
	source := r.catalog.Source()

	var (
		cand *catalog.Candidate
		err  error
	)
	if hint != "" {
		if existing, err := r.repo.GetArtistByCatalogID(ctx, source, hint); err != nil || existing != nil {
			if existing != nil {
				metrics.RecordIdentityResolution(OutcomeCatalogExisting)
				return existing, OutcomeCatalogExisting, nil
			}
			return nil, "", err
		}
		if cand, err = r.catalog.GetArtistByID(ctx, hint); err != nil {
			logger.Error().Err(err).Str("catalog_id", hint).Msg("Catalog lookup by hint failed")
			return nil, "", err
		}
	}
	if cand == nil && name != "" {
		if cand, err = r.SearchArtistByName(ctx, name); err != nil {
			return nil, "", err
		}
	}
	if cand == nil {
		if stored != nil {
			return r.fromRepository(logger, stored, storedScore)
		}
		metrics.RecordIdentityResolution(OutcomeNotFound)
		logger.Debug().Msg("No acceptable catalog candidate")
		return nil, OutcomeNotFound, nil
	}
	if stored != nil && hint == "" && storedScore >= cand.Score {
		return r.fromRepository(logger, stored, storedScore)
	}

	existing, err := r.repo.GetArtistByCatalogID(ctx, source, cand.ID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		metrics.RecordIdentityResolution(OutcomeCatalogExisting)
		logger.Debug().Str("artist_id", existing.ID).Msg("Resolved to stored artist by catalog id")
		return existing, OutcomeCatalogExisting, nil
	}

	artist := &models.Artist{
		ID:         models.NewArtistID(),
		Name:       cand.Name,
		CatalogIDs: map[string]string{source: cand.ID},
		UpdatedAt:  time.Now().UTC(),
	}
	if enrich {
		enrichment.Apply(artist, source, cand)
	}
	if err := r.repo.SaveArtist(ctx, artist); err != nil {
		logger.Error().Err(err).Msg("Failed to save new artist")
		return nil, "", err
	}

	metrics.RecordIdentityResolution(OutcomeCreated)
	logger.Info().
		Str("artist_id", artist.ID).
		Str("catalog_id", cand.ID).
		Float64("score", cand.Score).
		Bool("enriched", enrich).
		Msg("Created artist from catalog")
	return artist, OutcomeCreated, nil
}

func (r *Resolver) fromRepository(logger zerolog.Logger, a *models.Artist, score float64) (*models.Artist, string, error) {
	metrics.RecordIdentityResolution(OutcomeRepository)
	logger.Debug().Str("artist_id", a.ID).Float64("score", score).Msg("Resolved from repository")
	return a, OutcomeRepository, nil
}

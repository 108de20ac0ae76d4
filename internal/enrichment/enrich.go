// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/catalog"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/repository"
)

// Enrichment results recorded in metrics.
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Apply merges the catalog record c from source into a. Genres are merged;
// links and popularity for source are overwritten.
func Apply(a *models.Artist, source string, c *catalog.Candidate) {
	if a == nil || c == nil {
		return
	}
	if a.Name == "" {
		a.Name = c.Name
	}
	a.AddGenres(c.Genres...)
	setLink(&a.CatalogIDs, source, c.ID)
	setLink(&a.Images, source, c.ImageURL)
	setLink(&a.Streaming, source, c.URL)
	if a.Popularity == nil {
		a.Popularity = make(map[string]float64, 1)
	}
	a.Popularity[source] = float64(c.Popularity)
	a.UpdatedAt = time.Now().UTC()
}

func setLink(m *map[string]string, source, value string) {
	if value == "" {
		return
	}
	if *m == nil {
		*m = make(map[string]string, 1)
	}
	(*m)[source] = value
}

// Enricher refreshes stored artists from the external catalog.
type Enricher struct {
	catalog catalog.Client
	repo    repository.Repository
	logger  zerolog.Logger
}

// NewEnricher creates an Enricher. cat may be nil, in which case every
// call fails with a Configuration error.
func NewEnricher(cat catalog.Client, repo repository.Repository, logger zerolog.Logger) *Enricher {
	return &Enricher{
		catalog: cat,
		repo:    repo,
		logger:  logger.With().Str("component", "enrichment").Logger(),
	}
}

// Enrich pulls the catalog record linked to a, merges it and saves a.
// Artists with no catalog link are left untouched.
func (e *Enricher) Enrich(ctx context.Context, a *models.Artist) error {
	if e.catalog == nil {
		metrics.RecordEnrichment(ResultFailed)
		return models.NewOpError(models.KindConfiguration, "enrich", "", errors.New("no artist catalog configured"))
	}
	logger := logging.Annotate(ctx, e.logger).With().Str("artist_id", a.ID).Str("artist", a.Name).Logger()

	source := e.catalog.Source()
	catalogID := a.CatalogIDs[source]
	if catalogID == "" {
		logger.Debug().Msg("Artist has no catalog link, skipping enrichment")
		metrics.RecordEnrichment(ResultSkipped)
		return nil
	}

	c, err := e.catalog.GetArtistByID(ctx, catalogID)
	if err != nil {
		metrics.RecordEnrichment(ResultFailed)
		logger.Warn().Err(err).Msg("Catalog lookup failed during enrichment")
		return err
	}
	if c == nil {
		logger.Warn().Str("catalog_id", catalogID).Msg("Catalog no longer knows artist, skipping enrichment")
		metrics.RecordEnrichment(ResultSkipped)
		return nil
	}

	Apply(a, source, c)
	if err := e.repo.SaveArtist(ctx, a); err != nil {
		metrics.RecordEnrichment(ResultFailed)
		logger.Error().Err(err).Msg("Failed to save enriched artist")
		return err
	}

	metrics.RecordEnrichment(ResultSuccess)
	logger.Debug().Int("genres", len(a.Genres)).Msg("Artist enriched")
	return nil
}

// EnrichByID loads the stored artist id and enriches it. A missing artist
// is skipped.
func (e *Enricher) EnrichByID(ctx context.Context, id string) error {
	a, err := e.repo.GetArtistByID(ctx, id)
	if err != nil {
		metrics.RecordEnrichment(ResultFailed)
		return err
	}
	if a == nil {
		e.logger.Warn().Str("artist_id", id).Msg("Artist not found, skipping enrichment")
		metrics.RecordEnrichment(ResultSkipped)
		return nil
	}
	return e.Enrich(ctx, a)
}

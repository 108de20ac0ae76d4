// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package crawl

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/validation"
)

// Crawl paths recorded in metrics.
const (
	PathStructured = "structured"
	PathFallback   = "fallback"
	PathFailed     = "failed"
)

// StructuredParser extracts a festival from a single source.
type StructuredParser interface {
	Parse(ctx context.Context, source string) (*models.Festival, error)
}

// DocumentLoader reduces sources to text documents.
type DocumentLoader interface {
	Load(ctx context.Context, sources []string) ([]Document, error)
}

// FestivalGenerator produces a whole festival record from text documents.
type FestivalGenerator interface {
	GenerateFestival(ctx context.Context, docs []Document) (*models.Festival, error)
}

// Orchestrator runs the structured-parse-then-fallback crawl chain.
type Orchestrator struct {
	parser    StructuredParser
	loader    DocumentLoader
	generator FestivalGenerator
	store     cache.Store
	logger    zerolog.Logger
}

// NewOrchestrator creates an Orchestrator. generator may be nil, in which
// case a failed structured parse is a configuration error.
func NewOrchestrator(parser StructuredParser, loader DocumentLoader, generator FestivalGenerator, store cache.Store, logger zerolog.Logger) *Orchestrator {
	if store == nil {
		store = cache.Noop{}
	}
	return &Orchestrator{
		parser:    parser,
		loader:    loader,
		generator: generator,
		store:     store,
		logger:    logger.With().Str("component", "crawl").Logger(),
	}
}

// CrawlFestival crawls sources into a festival held for review.
func (o *Orchestrator) CrawlFestival(ctx context.Context, sources []string) (*models.Festival, error) {
	start := time.Now()
	sources = cleanSources(sources)
	if len(sources) == 0 {
		return nil, models.NewOpError(models.KindValidation, "crawl", "", errors.New("at least one source is required"))
	}
	logger := logging.Annotate(ctx, o.logger).With().Strs("sources", sources).Logger()

	path := PathStructured
	f, err := o.parser.Parse(ctx, sources[0])
	if err != nil {
		logger.Warn().Err(err).Str("kind", string(models.KindOf(err))).Msg("Structured parse failed, falling back to whole-document generation")
		path = PathFallback
		f, err = o.fallback(ctx, sources)
		if err != nil {
			metrics.RecordCrawl(PathFailed, time.Since(start))
			logger.Error().Err(err).Msg("Crawl failed")
			return nil, err
		}
	}

	models.AssignIDs(f)
	if err := cache.SetJSON(ctx, o.store, cache.CrawlKey(sources), f, cache.CrawlReviewTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache crawl result for review")
	}

	metrics.RecordCrawl(path, time.Since(start))
	logger.Info().
		Str("path", path).
		Str("festival_id", f.ID).
		Int("acts", len(f.Lineup)).
		Dur("duration", time.Since(start)).
		Msg("Crawl completed")
	return f, nil
}

func (o *Orchestrator) fallback(ctx context.Context, sources []string) (*models.Festival, error) {
	if o.generator == nil || o.loader == nil {
		return nil, models.NewOpError(models.KindConfiguration, "crawl", sources[0],
			errors.New("structured parse failed and no festival generator is configured"))
	}

	docs, err := o.loader.Load(ctx, sources)
	if err != nil {
		return nil, err
	}

	f, err := o.generator.GenerateFestival(ctx, docs)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, models.NewOpError(models.KindExtraction, "generate", sources[0], errors.New("generator returned no festival"))
	}
	if err := validation.Festival(f); err != nil {
		return nil, models.NewOpError(models.KindValidation, "generate", sources[0], err)
	}
	return f, nil
}

// Review returns the crawled festival held for sources, if any.
func (o *Orchestrator) Review(ctx context.Context, sources []string) (*models.Festival, bool) {
	f, ok := cache.GetJSON[models.Festival](ctx, o.store, cache.CrawlKey(cleanSources(sources)))
	if !ok {
		return nil, false
	}
	return &f, true
}

// Forget drops every cached crawl and parse result for sources so the next
// crawl starts from the documents.
func (o *Orchestrator) Forget(ctx context.Context, sources []string) {
	sources = cleanSources(sources)
	if len(sources) == 0 {
		return
	}
	o.store.Delete(ctx, cache.CrawlKey(sources))
	for _, s := range sources {
		o.store.Delete(ctx, cache.ParseKey(s))
	}
	o.logger.Debug().Strs("sources", sources).Msg("Dropped cached crawl results")
}

func cleanSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}


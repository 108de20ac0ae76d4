// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package festival

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/enrichment"
	"github.com/tomtom215/lineup/internal/identity"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/matching"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/repository"
	"github.com/tomtom215/lineup/internal/validation"
)

// invalidateTimeout bounds one background cache invalidation.
const invalidateTimeout = 30 * time.Second

// Crawler produces festivals from source documents.
type Crawler interface {
	CrawlFestival(ctx context.Context, sources []string) (*models.Festival, error)
	Review(ctx context.Context, sources []string) (*models.Festival, bool)
	Forget(ctx context.Context, sources []string)
}

// Linker links lineup acts to artists.
type Linker interface {
	ResolveArtistIdentity(ctx context.Context, name, hint string) (*models.Artist, error)
	LinkLineup(ctx context.Context, f *models.Festival, opts ...identity.LinkOption) (identity.LinkResult, error)
}

// Recommender produces recommendations for a stored festival.
type Recommender interface {
	GenerateRecommendations(ctx context.Context, f *models.Festival, prefs models.Preferences) ([]models.Recommendation, error)
}

// Enqueuer accepts asynchronous enrichment jobs.
type Enqueuer interface {
	Publish(ctx context.Context, jobs ...enrichment.Job) (int, error)
}

// Service exposes the core operations. The linker, recommender and queue
// are optional; the operations that need them fail with a Configuration
// error when they are missing.
type Service struct {
	crawler     Crawler
	repo        repository.Repository
	linker      Linker
	recommender Recommender
	queue       Enqueuer
	store       cache.Store
	logger      zerolog.Logger

	background sync.WaitGroup
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Crawler     Crawler
	Repository  repository.Repository
	Linker      Linker
	Recommender Recommender
	Queue       Enqueuer
	Store       cache.Store
}

// NewService creates a Service.
func NewService(deps Deps, logger zerolog.Logger) *Service {
	store := deps.Store
	if store == nil {
		store = cache.Noop{}
	}
	return &Service{
		crawler:     deps.Crawler,
		repo:        deps.Repository,
		linker:      deps.Linker,
		recommender: deps.Recommender,
		queue:       deps.Queue,
		store:       store,
		logger:      logger.With().Str("component", "festival").Logger(),
	}
}

// CrawlFestival crawls sources into a festival held for review. Nothing is
// persisted.
func (s *Service) CrawlFestival(ctx context.Context, sources []string) (*models.Festival, error) {
	ctx = logging.ContextWithOperation(logging.EnsureCorrelationID(ctx), "crawl_festival")
	if s.crawler == nil {
		return nil, models.NewOpError(models.KindConfiguration, "crawl", "", errors.New("no crawler configured"))
	}
	return s.crawler.CrawlFestival(ctx, sources)
}

// SaveCrawled saves the festival held for review under sources. It fails
// with a Validation error when nothing is held.
func (s *Service) SaveCrawled(ctx context.Context, sources []string) (*models.Festival, error) {
	if s.crawler == nil {
		return nil, models.NewOpError(models.KindConfiguration, "save", "", errors.New("no crawler configured"))
	}
	f, ok := s.crawler.Review(ctx, sources)
	if !ok {
		return nil, models.NewOpError(models.KindValidation, "save", "", errors.New("no crawled festival held for these sources"))
	}
	return s.SaveFestival(ctx, f)
}

// SaveFestival validates f, assigns IDs, links its lineup with synchronous
// enrichment, persists it and invalidates its cached keys in the
// background.
func (s *Service) SaveFestival(ctx context.Context, f *models.Festival) (*models.Festival, error) {
	ctx = logging.ContextWithOperation(logging.EnsureCorrelationID(ctx), "save_festival")
	if err := validation.Festival(f); err != nil {
		logger := logging.Annotate(ctx, s.logger)
		logger.Warn().Err(err).Msg("Rejected invalid festival")
		return nil, models.NewOpError(models.KindValidation, "save", f.Name, err)
	}
	if _, err := s.persist(ctx, f, false); err != nil {
		return nil, err
	}
	return f, nil
}

// persist assigns IDs, links, saves and schedules invalidation. It returns
// the IDs of artists created while linking.
func (s *Service) persist(ctx context.Context, f *models.Festival, deferEnrichment bool) ([]string, error) {
	logger := logging.Annotate(ctx, s.logger)
	models.AssignIDs(f)

	var created []string
	if s.linker != nil {
		var opts []identity.LinkOption
		if deferEnrichment {
			opts = append(opts, identity.DeferEnrichment())
		}
		res, err := s.linker.LinkLineup(ctx, f, opts...)
		if err != nil {
			logger.Error().Err(err).Str("festival_id", f.ID).Msg("Linking aborted")
			return nil, err
		}
		created = res.Created
	}

	if err := s.repo.SaveFestival(ctx, f); err != nil {
		logger.Error().Err(err).Str("festival_id", f.ID).Msg("Failed to save festival")
		return nil, err
	}
	logger.Info().Str("festival_id", f.ID).Str("festival", f.Name).Int("acts", len(f.Lineup)).Msg("Festival saved")

	s.invalidate(ctx, f.ID)
	return created, nil
}

// invalidate drops every cached key of the festival without blocking the
// caller.
func (s *Service) invalidate(ctx context.Context, festivalID string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
		defer cancel()
		s.store.InvalidatePattern(ctx, cache.FestivalKeyFragment(festivalID))
	}()
}

// Wait blocks until background invalidations have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// GetFestival returns a stored festival, read through the cache, or nil.
func (s *Service) GetFestival(ctx context.Context, id string) (*models.Festival, error) {
	key := cache.FestivalKey(id)
	if f, ok := cache.GetJSON[models.Festival](ctx, s.store, key); ok {
		return &f, nil
	}
	f, err := s.repo.GetFestivalByID(ctx, id)
	if err != nil || f == nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.store, key, f, cache.FestivalTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to cache festival")
	}
	return f, nil
}

// ResolveArtistIdentity resolves one artist name. See identity.Resolver.
func (s *Service) ResolveArtistIdentity(ctx context.Context, name, hint string) (*models.Artist, error) {
	ctx = logging.ContextWithOperation(logging.EnsureCorrelationID(ctx), "resolve_artist")
	if s.linker == nil {
		return nil, models.NewOpError(models.KindConfiguration, "resolve_artist", name, errors.New("no identity resolver configured"))
	}
	return s.linker.ResolveArtistIdentity(ctx, name, hint)
}

// GenerateRecommendations recommends acts of a stored festival. An unknown
// festival yields nil.
func (s *Service) GenerateRecommendations(ctx context.Context, festivalID string, prefs models.Preferences) ([]models.Recommendation, error) {
	ctx = logging.ContextWithOperation(logging.EnsureCorrelationID(ctx), "recommend")
	if s.recommender == nil {
		return nil, models.NewOpError(models.KindConfiguration, "recommend", festivalID, errors.New("no recommender configured"))
	}
	f, err := s.GetFestival(ctx, festivalID)
	if err != nil || f == nil {
		return nil, err
	}
	return s.recommender.GenerateRecommendations(ctx, f, prefs)
}

// RecrawlFestival crawls sources again for the stored festival id and saves
// the result under the same ID, keeping act IDs and artist links that still
// match. force drops cached parse and crawl results first; a forced
// re-crawl of an existing record enriches new artists through the queue
// instead of inline. Without a stored record it behaves like crawl then
// save.
func (s *Service) RecrawlFestival(ctx context.Context, id string, sources []string, force bool) (*models.Festival, error) {
	ctx = logging.ContextWithOperation(logging.EnsureCorrelationID(ctx), "recrawl_festival")
	logger := logging.Annotate(ctx, s.logger).With().Str("festival_id", id).Bool("force", force).Logger()
	if s.crawler == nil {
		return nil, models.NewOpError(models.KindConfiguration, "recrawl", id, errors.New("no crawler configured"))
	}

	existing, err := s.repo.GetFestivalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if force {
		s.crawler.Forget(ctx, sources)
	}

	f, err := s.crawler.CrawlFestival(ctx, sources)
	if err != nil {
		logger.Error().Err(err).Msg("Re-crawl failed")
		return nil, err
	}
	if existing != nil {
		f.ID = existing.ID
		carryOver(existing, f)
	}
	if err := validation.Festival(f); err != nil {
		return nil, models.NewOpError(models.KindValidation, "recrawl", id, err)
	}

	deferred := force && existing != nil && s.queue != nil
	created, err := s.persist(ctx, f, deferred)
	if err != nil {
		return nil, err
	}

	if deferred && len(created) > 0 {
		jobs := make([]enrichment.Job, 0, len(created))
		for _, artistID := range created {
			jobs = append(jobs, enrichment.Job{ArtistID: artistID, FestivalID: f.ID})
		}
		n, err := s.queue.Publish(ctx, jobs...)
		if err != nil {
			// The festival is saved; artists keep their catalog link and
			// can be enriched later.
			logger.Warn().Err(err).Int("queued", n).Msg("Failed to queue enrichment")
		} else {
			logger.Info().Int("queued", n).Msg("Queued enrichment for new artists")
		}
	}
	return f, nil
}

// carryOver copies act IDs and artist links from prev onto acts of next
// with the same normalized artist name and date.
func carryOver(prev, next *models.Festival) {
	byKey := make(map[string]models.Act, len(prev.Lineup))
	for _, act := range prev.Lineup {
		byKey[actKey(act)] = act
	}
	for i := range next.Lineup {
		act := &next.Lineup[i]
		old, ok := byKey[actKey(*act)]
		if !ok {
			continue
		}
		delete(byKey, actKey(*act))
		act.ID = old.ID
		if act.ArtistID == "" {
			act.ArtistID = old.ArtistID
		}
	}
}

func actKey(a models.Act) string {
	return matching.Normalize(a.ArtistName) + "|" + a.Date
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/ai"
	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/catalog"
	"github.com/tomtom215/lineup/internal/config"
	"github.com/tomtom215/lineup/internal/crawl"
	"github.com/tomtom215/lineup/internal/enrichment"
	"github.com/tomtom215/lineup/internal/extract"
	"github.com/tomtom215/lineup/internal/festival"
	"github.com/tomtom215/lineup/internal/identity"
	"github.com/tomtom215/lineup/internal/recommend"
	"github.com/tomtom215/lineup/internal/repository"
)

// app holds every wired component for one process.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    cache.Store
	repo     *repository.Badger
	enricher *enrichment.Enricher
	queue    *enrichment.Queue
	service  *festival.Service
}

// newApp opens storage and the cache and wires the core service. The queue
// is created but not started; withQueue starts it.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := cache.Open(ctx, cacheConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	repo, err := repository.Open(repository.Config{Path: cfg.Storage.Path, InMemory: cfg.Storage.InMemory}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store, repo: repo}
	if err := a.wire(logger); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// wire builds the optional AI and catalog clients and everything that
// depends on them. Interfaces stay untyped nil when a client is disabled.
func (a *app) wire(logger zerolog.Logger) error {
	cfg := a.cfg

	var (
		planner     extract.Planner
		generator   crawl.FestivalGenerator
		recommender festival.Recommender
		cat         catalog.Client
	)

	if cfg.AI.Enabled {
		client, err := ai.NewClient(aiConfig(cfg), nil, logger)
		if err != nil {
			return err
		}
		planner, generator = client, client
		post := recommend.NewPostprocessor(a.repo.GetArtistByID, logger)
		recommender = recommend.NewService(client, post, a.repo.GetArtistByID, a.store, logger)
	} else {
		logger.Info().Msg("AI disabled: crawl and recommend are unavailable")
	}

	if cfg.Catalog.Enabled {
		spotify, err := catalog.NewSpotify(spotifyConfig(cfg), nil, logger)
		if err != nil {
			return err
		}
		cat = spotify
	} else {
		logger.Info().Msg("Catalog disabled: artists resolve from the repository only")
	}

	fetcher := extract.NewFetcher(fetchConfig(cfg), nil, logger)
	parser := extract.NewParser(extract.NewHTTPRenderer(fetcher), planner, a.store, logger)
	loader := crawl.NewLoader(fetcher, logger, cfg.Fetch.MaxConcurrent, cfg.Fetch.MaxDocChars)
	orchestrator := crawl.NewOrchestrator(parser, loader, generator, a.store, logger)
	resolver := identity.NewResolver(cat, a.repo, a.store, logger)

	a.enricher = enrichment.NewEnricher(cat, a.repo, logger)
	queue, err := enrichment.NewQueue(queueConfig(cfg), a.enricher, logger)
	if err != nil {
		return err
	}
	a.queue = queue

	a.service = festival.NewService(festival.Deps{
		Crawler:     orchestrator,
		Repository:  a.repo,
		Linker:      resolver,
		Recommender: recommender,
		Queue:       queue,
		Store:       a.store,
	}, logger)
	return nil
}

// withQueue runs fn while the enrichment queue is served in the background,
// then waits for queued jobs to drain before stopping it.
func (a *app) withQueue(ctx context.Context, fn func(ctx context.Context) error) error {
	qctx, cancel := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- a.queue.Serve(qctx) }()

	runErr := fn(ctx)
	if runErr == nil {
		if err := a.queue.Wait(ctx); err != nil {
			runErr = fmt.Errorf("wait for enrichment: %w", err)
		}
	}
	cancel()
	if err := <-served; err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn().Err(err).Msg("Enrichment queue stopped with error")
	}
	return runErr
}

// Close drains background work and releases storage.
func (a *app) Close() {
	if a.service != nil {
		a.service.Wait()
	}
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing enrichment queue")
		}
	}
	if err := a.repo.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Error closing repository")
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Error closing cache")
	}
}

func cacheConfig(cfg *config.Config) cache.Config {
	n := cfg.Cache.NATS
	return cache.Config{
		Backend:       cache.Backend(cfg.Cache.Backend),
		SweepInterval: cfg.Cache.SweepInterval,
		NATS: cache.NATSConfig{
			URL:              n.URL,
			Bucket:           n.Bucket,
			MaxTTL:           n.MaxTTL,
			Embedded:         n.Embedded,
			EmbeddedStoreDir: n.StoreDir,
			OpTimeout:        n.OpTimeout,
		},
	}
}

func aiConfig(cfg *config.Config) ai.Config {
	return ai.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		APIVersion: cfg.AI.APIVersion,
		Model:      cfg.AI.Model,
		MaxTokens:  cfg.AI.MaxTokens,
		Timeout:    cfg.AI.Timeout,
	}
}

func spotifyConfig(cfg *config.Config) catalog.SpotifyConfig {
	c := cfg.Catalog
	return catalog.SpotifyConfig{
		ClientID:          c.ClientID,
		ClientSecret:      c.ClientSecret,
		AccountsURL:       c.AccountsURL,
		APIURL:            c.APIURL,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		SearchLimit:       c.SearchLimit,
		MaxRetries:        c.MaxRetries,
		Timeout:           c.Timeout,
	}
}

func fetchConfig(cfg *config.Config) extract.FetchConfig {
	return extract.FetchConfig{
		Timeout:       cfg.Fetch.Timeout,
		RetryAttempts: cfg.Fetch.RetryAttempts,
		RetryDelay:    cfg.Fetch.RetryDelay,
		UserAgent:     cfg.Fetch.UserAgent,
		MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
	}
}

func queueConfig(cfg *config.Config) enrichment.QueueConfig {
	e := cfg.Enrichment
	return enrichment.QueueConfig{
		Buffer:               e.Buffer,
		RetryMaxRetries:      e.RetryMaxRetries,
		RetryInitialInterval: e.RetryInitialInterval,
		DedupTTL:             e.DedupTTL,
		CloseTimeout:         e.CloseTimeout,
	}
}

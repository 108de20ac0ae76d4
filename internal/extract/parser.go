// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/validation"
)

// DefaultMaxPlanInput caps the stripped HTML sent to the planner.
const DefaultMaxPlanInput = 120_000

// Planner produces an extraction plan for a stripped document.
type Planner interface {
	GenerateExtractionPlan(ctx context.Context, strippedHTML, sourceID string) (*Plan, error)
}

// Parser turns one source document into a validated Festival using a
// renderer and an AI-generated extraction plan. Successful parses are cached
// per source.
type Parser struct {
	renderer     Renderer
	planner      Planner
	store        cache.Store
	logger       zerolog.Logger
	maxPlanInput int
}

// ParserOption customizes a Parser.
type ParserOption func(*Parser)

// WithMaxPlanInput overrides DefaultMaxPlanInput.
func WithMaxPlanInput(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxPlanInput = n
		}
	}
}

// NewParser creates a Parser. A nil store disables caching; a nil planner
// makes every uncached parse fail with a Configuration error.
func NewParser(renderer Renderer, planner Planner, store cache.Store, logger zerolog.Logger, opts ...ParserOption) *Parser {
	if store == nil {
		store = cache.Noop{}
	}
	p := &Parser{
		renderer:     renderer,
		planner:      planner,
		store:        store,
		logger:       logger.With().Str("component", "parser").Logger(),
		maxPlanInput: DefaultMaxPlanInput,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs the structured extraction for source:
//
//	cache lookup -> render -> strip noise -> request plan -> execute plan -> validate -> cache
//
// Every failure is returned as a *models.OpError. The rendered page is
// released on every path. Nothing is retried here apart from the fetch
// retries inside the renderer.
func (p *Parser) Parse(ctx context.Context, source string) (*models.Festival, error) {
	start := time.Now()
	logger := logging.Annotate(ctx, p.logger).With().Str("source", source).Logger()
	key := cache.ParseKey(source)

	if cached, ok := cache.GetJSON[models.Festival](ctx, p.store, key); ok {
		metrics.RecordParse("cached", time.Since(start))
		logger.Debug().Msg("Structured parse served from cache")
		return &cached, nil
	}

	f, err := p.parse(ctx, source, &logger)
	if err != nil {
		metrics.RecordParse(string(models.KindOf(err)), time.Since(start))
		logger.Warn().Err(err).Str("kind", string(models.KindOf(err))).Msg("Structured parse failed")
		return nil, err
	}

	if err := cache.SetJSON(ctx, p.store, key, f, cache.ParseTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache parse result")
	}
	metrics.RecordParse("ok", time.Since(start))
	logger.Info().Str("festival", f.Name).Int("acts", len(f.Lineup)).Dur("duration", time.Since(start)).Msg("Structured parse succeeded")
	return f, nil
}

func (p *Parser) parse(ctx context.Context, source string, logger *zerolog.Logger) (*models.Festival, error) {
	if p.planner == nil {
		return nil, models.NewOpError(models.KindConfiguration, "parse", source, errors.New("no extraction planner configured"))
	}

	page, err := p.renderer.Render(ctx, source)
	if err != nil {
		return nil, asOpError(models.KindExtraction, "render", source, err)
	}
	defer func() { _ = page.Close() }()

	stripped, err := StripNoise(page.Raw)
	if err != nil {
		return nil, models.NewOpError(models.KindExtraction, "strip", source, err)
	}
	if len(stripped) > p.maxPlanInput {
		logger.Debug().Int("bytes", len(stripped)).Int("limit", p.maxPlanInput).Msg("Truncating stripped document for planner")
		n := p.maxPlanInput
		for n > 0 && !utf8.RuneStart(stripped[n]) {
			n--
		}
		stripped = stripped[:n]
	}

	plan, err := p.planner.GenerateExtractionPlan(ctx, stripped, source)
	if err != nil {
		return nil, asOpError(models.KindExtraction, "plan", source, err)
	}

	f, err := Interpret(plan, page)
	if err != nil {
		return nil, models.NewOpError(models.KindExtraction, "execute", source, err)
	}

	if err := validation.Festival(f); err != nil {
		return nil, models.NewOpError(models.KindValidation, "validate", source, err)
	}
	return f, nil
}

// asOpError keeps an existing OpError classification and wraps anything else
// with kind.
func asOpError(kind models.ErrorKind, op, source string, err error) error {
	var opErr *models.OpError
	if errors.As(err, &opErr) {
		return err
	}
	return models.NewOpError(kind, op, source, err)
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
)

// Drop reasons recorded in metrics.
const (
	DropNoActs = "no_acts"
	DropDate   = "date"
	DropDay    = "day"
	DropSlot   = "slot"
)

// Postprocessor resolves scored artists to concrete acts.
type Postprocessor struct {
	lookup ArtistLookup
	now    func() time.Time
	logger zerolog.Logger
}

// PostprocessorOption customizes a Postprocessor.
type PostprocessorOption func(*Postprocessor)

// WithClock replaces time.Now for "today" comparisons.
func WithClock(now func() time.Time) PostprocessorOption {
	return func(p *Postprocessor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPostprocessor creates a Postprocessor. lookup may be nil, in which case
// every recommendation carries a name-only artist.
func NewPostprocessor(lookup ArtistLookup, logger zerolog.Logger, opts ...PostprocessorOption) *Postprocessor {
	p := &Postprocessor{
		lookup: lookup,
		now:    time.Now,
		logger: logger.With().Str("component", "recommend_postprocess").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve maps scored artists onto acts of festival, honoring prefs. The
// result keeps the input order; tuples without a matching act are dropped.
func (p *Postprocessor) Resolve(ctx context.Context, scored []ScoredArtist, festival *models.Festival, prefs models.Preferences) []models.Recommendation {
	if festival == nil || len(scored) == 0 {
		return nil
	}

	today := p.today()
	out := make([]models.Recommendation, 0, len(scored))

	for _, s := range scored {
		artist := p.resolveArtist(ctx, s, festival)
		candidates := candidateActs(festival, &artist, s.ArtistName)
		if len(candidates) == 0 {
			p.drop(s, DropNoActs)
			continue
		}

		var act *models.Act
		if prefs.Date != "" {
			act = firstOnDate(candidates, prefs.Date)
			if act == nil {
				p.drop(s, DropDate)
				continue
			}
		} else {
			act = earliestUpcoming(candidates, today)
			if act == nil {
				act = candidates[0]
			}
		}

		if reason, ok := allowedByTime(act, prefs.TimePreferences); !ok {
			p.drop(s, reason)
			continue
		}

		out = append(out, models.Recommendation{
			Artist:     artist,
			Act:        *act,
			Score:      s.Score,
			Reasons:    append([]string(nil), s.Reasons...),
			AIEnhanced: true,
		})
	}
	return out
}

func (p *Postprocessor) drop(s ScoredArtist, reason string) {
	metrics.RecordRecommendationDrop(reason)
	p.logger.Debug().Str("artist", s.ArtistName).Str("reason", reason).Msg("Dropped scored artist")
}

func (p *Postprocessor) today() string {
	return p.now().Format(models.DateLayout)
}

// resolveArtist loads the stored artist behind the tuple. The tuple's own ID
// wins; otherwise the first linked act with the same name supplies one.
func (p *Postprocessor) resolveArtist(ctx context.Context, s ScoredArtist, f *models.Festival) models.Artist {
	stub := models.Artist{Name: s.ArtistName}
	if p.lookup == nil {
		return stub
	}

	id := s.ArtistID
	if id == "" {
		for i := range f.Lineup {
			if f.Lineup[i].Linked() && sameName(f.Lineup[i].ArtistName, s.ArtistName) {
				id = f.Lineup[i].ArtistID
				break
			}
		}
	}
	if id == "" {
		return stub
	}

	a, err := p.lookup(ctx, id)
	if err != nil {
		p.logger.Warn().Err(err).Str("artist_id", id).Msg("Artist lookup failed, using name-only artist")
		return stub
	}
	if a == nil {
		return stub
	}
	return *a
}

// candidateActs returns the acts of artist: by ID when it is resolved,
// otherwise by case-insensitive name.
func candidateActs(f *models.Festival, artist *models.Artist, name string) []*models.Act {
	var out []*models.Act
	for i := range f.Lineup {
		act := &f.Lineup[i]
		if artist.ID != "" {
			if act.ArtistID == artist.ID {
				out = append(out, act)
			}
			continue
		}
		if sameName(act.ArtistName, name) {
			out = append(out, act)
		}
	}
	return out
}

func firstOnDate(acts []*models.Act, date string) *models.Act {
	for _, a := range acts {
		if a.Date == date {
			return a
		}
	}
	return nil
}

// earliestUpcoming returns the earliest act dated today or later. Ties keep
// lineup order.
func earliestUpcoming(acts []*models.Act, today string) *models.Act {
	var best *models.Act
	for _, a := range acts {
		if _, ok := a.ParsedDate(); !ok || a.Date < today {
			continue
		}
		if best == nil || a.Date < best.Date {
			best = a
		}
	}
	return best
}

// allowedByTime applies weekday and slot preferences to act. Acts without a
// date or time cannot satisfy a filter on it.
func allowedByTime(act *models.Act, tp *models.TimePreferences) (string, bool) {
	if tp == nil {
		return "", true
	}

	if len(tp.Days) > 0 {
		day := act.Day()
		ok := false
		for _, d := range tp.Days {
			if day != "" && strings.EqualFold(strings.TrimSpace(d), day) {
				ok = true
				break
			}
		}
		if !ok {
			return DropDay, false
		}
	}

	if len(tp.Slots) > 0 {
		hour, known := act.StartHour()
		if !known {
			return DropSlot, false
		}
		slot := models.SlotForHour(hour)
		ok := false
		for _, s := range tp.Slots {
			if s == slot {
				ok = true
				break
			}
		}
		if !ok {
			return DropSlot, false
		}
	}
	return "", true
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

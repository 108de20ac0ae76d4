// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package recommend

import (
	"context"
	"strings"

	"github.com/tomtom215/lineup/internal/models"
)

// ScoredArtist is one artist scored by the recommender.
type ScoredArtist struct {
	// ArtistName as it appears in the lineup.
	ArtistName string `json:"artist_name"`

	// ArtistID is the stored artist ID when the lineup act was linked.
	ArtistID string `json:"artist_id,omitempty"`

	// Score in [0,1]; higher is a stronger recommendation.
	Score float64 `json:"score"`

	// Reasons explain the score, most important first.
	Reasons []string `json:"reasons,omitempty"`
}

// LineupArtist is what the recommender is told about one artist on the bill.
type LineupArtist struct {
	Name     string   `json:"name"`
	ArtistID string   `json:"artist_id,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Days     []string `json:"days,omitempty"`
	Stages   []string `json:"stages,omitempty"`
}

// Recommender scores lineup artists against attendee preferences.
type Recommender interface {
	GenerateRecommendations(ctx context.Context, prefs models.Preferences, artists []LineupArtist) ([]ScoredArtist, error)
}

// ArtistLookup loads a stored artist by ID. A missing artist is (nil, nil).
type ArtistLookup func(ctx context.Context, id string) (*models.Artist, error)

// LineupArtists lists the distinct artists of a festival in lineup order,
// with the days and stages they play. Genres come from lookup when an act is
// linked; lookup may be nil.
func LineupArtists(ctx context.Context, f *models.Festival, lookup ArtistLookup) []LineupArtist {
	index := make(map[string]int)
	var out []LineupArtist

	for i := range f.Lineup {
		act := &f.Lineup[i]
		name := strings.TrimSpace(act.ArtistName)
		if name == "" {
			continue
		}
		key := act.ArtistID
		if key == "" {
			key = "name:" + strings.ToLower(name)
		}

		pos, ok := index[key]
		if !ok {
			la := LineupArtist{Name: name, ArtistID: act.ArtistID}
			if act.ArtistID != "" && lookup != nil {
				if a, err := lookup(ctx, act.ArtistID); err == nil && a != nil {
					la.Genres = append([]string(nil), a.Genres...)
				}
			}
			out = append(out, la)
			pos = len(out) - 1
			index[key] = pos
		}

		la := &out[pos]
		la.Days = appendUnique(la.Days, act.Day())
		la.Stages = appendUnique(la.Stages, act.Stage)
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if strings.EqualFold(have, v) {
			return list
		}
	}
	return append(list, v)
}

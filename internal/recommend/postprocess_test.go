// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/models"
)

// 2025-06-05 is a Thursday.
func testFestival() *models.Festival {
	return &models.Festival{
		ID:        "primavera-sound-abc123",
		Name:      "Primavera Sound",
		Location:  "Barcelona",
		StartDate: "2025-06-05",
		EndDate:   "2025-06-07",
		Lineup: []models.Act{
			{ID: "a1", ArtistName: "IDLES", ArtistID: "art-idles", Date: "2025-06-05", Time: "21:00", Stage: "Amazon"},
			{ID: "a2", ArtistName: "Idles", ArtistID: "art-idles", Date: "2025-06-07", Time: "14:00", Stage: "Cupra"},
			{ID: "a3", ArtistName: "Jai Paul", Date: "2025-06-06", Time: "23:30", Stage: "Amazon"},
			{ID: "a4", ArtistName: "Mystery Guest"},
		},
	}
}

func testLookup(artists ...models.Artist) ArtistLookup {
	byID := make(map[string]models.Artist, len(artists))
	for _, a := range artists {
		byID[a.ID] = a
	}
	return func(_ context.Context, id string) (*models.Artist, error) {
		a, ok := byID[id]
		if !ok {
			return nil, nil
		}
		return &a, nil
	}
}

var idles = models.Artist{ID: "art-idles", Name: "IDLES", Genres: []string{"post-punk"}}

func fixedClock(date string) PostprocessorOption {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return WithClock(func() time.Time { return t.Add(10 * time.Hour) })
}

func actIDs(recs []models.Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Act.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		today   string
		scored  []ScoredArtist
		prefs   models.Preferences
		wantIDs []string
	}{
		{
			name:  "input order kept and unknown artists dropped",
			today: "2025-06-01",
			scored: []ScoredArtist{
				{ArtistName: "Jai Paul", Score: 0.9},
				{ArtistName: "IDLES", ArtistID: "art-idles", Score: 0.8},
				{ArtistName: "Not On The Bill", Score: 0.7},
			},
			wantIDs: []string{"a3", "a1"},
		},
		{
			name:    "earliest upcoming act",
			today:   "2025-06-06",
			scored:  []ScoredArtist{{ArtistName: "IDLES", ArtistID: "art-idles"}},
			wantIDs: []string{"a2"},
		},
		{
			name:    "today counts as upcoming",
			today:   "2025-06-07",
			scored:  []ScoredArtist{{ArtistName: "IDLES", ArtistID: "art-idles"}},
			wantIDs: []string{"a2"},
		},
		{
			name:    "festival over falls back to first act",
			today:   "2025-07-01",
			scored:  []ScoredArtist{{ArtistName: "IDLES", ArtistID: "art-idles"}},
			wantIDs: []string{"a1"},
		},
		{
			name:    "undated act is its own fallback",
			today:   "2025-06-01",
			scored:  []ScoredArtist{{ArtistName: "mystery guest"}},
			wantIDs: []string{"a4"},
		},
		{
			name:  "preferred date picks that day",
			today: "2025-06-01",
			scored: []ScoredArtist{
				{ArtistName: "IDLES", ArtistID: "art-idles"},
				{ArtistName: "Jai Paul"},
			},
			prefs:   models.Preferences{Date: "2025-06-07"},
			wantIDs: []string{"a2"},
		},
		{
			name:    "preferred date with no act drops the artist",
			today:   "2025-06-01",
			scored:  []ScoredArtist{{ArtistName: "Jai Paul"}},
			prefs:   models.Preferences{Date: "2025-06-05"},
			wantIDs: []string{},
		},
		{
			name:  "weekday filter applies to the chosen act",
			today: "2025-06-06",
			scored: []ScoredArtist{
				{ArtistName: "IDLES", ArtistID: "art-idles"},
				{ArtistName: "Jai Paul"},
				{ArtistName: "Mystery Guest"},
			},
			prefs:   models.Preferences{TimePreferences: &models.TimePreferences{Days: []string{"Saturday"}}},
			wantIDs: []string{"a2"},
		},
		{
			name:  "slot filter",
			today: "2025-06-01",
			scored: []ScoredArtist{
				{ArtistName: "IDLES", ArtistID: "art-idles"},
				{ArtistName: "Jai Paul"},
				{ArtistName: "Mystery Guest"},
			},
			prefs:   models.Preferences{TimePreferences: &models.TimePreferences{Slots: []models.Slot{models.SlotNight}}},
			wantIDs: []string{"a3"},
		},
		{
			name:    "name-only tuple resolves through a linked act",
			today:   "2025-06-01",
			scored:  []ScoredArtist{{ArtistName: "idles"}},
			wantIDs: []string{"a1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewPostprocessor(testLookup(idles), zerolog.Nop(), fixedClock(tt.today))
			recs := p.Resolve(context.Background(), tt.scored, testFestival(), tt.prefs)

			if got := actIDs(recs); !equalStrings(got, tt.wantIDs) {
				t.Errorf("acts = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestResolve_ArtistResolution(t *testing.T) {
	t.Parallel()

	p := NewPostprocessor(testLookup(idles), zerolog.Nop(), fixedClock("2025-06-01"))
	recs := p.Resolve(context.Background(), []ScoredArtist{
		{ArtistName: "IDLES", ArtistID: "art-idles", Score: 0.92, Reasons: []string{"loud", "live"}},
		{ArtistName: "Jai Paul", Score: 0.5},
	}, testFestival(), models.Preferences{})

	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}

	resolved := recs[0]
	if resolved.IsStub() || resolved.Artist.Name != "IDLES" || len(resolved.Artist.Genres) != 1 {
		t.Errorf("resolved artist = %+v", resolved.Artist)
	}
	if resolved.Score != 0.92 || !equalStrings(resolved.Reasons, []string{"loud", "live"}) || !resolved.AIEnhanced {
		t.Errorf("recommendation = %+v", resolved)
	}

	stub := recs[1]
	if !stub.IsStub() || stub.Artist.Name != "Jai Paul" {
		t.Errorf("stub artist = %+v", stub.Artist)
	}
}

func TestResolve_LookupFailureFallsBackToName(t *testing.T) {
	t.Parallel()

	failing := func(context.Context, string) (*models.Artist, error) {
		return nil, errors.New("repository offline")
	}
	p := NewPostprocessor(failing, zerolog.Nop(), fixedClock("2025-06-06"))

	recs := p.Resolve(context.Background(), []ScoredArtist{{ArtistName: "Idles", ArtistID: "art-idles"}}, testFestival(), models.Preferences{})
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if !recs[0].IsStub() {
		t.Error("failed lookup should produce a stub")
	}
	// Name matching is case-insensitive, so both IDLES acts are candidates.
	if recs[0].Act.ID != "a2" {
		t.Errorf("act = %s, want a2", recs[0].Act.ID)
	}
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	p := NewPostprocessor(nil, zerolog.Nop())
	if recs := p.Resolve(context.Background(), nil, testFestival(), models.Preferences{}); len(recs) != 0 {
		t.Errorf("Resolve(nil) = %v", recs)
	}
	if recs := p.Resolve(context.Background(), []ScoredArtist{{ArtistName: "IDLES"}}, nil, models.Preferences{}); len(recs) != 0 {
		t.Errorf("Resolve(nil festival) = %v", recs)
	}
}

func TestLineupArtists(t *testing.T) {
	t.Parallel()

	got := LineupArtists(context.Background(), testFestival(), testLookup(idles))
	if len(got) != 3 {
		t.Fatalf("got %d artists, want 3: %+v", len(got), got)
	}

	first := got[0]
	if first.Name != "IDLES" || first.ArtistID != "art-idles" {
		t.Errorf("first artist = %+v", first)
	}
	if !equalStrings(first.Days, []string{"thursday", "saturday"}) {
		t.Errorf("days = %v", first.Days)
	}
	if !equalStrings(first.Stages, []string{"Amazon", "Cupra"}) {
		t.Errorf("stages = %v", first.Stages)
	}
	if !equalStrings(first.Genres, []string{"post-punk"}) {
		t.Errorf("genres = %v", first.Genres)
	}

	if got[2].Name != "Mystery Guest" || len(got[2].Days) != 0 {
		t.Errorf("undated artist = %+v", got[2])
	}
}

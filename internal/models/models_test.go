// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFestivalID_Deterministic(t *testing.T) {
	t.Parallel()

	a := FestivalID("Primavera Sound", "Barcelona, Spain", "2024-05-29")
	b := FestivalID("Primavera Sound", "Barcelona, Spain", "2024-05-29")
	if a != b {
		t.Fatalf("FestivalID not deterministic: %q != %q", a, b)
	}
	if !strings.HasPrefix(a, "primavera-sound-") {
		t.Errorf("FestivalID = %q, want primavera-sound- prefix", a)
	}
}

func TestFestivalID_Normalizes(t *testing.T) {
	t.Parallel()

	a := FestivalID("  Rock en Seine ", "Saint-Cloud", "2024-08-23")
	b := FestivalID("ROCK EN SÉINE", "saint-cloud", "2024-08-23")
	if a != b {
		t.Errorf("expected normalized inputs to share an ID: %q vs %q", a, b)
	}
}

func TestFestivalID_Distinguishes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location string
		start    string
	}{
		{"Primavera Sound", "Porto", "2024-05-29"},
		{"Primavera Sound", "Barcelona", "2025-06-04"},
		{"Primavera", "Barcelona", "2024-05-29"},
	}

	base := FestivalID("Primavera Sound", "Barcelona", "2024-05-29")
	for _, tt := range tests {
		if got := FestivalID(tt.name, tt.location, tt.start); got == base {
			t.Errorf("FestivalID(%q, %q, %q) collides with base", tt.name, tt.location, tt.start)
		}
	}
}

func TestFestivalID_LongAndEmptyNames(t *testing.T) {
	t.Parallel()

	long := FestivalID(strings.Repeat("very long festival name ", 10), "x", "2024-01-01")
	slug := long[:strings.LastIndex(long, "-")]
	if len(slug) > 40 {
		t.Errorf("slug length = %d, want <= 40", len(slug))
	}

	empty := FestivalID("!!!", "", "2024-01-01")
	if !strings.HasPrefix(empty, "festival-") {
		t.Errorf("FestivalID for symbol-only name = %q, want festival- prefix", empty)
	}
}

func TestAssignIDs(t *testing.T) {
	t.Parallel()

	f := &Festival{
		Name:      "Lowlands",
		Location:  "Biddinghuizen",
		StartDate: "2024-08-16",
		EndDate:   "2024-08-18",
		Lineup: []Act{
			{ArtistName: "Idles", Stage: "Alpha"},
			{ID: "dup", ArtistName: "Fontaines D.C.", Stage: "Bravo"},
			{ID: "dup", ArtistName: "Bicep", Stage: "alpha"},
		},
	}

	AssignIDs(f)

	if f.ID == "" {
		t.Fatal("festival ID not assigned")
	}
	seen := map[string]bool{}
	for i, act := range f.Lineup {
		if act.ID == "" {
			t.Errorf("act %d has empty ID", i)
		}
		if seen[act.ID] {
			t.Errorf("act %d has duplicate ID %q", i, act.ID)
		}
		seen[act.ID] = true
		if act.FestivalID != f.ID {
			t.Errorf("act %d FestivalID = %q, want %q", i, act.FestivalID, f.ID)
		}
		if act.FestivalName != "Lowlands" {
			t.Errorf("act %d FestivalName = %q", i, act.FestivalName)
		}
	}
	if f.Lineup[1].ID != "dup" {
		t.Errorf("first occurrence of an ID should be kept, got %q", f.Lineup[1].ID)
	}
	if len(f.Stages) != 2 {
		t.Errorf("Stages = %v, want 2 distinct stages", f.Stages)
	}
}

func TestAssignIDs_KeepsExistingFestivalID(t *testing.T) {
	t.Parallel()

	f := &Festival{ID: "existing", Name: "X", Location: "Y", StartDate: "2024-01-01"}
	AssignIDs(f)
	if f.ID != "existing" {
		t.Errorf("ID = %q, want existing", f.ID)
	}
}

func TestAct_DayAndHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		act      Act
		wantDay  string
		wantHour int
		wantOK   bool
	}{
		{"full", Act{Date: "2024-07-20", Time: "21:30"}, "saturday", 21, true},
		{"no time", Act{Date: "2024-07-21"}, "sunday", 0, false},
		{"bad date", Act{Date: "20/07/2024", Time: "9:00"}, "", 0, false},
		{"single digit hour", Act{Date: "2024-07-20", Time: "9:00"}, "saturday", 0, false},
		{"twelve hour clock", Act{Date: "2024-07-20", Time: "9:00pm"}, "saturday", 0, false},
		{"past midnight", Act{Date: "2024-07-20", Time: "00:15"}, "saturday", 0, true},
		{"empty", Act{}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.act.Day(); got != tt.wantDay {
				t.Errorf("Day() = %q, want %q", got, tt.wantDay)
			}
			hour, ok := tt.act.StartHour()
			if ok != tt.wantOK || hour != tt.wantHour {
				t.Errorf("StartHour() = (%d, %v), want (%d, %v)", hour, ok, tt.wantHour, tt.wantOK)
			}
		})
	}
}

func TestSlotForHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want Slot
	}{
		{0, SlotNight},
		{5, SlotNight},
		{6, SlotMorning},
		{11, SlotMorning},
		{12, SlotAfternoon},
		{16, SlotAfternoon},
		{17, SlotEvening},
		{21, SlotEvening},
		{22, SlotNight},
		{23, SlotNight},
	}

	for _, tt := range tests {
		if got := SlotForHour(tt.hour); got != tt.want {
			t.Errorf("SlotForHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestFestival_ArtistNames(t *testing.T) {
	t.Parallel()

	f := Festival{Lineup: []Act{
		{ArtistName: "Bicep"},
		{ArtistName: "Idles"},
		{ArtistName: "bicep "},
		{ArtistName: ""},
	}}
	got := f.ArtistNames()
	if len(got) != 2 || got[0] != "Bicep" || got[1] != "Idles" {
		t.Errorf("ArtistNames() = %v", got)
	}
}

func TestArtist_AddGenres(t *testing.T) {
	t.Parallel()

	a := Artist{Genres: []string{"Indie Rock"}}
	a.AddGenres("indie rock", "post-punk", " ", "Post-Punk")
	if len(a.Genres) != 2 || a.Genres[1] != "post-punk" {
		t.Errorf("Genres = %v", a.Genres)
	}
}

func TestOpError_Is(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     ErrorKind
		sentinel error
	}{
		{KindValidation, ErrValidation},
		{KindTransientFetch, ErrTransientFetch},
		{KindExtraction, ErrExtraction},
		{KindConfiguration, ErrConfiguration},
	}

	cause := errors.New("boom")
	for _, tt := range tests {
		err := fmt.Errorf("crawl: %w", NewOpError(tt.kind, "parse", "https://example.com", cause))
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("errors.Is(%s, sentinel) = false", tt.kind)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%s does not unwrap to cause", tt.kind)
		}
		if KindOf(err) != tt.kind {
			t.Errorf("KindOf = %q, want %q", KindOf(err), tt.kind)
		}
		for _, other := range tests {
			if other.kind != tt.kind && errors.Is(err, other.sentinel) {
				t.Errorf("%s matched %s sentinel", tt.kind, other.kind)
			}
		}
	}
}

func TestOpError_Error(t *testing.T) {
	t.Parallel()

	err := NewOpError(KindExtraction, "parse", "https://example.com/lineup", errors.New("no rows"))
	want := "parse: extraction (https://example.com/lineup): no rows"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf plain error should be empty")
	}
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package models

import (
	"strings"
	"time"
)

// DateLayout is the wire format of Festival and Act dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of Act start times (24h clock).
const TimeLayout = "15:04"

// Festival is one edition of a festival with its schedule.
//
// A Festival produced by a crawl is ephemeral until it is saved; saving
// assigns the deterministic ID and an ID to every Act that lacks one.
type Festival struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location" validate:"required"`
	StartDate   string   `json:"start_date" validate:"required,festdate"`
	EndDate     string   `json:"end_date" validate:"required,festdate"`
	Website     string   `json:"website,omitempty" validate:"omitempty,url"`
	ImageURL    string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Stages      []string `json:"stages,omitempty"`
	Lineup      []Act    `json:"lineup" validate:"dive"`
}

// Act is one scheduled performance slot in a lineup.
type Act struct {
	ID           string `json:"id,omitempty"`
	ArtistName   string `json:"artist_name" validate:"required"`
	ArtistID     string `json:"artist_id,omitempty"`
	FestivalName string `json:"festival_name,omitempty"`
	FestivalID   string `json:"festival_id,omitempty"`
	Date         string `json:"date,omitempty" validate:"omitempty,festdate"`
	Time         string `json:"time,omitempty" validate:"omitempty,festtime"`
	Stage        string `json:"stage,omitempty"`
}

// Linked reports whether the act has been resolved to an Artist.
func (a *Act) Linked() bool {
	return a.ArtistID != ""
}

// ParsedDate returns the act date, or false when it is missing or malformed.
func (a *Act) ParsedDate() (time.Time, bool) {
	if a.Date == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Day returns the lowercase weekday of the act ("friday"), or "".
func (a *Act) Day() string {
	d, ok := a.ParsedDate()
	if !ok {
		return ""
	}
	return strings.ToLower(d.Weekday().String())
}

// ParseTime parses a start time in TimeLayout. time.Parse accepts "9:00"
// for "15:04", so the length is checked too.
func ParseTime(s string) (time.Time, bool) {
	if len(s) != len(TimeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StartHour returns the hour of the act start time, or false when unknown
// or not in TimeLayout.
func (a *Act) StartHour() (int, bool) {
	t, ok := ParseTime(a.Time)
	if !ok {
		return 0, false
	}
	return t.Hour(), true
}

// AddStage appends name to Stages unless already present.
func (f *Festival) AddStage(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, s := range f.Stages {
		if strings.EqualFold(s, name) {
			return
		}
	}
	f.Stages = append(f.Stages, name)
}

// ArtistNames returns the distinct artist names of the lineup in lineup order.
func (f *Festival) ArtistNames() []string {
	seen := make(map[string]struct{}, len(f.Lineup))
	names := make([]string, 0, len(f.Lineup))
	for i := range f.Lineup {
		key := strings.ToLower(strings.TrimSpace(f.Lineup[i].ArtistName))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, f.Lineup[i].ArtistName)
	}
	return names
}

// Artist is a performer known to the system, possibly enriched from one or
// more external catalogs. Link maps and Popularity are keyed by source name.
type Artist struct {
	ID          string             `json:"id"`
	Name        string             `json:"name" validate:"required"`
	Genres      []string           `json:"genres,omitempty"`
	Description string             `json:"description,omitempty"`
	CatalogIDs  map[string]string  `json:"catalog_ids,omitempty"`
	Images      map[string]string  `json:"images,omitempty"`
	Streaming   map[string]string  `json:"streaming,omitempty"`
	Social      map[string]string  `json:"social,omitempty"`
	Popularity  map[string]float64 `json:"popularity,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// AddGenres merges genres into the artist's genre set, ignoring case duplicates.
func (a *Artist) AddGenres(genres ...string) {
	have := make(map[string]struct{}, len(a.Genres))
	for _, g := range a.Genres {
		have[strings.ToLower(g)] = struct{}{}
	}
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, ok := have[strings.ToLower(g)]; ok {
			continue
		}
		have[strings.ToLower(g)] = struct{}{}
		a.Genres = append(a.Genres, g)
	}
}

// Recommendation ties a scored artist to one concrete Act of a festival.
type Recommendation struct {
	Artist     Artist   `json:"artist"`
	Act        Act      `json:"act"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	AIEnhanced bool     `json:"ai_enhanced"`
}

// IsStub reports whether the artist could not be resolved to a stored record.
func (r *Recommendation) IsStub() bool {
	return r.Artist.ID == ""
}

// Slot is a coarse part of the day derived from an act's start hour.
type Slot string

// Day slots used by time preferences.
const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
	SlotNight     Slot = "night"
)

// SlotForHour buckets hour: morning [6,12), afternoon [12,17), evening [17,22),
// night otherwise.
func SlotForHour(hour int) Slot {
	switch {
	case hour >= 6 && hour < 12:
		return SlotMorning
	case hour >= 12 && hour < 17:
		return SlotAfternoon
	case hour >= 17 && hour < 22:
		return SlotEvening
	default:
		return SlotNight
	}
}

// Preferences describe what an attendee wants recommended.
type Preferences struct {
	// Date restricts results to acts on this day (YYYY-MM-DD).
	Date string `json:"date,omitempty" validate:"omitempty,festdate"`

	Genres          []string         `json:"genres,omitempty"`
	FavoriteArtists []string         `json:"favorite_artists,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Limit           int              `json:"limit,omitempty" validate:"gte=0,lte=100"`
	TimePreferences *TimePreferences `json:"time_preferences,omitempty"`
}

// TimePreferences are optional secondary filters. Empty slices allow all.
type TimePreferences struct {
	Days  []string `json:"days,omitempty"`
	Slots []Slot   `json:"slots,omitempty" validate:"dive,oneof=morning afternoon evening night"`
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/lineup/internal/models"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// Festival Tests
// ===================================================================================================

func validFestival() *models.Festival {
	return &models.Festival{
		Name:      "Roskilde Festival",
		Location:  "Roskilde, Denmark",
		StartDate: "2024-06-29",
		EndDate:   "2024-07-06",
		Website:   "https://www.roskilde-festival.dk",
		Lineup: []models.Act{
			{ArtistName: "PJ Harvey", Date: "2024-07-04", Time: "22:30", Stage: "Orange"},
			{ArtistName: "Jungle"},
		},
	}
}

func TestFestival_Valid(t *testing.T) {
	t.Parallel()

	if err := Festival(validFestival()); err != nil {
		t.Fatalf("Festival() unexpected error: %v", err)
	}
}

func TestFestival_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(f *models.Festival)
		wantField string
		wantTag   string
	}{
		{
			name:      "missing name",
			mutate:    func(f *models.Festival) { f.Name = "" },
			wantField: "name",
			wantTag:   "required",
		},
		{
			name:      "missing location",
			mutate:    func(f *models.Festival) { f.Location = "" },
			wantField: "location",
			wantTag:   "required",
		},
		{
			name:      "bad start date",
			mutate:    func(f *models.Festival) { f.StartDate = "29/06/2024" },
			wantField: "start_date",
			wantTag:   "festdate",
		},
		{
			name:      "impossible end date",
			mutate:    func(f *models.Festival) { f.EndDate = "2024-02-30" },
			wantField: "end_date",
			wantTag:   "festdate",
		},
		{
			name:      "end before start",
			mutate:    func(f *models.Festival) { f.EndDate = "2024-06-28" },
			wantField: "end_date",
			wantTag:   "afterstart",
		},
		{
			name:      "bad website",
			mutate:    func(f *models.Festival) { f.Website = "not a url" },
			wantField: "website",
			wantTag:   "url",
		},
		{
			name:      "act without artist",
			mutate:    func(f *models.Festival) { f.Lineup[1].ArtistName = "" },
			wantField: "lineup[1].artist_name",
			wantTag:   "required",
		},
		{
			name:      "act time 12h clock",
			mutate:    func(f *models.Festival) { f.Lineup[0].Time = "10:30pm" },
			wantField: "lineup[0].time",
			wantTag:   "festtime",
		},
		{
			name:      "act time single digit hour",
			mutate:    func(f *models.Festival) { f.Lineup[0].Time = "9:30" },
			wantField: "lineup[0].time",
			wantTag:   "festtime",
		},
		{
			name:      "act bad date",
			mutate:    func(f *models.Festival) { f.Lineup[0].Date = "July 4" },
			wantField: "lineup[0].date",
			wantTag:   "festdate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := validFestival()
			tt.mutate(f)

			err := Festival(f)
			if err == nil {
				t.Fatal("Festival() expected error, got nil")
			}
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("errors.Is(err, ErrValidation) = false for %v", err)
			}

			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected *SchemaError, got %T", err)
			}
			found := false
			for _, fe := range schemaErr.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("missing %s/%s in %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestFestival_Nil(t *testing.T) {
	t.Parallel()

	if err := Festival(nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Festival(nil) = %v, want validation error", err)
	}
}

func TestFestival_SameDayFestival(t *testing.T) {
	t.Parallel()

	f := validFestival()
	f.EndDate = f.StartDate
	if err := Festival(f); err != nil {
		t.Errorf("single-day festival rejected: %v", err)
	}
}

func TestFestival_Messages(t *testing.T) {
	t.Parallel()

	f := validFestival()
	f.Name = ""
	f.Lineup[0].Time = "25:00"

	err := Festival(f)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"name is required", "lineup[0].time must be a 24h time in HH:MM format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

// ===================================================================================================
// Preferences Tests
// ===================================================================================================

func TestPreferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prefs   *models.Preferences
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &models.Preferences{}, false},
		{"date", &models.Preferences{Date: "2024-07-21"}, false},
		{"bad date", &models.Preferences{Date: "tomorrow"}, true},
		{"limit too high", &models.Preferences{Limit: 500}, true},
		{
			name: "valid slots",
			prefs: &models.Preferences{TimePreferences: &models.TimePreferences{
				Slots: []models.Slot{models.SlotEvening, models.SlotNight},
			}},
		},
		{
			name: "unknown slot",
			prefs: &models.Preferences{TimePreferences: &models.TimePreferences{
				Slots: []models.Slot{"brunch"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Preferences(tt.prefs)
			if (err != nil) != tt.wantErr {
				t.Errorf("Preferences() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

type sampleStruct struct {
	Name  string `json:"name" validate:"required,min=2,max=5"`
	Count int    `json:"count" validate:"min=1"`
}

func TestValidateStruct_MinMaxMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input sampleStruct
		want  string
	}{
		{"short string", sampleStruct{Name: "a", Count: 1}, "name must be at least 2 characters"},
		{"long string", sampleStruct{Name: "abcdef", Count: 1}, "name must be at most 5 characters"},
		{"small number", sampleStruct{Name: "abc", Count: 0}, "count must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	t.Parallel()

	err := ValidateStruct("not a struct")
	if err == nil {
		t.Fatal("expected error for non-struct input")
	}
	if err.Errors()[0].Field() != "unknown" {
		t.Errorf("Field() = %q, want unknown", err.Errors()[0].Field())
	}
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/lineup/internal/matching"
)

// FestivalID derives the stable identifier of a festival edition from its
// normalized name, normalized location and start date. The readable slug is
// capped so long names do not produce unwieldy cache keys.
func FestivalID(name, location, startDate string) string {
	n := matching.Normalize(name)
	l := matching.Normalize(location)
	d := strings.TrimSpace(startDate)

	sum := sha256.Sum256([]byte(n + "|" + l + "|" + d))
	slug := strings.Join(strings.Fields(strings.ReplaceAll(n, "-", " ")), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	if slug == "" {
		slug = "festival"
	}
	return slug + "-" + hex.EncodeToString(sum[:6])
}

// NewActID returns a random act identifier.
func NewActID() string {
	return uuid.NewString()
}

// NewArtistID returns a random artist identifier.
func NewArtistID() string {
	return uuid.NewString()
}

// AssignIDs fills the festival ID when missing and gives every act an ID,
// replacing duplicates so IDs stay unique within the lineup. Acts are stamped
// with the festival name and ID.
func AssignIDs(f *Festival) {
	if f.ID == "" {
		f.ID = FestivalID(f.Name, f.Location, f.StartDate)
	}
	seen := make(map[string]struct{}, len(f.Lineup))
	for i := range f.Lineup {
		act := &f.Lineup[i]
		if _, dup := seen[act.ID]; act.ID == "" || dup {
			act.ID = NewActID()
		}
		seen[act.ID] = struct{}{}
		act.FestivalID = f.ID
		if act.FestivalName == "" {
			act.FestivalName = f.Name
		}
		if act.Stage != "" {
			f.AddStage(act.Stage)
		}
	}
}

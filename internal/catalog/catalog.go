// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package catalog is the external artist catalog boundary.
package catalog

import "context"

// SourceSpotify keys Spotify data in Artist link and popularity maps.
const SourceSpotify = "spotify"

// Candidate is one artist returned by a catalog. Score and Exact are filled
// by the identity resolver, not by the catalog.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres,omitempty"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
	ImageURL   string   `json:"image_url,omitempty"`
	URL        string   `json:"url,omitempty"`
	Score      float64  `json:"score"`
	Exact      bool     `json:"exact"`
}

// Client searches an external artist catalog.
type Client interface {
	// Source names the catalog ("spotify").
	Source() string

	// SearchArtists returns the catalog's raw matches for name, in catalog order.
	SearchArtists(ctx context.Context, name string) ([]Candidate, error)

	// GetArtistByID returns one artist, or (nil, nil) when the catalog does
	// not know id.
	GetArtistByID(ctx context.Context, id string) (*Candidate, error)
}

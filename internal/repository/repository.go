// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package repository is the durable store for festivals and artists.
//
// Missing records are nil results, never errors.
package repository

import (
	"context"

	"github.com/tomtom215/lineup/internal/models"
)

// Repository persists festivals and artists.
type Repository interface {
	GetFestivalByID(ctx context.Context, id string) (*models.Festival, error)
	GetAllFestivals(ctx context.Context) ([]models.Festival, error)
	SaveFestival(ctx context.Context, f *models.Festival) error

	GetArtistByID(ctx context.Context, id string) (*models.Artist, error)
	// SearchArtistByName returns the stored artist whose name best matches
	// name, with its match score. Callers apply the acceptance threshold.
	SearchArtistByName(ctx context.Context, name string) (*models.Artist, float64, error)
	// GetArtistByCatalogID finds the artist linked to a catalog record.
	GetArtistByCatalogID(ctx context.Context, source, catalogID string) (*models.Artist, error)
	SaveArtist(ctx context.Context, a *models.Artist) error
	DeleteArtist(ctx context.Context, id string) error
	GetAllArtists(ctx context.Context) ([]models.Artist, error)

	Close() error
}

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package identity

import (
	"context"
	"strings"

	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/matching"
	"github.com/tomtom215/lineup/internal/models"
)

// LinkResult summarizes one LinkLineup call.
type LinkResult struct {
	// Linked counts acts that gained an ArtistID.
	Linked int
	// Created lists IDs of artists created during linking.
	Created []string
	// Unresolved lists distinct artist names left unlinked.
	Unresolved []string
}

type linkOptions struct {
	deferEnrichment bool
}

// LinkOption configures LinkLineup.
type LinkOption func(*linkOptions)

// DeferEnrichment saves created artists with only their catalog link; the
// caller is expected to queue them for enrichment.
func DeferEnrichment() LinkOption {
	return func(o *linkOptions) { o.deferEnrichment = true }
}

// LinkLineup resolves every unlinked act of f and sets its ArtistID. Each
// distinct name is resolved once. A failure for one name is logged and
// leaves its acts unlinked; only context cancellation aborts the call.
func (r *Resolver) LinkLineup(ctx context.Context, f *models.Festival, opts ...LinkOption) (LinkResult, error) {
	var o linkOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.Annotate(ctx, r.logger).With().Str("festival", f.Name).Logger()

	var res LinkResult
	resolved := make(map[string]*models.Artist)
	for i := range f.Lineup {
		act := &f.Lineup[i]
		if act.Linked() {
			continue
		}
		name := strings.TrimSpace(act.ArtistName)
		key := matching.Normalize(name)
		if key == "" {
			continue
		}

		artist, seen := resolved[key]
		if !seen {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			var (
				outcome string
				err     error
			)
			artist, outcome, err = r.resolve(ctx, name, "", !o.deferEnrichment)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				logger.Warn().Err(err).Str("artist", name).Msg("Artist resolution failed, leaving act unlinked")
			}
			resolved[key] = artist
			if outcome == OutcomeCreated {
				res.Created = append(res.Created, artist.ID)
			}
			if artist == nil {
				res.Unresolved = append(res.Unresolved, name)
			}
		}
		if artist == nil {
			continue
		}
		act.ArtistID = artist.ID
		res.Linked++
	}

	logger.Info().
		Int("linked", res.Linked).
		Int("created", len(res.Created)).
		Int("unresolved", len(res.Unresolved)).
		Msg("Lineup linked")
	return res, nil
}

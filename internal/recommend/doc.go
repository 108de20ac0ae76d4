// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package recommend turns AI-scored artist names into concrete, schedulable
// recommendations for one festival.
//
// # Flow
//
//	Service.GenerateRecommendations
//	  -> cache lookup (festival ID + preferences digest, 15 minutes)
//	  -> Recommender.GenerateRecommendations(prefs, lineup artists)
//	  -> Postprocessor.Resolve
//	  -> limit, cache, return
//
// # Postprocessing
//
// For every scored tuple, in input order:
//
//   - The artist is resolved through the lineup's artist ID and the configured
//     ArtistLookup. Unresolvable artists become name-only stubs.
//   - Candidate acts are those linked to the resolved artist, or, for stubs,
//     those whose artist name matches case-insensitively.
//   - With a preferred date, the first candidate on that date is chosen and
//     the tuple is dropped when there is none.
//   - Without one, the earliest candidate dated today or later is chosen,
//     falling back to the first candidate.
//   - Optional weekday and day-slot preferences then filter the chosen act.
//
// Dropping a tuple when the preferred date has no act (rather than falling
// back to another day) is a product decision recorded with the metric reason
// "date".
//
// The clock is injectable (WithClock) so "today" is deterministic in tests.
package recommend

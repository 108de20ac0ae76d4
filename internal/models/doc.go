// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package models defines the domain records shared by every Lineup component.

Key Components:

  - Festival: one festival edition with its ordered lineup of Acts
  - Act: a scheduled performance slot, optionally linked to an Artist
  - Artist: a performer with source-tagged catalog links and popularity
  - Recommendation: a scored Artist tied to one concrete Act
  - Preferences: date, day and time-slot constraints for recommendations
  - OpError: the error taxonomy (validation, transient fetch, extraction,
    configuration) matched with errors.Is against the package sentinels

Identifiers:

Festival IDs are deterministic. FestivalID hashes the normalized name, the
normalized location and the start date, so crawling the same edition twice
yields the same ID. Act and Artist IDs are random UUIDs assigned on save.

Missing records are never errors: lookups return nil.

Validation tags on the structs are evaluated by the validation package, which
registers the festdate and festtime validators.
*/
package models

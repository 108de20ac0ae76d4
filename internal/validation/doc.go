// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package validation checks domain records against the canonical schema using
go-playground/validator v10.

A single validator instance is built on first use and caches struct metadata.
It registers two custom tags and one struct-level rule:

  - festdate: a calendar date in YYYY-MM-DD form
  - festtime: a start time in HH:MM form on a 24h clock
  - models.Festival: end_date must not be before start_date

Field errors report JSON paths such as "lineup[3].time" so a failed
extraction can be traced back to the rule that produced the bad value.

Example:

	if err := validation.Festival(f); err != nil {
	    // errors.Is(err, models.ErrValidation) == true
	    return models.NewOpError(models.KindValidation, "parse", source, err)
	}
*/
package validation

// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package festival is the entry point for the core operations: crawl a
festival for review, save it, resolve artist identities, recommend acts and
re-crawl a stored festival.

Saving validates the record, assigns the deterministic festival ID and act
IDs, links every unlinked act through the identity resolver, persists the
record and then drops every cache key scoped to the festival in a
background goroutine (Wait drains them).
*/
package festival

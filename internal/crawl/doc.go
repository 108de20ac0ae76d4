// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package crawl turns one or more lineup sources into a reviewable Festival.

The Orchestrator first runs the structured parser on the first source. When
that fails for any reason it loads every source as plain text (readable HTML
via go-readability, PDF text via ledongthuc/pdf) and asks the festival
generator for the whole record. Structured-parse failures are logged and
never surface; fallback failures are returned unchanged.

Crawled festivals get their IDs assigned and are cached under
cache.CrawlKey(sources) for CrawlReviewTTL, where Review can pick them up for
an explicit save.
*/
package crawl

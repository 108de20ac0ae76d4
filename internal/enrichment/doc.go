// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package enrichment fills stored artists with catalog data.

Enrichment happens two ways:
  - Synchronously, when the identity resolver creates an artist from a
    catalog candidate (Apply)
  - Asynchronously, through Queue, for artists created by a forced re-crawl

Queue is an in-process watermill gochannel pub/sub on the "artist.enrich"
topic with one router handler. Jobs are deduplicated by artist ID at publish
time, transient catalog failures are retried with backoff, and anything that
still fails is logged, counted and acknowledged. Queue implements suture's
Service interface so the supervisor tree can own its lifetime.
*/
package enrichment

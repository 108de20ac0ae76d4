// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package ai is the generative AI capability: extraction plans for the
// structured parser, whole-festival generation for the crawl fallback, and
// recommendation scoring.
//
// Client talks to the Anthropic Messages API through a circuit breaker.
// Status codes map onto the error taxonomy: 429, 5xx and network failures are
// transient, 401 and 403 are configuration errors, anything else (including
// unusable model output) is an extraction error. Only transient failures
// count against the breaker.
package ai

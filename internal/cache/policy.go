// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package cache

import (
	"strings"
	"time"

	"github.com/tomtom215/lineup/internal/matching"
)

// Cache lifetimes. Every component reads its TTL from here.
const (
	// ParseTTL holds a validated structured extraction per source document.
	ParseTTL = 24 * time.Hour

	// CrawlReviewTTL holds a crawled festival awaiting an explicit save.
	CrawlReviewTTL = 24 * time.Hour

	// ArtistSearchTTL holds ranked catalog search results per query.
	ArtistSearchTTL = time.Hour

	// RecommendationTTL holds postprocessed recommendations.
	RecommendationTTL = 15 * time.Minute

	// FestivalTTL holds a festival record read through from the repository.
	FestivalTTL = time.Hour
)

// Key prefixes.
const (
	prefixParse     = "festival:parse:"
	prefixCrawl     = "festival:crawl:"
	prefixFestival  = "festival:record:"
	prefixSearch    = "artist:search:"
	prefixRecommend = "recommend:"
)

// ParseKey is the key of a structured extraction of source.
func ParseKey(source string) string {
	return prefixParse + strings.TrimSpace(source)
}

// CrawlKey is the key of a crawled festival held for review. Multi-source
// crawls are keyed by every source in order.
func CrawlKey(sources []string) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, strings.TrimSpace(s))
	}
	return prefixCrawl + strings.Join(parts, "|")
}

// FestivalKey is the key of a stored festival record.
func FestivalKey(festivalID string) string {
	return prefixFestival + FestivalKeyFragment(festivalID)
}

// ArtistSearchKey is the key of ranked catalog candidates for query. The
// scoring version is part of the key so a scoring change never serves stale
// rankings.
func ArtistSearchKey(query string) string {
	return prefixSearch + matching.ScoringVersion + ":" + matching.Normalize(query)
}

// RecommendationKey is the key of recommendations for a festival and a
// preferences digest (see GenerateKey).
func RecommendationKey(festivalID, prefsDigest string) string {
	return prefixRecommend + FestivalKeyFragment(festivalID) + ":" + prefsDigest
}

// FestivalKeyFragment is the substring every festival-scoped key embeds.
// InvalidatePattern(FestivalKeyFragment(id)) removes all of them.
func FestivalKeyFragment(festivalID string) string {
	return "[" + festivalID + "]"
}

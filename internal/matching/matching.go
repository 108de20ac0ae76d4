// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package matching canonicalizes artist names and scores how closely a
// candidate name matches a query.
//
// This is the only scoring routine in the module. Catalog search ranking,
// repository name lookup and act-to-artist linking all call MatchScore and
// share AcceptThreshold, so any change is a new ScoringVersion.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ScoringVersion identifies the current Normalize/MatchScore behavior.
// It is embedded in cache keys that hold scored results.
const ScoringVersion = "v1"

const (
	// AcceptThreshold is the minimum score a candidate needs to be kept.
	AcceptThreshold = 0.3

	// MaxCandidates caps ranked result lists.
	MaxCandidates = 10
)

// Normalize decomposes name, strips combining marks, keeps letters, digits,
// spaces and hyphens, lowercases and trims. Normalize(Normalize(x)) ==
// Normalize(x) for every x.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	// Collapse runs of whitespace so word splitting is stable.
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchScore returns a similarity in [0,1] between query and candidate.
//
// Equal normalized forms score 1. Otherwise the score is the number of
// distinct query words present in the candidate's word set divided by the
// larger of the two distinct word counts. Either side empty after
// normalization scores 0.
func MatchScore(query, candidate string) float64 {
	q := Normalize(query)
	c := Normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1
	}

	qWords := wordSet(q)
	cWords := wordSet(c)

	shared := 0
	for w := range qWords {
		if _, ok := cWords[w]; ok {
			shared++
		}
	}

	denom := len(qWords)
	if len(cWords) > denom {
		denom = len(cWords)
	}
	return float64(shared) / float64(denom)
}

// IsExactMatch reports whether query and candidate normalize identically.
func IsExactMatch(query, candidate string) bool {
	q := Normalize(query)
	return q != "" && q == Normalize(candidate)
}

// Accepted reports whether score clears AcceptThreshold.
func Accepted(score float64) bool {
	return score >= AcceptThreshold
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

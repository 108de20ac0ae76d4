// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"strings"
	"testing"
)

func TestStripNoise(t *testing.T) {
	t.Parallel()

	out, err := StripNoise([]byte(lineupHTML))
	if err != nil {
		t.Fatalf("StripNoise: %v", err)
	}

	mustNotContain := []string{
		"<script", "window.tracking", "<style", "<nav", "Tickets", "<img", "<form",
		"<input", "<button", "<footer", "build 2024.07", "style=", "onclick=", "<meta", "<link",
	}
	for _, s := range mustNotContain {
		if strings.Contains(out, s) {
			t.Errorf("stripped output still contains %q", s)
		}
	}

	mustContain := []string{
		`class="festival-title"`, `data-date="2024-07-19"`, `datetime="2024-07-21"`,
		`href="/img/poster.jpg"`, "Jamila", "Black Pumas", "Union Park, Chicago",
	}
	for _, s := range mustContain {
		if !strings.Contains(out, s) {
			t.Errorf("stripped output lost %q", s)
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			t.Error("stripped output contains blank lines")
			break
		}
	}
}

func TestStripNoise_Fragment(t *testing.T) {
	t.Parallel()

	out, err := StripNoise([]byte(`<div id="x" onmouseover="evil()" data-stage="Main">A<!-- c --></div>`))
	if err != nil {
		t.Fatalf("StripNoise: %v", err)
	}
	if !strings.Contains(out, `data-stage="Main"`) || strings.Contains(out, "onmouseover") || strings.Contains(out, "<!--") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFilterAttrs(t *testing.T) {
	t.Parallel()

	out, err := StripNoise([]byte(`<table><tr><td COLSPAN="2" Data-Day="fri" width="100" aria-label="x">a</td></tr></table>`))
	if err != nil {
		t.Fatalf("StripNoise: %v", err)
	}
	if strings.Contains(out, "width") || strings.Contains(out, "aria-label") {
		t.Errorf("non-semantic attributes kept: %q", out)
	}
	if !strings.Contains(out, `colspan="2"`) || !strings.Contains(out, `data-day="fri"`) {
		t.Errorf("semantic attributes dropped: %q", out)
	}
}

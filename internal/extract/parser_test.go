// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/models"
)

// fakeRenderer serves a fixed document and counts renders and releases.
type fakeRenderer struct {
	html     string
	err      error
	renders  atomic.Int32
	releases atomic.Int32
}

func (r *fakeRenderer) Render(_ context.Context, source string) (*Page, error) {
	r.renders.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.html))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(source)
	return NewPage(source, doc, []byte(r.html), func() { r.releases.Add(1) }), nil
}

// fakePlanner returns a fixed plan and records what it was shown.
type fakePlanner struct {
	plan  *Plan
	err   error
	calls atomic.Int32
	input atomic.Value
}

func (p *fakePlanner) GenerateExtractionPlan(_ context.Context, stripped, _ string) (*Plan, error) {
	p.calls.Add(1)
	p.input.Store(stripped)
	return p.plan, p.err
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{html: lineupHTML}
	planner := &fakePlanner{plan: lineupPlan()}
	store := cache.NewMemory(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	p := NewParser(renderer, planner, store, zerolog.Nop())
	ctx := context.Background()
	const source = "https://pitchfork.example/lineup"

	f, err := p.Parse(ctx, source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Name != "Pitchfork Music Festival" || len(f.Lineup) != 4 {
		t.Fatalf("Parse() = %s with %d acts", f.Name, len(f.Lineup))
	}
	if renderer.releases.Load() != 1 {
		t.Errorf("page released %d times, want 1", renderer.releases.Load())
	}

	shown, _ := planner.input.Load().(string)
	if strings.Contains(shown, "<script") || strings.Contains(shown, "tracking") {
		t.Error("planner saw unstripped noise")
	}
	if !strings.Contains(shown, "Black Pumas") {
		t.Error("planner input lost lineup content")
	}

	if !store.Has(ctx, cache.ParseKey(source)) {
		t.Fatal("successful parse was not cached")
	}

	again, err := p.Parse(ctx, source)
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if renderer.renders.Load() != 1 || planner.calls.Load() != 1 {
		t.Errorf("cache hit still rendered %d / planned %d times", renderer.renders.Load(), planner.calls.Load())
	}
	if again.Name != f.Name || len(again.Lineup) != len(f.Lineup) {
		t.Errorf("cached result differs: %+v", again)
	}
}

func TestParser_Failures(t *testing.T) {
	t.Parallel()

	transient := models.NewOpError(models.KindTransientFetch, "fetch", "s", errors.New("503"))

	tests := []struct {
		name        string
		renderer    *fakeRenderer
		planner     Planner
		wantKind    models.ErrorKind
		wantRelease int32
	}{
		{
			name:     "no planner",
			renderer: &fakeRenderer{html: lineupHTML},
			planner:  nil,
			wantKind: models.KindConfiguration,
		},
		{
			name:     "render keeps fetch classification",
			renderer: &fakeRenderer{err: transient},
			planner:  &fakePlanner{plan: lineupPlan()},
			wantKind: models.KindTransientFetch,
		},
		{
			name:     "render plain error",
			renderer: &fakeRenderer{err: errors.New("boom")},
			planner:  &fakePlanner{plan: lineupPlan()},
			wantKind: models.KindExtraction,
		},
		{
			name:        "planner error",
			renderer:    &fakeRenderer{html: lineupHTML},
			planner:     &fakePlanner{err: errors.New("model unavailable")},
			wantKind:    models.KindExtraction,
			wantRelease: 1,
		},
		{
			name:        "plan matches nothing",
			renderer:    &fakeRenderer{html: lineupHTML},
			planner:     &fakePlanner{plan: &Plan{Lineup: LineupRules{Item: "table.none"}}},
			wantKind:    models.KindExtraction,
			wantRelease: 1,
		},
		{
			name:     "result fails schema",
			renderer: &fakeRenderer{html: lineupHTML},
			planner: &fakePlanner{plan: func() *Plan {
				p := lineupPlan()
				p.Festival.Location = nil
				return p
			}()},
			wantKind:    models.KindValidation,
			wantRelease: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := cache.NewMemory(time.Hour)
			t.Cleanup(func() { _ = store.Close() })

			p := NewParser(tt.renderer, tt.planner, store, zerolog.Nop())

			_, err := p.Parse(context.Background(), "https://fest.example")
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if got := models.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf = %q, want %q (err %v)", got, tt.wantKind, err)
			}
			if got := tt.renderer.releases.Load(); got != tt.wantRelease {
				t.Errorf("releases = %d, want %d", got, tt.wantRelease)
			}
			if store.Has(context.Background(), cache.ParseKey("https://fest.example")) {
				t.Error("failed parse was cached")
			}
		})
	}
}

func TestParser_TruncatesPlannerInput(t *testing.T) {
	t.Parallel()

	planner := &fakePlanner{plan: lineupPlan()}
	p := NewParser(&fakeRenderer{html: lineupHTML}, planner, nil, zerolog.Nop(), WithMaxPlanInput(64))

	if _, err := p.Parse(context.Background(), "https://pitchfork.example/lineup"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	shown, _ := planner.input.Load().(string)
	if len(shown) > 64 {
		t.Errorf("planner input %d bytes, want <= 64", len(shown))
	}
}

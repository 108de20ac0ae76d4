// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package festival

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/enrichment"
	"github.com/tomtom215/lineup/internal/identity"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/repository"
)

// mockCrawler returns a copy of festival for every crawl.
type mockCrawler struct {
	mu       sync.Mutex
	festival *models.Festival
	err      error
	held     bool
	crawls   int
	forgets  int
}

func (m *mockCrawler) CrawlFestival(ctx context.Context, sources []string) (*models.Festival, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crawls++
	if m.err != nil {
		return nil, m.err
	}
	return cloneFestival(m.festival), nil
}

func (m *mockCrawler) Review(ctx context.Context, sources []string) (*models.Festival, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held {
		return nil, false
	}
	return cloneFestival(m.festival), true
}

func (m *mockCrawler) Forget(ctx context.Context, sources []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgets++
}

// mockLinker links every unlinked act to "artist-<name>" and reports each
// as created.
type mockLinker struct {
	mu       sync.Mutex
	calls    int
	lastOpts int
	err      error
	resolved *models.Artist
}

func (m *mockLinker) ResolveArtistIdentity(ctx context.Context, name, hint string) (*models.Artist, error) {
	return m.resolved, nil
}

func (m *mockLinker) LinkLineup(ctx context.Context, f *models.Festival, opts ...identity.LinkOption) (identity.LinkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastOpts = len(opts)
	if m.err != nil {
		return identity.LinkResult{}, m.err
	}
	var res identity.LinkResult
	for i := range f.Lineup {
		if f.Lineup[i].ArtistID != "" {
			continue
		}
		id := "artist-" + f.Lineup[i].ArtistName
		f.Lineup[i].ArtistID = id
		res.Linked++
		res.Created = append(res.Created, id)
	}
	return res, nil
}

type mockQueue struct {
	mu   sync.Mutex
	jobs []enrichment.Job
}

func (m *mockQueue) Publish(ctx context.Context, jobs ...enrichment.Job) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, jobs...)
	return len(jobs), nil
}

type mockRecommender struct {
	got *models.Festival
}

func (m *mockRecommender) GenerateRecommendations(ctx context.Context, f *models.Festival, prefs models.Preferences) ([]models.Recommendation, error) {
	m.got = f
	return []models.Recommendation{{Act: f.Lineup[0], Score: 0.9}}, nil
}

func cloneFestival(f *models.Festival) *models.Festival {
	c := *f
	c.Lineup = append([]models.Act(nil), f.Lineup...)
	c.Stages = append([]string(nil), f.Stages...)
	return &c
}

func sampleFestival() *models.Festival {
	return &models.Festival{
		Name:      "Primavera Sound",
		Location:  "Barcelona",
		StartDate: "2024-05-29",
		EndDate:   "2024-06-02",
		Lineup: []models.Act{
			{ArtistName: "Pulp", Date: "2024-05-30", Time: "23:00", Stage: "Estrella Damm"},
			{ArtistName: "Mitski", Date: "2024-05-31", Time: "21:10", Stage: "Cupra"},
		},
	}
}

type fixture struct {
	svc         *Service
	crawler     *mockCrawler
	linker      *mockLinker
	queue       *mockQueue
	recommender *mockRecommender
	repo        *repository.Badger
	store       *cache.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := repository.Open(repository.Config{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	store := cache.NewMemory(0)
	t.Cleanup(func() {
		_ = store.Close()
		_ = repo.Close()
	})

	f := &fixture{
		crawler:     &mockCrawler{festival: sampleFestival(), held: true},
		linker:      &mockLinker{},
		queue:       &mockQueue{},
		recommender: &mockRecommender{},
		repo:        repo,
		store:       store,
	}
	f.svc = NewService(Deps{
		Crawler:     f.crawler,
		Repository:  repo,
		Linker:      f.linker,
		Recommender: f.recommender,
		Queue:       f.queue,
		Store:       store,
	}, zerolog.Nop())
	t.Cleanup(f.svc.Wait)
	return f
}

func TestSaveFestival_RejectsInvalid(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	bad := sampleFestival()
	bad.Location = ""
	_, err := fx.svc.SaveFestival(context.Background(), bad)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("SaveFestival() error = %v, want validation error", err)
	}
	if models.KindOf(err) != models.KindValidation {
		t.Errorf("KindOf() = %v, want validation", models.KindOf(err))
	}
	if fx.linker.calls != 0 {
		t.Error("linker called for invalid festival")
	}
	all, _ := fx.repo.GetAllFestivals(context.Background())
	if len(all) != 0 {
		t.Errorf("stored %d festivals, want 0", len(all))
	}
}

func TestSaveFestival_LinksPersistsAndInvalidates(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	in := sampleFestival()
	id := models.FestivalID(in.Name, in.Location, in.StartDate)
	fx.store.Set(ctx, cache.FestivalKey(id), []byte(`{"name":"stale"}`), cache.FestivalTTL)
	fx.store.Set(ctx, cache.RecommendationKey(id, "abc"), []byte(`[]`), cache.RecommendationTTL)
	fx.store.Set(ctx, cache.RecommendationKey("other", "abc"), []byte(`[]`), cache.RecommendationTTL)

	saved, err := fx.svc.SaveFestival(ctx, in)
	if err != nil {
		t.Fatalf("SaveFestival() error = %v", err)
	}
	fx.svc.Wait()

	if saved.ID != id {
		t.Errorf("ID = %q, want %q", saved.ID, id)
	}
	if fx.linker.lastOpts != 0 {
		t.Error("save should link with inline enrichment")
	}
	for _, act := range saved.Lineup {
		if act.ID == "" || act.ArtistID == "" || act.FestivalID != id {
			t.Errorf("act not assigned/linked: %+v", act)
		}
	}

	stored, err := fx.repo.GetFestivalByID(ctx, id)
	if err != nil || stored == nil {
		t.Fatalf("GetFestivalByID() = %v, %v", stored, err)
	}
	if stored.Lineup[0].ArtistID != "artist-Pulp" {
		t.Errorf("stored ArtistID = %q", stored.Lineup[0].ArtistID)
	}

	if fx.store.Has(ctx, cache.FestivalKey(id)) || fx.store.Has(ctx, cache.RecommendationKey(id, "abc")) {
		t.Error("festival-scoped keys survived save")
	}
	if !fx.store.Has(ctx, cache.RecommendationKey("other", "abc")) {
		t.Error("unrelated festival key was invalidated")
	}
	if len(fx.queue.jobs) != 0 {
		t.Errorf("queued %d jobs on plain save", len(fx.queue.jobs))
	}
}

func TestSaveFestival_LinkAbort(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	fx.linker.err = context.Canceled

	if _, err := fx.svc.SaveFestival(context.Background(), sampleFestival()); !errors.Is(err, context.Canceled) {
		t.Fatalf("SaveFestival() error = %v, want context.Canceled", err)
	}
	all, _ := fx.repo.GetAllFestivals(context.Background())
	if len(all) != 0 {
		t.Error("festival saved after linking aborted")
	}
}

func TestSaveCrawled(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	saved, err := fx.svc.SaveCrawled(ctx, []string{"https://example.com"})
	if err != nil {
		t.Fatalf("SaveCrawled() error = %v", err)
	}
	if got, _ := fx.repo.GetFestivalByID(ctx, saved.ID); got == nil {
		t.Error("held festival not stored")
	}

	fx.crawler.mu.Lock()
	fx.crawler.held = false
	fx.crawler.mu.Unlock()
	if _, err := fx.svc.SaveCrawled(ctx, []string{"https://example.com"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("SaveCrawled() without review = %v, want validation error", err)
	}
}

func TestGetFestival_ReadThrough(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	saved, err := fx.svc.SaveFestival(ctx, sampleFestival())
	if err != nil {
		t.Fatalf("SaveFestival() error = %v", err)
	}
	fx.svc.Wait()

	got, err := fx.svc.GetFestival(ctx, saved.ID)
	if err != nil || got == nil || got.Name != saved.Name {
		t.Fatalf("GetFestival() = %+v, %v", got, err)
	}
	if !fx.store.Has(ctx, cache.FestivalKey(saved.ID)) {
		t.Error("festival not cached after read")
	}

	missing, err := fx.svc.GetFestival(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetFestival(unknown) = %v, %v; want nil, nil", missing, err)
	}
}

func TestGenerateRecommendations(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	recs, err := fx.svc.GenerateRecommendations(ctx, "unknown", models.Preferences{})
	if err != nil || recs != nil {
		t.Fatalf("unknown festival = %v, %v; want nil, nil", recs, err)
	}

	saved, _ := fx.svc.SaveFestival(ctx, sampleFestival())
	fx.svc.Wait()
	recs, err = fx.svc.GenerateRecommendations(ctx, saved.ID, models.Preferences{})
	if err != nil {
		t.Fatalf("GenerateRecommendations() error = %v", err)
	}
	if len(recs) != 1 || fx.recommender.got == nil || fx.recommender.got.ID != saved.ID {
		t.Errorf("recommender not called with stored festival: %v", recs)
	}
}

func TestMissingCollaborators(t *testing.T) {
	t.Parallel()
	repo, err := repository.Open(repository.Config{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	svc := NewService(Deps{Repository: repo}, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"crawl", func() error { _, err := svc.CrawlFestival(ctx, []string{"x"}); return err }},
		{"resolve", func() error { _, err := svc.ResolveArtistIdentity(ctx, "Pulp", ""); return err }},
		{"recommend", func() error { _, err := svc.GenerateRecommendations(ctx, "x", models.Preferences{}); return err }},
		{"recrawl", func() error { _, err := svc.RecrawlFestival(ctx, "x", []string{"x"}, false); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}

	// Saving works without a linker; acts stay unlinked.
	saved, err := svc.SaveFestival(ctx, sampleFestival())
	if err != nil {
		t.Fatalf("SaveFestival() error = %v", err)
	}
	svc.Wait()
	if saved.Lineup[0].ArtistID != "" {
		t.Error("act linked without a linker")
	}
}

func TestRecrawlFestival_KeepsIDsAndLinks(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.svc.SaveFestival(ctx, sampleFestival())
	if err != nil {
		t.Fatalf("SaveFestival() error = %v", err)
	}
	fx.svc.Wait()
	pulpActID := first.Lineup[0].ID

	// The new crawl renames the festival and adds an act.
	next := sampleFestival()
	next.Name = "Primavera Sound Barcelona"
	next.Lineup = append(next.Lineup, models.Act{ArtistName: "Vampire Weekend", Date: "2024-06-01"})
	fx.crawler.mu.Lock()
	fx.crawler.festival = next
	fx.crawler.mu.Unlock()

	got, err := fx.svc.RecrawlFestival(ctx, first.ID, []string{"https://example.com"}, false)
	if err != nil {
		t.Fatalf("RecrawlFestival() error = %v", err)
	}
	fx.svc.Wait()

	if got.ID != first.ID {
		t.Errorf("ID = %q, want stored %q", got.ID, first.ID)
	}
	if got.Lineup[0].ID != pulpActID {
		t.Errorf("act ID = %q, want %q kept", got.Lineup[0].ID, pulpActID)
	}
	if got.Lineup[2].ArtistID != "artist-Vampire Weekend" {
		t.Errorf("new act ArtistID = %q", got.Lineup[2].ArtistID)
	}
	if fx.crawler.forgets != 0 {
		t.Error("Forget called without force")
	}
	if fx.linker.lastOpts != 0 {
		t.Error("unforced re-crawl should enrich inline")
	}
	if len(fx.queue.jobs) != 0 {
		t.Errorf("queued %d jobs without force", len(fx.queue.jobs))
	}

	stored, _ := fx.repo.GetFestivalByID(ctx, first.ID)
	if stored == nil || stored.Name != "Primavera Sound Barcelona" || len(stored.Lineup) != 3 {
		t.Errorf("stored festival = %+v", stored)
	}
}

func TestRecrawlFestival_ForceQueuesEnrichment(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.svc.SaveFestival(ctx, sampleFestival())
	if err != nil {
		t.Fatalf("SaveFestival() error = %v", err)
	}
	fx.svc.Wait()

	next := sampleFestival()
	next.Lineup = append(next.Lineup, models.Act{ArtistName: "Justice"})
	fx.crawler.mu.Lock()
	fx.crawler.festival = next
	fx.crawler.mu.Unlock()

	if _, err := fx.svc.RecrawlFestival(ctx, first.ID, []string{"https://example.com"}, true); err != nil {
		t.Fatalf("RecrawlFestival() error = %v", err)
	}
	fx.svc.Wait()

	if fx.crawler.forgets != 1 {
		t.Errorf("forgets = %d, want 1", fx.crawler.forgets)
	}
	if fx.linker.lastOpts != 1 {
		t.Error("forced re-crawl should defer enrichment")
	}
	if len(fx.queue.jobs) != 1 {
		t.Fatalf("queued %d jobs, want 1", len(fx.queue.jobs))
	}
	if job := fx.queue.jobs[0]; job.ArtistID != "artist-Justice" || job.FestivalID != first.ID {
		t.Errorf("job = %+v", job)
	}
}

func TestRecrawlFestival_NewRecordBehavesLikeSave(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	got, err := fx.svc.RecrawlFestival(ctx, "fresh", []string{"https://example.com"}, true)
	if err != nil {
		t.Fatalf("RecrawlFestival() error = %v", err)
	}
	fx.svc.Wait()

	want := models.FestivalID(got.Name, got.Location, got.StartDate)
	if got.ID != want {
		t.Errorf("ID = %q, want derived %q", got.ID, want)
	}
	if fx.linker.lastOpts != 0 || len(fx.queue.jobs) != 0 {
		t.Error("new record should be enriched inline")
	}
}

func TestRecrawlFestival_CrawlError(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	crawlErr := models.NewOpError(models.KindExtraction, "crawl", "x", errors.New("no lineup"))
	fx.crawler.err = crawlErr

	if _, err := fx.svc.RecrawlFestival(context.Background(), "x", []string{"x"}, false); !errors.Is(err, models.ErrExtraction) {
		t.Errorf("RecrawlFestival() error = %v, want extraction error", err)
	}
}

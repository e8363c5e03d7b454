package memory_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlocalize/localizer-backend/internal/adapter/postgres/memory"
	"github.com/openlocalize/localizer-backend/internal/adapter/postgres/testhelper"
	"github.com/openlocalize/localizer-backend/internal/domain"
	"github.com/openlocalize/localizer-backend/internal/fuzzy"
)

func newRepo(t *testing.T) (*memory.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return memory.New(pool), pool
}

func seedCorpus(t *testing.T, repo *memory.Repo, localeID, projectID uuid.UUID, sources ...string) map[string]uuid.UUID {
	t.Helper()
	ctx := context.Background()
	bySource := make(map[string]uuid.UUID, len(sources))
	for _, source := range sources {
		e := &domain.MemoryEntry{
			ID:            uuid.New(),
			Source:        source,
			Target:        "target of " + source,
			TranslationID: uuid.Nil,
			LocaleID:      localeID,
			ProjectID:     projectID,
		}
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("Insert %q: %v", source, err)
		}
		bySource[source] = e.ID
	}
	return bySource
}

func searchQuery(text string, localeID uuid.UUID) domain.MemoryQuery {
	minDist, maxDist := fuzzy.Window(len([]rune(text)), 0.7)
	return domain.MemoryQuery{
		Text:       text,
		LocaleID:   localeID,
		MinQuality: 0.7,
		MinDist:    minDist,
		MaxDist:    maxDist,
		Limit:      100,
	}
}

func TestRepo_SearchScored(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	f := testhelper.SeedHierarchy(t, pool, "fr-"+uuid.NewString()[:8], 2, 1)
	seedCorpus(t, repo, f.LocaleID, f.ProjectID,
		"hello world", // exact
		"hello word",  // one deletion
		"abc",         // excluded by the length window
		"completely different sentence here", // excluded by length too
	)

	matches, err := repo.SearchScored(ctx, searchQuery("hello world", f.LocaleID))
	if err != nil {
		t.Fatalf("SearchScored: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}

	if matches[0].Entry.Source != "hello world" {
		t.Errorf("best match: got %q", matches[0].Entry.Source)
	}
	if math.Abs(matches[0].Quality-100) > 1e-9 {
		t.Errorf("exact match quality: got %v, want 100", matches[0].Quality)
	}

	if matches[1].Entry.Source != "hello word" {
		t.Errorf("second match: got %q", matches[1].Entry.Source)
	}
	wantSecond := fuzzy.Ratio("hello word", "hello world") * 100
	if math.Abs(matches[1].Quality-wantSecond) > 1e-6 {
		t.Errorf("SQL and Go ratios disagree: got %v, want %v", matches[1].Quality, wantSecond)
	}
}

func TestRepo_SearchScoredProjectFilter(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	f := testhelper.SeedHierarchy(t, pool, "de-"+uuid.NewString()[:8], 2, 1)
	other := testhelper.SeedProject(t, pool, "other-"+uuid.NewString()[:8], false)
	seedCorpus(t, repo, f.LocaleID, f.ProjectID, "hello world")
	seedCorpus(t, repo, f.LocaleID, other, "hello world!")

	q := searchQuery("hello world", f.LocaleID)
	q.ProjectID = f.ProjectID

	matches, err := repo.SearchScored(ctx, q)
	if err != nil {
		t.Fatalf("SearchScored: %v", err)
	}
	if len(matches) != 1 || matches[0].Entry.Source != "hello world" {
		t.Fatalf("project filter leaked: %+v", matches)
	}
}

func TestRepo_SearchPrefix(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	f := testhelper.SeedHierarchy(t, pool, "es-"+uuid.NewString()[:8], 2, 1)

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	seedCorpus(t, repo, f.LocaleID, f.ProjectID, string(long), "short one")

	text := string(long[:399]) + "b"
	q := searchQuery(text, f.LocaleID)
	prefix := text[:fuzzy.PrefixLimit]

	entries, err := repo.SearchPrefix(ctx, q, prefix)
	if err != nil {
		t.Fatalf("SearchPrefix: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Source) != 400 {
		t.Fatalf("expected only the long candidate, got %+v", entries)
	}
}

func TestRepo_InsertSkipsOwnedTranslation(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	f := testhelper.SeedHierarchy(t, pool, "it-"+uuid.NewString()[:8], 2, 1)
	entityID := testhelper.SeedEntity(t, pool, f.ResourceID, "greeting", "Hello", "")

	translationID := uuid.New()
	if _, err := pool.Exec(ctx,
		`INSERT INTO translations (id, entity_id, locale_id, string, state) VALUES ($1, $2, $3, 'Ciao', 'APPROVED')`,
		translationID, entityID, f.LocaleID); err != nil {
		t.Fatalf("seed translation: %v", err)
	}

	entry := &domain.MemoryEntry{
		ID: uuid.New(), Source: "Hello", Target: "Ciao",
		EntityID: entityID, TranslationID: translationID,
		LocaleID: f.LocaleID, ProjectID: f.ProjectID,
	}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	dup := *entry
	dup.ID = uuid.New()
	if err := repo.Insert(ctx, &dup); err != nil {
		t.Fatalf("Insert duplicate: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM memory_entries WHERE translation_id = $1`, translationID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one live entry per translation, got %d", count)
	}

	if err := repo.DeleteForTranslation(ctx, translationID); err != nil {
		t.Fatalf("DeleteForTranslation: %v", err)
	}
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM memory_entries WHERE translation_id = $1`, translationID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected entry deleted, got %d", count)
	}
}

func TestRepo_DeleteForTranslations(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	f := testhelper.SeedHierarchy(t, pool, "ru-"+uuid.NewString()[:8], 3, 1)
	entityID := testhelper.SeedEntity(t, pool, f.ResourceID, "greeting", "Hello", "")

	var ids []uuid.UUID
	for _, s := range []string{"Privet", "Zdravstvuyte"} {
		trID := uuid.New()
		if _, err := pool.Exec(ctx,
			`INSERT INTO translations (id, entity_id, locale_id, string, state) VALUES ($1, $2, $3, $4, 'APPROVED')`,
			trID, entityID, f.LocaleID, s); err != nil {
			t.Fatalf("seed translation: %v", err)
		}
		if err := repo.Insert(ctx, &domain.MemoryEntry{
			ID: uuid.New(), Source: "Hello", Target: s,
			EntityID: entityID, TranslationID: trID,
			LocaleID: f.LocaleID, ProjectID: f.ProjectID,
		}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		ids = append(ids, trID)
	}

	if err := repo.DeleteForTranslations(ctx, ids); err != nil {
		t.Fatalf("DeleteForTranslations: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM memory_entries WHERE locale_id = $1`, f.LocaleID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected all entries deleted, got %d", count)
	}
}

package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fixture bundles the hierarchy rows most adapter tests need: one locale,
// one project enabled for it, one resource, and its translated resource.
type Fixture struct {
	LocaleID             uuid.UUID
	ProjectID            uuid.UUID
	ProjectLocaleID      uuid.UUID
	ResourceID           uuid.UUID
	TranslatedResourceID uuid.UUID
}

// SeedLocale inserts a locale with the given plural-category count.
func SeedLocale(t *testing.T, pool *pgxpool.Pool, code string, nplurals int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO locales (id, code, name, nplurals) VALUES ($1, $2, $2, $3)`,
		id, code, nplurals)
	if err != nil {
		t.Fatalf("seed locale %s: %v", code, err)
	}
	return id
}

// SeedProject inserts a project.
func SeedProject(t *testing.T, pool *pgxpool.Pool, slug string, system bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO projects (id, slug, name, system_project) VALUES ($1, $2, $2, $3)`,
		id, slug, system)
	if err != nil {
		t.Fatalf("seed project %s: %v", slug, err)
	}
	return id
}

// SeedHierarchy inserts a locale, project, project-locale, resource, and
// translated resource with the given entity capacity.
func SeedHierarchy(t *testing.T, pool *pgxpool.Pool, localeCode string, nplurals, totalStrings int) Fixture {
	t.Helper()

	ctx := context.Background()
	f := Fixture{
		LocaleID:             SeedLocale(t, pool, localeCode, nplurals),
		ProjectID:            SeedProject(t, pool, "proj-"+localeCode+"-"+uuid.NewString()[:8], false),
		ProjectLocaleID:      uuid.New(),
		ResourceID:           uuid.New(),
		TranslatedResourceID: uuid.New(),
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO project_locales (id, project_id, locale_id, total_strings)
		 VALUES ($1, $2, $3, $4)`,
		f.ProjectLocaleID, f.ProjectID, f.LocaleID, totalStrings); err != nil {
		t.Fatalf("seed project locale: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO resources (id, project_id, path, total_strings)
		 VALUES ($1, $2, 'app.ftl', $3)`,
		f.ResourceID, f.ProjectID, totalStrings); err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO translated_resources (id, resource_id, locale_id, total_strings)
		 VALUES ($1, $2, $3, $4)`,
		f.TranslatedResourceID, f.ResourceID, f.LocaleID, totalStrings); err != nil {
		t.Fatalf("seed translated resource: %v", err)
	}

	if _, err := pool.Exec(ctx,
		`UPDATE projects SET total_strings = $2 WHERE id = $1`,
		f.ProjectID, totalStrings); err != nil {
		t.Fatalf("seed project totals: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`UPDATE locales SET total_strings = $2 WHERE id = $1`,
		f.LocaleID, totalStrings); err != nil {
		t.Fatalf("seed locale totals: %v", err)
	}

	return f
}

// SeedEntity inserts a non-obsolete entity into the fixture's resource.
// stringPlural may be empty for non-pluralized entities.
func SeedEntity(t *testing.T, pool *pgxpool.Pool, resourceID uuid.UUID, key, source, stringPlural string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO entities (id, resource_id, key, string, string_plural)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, resourceID, key, source, stringPlural)
	if err != nil {
		t.Fatalf("seed entity %s: %v", key, err)
	}
	return id
}

// Package entity implements read access to the localization hierarchy:
// entities, their resources and projects, and locale lookups.
package entity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	"github.com/openlocalize/localizer-backend/internal/domain"
)

// Repo provides hierarchy reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new entity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getScopeSQL = `
SELECT
    e.id, e.resource_id, e.key, e.string, e.string_plural, e.comment, e."order", e.obsolete,
    r.id, r.project_id, r.path, r.total_strings,
    p.id, p.slug, p.name, p.system_project, p.disabled,
    l.id, l.code, l.name, l.nplurals,
    EXISTS (
        SELECT 1 FROM project_locales pl
        WHERE pl.project_id = p.id AND pl.locale_id = l.id
    )
FROM entities e
JOIN resources r ON r.id = e.resource_id
JOIN projects p ON p.id = r.project_id
JOIN locales l ON l.id = $2
WHERE e.id = $1`

// GetScope loads an entity together with its resource, project, the target
// locale, and whether the locale is enabled for the project. A missing
// entity or locale both surface as domain.ErrNotFound.
func (r *Repo) GetScope(ctx context.Context, entityID, localeID uuid.UUID) (*domain.EntityScope, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.EntityScope
	err := querier.QueryRow(ctx, getScopeSQL, entityID, localeID).Scan(
		&s.Entity.ID, &s.Entity.ResourceID, &s.Entity.Key, &s.Entity.String,
		&s.Entity.StringPlural, &s.Entity.Comment, &s.Entity.Order, &s.Entity.Obsolete,
		&s.Resource.ID, &s.Resource.ProjectID, &s.Resource.Path, &s.Resource.TotalStrings,
		&s.Project.ID, &s.Project.Slug, &s.Project.Name, &s.Project.SystemProject, &s.Project.Disabled,
		&s.Locale.ID, &s.Locale.Code, &s.Locale.Name, &s.Locale.NPlurals,
		&s.HasProjectLocale,
	)
	if err != nil {
		return nil, postgres.MapError(err, "entity", entityID)
	}

	return &s, nil
}

const listNonObsoleteForResourceSQL = `
SELECT e.id, e.resource_id, e.key, e.string, e.string_plural, e.comment, e."order", e.obsolete
FROM entities e
WHERE e.resource_id = $1 AND NOT e.obsolete
ORDER BY e."order", e.id`

// ListNonObsoleteForResource returns the live entities of a resource in
// display order.
func (r *Repo) ListNonObsoleteForResource(ctx context.Context, resourceID uuid.UUID) ([]domain.Entity, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listNonObsoleteForResourceSQL, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list entities for resource %s: %w", resourceID, err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.Key, &e.String, &e.StringPlural,
			&e.Comment, &e.Order, &e.Obsolete); err != nil {
			return nil, fmt.Errorf("list entities for resource %s: %w", resourceID, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities for resource %s: %w", resourceID, err)
	}

	return entities, nil
}

const getLocaleByCodeSQL = `
SELECT id, code, name, nplurals FROM locales WHERE code = $1`

// GetLocaleByCode resolves a locale by its BCP 47 code.
func (r *Repo) GetLocaleByCode(ctx context.Context, code string) (*domain.Locale, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Locale
	err := querier.QueryRow(ctx, getLocaleByCodeSQL, code).Scan(&l.ID, &l.Code, &l.Name, &l.NPlurals)
	if err != nil {
		return nil, postgres.MapError(err, "locale", code)
	}

	return &l, nil
}

const getLocaleSQL = `
SELECT id, code, name, nplurals FROM locales WHERE id = $1`

// GetLocale resolves a locale by ID.
func (r *Repo) GetLocale(ctx context.Context, id uuid.UUID) (*domain.Locale, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var l domain.Locale
	err := querier.QueryRow(ctx, getLocaleSQL, id).Scan(&l.ID, &l.Code, &l.Name, &l.NPlurals)
	if err != nil {
		return nil, postgres.MapError(err, "locale", id)
	}

	return &l, nil
}

const getProjectBySlugSQL = `
SELECT id, slug, name, system_project, disabled FROM projects WHERE slug = $1`

// GetProjectBySlug resolves a project by its slug.
func (r *Repo) GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.Project
	err := querier.QueryRow(ctx, getProjectBySlugSQL, slug).Scan(
		&p.ID, &p.Slug, &p.Name, &p.SystemProject, &p.Disabled)
	if err != nil {
		return nil, postgres.MapError(err, "project", slug)
	}

	return &p, nil
}

const getResourceByPathSQL = `
SELECT id, project_id, path, total_strings FROM resources WHERE project_id = $1 AND path = $2`

// GetResourceByPath resolves a resource by project and path.
func (r *Repo) GetResourceByPath(ctx context.Context, projectID uuid.UUID, path string) (*domain.Resource, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var res domain.Resource
	err := querier.QueryRow(ctx, getResourceByPathSQL, projectID, path).Scan(
		&res.ID, &res.ProjectID, &res.Path, &res.TotalStrings)
	if err != nil {
		return nil, postgres.MapError(err, "resource", path)
	}

	return &res, nil
}

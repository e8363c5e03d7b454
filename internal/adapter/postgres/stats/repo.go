// Package stats implements the stats ledger repository: denormalized
// six-counter rows on translated resources, projects, project-locales and
// locales, addressed through domain.StatsNode.
package stats

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	"github.com/openlocalize/localizer-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides stats persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new stats repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var counterColumns = []string{
	"total_strings",
	"approved_strings",
	"pretranslated_strings",
	"strings_with_errors",
	"strings_with_warnings",
	"unreviewed_strings",
}

// nodeTarget resolves a stats node to its table and row predicate.
func nodeTarget(node domain.StatsNode) (table string, pred sq.Eq, err error) {
	if err := node.Validate(); err != nil {
		return "", nil, err
	}

	switch node.Kind {
	case domain.NodeTranslatedResource:
		return "translated_resources", sq.Eq{"resource_id": node.ResourceID, "locale_id": node.LocaleID}, nil
	case domain.NodeProject:
		return "projects", sq.Eq{"id": node.ProjectID}, nil
	case domain.NodeProjectLocale:
		return "project_locales", sq.Eq{"project_id": node.ProjectID, "locale_id": node.LocaleID}, nil
	case domain.NodeLocale:
		return "locales", sq.Eq{"id": node.LocaleID}, nil
	}
	return "", nil, fmt.Errorf("stats node %s: %w", node, domain.ErrValidation)
}

// Get returns the stored counters of a node.
func (r *Repo) Get(ctx context.Context, node domain.StatsNode) (domain.Stats, error) {
	table, pred, err := nodeTarget(node)
	if err != nil {
		return domain.Stats{}, err
	}

	query, args, err := psql.Select(counterColumns...).From(table).Where(pred).ToSql()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("build stats query for %s: %w", node, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var s domain.Stats
	if err := querier.QueryRow(ctx, query, args...).Scan(
		&s.Total, &s.Approved, &s.Pretranslated, &s.Errors, &s.Warnings, &s.Unreviewed,
	); err != nil {
		return domain.Stats{}, postgres.MapError(err, "stats node", node.String())
	}

	return s, nil
}

// Adjust applies a relative diff to all six counters of a node in a single
// UPDATE, so concurrent adjustments of the same row never lose increments.
func (r *Repo) Adjust(ctx context.Context, node domain.StatsNode, diff domain.Stats) error {
	if diff.IsZero() {
		return nil
	}

	table, pred, err := nodeTarget(node)
	if err != nil {
		return err
	}

	deltas := []int{diff.Total, diff.Approved, diff.Pretranslated, diff.Errors, diff.Warnings, diff.Unreviewed}

	b := psql.Update(table).Where(pred)
	for i, col := range counterColumns {
		b = b.Set(col, sq.Expr(col+" + ?", deltas[i]))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build stats adjust for %s: %w", node, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "stats node", node.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stats node %s: %w", node, domain.ErrNotFound)
	}

	return nil
}

// SetAbsolute overwrites all six counters of a node with recalculated values.
func (r *Repo) SetAbsolute(ctx context.Context, node domain.StatsNode, s domain.Stats) error {
	table, pred, err := nodeTarget(node)
	if err != nil {
		return err
	}

	values := []int{s.Total, s.Approved, s.Pretranslated, s.Errors, s.Warnings, s.Unreviewed}

	b := psql.Update(table).Where(pred)
	for i, col := range counterColumns {
		b = b.Set(col, values[i])
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build stats set for %s: %w", node, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "stats node", node.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stats node %s: %w", node, domain.ErrNotFound)
	}

	return nil
}

const aggregateForProjectSQL = `
UPDATE projects p SET
    total_strings = agg.total,
    approved_strings = agg.approved,
    pretranslated_strings = agg.pretranslated,
    strings_with_errors = agg.errors,
    strings_with_warnings = agg.warnings,
    unreviewed_strings = agg.unreviewed
FROM (
    SELECT
        COALESCE(SUM(tr.total_strings), 0) AS total,
        COALESCE(SUM(tr.approved_strings), 0) AS approved,
        COALESCE(SUM(tr.pretranslated_strings), 0) AS pretranslated,
        COALESCE(SUM(tr.strings_with_errors), 0) AS errors,
        COALESCE(SUM(tr.strings_with_warnings), 0) AS warnings,
        COALESCE(SUM(tr.unreviewed_strings), 0) AS unreviewed
    FROM translated_resources tr
    JOIN resources r ON r.id = tr.resource_id
    WHERE r.project_id = $1
) agg
WHERE p.id = $1`

const aggregateForProjectLocaleSQL = `
UPDATE project_locales pl SET
    total_strings = agg.total,
    approved_strings = agg.approved,
    pretranslated_strings = agg.pretranslated,
    strings_with_errors = agg.errors,
    strings_with_warnings = agg.warnings,
    unreviewed_strings = agg.unreviewed
FROM (
    SELECT
        COALESCE(SUM(tr.total_strings), 0) AS total,
        COALESCE(SUM(tr.approved_strings), 0) AS approved,
        COALESCE(SUM(tr.pretranslated_strings), 0) AS pretranslated,
        COALESCE(SUM(tr.strings_with_errors), 0) AS errors,
        COALESCE(SUM(tr.strings_with_warnings), 0) AS warnings,
        COALESCE(SUM(tr.unreviewed_strings), 0) AS unreviewed
    FROM translated_resources tr
    JOIN resources r ON r.id = tr.resource_id
    WHERE r.project_id = $1 AND tr.locale_id = $2
) agg
WHERE pl.project_id = $1 AND pl.locale_id = $2`

// Locale rollups skip disabled and system projects: internal corpora must
// not skew a locale's public completion numbers.
const aggregateForLocaleSQL = `
UPDATE locales l SET
    total_strings = agg.total,
    approved_strings = agg.approved,
    pretranslated_strings = agg.pretranslated,
    strings_with_errors = agg.errors,
    strings_with_warnings = agg.warnings,
    unreviewed_strings = agg.unreviewed
FROM (
    SELECT
        COALESCE(SUM(tr.total_strings), 0) AS total,
        COALESCE(SUM(tr.approved_strings), 0) AS approved,
        COALESCE(SUM(tr.pretranslated_strings), 0) AS pretranslated,
        COALESCE(SUM(tr.strings_with_errors), 0) AS errors,
        COALESCE(SUM(tr.strings_with_warnings), 0) AS warnings,
        COALESCE(SUM(tr.unreviewed_strings), 0) AS unreviewed
    FROM translated_resources tr
    JOIN resources r ON r.id = tr.resource_id
    JOIN projects p ON p.id = r.project_id
    WHERE tr.locale_id = $1 AND NOT p.disabled AND NOT p.system_project
) agg
WHERE l.id = $1`

// RecalculateAggregate recomputes an aggregate node (project, project-locale
// or locale) as the sum of its translated-resource rows. Translated-resource
// nodes are leaves; recompute them from translations via the stats service.
func (r *Repo) RecalculateAggregate(ctx context.Context, node domain.StatsNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		query string
		args  []any
	)
	switch node.Kind {
	case domain.NodeProject:
		query, args = aggregateForProjectSQL, []any{node.ProjectID}
	case domain.NodeProjectLocale:
		query, args = aggregateForProjectLocaleSQL, []any{node.ProjectID, node.LocaleID}
	case domain.NodeLocale:
		query, args = aggregateForLocaleSQL, []any{node.LocaleID}
	default:
		return fmt.Errorf("aggregate recalculation for %s: %w", node, domain.ErrValidation)
	}

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "stats node", node.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stats node %s: %w", node, domain.ErrNotFound)
	}

	return nil
}

// ListTranslatedResourceNodes enumerates the translated-resource leaves
// inside an aggregate node's scope, so a full recalculation can recompute
// them from translations before re-summing the aggregate.
func (r *Repo) ListTranslatedResourceNodes(ctx context.Context, node domain.StatsNode) ([]domain.StatsNode, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}

	b := psql.Select("tr.resource_id", "tr.locale_id").
		From("translated_resources tr").
		Join("resources r ON r.id = tr.resource_id")

	switch node.Kind {
	case domain.NodeProject:
		b = b.Where(sq.Eq{"r.project_id": node.ProjectID})
	case domain.NodeProjectLocale:
		b = b.Where(sq.Eq{"r.project_id": node.ProjectID, "tr.locale_id": node.LocaleID})
	case domain.NodeLocale:
		b = b.Where(sq.Eq{"tr.locale_id": node.LocaleID})
	default:
		return nil, fmt.Errorf("leaf enumeration for %s: %w", node, domain.ErrValidation)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leaf enumeration for %s: %w", node, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("enumerate leaves of %s: %w", node, err)
	}
	defer rows.Close()

	var leaves []domain.StatsNode
	for rows.Next() {
		var resourceID, localeID uuid.UUID
		if err := rows.Scan(&resourceID, &localeID); err != nil {
			return nil, fmt.Errorf("enumerate leaves of %s: %w", node, err)
		}
		leaves = append(leaves, domain.TranslatedResourceNode(resourceID, localeID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("enumerate leaves of %s: %w", node, err)
	}

	return leaves, nil
}

const ensureTranslatedResourceSQL = `
INSERT INTO translated_resources (id, resource_id, locale_id, total_strings)
SELECT $1, r.id, $3, r.total_strings
FROM resources r
WHERE r.id = $2
ON CONFLICT (resource_id, locale_id) DO NOTHING`

// EnsureTranslatedResource creates the translated-resource row for a
// (resource, locale) pair if it does not exist yet, seeding total_strings
// from the resource.
func (r *Repo) EnsureTranslatedResource(ctx context.Context, resourceID, localeID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, ensureTranslatedResourceSQL, uuid.New(), resourceID, localeID); err != nil {
		return postgres.MapError(err, "translated resource", resourceID)
	}

	return nil
}

// TouchLatestActivity advances a node's latest-activity pointer to at, but
// never moves it backwards. A zero-row update means the node already saw a
// newer event, which is not an error.
func (r *Repo) TouchLatestActivity(ctx context.Context, node domain.StatsNode, at time.Time) error {
	table, pred, err := nodeTarget(node)
	if err != nil {
		return err
	}

	query, args, err := psql.Update(table).
		Set("latest_activity_at", at).
		Where(pred).
		Where(sq.Or{
			sq.Eq{"latest_activity_at": nil},
			sq.Lt{"latest_activity_at": at},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build latest-activity update for %s: %w", node, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "stats node", node.String())
	}

	return nil
}

// Package translation implements the Translation repository using PostgreSQL.
// All mutations run against the querier bound to the context, so service-level
// transactions (TxManager.RunInTx) cover them automatically.
package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	"github.com/openlocalize/localizer-backend/internal/domain"
)

// Repo provides translation persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new translation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const translationColumns = `
    t.id, t.entity_id, t.locale_id, t.user_id, t.string, t.plural_form,
    t.date, t.active, t.state, t.errors, t.warnings,
    t.approved_by, t.approved_at, t.unapproved_by, t.unapproved_at,
    t.rejected_by, t.rejected_at, t.unrejected_by, t.unrejected_at`

const getByIDSQL = `
SELECT` + translationColumns + `
FROM translations t
WHERE t.id = $1`

const listForEntityLocaleSQL = `
SELECT` + translationColumns + `
FROM translations t
WHERE t.entity_id = $1 AND t.locale_id = $2
ORDER BY t.date, t.id`

const listForResourceLocaleSQL = `
SELECT` + translationColumns + `
FROM translations t
JOIN entities e ON e.id = t.entity_id
WHERE e.resource_id = $1 AND t.locale_id = $2 AND NOT e.obsolete
ORDER BY t.entity_id, t.date, t.id`

const createSQL = `
INSERT INTO translations (
    id, entity_id, locale_id, user_id, string, plural_form,
    date, active, state, errors, warnings,
    approved_by, approved_at, unapproved_by, unapproved_at,
    rejected_by, rejected_at, unrejected_by, unrejected_at
) VALUES (
    $1, $2, $3, $4, $5, $6,
    $7, $8, $9, $10, $11,
    $12, $13, $14, $15,
    $16, $17, $18, $19
)`

const updateSQL = `
UPDATE translations SET
    string = $2, date = $3, active = $4, state = $5, errors = $6, warnings = $7,
    approved_by = $8, approved_at = $9, unapproved_by = $10, unapproved_at = $11,
    rejected_by = $12, rejected_at = $13, unrejected_by = $14, unrejected_at = $15
WHERE id = $1`

// plural_form comparisons use IS NOT DISTINCT FROM so that NULL (entities
// without plural variants) matches NULL.
const deactivateSQL = `
UPDATE translations
SET active = false
WHERE entity_id = $1 AND locale_id = $2 AND plural_form IS NOT DISTINCT FROM $3 AND active`

const rejectAllExceptSQL = `
UPDATE translations
SET state = 'REJECTED', active = false,
    rejected_by = $5, rejected_at = $6,
    approved_by = NULL, approved_at = NULL
WHERE entity_id = $1 AND locale_id = $2 AND plural_form IS NOT DISTINCT FROM $3
  AND id <> $4 AND state <> 'REJECTED'
RETURNING id`

// GetByID returns a single translation.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Translation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByIDSQL, id)

	tr, err := scanTranslation(row)
	if err != nil {
		return nil, postgres.MapError(err, "translation", id)
	}

	return tr, nil
}

// ListForEntityLocale returns every translation of an entity in a locale,
// all plural forms and states included, oldest first.
func (r *Repo) ListForEntityLocale(ctx context.Context, entityID, localeID uuid.UUID) ([]*domain.Translation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listForEntityLocaleSQL, entityID, localeID)
	if err != nil {
		return nil, fmt.Errorf("list translations for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	var translations []*domain.Translation
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("list translations for entity %s: %w", entityID, err)
		}
		translations = append(translations, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list translations for entity %s: %w", entityID, err)
	}

	return translations, nil
}

// ListForResourceLocale returns every translation of a resource's live
// entities in one locale, grouped by entity. Used by full stats
// recalculation.
func (r *Repo) ListForResourceLocale(ctx context.Context, resourceID, localeID uuid.UUID) (map[uuid.UUID][]*domain.Translation, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listForResourceLocaleSQL, resourceID, localeID)
	if err != nil {
		return nil, fmt.Errorf("list translations for resource %s: %w", resourceID, err)
	}
	defer rows.Close()

	byEntity := make(map[uuid.UUID][]*domain.Translation)
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("list translations for resource %s: %w", resourceID, err)
		}
		byEntity[tr.EntityID] = append(byEntity[tr.EntityID], tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list translations for resource %s: %w", resourceID, err)
	}

	return byEntity, nil
}

// Create inserts a new translation row.
func (r *Repo) Create(ctx context.Context, t *domain.Translation) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, createSQL,
		t.ID, t.EntityID, t.LocaleID, nullableUUID(t.UserID), t.String, nullableSmallInt(t.PluralForm),
		t.Date, t.Active, string(t.State), t.Errors, t.Warnings,
		nullableUUID(t.ApprovedBy), nullableTime(t.ApprovedAt),
		nullableUUID(t.UnapprovedBy), nullableTime(t.UnapprovedAt),
		nullableUUID(t.RejectedBy), nullableTime(t.RejectedAt),
		nullableUUID(t.UnrejectedBy), nullableTime(t.UnrejectedAt),
	)
	if err != nil {
		return postgres.MapError(err, "translation", t.ID)
	}

	return nil
}

// Update persists the mutable fields of a translation.
func (r *Repo) Update(ctx context.Context, t *domain.Translation) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, updateSQL,
		t.ID, t.String, t.Date, t.Active, string(t.State), t.Errors, t.Warnings,
		nullableUUID(t.ApprovedBy), nullableTime(t.ApprovedAt),
		nullableUUID(t.UnapprovedBy), nullableTime(t.UnapprovedAt),
		nullableUUID(t.RejectedBy), nullableTime(t.RejectedAt),
		nullableUUID(t.UnrejectedBy), nullableTime(t.UnrejectedAt),
	)
	if err != nil {
		return postgres.MapError(err, "translation", t.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("translation %s: %w", t.ID, domain.ErrNotFound)
	}

	return nil
}

// Deactivate clears the active flag on the current translation of one
// (entity, locale, plural form) tuple, if any.
func (r *Repo) Deactivate(ctx context.Context, entityID, localeID uuid.UUID, pluralForm *int) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, deactivateSQL, entityID, localeID, nullableSmallInt(pluralForm)); err != nil {
		return postgres.MapError(err, "translation", entityID)
	}

	return nil
}

// RejectAllExcept rejects every non-rejected sibling of the given translation
// within its (entity, locale, plural form) tuple and returns the affected IDs,
// so the caller can drop their translation memory entries.
func (r *Repo) RejectAllExcept(ctx context.Context, entityID, localeID uuid.UUID, pluralForm *int, exceptID, byUser uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, rejectAllExceptSQL,
		entityID, localeID, nullableSmallInt(pluralForm), exceptID, byUser, at)
	if err != nil {
		return nil, fmt.Errorf("reject siblings of translation %s: %w", exceptID, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("reject siblings of translation %s: %w", exceptID, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reject siblings of translation %s: %w", exceptID, err)
	}

	return ids, nil
}

// scanTranslation scans one row (pgx.Row or pgx.Rows) into a domain.Translation.
func scanTranslation(row pgx.Row) (*domain.Translation, error) {
	var (
		t          domain.Translation
		userID     pgtype.UUID
		pluralForm pgtype.Int2
		state      string

		approvedBy, unapprovedBy, rejectedBy, unrejectedBy pgtype.UUID
		approvedAt, unapprovedAt, rejectedAt, unrejectedAt pgtype.Timestamptz
	)

	if err := row.Scan(
		&t.ID, &t.EntityID, &t.LocaleID, &userID, &t.String, &pluralForm,
		&t.Date, &t.Active, &state, &t.Errors, &t.Warnings,
		&approvedBy, &approvedAt, &unapprovedBy, &unapprovedAt,
		&rejectedBy, &rejectedAt, &unrejectedBy, &unrejectedAt,
	); err != nil {
		return nil, err
	}

	t.State = domain.TranslationState(state)
	t.UserID = uuidPtr(userID)
	if pluralForm.Valid {
		pf := int(pluralForm.Int16)
		t.PluralForm = &pf
	}
	t.ApprovedBy = uuidPtr(approvedBy)
	t.ApprovedAt = timePtr(approvedAt)
	t.UnapprovedBy = uuidPtr(unapprovedBy)
	t.UnapprovedAt = timePtr(unapprovedAt)
	t.RejectedBy = uuidPtr(rejectedBy)
	t.RejectedAt = timePtr(rejectedAt)
	t.UnrejectedBy = uuidPtr(unrejectedBy)
	t.UnrejectedAt = timePtr(unrejectedAt)

	return &t, nil
}

func uuidPtr(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func timePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullableUUID(v *uuid.UUID) pgtype.UUID {
	if v == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *v, Valid: true}
}

func nullableTime(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}

func nullableSmallInt(v *int) pgtype.Int2 {
	if v == nil {
		return pgtype.Int2{}
	}
	return pgtype.Int2{Int16: int16(*v), Valid: true}
}

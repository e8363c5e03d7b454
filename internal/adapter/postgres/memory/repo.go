// Package memory implements the translation memory repository. Fuzzy lookup
// scores candidates with the fuzzystrmatch levenshtein() function using the
// same weights as fuzzy.Ratio (insertion 1, deletion 1, substitution 2).
package memory

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openlocalize/localizer-backend/internal/adapter/postgres"
	"github.com/openlocalize/localizer-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides translation memory persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new memory repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertSQL = `
INSERT INTO memory_entries (id, source, target, entity_id, translation_id, locale_id, project_id)
SELECT $1, $2, $3, $4, $5, $6, $7
WHERE NOT EXISTS (
    SELECT 1 FROM memory_entries WHERE translation_id = $5
)`

// Insert stores a memory entry unless its translation already owns one.
func (r *Repo) Insert(ctx context.Context, e *domain.MemoryEntry) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx, insertSQL,
		e.ID, e.Source, e.Target,
		nullableUUID(e.EntityID), nullableUUID(e.TranslationID),
		e.LocaleID, nullableUUID(e.ProjectID),
	)
	if err != nil {
		return postgres.MapError(err, "memory entry", e.ID)
	}

	return nil
}

// DeleteForTranslation removes the memory entries owned by one translation.
func (r *Repo) DeleteForTranslation(ctx context.Context, translationID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx,
		`DELETE FROM memory_entries WHERE translation_id = $1`, translationID)
	if err != nil {
		return postgres.MapError(err, "memory entry", translationID)
	}

	return nil
}

// DeleteForTranslations removes the memory entries owned by any of the given
// translations.
func (r *Repo) DeleteForTranslations(ctx context.Context, translationIDs []uuid.UUID) error {
	if len(translationIDs) == 0 {
		return nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := querier.Exec(ctx,
		`DELETE FROM memory_entries WHERE translation_id = ANY($1::uuid[])`, translationIDs)
	if err != nil {
		return postgres.MapError(err, "memory entries", len(translationIDs))
	}

	return nil
}

// quality = (len(source) + len(text) - levenshtein) / (len(source) + len(text)),
// the same ratio fuzzy.Ratio computes in Go. char_length counts characters,
// matching the rune-based Go side. The text length operand appears on both
// sides of the division; placeholders are positional, so it binds twice.
const qualityExpr = `(char_length(source) + %[1]s - levenshtein(source, %[2]s, 1, 1, 2))::double precision
    / (char_length(source) + %[1]s)`

func searchScoredQuery(q domain.MemoryQuery) (string, []any, error) {
	scored := fmt.Sprintf(qualityExpr, "?", "?")
	textLen := charLen(q.Text)

	b := psql.Select("id", "source", "target", "entity_id", "translation_id", "locale_id", "project_id").
		Column(sq.Alias(sq.Expr(scored, textLen, q.Text, textLen), "quality")).
		From("memory_entries").
		Where(sq.Eq{"locale_id": q.LocaleID}).
		Where(sq.Expr("char_length(source) BETWEEN ? AND ?", q.MinDist, q.MaxDist)).
		Where(sq.Expr(scored+" > ?", textLen, q.Text, textLen, q.MinQuality)).
		OrderBy("quality DESC").
		Limit(uint64(q.Limit))
	if q.ProjectID != uuid.Nil {
		b = b.Where(sq.Eq{"project_id": q.ProjectID})
	}

	return b.ToSql()
}

// SearchScored runs the bulk strategy: scoring happens entirely in SQL.
// Only valid when both window bounds fit levenshtein()'s 255-char limit,
// which also guarantees every admissible source fits it.
func (r *Repo) SearchScored(ctx context.Context, q domain.MemoryQuery) ([]domain.MemoryMatch, error) {
	query, args, err := searchScoredQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build memory search: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}
	defer rows.Close()

	var matches []domain.MemoryMatch
	for rows.Next() {
		var (
			m       domain.MemoryMatch
			quality float64
		)
		if err := scanEntry(rows, &m.Entry, &quality); err != nil {
			return nil, fmt.Errorf("memory search: %w", err)
		}
		m.Quality = quality * 100
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}

	return matches, nil
}

func searchPrefixQuery(q domain.MemoryQuery, prefix string) (string, []any, error) {
	prefixExpr := `(char_length(left(source, 255)) + ? - levenshtein(left(source, 255), ?, 1, 1, 2))::double precision
    / (char_length(left(source, 255)) + ?) > ?`

	b := psql.Select("id", "source", "target", "entity_id", "translation_id", "locale_id", "project_id").
		From("memory_entries").
		Where(sq.Eq{"locale_id": q.LocaleID}).
		Where(sq.Expr("char_length(source) BETWEEN ? AND ?", q.MinDist, q.MaxDist)).
		Where(sq.Expr(prefixExpr, charLen(prefix), prefix, charLen(prefix), q.MinQuality))
	if q.ProjectID != uuid.Nil {
		b = b.Where(sq.Eq{"project_id": q.ProjectID})
	}

	return b.ToSql()
}

// SearchPrefix runs the pre-filter half of the scalar strategy: candidates
// inside the length window whose 255-char prefixes score above the quality
// threshold. The caller re-scores survivors exactly on the full strings.
func (r *Repo) SearchPrefix(ctx context.Context, q domain.MemoryQuery, prefix string) ([]domain.MemoryEntry, error) {
	query, args, err := searchPrefixQuery(q, prefix)
	if err != nil {
		return nil, fmt.Errorf("build memory prefix search: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory prefix search: %w", err)
	}
	defer rows.Close()

	var entries []domain.MemoryEntry
	for rows.Next() {
		var e domain.MemoryEntry
		if err := scanEntry(rows, &e, nil); err != nil {
			return nil, fmt.Errorf("memory prefix search: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory prefix search: %w", err)
	}

	return entries, nil
}

// scanEntry scans an entry row; quality is non-nil for scored queries.
func scanEntry(row interface{ Scan(...any) error }, e *domain.MemoryEntry, quality *float64) error {
	var entityID, translationID, projectID pgtype.UUID

	dest := []any{&e.ID, &e.Source, &e.Target, &entityID, &translationID, &e.LocaleID, &projectID}
	if quality != nil {
		dest = append(dest, quality)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}

	e.EntityID = uuidOrNil(entityID)
	e.TranslationID = uuidOrNil(translationID)
	e.ProjectID = uuidOrNil(projectID)

	return nil
}

func charLen(s string) int {
	return len([]rune(s))
}

// uuidOrNil maps SQL NULL (detached entries after ON DELETE SET NULL) to
// uuid.Nil.
func uuidOrNil(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func nullableUUID(v uuid.UUID) pgtype.UUID {
	if v == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: v, Valid: true}
}

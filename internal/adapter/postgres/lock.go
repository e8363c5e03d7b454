package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AcquireEntityLocaleLock serializes mutations of one (entity, locale)
// pair with a transaction-scoped advisory lock. It must be called inside
// RunInTx; the lock is released when the transaction ends. Mutations of
// different pairs proceed concurrently.
func AcquireEntityLocaleLock(ctx context.Context, pool *pgxpool.Pool, entityID, localeID uuid.UUID) error {
	// In autocommit the xact-scoped lock would be released at the end of
	// its own statement, guarding nothing.
	if !InTx(ctx) {
		return errors.New("acquire entity-locale lock: no transaction in context")
	}

	querier := QuerierFromCtx(ctx, pool)

	if _, err := querier.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", entityLocaleLockKey(entityID, localeID)); err != nil {
		return fmt.Errorf("acquire entity-locale lock: %w", err)
	}

	return nil
}

// AdvisoryLocker adapts AcquireEntityLocaleLock for services that hold
// dependencies as interfaces.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker creates a new advisory locker.
func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// Lock acquires the transaction-scoped lock for one (entity, locale) pair.
func (l *AdvisoryLocker) Lock(ctx context.Context, entityID, localeID uuid.UUID) error {
	return AcquireEntityLocaleLock(ctx, l.pool, entityID, localeID)
}

// entityLocaleLockKey hashes the pair into the signed 64-bit keyspace of
// pg_advisory_xact_lock. Hash collisions only cost extra serialization,
// never correctness.
func entityLocaleLockKey(entityID, localeID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(entityID[:])
	h.Write(localeID[:])
	return int64(h.Sum64())
}

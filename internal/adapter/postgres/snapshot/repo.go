// Package snapshot implements the session snapshot key-value store using PostgreSQL.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	postgres "github.com/heartmarshall/myenglish-session/internal/adapter/postgres"
)

// Repo stores snapshot bytes verbatim in session_snapshots.
type Repo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// New creates a new snapshot repository. The clock stamps writes for
// DeleteOlderThan.
func New(pool *pgxpool.Pool, clock clockwork.Clock) *Repo {
	return &Repo{pool: pool, clock: clock}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const getSQL = `SELECT value FROM session_snapshots WHERE key = $1`

const setSQL = `
INSERT INTO session_snapshots (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

const removeSQL = `DELETE FROM session_snapshots WHERE key = $1`

const deleteOlderThanSQL = `DELETE FROM session_snapshots WHERE updated_at < $1`

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Get returns the value stored under key.
// Returns domain.ErrNotFound if the key is absent.
func (r *Repo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, getSQL, key).Scan(&value); err != nil {
		return nil, postgres.MapError(err, "snapshot", key)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *Repo) Set(ctx context.Context, key string, value []byte) error {
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, setSQL, key, value, r.clock.Now().UTC()); err != nil {
		return postgres.MapError(err, "snapshot", key)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (r *Repo) Remove(ctx context.Context, key string) error {
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, removeSQL, key); err != nil {
		return postgres.MapError(err, "snapshot", key)
	}
	return nil
}

// DeleteOlderThan removes snapshots last written before t.
func (r *Repo) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, deleteOlderThanSQL, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

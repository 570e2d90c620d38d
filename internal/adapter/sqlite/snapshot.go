package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// SnapshotStore is a key-value store for session snapshots.
type SnapshotStore struct {
	db    *DB
	clock clockwork.Clock
}

// NewSnapshotStore creates a SnapshotStore on db. The clock stamps writes
// for DeleteOlderThan.
func NewSnapshotStore(db *DB, clock clockwork.Clock) *SnapshotStore {
	return &SnapshotStore{db: db, clock: clock}
}

const getSnapshotSQL = `SELECT value FROM session_snapshots WHERE key = ?`

const setSnapshotSQL = `
INSERT INTO session_snapshots (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

const removeSnapshotSQL = `DELETE FROM session_snapshots WHERE key = ?`

const deleteOlderThanSQL = `DELETE FROM session_snapshots WHERE updated_at < ?`

// Get returns the value stored under key.
// Returns domain.ErrNotFound if the key is absent.
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := s.db.db.QueryRowContext(ctx, getSnapshotSQL, key).Scan(&value); err != nil {
		return nil, mapError(err, "snapshot", key)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *SnapshotStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.db.ExecContext(ctx, setSnapshotSQL, key, value, formatTime(s.clock.Now())); err != nil {
		return mapError(err, "snapshot", key)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *SnapshotStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.db.ExecContext(ctx, removeSnapshotSQL, key); err != nil {
		return mapError(err, "snapshot", key)
	}
	return nil
}

// DeleteOlderThan removes snapshots last written before t.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.db.ExecContext(ctx, deleteOlderThanSQL, formatTime(t))
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return n, nil
}

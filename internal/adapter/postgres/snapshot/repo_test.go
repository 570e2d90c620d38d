package snapshot_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/myenglish-session/internal/domain"
)

func TestRepo_GetSetRemove(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := snapshot.New(pool, clockwork.NewRealClock())
	ctx := context.Background()
	key := "learning_session:" + uuid.NewString()

	_, err := repo.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Set(ctx, key, []byte(`{"version":1}`)))
	require.NoError(t, repo.Set(ctx, key, []byte(`{"version":1, "active":true}`)))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1, "active":true}`, string(got), "bytes are stored verbatim")

	require.NoError(t, repo.Remove(ctx, key))
	require.NoError(t, repo.Remove(ctx, key), "removing twice is fine")

	_, err = repo.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_DeleteOlderThan(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()

	// A far-past clock keeps rows from other tests out of the cutoff.
	clk := clockwork.NewFakeClockAt(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	repo := snapshot.New(pool, clk)

	stale := "learning_session:" + uuid.NewString()
	fresh := "learning_session:" + uuid.NewString()

	require.NoError(t, repo.Set(ctx, stale, []byte("old")))
	clk.Advance(48 * time.Hour)
	require.NoError(t, repo.Set(ctx, fresh, []byte("new")))

	n, err := repo.DeleteOlderThan(ctx, clk.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Get(ctx, fresh)
	assert.NoError(t, err)
}

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres"
	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres/testhelper"
)

func insertCard(ctx context.Context, q postgres.Querier, id uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO cards (id, deck_id, front_text, back_text) VALUES ($1, $2, 'front', 'back')`,
		id, uuid.New(),
	)
	return err
}

func cardExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(context.Background(), `SELECT EXISTS(SELECT 1 FROM cards WHERE id = $1)`, id).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	id := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertCard(ctx, postgres.QuerierFromCtx(ctx, pool), id)
	})
	require.NoError(t, err)
	assert.True(t, cardExists(t, pool, id))
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	id := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, insertCard(ctx, postgres.QuerierFromCtx(ctx, pool), id))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, cardExists(t, pool, id))
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	id := uuid.New()

	assert.PanicsWithValue(t, "test panic", func() {
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			require.NoError(t, insertCard(ctx, postgres.QuerierFromCtx(ctx, pool), id))
			panic("test panic")
		})
	})
	assert.False(t, cardExists(t, pool, id))
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	outer, inner := uuid.New(), uuid.New()
	sentinel := errors.New("abort")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, insertCard(ctx, postgres.QuerierFromCtx(ctx, pool), outer))
		require.NoError(t, tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertCard(ctx, postgres.QuerierFromCtx(ctx, pool), inner)
		}))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, cardExists(t, pool, outer))
	assert.False(t, cardExists(t, pool, inner), "inner work is rolled back with the outer transaction")
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/writequeue/internal/database"
	"github.com/allisson/writequeue/internal/testutil"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

func enqueueSQLite(t *testing.T, repo *SQLiteQueueRepository, table, payload string) *domain.QueuedOperation {
	t.Helper()
	op := &domain.QueuedOperation{Type: domain.OperationTypeInsert, Table: table, Payload: payload}
	require.NoError(t, repo.Enqueue(context.Background(), op))
	return op
}

func TestSQLiteQueueRepository_Enqueue(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)

	before := time.Now().UTC().Add(-time.Second)
	op := enqueueSQLite(t, repo, "orders", `{"item":"latte"}`)

	assert.Equal(t, int64(1), op.ID)
	assert.Equal(t, 0, op.RetryCount)
	assert.True(t, op.CreatedAt.After(before), "createdAt %s", op.CreatedAt)

	second := enqueueSQLite(t, repo, "orders", `{"item":"mocha"}`)
	assert.Greater(t, second.ID, op.ID)
}

func TestSQLiteQueueRepository_ListPending(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)
	ctx := context.Background()

	for _, payload := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		enqueueSQLite(t, repo, "orders", payload)
	}

	ops, err := repo.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, `{"n":1}`, ops[0].Payload)
	assert.Equal(t, `{"n":2}`, ops[1].Payload)
	assert.Equal(t, domain.OperationTypeInsert, ops[0].Type)
	assert.Equal(t, "orders", ops[0].Table)

	ops, err = repo.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, `{"n":3}`, ops[0].Payload)
}

func TestSQLiteQueueRepository_ListPendingEmpty(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)

	ops, err := repo.ListPending(context.Background(), 20)
	assert.NoError(t, err)
	assert.Empty(t, ops)
}

func TestSQLiteQueueRepository_IncrementRetry(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)
	ctx := context.Background()

	op := enqueueSQLite(t, repo, "orders", `{}`)

	require.NoError(t, repo.IncrementRetry(ctx, op.ID))
	require.NoError(t, repo.IncrementRetry(ctx, op.ID))

	got, err := repo.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetryCount)

	assert.ErrorIs(t, repo.IncrementRetry(ctx, 999), domain.ErrOperationNotFound)
}

func TestSQLiteQueueRepository_Delete(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)
	ctx := context.Background()

	op := enqueueSQLite(t, repo, "orders", `{}`)

	require.NoError(t, repo.Delete(ctx, op.ID))
	assert.ErrorIs(t, repo.Delete(ctx, op.ID), domain.ErrOperationNotFound)

	_, err := repo.Get(ctx, op.ID)
	assert.ErrorIs(t, err, domain.ErrOperationNotFound)
}

func TestSQLiteQueueRepository_Count(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	enqueueSQLite(t, repo, "orders", `{}`)
	enqueueSQLite(t, repo, "payments", `{}`)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSQLiteQueueRepository_EnqueueInRolledBackTx(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	repo := NewSQLiteQueueRepository(db)
	txManager := database.NewTxManager(db)
	ctx := context.Background()

	err := txManager.WithTx(ctx, func(ctx context.Context) error {
		op := &domain.QueuedOperation{Type: domain.OperationTypeInsert, Table: "orders", Payload: `{}`}
		require.NoError(t, repo.Enqueue(ctx, op))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

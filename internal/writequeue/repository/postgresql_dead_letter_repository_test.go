package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgreSQLDeadLetterRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLDeadLetterRepository(db)

	dl := newTestDeadLetter(3, time.Now().UTC())
	mock.ExpectExec(`INSERT INTO dead_letters`).
		WithArgs(dl.ID.String(), int64(3), "insert", "orders", dl.Payload, 2, "permanent_error",
			"duplicate key", dl.CreatedAt, dl.FailedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Create(context.Background(), dl))
}

func TestPostgreSQLDeadLetterRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLDeadLetterRepository(db)

	dl := newTestDeadLetter(3, time.Now().UTC())
	mock.ExpectQuery(`SELECT .* FROM dead_letters ORDER BY failed_at ASC, operation_id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(deadLetterColumns).AddRow(dl.ID.String(), 3, "insert", "orders",
			dl.Payload, 2, "max_retries_exceeded", "timeout", dl.CreatedAt, dl.FailedAt))

	dls, err := repo.List(context.Background(), 0, 50)
	require.NoError(t, err)
	require.Len(t, dls, 1)
	assert.Equal(t, dl.ID, dls[0].ID)
	assert.Equal(t, "timeout", dls[0].LastError)
}

func TestPostgreSQLDeadLetterRepository_CountError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLDeadLetterRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dead_letters`).WillReturnError(assert.AnError)

	_, err := repo.Count(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

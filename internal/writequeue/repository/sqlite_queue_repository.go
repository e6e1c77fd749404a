package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/writequeue/internal/database"
	apperrors "github.com/allisson/writequeue/internal/errors"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// SQLiteQueueRepository stores pending operations in the SQLite log.
type SQLiteQueueRepository struct {
	db *sql.DB
}

// NewSQLiteQueueRepository creates a new SQLiteQueueRepository.
func NewSQLiteQueueRepository(db *sql.DB) *SQLiteQueueRepository {
	return &SQLiteQueueRepository{db: db}
}

// Enqueue appends op to the log and sets its ID and CreatedAt.
func (r *SQLiteQueueRepository) Enqueue(ctx context.Context, op *domain.QueuedOperation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO pending_operations (opType, tableName, payload)
			  VALUES (?, ?, ?)
			  RETURNING id, createdAt, retryCount`

	var createdAt string
	err := querier.QueryRowContext(ctx, query, op.Type, op.Table, op.Payload).
		Scan(&op.ID, &createdAt, &op.RetryCount)
	if err != nil {
		return apperrors.Wrap(err, "failed to enqueue operation")
	}

	op.CreatedAt, err = parseSQLiteTime(createdAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to parse createdAt")
	}
	return nil
}

// ListPending returns up to limit operations in ascending id order.
func (r *SQLiteQueueRepository) ListPending(ctx context.Context, limit int) ([]*domain.QueuedOperation, error) {
	return r.List(ctx, 0, limit)
}

// List returns operations in ascending id order with pagination.
func (r *SQLiteQueueRepository) List(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, opType, tableName, payload, createdAt, retryCount
			  FROM pending_operations
			  ORDER BY id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list operations")
	}
	defer rows.Close() //nolint:errcheck

	var ops []*domain.QueuedOperation
	for rows.Next() {
		op, err := scanSQLiteOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate operations")
	}

	return ops, nil
}

// Get returns the operation with the given id.
func (r *SQLiteQueueRepository) Get(ctx context.Context, id int64) (*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, opType, tableName, payload, createdAt, retryCount
			  FROM pending_operations
			  WHERE id = ?`

	op, err := scanSQLiteOperation(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}
		return nil, err
	}
	return op, nil
}

// IncrementRetry adds one to the operation's retry count.
func (r *SQLiteQueueRepository) IncrementRetry(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE pending_operations SET retryCount = retryCount + 1 WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to increment retry count for operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Delete removes the operation from the log.
func (r *SQLiteQueueRepository) Delete(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Count returns the number of pending operations.
func (r *SQLiteQueueRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count operations")
	}
	return count, nil
}

func scanSQLiteOperation(s scanner) (*domain.QueuedOperation, error) {
	var op domain.QueuedOperation
	var createdAt string

	if err := s.Scan(&op.ID, &op.Type, &op.Table, &op.Payload, &createdAt, &op.RetryCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan operation")
	}

	parsed, err := parseSQLiteTime(createdAt)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse createdAt")
	}
	op.CreatedAt = parsed
	return &op, nil
}

// requireAffected returns notFound when the statement touched no row.
func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

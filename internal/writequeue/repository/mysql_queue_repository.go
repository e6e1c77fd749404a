package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/writequeue/internal/database"
	apperrors "github.com/allisson/writequeue/internal/errors"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// MySQLQueueRepository stores pending operations in MySQL. The connection
// string must set parseTime=true.
type MySQLQueueRepository struct {
	db *sql.DB
}

// NewMySQLQueueRepository creates a new MySQLQueueRepository.
func NewMySQLQueueRepository(db *sql.DB) *MySQLQueueRepository {
	return &MySQLQueueRepository{db: db}
}

// Enqueue appends op to the log and sets its ID and CreatedAt.
func (r *MySQLQueueRepository) Enqueue(ctx context.Context, op *domain.QueuedOperation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO pending_operations (op_type, table_name, payload) VALUES (?, ?, ?)`

	result, err := querier.ExecContext(ctx, query, op.Type, op.Table, op.Payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to enqueue operation")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read operation id")
	}

	err = querier.QueryRowContext(ctx,
		`SELECT created_at, retry_count FROM pending_operations WHERE id = ?`, id,
	).Scan(&op.CreatedAt, &op.RetryCount)
	if err != nil {
		return apperrors.Wrap(err, "failed to read enqueued operation")
	}

	op.ID = id
	return nil
}

// ListPending returns up to limit operations in ascending id order.
func (r *MySQLQueueRepository) ListPending(ctx context.Context, limit int) ([]*domain.QueuedOperation, error) {
	return r.List(ctx, 0, limit)
}

// List returns operations in ascending id order with pagination.
func (r *MySQLQueueRepository) List(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, op_type, table_name, payload, created_at, retry_count
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
		var op domain.QueuedOperation
		if err := rows.Scan(&op.ID, &op.Type, &op.Table, &op.Payload, &op.CreatedAt, &op.RetryCount); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan operation")
		}
		ops = append(ops, &op)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate operations")
	}

	return ops, nil
}

// Get returns the operation with the given id.
func (r *MySQLQueueRepository) Get(ctx context.Context, id int64) (*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, op_type, table_name, payload, created_at, retry_count
			  FROM pending_operations
			  WHERE id = ?`

	var op domain.QueuedOperation
	err := querier.QueryRowContext(ctx, query, id).
		Scan(&op.ID, &op.Type, &op.Table, &op.Payload, &op.CreatedAt, &op.RetryCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOperationNotFound
		}
		return nil, apperrors.Wrapf(err, "failed to get operation %d", id)
	}
	return &op, nil
}

// IncrementRetry adds one to the operation's retry count.
func (r *MySQLQueueRepository) IncrementRetry(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE pending_operations SET retry_count = retry_count + 1 WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to increment retry count for operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Delete removes the operation from the log.
func (r *MySQLQueueRepository) Delete(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Count returns the number of pending operations.
func (r *MySQLQueueRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count operations")
	}
	return count, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/writequeue/internal/database"
	apperrors "github.com/allisson/writequeue/internal/errors"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// PostgreSQLQueueRepository stores pending operations in PostgreSQL.
type PostgreSQLQueueRepository struct {
	db *sql.DB
}

// NewPostgreSQLQueueRepository creates a new PostgreSQLQueueRepository.
func NewPostgreSQLQueueRepository(db *sql.DB) *PostgreSQLQueueRepository {
	return &PostgreSQLQueueRepository{db: db}
}

// Enqueue appends op to the log and sets its ID and CreatedAt.
func (r *PostgreSQLQueueRepository) Enqueue(ctx context.Context, op *domain.QueuedOperation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO pending_operations (op_type, table_name, payload)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, retry_count`

	err := querier.QueryRowContext(ctx, query, op.Type, op.Table, op.Payload).
		Scan(&op.ID, &op.CreatedAt, &op.RetryCount)
	if err != nil {
		return apperrors.Wrap(err, "failed to enqueue operation")
	}
	return nil
}

// ListPending returns up to limit operations in ascending id order.
func (r *PostgreSQLQueueRepository) ListPending(ctx context.Context, limit int) ([]*domain.QueuedOperation, error) {
	return r.List(ctx, 0, limit)
}

// List returns operations in ascending id order with pagination.
func (r *PostgreSQLQueueRepository) List(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, op_type, table_name, payload, created_at, retry_count
			  FROM pending_operations
			  ORDER BY id ASC
			  LIMIT $1 OFFSET $2`

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
func (r *PostgreSQLQueueRepository) Get(ctx context.Context, id int64) (*domain.QueuedOperation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, op_type, table_name, payload, created_at, retry_count
			  FROM pending_operations
			  WHERE id = $1`

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
func (r *PostgreSQLQueueRepository) IncrementRetry(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE pending_operations SET retry_count = retry_count + 1 WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to increment retry count for operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Delete removes the operation from the log.
func (r *PostgreSQLQueueRepository) Delete(ctx context.Context, id int64) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete operation %d", id)
	}
	return requireAffected(result, domain.ErrOperationNotFound)
}

// Count returns the number of pending operations.
func (r *PostgreSQLQueueRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count operations")
	}
	return count, nil
}

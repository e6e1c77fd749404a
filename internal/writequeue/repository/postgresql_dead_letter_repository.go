package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/writequeue/internal/database"
	apperrors "github.com/allisson/writequeue/internal/errors"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// PostgreSQLDeadLetterRepository stores dead letters in PostgreSQL.
type PostgreSQLDeadLetterRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeadLetterRepository creates a new PostgreSQLDeadLetterRepository.
func NewPostgreSQLDeadLetterRepository(db *sql.DB) *PostgreSQLDeadLetterRepository {
	return &PostgreSQLDeadLetterRepository{db: db}
}

// Create stores a dead letter.
func (r *PostgreSQLDeadLetterRepository) Create(ctx context.Context, dl *domain.DeadLetter) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO dead_letters
			  (id, operation_id, op_type, table_name, payload, retry_count, reason, last_error, created_at, failed_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(ctx, query, dl.ID, dl.OperationID, dl.Type, dl.Table, dl.Payload,
		dl.RetryCount, dl.Reason, dl.LastError, dl.CreatedAt, dl.FailedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dead letter")
	}
	return nil
}

// Get returns the dead letter with the given id.
func (r *PostgreSQLDeadLetterRepository) Get(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operation_id, op_type, table_name, payload, retry_count, reason, last_error,
			  created_at, failed_at
			  FROM dead_letters
			  WHERE id = $1`

	var dl domain.DeadLetter
	err := querier.QueryRowContext(ctx, query, id).Scan(&dl.ID, &dl.OperationID, &dl.Type, &dl.Table,
		&dl.Payload, &dl.RetryCount, &dl.Reason, &dl.LastError, &dl.CreatedAt, &dl.FailedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, apperrors.Wrapf(err, "failed to get dead letter %s", id)
	}
	return &dl, nil
}

// List returns dead letters, oldest failure first.
func (r *PostgreSQLDeadLetterRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operation_id, op_type, table_name, payload, retry_count, reason, last_error,
			  created_at, failed_at
			  FROM dead_letters
			  ORDER BY failed_at ASC, operation_id ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var dls []*domain.DeadLetter
	for rows.Next() {
		var dl domain.DeadLetter
		err := rows.Scan(&dl.ID, &dl.OperationID, &dl.Type, &dl.Table, &dl.Payload,
			&dl.RetryCount, &dl.Reason, &dl.LastError, &dl.CreatedAt, &dl.FailedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dead letter")
		}
		dls = append(dls, &dl)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}

	return dls, nil
}

// Delete removes the dead letter.
func (r *PostgreSQLDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete dead letter %s", id)
	}
	return requireAffected(result, domain.ErrDeadLetterNotFound)
}

// Count returns the number of dead letters.
func (r *PostgreSQLDeadLetterRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count dead letters")
	}
	return count, nil
}

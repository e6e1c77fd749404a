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

// MySQLDeadLetterRepository stores dead letters in MySQL. Ids are stored as
// BINARY(16).
type MySQLDeadLetterRepository struct {
	db *sql.DB
}

// NewMySQLDeadLetterRepository creates a new MySQLDeadLetterRepository.
func NewMySQLDeadLetterRepository(db *sql.DB) *MySQLDeadLetterRepository {
	return &MySQLDeadLetterRepository{db: db}
}

// Create stores a dead letter.
func (r *MySQLDeadLetterRepository) Create(ctx context.Context, dl *domain.DeadLetter) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO dead_letters
			  (id, operation_id, op_type, table_name, payload, retry_count, reason, last_error, created_at, failed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := dl.ID.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(ctx, query, idBytes, dl.OperationID, dl.Type, dl.Table, dl.Payload,
		dl.RetryCount, dl.Reason, dl.LastError, dl.CreatedAt, dl.FailedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create dead letter")
	}
	return nil
}

// Get returns the dead letter with the given id.
func (r *MySQLDeadLetterRepository) Get(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operation_id, op_type, table_name, payload, retry_count, reason, last_error,
			  created_at, failed_at
			  FROM dead_letters
			  WHERE id = ?`

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	dl, err := scanMySQLDeadLetter(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, err
	}
	return dl, nil
}

// List returns dead letters, oldest failure first.
func (r *MySQLDeadLetterRepository) List(ctx context.Context, offset, limit int) ([]*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operation_id, op_type, table_name, payload, retry_count, reason, last_error,
			  created_at, failed_at
			  FROM dead_letters
			  ORDER BY failed_at ASC, operation_id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var dls []*domain.DeadLetter
	for rows.Next() {
		dl, err := scanMySQLDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		dls = append(dls, dl)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}

	return dls, nil
}

// Delete removes the dead letter.
func (r *MySQLDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, idBytes)
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete dead letter %s", id)
	}
	return requireAffected(result, domain.ErrDeadLetterNotFound)
}

// Count returns the number of dead letters.
func (r *MySQLDeadLetterRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count dead letters")
	}
	return count, nil
}

func scanMySQLDeadLetter(s scanner) (*domain.DeadLetter, error) {
	var dl domain.DeadLetter
	var idBytes []byte

	err := s.Scan(&idBytes, &dl.OperationID, &dl.Type, &dl.Table, &dl.Payload, &dl.RetryCount,
		&dl.Reason, &dl.LastError, &dl.CreatedAt, &dl.FailedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan dead letter")
	}

	if err := dl.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse dead letter id")
	}
	return &dl, nil
}

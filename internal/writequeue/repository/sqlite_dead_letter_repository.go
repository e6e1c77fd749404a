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

// SQLiteDeadLetterRepository stores dead letters in the SQLite log.
type SQLiteDeadLetterRepository struct {
	db *sql.DB
}

// NewSQLiteDeadLetterRepository creates a new SQLiteDeadLetterRepository.
func NewSQLiteDeadLetterRepository(db *sql.DB) *SQLiteDeadLetterRepository {
	return &SQLiteDeadLetterRepository{db: db}
}

// Create stores a dead letter.
func (r *SQLiteDeadLetterRepository) Create(ctx context.Context, dl *domain.DeadLetter) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO dead_letters
			  (id, operationId, opType, tableName, payload, retryCount, reason, lastError, createdAt, failedAt)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, dl.ID.String(), dl.OperationID, dl.Type, dl.Table,
		dl.Payload, dl.RetryCount, dl.Reason, dl.LastError,
		formatSQLiteTime(dl.CreatedAt), formatSQLiteTime(dl.FailedAt))
	if err != nil {
		return apperrors.Wrap(err, "failed to create dead letter")
	}
	return nil
}

// Get returns the dead letter with the given id.
func (r *SQLiteDeadLetterRepository) Get(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operationId, opType, tableName, payload, retryCount, reason, lastError, createdAt, failedAt
			  FROM dead_letters
			  WHERE id = ?`

	dl, err := scanSQLiteDeadLetter(querier.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, err
	}
	return dl, nil
}

// List returns dead letters, oldest failure first.
func (r *SQLiteDeadLetterRepository) List(ctx context.Context, offset, limit int) ([]*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, operationId, opType, tableName, payload, retryCount, reason, lastError, createdAt, failedAt
			  FROM dead_letters
			  ORDER BY failedAt ASC, operationId ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	var dls []*domain.DeadLetter
	for rows.Next() {
		dl, err := scanSQLiteDeadLetter(rows)
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
func (r *SQLiteDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, id.String())
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete dead letter %s", id)
	}
	return requireAffected(result, domain.ErrDeadLetterNotFound)
}

// Count returns the number of dead letters.
func (r *SQLiteDeadLetterRepository) Count(ctx context.Context) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letters`).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count dead letters")
	}
	return count, nil
}

func scanSQLiteDeadLetter(s scanner) (*domain.DeadLetter, error) {
	var dl domain.DeadLetter
	var id, createdAt, failedAt string

	err := s.Scan(&id, &dl.OperationID, &dl.Type, &dl.Table, &dl.Payload, &dl.RetryCount,
		&dl.Reason, &dl.LastError, &createdAt, &failedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan dead letter")
	}

	if dl.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse dead letter id")
	}
	if dl.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse createdAt")
	}
	if dl.FailedAt, err = parseSQLiteTime(failedAt); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse failedAt")
	}
	return &dl, nil
}

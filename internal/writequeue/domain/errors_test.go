package domain

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/writequeue/internal/errors"
)

func TestRemoteError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    *RemoteError
		target error
	}{
		{
			name:   "transient maps to unavailable",
			err:    NewTransientError(http.StatusServiceUnavailable, "", "down", nil),
			target: apperrors.ErrUnavailable,
		},
		{
			name:   "unique violation maps to conflict",
			err:    NewPermanentError(http.StatusConflict, "23505", "duplicate key", nil),
			target: apperrors.ErrConflict,
		},
		{
			name:   "insufficient privilege maps to forbidden",
			err:    NewPermanentError(0, "42501", "permission denied", nil),
			target: apperrors.ErrForbidden,
		},
		{
			name:   "unauthorized status maps to unauthorized",
			err:    NewPermanentError(http.StatusUnauthorized, "", "invalid api key", nil),
			target: apperrors.ErrUnauthorized,
		},
		{
			name:   "unauthorized status with privilege code maps to forbidden",
			err:    NewPermanentError(http.StatusUnauthorized, "42501", "row-level security", nil),
			target: apperrors.ErrForbidden,
		},
		{
			name:   "other permanent maps to invalid input",
			err:    NewPermanentError(http.StatusBadRequest, "23502", "null value", nil),
			target: apperrors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
			assert.NotErrorIs(t, tt.err, apperrors.ErrNotFound)
		})
	}
}

func TestRemoteError_Unwrap(t *testing.T) {
	err := NewTransientError(0, "", "", context.DeadlineExceeded)

	assert.True(t, err.Transient())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "remote store transient error: context deadline exceeded", err.Error())
}

func TestRemoteError_Error(t *testing.T) {
	err := NewPermanentError(http.StatusConflict, "23505", "duplicate key value", nil)

	assert.False(t, err.Transient())
	assert.Equal(t, "remote store permanent error (status 409, code 23505): duplicate key value", err.Error())
}

func TestNewDeadLetter(t *testing.T) {
	op := &QueuedOperation{
		ID:         7,
		Type:       OperationTypeInsert,
		Table:      "orders",
		Payload:    `{"a":1}`,
		RetryCount: 3,
	}

	dl := NewDeadLetter(op, DeadLetterReasonPermanentError, assert.AnError)

	assert.NotEqual(t, uuid.Nil, dl.ID)
	assert.Equal(t, int64(7), dl.OperationID)
	assert.Equal(t, "orders", dl.Table)
	assert.Equal(t, `{"a":1}`, dl.Payload)
	assert.Equal(t, 3, dl.RetryCount)
	assert.Equal(t, DeadLetterReasonPermanentError, dl.Reason)
	assert.Equal(t, assert.AnError.Error(), dl.LastError)
	assert.False(t, dl.FailedAt.IsZero())
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeadLetterReason explains why an operation left the pending log without
// being written.
type DeadLetterReason string

const (
	DeadLetterReasonPermanentError     DeadLetterReason = "permanent_error"
	DeadLetterReasonMaxRetriesExceeded DeadLetterReason = "max_retries_exceeded"
	DeadLetterReasonUndecodablePayload DeadLetterReason = "undecodable_payload"
)

// DeadLetter is a queued operation that was removed from the pending log
// because it can never be, or was given up on being, replayed.
type DeadLetter struct {
	ID          uuid.UUID
	OperationID int64
	Type        OperationType
	Table       string
	Payload     string
	RetryCount  int
	Reason      DeadLetterReason
	LastError   string
	// CreatedAt is when the original operation was enqueued.
	CreatedAt time.Time
	FailedAt  time.Time
}

// NewDeadLetter builds a dead letter from a queued operation.
func NewDeadLetter(op *QueuedOperation, reason DeadLetterReason, cause error) *DeadLetter {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}
	return &DeadLetter{
		ID:          uuid.Must(uuid.NewV7()),
		OperationID: op.ID,
		Type:        op.Type,
		Table:       op.Table,
		Payload:     op.Payload,
		RetryCount:  op.RetryCount,
		Reason:      reason,
		LastError:   lastError,
		CreatedAt:   op.CreatedAt,
		FailedAt:    time.Now().UTC(),
	}
}

// Package usecase defines the interfaces and implementations for the durable
// write queue. Writes go straight to the remote store when it is reachable and
// are appended to a local log when it is not; draining replays that log in
// order.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// QueueRepository defines persistence for pending operations.
type QueueRepository interface {
	Enqueue(ctx context.Context, op *domain.QueuedOperation) error
	ListPending(ctx context.Context, limit int) ([]*domain.QueuedOperation, error)
	List(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error)
	Get(ctx context.Context, id int64) (*domain.QueuedOperation, error)
	IncrementRetry(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// DeadLetterRepository defines persistence for operations that left the
// pending log without being written.
type DeadLetterRepository interface {
	Create(ctx context.Context, dl *domain.DeadLetter) error
	Get(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error)
	List(ctx context.Context, offset, limit int) ([]*domain.DeadLetter, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// RemoteStore inserts one or more rows into a remote table.
type RemoteStore interface {
	Insert(ctx context.Context, table string, rows []domain.Row) error
}

// ErrorClassifier decides whether a remote store failure is transient.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// PayloadCodec converts payloads to and from the text stored in the log.
type PayloadCodec interface {
	Encode(ctx context.Context, payload domain.Payload) (string, error)
	Decode(ctx context.Context, data string) (domain.Payload, error)
}

// WriteQueueUseCase defines the write queue business logic.
type WriteQueueUseCase interface {
	// InsertWithFallback drains pending writes, then writes payload to table.
	// A transient failure appends the write to the local log and reports
	// Queued. A permanent failure is returned and never queued.
	InsertWithFallback(ctx context.Context, table string, payload domain.Payload) (*domain.InsertResult, error)
	// DrainQueue replays up to limit pending writes in ascending id order and
	// stops at the first transient failure. limit <= 0 uses DefaultDrainLimit.
	DrainQueue(ctx context.Context, limit int) (*domain.DrainResult, error)
	Stats(ctx context.Context) (*domain.QueueStats, error)
	ListPending(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error)
	ListDeadLetters(ctx context.Context, offset, limit int) ([]*domain.DeadLetter, error)
	// RequeueDeadLetter appends the dead letter as a new pending operation at
	// the tail of the log and removes the dead letter.
	RequeueDeadLetter(ctx context.Context, id uuid.UUID) (*domain.QueuedOperation, error)
	DeleteDeadLetter(ctx context.Context, id uuid.UUID) error
}

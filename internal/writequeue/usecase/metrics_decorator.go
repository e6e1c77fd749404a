package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/writequeue/internal/metrics"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

const metricsDomain = "writequeue"

// writeQueueUseCaseWithMetrics decorates WriteQueueUseCase with metrics instrumentation.
type writeQueueUseCaseWithMetrics struct {
	next    WriteQueueUseCase
	metrics metrics.BusinessMetrics
}

// NewWriteQueueUseCaseWithMetrics wraps a WriteQueueUseCase with metrics recording.
func NewWriteQueueUseCaseWithMetrics(useCase WriteQueueUseCase, m metrics.BusinessMetrics) WriteQueueUseCase {
	return &writeQueueUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (w *writeQueueUseCaseWithMetrics) record(ctx context.Context, operation, status string, start time.Time) {
	w.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	w.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// InsertWithFallback records metrics for writes. Deferred writes are recorded
// with the "queued" status.
func (w *writeQueueUseCaseWithMetrics) InsertWithFallback(
	ctx context.Context,
	table string,
	payload domain.Payload,
) (*domain.InsertResult, error) {
	start := time.Now()
	result, err := w.next.InsertWithFallback(ctx, table, payload)

	status := statusOf(err)
	if err == nil && result != nil && result.Queued {
		status = "queued"
	}

	w.record(ctx, "insert_with_fallback", status, start)
	return result, err
}

// DrainQueue records metrics for drain passes, including how many operations
// each pass replayed, dropped or dead-lettered.
func (w *writeQueueUseCaseWithMetrics) DrainQueue(ctx context.Context, limit int) (*domain.DrainResult, error) {
	start := time.Now()
	result, err := w.next.DrainQueue(ctx, limit)
	w.record(ctx, "drain", statusOf(err), start)

	if result != nil {
		w.metrics.RecordDrainOutcome(ctx, "replayed", result.Replayed)
		w.metrics.RecordDrainOutcome(ctx, "dropped", result.Dropped)
		w.metrics.RecordDrainOutcome(ctx, "dead_lettered", result.DeadLettered)
		if result.Blocked {
			w.metrics.RecordDrainOutcome(ctx, "blocked", 1)
		}
	}
	return result, err
}

// Stats records metrics for queue stats lookups.
func (w *writeQueueUseCaseWithMetrics) Stats(ctx context.Context) (*domain.QueueStats, error) {
	start := time.Now()
	stats, err := w.next.Stats(ctx)
	w.record(ctx, "stats", statusOf(err), start)
	return stats, err
}

// ListPending records metrics for pending operation listings.
func (w *writeQueueUseCaseWithMetrics) ListPending(
	ctx context.Context,
	offset, limit int,
) ([]*domain.QueuedOperation, error) {
	start := time.Now()
	ops, err := w.next.ListPending(ctx, offset, limit)
	w.record(ctx, "list_pending", statusOf(err), start)
	return ops, err
}

// ListDeadLetters records metrics for dead letter listings.
func (w *writeQueueUseCaseWithMetrics) ListDeadLetters(
	ctx context.Context,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	start := time.Now()
	dls, err := w.next.ListDeadLetters(ctx, offset, limit)
	w.record(ctx, "list_dead_letters", statusOf(err), start)
	return dls, err
}

// RequeueDeadLetter records metrics for dead letter requeues.
func (w *writeQueueUseCaseWithMetrics) RequeueDeadLetter(
	ctx context.Context,
	id uuid.UUID,
) (*domain.QueuedOperation, error) {
	start := time.Now()
	op, err := w.next.RequeueDeadLetter(ctx, id)
	w.record(ctx, "requeue_dead_letter", statusOf(err), start)
	return op, err
}

// DeleteDeadLetter records metrics for dead letter deletions.
func (w *writeQueueUseCaseWithMetrics) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := w.next.DeleteDeadLetter(ctx, id)
	w.record(ctx, "delete_dead_letter", statusOf(err), start)
	return err
}

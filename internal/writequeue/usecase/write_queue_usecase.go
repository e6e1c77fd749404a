package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/writequeue/internal/database"
	apperrors "github.com/allisson/writequeue/internal/errors"
	customValidation "github.com/allisson/writequeue/internal/validation"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// DefaultDrainLimit is the number of operations replayed per drain pass when
// no limit is given.
const DefaultDrainLimit = 20

// Config holds write queue configuration.
type Config struct {
	// BatchSize is the drain limit used before every direct write.
	BatchSize int
	// MaxRetries moves an operation to the dead letters after that many
	// transient failures. Zero retries forever.
	MaxRetries int
}

type writeQueueUseCase struct {
	config         Config
	txManager      database.TxManager
	queueRepo      QueueRepository
	deadLetterRepo DeadLetterRepository
	remote         RemoteStore
	classifier     ErrorClassifier
	codec          PayloadCodec
	logger         *slog.Logger

	// drainMu serializes drain passes within the process.
	drainMu sync.Mutex
}

// NewWriteQueueUseCase creates a new WriteQueueUseCase.
func NewWriteQueueUseCase(
	config Config,
	txManager database.TxManager,
	queueRepo QueueRepository,
	deadLetterRepo DeadLetterRepository,
	remote RemoteStore,
	classifier ErrorClassifier,
	codec PayloadCodec,
	logger *slog.Logger,
) WriteQueueUseCase {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultDrainLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &writeQueueUseCase{
		config:         config,
		txManager:      txManager,
		queueRepo:      queueRepo,
		deadLetterRepo: deadLetterRepo,
		remote:         remote,
		classifier:     classifier,
		codec:          codec,
		logger:         logger,
	}
}

// InsertWithFallback writes payload to table, queueing it when the remote
// store is unreachable.
func (w *writeQueueUseCase) InsertWithFallback(
	ctx context.Context,
	table string,
	payload domain.Payload,
) (*domain.InsertResult, error) {
	result := &domain.InsertResult{Queued: false}

	if err := validateInsert(table, payload); err != nil {
		return result, err
	}

	// Snapshot the rows before anything else can mutate them.
	snapshot, err := w.codec.Encode(ctx, payload)
	if err != nil {
		return result, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	if _, err := w.DrainQueue(ctx, w.config.BatchSize); err != nil {
		w.logger.Warn("drain before write failed", slog.Any("error", err))
	}

	writeErr := w.remote.Insert(ctx, table, payload.Rows())
	if writeErr == nil {
		return result, nil
	}

	if !w.classifier.IsTransient(writeErr) {
		w.logger.Warn("remote write rejected",
			slog.String("table_name", table),
			slog.Any("error", writeErr),
		)
		return result, writeErr
	}

	op := &domain.QueuedOperation{
		Type:    domain.OperationTypeInsert,
		Table:   table,
		Payload: snapshot,
	}
	if err := w.queueRepo.Enqueue(ctx, op); err != nil {
		w.logger.Error("failed to queue write",
			slog.String("table_name", table),
			slog.Any("write_error", writeErr),
			slog.Any("error", err),
		)
		return result, apperrors.Join(writeErr, apperrors.Wrap(err, "failed to queue write"))
	}

	w.logger.Info("write queued",
		slog.Int64("operation_id", op.ID),
		slog.String("table_name", table),
		slog.Int("rows", payload.Len()),
		slog.Any("error", writeErr),
	)

	result.Queued = true
	return result, nil
}

// DrainQueue replays pending operations in ascending id order.
func (w *writeQueueUseCase) DrainQueue(ctx context.Context, limit int) (*domain.DrainResult, error) {
	if limit <= 0 {
		limit = DefaultDrainLimit
	}

	w.drainMu.Lock()
	defer w.drainMu.Unlock()

	result := &domain.DrainResult{}

	ops, err := w.queueRepo.ListPending(ctx, limit)
	if err != nil {
		return result, apperrors.Wrap(err, "failed to read pending operations")
	}

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Attempted++

		payload, err := w.codec.Decode(ctx, op.Payload)
		if err != nil {
			if err := w.moveToDeadLetters(ctx, op, domain.DeadLetterReasonUndecodablePayload, err); err != nil {
				return result, err
			}
			result.Dropped++
			result.DeadLettered++
			continue
		}

		replayErr := w.remote.Insert(ctx, op.Table, payload.Rows())
		if replayErr == nil {
			if err := w.queueRepo.Delete(ctx, op.ID); err != nil {
				return result, apperrors.Wrap(err, "failed to remove replayed operation")
			}
			w.logger.Info("queued write replayed",
				slog.Int64("operation_id", op.ID),
				slog.String("table_name", op.Table),
			)
			result.Replayed++
			continue
		}

		if !w.classifier.IsTransient(replayErr) {
			if err := w.moveToDeadLetters(ctx, op, domain.DeadLetterReasonPermanentError, replayErr); err != nil {
				return result, err
			}
			result.Dropped++
			result.DeadLettered++
			continue
		}

		if err := w.queueRepo.IncrementRetry(ctx, op.ID); err != nil {
			return result, apperrors.Wrap(err, "failed to increment retry count")
		}
		op.RetryCount++

		w.logger.Warn("queued write still failing, stopping drain",
			slog.Int64("operation_id", op.ID),
			slog.String("table_name", op.Table),
			slog.Int("retry_count", op.RetryCount),
			slog.Any("error", replayErr),
		)

		if w.config.MaxRetries > 0 && op.RetryCount >= w.config.MaxRetries {
			if err := w.moveToDeadLetters(ctx, op, domain.DeadLetterReasonMaxRetriesExceeded, replayErr); err != nil {
				return result, err
			}
			result.DeadLettered++
		}

		result.Blocked = true
		return result, nil
	}

	return result, nil
}

// moveToDeadLetters records op as a dead letter and removes it from the
// pending log in one transaction.
func (w *writeQueueUseCase) moveToDeadLetters(
	ctx context.Context,
	op *domain.QueuedOperation,
	reason domain.DeadLetterReason,
	cause error,
) error {
	dl := domain.NewDeadLetter(op, reason, cause)

	err := w.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := w.deadLetterRepo.Create(ctx, dl); err != nil {
			return err
		}
		return w.queueRepo.Delete(ctx, op.ID)
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to move operation to dead letters")
	}

	w.logger.Error("queued write dropped",
		slog.Int64("operation_id", op.ID),
		slog.String("table_name", op.Table),
		slog.String("dead_letter_id", dl.ID.String()),
		slog.String("reason", string(reason)),
		slog.Int("retry_count", op.RetryCount),
		slog.Any("error", cause),
	)
	return nil
}

// Stats returns the number of pending operations and dead letters.
func (w *writeQueueUseCase) Stats(ctx context.Context) (*domain.QueueStats, error) {
	pending, err := w.queueRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	deadLetters, err := w.deadLetterRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.QueueStats{Pending: pending, DeadLetters: deadLetters}, nil
}

// ListPending returns pending operations in replay order.
func (w *writeQueueUseCase) ListPending(ctx context.Context, offset, limit int) ([]*domain.QueuedOperation, error) {
	return w.queueRepo.List(ctx, offset, limit)
}

// ListDeadLetters returns dead letters, oldest failure first.
func (w *writeQueueUseCase) ListDeadLetters(ctx context.Context, offset, limit int) ([]*domain.DeadLetter, error) {
	return w.deadLetterRepo.List(ctx, offset, limit)
}

// RequeueDeadLetter moves a dead letter back to the tail of the pending log
// with a fresh retry count.
func (w *writeQueueUseCase) RequeueDeadLetter(ctx context.Context, id uuid.UUID) (*domain.QueuedOperation, error) {
	var op *domain.QueuedOperation

	err := w.txManager.WithTx(ctx, func(ctx context.Context) error {
		dl, err := w.deadLetterRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		op = &domain.QueuedOperation{
			Type:    dl.Type,
			Table:   dl.Table,
			Payload: dl.Payload,
		}
		if err := w.queueRepo.Enqueue(ctx, op); err != nil {
			return err
		}
		return w.deadLetterRepo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("dead letter requeued",
		slog.String("dead_letter_id", id.String()),
		slog.Int64("operation_id", op.ID),
		slog.String("table_name", op.Table),
	)
	return op, nil
}

// DeleteDeadLetter discards a dead letter.
func (w *writeQueueUseCase) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	return w.deadLetterRepo.Delete(ctx, id)
}

func validateInsert(table string, payload domain.Payload) error {
	err := validation.Validate(table, validation.Required, customValidation.Identifier)
	if err != nil {
		return apperrors.Wrap(domain.ErrInvalidTable, err.Error())
	}
	if payload.IsEmpty() {
		return domain.ErrEmptyPayload
	}
	for i, row := range payload.Rows() {
		if row == nil {
			return apperrors.Wrapf(domain.ErrInvalidPayload, "row %d is null", i)
		}
	}
	return nil
}

package usecase

import (
	"context"
	"log/slog"
	"time"
)

// DrainWorker drains the queue on a fixed interval so pending writes reach the
// remote store even when no new write arrives.
type DrainWorker struct {
	useCase   WriteQueueUseCase
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewDrainWorker creates a new DrainWorker.
func NewDrainWorker(
	useCase WriteQueueUseCase,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *DrainWorker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DrainWorker{
		useCase:   useCase,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start runs the drain loop until ctx is cancelled and returns ctx.Err().
// With a non-positive interval it only waits for cancellation.
func (d *DrainWorker) Start(ctx context.Context) error {
	if d.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	d.logger.Info("starting drain worker",
		slog.Duration("interval", d.interval),
		slog.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("stopping drain worker")
			return ctx.Err()
		case <-ticker.C:
			result, err := d.useCase.DrainQueue(ctx, d.batchSize)
			if err != nil {
				d.logger.Error("failed to drain queue", slog.Any("error", err))
				continue
			}
			if result.Attempted > 0 {
				d.logger.Info("drain pass finished",
					slog.Int("attempted", result.Attempted),
					slog.Int("replayed", result.Replayed),
					slog.Int("dropped", result.Dropped),
					slog.Bool("blocked", result.Blocked),
				)
			}
		}
	}
}

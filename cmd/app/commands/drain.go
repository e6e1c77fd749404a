package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/writequeue/internal/writequeue/http/dto"
	"github.com/allisson/writequeue/internal/writequeue/usecase"
)

// RunDrain replays up to limit pending writes once and reports the outcome.
// A limit of zero uses the default batch size.
func RunDrain(
	ctx context.Context,
	writeQueueUseCase usecase.WriteQueueUseCase,
	logger *slog.Logger,
	out io.Writer,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("invalid limit: %d (must be zero or positive)", limit)
	}

	logger.Info("draining queue", slog.Int("limit", limit))

	result, err := writeQueueUseCase.DrainQueue(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to drain queue: %w", err)
	}

	logger.Info("queue drained",
		slog.Int("attempted", result.Attempted),
		slog.Int("replayed", result.Replayed),
		slog.Bool("blocked", result.Blocked),
	)

	if format == formatJSON {
		return writeJSON(out, dto.MapDrainResultToResponse(result))
	}

	_, _ = fmt.Fprintf(out, "Attempted:     %d\n", result.Attempted)
	_, _ = fmt.Fprintf(out, "Replayed:      %d\n", result.Replayed)
	_, _ = fmt.Fprintf(out, "Dropped:       %d\n", result.Dropped)
	_, _ = fmt.Fprintf(out, "Dead-lettered: %d\n", result.DeadLettered)
	if result.Blocked {
		_, _ = fmt.Fprintln(out, "Drain stopped at a transient failure; remaining operations stay queued.")
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/writequeue/internal/writequeue/http/dto"
	"github.com/allisson/writequeue/internal/writequeue/usecase"
)

// RunQueueStats prints the number of pending operations and dead letters.
func RunQueueStats(
	ctx context.Context,
	writeQueueUseCase usecase.WriteQueueUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	stats, err := writeQueueUseCase.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	logger.Debug("queue stats",
		slog.Int64("pending", stats.Pending),
		slog.Int64("dead_letters", stats.DeadLetters),
	)

	if format == formatJSON {
		return writeJSON(out, dto.StatsResponse{Pending: stats.Pending, DeadLetters: stats.DeadLetters})
	}

	_, _ = fmt.Fprintf(out, "Pending operations: %d\n", stats.Pending)
	_, _ = fmt.Fprintf(out, "Dead letters:       %d\n", stats.DeadLetters)
	return nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/writequeue/internal/writequeue/http/dto"
	"github.com/allisson/writequeue/internal/writequeue/usecase"
)

// RunListDeadLetters prints one page of dead letters, oldest first.
func RunListDeadLetters(
	ctx context.Context,
	writeQueueUseCase usecase.WriteQueueUseCase,
	logger *slog.Logger,
	out io.Writer,
	offset int,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("invalid offset: %d (must be zero or positive)", offset)
	}
	if limit < 1 {
		return fmt.Errorf("invalid limit: %d (must be positive)", limit)
	}

	deadLetters, err := writeQueueUseCase.ListDeadLetters(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list dead letters: %w", err)
	}

	logger.Debug("listed dead letters", slog.Int("count", len(deadLetters)))

	if format == formatJSON {
		return writeJSON(out, dto.MapDeadLettersToListResponse(deadLetters))
	}

	if len(deadLetters) == 0 {
		_, _ = fmt.Fprintln(out, "No dead letters")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOPERATION\tTABLE\tREASON\tRETRIES\tFAILED AT\tLAST ERROR")
	for _, dl := range deadLetters {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			dl.ID,
			dl.OperationID,
			dl.Table,
			dl.Reason,
			dl.RetryCount,
			dl.FailedAt.UTC().Format(time.RFC3339),
			dl.LastError,
		)
	}
	return w.Flush()
}

// RunRequeueDeadLetter moves a dead letter back to the tail of the pending log.
func RunRequeueDeadLetter(
	ctx context.Context,
	writeQueueUseCase usecase.WriteQueueUseCase,
	logger *slog.Logger,
	out io.Writer,
	id string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	deadLetterID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid dead letter id %q: %w", id, err)
	}

	op, err := writeQueueUseCase.RequeueDeadLetter(ctx, deadLetterID)
	if err != nil {
		return fmt.Errorf("failed to requeue dead letter: %w", err)
	}

	logger.Info("dead letter requeued",
		slog.String("dead_letter_id", deadLetterID.String()),
		slog.Int64("operation_id", op.ID),
	)

	if format == formatJSON {
		return writeJSON(out, dto.MapQueuedOperationToResponse(op))
	}

	_, _ = fmt.Fprintf(out, "Requeued dead letter %s as operation %d on table %s\n",
		deadLetterID, op.ID, op.Table)
	return nil
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/allisson/writequeue/internal/writequeue/domain"
	"github.com/allisson/writequeue/internal/writequeue/usecase/mocks"
)

func sampleDeadLetters() []*domain.DeadLetter {
	createdAt := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	return []*domain.DeadLetter{
		{
			ID:          uuid.MustParse("0190d6a4-0000-7000-8000-000000000001"),
			OperationID: 7,
			Type:        domain.OperationTypeInsert,
			Table:       "orders",
			Payload:     `{"item":"book"}`,
			RetryCount:  0,
			Reason:      domain.DeadLetterReasonPermanentError,
			LastError:   "duplicate key value violates unique constraint",
			CreatedAt:   createdAt,
			FailedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{
			ID:          uuid.MustParse("0190d6a4-0000-7000-8000-000000000002"),
			OperationID: 12,
			Type:        domain.OperationTypeInsert,
			Table:       "order_items",
			Payload:     `[{"sku":"a-1"}]`,
			RetryCount:  100,
			Reason:      domain.DeadLetterReasonMaxRetriesExceeded,
			LastError:   "connection refused",
			CreatedAt:   createdAt,
			FailedAt:    time.Date(2026, 1, 2, 1, 0, 0, 0, time.FixedZone("BRT", -3*60*60)),
		},
	}
}

func TestRunListDeadLetters(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("ListDeadLetters", ctx, 0, 50).Return(sampleDeadLetters(), nil)

		var out bytes.Buffer
		err := RunListDeadLetters(ctx, mockUseCase, logger, &out, 0, 50, "text")

		require.NoError(t, err)
		newGolden(t).Assert(t, "list_dead_letters_text", out.Bytes())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("text-output-empty", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("ListDeadLetters", ctx, 10, 5).Return([]*domain.DeadLetter{}, nil)

		var out bytes.Buffer
		err := RunListDeadLetters(ctx, mockUseCase, logger, &out, 10, 5, "text")

		require.NoError(t, err)
		require.Equal(t, "No dead letters\n", out.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("ListDeadLetters", ctx, 0, 50).Return(sampleDeadLetters(), nil)

		var out bytes.Buffer
		err := RunListDeadLetters(ctx, mockUseCase, logger, &out, 0, 50, "json")
		require.NoError(t, err)

		var response struct {
			Data []struct {
				ID          string `json:"id"`
				OperationID int64  `json:"operation_id"`
				Reason      string `json:"reason"`
				Payload     string `json:"payload"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &response))
		require.Len(t, response.Data, 2)
		require.Equal(t, "0190d6a4-0000-7000-8000-000000000001", response.Data[0].ID)
		require.Equal(t, int64(12), response.Data[1].OperationID)
		require.Equal(t, "max_retries_exceeded", response.Data[1].Reason)
		require.Equal(t, `{"item":"book"}`, response.Data[0].Payload)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-pagination", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}

		err := RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, -1, 50, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid offset")

		err = RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, 0, 0, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid limit")
	})
}

func TestRunRequeueDeadLetter(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	id := uuid.MustParse("0190d6a4-0000-7000-8000-000000000001")
	op := &domain.QueuedOperation{
		ID:        42,
		Type:      domain.OperationTypeInsert,
		Table:     "orders",
		Payload:   `{"item":"book"}`,
		CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("RequeueDeadLetter", ctx, id).Return(op, nil)

		var out bytes.Buffer
		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &out, id.String(), "text")

		require.NoError(t, err)
		require.Equal(
			t,
			"Requeued dead letter 0190d6a4-0000-7000-8000-000000000001 as operation 42 on table orders\n",
			out.String(),
		)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("RequeueDeadLetter", ctx, id).Return(op, nil)

		var out bytes.Buffer
		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &out, id.String(), "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"id": 42`)
		require.Contains(t, out.String(), `"table": "orders"`)
		require.Contains(t, out.String(), `"retry_count": 0`)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("not-found", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}
		mockUseCase.On("RequeueDeadLetter", ctx, id).Return(nil, domain.ErrDeadLetterNotFound)

		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &bytes.Buffer{}, id.String(), "text")

		require.ErrorIs(t, err, domain.ErrDeadLetterNotFound)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-id", func(t *testing.T) {
		mockUseCase := &mocks.MockWriteQueueUseCase{}

		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), `invalid dead letter id "not-a-uuid"`)
	})
}

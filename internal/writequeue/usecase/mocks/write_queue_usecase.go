// Package mocks provides mock implementations of the write queue use case for testing.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// MockWriteQueueUseCase is a mock implementation of WriteQueueUseCase for testing.
type MockWriteQueueUseCase struct {
	mock.Mock
}

// InsertWithFallback mocks the InsertWithFallback method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) InsertWithFallback(
	ctx context.Context,
	table string,
	payload domain.Payload,
) (*domain.InsertResult, error) {
	args := m.Called(ctx, table, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InsertResult), args.Error(1)
}

// DrainQueue mocks the DrainQueue method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) DrainQueue(ctx context.Context, limit int) (*domain.DrainResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DrainResult), args.Error(1)
}

// Stats mocks the Stats method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) Stats(ctx context.Context) (*domain.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueStats), args.Error(1)
}

// ListPending mocks the ListPending method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) ListPending(
	ctx context.Context,
	offset, limit int,
) ([]*domain.QueuedOperation, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueuedOperation), args.Error(1)
}

// ListDeadLetters mocks the ListDeadLetters method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) ListDeadLetters(
	ctx context.Context,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeadLetter), args.Error(1)
}

// RequeueDeadLetter mocks the RequeueDeadLetter method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) RequeueDeadLetter(
	ctx context.Context,
	id uuid.UUID,
) (*domain.QueuedOperation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueuedOperation), args.Error(1)
}

// DeleteDeadLetter mocks the DeleteDeadLetter method of WriteQueueUseCase.
func (m *MockWriteQueueUseCase) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

package dto

import (
	"time"

	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// InsertResponse reports whether a write was deferred to the local log.
type InsertResponse struct {
	Queued bool `json:"queued"`
}

// DrainResponse summarizes a drain pass.
type DrainResponse struct {
	Attempted    int  `json:"attempted"`
	Replayed     int  `json:"replayed"`
	Dropped      int  `json:"dropped"`
	DeadLettered int  `json:"dead_lettered"`
	Blocked      bool `json:"blocked"`
}

// MapDrainResultToResponse converts a domain drain result to an API response.
func MapDrainResultToResponse(result *domain.DrainResult) DrainResponse {
	return DrainResponse{
		Attempted:    result.Attempted,
		Replayed:     result.Replayed,
		Dropped:      result.Dropped,
		DeadLettered: result.DeadLettered,
		Blocked:      result.Blocked,
	}
}

// StatsResponse reports queue depth.
type StatsResponse struct {
	Pending     int64 `json:"pending"`
	DeadLetters int64 `json:"dead_letters"`
}

// QueuedOperationResponse represents a pending operation in API responses.
// Payload is the stored snapshot, which is ciphertext when sealing is enabled.
type QueuedOperationResponse struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Table      string    `json:"table"`
	Payload    string    `json:"payload"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// MapQueuedOperationToResponse converts a domain queued operation to an API response.
func MapQueuedOperationToResponse(op *domain.QueuedOperation) QueuedOperationResponse {
	return QueuedOperationResponse{
		ID:         op.ID,
		Type:       string(op.Type),
		Table:      op.Table,
		Payload:    op.Payload,
		RetryCount: op.RetryCount,
		CreatedAt:  op.CreatedAt,
	}
}

// DeadLetterResponse represents a dead letter in API responses.
type DeadLetterResponse struct {
	ID          string    `json:"id"`
	OperationID int64     `json:"operation_id"`
	Type        string    `json:"type"`
	Table       string    `json:"table"`
	Payload     string    `json:"payload"`
	RetryCount  int       `json:"retry_count"`
	Reason      string    `json:"reason"`
	LastError   string    `json:"last_error"`
	CreatedAt   time.Time `json:"created_at"`
	FailedAt    time.Time `json:"failed_at"`
}

// MapDeadLetterToResponse converts a domain dead letter to an API response.
func MapDeadLetterToResponse(dl *domain.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:          dl.ID.String(),
		OperationID: dl.OperationID,
		Type:        string(dl.Type),
		Table:       dl.Table,
		Payload:     dl.Payload,
		RetryCount:  dl.RetryCount,
		Reason:      string(dl.Reason),
		LastError:   dl.LastError,
		CreatedAt:   dl.CreatedAt,
		FailedAt:    dl.FailedAt,
	}
}

// ListQueuedOperationsResponse represents a page of pending operations.
type ListQueuedOperationsResponse struct {
	Data []QueuedOperationResponse `json:"data"`
}

// MapQueuedOperationsToListResponse converts pending operations to a list response.
func MapQueuedOperationsToListResponse(ops []*domain.QueuedOperation) ListQueuedOperationsResponse {
	data := make([]QueuedOperationResponse, 0, len(ops))
	for _, op := range ops {
		data = append(data, MapQueuedOperationToResponse(op))
	}
	return ListQueuedOperationsResponse{Data: data}
}

// ListDeadLettersResponse represents a page of dead letters.
type ListDeadLettersResponse struct {
	Data []DeadLetterResponse `json:"data"`
}

// MapDeadLettersToListResponse converts dead letters to a list response.
func MapDeadLettersToListResponse(dls []*domain.DeadLetter) ListDeadLettersResponse {
	data := make([]DeadLetterResponse, 0, len(dls))
	for _, dl := range dls {
		data = append(data, MapDeadLetterToResponse(dl))
	}
	return ListDeadLettersResponse{Data: data}
}

// Package http provides HTTP handlers for queued writes and queue administration.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/writequeue/internal/httputil"
	customValidation "github.com/allisson/writequeue/internal/validation"
	"github.com/allisson/writequeue/internal/writequeue/http/dto"
	"github.com/allisson/writequeue/internal/writequeue/usecase"
)

// WriteQueueHandler handles HTTP requests for remote writes and the local queue.
type WriteQueueHandler struct {
	writeQueueUseCase usecase.WriteQueueUseCase
	logger            *slog.Logger
}

// NewWriteQueueHandler creates a new write queue handler.
func NewWriteQueueHandler(writeQueueUseCase usecase.WriteQueueUseCase, logger *slog.Logger) *WriteQueueHandler {
	return &WriteQueueHandler{
		writeQueueUseCase: writeQueueUseCase,
		logger:            logger,
	}
}

// InsertRowsHandler writes one row or a list of rows to a remote table.
// POST /v1/tables/:table/rows
// Returns 201 Created when written, 202 Accepted when queued for replay.
func (h *WriteQueueHandler) InsertRowsHandler(c *gin.Context) {
	req := dto.InsertRowsRequest{Table: c.Param("table")}

	if err := c.ShouldBindJSON(&req.Payload); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.writeQueueUseCase.InsertWithFallback(c.Request.Context(), req.Table, req.Payload)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.InsertResponse{Queued: result.Queued})
}

// DrainHandler replays pending writes. The body is optional.
// POST /v1/queue/drain
func (h *WriteQueueHandler) DrainHandler(c *gin.Context) {
	var req dto.DrainRequest

	body, err := c.GetRawData()
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.HandleValidationErrorGin(c, err, h.logger)
			return
		}
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.writeQueueUseCase.DrainQueue(c.Request.Context(), req.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDrainResultToResponse(result))
}

// StatsHandler reports the pending and dead letter counts.
// GET /v1/queue/stats
func (h *WriteQueueHandler) StatsHandler(c *gin.Context) {
	stats, err := h.writeQueueUseCase.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{Pending: stats.Pending, DeadLetters: stats.DeadLetters})
}

// ListOperationsHandler lists pending operations in replay order.
// GET /v1/queue/operations?offset=0&limit=50
func (h *WriteQueueHandler) ListOperationsHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	ops, err := h.writeQueueUseCase.ListPending(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueuedOperationsToListResponse(ops))
}

// ListDeadLettersHandler lists dead letters, oldest failure first.
// GET /v1/queue/dead-letters?offset=0&limit=50
func (h *WriteQueueHandler) ListDeadLettersHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	dls, err := h.writeQueueUseCase.ListDeadLetters(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeadLettersToListResponse(dls))
}

// RequeueDeadLetterHandler appends a dead letter back to the tail of the queue.
// POST /v1/queue/dead-letters/:id/requeue
// Returns 200 OK with the new pending operation.
func (h *WriteQueueHandler) RequeueDeadLetterHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid dead letter ID format: must be a valid UUID"),
			h.logger)
		return
	}

	op, err := h.writeQueueUseCase.RequeueDeadLetter(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapQueuedOperationToResponse(op))
}

// DeleteDeadLetterHandler discards a dead letter.
// DELETE /v1/queue/dead-letters/:id
// Returns 204 No Content.
func (h *WriteQueueHandler) DeleteDeadLetterHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid dead letter ID format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.writeQueueUseCase.DeleteDeadLetter(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

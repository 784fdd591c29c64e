package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/response"
)

// handleServiceError maps service layer errors to appropriate HTTP responses
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		logger.Info("Version conflict",
			zap.String("entity_kind", string(conflict.Kind)),
			zap.String("entity_id", conflict.ID.String()),
			zap.Int64("expected_version", conflict.ExpectedVersion),
			zap.Int64("current_version", conflict.CurrentVersion))
		response.SendErrorWithDetails(c, http.StatusConflict, response.ErrCodeVersionConflict,
			"Entity was modified by another request", dto.NewConflictDetails(conflict, nil))
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Resource not found")
		return
	case errors.Is(err, domain.ErrInvalidReference):
		response.SendError(c, http.StatusUnprocessableEntity, response.ErrCodeInvalidReference, err.Error())
		return
	case errors.Is(err, domain.ErrVersionRequired):
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "expectedVersion is required")
		return
	case errors.Is(err, domain.ErrVersionConflict):
		response.SendError(c, http.StatusConflict, response.ErrCodeVersionConflict, "Entity was modified by another request")
		return
	case errors.Is(err, domain.ErrCompactionRequired):
		logger.Warn("Order key space exhausted", zap.Error(err))
		response.SendError(c, http.StatusServiceUnavailable, response.ErrCodeCompactionRequired,
			"Ordering space exhausted, compaction required")
		return
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		response.SendError(c, mapErrorCodeToHTTPStatus(appErr.Code), appErr.Code, appErr.Message)
		return
	}

	logger.Error("Unhandled service error", zap.Error(err))
	response.SendError(c, http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error")
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case response.ErrCodeNotFound:
		return http.StatusNotFound
	case response.ErrCodeValidation:
		return http.StatusBadRequest
	case response.ErrCodeInvalidReference:
		return http.StatusUnprocessableEntity
	case response.ErrCodeVersionConflict:
		return http.StatusConflict
	case response.ErrCodeCompactionRequired:
		return http.StatusServiceUnavailable
	case response.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case response.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

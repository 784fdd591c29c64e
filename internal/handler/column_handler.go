package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-board-api/internal/dto"
	"kanban-board-api/internal/response"
	"kanban-board-api/internal/service"
	"kanban-board-api/internal/util"
)

type ColumnHandler struct {
	columnService service.ColumnService
	cardService   service.CardService
	logger        *zap.Logger
}

func NewColumnHandler(columnService service.ColumnService, cardService service.CardService, logger *zap.Logger) *ColumnHandler {
	return &ColumnHandler{
		columnService: columnService,
		cardService:   cardService,
		logger:        logger,
	}
}

// CreateColumn godoc
// @Summary      Create column
// @Description  Creates a column; without beforeId/afterId it goes last
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Param        request body dto.CreateColumnRequest true "Column to create"
// @Success      201 {object} response.SuccessResponse{data=dto.ColumnResponse} "Column created"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      422 {object} response.ErrorResponse "Sibling is not in the target list or the pair is out of order"
// @Failure      503 {object} response.ErrorResponse "Order keys exhausted; compact the list and retry"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards/{boardId}/columns [post]
func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}

	var req dto.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	column, err := h.columnService.CreateColumn(c.Request.Context(), actorID, boardID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, column)
}

// UpdateColumn godoc
// @Summary      Update column
// @Description  Patches name or icon when expectedVersion matches
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.UpdateColumnRequest true "Column patch"
// @Success      200 {object} response.SuccessResponse{data=dto.ColumnResponse} "Column updated"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /columns/{columnId} [put]
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	columnID, ok := util.ParseUUIDParam(c, "columnId")
	if !ok {
		return
	}

	var req dto.UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	column, err := h.columnService.UpdateColumn(c.Request.Context(), actorID, columnID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, column)
}

// MoveColumn godoc
// @Summary      Move column
// @Description  Places the column between beforeId and afterId within its board
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.MoveColumnRequest true "Placement and expected version"
// @Success      200 {object} response.SuccessResponse{data=dto.ColumnResponse} "Column moved"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      422 {object} response.ErrorResponse "Sibling is not in the target list or the pair is out of order"
// @Failure      503 {object} response.ErrorResponse "Order keys exhausted; compact the list and retry"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /columns/{columnId}/move [put]
func (h *ColumnHandler) MoveColumn(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	columnID, ok := util.ParseUUIDParam(c, "columnId")
	if !ok {
		return
	}

	var req dto.MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	column, err := h.columnService.MoveColumn(c.Request.Context(), actorID, columnID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, column)
}

// DeleteColumn godoc
// @Summary      Delete column
// @Description  Deletes the column and its cards; sibling keys are untouched
// @Tags         columns
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Param        expectedVersion query int true "Version the caller last observed"
// @Success      204 "Column deleted"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /columns/{columnId} [delete]
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	columnID, ok := util.ParseUUIDParam(c, "columnId")
	if !ok {
		return
	}

	var req dto.DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid expectedVersion")
		return
	}

	if err := h.columnService.DeleteColumn(c.Request.Context(), actorID, columnID, req.ExpectedVersion); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompactColumn godoc
// @Summary      Compact column cards
// @Description  Rewrites card order keys evenly spaced. Order and versions are kept.
// @Tags         columns
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.CompactionResponse} "Keys rewritten"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /columns/{columnId}/compact [post]
func (h *ColumnHandler) CompactColumn(c *gin.Context) {
	columnID, ok := util.ParseUUIDParam(c, "columnId")
	if !ok {
		return
	}

	result, err := h.cardService.CompactColumn(c.Request.Context(), columnID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

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

type BoardHandler struct {
	boardService  service.BoardService
	columnService service.ColumnService
	logger        *zap.Logger
}

func NewBoardHandler(boardService service.BoardService, columnService service.ColumnService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		boardService:  boardService,
		columnService: columnService,
		logger:        logger,
	}
}

// CreateBoard godoc
// @Summary      Create board
// @Description  Creates an empty board owned by the caller
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBoardRequest true "Board to create"
// @Success      201 {object} response.SuccessResponse{data=dto.BoardResponse} "Board created"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards [post]
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}

	var req dto.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), actorID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, board)
}

// GetBoard godoc
// @Summary      Get board
// @Description  Returns the board with its columns and cards sorted by order key
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardDetailResponse} "Board tree"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards/{boardId} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}

// UpdateBoard godoc
// @Summary      Rename board
// @Description  Renames the board when expectedVersion matches the stored version
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Param        request body dto.UpdateBoardRequest true "Board patch"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse} "Board updated"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards/{boardId} [put]
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}

	var req dto.UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), actorID, boardID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}

// DeleteBoard godoc
// @Summary      Delete board
// @Description  Deletes the board with its columns and cards
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Param        expectedVersion query int true "Version the caller last observed"
// @Success      204 "Board deleted"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards/{boardId} [delete]
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}

	var req dto.DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid expectedVersion")
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), actorID, boardID, req.ExpectedVersion); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompactBoard godoc
// @Summary      Compact board columns
// @Description  Rewrites column order keys evenly spaced. Order and versions are kept.
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.CompactionResponse} "Keys rewritten"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /boards/{boardId}/compact [post]
func (h *BoardHandler) CompactBoard(c *gin.Context) {
	boardID, ok := util.ParseUUIDParam(c, "boardId")
	if !ok {
		return
	}

	result, err := h.columnService.CompactBoard(c.Request.Context(), boardID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

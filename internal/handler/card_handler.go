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

type CardHandler struct {
	cardService service.CardService
	logger      *zap.Logger
}

func NewCardHandler(cardService service.CardService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

// CreateCard godoc
// @Summary      Create card
// @Description  Creates a card in columnId; without beforeId/afterId it goes last
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateCardRequest true "Card to create"
// @Success      201 {object} response.SuccessResponse{data=dto.CardResponse} "Card created"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      422 {object} response.ErrorResponse "Sibling is not in the target list or the pair is out of order"
// @Failure      503 {object} response.ErrorResponse "Order keys exhausted; compact the list and retry"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}

	var req dto.CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	card, err := h.cardService.CreateCard(c.Request.Context(), actorID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, card)
}

// GetCard godoc
// @Summary      Get card
// @Description  Returns the card with attachment download URLs
// @Tags         cards
// @Produce      json
// @Security     BearerAuth
// @Param        cardId path string true "Card ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.CardResponse} "Card"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards/{cardId} [get]
func (h *CardHandler) GetCard(c *gin.Context) {
	cardID, ok := util.ParseUUIDParam(c, "cardId")
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(c.Request.Context(), cardID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, card)
}

// UpdateCard godoc
// @Summary      Update card
// @Description  Applies a field patch as one change with one version bump
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cardId path string true "Card ID (UUID)"
// @Param        request body dto.UpdateCardRequest true "Card patch"
// @Success      200 {object} response.SuccessResponse{data=dto.CardResponse} "Card updated"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards/{cardId} [put]
func (h *CardHandler) UpdateCard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	cardID, ok := util.ParseUUIDParam(c, "cardId")
	if !ok {
		return
	}

	var req dto.UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	card, err := h.cardService.UpdateCard(c.Request.Context(), actorID, cardID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, card)
}

// MoveCard godoc
// @Summary      Move card
// @Description  Moves the card to targetColumnId (default: its column) between beforeId and afterId
// @Description  Column and order key change together
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cardId path string true "Card ID (UUID)"
// @Param        request body dto.MoveCardRequest true "Target, placement and expected version"
// @Success      200 {object} response.SuccessResponse{data=dto.CardResponse} "Card moved"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      422 {object} response.ErrorResponse "Sibling is not in the target list or the pair is out of order"
// @Failure      503 {object} response.ErrorResponse "Order keys exhausted; compact the list and retry"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards/{cardId}/move [put]
func (h *CardHandler) MoveCard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	cardID, ok := util.ParseUUIDParam(c, "cardId")
	if !ok {
		return
	}

	var req dto.MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	card, err := h.cardService.MoveCard(c.Request.Context(), actorID, cardID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, card)
}

// DeleteCard godoc
// @Summary      Delete card
// @Description  Deletes the card and, best effort, its attachment blobs
// @Tags         cards
// @Produce      json
// @Security     BearerAuth
// @Param        cardId path string true "Card ID (UUID)"
// @Param        expectedVersion query int true "Version the caller last observed"
// @Success      204 "Card deleted"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      409 {object} response.ErrorResponse "Stale expectedVersion; details carry the current version and snapshot"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards/{cardId} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	cardID, ok := util.ParseUUIDParam(c, "cardId")
	if !ok {
		return
	}

	var req dto.DeleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid expectedVersion")
		return
	}

	if err := h.cardService.DeleteCard(c.Request.Context(), actorID, cardID, req.ExpectedVersion); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleChecklistItem godoc
// @Summary      Toggle checklist item
// @Description  Sets the done flag of one checklist item. Last writer wins, so no expectedVersion is read.
// @Tags         cards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cardId path string true "Card ID (UUID)"
// @Param        itemId path string true "Checklist item ID (UUID)"
// @Param        request body dto.ToggleChecklistItemRequest true "Done flag"
// @Success      200 {object} response.SuccessResponse{data=dto.CardResponse} "Card updated"
// @Failure      400 {object} response.ErrorResponse "Invalid request"
// @Failure      401 {object} response.ErrorResponse "Missing or invalid token"
// @Failure      404 {object} response.ErrorResponse "Not found"
// @Failure      500 {object} response.ErrorResponse "Internal error"
// @Router       /cards/{cardId}/checklist/{itemId} [put]
func (h *CardHandler) ToggleChecklistItem(c *gin.Context) {
	actorID, ok := util.ExtractActor(c)
	if !ok {
		return
	}
	cardID, ok := util.ParseUUIDParam(c, "cardId")
	if !ok {
		return
	}
	itemID, ok := util.ParseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	var req dto.ToggleChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	card, err := h.cardService.ToggleChecklistItem(c.Request.Context(), actorID, cardID, itemID, req.Done)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, card)
}

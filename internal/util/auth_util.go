package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kanban-board-api/internal/response"
)

// ActorKey is the gin context key holding the authenticated actor id
const ActorKey = "user_id"

// ActorID returns the authenticated actor id, if any
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ExtractActor returns the actor id or writes a 401 and reports false
func ExtractActor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := ActorID(c)
	if !ok {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "User ID not found in context")
		return uuid.Nil, false
	}
	return id, true
}

// ParseUUIDParam parses a path parameter or writes a 400 and reports false
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateBoardRequest represents the request to create a board
type CreateBoardRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// UpdateBoardRequest renames a board
type UpdateBoardRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=255"`
	ExpectedVersion *int64  `json:"expectedVersion"`
}

// DeleteRequest carries the version the caller last observed
type DeleteRequest struct {
	ExpectedVersion *int64 `form:"expectedVersion"`
}

// BoardResponse represents a board without its children
type BoardResponse struct {
	BoardID   uuid.UUID `json:"boardId"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoardDetailResponse represents a board with ordered columns and cards
type BoardDetailResponse struct {
	BoardResponse
	Columns []ColumnDetailResponse `json:"columns"`
}

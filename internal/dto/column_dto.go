package dto

import (
	"time"

	"github.com/google/uuid"
)

// Placement names the siblings a column or card should sit between.
// BeforeID ends up before the entity and AfterID after it; the pair need not be adjacent.
type Placement struct {
	BeforeID *uuid.UUID `json:"beforeId"`
	AfterID  *uuid.UUID `json:"afterId"`
}

// CreateColumnRequest represents the request to create a column
type CreateColumnRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
	Icon string `json:"icon" binding:"max=64"`
	Placement
}

// UpdateColumnRequest patches display fields of a column
type UpdateColumnRequest struct {
	Name            *string `json:"name" binding:"omitempty,min=1,max=255"`
	Icon            *string `json:"icon" binding:"omitempty,max=64"`
	ExpectedVersion *int64  `json:"expectedVersion"`
}

// MoveColumnRequest reorders a column within its board
type MoveColumnRequest struct {
	Placement
	ExpectedVersion *int64 `json:"expectedVersion"`
}

// ColumnResponse represents a column without its cards
type ColumnResponse struct {
	ColumnID  uuid.UUID `json:"columnId"`
	BoardID   uuid.UUID `json:"boardId"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	OrderKey  string    `json:"orderKey"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnDetailResponse represents a column with ordered cards
type ColumnDetailResponse struct {
	ColumnResponse
	Cards []CardResponse `json:"cards"`
}

// CompactionResponse reports a sibling key rewrite
type CompactionResponse struct {
	ParentID  uuid.UUID `json:"parentId"`
	Rewritten int       `json:"rewritten"`
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistItemRequest is one checklist line. A nil ID asks the server to assign one.
type ChecklistItemRequest struct {
	ID   *uuid.UUID `json:"id"`
	Text string     `json:"text" binding:"required,max=500"`
	Done bool       `json:"done"`
}

// AttachmentRequest describes an attachment. Links carry url; files and photos carry blobRef.
type AttachmentRequest struct {
	ID       *uuid.UUID `json:"id"`
	Kind     string     `json:"kind" binding:"required,oneof=file link photo"`
	Name     string     `json:"name" binding:"required,max=255"`
	URL      string     `json:"url"`
	BlobRef  string     `json:"blobRef"`
	MimeType string     `json:"mimeType"`
	Size     int64      `json:"size" binding:"min=0"`
}

// CreateCardRequest represents the request to create a card
type CreateCardRequest struct {
	ColumnID    uuid.UUID              `json:"columnId" binding:"required"`
	Title       string                 `json:"title" binding:"required,min=1,max=255"`
	Description string                 `json:"description"`
	AssigneeID  *uuid.UUID             `json:"assigneeId"`
	Deadline    *time.Time             `json:"deadline"`
	Priority    string                 `json:"priority"`
	Tags        []string               `json:"tags"`
	Categories  []string               `json:"categories"`
	Checklist   []ChecklistItemRequest `json:"checklist" binding:"omitempty,dive"`
	Attachments []AttachmentRequest    `json:"attachments" binding:"omitempty,dive"`
	Placement
}

// UpdateCardRequest is a field patch. Nil fields are left unchanged.
type UpdateCardRequest struct {
	Title         *string                 `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string                 `json:"description"`
	AssigneeID    *uuid.UUID              `json:"assigneeId"`
	ClearAssignee bool                    `json:"clearAssignee"`
	Deadline      *time.Time              `json:"deadline"`
	ClearDeadline bool                    `json:"clearDeadline"`
	Priority      *string                 `json:"priority"`
	Tags          *[]string               `json:"tags"`
	Categories    *[]string               `json:"categories"`
	Checklist     *[]ChecklistItemRequest `json:"checklist"`
	Attachments   *[]AttachmentRequest    `json:"attachments"`

	ExpectedVersion *int64 `json:"expectedVersion"`
}

// MoveCardRequest relocates a card. A nil TargetColumnID keeps the current column.
type MoveCardRequest struct {
	TargetColumnID *uuid.UUID `json:"targetColumnId"`
	Placement
	ExpectedVersion *int64 `json:"expectedVersion"`
}

// ToggleChecklistItemRequest sets the done flag of one checklist item
type ToggleChecklistItemRequest struct {
	Done bool `json:"done"`
}

// ChecklistItemResponse is one checklist line
type ChecklistItemResponse struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	Done bool      `json:"done"`
}

// AttachmentResponse is an attachment with a resolved download URL
type AttachmentResponse struct {
	ID       uuid.UUID `json:"id"`
	Kind     string    `json:"kind"`
	Name     string    `json:"name"`
	URL      string    `json:"url,omitempty"`
	BlobRef  string    `json:"blobRef,omitempty"`
	MimeType string    `json:"mimeType,omitempty"`
	Size     int64     `json:"size"`
}

// CardResponse represents a card
type CardResponse struct {
	CardID      uuid.UUID               `json:"cardId"`
	BoardID     uuid.UUID               `json:"boardId"`
	ColumnID    uuid.UUID               `json:"columnId"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	AssigneeID  *uuid.UUID              `json:"assigneeId,omitempty"`
	CreatedBy   uuid.UUID               `json:"createdBy"`
	Deadline    *time.Time              `json:"deadline,omitempty"`
	Priority    string                  `json:"priority"`
	Tags        []string                `json:"tags"`
	Categories  []string                `json:"categories"`
	Checklist   []ChecklistItemResponse `json:"checklist"`
	Attachments []AttachmentResponse    `json:"attachments"`
	OrderKey    string                  `json:"orderKey"`
	Version     int64                   `json:"version"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

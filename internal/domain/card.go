package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Priority is the urgency level of a card
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a case-insensitive string into a Priority
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// AttachmentKind distinguishes the three attachment flavours
type AttachmentKind string

const (
	AttachmentKindFile  AttachmentKind = "file"
	AttachmentKindLink  AttachmentKind = "link"
	AttachmentKindPhoto AttachmentKind = "photo"
)

// IsValid reports whether k is a known attachment kind
func (k AttachmentKind) IsValid() bool {
	switch k {
	case AttachmentKindFile, AttachmentKindLink, AttachmentKindPhoto:
		return true
	}
	return false
}

// ChecklistItem is one toggleable line in a card checklist
type ChecklistItem struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
	Done bool      `json:"done"`
}

// Attachment references either an external URL (link) or a stored blob (file, photo).
// BlobRef is the object key in the attachment bucket.
type Attachment struct {
	ID       uuid.UUID      `json:"id"`
	Kind     AttachmentKind `json:"kind"`
	Name     string         `json:"name"`
	URL      string         `json:"url,omitempty"`
	BlobRef  string         `json:"blob_ref,omitempty"`
	MimeType string         `json:"mime_type,omitempty"`
	Size     int64          `json:"size,omitempty"`
}

// Card is a task item inside a column.
// BoardID is denormalized from the owning column so board-scoped lookups avoid a join.
type Card struct {
	BaseModel
	Versioned
	BoardID     uuid.UUID                          `gorm:"type:uuid;not null;index:idx_cards_board_id" json:"board_id"`
	ColumnID    uuid.UUID                          `gorm:"type:uuid;not null;index:idx_cards_column_id;uniqueIndex:uq_cards_column_order,priority:1" json:"column_id"`
	Title       string                             `gorm:"type:varchar(255);not null" json:"title"`
	Description string                             `gorm:"type:text" json:"description"`
	AssigneeID  *uuid.UUID                         `gorm:"type:uuid;index:idx_cards_assignee_id" json:"assignee_id,omitempty"`
	CreatedBy   uuid.UUID                          `gorm:"type:uuid;not null" json:"created_by"`
	Deadline    *time.Time                         `json:"deadline,omitempty"`
	Priority    Priority                           `gorm:"type:varchar(10);not null" json:"priority"`
	Tags        datatypes.JSONSlice[string]        `json:"tags"`
	Categories  datatypes.JSONSlice[string]        `json:"categories"`
	Checklist   datatypes.JSONSlice[ChecklistItem] `json:"checklist"`
	Attachments datatypes.JSONSlice[Attachment]    `json:"attachments"`
	OrderKey    string                             `gorm:"type:varchar(255);not null;uniqueIndex:uq_cards_column_order,priority:2" json:"order_key"`
}

// TableName specifies the table name for Card
func (Card) TableName() string {
	return "cards"
}

func (c *Card) GetID() uuid.UUID       { return c.ID }
func (c *Card) GetOrderKey() string    { return c.OrderKey }
func (c *Card) GetParentID() uuid.UUID { return c.ColumnID }

// BlobRefs returns the object keys of every stored attachment
func (c *Card) BlobRefs() []string {
	var refs []string
	for _, a := range c.Attachments {
		if a.BlobRef != "" && (a.Kind == AttachmentKindFile || a.Kind == AttachmentKindPhoto) {
			refs = append(refs, a.BlobRef)
		}
	}
	return refs
}

// ChecklistIndex returns the position of the checklist item with the given ID or -1
func (c *Card) ChecklistIndex(itemID uuid.UUID) int {
	for i, item := range c.Checklist {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

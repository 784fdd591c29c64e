package dto

import (
	"kanban-board-api/internal/domain"
)

// URLResolver turns a stored blob key into a download URL
type URLResolver func(blobRef string) string

// NewBoardResponse converts a board without its children
func NewBoardResponse(b *domain.Board) *BoardResponse {
	return &BoardResponse{
		BoardID:   b.ID,
		Name:      b.Name,
		OwnerID:   b.OwnerID,
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// NewBoardDetailResponse converts a board loaded with its columns and cards
func NewBoardDetailResponse(b *domain.Board, resolve URLResolver) *BoardDetailResponse {
	columns := make([]ColumnDetailResponse, 0, len(b.Columns))
	for i := range b.Columns {
		col := &b.Columns[i]
		cards := make([]CardResponse, 0, len(col.Cards))
		for j := range col.Cards {
			cards = append(cards, *NewCardResponse(&col.Cards[j], resolve))
		}
		columns = append(columns, ColumnDetailResponse{
			ColumnResponse: *NewColumnResponse(col),
			Cards:          cards,
		})
	}
	return &BoardDetailResponse{
		BoardResponse: *NewBoardResponse(b),
		Columns:       columns,
	}
}

// NewColumnResponse converts a column without its cards
func NewColumnResponse(c *domain.Column) *ColumnResponse {
	return &ColumnResponse{
		ColumnID:  c.ID,
		BoardID:   c.BoardID,
		Name:      c.Name,
		Icon:      c.Icon,
		OrderKey:  c.OrderKey,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCardResponse converts a card. resolve may be nil when no blob store is configured.
func NewCardResponse(c *domain.Card, resolve URLResolver) *CardResponse {
	checklist := make([]ChecklistItemResponse, 0, len(c.Checklist))
	for _, item := range c.Checklist {
		checklist = append(checklist, ChecklistItemResponse{ID: item.ID, Text: item.Text, Done: item.Done})
	}

	attachments := make([]AttachmentResponse, 0, len(c.Attachments))
	for _, a := range c.Attachments {
		url := a.URL
		if a.BlobRef != "" && resolve != nil {
			url = resolve(a.BlobRef)
		}
		attachments = append(attachments, AttachmentResponse{
			ID:       a.ID,
			Kind:     string(a.Kind),
			Name:     a.Name,
			URL:      url,
			BlobRef:  a.BlobRef,
			MimeType: a.MimeType,
			Size:     a.Size,
		})
	}

	return &CardResponse{
		CardID:      c.ID,
		BoardID:     c.BoardID,
		ColumnID:    c.ColumnID,
		Title:       c.Title,
		Description: c.Description,
		AssigneeID:  c.AssigneeID,
		CreatedBy:   c.CreatedBy,
		Deadline:    c.Deadline,
		Priority:    string(c.Priority),
		Tags:        nonNil(c.Tags),
		Categories:  nonNil(c.Categories),
		Checklist:   checklist,
		Attachments: attachments,
		OrderKey:    c.OrderKey,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewEventMessage converts a domain event to its wire form
func NewEventMessage(e domain.DomainEvent) EventMessage {
	return EventMessage{
		EntityKind:      string(e.EntityKind),
		EntityID:        e.EntityID,
		BoardID:         e.BoardID,
		Version:         e.Version,
		Type:            string(e.Type),
		ActorID:         e.ActorID,
		Title:           e.Summary.Title,
		Fields:          e.Summary.Fields,
		FromParentID:    e.Summary.FromParentID,
		ToParentID:      e.Summary.ToParentID,
		PositionChanged: e.Summary.PositionChanged,
		DedupeKey:       e.DedupeKey,
		OccurredAt:      e.OccurredAt,
	}
}

// NewConflictDetails converts a conflict into its response payload
func NewConflictDetails(e *domain.ConflictError, resolve URLResolver) ConflictDetails {
	d := ConflictDetails{
		EntityKind:      string(e.Kind),
		EntityID:        e.ID,
		ExpectedVersion: e.ExpectedVersion,
		CurrentVersion:  e.CurrentVersion,
	}
	switch s := e.Snapshot.(type) {
	case *domain.Card:
		d.Snapshot = NewCardResponse(s, resolve)
	case *domain.Column:
		d.Snapshot = NewColumnResponse(s)
	case *domain.Board:
		d.Snapshot = NewBoardResponse(s)
	default:
		d.Snapshot = s
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

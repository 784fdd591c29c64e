package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType is the kind of change a DomainEvent describes
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeMoved   EventType = "moved"
)

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeCreated, EventTypeUpdated, EventTypeDeleted, EventTypeMoved:
		return true
	}
	return false
}

// ChangeSummary describes what a committed mutation touched
type ChangeSummary struct {
	Title           string     `json:"title,omitempty"`
	Fields          []string   `json:"fields,omitempty"`
	FromParentID    *uuid.UUID `json:"from_parent_id,omitempty"`
	ToParentID      *uuid.UUID `json:"to_parent_id,omitempty"`
	PositionChanged bool       `json:"position_changed"`
}

// DomainEvent is the record of one committed mutation.
// Audience holds actors directly concerned by the change (for cards, the assignee).
type DomainEvent struct {
	EntityKind EntityKind    `json:"entity_kind"`
	EntityID   uuid.UUID     `json:"entity_id"`
	BoardID    uuid.UUID     `json:"board_id"`
	Version    int64         `json:"version"`
	Type       EventType     `json:"type"`
	ActorID    uuid.UUID     `json:"actor_id"`
	Audience   []uuid.UUID   `json:"audience,omitempty"`
	Summary    ChangeSummary `json:"summary"`
	DedupeKey  string        `json:"dedupe_key"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewDomainEvent builds an event and derives its dedupe key
func NewDomainEvent(kind EntityKind, id, boardID uuid.UUID, version int64, eventType EventType, actorID uuid.UUID, summary ChangeSummary) DomainEvent {
	return DomainEvent{
		EntityKind: kind,
		EntityID:   id,
		BoardID:    boardID,
		Version:    version,
		Type:       eventType,
		ActorID:    actorID,
		Summary:    summary,
		DedupeKey:  DedupeKey(kind, id, eventType, version),
		OccurredAt: time.Now().UTC(),
	}
}

// DedupeKey identifies one logical change.
// Deletes carry their own discriminator because a delete shares the version
// of the last update it removed.
func DedupeKey(kind EntityKind, id uuid.UUID, eventType EventType, version int64) string {
	if eventType == EventTypeDeleted {
		return fmt.Sprintf("%s:%s:deleted@%d", kind, id, version)
	}
	return fmt.Sprintf("%s:%s:%d", kind, id, version)
}

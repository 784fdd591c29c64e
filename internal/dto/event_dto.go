package dto

import (
	"time"

	"github.com/google/uuid"
)

// EventMessage is the wire form of a domain event pushed to board viewers and webhooks
type EventMessage struct {
	EntityKind      string     `json:"entityKind"`
	EntityID        uuid.UUID  `json:"entityId"`
	BoardID         uuid.UUID  `json:"boardId"`
	Version         int64      `json:"version"`
	Type            string     `json:"type"`
	ActorID         uuid.UUID  `json:"actorId"`
	Title           string     `json:"title,omitempty"`
	Fields          []string   `json:"fields,omitempty"`
	FromParentID    *uuid.UUID `json:"fromParentId,omitempty"`
	ToParentID      *uuid.UUID `json:"toParentId,omitempty"`
	PositionChanged bool       `json:"positionChanged"`
	DedupeKey       string     `json:"dedupeKey"`
	OccurredAt      time.Time  `json:"occurredAt"`
}

// ConflictDetails is returned with a VERSION_CONFLICT error
type ConflictDetails struct {
	EntityKind      string      `json:"entityKind"`
	EntityID        uuid.UUID   `json:"entityId"`
	ExpectedVersion int64       `json:"expectedVersion"`
	CurrentVersion  int64       `json:"currentVersion"`
	Snapshot        interface{} `json:"snapshot"`
}

// Package notify turns committed domain events into notifications: it asks the
// dedupe ledger whether an event is new, then fans it out to every sink the
// recipient's preferences allow.
package notify

import (
	"context"

	"github.com/google/uuid"

	"kanban-board-api/internal/domain"
)

// Recipient is either one actor or everyone watching the event's board
type Recipient struct {
	ActorID   uuid.UUID
	Broadcast bool
}

// BoardRecipient addresses every viewer of a board
var BoardRecipient = Recipient{Broadcast: true}

// ActorRecipient addresses a single actor
func ActorRecipient(id uuid.UUID) Recipient {
	return Recipient{ActorID: id}
}

func (r Recipient) String() string {
	if r.Broadcast {
		return "board"
	}
	return "actor:" + r.ActorID.String()
}

// Sink delivers notifications over one channel
type Sink interface {
	Channel() domain.Channel
	// Supports reports whether the sink can address r at all
	Supports(r Recipient) bool
	Send(ctx context.Context, event domain.DomainEvent, r Recipient) error
}

// recipientsOf lists who should hear about event. Direct recipients never
// include the actor who made the change.
func recipientsOf(event domain.DomainEvent) []Recipient {
	out := []Recipient{BoardRecipient}
	seen := map[uuid.UUID]bool{event.ActorID: true}
	for _, id := range event.Audience {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, ActorRecipient(id))
	}
	return out
}

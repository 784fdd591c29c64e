// Package ledger remembers which domain events were already announced so a
// retried dispatch of the same change is suppressed.
package ledger

import (
	"context"
	"time"

	"kanban-board-api/internal/domain"
)

// Ledger is an atomic check-and-record store of dedupe keys
type Ledger interface {
	// ShouldAnnounce records the event's dedupe key and reports whether this call
	// was the first to do so. The check and the record are one atomic step.
	ShouldAnnounce(ctx context.Context, event domain.DomainEvent) (bool, error)
	// Record marks the event as announced without asking. It is idempotent.
	Record(ctx context.Context, event domain.DomainEvent) error
	// Seen reports whether a dedupe key is currently recorded
	Seen(ctx context.Context, dedupeKey string) (bool, error)
	// Purge drops records announced before cutoff and returns how many went
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

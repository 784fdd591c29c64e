package ledger

import (
	"context"
	"fmt"
	"time"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/repository"
)

// SQLLedger stores dedupe keys in the event_announcements table.
// The primary key on dedupe_key makes the insert the atomic check.
type SQLLedger struct {
	repo repository.AnnouncementRepository
	now  func() time.Time
}

// NewSQLLedger creates a ledger backed by repo
func NewSQLLedger(repo repository.AnnouncementRepository) *SQLLedger {
	return &SQLLedger{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (l *SQLLedger) row(event domain.DomainEvent) *domain.Announcement {
	return &domain.Announcement{
		DedupeKey:   event.DedupeKey,
		EntityKind:  event.EntityKind,
		EntityID:    event.EntityID,
		Version:     event.Version,
		EventType:   event.Type,
		AnnouncedAt: l.now(),
	}
}

// ShouldAnnounce returns true for the first caller with this event's dedupe key
func (l *SQLLedger) ShouldAnnounce(ctx context.Context, event domain.DomainEvent) (bool, error) {
	inserted, err := l.repo.InsertIfAbsent(ctx, l.row(event))
	if err != nil {
		return false, fmt.Errorf("sql ledger insert %s: %w", event.DedupeKey, err)
	}
	return inserted, nil
}

// Record marks the event as announced
func (l *SQLLedger) Record(ctx context.Context, event domain.DomainEvent) error {
	if _, err := l.repo.InsertIfAbsent(ctx, l.row(event)); err != nil {
		return fmt.Errorf("sql ledger record %s: %w", event.DedupeKey, err)
	}
	return nil
}

// Seen reports whether the key is recorded
func (l *SQLLedger) Seen(ctx context.Context, dedupeKey string) (bool, error) {
	return l.repo.Exists(ctx, dedupeKey)
}

// Purge deletes records announced before cutoff
func (l *SQLLedger) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := l.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sql ledger purge: %w", err)
	}
	return n, nil
}

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kanban-board-api/internal/domain"
)

type delivery struct {
	event     domain.DomainEvent
	recipient Recipient
}

// MockSink records deliveries and optionally fails or stalls
type MockSink struct {
	ChannelValue domain.Channel
	SupportsFunc func(r Recipient) bool
	SendFunc     func(ctx context.Context, event domain.DomainEvent, r Recipient) error
	mu           sync.Mutex
	deliveries   []delivery
}

func (m *MockSink) Channel() domain.Channel { return m.ChannelValue }

func (m *MockSink) Supports(r Recipient) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(r)
	}
	return true
}

func (m *MockSink) Send(ctx context.Context, event domain.DomainEvent, r Recipient) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, event, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, delivery{event: event, recipient: r})
	return nil
}

func (m *MockSink) Deliveries() []delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]delivery(nil), m.deliveries...)
}

// MockPreferenceStore is a mock implementation of PreferenceStore
type MockPreferenceStore struct {
	FindApplicableFunc func(ctx context.Context, eventType domain.EventType, boardID uuid.UUID, actorIDs []uuid.UUID) ([]*domain.NotificationPreference, error)
}

func (m *MockPreferenceStore) FindApplicable(ctx context.Context, eventType domain.EventType, boardID uuid.UUID, actorIDs []uuid.UUID) ([]*domain.NotificationPreference, error) {
	if m.FindApplicableFunc != nil {
		return m.FindApplicableFunc(ctx, eventType, boardID, actorIDs)
	}
	return nil, nil
}

// MockLedger is an in-memory ledger.Ledger
type MockLedger struct {
	Err  error
	mu   sync.Mutex
	keys map[string]bool
}

func (m *MockLedger) ShouldAnnounce(ctx context.Context, event domain.DomainEvent) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[event.DedupeKey] {
		return false, nil
	}
	m.keys[event.DedupeKey] = true
	return true, nil
}

func (m *MockLedger) Record(ctx context.Context, event domain.DomainEvent) error {
	_, err := m.ShouldAnnounce(ctx, event)
	return err
}

func (m *MockLedger) Seen(ctx context.Context, dedupeKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[dedupeKey], nil
}

func (m *MockLedger) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// recordingDispatcher captures dispatched events in order
type recordingDispatcher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingDispatcher) Events() []domain.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DomainEvent(nil), r.events...)
}

func cardEvent(eventType domain.EventType, version int64, actor uuid.UUID, audience ...uuid.UUID) domain.DomainEvent {
	ev := domain.NewDomainEvent(domain.EntityKindCard, uuid.New(), uuid.New(), version, eventType, actor, domain.ChangeSummary{Title: "card"})
	ev.Audience = audience
	return ev
}

package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
	"kanban-board-api/internal/ordering"
	"kanban-board-api/internal/repository"
)

// MockEventPublisher records every published event
type MockEventPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockEventPublisher) Events() []domain.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DomainEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) Last() domain.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[len(m.events)-1]
}

// MockBlobStore is a mock implementation of BlobStore
type MockBlobStore struct {
	PresignGetURLFunc func(ctx context.Context, key string) (string, error)
	DeleteObjectsFunc func(ctx context.Context, keys []string) error

	mu      sync.Mutex
	deleted []string
}

func (m *MockBlobStore) PresignGetURL(ctx context.Context, key string) (string, error) {
	if m.PresignGetURLFunc != nil {
		return m.PresignGetURLFunc(ctx, key)
	}
	return "https://blobs.test/" + key, nil
}

func (m *MockBlobStore) DeleteObjects(ctx context.Context, keys []string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, keys...)
	m.mu.Unlock()
	if m.DeleteObjectsFunc != nil {
		return m.DeleteObjectsFunc(ctx, keys)
	}
	return nil
}

func (m *MockBlobStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// memoryStore is an in-memory VersionedStore used to drive the guard directly
type memoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Card

	// CompareAndSetFunc, when set, runs before the stored compare-and-set
	CompareAndSetFunc func(id uuid.UUID, expected int64)
	casCalls          int
}

func newMemoryStore(cards ...domain.Card) *memoryStore {
	s := &memoryStore{rows: make(map[uuid.UUID]domain.Card)}
	for _, c := range cards {
		s.rows[c.ID] = c
	}
	return s
}

func (s *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Checklist = append(c.Checklist[:0:0], c.Checklist...)
	return &c, nil
}

func (s *memoryStore) CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error) {
	if s.CompareAndSetFunc != nil {
		s.CompareAndSetFunc(id, expected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.casCalls++
	c, ok := s.rows[id]
	if !ok || c.Version != expected {
		return false, nil
	}
	for k, v := range changes {
		switch k {
		case "title":
			c.Title = v.(string)
		case "checklist":
			items := v.(datatypes.JSONSlice[domain.ChecklistItem])
			c.Checklist = append(items[:0:0], items...)
		}
	}
	c.Version++
	s.rows[id] = c
	return true, nil
}

func (s *memoryStore) DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.Version != expected {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

// bump changes a row behind the guard's back
func (s *memoryStore) bump(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.rows[id]
	c.Version++
	s.rows[id] = c
}

func (s *memoryStore) get(id uuid.UUID) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

// testEngine wires the three coordinators over an in-memory sqlite database
type testEngine struct {
	db        *gorm.DB
	boards    BoardService
	columns   ColumnService
	cards     CardService
	cardRepo  repository.CardRepository
	colRepo   repository.ColumnRepository
	publisher *MockEventPublisher
	blobs     *MockBlobStore
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Board{}, &domain.Column{}, &domain.Card{}))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestEngine(t *testing.T, cfg ordering.Config) *testEngine {
	t.Helper()
	db := setupTestDB(t)

	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	cardRepo := repository.NewCardRepository(db)
	alloc := ordering.NewAllocator(cfg)
	publisher := &MockEventPublisher{}
	blobs := &MockBlobStore{}
	logger := zap.NewNop()

	return &testEngine{
		db:        db,
		boards:    NewBoardService(boardRepo, cardRepo, publisher, blobs, nil, logger),
		columns:   NewColumnService(boardRepo, columnRepo, cardRepo, alloc, publisher, blobs, nil, logger),
		cards:     NewCardService(columnRepo, cardRepo, alloc, publisher, blobs, nil, logger),
		cardRepo:  cardRepo,
		colRepo:   columnRepo,
		publisher: publisher,
		blobs:     blobs,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func uuidPtr(v uuid.UUID) *uuid.UUID { return &v }

func strPtr(v string) *string { return &v }

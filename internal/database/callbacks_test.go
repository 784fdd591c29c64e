package database

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

type queryRecord struct {
	operation string
	table     string
	err       error
}

// mockMetricsRecorder captures every recorded query
type mockMetricsRecorder struct {
	mu      sync.Mutex
	queries []queryRecord
	stats   []sql.DBStats
}

func (m *mockMetricsRecorder) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, queryRecord{operation: operation, table: table, err: err})
}

func (m *mockMetricsRecorder) UpdateDBStats(stats interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := stats.(sql.DBStats); ok {
		m.stats = append(m.stats, s)
	}
}

func (m *mockMetricsRecorder) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = nil
}

func (m *mockMetricsRecorder) snapshot() []queryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queryRecord(nil), m.queries...)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "Failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestRegisterMetricsCallbacks_RecordsEachOperation(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, recorder))

	board := &domain.Board{Name: "Roadmap", OwnerID: uuid.New(), Versioned: domain.Versioned{Version: 1}}
	require.NoError(t, db.Create(board).Error)

	var loaded domain.Board
	require.NoError(t, db.First(&loaded, "id = ?", board.ID).Error)
	require.NoError(t, db.Model(&domain.Board{}).Where("id = ?", board.ID).Update("name", "Q3").Error)
	require.NoError(t, db.Delete(&domain.Board{}, "id = ?", board.ID).Error)

	queries := recorder.snapshot()
	require.Len(t, queries, 4)

	ops := []string{"insert", "select", "update", "delete"}
	for i, q := range queries {
		assert.Equal(t, ops[i], q.operation)
		assert.Equal(t, "boards", q.table)
		assert.NoError(t, q.err)
	}
}

func TestRegisterMetricsCallbacks_NotFoundIsNotAnError(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, recorder))
	recorder.reset()

	var missing domain.Card
	err := db.First(&missing, "id = ?", uuid.New()).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	queries := recorder.snapshot()
	require.Len(t, queries, 1)
	assert.Equal(t, "cards", queries[0].table)
	assert.NoError(t, queries[0].err)
}

func TestRegisterMetricsCallbacks_RecordsFailures(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, recorder))

	boardID := uuid.New()
	first := &domain.Column{BoardID: boardID, Name: "Todo", OrderKey: "i", Versioned: domain.Versioned{Version: 1}}
	require.NoError(t, db.Create(first).Error)
	recorder.reset()

	dup := &domain.Column{BoardID: boardID, Name: "Doing", OrderKey: "i", Versioned: domain.Versioned{Version: 1}}
	err := db.Create(dup).Error
	require.Error(t, err)

	queries := recorder.snapshot()
	require.Len(t, queries, 1)
	assert.Equal(t, "insert", queries[0].operation)
	assert.Error(t, queries[0].err)
}

func TestStartDBStatsCollector(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartDBStatsCollector(ctx, db, recorder, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.stats) > 0
	}, time.Second, 10*time.Millisecond)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

// ColumnRepository defines the interface for column data access
type ColumnRepository interface {
	Create(ctx context.Context, column *domain.Column) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Column, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error)
	DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error)

	Prev(ctx context.Context, boardID uuid.UUID, key string) (*domain.Column, error)
	Next(ctx context.Context, boardID uuid.UUID, key string) (*domain.Column, error)
	Last(ctx context.Context, boardID uuid.UUID) (*domain.Column, error)
	RewriteKeys(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID, keys []string) error
}

// columnRepositoryImpl is the GORM implementation of ColumnRepository
type columnRepositoryImpl struct {
	db       *gorm.DB
	siblings siblings[domain.Column]
}

// NewColumnRepository creates a new instance of ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &columnRepositoryImpl{
		db:       db,
		siblings: siblings[domain.Column]{db: db, parentColumn: "board_id"},
	}
}

// Create creates a new column
func (r *columnRepositoryImpl) Create(ctx context.Context, column *domain.Column) error {
	return r.db.WithContext(ctx).Omit("Cards").Create(column).Error
}

// FindByID finds a column by its ID
func (r *columnRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	return findByID[domain.Column](ctx, r.db, id)
}

// ListByBoard returns the columns of a board in display order
func (r *columnRepositoryImpl) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error) {
	return r.siblings.list(ctx, boardID)
}

// CompareAndSet updates the column only if its version still equals expected
func (r *columnRepositoryImpl) CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error) {
	return compareAndSet[domain.Column](ctx, r.db, id, expected, changes)
}

// DeleteIfVersion removes the column and its cards in one transaction
func (r *columnRepositoryImpl) DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND version = ?", id, expected).Delete(&domain.Column{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("column_id = ?", id).Delete(&domain.Card{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (r *columnRepositoryImpl) Prev(ctx context.Context, boardID uuid.UUID, key string) (*domain.Column, error) {
	return r.siblings.prev(ctx, boardID, key)
}

func (r *columnRepositoryImpl) Next(ctx context.Context, boardID uuid.UUID, key string) (*domain.Column, error) {
	return r.siblings.next(ctx, boardID, key)
}

func (r *columnRepositoryImpl) Last(ctx context.Context, boardID uuid.UUID) (*domain.Column, error) {
	return r.siblings.last(ctx, boardID)
}

// RewriteKeys replaces the order keys of a board's columns in one transaction
func (r *columnRepositoryImpl) RewriteKeys(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID, keys []string) error {
	return r.siblings.rewriteKeys(ctx, boardID, ids, keys)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	FindTree(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error)
	DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error)
}

// boardRepositoryImpl is the GORM implementation of BoardRepository
type boardRepositoryImpl struct {
	db *gorm.DB
}

// NewBoardRepository creates a new instance of BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepositoryImpl{db: db}
}

// Create creates a new board
func (r *boardRepositoryImpl) Create(ctx context.Context, board *domain.Board) error {
	return r.db.WithContext(ctx).Omit("Columns").Create(board).Error
}

// FindByID finds a board without its children
func (r *boardRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return findByID[domain.Board](ctx, r.db, id)
}

// FindTree loads a board with its columns and cards, each sorted by order key
func (r *boardRepositoryImpl) FindTree(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var board domain.Board
	err := r.db.WithContext(ctx).
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_key ASC")
		}).
		Preload("Columns.Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_key ASC")
		}).
		Where("id = ?", id).
		First(&board).Error
	if err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

// CompareAndSet updates the board only if its version still equals expected
func (r *boardRepositoryImpl) CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error) {
	return compareAndSet[domain.Board](ctx, r.db, id, expected, changes)
}

// DeleteIfVersion removes the board, its columns and their cards in one transaction
func (r *boardRepositoryImpl) DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND version = ?", id, expected).Delete(&domain.Board{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("board_id = ?", id).Delete(&domain.Card{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", id).Delete(&domain.Column{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

// CardRepository defines the interface for card data access
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Card, error)
	ListBlobRefsByColumn(ctx context.Context, columnID uuid.UUID) ([]string, error)
	ListBlobRefsByBoard(ctx context.Context, boardID uuid.UUID) ([]string, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error)
	DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error)

	Prev(ctx context.Context, columnID uuid.UUID, key string) (*domain.Card, error)
	Next(ctx context.Context, columnID uuid.UUID, key string) (*domain.Card, error)
	Last(ctx context.Context, columnID uuid.UUID) (*domain.Card, error)
	RewriteKeys(ctx context.Context, columnID uuid.UUID, ids []uuid.UUID, keys []string) error
}

// cardRepositoryImpl is the GORM implementation of CardRepository
type cardRepositoryImpl struct {
	db       *gorm.DB
	siblings siblings[domain.Card]
}

// NewCardRepository creates a new instance of CardRepository
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepositoryImpl{
		db:       db,
		siblings: siblings[domain.Card]{db: db, parentColumn: "column_id"},
	}
}

// Create creates a new card
func (r *cardRepositoryImpl) Create(ctx context.Context, card *domain.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

// FindByID finds a card by its ID
func (r *cardRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return findByID[domain.Card](ctx, r.db, id)
}

// ListByColumn returns the cards of a column in display order
func (r *cardRepositoryImpl) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Card, error) {
	return r.siblings.list(ctx, columnID)
}

// ListBlobRefsByColumn collects stored attachment keys of every card in a column
func (r *cardRepositoryImpl) ListBlobRefsByColumn(ctx context.Context, columnID uuid.UUID) ([]string, error) {
	return r.blobRefs(r.db.WithContext(ctx).Where("column_id = ?", columnID))
}

// ListBlobRefsByBoard collects stored attachment keys of every card on a board
func (r *cardRepositoryImpl) ListBlobRefsByBoard(ctx context.Context, boardID uuid.UUID) ([]string, error) {
	return r.blobRefs(r.db.WithContext(ctx).Where("board_id = ?", boardID))
}

func (r *cardRepositoryImpl) blobRefs(q *gorm.DB) ([]string, error) {
	var cards []*domain.Card
	if err := q.Select("id", "attachments").Find(&cards).Error; err != nil {
		return nil, err
	}
	var refs []string
	for _, c := range cards {
		refs = append(refs, c.BlobRefs()...)
	}
	return refs, nil
}

// CompareAndSet updates the card only if its version still equals expected
func (r *cardRepositoryImpl) CompareAndSet(ctx context.Context, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error) {
	return compareAndSet[domain.Card](ctx, r.db, id, expected, changes)
}

// DeleteIfVersion removes the card only if its version still equals expected
func (r *cardRepositoryImpl) DeleteIfVersion(ctx context.Context, id uuid.UUID, expected int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ? AND version = ?", id, expected).Delete(&domain.Card{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *cardRepositoryImpl) Prev(ctx context.Context, columnID uuid.UUID, key string) (*domain.Card, error) {
	return r.siblings.prev(ctx, columnID, key)
}

func (r *cardRepositoryImpl) Next(ctx context.Context, columnID uuid.UUID, key string) (*domain.Card, error) {
	return r.siblings.next(ctx, columnID, key)
}

func (r *cardRepositoryImpl) Last(ctx context.Context, columnID uuid.UUID) (*domain.Card, error) {
	return r.siblings.last(ctx, columnID)
}

// RewriteKeys replaces the order keys of a column's cards in one transaction
func (r *cardRepositoryImpl) RewriteKeys(ctx context.Context, columnID uuid.UUID, ids []uuid.UUID, keys []string) error {
	return r.siblings.rewriteKeys(ctx, columnID, ids, keys)
}

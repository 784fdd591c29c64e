package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

// translate maps gorm lookup misses onto the domain sentinel
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// findByID loads one row of T by primary key
func findByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// compareAndSet applies changes and bumps version only when the stored version
// still equals expected. The bool reports whether the row was updated.
func compareAndSet[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, expected int64, changes map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	result := db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND version = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("compare-and-set %s: %w", id, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// siblings runs order-key queries over rows of T grouped by parentColumn
type siblings[T any] struct {
	db           *gorm.DB
	parentColumn string
}

func (s siblings[T]) scope(ctx context.Context, parentID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T)).Where(s.parentColumn+" = ?", parentID)
}

// list returns every sibling in display order
func (s siblings[T]) list(ctx context.Context, parentID uuid.UUID) ([]*T, error) {
	var out []*T
	if err := s.scope(ctx, parentID).Order("order_key ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// prev returns the sibling immediately before key, or nil
func (s siblings[T]) prev(ctx context.Context, parentID uuid.UUID, key string) (*T, error) {
	return s.one(s.scope(ctx, parentID).Where("order_key < ?", key).Order("order_key DESC"))
}

// next returns the sibling immediately after key, or nil
func (s siblings[T]) next(ctx context.Context, parentID uuid.UUID, key string) (*T, error) {
	return s.one(s.scope(ctx, parentID).Where("order_key > ?", key).Order("order_key ASC"))
}

// last returns the final sibling, or nil for an empty list
func (s siblings[T]) last(ctx context.Context, parentID uuid.UUID) (*T, error) {
	return s.one(s.scope(ctx, parentID).Order("order_key DESC"))
}

func (s siblings[T]) one(q *gorm.DB) (*T, error) {
	var out []*T
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// rewriteKeys assigns keys[i] to ids[i] in one transaction. Every row first
// moves to a unique temporary key so the (parent, order_key) index never
// sees two rows with the same key mid-rewrite. Versions are left untouched.
func (s siblings[T]) rewriteKeys(ctx context.Context, parentID uuid.UUID, ids []uuid.UUID, keys []string) error {
	if len(ids) != len(keys) {
		return fmt.Errorf("rewrite keys: %d ids but %d keys", len(ids), len(keys))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := tx.Model(new(T)).
				Where("id = ? AND "+s.parentColumn+" = ?", id, parentID).
				UpdateColumn("order_key", "~"+id.String()).Error; err != nil {
				return err
			}
		}
		for i, id := range ids {
			if err := tx.Model(new(T)).
				Where("id = ? AND "+s.parentColumn+" = ?", id, parentID).
				UpdateColumn("order_key", keys[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kanban-board-api/internal/domain"
)

// PreferenceRepository defines the interface for notification preference lookups
type PreferenceRepository interface {
	FindApplicable(ctx context.Context, eventType domain.EventType, boardID uuid.UUID, actorIDs []uuid.UUID) ([]*domain.NotificationPreference, error)
	Save(ctx context.Context, pref *domain.NotificationPreference) error
}

// preferenceRepositoryImpl is the GORM implementation of PreferenceRepository
type preferenceRepositoryImpl struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new instance of PreferenceRepository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepositoryImpl{db: db}
}

// FindApplicable returns every preference that could govern eventType on boardID
// for the given actors: actor-owned and default rows, board-scoped and global rows.
func (r *preferenceRepositoryImpl) FindApplicable(ctx context.Context, eventType domain.EventType, boardID uuid.UUID, actorIDs []uuid.UUID) ([]*domain.NotificationPreference, error) {
	q := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Where("board_id = ? OR board_id IS NULL", boardID)
	if len(actorIDs) > 0 {
		q = q.Where("actor_id IN ? OR actor_id IS NULL", actorIDs)
	} else {
		q = q.Where("actor_id IS NULL")
	}

	var prefs []*domain.NotificationPreference
	if err := q.Find(&prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}

// Save inserts the preference or updates the existing row for the same scope
func (r *preferenceRepositoryImpl) Save(ctx context.Context, pref *domain.NotificationPreference) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&domain.NotificationPreference{}).
			Where("channel = ? AND event_type = ?", pref.Channel, pref.EventType)
		if pref.ActorID != nil {
			q = q.Where("actor_id = ?", *pref.ActorID)
		} else {
			q = q.Where("actor_id IS NULL")
		}
		if pref.BoardID != nil {
			q = q.Where("board_id = ?", *pref.BoardID)
		} else {
			q = q.Where("board_id IS NULL")
		}

		var existing []*domain.NotificationPreference
		if err := q.Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return tx.Create(pref).Error
		}

		pref.ID = existing[0].ID
		pref.CreatedAt = existing[0].CreatedAt
		return tx.Model(existing[0]).Update("enabled", pref.Enabled).Error
	})
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kanban-board-api/internal/domain"
)

// AnnouncementRepository stores dedupe keys that have already been announced
type AnnouncementRepository interface {
	InsertIfAbsent(ctx context.Context, a *domain.Announcement) (bool, error)
	Exists(ctx context.Context, dedupeKey string) (bool, error)
	Find(ctx context.Context, dedupeKey string) (*domain.Announcement, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// announcementRepositoryImpl is the GORM implementation of AnnouncementRepository
type announcementRepositoryImpl struct {
	db *gorm.DB
}

// NewAnnouncementRepository creates a new instance of AnnouncementRepository
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepositoryImpl{db: db}
}

// InsertIfAbsent records the key in a single statement. It reports true only for
// the caller whose insert created the row.
func (r *announcementRepositoryImpl) InsertIfAbsent(ctx context.Context, a *domain.Announcement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(a)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Exists reports whether the key has been recorded
func (r *announcementRepositoryImpl) Exists(ctx context.Context, dedupeKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Announcement{}).
		Where("dedupe_key = ?", dedupeKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Find returns the ledger row for a key
func (r *announcementRepositoryImpl) Find(ctx context.Context, dedupeKey string) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := r.db.WithContext(ctx).Where("dedupe_key = ?", dedupeKey).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// DeleteOlderThan removes rows announced before cutoff and returns how many went
func (r *announcementRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("announced_at < ?", cutoff).
		Delete(&domain.Announcement{})
	return result.RowsAffected, result.Error
}

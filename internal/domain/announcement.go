package domain

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is a ledger row recording that a dedupe key was announced
type Announcement struct {
	DedupeKey   string     `gorm:"type:varchar(255);primaryKey" json:"dedupe_key"`
	EntityKind  EntityKind `gorm:"type:varchar(16);not null" json:"entity_kind"`
	EntityID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_announcements_entity" json:"entity_id"`
	Version     int64      `gorm:"not null" json:"version"`
	EventType   EventType  `gorm:"type:varchar(16);not null" json:"event_type"`
	AnnouncedAt time.Time  `gorm:"not null;index:idx_announcements_announced_at" json:"announced_at"`
}

// TableName specifies the table name for Announcement
func (Announcement) TableName() string {
	return "event_announcements"
}

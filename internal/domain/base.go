package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel contains common fields for all domain entities
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns an ID when the caller did not
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Touch sets UpdatedAt to t
func (m *BaseModel) Touch(t time.Time) {
	m.UpdatedAt = t
}

// Versioned carries the optimistic-concurrency counter.
// It is incremented exactly once per successful mutation of the owning entity.
type Versioned struct {
	Version int64 `gorm:"not null" json:"version"`
}

// CurrentVersion returns the stored version
func (v *Versioned) CurrentVersion() int64 {
	return v.Version
}

// SetVersion overwrites the in-memory version after a committed compare-and-set
func (v *Versioned) SetVersion(version int64) {
	v.Version = version
}

// EntityKind identifies which table a versioned entity lives in
type EntityKind string

const (
	EntityKindBoard  EntityKind = "board"
	EntityKindColumn EntityKind = "column"
	EntityKindCard   EntityKind = "card"
)

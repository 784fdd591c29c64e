package domain

import "github.com/google/uuid"

// Channel is a delivery medium for notifications
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

// AllChannels lists every channel in delivery order
var AllChannels = []Channel{ChannelPush, ChannelEmail, ChannelChat}

// IsValid reports whether c is a known channel
func (c Channel) IsValid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelChat:
		return true
	}
	return false
}

// NotificationPreference toggles one channel for one event type.
// A nil ActorID is the default for everyone; a nil BoardID applies to every board.
type NotificationPreference struct {
	BaseModel
	ActorID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_preferences_scope,priority:1" json:"actor_id,omitempty"`
	BoardID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_preferences_scope,priority:2" json:"board_id,omitempty"`
	Channel   Channel    `gorm:"type:varchar(16);not null;uniqueIndex:uq_preferences_scope,priority:3" json:"channel"`
	EventType EventType  `gorm:"type:varchar(16);not null;uniqueIndex:uq_preferences_scope,priority:4" json:"event_type"`
	Enabled   bool       `gorm:"not null" json:"enabled"`
}

// TableName specifies the table name for NotificationPreference
func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

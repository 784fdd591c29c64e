package domain

import "github.com/google/uuid"

// Board owns an ordered set of columns
type Board struct {
	BaseModel
	Versioned
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_boards_owner_id" json:"owner_id"`
	Columns []Column  `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"columns,omitempty"`
}

// TableName specifies the table name for Board
func (Board) TableName() string {
	return "boards"
}

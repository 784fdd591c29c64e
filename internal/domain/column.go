package domain

import "github.com/google/uuid"

// Column is an ordered list of cards inside a board.
// Order keys are unique among the columns of one board.
type Column struct {
	BaseModel
	Versioned
	BoardID  uuid.UUID `gorm:"type:uuid;not null;index:idx_columns_board_id;uniqueIndex:uq_columns_board_order,priority:1" json:"board_id"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Icon     string    `gorm:"type:varchar(64)" json:"icon"`
	OrderKey string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_columns_board_order,priority:2" json:"order_key"`
	Cards    []Card    `gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE" json:"cards,omitempty"`
}

// TableName specifies the table name for Column
func (Column) TableName() string {
	return "columns"
}

func (c *Column) GetID() uuid.UUID       { return c.ID }
func (c *Column) GetOrderKey() string    { return c.OrderKey }
func (c *Column) GetParentID() uuid.UUID { return c.BoardID }

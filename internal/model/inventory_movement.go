package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryMovement records every explicit stock change at a location.
// Rows are never modified or deleted; corrections are new entries.
type InventoryMovement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Location     string          `gorm:"type:varchar(20);not null;index"`
	Type         string          `gorm:"type:varchar(20);not null"`   // "dispatch_out" | "dispatch_in" | "adjustment" | "waste"
	Quantity     decimal.Decimal `gorm:"type:decimal(14,3);not null"` // positive = in, negative = out
	Reason       string
	ReferenceID  *uuid.UUID `gorm:"type:uuid"` // dispatch id when applicable
	RecordedBy   string     `gorm:"type:varchar(80);not null"`
	CreatedAt    time.Time

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reorder is a purchase request for one ingredient.
// Status: "requested" | "ordered" | "received"
type Reorder struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Location     string          `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'requested'"`
	RequestedBy  string          `gorm:"type:varchar(80);not null"`
	CreatedAt    time.Time       `gorm:"index"`
	UpdatedAt    time.Time

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculatedConsumption is the theoretical usage of one ingredient caused by
// one recipe line of one sold transaction. Rows are append-only.
type CalculatedConsumption struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	RecipeID      uuid.UUID       `gorm:"type:uuid;not null"`
	RecipeLineID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	IsModifier    bool            `gorm:"not null;default:false"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	Cost          decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	// SoldAt is the transaction close time; reconciliation windows filter on it
	SoldAt     time.Time `gorm:"not null;index"`
	ComputedAt time.Time `gorm:"not null"`
}

// TableName keeps the plural on the noun the rows describe.
func (CalculatedConsumption) TableName() string { return "calculated_consumption" }

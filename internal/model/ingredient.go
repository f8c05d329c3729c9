package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ingredient is a stock-tracked raw material. Ingredients are never deleted,
// only deactivated, because recipe lines and consumption rows reference them.
type Ingredient struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"type:varchar(120);not null;index"`
	Unit string    `gorm:"type:varchar(20);not null"`
	// ExternalID is the POS ingredient id used for stock lookups
	ExternalID  *string         `gorm:"type:varchar(40);uniqueIndex"`
	AverageCost decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	LastCost    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0"`
	// ParLevel overrides DEFAULT_PAR_LEVEL when set
	ParLevel  *decimal.Decimal `gorm:"type:decimal(14,3)"`
	Active    bool             `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe is the bill of ingredients for one sellable POS product.
// Non-modifier lines are the base composition; modifier lines apply only when
// the matching modifier was selected on the sold line item.
type Recipe struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalProductID string    `gorm:"type:varchar(40);not null;uniqueIndex"`
	Name              string    `gorm:"type:varchar(160);not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Lines []RecipeLine `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeLine: Quantity is per unit sold.
type RecipeLine struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecipeID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity           decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unit               string          `gorm:"type:varchar(20);not null"`
	IsModifier         bool            `gorm:"not null;default:false"`
	ExternalModifierID *string         `gorm:"type:varchar(40);index"`
	ModifierGroup      *string         `gorm:"type:varchar(80)"`
	Position           int             `gorm:"not null;default:0"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

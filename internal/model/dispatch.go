package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dispatch moves goods from one location to another (store → shop).
// Status: "sent" | "received"
type Dispatch struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FromLocation string     `gorm:"type:varchar(20);not null"`
	ToLocation   string     `gorm:"type:varchar(20);not null;index"`
	Status       string     `gorm:"type:varchar(20);not null;default:'sent'"`
	SentBy       string     `gorm:"type:varchar(80);not null"`
	SentAt       time.Time  `gorm:"not null"`
	ReceivedBy   *string    `gorm:"type:varchar(80)"`
	ReceivedAt   *time.Time `gorm:"index"`
	Notes        *string

	Items []DispatchItem `gorm:"foreignKey:DispatchID"`
}

// DispatchItem: ReceivedQty stays nil until the receiving side confirms.
type DispatchItem struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DispatchID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID        `gorm:"type:uuid;not null;index"`
	SentQty      decimal.Decimal  `gorm:"type:decimal(14,3);not null"`
	ReceivedQty  *decimal.Decimal `gorm:"type:decimal(14,3)"`
	Unit         string           `gorm:"type:varchar(20);not null"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

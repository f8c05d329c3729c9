package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SyncedTransaction is a POS sale imported once per ExternalID.
// Only Status may change after insert.
type SyncedTransaction struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalID string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	ClosedAt   time.Time       `gorm:"not null;index"`
	Total      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CashAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CardAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	// PayType: "cash" | "card" | "mixed" | "other"
	PayType   string                        `gorm:"type:varchar(20);not null"`
	Status    string                        `gorm:"type:varchar(20);not null;default:'synced'"`
	LineItems datatypes.JSONSlice[LineItem] `gorm:"type:jsonb"`
	CreatedAt time.Time
}

// LineItem is one product row of a POS sale as reported by the POS.
type LineItem struct {
	ProductID string             `json:"product_id"`
	Name      string             `json:"name,omitempty"`
	Quantity  decimal.Decimal    `json:"quantity"`
	Amount    decimal.Decimal    `json:"amount"`
	Modifiers []SelectedModifier `json:"modifiers,omitempty"`
}

// SelectedModifier: Count 0 is read as 1.
type SelectedModifier struct {
	ModifierID string `json:"modifier_id"`
	Count      int    `json:"count,omitempty"`
}

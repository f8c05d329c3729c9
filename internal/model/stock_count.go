package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockCountSession is a manual count at one location.
// Location: "store" | "shop"; CountType: "opening" | "closing";
// Status: "in_progress" | "completed"
type StockCountSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Location  string    `gorm:"type:varchar(20);not null;index:idx_stock_count_lookup"`
	CountType string    `gorm:"type:varchar(20);not null;index:idx_stock_count_lookup"`
	// BusinessDate is YYYY-MM-DD in the configured timezone
	BusinessDate string `gorm:"type:varchar(10);not null;index:idx_stock_count_lookup"`
	Staff        string `gorm:"type:varchar(80);not null"`
	Status       string `gorm:"type:varchar(20);not null;default:'in_progress'"`
	ItemCount    int    `gorm:"not null;default:0"`
	StartedAt    time.Time
	CompletedAt  *time.Time

	Items []StockCountItem `gorm:"foreignKey:SessionID"`
}

// StockCountItem references an ingredient or carries a free-text name.
type StockCountItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID *uuid.UUID      `gorm:"type:uuid"`
	ItemName     string          `gorm:"type:varchar(120)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
	Notes        *string
	CreatedAt    time.Time
}

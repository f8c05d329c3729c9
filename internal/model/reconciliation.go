package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyReconciliation is unique per (Date, Location).
// Status: "pending" | "completed" | "acknowledged"
type DailyReconciliation struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date               string          `gorm:"type:varchar(10);not null;uniqueIndex:uq_reconciliation_date_location"`
	Location           string          `gorm:"type:varchar(20);not null;uniqueIndex:uq_reconciliation_date_location"`
	OpeningSessionID   uuid.UUID       `gorm:"type:uuid;not null"`
	ClosingSessionID   uuid.UUID       `gorm:"type:uuid;not null"`
	Status             string          `gorm:"type:varchar(20);not null;default:'pending'"`
	MatchedCount       int             `gorm:"not null;default:0"`
	OverCount          int             `gorm:"not null;default:0"`
	UnderCount         int             `gorm:"not null;default:0"`
	TotalVarianceValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	AcknowledgedBy     *string         `gorm:"type:varchar(80)"`
	AcknowledgedAt     *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items []ReconciliationItem `gorm:"foreignKey:ReconciliationID"`
}

// ReconciliationItem: Expected = Opening + Received - Usage, Variance = Actual - Expected.
// Status: "matched" | "over" | "under"
type ReconciliationItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReconciliationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID     uuid.UUID       `gorm:"type:uuid;not null"`
	IngredientName   string          `gorm:"type:varchar(120)"`
	Unit             string          `gorm:"type:varchar(20)"`
	Opening          decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Received         decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Usage            decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Expected         decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Actual           decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	Variance         decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	VarianceValue    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status           string          `gorm:"type:varchar(10);not null"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary aggregates one business date; regenerated by upsert on Date.
type DailySummary struct {
	Date               string          `gorm:"type:varchar(10);primaryKey"`
	TotalSales         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashSales          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CardSales          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TransactionCount   int             `gorm:"not null;default:0"`
	ConsumptionCost    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	StockVarianceCount int             `gorm:"not null;default:0"`
	StockVarianceValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashVariance       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ShiftCount         int             `gorm:"not null;default:0"`
	DispatchCount      int             `gorm:"not null;default:0"`
	ReorderCount       int             `gorm:"not null;default:0"`
	// GrossMargin = TotalSales - ConsumptionCost
	GrossMargin decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	UpdatedAt   time.Time
}

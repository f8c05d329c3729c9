package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Shift is the lifecycle of a till from float to cash-up.
// Status: "open" | "closed". A partial unique index allows one open shift.
type Shift struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OpenedBy            string                      `gorm:"type:varchar(80);not null"`
	OpeningFloat        decimal.Decimal             `gorm:"type:decimal(14,2);not null"`
	StaffOnDuty         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	OpeningStockCountID *uuid.UUID                  `gorm:"type:uuid"`
	Status              string                      `gorm:"type:varchar(20);not null;default:'open'"`
	OpenedAt            time.Time                   `gorm:"not null"`
	ClosedBy            *string                     `gorm:"type:varchar(80)"`
	ClosingStockCountID *uuid.UUID                  `gorm:"type:uuid"`
	// ClosingCash is the figure reported at close; CashDeclared is the manual count
	ClosingCash  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CashDeclared *decimal.Decimal `gorm:"type:decimal(14,2)"`
	ClosedAt     *time.Time
	// Derived on cash reconciliation
	PosCashTotal  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	PosCardTotal  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	ExpensesTotal *decimal.Decimal `gorm:"type:decimal(14,2)"`
	ExpectedCash  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CashVariance  *decimal.Decimal `gorm:"type:decimal(14,2)"`

	Expenses []Expense `gorm:"foreignKey:ShiftID"`
}

// Expense is cash paid out of the till during a shift.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Category    string          `gorm:"type:varchar(40);not null"`
	Description string          `gorm:"not null"`
	RecordedBy  string          `gorm:"type:varchar(80);not null"`
	CreatedAt   time.Time
}

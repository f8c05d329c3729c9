package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	OpenedBy            string           `json:"openedBy"            validate:"required,max=80"`
	OpeningFloat        *decimal.Decimal `json:"openingFloat"        validate:"required"`
	StaffOnDuty         []string         `json:"staffOnDuty"`
	OpeningStockCountID *string          `json:"openingStockCountId" validate:"omitempty,uuid"`
}

type CloseShiftRequest struct {
	ClosedBy            string           `json:"closedBy"            validate:"required,max=80"`
	ClosingCash         *decimal.Decimal `json:"closingCash"         validate:"required"`
	ClosingStockCountID *string          `json:"closingStockCountId" validate:"omitempty,uuid"`
	CashDeclared        *decimal.Decimal `json:"cashDeclared"`
}

type CreateExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Category    string          `json:"category"    validate:"required,max=40"`
	Description string          `json:"description" validate:"required,min=3"`
	RecordedBy  string          `json:"recordedBy"  validate:"required,max=80"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShiftResponse struct {
	ID                  string           `json:"id"`
	OpenedBy            string           `json:"openedBy"`
	OpeningFloat        decimal.Decimal  `json:"openingFloat"`
	StaffOnDuty         []string         `json:"staffOnDuty"`
	Status              string           `json:"status"` // open | closed
	OpenedAt            string           `json:"openedAt"`
	OpeningStockCountID *string          `json:"openingStockCountId"`
	ClosedBy            *string          `json:"closedBy"`
	ClosingCash         *decimal.Decimal `json:"closingCash"`
	CashDeclared        *decimal.Decimal `json:"cashDeclared"`
	ClosingStockCountID *string          `json:"closingStockCountId"`
	ClosedAt            *string          `json:"closedAt"`
	PosCashTotal        *decimal.Decimal `json:"posCashTotal"`
	PosCardTotal        *decimal.Decimal `json:"posCardTotal"`
	ExpensesTotal       *decimal.Decimal `json:"expensesTotal"`
	ExpectedCash        *decimal.Decimal `json:"expectedCash"`
	CashVariance        *decimal.Decimal `json:"cashVariance"`
}

// CashReconciliationResult is always returned; callers must check Success.
type CashReconciliationResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message,omitempty"`
	ShiftID      string          `json:"shiftId"`
	OpeningFloat decimal.Decimal `json:"openingFloat"`
	PosCash      decimal.Decimal `json:"posCash"`
	PosCard      decimal.Decimal `json:"posCard"`
	Expenses     decimal.Decimal `json:"expenses"`
	ExpectedCash decimal.Decimal `json:"expectedCash"`
	DeclaredCash decimal.Decimal `json:"declaredCash"`
	Variance     decimal.Decimal `json:"variance"`
}

type CloseShiftResponse struct {
	Shift ShiftResponse            `json:"shift"`
	Cash  CashReconciliationResult `json:"cash"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shiftId"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	RecordedBy  string          `json:"recordedBy"`
	CreatedAt   string          `json:"createdAt"`
}

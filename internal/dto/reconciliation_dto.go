package dto

import "github.com/shopspring/decimal"

type CalculateReconciliationRequest struct {
	Date                string `json:"date"                validate:"required,datetime=2006-01-02"`
	Location            string `json:"location"            validate:"required,oneof=store shop"`
	OpeningStockCountID string `json:"openingStockCountId" validate:"required,uuid"`
	ClosingStockCountID string `json:"closingStockCountId" validate:"required,uuid"`
}

type AcknowledgeReconciliationRequest struct {
	AcknowledgedBy string `json:"acknowledgedBy" validate:"required,max=80"`
}

type ReconciliationFilter struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Location string `form:"location"`
}

// ItemError is one reconciliation item that could not be stored.
type ItemError struct {
	IngredientID string `json:"ingredientId"`
	Error        string `json:"error"`
}

// ReconciliationResult summarises one Calculate run. Errors lists items that
// failed to store; Warnings lists count lines that matched no ingredient.
type ReconciliationResult struct {
	ReconciliationID   string          `json:"reconciliationId"`
	Date               string          `json:"date"`
	Location           string          `json:"location"`
	Status             string          `json:"status"`
	ItemCount          int             `json:"itemCount"`
	Matched            int             `json:"matched"`
	Over               int             `json:"over"`
	Under              int             `json:"under"`
	TotalVarianceValue decimal.Decimal `json:"totalVarianceValue"`
	Errors             []ItemError     `json:"errors"`
	Warnings           []string        `json:"warnings"`
}

type ReconciliationItemResponse struct {
	IngredientID   string          `json:"ingredientId"`
	IngredientName string          `json:"ingredientName"`
	Unit           string          `json:"unit"`
	Opening        decimal.Decimal `json:"opening"`
	Received       decimal.Decimal `json:"received"`
	Usage          decimal.Decimal `json:"usage"`
	Expected       decimal.Decimal `json:"expected"`
	Actual         decimal.Decimal `json:"actual"`
	Variance       decimal.Decimal `json:"variance"`
	VarianceValue  decimal.Decimal `json:"varianceValue"`
	Status         string          `json:"status"` // matched | over | under
}

type ReconciliationResponse struct {
	ID                 string                       `json:"id"`
	Date               string                       `json:"date"`
	Location           string                       `json:"location"`
	OpeningSessionID   string                       `json:"openingStockCountId"`
	ClosingSessionID   string                       `json:"closingStockCountId"`
	Status             string                       `json:"status"`
	Matched            int                          `json:"matched"`
	Over               int                          `json:"over"`
	Under              int                          `json:"under"`
	TotalVarianceValue decimal.Decimal              `json:"totalVarianceValue"`
	AcknowledgedBy     *string                      `json:"acknowledgedBy"`
	AcknowledgedAt     *string                      `json:"acknowledgedAt"`
	Items              []ReconciliationItemResponse `json:"items,omitempty"`
}

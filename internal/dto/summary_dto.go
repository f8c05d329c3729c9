package dto

import "github.com/shopspring/decimal"

type DailySummaryResponse struct {
	Date               string          `json:"date"`
	TotalSales         decimal.Decimal `json:"totalSales"`
	CashSales          decimal.Decimal `json:"cashSales"`
	CardSales          decimal.Decimal `json:"cardSales"`
	TransactionCount   int             `json:"transactionCount"`
	ConsumptionCost    decimal.Decimal `json:"consumptionCost"`
	StockVarianceCount int             `json:"stockVarianceCount"`
	StockVarianceValue decimal.Decimal `json:"stockVarianceValue"`
	CashVariance       decimal.Decimal `json:"cashVariance"`
	ShiftCount         int             `json:"shiftCount"`
	DispatchCount      int             `json:"dispatchCount"`
	ReorderCount       int             `json:"reorderCount"`
	GrossMargin        decimal.Decimal `json:"grossMargin"`
	UpdatedAt          string          `json:"updatedAt"`
}

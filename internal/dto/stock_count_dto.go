package dto

import "github.com/shopspring/decimal"

type CreateStockCountRequest struct {
	Location  string `json:"location"  validate:"required,oneof=store shop"`
	CountType string `json:"countType" validate:"required,oneof=opening closing"`
	Staff     string `json:"staff"     validate:"required,max=80"`
	// Date defaults to today in the business timezone
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type StockCountItemInput struct {
	IngredientID *string         `json:"ingredientId" validate:"omitempty,uuid"`
	ItemName     string          `json:"itemName"     validate:"max=120"`
	Quantity     decimal.Decimal `json:"quantity"     validate:"min=0"`
	Unit         string          `json:"unit"         validate:"max=20"`
	Notes        *string         `json:"notes"`
}

type AddStockCountItemsRequest struct {
	Items []StockCountItemInput `json:"items" validate:"required,min=1,dive"`
}

type StockCountItemResponse struct {
	ID           string          `json:"id"`
	IngredientID *string         `json:"ingredientId"`
	ItemName     string          `json:"itemName"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	Notes        *string         `json:"notes"`
}

type StockCountResponse struct {
	ID           string                   `json:"id"`
	Location     string                   `json:"location"`
	CountType    string                   `json:"countType"`
	BusinessDate string                   `json:"date"`
	Staff        string                   `json:"staff"`
	Status       string                   `json:"status"`
	ItemCount    int                      `json:"itemCount"`
	StartedAt    string                   `json:"startedAt"`
	CompletedAt  *string                  `json:"completedAt"`
	Items        []StockCountItemResponse `json:"items,omitempty"`
	// Warning is set when another completed count of the same type exists for the day
	Warning *string `json:"warning,omitempty"`
}

type StockCountFilter struct {
	Location  string `form:"location"`
	CountType string `form:"countType"`
	Date      string `form:"date"`
	Limit     int    `form:"limit"`
}

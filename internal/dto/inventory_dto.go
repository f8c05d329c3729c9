package dto

import "github.com/shopspring/decimal"

// ─── Ingredients & recipes ───────────────────────────────────────────────────

type CreateIngredientRequest struct {
	Name        string           `json:"name"        validate:"required,max=120"`
	Unit        string           `json:"unit"        validate:"required,max=20"`
	ExternalID  *string          `json:"externalId"  validate:"omitempty,max=40"`
	AverageCost decimal.Decimal  `json:"averageCost" validate:"min=0"`
	ParLevel    *decimal.Decimal `json:"parLevel"`
}

type UpdateIngredientRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,max=120"`
	Unit        *string          `json:"unit"        validate:"omitempty,max=20"`
	AverageCost *decimal.Decimal `json:"averageCost"`
	LastCost    *decimal.Decimal `json:"lastCost"`
	ParLevel    *decimal.Decimal `json:"parLevel"`
}

type IngredientResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Unit        string           `json:"unit"`
	ExternalID  *string          `json:"externalId"`
	AverageCost decimal.Decimal  `json:"averageCost"`
	LastCost    decimal.Decimal  `json:"lastCost"`
	ParLevel    *decimal.Decimal `json:"parLevel"`
	Active      bool             `json:"active"`
}

type RecipeLineInput struct {
	IngredientID       string          `json:"ingredientId"       validate:"required,uuid"`
	Quantity           decimal.Decimal `json:"quantity"           validate:"min=0"`
	Unit               string          `json:"unit"               validate:"required,max=20"`
	IsModifier         bool            `json:"isModifier"`
	ExternalModifierID *string         `json:"externalModifierId" validate:"required_if=IsModifier true"`
	ModifierGroup      *string         `json:"modifierGroup"`
}

type ReplaceRecipeRequest struct {
	Name  string            `json:"name"  validate:"required,max=160"`
	Lines []RecipeLineInput `json:"lines" validate:"required,min=1,dive"`
}

type RecipeLineResponse struct {
	IngredientID       string          `json:"ingredientId"`
	IngredientName     string          `json:"ingredientName,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit"`
	IsModifier         bool            `json:"isModifier"`
	ExternalModifierID *string         `json:"externalModifierId"`
	ModifierGroup      *string         `json:"modifierGroup"`
}

type RecipeResponse struct {
	ID                string               `json:"id"`
	ExternalProductID string               `json:"externalProductId"`
	Name              string               `json:"name"`
	Lines             []RecipeLineResponse `json:"lines"`
}

// ─── Dispatches ──────────────────────────────────────────────────────────────

type DispatchItemInput struct {
	IngredientID string          `json:"ingredientId" validate:"required,uuid"`
	Quantity     decimal.Decimal `json:"quantity"     validate:"required,gt=0"`
	Unit         string          `json:"unit"         validate:"required,max=20"`
}

type CreateDispatchRequest struct {
	FromLocation string              `json:"fromLocation" validate:"required,oneof=store shop"`
	ToLocation   string              `json:"toLocation"   validate:"required,oneof=store shop,nefield=FromLocation"`
	SentBy       string              `json:"sentBy"       validate:"omitempty,max=80"` // defaults to the caller
	Notes        *string             `json:"notes"`
	Items        []DispatchItemInput `json:"items"        validate:"required,min=1,dive"`
}

type ReceivedItemInput struct {
	ItemID      string          `json:"itemId"      validate:"required,uuid"`
	ReceivedQty decimal.Decimal `json:"receivedQty" validate:"min=0"`
}

// ReceiveDispatchRequest: items left out are received at their sent quantity.
type ReceiveDispatchRequest struct {
	ReceivedBy string              `json:"receivedBy" validate:"required,max=80"`
	Items      []ReceivedItemInput `json:"items"      validate:"dive"`
}

type DispatchItemResponse struct {
	ID             string           `json:"id"`
	IngredientID   string           `json:"ingredientId"`
	IngredientName string           `json:"ingredientName,omitempty"`
	SentQty        decimal.Decimal  `json:"sentQty"`
	ReceivedQty    *decimal.Decimal `json:"receivedQty"`
	Unit           string           `json:"unit"`
}

type DispatchResponse struct {
	ID           string                 `json:"id"`
	FromLocation string                 `json:"fromLocation"`
	ToLocation   string                 `json:"toLocation"`
	Status       string                 `json:"status"`
	SentBy       string                 `json:"sentBy"`
	SentAt       string                 `json:"sentAt"`
	ReceivedBy   *string                `json:"receivedBy"`
	ReceivedAt   *string                `json:"receivedAt"`
	Notes        *string                `json:"notes"`
	Items        []DispatchItemResponse `json:"items"`
}

// ─── Movements & reorders ────────────────────────────────────────────────────

type RecordMovementRequest struct {
	IngredientID string          `json:"ingredientId" validate:"required,uuid"`
	Location     string          `json:"location"     validate:"required,oneof=store shop"`
	Type         string          `json:"type"         validate:"required,oneof=adjustment waste"`
	Quantity     decimal.Decimal `json:"quantity"     validate:"required"`
	Reason       string          `json:"reason"       validate:"required,min=3"`
	RecordedBy   string          `json:"recordedBy"   validate:"required,max=80"`
}

type MovementFilter struct {
	IngredientID string `form:"ingredientId"`
	Location     string `form:"location"`
	Type         string `form:"type"`
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

type MovementResponse struct {
	ID             string          `json:"id"`
	IngredientID   string          `json:"ingredientId"`
	IngredientName string          `json:"ingredientName,omitempty"`
	Location       string          `json:"location"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason"`
	ReferenceID    *string         `json:"referenceId"`
	RecordedBy     string          `json:"recordedBy"`
	CreatedAt      string          `json:"createdAt"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type CreateReorderRequest struct {
	IngredientID string          `json:"ingredientId" validate:"required,uuid"`
	Location     string          `json:"location"     validate:"required,oneof=store shop"`
	Quantity     decimal.Decimal `json:"quantity"     validate:"required,gt=0"`
	RequestedBy  string          `json:"requestedBy"  validate:"required,max=80"`
}

type ReorderResponse struct {
	ID             string          `json:"id"`
	IngredientID   string          `json:"ingredientId"`
	IngredientName string          `json:"ingredientName,omitempty"`
	Location       string          `json:"location"`
	Quantity       decimal.Decimal `json:"quantity"`
	Status         string          `json:"status"`
	RequestedBy    string          `json:"requestedBy"`
	CreatedAt      string          `json:"createdAt"`
}

// ReorderSuggestion is produced for ingredients whose last counted quantity is below PAR.
type ReorderSuggestion struct {
	IngredientID string          `json:"ingredientId"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Location     string          `json:"location"`
	OnHand       decimal.Decimal `json:"onHand"`
	ParLevel     decimal.Decimal `json:"parLevel"`
	Suggested    decimal.Decimal `json:"suggested"`
	CountedAt    string          `json:"countedAt"`
}

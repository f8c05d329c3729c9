package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ─── POS payloads ────────────────────────────────────────────────────────────
// Shapes returned by the POS client after unwrapping and unit normalisation.
// Money is in major units; CloseTime is kept raw because the POS mixes
// unix seconds, unix milliseconds and "YYYY-MM-DD HH:MM:SS".

type PosTransaction struct {
	ID         FlexString       `json:"transaction_id"`
	CloseTime  FlexString       `json:"date_close"`
	Total      decimal.Decimal  `json:"sum"`
	CashAmount decimal.Decimal  `json:"payed_cash"`
	CardAmount decimal.Decimal  `json:"payed_card"`
	PayType    FlexString       `json:"pay_type"`
	Products   []PosSoldProduct `json:"products"`
}

type PosSoldProduct struct {
	ProductID FlexString      `json:"product_id"`
	Name      string          `json:"product_name"`
	Quantity  decimal.Decimal `json:"num"`
	Amount    decimal.Decimal `json:"payed_sum"`
	// ModificatorID is a single selected modification; "0" or empty means none
	ModificatorID FlexString       `json:"modificator_id"`
	Modifications []PosModSelected `json:"modifications"`
}

// PosModSelected is one selected dish modification: M = modification id, A = count.
type PosModSelected struct {
	M FlexString `json:"m"`
	A int        `json:"a"`
}

type PosProduct struct {
	ProductID   FlexString            `json:"product_id"`
	Name        string                `json:"product_name"`
	Ingredients []PosRecipeIngredient `json:"ingredients"`
	ModGroups   []PosModGroup         `json:"group_modifications"`
}

type PosRecipeIngredient struct {
	IngredientID FlexString      `json:"ingredient_id"`
	Name         string          `json:"ingredient_name"`
	Unit         string          `json:"ingredient_unit"`
	Quantity     decimal.Decimal `json:"structure_netto"`
}

type PosModGroup struct {
	GroupID       FlexString        `json:"dish_modification_group_id"`
	Name          string            `json:"name"`
	Modifications []PosModification `json:"modifications"`
}

type PosModification struct {
	ModificationID FlexString      `json:"dish_modification_id"`
	Name           string          `json:"name"`
	IngredientID   FlexString      `json:"ingredient_id"`
	Unit           string          `json:"ingredient_unit"`
	Quantity       decimal.Decimal `json:"brutto"`
}

type PosIngredient struct {
	IngredientID FlexString `json:"ingredient_id"`
	Name         string     `json:"ingredient_name"`
	Unit         string     `json:"ingredient_unit"`
}

type PosStockLevel struct {
	IngredientID FlexString      `json:"ingredient_id"`
	Name         string          `json:"ingredient_name"`
	Left         decimal.Decimal `json:"storage_ingredient_left"`
	PrimeCost    decimal.Decimal `json:"prime_cost"`
	Unit         string          `json:"ingredient_unit"`
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// Empty reports whether the value is unset or the POS "none" marker "0".
func (f FlexString) Empty() bool { return f == "" || f == "0" }

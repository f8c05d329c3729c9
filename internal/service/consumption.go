package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ConsumptionDeriver explodes sold line items through their recipes into
// CalculatedConsumption rows. It runs exactly once per newly stored
// transaction, inside the same DB transaction as the insert.
type ConsumptionDeriver struct {
	recipes     repository.RecipeRepository
	consumption repository.ConsumptionRepository
	now         func() time.Time
}

func NewConsumptionDeriver(recipes repository.RecipeRepository, consumption repository.ConsumptionRepository) *ConsumptionDeriver {
	return &ConsumptionDeriver{recipes: recipes, consumption: consumption, now: time.Now}
}

// recipeCache memoises recipe lookups for one sync batch. A nil entry records
// "no recipe for this product" so the miss is not queried again.
type recipeCache map[string]*model.Recipe

func (d *ConsumptionDeriver) lookup(ctx context.Context, cache recipeCache, productID string) (*model.Recipe, error) {
	if r, ok := cache[productID]; ok {
		return r, nil
	}
	r, err := d.recipes.FindByExternalProductID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		cache[productID] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recipe lookup %s: %w", productID, err)
	}
	cache[productID] = r
	return r, nil
}

// DeriveTx computes and stores consumption for t using tx. Returns rows written.
func (d *ConsumptionDeriver) DeriveTx(ctx context.Context, tx *gorm.DB, t *model.SyncedTransaction, cache recipeCache) (int, error) {
	if cache == nil {
		cache = recipeCache{}
	}
	for _, item := range t.LineItems {
		if _, err := d.lookup(ctx, cache, item.ProductID); err != nil {
			return 0, err
		}
	}
	rows := explode(t, cache, d.now())
	if err := d.consumption.CreateBatchTx(tx, rows); err != nil {
		return 0, fmt.Errorf("store consumption: %w", err)
	}
	return len(rows), nil
}

// explode is the pure recipe explosion. Products without a recipe, non-positive
// sold quantities and negative recipe quantities produce no rows.
func explode(t *model.SyncedTransaction, recipes recipeCache, computedAt time.Time) []model.CalculatedConsumption {
	var rows []model.CalculatedConsumption
	for _, item := range t.LineItems {
		rec := recipes[item.ProductID]
		if rec == nil || !item.Quantity.IsPositive() {
			continue
		}

		for _, line := range rec.Lines {
			if line.IsModifier || line.Quantity.IsNegative() {
				continue
			}
			rows = append(rows, consumptionRow(t, rec, line, line.Quantity.Mul(item.Quantity), computedAt))
		}

		for _, mod := range item.Modifiers {
			count := mod.Count
			if count <= 0 {
				count = 1
			}
			for _, line := range rec.Lines {
				if !line.IsModifier || line.ExternalModifierID == nil || *line.ExternalModifierID != mod.ModifierID {
					continue
				}
				if line.Quantity.IsNegative() {
					continue
				}
				qty := line.Quantity.Mul(item.Quantity).Mul(decimal.NewFromInt(int64(count)))
				rows = append(rows, consumptionRow(t, rec, line, qty, computedAt))
			}
		}
	}
	return rows
}

func consumptionRow(t *model.SyncedTransaction, rec *model.Recipe, line model.RecipeLine, qty decimal.Decimal, computedAt time.Time) model.CalculatedConsumption {
	unitCost := decimal.Zero
	if line.Ingredient != nil {
		unitCost = line.Ingredient.AverageCost
		if unitCost.IsZero() {
			unitCost = line.Ingredient.LastCost
		}
	}
	return model.CalculatedConsumption{
		TransactionID: t.ID,
		IngredientID:  line.IngredientID,
		RecipeID:      rec.ID,
		RecipeLineID:  line.ID,
		Quantity:      qty,
		Unit:          line.Unit,
		IsModifier:    line.IsModifier,
		UnitCost:      unitCost,
		Cost:          qty.Mul(unitCost).Round(4),
		SoldAt:        t.ClosedAt,
		ComputedAt:    computedAt,
	}
}

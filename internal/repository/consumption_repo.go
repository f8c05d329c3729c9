package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ConsumptionRepository interface {
	CreateBatchTx(tx *gorm.DB, rows []model.CalculatedConsumption) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.CalculatedConsumption, error)
	// SumByIngredient totals quantities with sold_at in [from, to).
	SumByIngredient(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error)
	TotalCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type consumptionRepo struct{ db *gorm.DB }

func NewConsumptionRepository(db *gorm.DB) ConsumptionRepository {
	return &consumptionRepo{db: db}
}

func (r *consumptionRepo) CreateBatchTx(tx *gorm.DB, rows []model.CalculatedConsumption) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 200).Error
}

func (r *consumptionRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.CalculatedConsumption, error) {
	var rows []model.CalculatedConsumption
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Find(&rows).Error
	return rows, err
}

func (r *consumptionRepo) SumByIngredient(ctx context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		IngredientID uuid.UUID
		Total        decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.CalculatedConsumption{}).
		Select("ingredient_id, SUM(quantity) AS total").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Group("ingredient_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.IngredientID] = row.Total
	}
	return out, nil
}

func (r *consumptionRepo) TotalCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.CalculatedConsumption{}).
		Select("COALESCE(SUM(cost), 0)").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Scan(&total).Error
	return total, err
}

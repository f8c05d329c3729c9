package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DispatchFilter defines filters for listing dispatches.
type DispatchFilter struct {
	ToLocation string
	Status     string
	Limit      int
}

type DispatchRepository interface {
	CreateTx(tx *gorm.DB, d *model.Dispatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Dispatch, error)
	// MarkReceivedTx flips sent → received and stores received quantities per item id.
	MarkReceivedTx(tx *gorm.DB, id uuid.UUID, by string, at time.Time, received map[uuid.UUID]decimal.Decimal) (bool, error)
	List(ctx context.Context, filter DispatchFilter) ([]model.Dispatch, error)
	// SumReceivedByIngredient totals received quantities at location for received_at in [from, to).
	SumReceivedByIngredient(ctx context.Context, location string, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error)
	CountSentBetween(ctx context.Context, from, to time.Time) (int64, error)
	DB() *gorm.DB
}

type dispatchRepo struct{ db *gorm.DB }

func NewDispatchRepository(db *gorm.DB) DispatchRepository { return &dispatchRepo{db: db} }

func (r *dispatchRepo) DB() *gorm.DB { return r.db }

func (r *dispatchRepo) CreateTx(tx *gorm.DB, d *model.Dispatch) error {
	return tx.Omit("Items.Ingredient").Create(d).Error
}

func (r *dispatchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Dispatch, error) {
	var d model.Dispatch
	err := r.db.WithContext(ctx).Preload("Items.Ingredient").First(&d, "id = ?", id).Error
	return &d, err
}

func (r *dispatchRepo) MarkReceivedTx(tx *gorm.DB, id uuid.UUID, by string, at time.Time, received map[uuid.UUID]decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Dispatch{}).
		Where("id = ? AND status = 'sent'", id).
		Updates(map[string]interface{}{"status": "received", "received_by": by, "received_at": at})
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	for itemID, qty := range received {
		if err := tx.Model(&model.DispatchItem{}).
			Where("id = ? AND dispatch_id = ?", itemID, id).
			Update("received_qty", qty).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *dispatchRepo) List(ctx context.Context, filter DispatchFilter) ([]model.Dispatch, error) {
	q := r.db.WithContext(ctx).Model(&model.Dispatch{}).Preload("Items")
	if filter.ToLocation != "" {
		q = q.Where("to_location = ?", filter.ToLocation)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var rows []model.Dispatch
	err := q.Order("sent_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *dispatchRepo) SumReceivedByIngredient(ctx context.Context, location string, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		IngredientID uuid.UUID
		Total        decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.DispatchItem{}).
		Joins("JOIN dispatches d ON d.id = dispatch_items.dispatch_id").
		Select("dispatch_items.ingredient_id, SUM(dispatch_items.received_qty) AS total").
		Where("d.to_location = ? AND d.status = 'received' AND d.received_at >= ? AND d.received_at < ?", location, from, to).
		Where("dispatch_items.received_qty IS NOT NULL").
		Group("dispatch_items.ingredient_id").
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

func (r *dispatchRepo) CountSentBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Dispatch{}).
		Where("sent_at >= ? AND sent_at < ?", from, to).
		Count(&n).Error
	return n, err
}

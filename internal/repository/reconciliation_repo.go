package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconciliationFilter: From/To are inclusive YYYY-MM-DD bounds.
type ReconciliationFilter struct {
	From     string
	To       string
	Location string
}

// ItemFailure describes one reconciliation item that could not be stored.
type ItemFailure struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Error        string    `json:"error"`
}

// ReplaceResult reports how many items were written and which ones failed.
type ReplaceResult struct {
	Inserted int
	Failures []ItemFailure
}

// VarianceTotals aggregates non-matched items for one date.
type VarianceTotals struct {
	Count int64
	Value decimal.Decimal
}

type ReconciliationRepository interface {
	// UpsertHeader inserts or refreshes the (date, location) header unless it is
	// acknowledged. applied is false when an acknowledged header blocked the write.
	UpsertHeader(ctx context.Context, h *model.DailyReconciliation) (applied bool, err error)
	// ReplaceItems deletes the header's items, inserts the new set and marks the
	// header completed, all in one transaction. A failing item is rolled back to
	// its savepoint and reported; the rest still commit.
	ReplaceItems(ctx context.Context, h *model.DailyReconciliation, items []model.ReconciliationItem) (ReplaceResult, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyReconciliation, error)
	FindByDateLocation(ctx context.Context, date, location string) (*model.DailyReconciliation, error)
	List(ctx context.Context, filter ReconciliationFilter) ([]model.DailyReconciliation, error)
	// Acknowledge moves completed → acknowledged; false when the header was not completed.
	Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)
	SumVarianceForDate(ctx context.Context, date string) (VarianceTotals, error)
}

type reconciliationRepo struct{ db *gorm.DB }

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepo{db: db}
}

func (r *reconciliationRepo) UpsertHeader(ctx context.Context, h *model.DailyReconciliation) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "location"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"opening_session_id": h.OpeningSessionID,
			"closing_session_id": h.ClosingSessionID,
			"status":             "pending",
			"updated_at":         time.Now(),
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "daily_reconciliations.status <> ?", Vars: []interface{}{"acknowledged"}},
		}},
	}).Create(h)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	// the items and the status update key off h.ID, so it must be the stored id
	// on the conflict branch as well
	if h.ID == uuid.Nil {
		var ids []uuid.UUID
		if err := r.db.WithContext(ctx).Model(&model.DailyReconciliation{}).
			Where("date = ? AND location = ?", h.Date, h.Location).
			Pluck("id", &ids).Error; err != nil {
			return false, err
		}
		if len(ids) == 0 {
			return false, ErrNotFound
		}
		h.ID = ids[0]
	}
	return true, nil
}

func (r *reconciliationRepo) ReplaceItems(ctx context.Context, h *model.DailyReconciliation, items []model.ReconciliationItem) (ReplaceResult, error) {
	var result ReplaceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result = ReplaceResult{}
		if err := tx.Where("reconciliation_id = ?", h.ID).Delete(&model.ReconciliationItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ReconciliationID = h.ID
			sp := fmt.Sprintf("item_%d", i)
			if err := tx.SavePoint(sp).Error; err != nil {
				return err
			}
			if err := tx.Create(&items[i]).Error; err != nil {
				if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
					return rbErr
				}
				result.Failures = append(result.Failures, ItemFailure{IngredientID: items[i].IngredientID, Error: err.Error()})
				continue
			}
			result.Inserted++
		}
		return tx.Model(&model.DailyReconciliation{}).Where("id = ?", h.ID).
			Updates(map[string]interface{}{
				"status":               "completed",
				"matched_count":        h.MatchedCount,
				"over_count":           h.OverCount,
				"under_count":          h.UnderCount,
				"total_variance_value": h.TotalVarianceValue,
				"updated_at":           time.Now(),
			}).Error
	})
	return result, err
}

func (r *reconciliationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DailyReconciliation, error) {
	var h model.DailyReconciliation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_name ASC") }).
		First(&h, "id = ?", id).Error
	return &h, err
}

func (r *reconciliationRepo) FindByDateLocation(ctx context.Context, date, location string) (*model.DailyReconciliation, error) {
	var h model.DailyReconciliation
	err := r.db.WithContext(ctx).Where("date = ? AND location = ?", date, location).First(&h).Error
	return &h, err
}

func (r *reconciliationRepo) List(ctx context.Context, filter ReconciliationFilter) ([]model.DailyReconciliation, error) {
	q := r.db.WithContext(ctx).Model(&model.DailyReconciliation{})
	if filter.From != "" {
		q = q.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("date <= ?", filter.To)
	}
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	var rows []model.DailyReconciliation
	err := q.Order("date DESC, location ASC").Find(&rows).Error
	return rows, err
}

func (r *reconciliationRepo) Acknowledge(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.DailyReconciliation{}).
		Where("id = ? AND status = 'completed'", id).
		Updates(map[string]interface{}{
			"status":          "acknowledged",
			"acknowledged_by": by,
			"acknowledged_at": at,
			"updated_at":      at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *reconciliationRepo) SumVarianceForDate(ctx context.Context, date string) (VarianceTotals, error) {
	var row struct {
		Count int64
		Value decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.ReconciliationItem{}).
		Joins("JOIN daily_reconciliations dr ON dr.id = reconciliation_items.reconciliation_id").
		Select("COUNT(*) AS count, COALESCE(SUM(reconciliation_items.variance_value), 0) AS value").
		Where("dr.date = ? AND reconciliation_items.status <> 'matched'", date).
		Scan(&row).Error
	return VarianceTotals{Count: row.Count, Value: row.Value}, err
}

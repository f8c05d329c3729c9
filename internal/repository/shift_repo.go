package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashTotals are the derived cash-up figures persisted onto a shift.
type CashTotals struct {
	PosCash      decimal.Decimal
	PosCard      decimal.Decimal
	Expenses     decimal.Decimal
	ExpectedCash decimal.Decimal
	Variance     decimal.Decimal
}

type ShiftRepository interface {
	// Create returns ErrDuplicate when another shift is already open.
	Create(ctx context.Context, s *model.Shift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	FindOpen(ctx context.Context) (*model.Shift, error)
	List(ctx context.Context, limit int) ([]model.Shift, error)
	// CloseIfOpen writes the closing fields only while status is still open.
	CloseIfOpen(ctx context.Context, s *model.Shift) (bool, error)
	UpdateCashTotals(ctx context.Context, id uuid.UUID, t CashTotals) error
	CountOpenedBetween(ctx context.Context, from, to time.Time) (int64, error)
	SumCashVarianceBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	CreateExpense(ctx context.Context, e *model.Expense) error
	ListExpenses(ctx context.Context, shiftID uuid.UUID) ([]model.Expense, error)
	SumExpenses(ctx context.Context, shiftID uuid.UUID) (decimal.Decimal, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Preload("Expenses").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *shiftRepo) FindOpen(ctx context.Context) (*model.Shift, error) {
	var s model.Shift
	err := r.db.WithContext(ctx).Where("status = 'open'").First(&s).Error
	return &s, err
}

func (r *shiftRepo) List(ctx context.Context, limit int) ([]model.Shift, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var rows []model.Shift
	err := r.db.WithContext(ctx).Order("opened_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *shiftRepo) CloseIfOpen(ctx context.Context, s *model.Shift) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Shift{}).
		Where("id = ? AND status = 'open'", s.ID).
		Updates(map[string]interface{}{
			"status":                 "closed",
			"closed_by":              s.ClosedBy,
			"closing_cash":           s.ClosingCash,
			"cash_declared":          s.CashDeclared,
			"closing_stock_count_id": s.ClosingStockCountID,
			"closed_at":              s.ClosedAt,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *shiftRepo) UpdateCashTotals(ctx context.Context, id uuid.UUID, t CashTotals) error {
	return r.db.WithContext(ctx).Model(&model.Shift{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pos_cash_total": t.PosCash,
			"pos_card_total": t.PosCard,
			"expenses_total": t.Expenses,
			"expected_cash":  t.ExpectedCash,
			"cash_variance":  t.Variance,
		}).Error
}

func (r *shiftRepo) CountOpenedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Shift{}).
		Where("opened_at >= ? AND opened_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *shiftRepo) SumCashVarianceBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Shift{}).
		Select("COALESCE(SUM(cash_variance), 0)").
		Where("closed_at >= ? AND closed_at < ?", from, to).
		Scan(&total).Error
	return total, err
}

func (r *shiftRepo) CreateExpense(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *shiftRepo) ListExpenses(ctx context.Context, shiftID uuid.UUID) ([]model.Expense, error) {
	var rows []model.Expense
	err := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *shiftRepo) SumExpenses(ctx context.Context, shiftID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("shift_id = ?", shiftID).
		Scan(&total).Error
	return total, err
}

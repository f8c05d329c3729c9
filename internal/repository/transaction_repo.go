package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentTotals sums POS payments over a time range.
type PaymentTotals struct {
	Total decimal.Decimal
	Cash  decimal.Decimal
	Card  decimal.Decimal
	Count int64
}

type TransactionRepository interface {
	// InsertIfAbsentTx inserts t unless its external id is already stored.
	// Returns true only when a new row was written.
	InsertIfAbsentTx(tx *gorm.DB, t *model.SyncedTransaction) (bool, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.SyncedTransaction, error)
	// SumPaymentsBetween covers closed_at in [from, to).
	SumPaymentsBetween(ctx context.Context, from, to time.Time) (PaymentTotals, error)
	// SumPaymentsThrough covers closed_at in [from, to]; used for shift cash-up
	// where a sale stamped at the closing instant still belongs to the shift.
	SumPaymentsThrough(ctx context.Context, from, to time.Time) (PaymentTotals, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) InsertIfAbsentTx(tx *gorm.DB, t *model.SyncedTransaction) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *transactionRepo) FindByExternalID(ctx context.Context, externalID string) (*model.SyncedTransaction, error) {
	var t model.SyncedTransaction
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&t).Error
	return &t, err
}

func (r *transactionRepo) SumPaymentsBetween(ctx context.Context, from, to time.Time) (PaymentTotals, error) {
	return r.sumPayments(ctx, "closed_at >= ? AND closed_at < ?", from, to)
}

func (r *transactionRepo) SumPaymentsThrough(ctx context.Context, from, to time.Time) (PaymentTotals, error) {
	return r.sumPayments(ctx, "closed_at >= ? AND closed_at <= ?", from, to)
}

func (r *transactionRepo) sumPayments(ctx context.Context, window string, from, to time.Time) (PaymentTotals, error) {
	var row struct {
		Total decimal.Decimal
		Cash  decimal.Decimal
		Card  decimal.Decimal
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.SyncedTransaction{}).
		Select(`COALESCE(SUM(total), 0) AS total,
		        COALESCE(SUM(cash_amount), 0) AS cash,
		        COALESCE(SUM(card_amount), 0) AS card,
		        COUNT(*) AS count`).
		Where(window, from, to).
		Scan(&row).Error
	return PaymentTotals{Total: row.Total, Cash: row.Cash, Card: row.Card, Count: row.Count}, err
}

package service

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// POSClient is the upstream point-of-sale API. A nil POSClient means the POS
// is not configured and sync operations degrade to reported no-ops.
type POSClient interface {
	GetTransactionsSince(ctx context.Context, since time.Time) ([]dto.PosTransaction, error)
	GetTodaysTransactions(ctx context.Context) ([]dto.PosTransaction, error)
	GetAllProductsWithRecipes(ctx context.Context) ([]dto.PosProduct, error)
	GetIngredients(ctx context.Context) ([]dto.PosIngredient, error)
	GetStockLevels(ctx context.Context) ([]dto.PosStockLevel, error)
}

// SaleNotification is a fire-and-forget message about a freshly synced sale.
type SaleNotification struct {
	ExternalID string          `json:"external_id"`
	ClosedAt   time.Time       `json:"closed_at"`
	Total      decimal.Decimal `json:"total"`
	PayType    string          `json:"pay_type"`
	Items      []string        `json:"items"`
}

// VarianceAlert is sent after a reconciliation finds over / under items.
type VarianceAlert struct {
	ReconciliationID   string          `json:"reconciliation_id"`
	Date               string          `json:"date"`
	Location           string          `json:"location"`
	Over               int             `json:"over"`
	Under              int             `json:"under"`
	TotalVarianceValue decimal.Decimal `json:"total_variance_value"`
}

// Notifier delivers notifications out of band. Implementations must not block
// on delivery; errors are logged by callers and never fail the calling operation.
type Notifier interface {
	NotifySale(ctx context.Context, n SaleNotification) error
	NotifyVariance(ctx context.Context, a VarianceAlert) error
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// dayWindow returns [start, end) of the calendar date in loc.
func dayWindow(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("date must be YYYY-MM-DD")
	}
	return d, d.AddDate(0, 0, 1), nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

package infra

import (
	"fmt"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches GORM
// cannot express (partial unique indexes, check constraints).
//
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates every table and applies schema patches.
// Also used by the integration tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeLine{},
		&model.SyncedTransaction{},
		&model.CalculatedConsumption{},
		&model.StockCountSession{},
		&model.StockCountItem{},
		&model.DailyReconciliation{},
		&model.ReconciliationItem{},
		&model.Shift{},
		&model.Expense{},
		&model.Dispatch{},
		&model.DispatchItem{},
		&model.InventoryMovement{},
		&model.Reorder{},
		&model.DailySummary{},
		&model.SyncState{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Every statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// One open shift system-wide: a second INSERT with status 'open' fails
		// with a unique violation instead of racing a check-then-insert.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_shifts_single_open
		    ON shifts ((true)) WHERE status = 'open'`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_consumption_quantity_non_negative') THEN
		    ALTER TABLE calculated_consumption
		        ADD CONSTRAINT chk_consumption_quantity_non_negative CHECK (quantity >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_reconciliation_status') THEN
		    ALTER TABLE daily_reconciliations
		        ADD CONSTRAINT chk_reconciliation_status CHECK (status IN ('pending', 'completed', 'acknowledged'));
		  END IF;
		END $$`,
		`CREATE INDEX IF NOT EXISTS idx_dispatch_items_ingredient_received
		    ON dispatch_items (ingredient_id) WHERE received_qty IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_stock_count_sessions_completed
		    ON stock_count_sessions (location, count_type, business_date) WHERE status = 'completed'`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

const singleCompletedCountIndex = "uq_stock_count_sessions_single_completed"

// ApplyCountPolicy adds or drops the partial unique index that allows one
// completed count per (location, count_type, business_date). Creating it fails
// while duplicate completed counts from an unenforced period still exist.
func ApplyCountPolicy(db *gorm.DB, enforceSingle bool) error {
	sql := `DROP INDEX IF EXISTS ` + singleCompletedCountIndex
	if enforceSingle {
		sql = `CREATE UNIQUE INDEX IF NOT EXISTS ` + singleCompletedCountIndex + `
		    ON stock_count_sessions (location, count_type, business_date) WHERE status = 'completed'`
	}
	if err := db.Exec(sql).Error; err != nil {
		return fmt.Errorf("count policy: %w", err)
	}
	return nil
}

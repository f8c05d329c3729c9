package service

import (
	"github.com/bildin8/postergram-juice-sub001/internal/config"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"gorm.io/gorm"
)

// Services bundles every domain service so the server, the scheduler and the
// CLIs share one wiring.
type Services struct {
	Sync            SyncService
	Summaries       SummaryService
	Shifts          ShiftService
	StockCounts     StockCountService
	Reconciliations ReconciliationService
	Catalog         CatalogService
	Dispatches      DispatchService
	Inventory       InventoryService
}

// NewServices builds repositories over db and the services on top of them.
// pos and notifier may be nil: sync then reports "not configured" and
// notifications are dropped.
func NewServices(cfg *config.Config, db *gorm.DB, pos POSClient, notifier Notifier) *Services {
	loc := cfg.Location()

	// ── Repositories ─────────────────────────────────────────────────────────
	ingredientRepo := repository.NewIngredientRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	consumptionRepo := repository.NewConsumptionRepository(db)
	syncStateRepo := repository.NewSyncStateRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	countRepo := repository.NewStockCountRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	reorderRepo := repository.NewReorderRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	deriver := NewConsumptionDeriver(recipeRepo, consumptionRepo)
	summaries := NewSummaryService(summaryRepo, transactionRepo, consumptionRepo, reconciliationRepo, shiftRepo, dispatchRepo, reorderRepo, loc)

	return &Services{
		Sync: NewSyncService(pos, transactionRepo, deriver, ingredientRepo, recipeRepo, syncStateRepo, notifier, SyncOptions{
			Location:     loc,
			NotifyWindow: cfg.NotifyWindow(),
		}),
		Summaries: summaries,
		Shifts: NewShiftService(shiftRepo, transactionRepo, summaries, ShiftGates{
			RequireOpeningCount:    cfg.RequireOpeningCount,
			RequireClosingCount:    cfg.RequireClosingCount,
			RequireCashDeclaration: cfg.RequireCashDeclaration,
		}, loc),
		StockCounts: NewStockCountService(countRepo, ingredientRepo, cfg.EnforceSingleCountPerDay, loc),
		Reconciliations: NewReconciliationService(reconciliationRepo, countRepo, ingredientRepo, dispatchRepo, consumptionRepo, notifier, ReconciliationSettings{
			Tolerance:     cfg.Tolerance(),
			SalesLocation: cfg.SalesLocation,
			Location:      loc,
		}),
		Catalog:    NewCatalogService(ingredientRepo, recipeRepo),
		Dispatches: NewDispatchService(dispatchRepo, movementRepo, ingredientRepo),
		Inventory:  NewInventoryService(movementRepo, reorderRepo, ingredientRepo, countRepo, cfg.ParLevel()),
	}
}

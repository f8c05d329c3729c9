package router

import (
	"strings"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/config"
	"github.com/bildin8/postergram-juice-sub001/internal/handler"
	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/middleware"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-wired collaborators the HTTP layer needs.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Services   *service.Services
	Scheduler  handler.Scheduler
	POSBreaker *infra.CircuitBreaker
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// order matters: request id first so every later log line carries it
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(strings.Split(cfg.CORSOrigins, ",")...))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute))

	// ── Handlers ─────────────────────────────────────────────────────────────
	svcs := d.Services
	syncH := handler.NewSyncHandler(svcs.Sync, d.Scheduler)
	shiftsH := handler.NewShiftsHandler(svcs.Shifts)
	countsH := handler.NewStockCountsHandler(svcs.StockCounts)
	reconH := handler.NewReconciliationHandler(svcs.Reconciliations)
	catalogH := handler.NewCatalogHandler(svcs.Catalog)
	inventoryH := handler.NewInventoryHandler(svcs.Dispatches, svcs.Inventory)
	summariesH := handler.NewSummariesHandler(svcs.Summaries)
	notificationsH := handler.NewNotificationsHandler(d.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.POSBreaker))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	const (
		store   = middleware.RoleStore
		shop    = middleware.RoleShop
		partner = middleware.RolePartner
	)
	anyRole := middleware.RequireRole(store, shop, partner)
	staff := middleware.RequireRole(store, shop)
	owner := middleware.RequireRole(partner)
	storeOnly := middleware.RequireRole(store)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		sync := v1.Group("/sync")
		{
			sync.POST("/transactions", staff, middleware.SyncRateLimiter(), syncH.SyncTransactions)
			sync.POST("/recipes", owner, middleware.SyncRateLimiter(), syncH.SyncRecipes)
			sync.POST("/backfill", owner, middleware.SyncRateLimiter(), syncH.Backfill)
			sync.GET("/status", anyRole, syncH.Status)
			sync.POST("/scheduler/start", owner, syncH.StartScheduler)
			sync.POST("/scheduler/stop", owner, syncH.StopScheduler)
		}

		shifts := v1.Group("/shifts")
		{
			shifts.POST("/open", staff, shiftsH.Open)
			shifts.GET("/current", anyRole, shiftsH.Current)
			shifts.GET("", anyRole, shiftsH.List)
			shifts.GET("/:id", anyRole, shiftsH.Get)
			shifts.POST("/:id/close", staff, shiftsH.Close)
			shifts.POST("/:id/reconcile-cash", anyRole, shiftsH.ReconcileCash)
			shifts.POST("/:id/expenses", staff, shiftsH.AddExpense)
			shifts.GET("/:id/expenses", anyRole, shiftsH.ListExpenses)
		}

		counts := v1.Group("/stock-counts")
		{
			counts.POST("", staff, countsH.Create)
			counts.GET("", anyRole, countsH.List)
			counts.GET("/:id", anyRole, countsH.Get)
			counts.POST("/:id/items", staff, countsH.AddItems)
			counts.POST("/:id/complete", staff, countsH.Complete)
		}

		recon := v1.Group("/reconciliation")
		{
			recon.POST("/calculate", anyRole, reconH.Calculate)
			recon.GET("", anyRole, reconH.List)
			recon.GET("/:id", anyRole, reconH.Get)
			recon.GET("/:id/pdf", anyRole, reconH.PDF)
			recon.POST("/:id/acknowledge", owner, reconH.Acknowledge)
		}

		// catalog reads are open to every role; writes belong to the partner
		v1.GET("/ingredients", anyRole, catalogH.ListIngredients)
		v1.GET("/recipes", anyRole, catalogH.ListRecipes)
		v1.GET("/recipes/:productId", anyRole, catalogH.GetRecipe)
		catalog := v1.Group("", owner)
		{
			catalog.POST("/ingredients", catalogH.CreateIngredient)
			catalog.PATCH("/ingredients/:id", catalogH.UpdateIngredient)
			catalog.DELETE("/ingredients/:id", catalogH.DeactivateIngredient)
			catalog.PUT("/recipes/:productId", catalogH.ReplaceRecipe)
		}

		dispatches := v1.Group("/dispatches")
		{
			dispatches.POST("", storeOnly, inventoryH.CreateDispatch)
			dispatches.GET("", anyRole, inventoryH.ListDispatches)
			dispatches.POST("/:id/receive", staff, inventoryH.ReceiveDispatch)
		}

		inv := v1.Group("/inventory")
		{
			inv.POST("/movements", staff, inventoryH.RecordMovement)
			inv.GET("/movements", anyRole, inventoryH.ListMovements)
			inv.GET("/reorder-suggestions", anyRole, inventoryH.ReorderSuggestions)
		}
		v1.POST("/reorders", anyRole, inventoryH.CreateReorder)
		v1.GET("/reorders", anyRole, inventoryH.ListReorders)

		v1.POST("/summaries/:date/regenerate", owner, summariesH.Regenerate)
		v1.GET("/summaries", anyRole, summariesH.List)

		v1.GET("/notifications/dead-letters", owner, notificationsH.DeadLetters)
		v1.POST("/notifications/replay", owner, notificationsH.Replay)
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

//go:build integration

package router_test

// Runs the HTTP API against real Postgres and Redis started with testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/config"
	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/middleware"
	"github.com/bildin8/postergram-juice-sub001/internal/router"
	"github.com/bildin8/postergram-juice-sub001/internal/service"
	"github.com/bildin8/postergram-juice-sub001/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const testSecret = "integration_secret_32_chars_min!!"

type testEnv struct {
	dsn    string
	server *httptest.Server
	rdb    *redis.Client
	tokens map[string]string
}

func setupTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("postergram_test"),
		tcPostgres.WithUsername("postergram"),
		tcPostgres.WithPassword("postergram"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:               "test",
		JWTSecret:         testSecret,
		DatabaseURL:       pgURL,
		RedisURL:          rdURL,
		VarianceTolerance: "0.01",
		Timezone:          "UTC",
		SalesLocation:     "shop",
		PDFStoragePath:    t.TempDir(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	require.NoError(t, infra.ApplyCountPolicy(db, cfg.EnforceSingleCountPerDay))
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	svcs := service.NewServices(cfg, db, nil, worker.NewDispatcher(rdb))
	r := router.New(cfg, router.Deps{
		DB:        db,
		Redis:     rdb,
		Services:  svcs,
		Scheduler: worker.NewSyncScheduler(svcs.Sync, worker.NewRedisLocker(rdb), cfg.SyncSchedule),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tokens := map[string]string{}
	for _, role := range []string{middleware.RoleStore, middleware.RoleShop, middleware.RolePartner} {
		tok, err := middleware.IssueToken(testSecret, role+"-user", role, role, time.Hour)
		require.NoError(t, err)
		tokens[role] = tok
	}
	return &testEnv{dsn: pgURL, server: srv, rdb: rdb, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, role, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) completedCount(t *testing.T, countType, ingredientID, qty string) string {
	t.Helper()
	var count dto.StockCountResponse
	require.Equal(t, http.StatusCreated, e.do(t, middleware.RoleShop, http.MethodPost, "/v1/stock-counts",
		map[string]any{"location": "shop", "countType": countType, "staff": "Achieng"}, &count))
	require.Equal(t, http.StatusOK, e.do(t, middleware.RoleShop, http.MethodPost, "/v1/stock-counts/"+count.ID+"/items",
		map[string]any{"items": []map[string]any{{"ingredientId": ingredientID, "quantity": qty, "unit": "kg"}}}, nil))
	require.Equal(t, http.StatusOK, e.do(t, middleware.RoleShop, http.MethodPost, "/v1/stock-counts/"+count.ID+"/complete", nil, nil))
	return count.ID
}

func TestIntegration_HealthAndAuth(t *testing.T) {
	env := setupTestEnv(t)

	var health map[string]any
	require.Equal(t, http.StatusOK, env.do(t, "", http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "connected", health["db"])
	assert.Equal(t, "connected", health["redis"])

	assert.Equal(t, http.StatusUnauthorized, env.do(t, "", http.MethodGet, "/v1/shifts", nil, nil))
	assert.Equal(t, http.StatusForbidden, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/ingredients",
		map[string]any{"name": "Orange", "unit": "kg"}, nil))

	var parked map[string]int64
	require.Equal(t, http.StatusOK, env.do(t, middleware.RolePartner, http.MethodGet, "/v1/notifications/dead-letters", nil, &parked))
	assert.Zero(t, parked["parked"])
	var replayed map[string]int
	require.Equal(t, http.StatusOK, env.do(t, middleware.RolePartner, http.MethodPost, "/v1/notifications/replay", nil, &replayed))
	assert.Zero(t, replayed["replayed"])
}

func TestIntegration_StockReconciliationCycle(t *testing.T) {
	env := setupTestEnv(t)

	var orange dto.IngredientResponse
	require.Equal(t, http.StatusCreated, env.do(t, middleware.RolePartner, http.MethodPost, "/v1/ingredients",
		map[string]any{"name": "Orange", "unit": "kg", "averageCost": "2"}, &orange))

	openingID := env.completedCount(t, "opening", orange.ID, "10")
	closingID := env.completedCount(t, "closing", orange.ID, "9")

	calc := map[string]any{
		"date":                time.Now().UTC().Format("2006-01-02"),
		"location":            "shop",
		"openingStockCountId": openingID,
		"closingStockCountId": closingID,
	}
	var res dto.ReconciliationResult
	require.Equal(t, http.StatusOK, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/reconciliation/calculate", calc, &res))
	assert.Equal(t, 1, res.ItemCount)
	assert.Equal(t, 1, res.Under)
	assert.Equal(t, "-2", res.TotalVarianceValue.String())

	var first dto.ReconciliationResponse
	require.Equal(t, http.StatusOK, env.do(t, middleware.RoleShop, http.MethodGet, "/v1/reconciliation/"+res.ReconciliationID, nil, &first))
	require.Len(t, first.Items, 1)

	// recalculating rewrites the same header and its items
	var again dto.ReconciliationResult
	require.Equal(t, http.StatusOK, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/reconciliation/calculate", calc, &again))
	assert.Equal(t, res.ReconciliationID, again.ReconciliationID)
	assert.Equal(t, 1, again.ItemCount)
	assert.Empty(t, again.Errors)

	var second dto.ReconciliationResponse
	require.Equal(t, http.StatusOK, env.do(t, middleware.RoleShop, http.MethodGet, "/v1/reconciliation/"+res.ReconciliationID, nil, &second))
	require.Len(t, second.Items, 1, "no doubled rows")
	assert.Equal(t, "completed", second.Status)
	assert.Equal(t, first.Items[0].Opening.String(), second.Items[0].Opening.String())
	assert.Equal(t, first.Items[0].Expected.String(), second.Items[0].Expected.String())
	assert.Equal(t, first.Items[0].Variance.String(), second.Items[0].Variance.String())
	assert.Equal(t, first.Items[0].VarianceValue.String(), second.Items[0].VarianceValue.String())
	assert.Equal(t, "-2", second.TotalVarianceValue.String())

	// each calculation queues its variance alert for the notification worker
	n, err := env.rdb.LLen(context.Background(), worker.QueueNotifications).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var rec dto.ReconciliationResponse
	require.Equal(t, http.StatusOK, env.do(t, middleware.RolePartner, http.MethodPost, "/v1/reconciliation/"+res.ReconciliationID+"/acknowledge",
		map[string]any{"acknowledgedBy": "partner"}, &rec))
	assert.Equal(t, "acknowledged", rec.Status)

	assert.Equal(t, http.StatusConflict, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/reconciliation/calculate", calc, nil))
}

func TestIntegration_SingleCompletedCountPerDay(t *testing.T) {
	env := setupTestEnv(t, func(c *config.Config) { c.EnforceSingleCountPerDay = true })

	var orange dto.IngredientResponse
	require.Equal(t, http.StatusCreated, env.do(t, middleware.RolePartner, http.MethodPost, "/v1/ingredients",
		map[string]any{"name": "Orange", "unit": "kg"}, &orange))
	env.completedCount(t, "closing", orange.ID, "9")

	var second dto.StockCountResponse
	require.Equal(t, http.StatusCreated, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/stock-counts",
		map[string]any{"location": "shop", "countType": "closing", "staff": "Otieno"}, &second))
	assert.Equal(t, http.StatusConflict, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/stock-counts/"+second.ID+"/complete", nil, nil))

	// the index itself rejects a second completed row that slips past the service check
	db, err := infra.NewDatabase(env.dsn)
	require.NoError(t, err)
	err = db.Exec(`UPDATE stock_count_sessions SET status = 'completed' WHERE id = ?`, second.ID).Error
	assert.Error(t, err)
}

func TestIntegration_ShiftCashCycle(t *testing.T) {
	env := setupTestEnv(t)

	var shift dto.ShiftResponse
	require.Equal(t, http.StatusCreated, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/shifts/open",
		map[string]any{"openedBy": "Achieng", "openingFloat": "1000"}, &shift))
	assert.Equal(t, http.StatusConflict, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/shifts/open",
		map[string]any{"openedBy": "Otieno", "openingFloat": "500"}, nil))

	require.Equal(t, http.StatusCreated, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/shifts/"+shift.ID+"/expenses",
		map[string]any{"amount": "200", "category": "supplies", "description": "ice bags", "recordedBy": "Achieng"}, nil))

	var closed dto.CloseShiftResponse
	require.Equal(t, http.StatusOK, env.do(t, middleware.RoleShop, http.MethodPost, "/v1/shifts/"+shift.ID+"/close",
		map[string]any{"closedBy": "Achieng", "closingCash": "750"}, &closed))
	assert.True(t, closed.Cash.Success)
	assert.Equal(t, "800", closed.Cash.ExpectedCash.String())
	assert.Equal(t, "-50", closed.Cash.Variance.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, middleware.RoleShop, http.MethodGet, "/v1/shifts/current", nil, nil))
}

package service_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	pos         *fakePOS
	txs         *fakeTransactionRepo
	consumption *fakeConsumptionRepo
	recipes     *fakeRecipeRepo
	ingredients *fakeIngredientRepo
	states      *fakeSyncStateRepo
	notifier    *fakeNotifier
	svc         service.SyncService
}

func newSyncFixture(pos *fakePOS) *syncFixture {
	f := &syncFixture{
		pos:         pos,
		txs:         newFakeTransactionRepo(),
		consumption: &fakeConsumptionRepo{},
		recipes:     newFakeRecipeRepo(),
		ingredients: newFakeIngredientRepo(),
		states:      newFakeSyncStateRepo(),
		notifier:    &fakeNotifier{},
	}
	f.svc = service.NewSyncService(
		pos,
		f.txs,
		service.NewConsumptionDeriver(f.recipes, f.consumption),
		f.ingredients,
		f.recipes,
		f.states,
		f.notifier,
		service.SyncOptions{CheckpointEvery: 2},
	)
	return f
}

func unixString(t time.Time) dto.FlexString {
	return dto.FlexString(strconv.FormatInt(t.Unix(), 10))
}

func posSale(id string, closedAt time.Time, cash string, products ...dto.PosSoldProduct) dto.PosTransaction {
	return dto.PosTransaction{
		ID:         dto.FlexString(id),
		CloseTime:  unixString(closedAt),
		Total:      dec(cash),
		CashAmount: dec(cash),
		CardAmount: dec("0"),
		Products:   products,
	}
}

func sold(productID, qty string, mods ...dto.PosModSelected) dto.PosSoldProduct {
	return dto.PosSoldProduct{
		ProductID:     dto.FlexString(productID),
		Quantity:      dec(qty),
		Amount:        dec("0"),
		Modifications: mods,
	}
}

// juiceRecipe: 0.25 kg orange per glass, plus 0.05 kg ginger with modifier "7".
func (f *syncFixture) juiceRecipe() (orange, ginger *model.Ingredient) {
	orange = f.ingredients.add("Orange", "kg", "2.00")
	ginger = f.ingredients.add("Ginger", "kg", "10.00")
	mod := "7"
	f.recipes.put(&model.Recipe{
		ExternalProductID: "10",
		Name:              "Orange juice",
		Lines: []model.RecipeLine{
			{IngredientID: orange.ID, Quantity: dec("0.25"), Unit: "kg", Ingredient: orange},
			{IngredientID: ginger.ID, Quantity: dec("0.05"), Unit: "kg", IsModifier: true, ExternalModifierID: &mod, Ingredient: ginger},
		},
	})
	return orange, ginger
}

// ── Ingestion ─────────────────────────────────────────────────────────────────

func TestIngestTransactionIsIdempotent(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	f.juiceRecipe()
	raw := posSale("1001", time.Now().Add(-time.Minute), "500", sold("10", "2"))

	inserted, err := f.svc.IngestTransaction(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, inserted)
	rowsAfterFirst := f.consumption.count()
	assert.Equal(t, 1, rowsAfterFirst)

	inserted, err = f.svc.IngestTransaction(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, inserted, "second ingest of the same external id must be a no-op")
	assert.Equal(t, rowsAfterFirst, f.consumption.count(), "consumption must not be derived twice")
	assert.Len(t, f.txs.byExt, 1)
}

func TestIngestDerivesConsumptionWithModifiers(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	orange, ginger := f.juiceRecipe()
	raw := posSale("1002", time.Now(), "900",
		sold("10", "2", dto.PosModSelected{M: "7", A: 1}),
		sold("99", "3"), // no recipe
	)

	_, err := f.svc.IngestTransaction(context.Background(), raw)
	require.NoError(t, err)

	stored, err := f.txs.FindByExternalID(context.Background(), "1002")
	require.NoError(t, err)
	rows, err := f.consumption.ListByTransaction(context.Background(), stored.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byIngredient := map[string]model.CalculatedConsumption{}
	for _, r := range rows {
		byIngredient[r.IngredientID.String()] = r
	}
	assert.Equal(t, "0.5", byIngredient[orange.ID.String()].Quantity.String())
	assert.False(t, byIngredient[orange.ID.String()].IsModifier)
	assert.Equal(t, "0.1", byIngredient[ginger.ID.String()].Quantity.String())
	assert.True(t, byIngredient[ginger.ID.String()].IsModifier)
	assert.Equal(t, "1", byIngredient[orange.ID.String()].Cost.String())
	assert.True(t, stored.ClosedAt.Equal(byIngredient[orange.ID.String()].SoldAt))
}

func TestIngestWithoutRecipeStoresNoConsumption(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	inserted, err := f.svc.IngestTransaction(context.Background(), posSale("1003", time.Now(), "100", sold("404", "1")))

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Zero(t, f.consumption.count())
}

func TestIngestRejectsMissingID(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	_, err := f.svc.IngestTransaction(context.Background(), posSale("", time.Now(), "100"))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestIngestStoresPaymentSplitAsReported(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	raw := posSale("1004", time.Now(), "500")
	raw.CashAmount = dec("300")
	raw.CardAmount = dec("150")

	inserted, err := f.svc.IngestTransaction(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, inserted, "a split that does not add up is still ingested")

	stored, err := f.txs.FindByExternalID(context.Background(), "1004")
	require.NoError(t, err)
	assert.Equal(t, "500", stored.Total.String())
	assert.Equal(t, "300", stored.CashAmount.String())
	assert.Equal(t, "150", stored.CardAmount.String())
	assert.Equal(t, "mixed", stored.PayType)
}

func TestIngestDoesNotWaitOnStalledNotifier(t *testing.T) {
	notifier := &fakeNotifier{stall: true}
	recipes := newFakeRecipeRepo()
	svc := service.NewSyncService(
		&fakePOS{},
		newFakeTransactionRepo(),
		service.NewConsumptionDeriver(recipes, &fakeConsumptionRepo{}),
		newFakeIngredientRepo(),
		recipes,
		newFakeSyncStateRepo(),
		notifier,
		service.SyncOptions{NotifyTimeout: 20 * time.Millisecond},
	)

	start := time.Now()
	inserted, err := svc.IngestTransaction(context.Background(), posSale("1005", time.Now(), "120"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, notifier.sales)
}

// ── Incremental sync ──────────────────────────────────────────────────────────

func TestSyncTransactionsAdvancesWatermark(t *testing.T) {
	t1 := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)
	pos := &fakePOS{transactions: []dto.PosTransaction{
		posSale("2", t2, "300"),
		posSale("1", t1, "200"),
	}}
	f := newSyncFixture(pos)

	res, err := f.svc.SyncTransactions(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Configured)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Synced)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, pos.todayCalls, "first run without watermark fetches today")

	st, _ := f.states.Get(context.Background(), model.SyncKindTransactions)
	require.NotNil(t, st.Watermark)
	assert.True(t, t2.Equal(*st.Watermark))
	assert.Equal(t, model.SyncStatusIdle, st.Status)
	assert.EqualValues(t, 2, st.RecordsSynced)

	// second run asks from the watermark; the boundary sale is re-offered and deduped
	res, err = f.svc.SyncTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, pos.sinceCalls, 1)
	assert.True(t, t2.Equal(pos.sinceCalls[0]))
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 2, res.Skipped)
}

func TestSyncTransactionsFailureHoldsWatermark(t *testing.T) {
	t1 := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	pos := &fakePOS{transactions: []dto.PosTransaction{
		posSale("1", t1, "100"),
		posSale("2", t1.Add(time.Minute), "100"),
		posSale("3", t1.Add(2*time.Minute), "100"),
	}}
	f := newSyncFixture(pos)
	f.txs.failOn["2"] = errors.New("insert failed")

	res, err := f.svc.SyncTransactions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "2", res.Errors[0].ExternalID)

	st, _ := f.states.Get(context.Background(), model.SyncKindTransactions)
	require.NotNil(t, st.Watermark)
	assert.True(t, t1.Equal(*st.Watermark), "watermark must stop before the first failure")
	require.NotNil(t, st.LastError)
}

func TestSyncTransactionsUpstreamError(t *testing.T) {
	f := newSyncFixture(&fakePOS{err: errors.New("timeout")})

	_, err := f.svc.SyncTransactions(context.Background())
	assert.ErrorIs(t, err, service.ErrUpstream)

	st, _ := f.states.Get(context.Background(), model.SyncKindTransactions)
	assert.Equal(t, model.SyncStatusError, st.Status)
	assert.Nil(t, st.Watermark)
}

func TestSyncWithoutPOSClientIsNoop(t *testing.T) {
	states := newFakeSyncStateRepo()
	recipes := newFakeRecipeRepo()
	svc := service.NewSyncService(nil, newFakeTransactionRepo(),
		service.NewConsumptionDeriver(recipes, &fakeConsumptionRepo{}),
		newFakeIngredientRepo(), recipes, states, nil, service.SyncOptions{})

	res, err := svc.SyncTransactions(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Configured)
	assert.NotEmpty(t, res.Message)

	rec, err := svc.SyncRecipes(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.Configured)
	assert.Empty(t, states.states)
}

// ── Backfill ──────────────────────────────────────────────────────────────────

func TestBackfillLeavesWatermarkAlone(t *testing.T) {
	watermark := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	old := watermark.Add(-72 * time.Hour)
	pos := &fakePOS{transactions: []dto.PosTransaction{posSale("500", old, "250")}}
	f := newSyncFixture(pos)
	require.NoError(t, f.states.Save(context.Background(), &model.SyncState{
		Kind:      model.SyncKindTransactions,
		Status:    model.SyncStatusIdle,
		Watermark: &watermark,
	}))

	res, err := f.svc.Backfill(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced, "sales older than the watermark are still imported")
	assert.Zero(t, pos.todayCalls)
	require.Len(t, pos.sinceCalls, 1)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), pos.sinceCalls[0], time.Minute)

	st, _ := f.states.Get(context.Background(), model.SyncKindTransactions)
	require.NotNil(t, st.Watermark)
	assert.True(t, watermark.Equal(*st.Watermark))

	bf, _ := f.states.Get(context.Background(), model.SyncKindBackfill)
	assert.EqualValues(t, 1, bf.RecordsSynced)
	assert.Nil(t, bf.Watermark)
}

func TestBackfillRejectsOutOfRangeDays(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	for _, days := range []int{0, -1, 91} {
		_, err := f.svc.Backfill(context.Background(), days)
		assert.ErrorIs(t, err, service.ErrValidation, "days=%d", days)
	}
}

// ── Notifications ─────────────────────────────────────────────────────────────

func TestSaleNotificationsOnlyForRecentSales(t *testing.T) {
	pos := &fakePOS{transactions: []dto.PosTransaction{
		posSale("recent", time.Now().Add(-5*time.Minute), "120", sold("10", "1")),
		posSale("stale", time.Now().Add(-48*time.Hour), "80"),
	}}
	f := newSyncFixture(pos)

	_, err := f.svc.Backfill(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, f.notifier.sales, 1)
	assert.Equal(t, "recent", f.notifier.sales[0].ExternalID)
	assert.Equal(t, "cash", f.notifier.sales[0].PayType)
}

// ── Recipes ───────────────────────────────────────────────────────────────────

func TestSyncRecipesUpsertsIngredientsAndRecipes(t *testing.T) {
	pos := &fakePOS{
		ingredients: []dto.PosIngredient{{IngredientID: "5", Name: "Orange", Unit: "kg"}},
		products: []dto.PosProduct{
			{
				ProductID: "10",
				Name:      "Orange juice",
				Ingredients: []dto.PosRecipeIngredient{
					{IngredientID: "5", Name: "Orange", Unit: "kg", Quantity: dec("0.3")},
				},
				ModGroups: []dto.PosModGroup{{
					Name: "Extras",
					Modifications: []dto.PosModification{
						{ModificationID: "7", Name: "Ginger", IngredientID: "6", Unit: "kg", Quantity: dec("0.05")},
					},
				}},
			},
			{ProductID: "11", Name: "Bottled water"},
		},
		levels: []dto.PosStockLevel{{IngredientID: "5", PrimeCost: dec("2.5")}},
	}
	f := newSyncFixture(pos)

	res, err := f.svc.SyncRecipes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.IngredientsUpserted)
	assert.Equal(t, 1, res.RecipesUpserted, "products without ingredient lines are skipped")
	assert.Equal(t, 1, res.CostsUpdated)
	assert.Empty(t, res.Errors)

	orange := f.ingredients.byExternal("5")
	require.NotNil(t, orange)
	assert.Equal(t, "2.5", orange.AverageCost.String())
	require.NotNil(t, f.ingredients.byExternal("6"), "modifier ingredients are created on the fly")

	rec, err := f.recipes.FindByExternalProductID(context.Background(), "10")
	require.NoError(t, err)
	require.Len(t, rec.Lines, 2)
	assert.False(t, rec.Lines[0].IsModifier)
	assert.True(t, rec.Lines[1].IsModifier)
	require.NotNil(t, rec.Lines[1].ExternalModifierID)
	assert.Equal(t, "7", *rec.Lines[1].ExternalModifierID)
	require.NotNil(t, rec.Lines[1].ModifierGroup)
	assert.Equal(t, "Extras", *rec.Lines[1].ModifierGroup)
}

func TestStatusReportsEveryKind(t *testing.T) {
	f := newSyncFixture(&fakePOS{})
	st, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SyncKindTransactions, st.Transactions.Kind)
	assert.Equal(t, model.SyncKindBackfill, st.Backfill.Kind)
	assert.Equal(t, model.SyncKindRecipes, st.Recipes.Kind)
	assert.Equal(t, model.SyncStatusIdle, st.Transactions.Status)
}

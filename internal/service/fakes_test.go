package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so services run their
// transactional paths without a database.

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func inWindow(t, from, to time.Time) bool { return !t.Before(from) && t.Before(to) }

// ── Transactions ─────────────────────────────────────────────────────────────

type fakeTransactionRepo struct {
	mu     sync.Mutex
	byExt  map[string]*model.SyncedTransaction
	failOn map[string]error
	// payments overrides both payment sums when set
	payments *repository.PaymentTotals
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byExt: map[string]*model.SyncedTransaction{}, failOn: map[string]error{}}
}

func (r *fakeTransactionRepo) InsertIfAbsentTx(_ *gorm.DB, t *model.SyncedTransaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failOn[t.ExternalID]; err != nil {
		return false, err
	}
	if _, ok := r.byExt[t.ExternalID]; ok {
		return false, nil
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	r.byExt[t.ExternalID] = &cp
	return true, nil
}

func (r *fakeTransactionRepo) FindByExternalID(_ context.Context, externalID string) (*model.SyncedTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byExt[externalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *fakeTransactionRepo) SumPaymentsBetween(_ context.Context, from, to time.Time) (repository.PaymentTotals, error) {
	return r.sum(func(t time.Time) bool { return inWindow(t, from, to) })
}

func (r *fakeTransactionRepo) SumPaymentsThrough(_ context.Context, from, to time.Time) (repository.PaymentTotals, error) {
	return r.sum(func(t time.Time) bool { return !t.Before(from) && !t.After(to) })
}

func (r *fakeTransactionRepo) sum(in func(time.Time) bool) (repository.PaymentTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.payments != nil {
		return *r.payments, nil
	}
	var out repository.PaymentTotals
	for _, t := range r.byExt {
		if !in(t.ClosedAt) {
			continue
		}
		out.Total = out.Total.Add(t.Total)
		out.Cash = out.Cash.Add(t.CashAmount)
		out.Card = out.Card.Add(t.CardAmount)
		out.Count++
	}
	return out, nil
}

func (r *fakeTransactionRepo) DB() *gorm.DB { return nil }

var _ repository.TransactionRepository = (*fakeTransactionRepo)(nil)

// ── Consumption ──────────────────────────────────────────────────────────────

type fakeConsumptionRepo struct {
	mu   sync.Mutex
	rows []model.CalculatedConsumption
}

func (r *fakeConsumptionRepo) CreateBatchTx(_ *gorm.DB, rows []model.CalculatedConsumption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		row.ID = uuid.New()
		r.rows = append(r.rows, row)
	}
	return nil
}

func (r *fakeConsumptionRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]model.CalculatedConsumption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CalculatedConsumption
	for _, row := range r.rows {
		if row.TransactionID == transactionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeConsumptionRepo) SumByIngredient(_ context.Context, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]decimal.Decimal{}
	for _, row := range r.rows {
		if inWindow(row.SoldAt, from, to) {
			out[row.IngredientID] = out[row.IngredientID].Add(row.Quantity)
		}
	}
	return out, nil
}

func (r *fakeConsumptionRepo) TotalCost(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, row := range r.rows {
		if inWindow(row.SoldAt, from, to) {
			total = total.Add(row.Cost)
		}
	}
	return total, nil
}

func (r *fakeConsumptionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

var _ repository.ConsumptionRepository = (*fakeConsumptionRepo)(nil)

// ── Recipes ──────────────────────────────────────────────────────────────────

type fakeRecipeRepo struct {
	mu      sync.Mutex
	byProd  map[string]*model.Recipe
	lookups int
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{byProd: map[string]*model.Recipe{}}
}

func (r *fakeRecipeRepo) FindByExternalProductID(_ context.Context, externalProductID string) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	rec, ok := r.byProd[externalProductID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRecipeRepo) List(_ context.Context) ([]model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Recipe, 0, len(r.byProd))
	for _, rec := range r.byProd {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalProductID < out[j].ExternalProductID })
	return out, nil
}

func (r *fakeRecipeRepo) ReplaceTx(_ *gorm.DB, rec *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byProd[rec.ExternalProductID]; ok {
		rec.ID = existing.ID
	} else if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	for i := range rec.Lines {
		rec.Lines[i].ID = uuid.New()
		rec.Lines[i].RecipeID = rec.ID
		rec.Lines[i].Position = i
	}
	cp := *rec
	r.byProd[rec.ExternalProductID] = &cp
	return nil
}

func (r *fakeRecipeRepo) DB() *gorm.DB { return nil }

// put stores a recipe directly, assigning ids.
func (r *fakeRecipeRepo) put(rec *model.Recipe) *model.Recipe {
	_ = r.ReplaceTx(nil, rec)
	return r.byProd[rec.ExternalProductID]
}

var _ repository.RecipeRepository = (*fakeRecipeRepo)(nil)

// ── Ingredients ──────────────────────────────────────────────────────────────

type fakeIngredientRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Ingredient
}

func newFakeIngredientRepo() *fakeIngredientRepo {
	return &fakeIngredientRepo{byID: map[uuid.UUID]*model.Ingredient{}}
}

func (r *fakeIngredientRepo) add(name, unit string, cost string) *model.Ingredient {
	ing := &model.Ingredient{ID: uuid.New(), Name: name, Unit: unit, AverageCost: dec(cost), LastCost: dec(cost), Active: true}
	r.byID[ing.ID] = ing
	return ing
}

func (r *fakeIngredientRepo) Create(_ context.Context, i *model.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i.ExternalID != nil {
		for _, existing := range r.byID {
			if existing.ExternalID != nil && *existing.ExternalID == *i.ExternalID {
				return repository.ErrDuplicate
			}
		}
	}
	i.ID = uuid.New()
	cp := *i
	r.byID[i.ID] = &cp
	return nil
}

func (r *fakeIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ing, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ing
	return &cp, nil
}

func (r *fakeIngredientRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]model.Ingredient{}
	for _, id := range ids {
		if ing, ok := r.byID[id]; ok {
			out[id] = *ing
		}
	}
	return out, nil
}

func (r *fakeIngredientRepo) List(_ context.Context, includeInactive bool) ([]model.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Ingredient, 0, len(r.byID))
	for _, ing := range r.byID {
		if ing.Active || includeInactive {
			out = append(out, *ing)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeIngredientRepo) Update(_ context.Context, i *model.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	r.byID[i.ID] = &cp
	return nil
}

func (r *fakeIngredientRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ing, ok := r.byID[id]; ok {
		ing.Active = false
	}
	return nil
}

func (r *fakeIngredientRepo) UpsertByExternalIDTx(_ *gorm.DB, i *model.Ingredient) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ExternalID != nil && i.ExternalID != nil && *existing.ExternalID == *i.ExternalID {
			existing.Name = i.Name
			return existing.ID, nil
		}
	}
	i.ID = uuid.New()
	cp := *i
	r.byID[i.ID] = &cp
	return i.ID, nil
}

func (r *fakeIngredientRepo) UpdateCostsByExternalID(_ context.Context, externalID string, lastCost, averageCost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ExternalID != nil && *existing.ExternalID == externalID {
			existing.LastCost = lastCost
			existing.AverageCost = averageCost
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeIngredientRepo) byExternal(externalID string) *model.Ingredient {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ing := range r.byID {
		if ing.ExternalID != nil && *ing.ExternalID == externalID {
			return ing
		}
	}
	return nil
}

var _ repository.IngredientRepository = (*fakeIngredientRepo)(nil)

// ── Sync state ───────────────────────────────────────────────────────────────

type fakeSyncStateRepo struct {
	mu     sync.Mutex
	states map[string]model.SyncState
}

func newFakeSyncStateRepo() *fakeSyncStateRepo {
	return &fakeSyncStateRepo{states: map[string]model.SyncState{}}
}

func (r *fakeSyncStateRepo) Get(_ context.Context, kind string) (*model.SyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[kind]
	if !ok {
		return &model.SyncState{Kind: kind, Status: model.SyncStatusIdle}, nil
	}
	return &st, nil
}

func (r *fakeSyncStateRepo) Save(_ context.Context, s *model.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[s.Kind] = *s
	return nil
}

var _ repository.SyncStateRepository = (*fakeSyncStateRepo)(nil)

// ── Shifts ───────────────────────────────────────────────────────────────────

type fakeShiftRepo struct {
	mu       sync.Mutex
	shifts   map[uuid.UUID]*model.Shift
	expenses []model.Expense
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: map[uuid.UUID]*model.Shift{}}
}

func (r *fakeShiftRepo) Create(_ context.Context, s *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shifts {
		if existing.Status == "open" {
			return repository.ErrDuplicate
		}
	}
	s.ID = uuid.New()
	cp := *s
	r.shifts[s.ID] = &cp
	return nil
}

func (r *fakeShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeShiftRepo) FindOpen(_ context.Context) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.Status == "open" {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeShiftRepo) List(_ context.Context, limit int) ([]model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Shift, 0, len(r.shifts))
	for _, s := range r.shifts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeShiftRepo) CloseIfOpen(_ context.Context, s *model.Shift) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.shifts[s.ID]
	if !ok || existing.Status != "open" {
		return false, nil
	}
	cp := *s
	r.shifts[s.ID] = &cp
	return true, nil
}

func (r *fakeShiftRepo) UpdateCashTotals(_ context.Context, id uuid.UUID, t repository.CashTotals) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.PosCashTotal = &t.PosCash
	s.PosCardTotal = &t.PosCard
	s.ExpensesTotal = &t.Expenses
	s.ExpectedCash = &t.ExpectedCash
	s.CashVariance = &t.Variance
	return nil
}

func (r *fakeShiftRepo) CountOpenedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.shifts {
		if inWindow(s.OpenedAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeShiftRepo) SumCashVarianceBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, s := range r.shifts {
		if s.ClosedAt != nil && s.CashVariance != nil && inWindow(*s.ClosedAt, from, to) {
			total = total.Add(*s.CashVariance)
		}
	}
	return total, nil
}

func (r *fakeShiftRepo) CreateExpense(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.New()
	r.expenses = append(r.expenses, *e)
	return nil
}

func (r *fakeShiftRepo) ListExpenses(_ context.Context, shiftID uuid.UUID) ([]model.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Expense
	for _, e := range r.expenses {
		if e.ShiftID == shiftID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) SumExpenses(_ context.Context, shiftID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, e := range r.expenses {
		if e.ShiftID == shiftID {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

var _ repository.ShiftRepository = (*fakeShiftRepo)(nil)

// ── Stock counts ─────────────────────────────────────────────────────────────

type fakeStockCountRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.StockCountSession
	// singleCompleted mirrors the partial unique index on completed counts
	singleCompleted bool
	// beforeWrite runs ahead of AddItems and CompleteSession to stage a concurrent writer
	beforeWrite func()
}

func newFakeStockCountRepo() *fakeStockCountRepo {
	return &fakeStockCountRepo{sessions: map[uuid.UUID]*model.StockCountSession{}}
}

// seed stores a completed session with the given items.
func (r *fakeStockCountRepo) seed(location, countType, date string, completedAt time.Time, items ...model.StockCountItem) *model.StockCountSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &model.StockCountSession{
		ID:           uuid.New(),
		Location:     location,
		CountType:    countType,
		BusinessDate: date,
		Staff:        "tester",
		Status:       "completed",
		ItemCount:    len(items),
		StartedAt:    completedAt.Add(-time.Hour),
		CompletedAt:  &completedAt,
		Items:        items,
	}
	r.sessions[s.ID] = s
	return s
}

func (r *fakeStockCountRepo) CreateSession(_ context.Context, s *model.StockCountSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.New()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeStockCountRepo) FindSession(_ context.Context, id uuid.UUID) (*model.StockCountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	cp.Items = append([]model.StockCountItem(nil), s.Items...)
	return &cp, nil
}

func (r *fakeStockCountRepo) AddItems(_ context.Context, sessionID uuid.UUID, items []model.StockCountItem) (bool, error) {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != "in_progress" {
		return false, nil
	}
	for _, it := range items {
		it.ID = uuid.New()
		it.SessionID = sessionID
		s.Items = append(s.Items, it)
	}
	s.ItemCount += len(items)
	return true, nil
}

func (r *fakeStockCountRepo) CompleteSession(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != "in_progress" {
		return false, nil
	}
	if r.singleCompleted {
		for _, o := range r.sessions {
			if o.Status == "completed" && o.Location == s.Location && o.CountType == s.CountType && o.BusinessDate == s.BusinessDate {
				return false, repository.ErrDuplicate
			}
		}
	}
	s.Status = "completed"
	s.CompletedAt = &at
	return true, nil
}

func (r *fakeStockCountRepo) CountCompleted(_ context.Context, location, countType, date string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.Status == "completed" && s.Location == location && s.CountType == countType && s.BusinessDate == date {
			n++
		}
	}
	return n, nil
}

func (r *fakeStockCountRepo) LatestCompleted(_ context.Context, location, countType string) (*model.StockCountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.StockCountSession
	for _, s := range r.sessions {
		if s.Status != "completed" || s.Location != location || s.CountType != countType {
			continue
		}
		if latest == nil || s.CompletedAt.After(*latest.CompletedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r *fakeStockCountRepo) List(_ context.Context, filter repository.StockCountFilter) ([]model.StockCountSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockCountSession
	for _, s := range r.sessions {
		if filter.Location != "" && s.Location != filter.Location {
			continue
		}
		if filter.CountType != "" && s.CountType != filter.CountType {
			continue
		}
		if filter.Date != "" && s.BusinessDate != filter.Date {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

var _ repository.StockCountRepository = (*fakeStockCountRepo)(nil)

// ── Dispatches & movements ───────────────────────────────────────────────────

type fakeDispatchRepo struct {
	mu         sync.Mutex
	dispatches map[uuid.UUID]*model.Dispatch
}

func newFakeDispatchRepo() *fakeDispatchRepo {
	return &fakeDispatchRepo{dispatches: map[uuid.UUID]*model.Dispatch{}}
}

func (r *fakeDispatchRepo) CreateTx(_ *gorm.DB, d *model.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.New()
	for i := range d.Items {
		d.Items[i].ID = uuid.New()
		d.Items[i].DispatchID = d.ID
	}
	cp := *d
	cp.Items = append([]model.DispatchItem(nil), d.Items...)
	r.dispatches[d.ID] = &cp
	return nil
}

func (r *fakeDispatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	cp.Items = append([]model.DispatchItem(nil), d.Items...)
	return &cp, nil
}

func (r *fakeDispatchRepo) MarkReceivedTx(_ *gorm.DB, id uuid.UUID, by string, at time.Time, received map[uuid.UUID]decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok || d.Status != "sent" {
		return false, nil
	}
	d.Status = "received"
	d.ReceivedBy = &by
	d.ReceivedAt = &at
	for i := range d.Items {
		qty := received[d.Items[i].ID]
		d.Items[i].ReceivedQty = &qty
	}
	return true, nil
}

func (r *fakeDispatchRepo) List(_ context.Context, filter repository.DispatchFilter) ([]model.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Dispatch
	for _, d := range r.dispatches {
		if filter.ToLocation != "" && d.ToLocation != filter.ToLocation {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDispatchRepo) SumReceivedByIngredient(_ context.Context, location string, from, to time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]decimal.Decimal{}
	for _, d := range r.dispatches {
		if d.Status != "received" || d.ToLocation != location || d.ReceivedAt == nil || !inWindow(*d.ReceivedAt, from, to) {
			continue
		}
		for _, it := range d.Items {
			if it.ReceivedQty != nil {
				out[it.IngredientID] = out[it.IngredientID].Add(*it.ReceivedQty)
			}
		}
	}
	return out, nil
}

func (r *fakeDispatchRepo) CountSentBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.dispatches {
		if inWindow(d.SentAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (r *fakeDispatchRepo) DB() *gorm.DB { return nil }

var _ repository.DispatchRepository = (*fakeDispatchRepo)(nil)

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []model.InventoryMovement
}

func (r *fakeMovementRepo) Create(_ context.Context, m *model.InventoryMovement) error {
	return r.CreateTx(nil, m)
}

func (r *fakeMovementRepo) CreateTx(_ *gorm.DB, m *model.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeMovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]model.InventoryMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range r.movements {
		if filter.IngredientID != nil && m.IngredientID != *filter.IngredientID {
			continue
		}
		if filter.Location != "" && m.Location != filter.Location {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMovementRepo) byType(typ string) []model.InventoryMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryMovement
	for _, m := range r.movements {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovementRepository = (*fakeMovementRepo)(nil)

type fakeReorderRepo struct {
	mu       sync.Mutex
	reorders []model.Reorder
}

func (r *fakeReorderRepo) Create(_ context.Context, o *model.Reorder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	r.reorders = append(r.reorders, *o)
	return nil
}

func (r *fakeReorderRepo) List(_ context.Context, status string) ([]model.Reorder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reorder
	for _, o := range r.reorders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeReorderRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.reorders {
		if inWindow(o.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}

var _ repository.ReorderRepository = (*fakeReorderRepo)(nil)

// ── Reconciliations & summaries ──────────────────────────────────────────────

type fakeReconciliationRepo struct {
	mu      sync.Mutex
	headers map[uuid.UUID]*model.DailyReconciliation
	// failItem makes ReplaceItems reject the item for this ingredient
	failItem uuid.UUID
}

func newFakeReconciliationRepo() *fakeReconciliationRepo {
	return &fakeReconciliationRepo{headers: map[uuid.UUID]*model.DailyReconciliation{}}
}

func (r *fakeReconciliationRepo) UpsertHeader(_ context.Context, h *model.DailyReconciliation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.headers {
		if existing.Date != h.Date || existing.Location != h.Location {
			continue
		}
		if existing.Status == "acknowledged" {
			return false, nil
		}
		h.ID = id
		cp := *h
		r.headers[id] = &cp
		return true, nil
	}
	h.ID = uuid.New()
	cp := *h
	r.headers[h.ID] = &cp
	return true, nil
}

func (r *fakeReconciliationRepo) ReplaceItems(_ context.Context, h *model.DailyReconciliation, items []model.ReconciliationItem) (repository.ReplaceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res repository.ReplaceResult
	stored := make([]model.ReconciliationItem, 0, len(items))
	for _, it := range items {
		if r.failItem != uuid.Nil && it.IngredientID == r.failItem {
			res.Failures = append(res.Failures, repository.ItemFailure{IngredientID: it.IngredientID, Error: "constraint violation"})
			continue
		}
		it.ID = uuid.New()
		it.ReconciliationID = h.ID
		stored = append(stored, it)
		res.Inserted++
	}
	h.Status = "completed"
	cp := *h
	cp.Items = stored
	r.headers[h.ID] = &cp
	return res, nil
}

func (r *fakeReconciliationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DailyReconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.headers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeReconciliationRepo) FindByDateLocation(_ context.Context, date, location string) (*model.DailyReconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.headers {
		if h.Date == date && h.Location == location {
			cp := *h
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReconciliationRepo) List(_ context.Context, filter repository.ReconciliationFilter) ([]model.DailyReconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DailyReconciliation
	for _, h := range r.headers {
		if filter.Location != "" && h.Location != filter.Location {
			continue
		}
		if filter.From != "" && h.Date < filter.From {
			continue
		}
		if filter.To != "" && h.Date > filter.To {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}

func (r *fakeReconciliationRepo) Acknowledge(_ context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.headers[id]
	if !ok || h.Status != "completed" {
		return false, nil
	}
	h.Status = "acknowledged"
	h.AcknowledgedBy = &by
	h.AcknowledgedAt = &at
	return true, nil
}

func (r *fakeReconciliationRepo) SumVarianceForDate(_ context.Context, date string) (repository.VarianceTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := repository.VarianceTotals{Value: decimal.Zero}
	for _, h := range r.headers {
		if h.Date != date {
			continue
		}
		for _, it := range h.Items {
			if it.Status != "matched" {
				out.Count++
				out.Value = out.Value.Add(it.VarianceValue)
			}
		}
	}
	return out, nil
}

var _ repository.ReconciliationRepository = (*fakeReconciliationRepo)(nil)

type fakeSummaryRepo struct {
	mu        sync.Mutex
	summaries map[string]model.DailySummary
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: map[string]model.DailySummary{}}
}

func (r *fakeSummaryRepo) Upsert(_ context.Context, s *model.DailySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[s.Date] = *s
	return nil
}

func (r *fakeSummaryRepo) FindByDate(_ context.Context, date string) (*model.DailySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSummaryRepo) List(_ context.Context, from, to string) ([]model.DailySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DailySummary
	for _, s := range r.summaries {
		if (from == "" || s.Date >= from) && (to == "" || s.Date <= to) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

var _ repository.SummaryRepository = (*fakeSummaryRepo)(nil)

// ── POS client & notifier ────────────────────────────────────────────────────

type fakePOS struct {
	mu           sync.Mutex
	transactions []dto.PosTransaction
	products     []dto.PosProduct
	ingredients  []dto.PosIngredient
	levels       []dto.PosStockLevel
	err          error
	sinceCalls   []time.Time
	todayCalls   int
}

func (p *fakePOS) GetTransactionsSince(_ context.Context, since time.Time) ([]dto.PosTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinceCalls = append(p.sinceCalls, since)
	if p.err != nil {
		return nil, p.err
	}
	return append([]dto.PosTransaction(nil), p.transactions...), nil
}

func (p *fakePOS) GetTodaysTransactions(_ context.Context) ([]dto.PosTransaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.todayCalls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]dto.PosTransaction(nil), p.transactions...), nil
}

func (p *fakePOS) GetAllProductsWithRecipes(_ context.Context) ([]dto.PosProduct, error) {
	return p.products, p.err
}

func (p *fakePOS) GetIngredients(_ context.Context) ([]dto.PosIngredient, error) {
	return p.ingredients, p.err
}

func (p *fakePOS) GetStockLevels(_ context.Context) ([]dto.PosStockLevel, error) {
	return p.levels, p.err
}

var _ service.POSClient = (*fakePOS)(nil)

type fakeNotifier struct {
	mu     sync.Mutex
	sales  []service.SaleNotification
	alerts []service.VarianceAlert
	// stall makes NotifySale block until its context is done
	stall bool
}

func (n *fakeNotifier) NotifySale(ctx context.Context, s service.SaleNotification) error {
	if n.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sales = append(n.sales, s)
	return nil
}

func (n *fakeNotifier) NotifyVariance(_ context.Context, a service.VarianceAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return nil
}

var _ service.Notifier = (*fakeNotifier)(nil)

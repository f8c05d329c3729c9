package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	defaultCheckpointEvery = 50
	maxBackfillDays        = 90
	notConfiguredMsg       = "POS client not configured"
)

type SyncService interface {
	// SyncTransactions imports everything closed since the persisted watermark.
	SyncTransactions(ctx context.Context) (*dto.SyncResult, error)
	// Backfill imports the last days of sales without touching the watermark.
	Backfill(ctx context.Context, days int) (*dto.SyncResult, error)
	// IngestTransaction stores one POS transaction and derives its consumption.
	// Returns false when the external id was already stored.
	IngestTransaction(ctx context.Context, raw dto.PosTransaction) (bool, error)
	SyncRecipes(ctx context.Context) (*dto.RecipeSyncResult, error)
	Status(ctx context.Context) (*dto.SyncStatusResponse, error)
}

// SyncOptions tunes SyncService; zero values fall back to defaults.
type SyncOptions struct {
	Location        *time.Location
	NotifyWindow    time.Duration
	NotifyTimeout   time.Duration // per sale enqueue; a stalled Redis must not hold up ingestion
	CheckpointEvery int
}

type syncService struct {
	pos          POSClient
	transactions repository.TransactionRepository
	deriver      *ConsumptionDeriver
	ingredients  repository.IngredientRepository
	recipes      repository.RecipeRepository
	states       repository.SyncStateRepository
	notifier     Notifier
	opts         SyncOptions
	now          func() time.Time

	// one incremental run and one backfill run per process; cross-instance
	// exclusion for the scheduled job is the scheduler's Redis lock
	incrementalMu sync.Mutex
	backfillMu    sync.Mutex
	recipesMu     sync.Mutex
}

func NewSyncService(
	pos POSClient,
	transactions repository.TransactionRepository,
	deriver *ConsumptionDeriver,
	ingredients repository.IngredientRepository,
	recipes repository.RecipeRepository,
	states repository.SyncStateRepository,
	notifier Notifier,
	opts SyncOptions,
) SyncService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.NotifyWindow <= 0 {
		opts.NotifyWindow = time.Hour
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = time.Second
	}
	if opts.CheckpointEvery <= 0 {
		opts.CheckpointEvery = defaultCheckpointEvery
	}
	return &syncService{
		pos:          pos,
		transactions: transactions,
		deriver:      deriver,
		ingredients:  ingredients,
		recipes:      recipes,
		states:       states,
		notifier:     notifier,
		opts:         opts,
		now:          time.Now,
	}
}

// ── SyncTransactions ──────────────────────────────────────────────────────────
// Incremental sync:
//   1. Fetch since watermark (today when no watermark exists)
//   2. Process oldest first; per-transaction errors are collected, not fatal
//   3. Watermark = max close time of successful transactions before the first
//      failure, checkpointed every CheckpointEvery transactions

func (s *syncService) SyncTransactions(ctx context.Context) (*dto.SyncResult, error) {
	result := &dto.SyncResult{Kind: model.SyncKindTransactions, Configured: s.pos != nil, Errors: []dto.SyncError{}}
	if s.pos == nil {
		result.Message = notConfiguredMsg
		return result, nil
	}
	if !s.incrementalMu.TryLock() {
		result.Message = "sync already running"
		return result, nil
	}
	defer s.incrementalMu.Unlock()

	state, err := s.beginRun(ctx, model.SyncKindTransactions)
	if err != nil {
		return nil, err
	}

	var raw []dto.PosTransaction
	if state.Watermark == nil {
		raw, err = s.pos.GetTodaysTransactions(ctx)
	} else {
		raw, err = s.pos.GetTransactionsSince(ctx, *state.Watermark)
	}
	if err != nil {
		s.failRun(ctx, state, err)
		return nil, fmt.Errorf("fetch transactions: %v: %w", err, ErrUpstream)
	}

	watermark := state.Watermark
	checkpoint := func(w time.Time) {
		state.Watermark = &w
		if err := s.states.Save(ctx, state); err != nil {
			log.Warn().Err(err).Msg("sync: watermark checkpoint failed")
		}
	}
	s.processBatch(ctx, raw, watermark, checkpoint, result)

	s.finishRun(ctx, state, result)
	if state.Watermark != nil {
		w := formatTime(*state.Watermark)
		result.Watermark = &w
	}
	infra.SyncRunsTotal.WithLabelValues(model.SyncKindTransactions, "ok").Inc()
	log.Info().
		Int("fetched", result.Fetched).
		Int("synced", result.Synced).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("sync: transactions")
	return result, nil
}

// ── Backfill ──────────────────────────────────────────────────────────────────
// Uses its own SyncState row and never reads or writes the incremental watermark,
// so it can run alongside SyncTransactions without creating gaps.

func (s *syncService) Backfill(ctx context.Context, days int) (*dto.SyncResult, error) {
	if days < 1 || days > maxBackfillDays {
		return nil, invalid(fmt.Sprintf("days must be between 1 and %d", maxBackfillDays))
	}
	result := &dto.SyncResult{Kind: model.SyncKindBackfill, Configured: s.pos != nil, Errors: []dto.SyncError{}}
	if s.pos == nil {
		result.Message = notConfiguredMsg
		return result, nil
	}
	if !s.backfillMu.TryLock() {
		result.Message = "backfill already running"
		return result, nil
	}
	defer s.backfillMu.Unlock()

	state, err := s.beginRun(ctx, model.SyncKindBackfill)
	if err != nil {
		return nil, err
	}

	since := s.now().In(s.opts.Location).AddDate(0, 0, -days)
	raw, err := s.pos.GetTransactionsSince(ctx, since)
	if err != nil {
		s.failRun(ctx, state, err)
		return nil, fmt.Errorf("fetch backfill: %v: %w", err, ErrUpstream)
	}

	s.processBatch(ctx, raw, nil, nil, result)
	s.finishRun(ctx, state, result)
	infra.SyncRunsTotal.WithLabelValues(model.SyncKindBackfill, "ok").Inc()
	log.Info().
		Int("days", days).
		Int("fetched", result.Fetched).
		Int("synced", result.Synced).
		Int("errors", len(result.Errors)).
		Msg("sync: backfill")
	return result, nil
}

// ── IngestTransaction ─────────────────────────────────────────────────────────

func (s *syncService) IngestTransaction(ctx context.Context, raw dto.PosTransaction) (bool, error) {
	t, _, err := s.normalise(raw)
	if err != nil {
		return false, err
	}
	return s.ingest(ctx, t, recipeCache{})
}

// processBatch ingests raw oldest first. When checkpoint is non-nil the
// watermark logic applies: transactions older than watermark are skipped and
// checkpoint receives the advancing high-water mark.
func (s *syncService) processBatch(ctx context.Context, raw []dto.PosTransaction, watermark *time.Time, checkpoint func(time.Time), result *dto.SyncResult) {
	result.Fetched = len(raw)

	type pending struct {
		t      *model.SyncedTransaction
		timeOK bool
	}
	batch := make([]pending, 0, len(raw))
	for _, r := range raw {
		t, ok, err := s.normalise(r)
		if err != nil {
			result.Errors = append(result.Errors, dto.SyncError{ExternalID: r.ID.String(), Error: err.Error()})
			continue
		}
		batch = append(batch, pending{t: t, timeOK: ok})
	}
	sort.SliceStable(batch, func(i, j int) bool { return batch[i].t.ClosedAt.Before(batch[j].t.ClosedAt) })

	cache := recipeCache{}
	advancing := true
	var high time.Time
	if watermark != nil {
		high = *watermark
	}
	processed := 0
	for _, p := range batch {
		// equal timestamps are re-offered; ingestion dedupes them
		if watermark != nil && p.timeOK && p.t.ClosedAt.Before(*watermark) {
			result.Skipped++
			continue
		}
		inserted, err := s.ingest(ctx, p.t, cache)
		if err != nil {
			advancing = false
			result.Errors = append(result.Errors, dto.SyncError{ExternalID: p.t.ExternalID, Error: err.Error()})
			log.Error().Err(err).Str("external_id", p.t.ExternalID).Msg("sync: ingest failed")
			continue
		}
		if inserted {
			result.Synced++
		} else {
			result.Skipped++
		}
		// an unparseable close time defaults to now and must not move the watermark
		if checkpoint != nil && advancing && p.timeOK && p.t.ClosedAt.After(high) {
			high = p.t.ClosedAt
		}
		processed++
		if checkpoint != nil && advancing && processed%s.opts.CheckpointEvery == 0 && !high.IsZero() {
			checkpoint(high)
		}
	}
	if checkpoint != nil && !high.IsZero() {
		checkpoint(high)
	}
}

// ingest inserts t and derives its consumption in one DB transaction.
func (s *syncService) ingest(ctx context.Context, t *model.SyncedTransaction, cache recipeCache) (bool, error) {
	var inserted bool
	var rows int
	err := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		ok, err := s.transactions.InsertIfAbsentTx(tx, t)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if !ok {
			return nil
		}
		inserted = true
		rows, err = s.deriver.DeriveTx(ctx, tx, t, cache)
		return err
	})
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	infra.TransactionsIngestedTotal.Inc()
	infra.ConsumptionRowsTotal.Add(float64(rows))
	s.notifySale(ctx, t)
	return true, nil
}

// notifySale only fires for recent sales so a backfill does not flood the channel.
func (s *syncService) notifySale(ctx context.Context, t *model.SyncedTransaction) {
	if s.notifier == nil {
		return
	}
	if s.now().Sub(t.ClosedAt) > s.opts.NotifyWindow {
		return
	}
	items := make([]string, 0, len(t.LineItems))
	for _, li := range t.LineItems {
		name := li.Name
		if name == "" {
			name = "#" + li.ProductID
		}
		items = append(items, fmt.Sprintf("%s x%s", name, li.Quantity.String()))
	}
	n := SaleNotification{
		ExternalID: t.ExternalID,
		ClosedAt:   t.ClosedAt,
		Total:      t.Total,
		PayType:    t.PayType,
		Items:      items,
	}
	nctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()
	if err := s.notifier.NotifySale(nctx, n); err != nil {
		log.Warn().Err(err).Str("external_id", t.ExternalID).Msg("sync: sale notification not queued")
	}
}

// normalise maps a POS payload onto the stored shape. timeOK is false when the
// close time could not be parsed and now was used instead.
func (s *syncService) normalise(raw dto.PosTransaction) (*model.SyncedTransaction, bool, error) {
	id := raw.ID.String()
	if id == "" {
		return nil, false, invalid("transaction without id")
	}
	now := s.now()
	closedAt, ok := ParseCloseTime(raw.CloseTime.String(), s.opts.Location, now)
	if !ok {
		log.Warn().Str("external_id", id).Str("date_close", raw.CloseTime.String()).Msg("sync: unparseable close time, using now")
	}

	items := make([]model.LineItem, 0, len(raw.Products))
	for _, p := range raw.Products {
		li := model.LineItem{
			ProductID: p.ProductID.String(),
			Name:      p.Name,
			Quantity:  p.Quantity,
			Amount:    p.Amount,
		}
		seen := map[string]bool{}
		for _, m := range p.Modifications {
			if m.M.Empty() {
				continue
			}
			li.Modifiers = append(li.Modifiers, model.SelectedModifier{ModifierID: m.M.String(), Count: m.A})
			seen[m.M.String()] = true
		}
		if !p.ModificatorID.Empty() && !seen[p.ModificatorID.String()] {
			li.Modifiers = append(li.Modifiers, model.SelectedModifier{ModifierID: p.ModificatorID.String(), Count: 1})
		}
		items = append(items, li)
	}

	t := &model.SyncedTransaction{
		ExternalID: id,
		ClosedAt:   closedAt,
		Total:      raw.Total,
		CashAmount: raw.CashAmount,
		CardAmount: raw.CardAmount,
		PayType:    payTypeOf(raw),
		Status:     "synced",
		LineItems:  items,
	}
	if split := t.CashAmount.Add(t.CardAmount); !split.Equal(t.Total) {
		// POS is the source of truth; keep the figures as reported
		log.Debug().
			Str("external_id", id).
			Str("total", t.Total.String()).
			Str("split", split.String()).
			Msg("sync: payment split differs from total")
	}
	return t, ok, nil
}

func payTypeOf(raw dto.PosTransaction) string {
	cash := raw.CashAmount.IsPositive()
	card := raw.CardAmount.IsPositive()
	switch {
	case cash && card:
		return "mixed"
	case cash:
		return "cash"
	case card:
		return "card"
	}
	switch raw.PayType.String() {
	case "1":
		return "cash"
	case "2":
		return "card"
	case "3":
		return "mixed"
	}
	return "other"
}

// ── SyncRecipes ───────────────────────────────────────────────────────────────
// Ingredients are upserted by POS id, stock levels refresh costs, then every
// product with ingredient lines becomes a recipe whose lines are replaced atomically.

func (s *syncService) SyncRecipes(ctx context.Context) (*dto.RecipeSyncResult, error) {
	result := &dto.RecipeSyncResult{Configured: s.pos != nil, Errors: []dto.SyncError{}}
	if s.pos == nil {
		result.Message = notConfiguredMsg
		return result, nil
	}
	if !s.recipesMu.TryLock() {
		result.Message = "recipe sync already running"
		return result, nil
	}
	defer s.recipesMu.Unlock()

	state, err := s.beginRun(ctx, model.SyncKindRecipes)
	if err != nil {
		return nil, err
	}

	posIngredients, err := s.pos.GetIngredients(ctx)
	if err != nil {
		s.failRun(ctx, state, err)
		return nil, fmt.Errorf("fetch ingredients: %v: %w", err, ErrUpstream)
	}
	products, err := s.pos.GetAllProductsWithRecipes(ctx)
	if err != nil {
		s.failRun(ctx, state, err)
		return nil, fmt.Errorf("fetch products: %v: %w", err, ErrUpstream)
	}

	ids := make(map[string]model.Ingredient, len(posIngredients))
	upsert := func(externalID, name, unit string) (model.Ingredient, error) {
		if ing, ok := ids[externalID]; ok {
			return ing, nil
		}
		ext := externalID
		ing := model.Ingredient{Name: name, Unit: normaliseUnit(unit), ExternalID: &ext, Active: true}
		err := runTx(ctx, s.recipes.DB(), func(tx *gorm.DB) error {
			id, err := s.ingredients.UpsertByExternalIDTx(tx, &ing)
			ing.ID = id
			return err
		})
		if err != nil {
			return ing, err
		}
		ids[externalID] = ing
		return ing, nil
	}

	for _, pi := range posIngredients {
		if pi.IngredientID.Empty() {
			continue
		}
		if _, err := upsert(pi.IngredientID.String(), pi.Name, pi.Unit); err != nil {
			result.Errors = append(result.Errors, dto.SyncError{ExternalID: "ingredient:" + pi.IngredientID.String(), Error: err.Error()})
			continue
		}
		result.IngredientsUpserted++
	}

	// costs are best effort; a failed stock fetch does not block recipes
	if levels, err := s.pos.GetStockLevels(ctx); err != nil {
		log.Warn().Err(err).Msg("sync: stock levels unavailable, costs not refreshed")
		result.Errors = append(result.Errors, dto.SyncError{ExternalID: "stock_levels", Error: err.Error()})
	} else {
		for _, lvl := range levels {
			if lvl.IngredientID.Empty() || !lvl.PrimeCost.IsPositive() {
				continue
			}
			if err := s.ingredients.UpdateCostsByExternalID(ctx, lvl.IngredientID.String(), lvl.PrimeCost, lvl.PrimeCost); err != nil {
				result.Errors = append(result.Errors, dto.SyncError{ExternalID: "cost:" + lvl.IngredientID.String(), Error: err.Error()})
				continue
			}
			result.CostsUpdated++
		}
	}

	for _, p := range products {
		if p.ProductID.Empty() {
			continue
		}
		rec, err := s.recipeFromProduct(p, upsert)
		if err != nil {
			result.Errors = append(result.Errors, dto.SyncError{ExternalID: p.ProductID.String(), Error: err.Error()})
			continue
		}
		if rec == nil {
			continue
		}
		if err := runTx(ctx, s.recipes.DB(), func(tx *gorm.DB) error { return s.recipes.ReplaceTx(tx, rec) }); err != nil {
			result.Errors = append(result.Errors, dto.SyncError{ExternalID: p.ProductID.String(), Error: err.Error()})
			continue
		}
		result.RecipesUpserted++
	}

	now := s.now()
	state.Status = model.SyncStatusIdle
	state.LastSyncedAt = &now
	state.RecordsSynced = int64(result.RecipesUpserted)
	state.LastError = batchErrorSummary(len(result.Errors))
	if err := s.states.Save(ctx, state); err != nil {
		log.Warn().Err(err).Msg("sync: could not persist recipe sync state")
	}
	infra.SyncRunsTotal.WithLabelValues(model.SyncKindRecipes, "ok").Inc()
	log.Info().
		Int("ingredients", result.IngredientsUpserted).
		Int("recipes", result.RecipesUpserted).
		Int("costs", result.CostsUpdated).
		Int("errors", len(result.Errors)).
		Msg("sync: recipes")
	return result, nil
}

// recipeFromProduct returns nil for products without ingredient lines.
func (s *syncService) recipeFromProduct(p dto.PosProduct, upsert func(externalID, name, unit string) (model.Ingredient, error)) (*model.Recipe, error) {
	rec := &model.Recipe{ExternalProductID: p.ProductID.String(), Name: p.Name}
	for _, in := range p.Ingredients {
		if in.IngredientID.Empty() {
			continue
		}
		ing, err := upsert(in.IngredientID.String(), in.Name, in.Unit)
		if err != nil {
			return nil, err
		}
		rec.Lines = append(rec.Lines, model.RecipeLine{
			IngredientID: ing.ID,
			Quantity:     in.Quantity,
			Unit:         unitOr(in.Unit, ing.Unit),
		})
	}
	for _, g := range p.ModGroups {
		group := g.Name
		for _, m := range g.Modifications {
			if m.IngredientID.Empty() || m.ModificationID.Empty() {
				continue
			}
			ing, err := upsert(m.IngredientID.String(), m.Name, m.Unit)
			if err != nil {
				return nil, err
			}
			modID := m.ModificationID.String()
			line := model.RecipeLine{
				IngredientID:       ing.ID,
				Quantity:           m.Quantity,
				Unit:               unitOr(m.Unit, ing.Unit),
				IsModifier:         true,
				ExternalModifierID: &modID,
			}
			if group != "" {
				gname := group
				line.ModifierGroup = &gname
			}
			rec.Lines = append(rec.Lines, line)
		}
	}
	if len(rec.Lines) == 0 {
		return nil, nil
	}
	return rec, nil
}

// ── Status ────────────────────────────────────────────────────────────────────

func (s *syncService) Status(ctx context.Context) (*dto.SyncStatusResponse, error) {
	out := &dto.SyncStatusResponse{}
	for kind, dst := range map[string]*dto.SyncStateResponse{
		model.SyncKindTransactions: &out.Transactions,
		model.SyncKindBackfill:     &out.Backfill,
		model.SyncKindRecipes:      &out.Recipes,
	} {
		st, err := s.states.Get(ctx, kind)
		if err != nil {
			return nil, err
		}
		*dst = syncStateToResponse(st)
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *syncService) beginRun(ctx context.Context, kind string) (*model.SyncState, error) {
	state, err := s.states.Get(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	state.Status = model.SyncStatusSyncing
	if err := s.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save sync state: %w", err)
	}
	return state, nil
}

func (s *syncService) failRun(ctx context.Context, state *model.SyncState, cause error) {
	msg := cause.Error()
	state.Status = model.SyncStatusError
	state.LastError = &msg
	if err := s.states.Save(ctx, state); err != nil {
		log.Warn().Err(err).Str("kind", state.Kind).Msg("sync: could not persist error state")
	}
	infra.SyncRunsTotal.WithLabelValues(state.Kind, "error").Inc()
	log.Error().Err(cause).Str("kind", state.Kind).Msg("sync: fetch failed")
}

func (s *syncService) finishRun(ctx context.Context, state *model.SyncState, result *dto.SyncResult) {
	now := s.now()
	state.Status = model.SyncStatusIdle
	state.LastSyncedAt = &now
	state.RecordsSynced += int64(result.Synced)
	state.LastError = batchErrorSummary(len(result.Errors))
	if err := s.states.Save(ctx, state); err != nil {
		log.Warn().Err(err).Str("kind", state.Kind).Msg("sync: could not persist final state")
	}
}

func batchErrorSummary(n int) *string {
	if n == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d item(s) failed in last run", n)
	return &msg
}

func syncStateToResponse(st *model.SyncState) dto.SyncStateResponse {
	return dto.SyncStateResponse{
		Kind:          st.Kind,
		Status:        st.Status,
		LastSyncedAt:  formatTimePtr(st.LastSyncedAt),
		Watermark:     formatTimePtr(st.Watermark),
		RecordsSynced: st.RecordsSynced,
		LastError:     st.LastError,
	}
}

// normaliseUnit maps POS unit codes onto the units used by counts.
func normaliseUnit(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "p", "pcs", "pc":
		return "pcs"
	case "":
		return "pcs"
	default:
		return strings.ToLower(strings.TrimSpace(u))
	}
}

func unitOr(u, fallback string) string {
	if strings.TrimSpace(u) == "" {
		return fallback
	}
	return normaliseUnit(u)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ReconciliationService interface {
	// Calculate (re)builds the stock reconciliation for one date and location.
	// Re-running it with the same inputs replaces the items; acknowledged
	// reconciliations are locked.
	Calculate(ctx context.Context, req dto.CalculateReconciliationRequest) (*dto.ReconciliationResult, error)
	List(ctx context.Context, filter dto.ReconciliationFilter) ([]dto.ReconciliationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ReconciliationResponse, error)
	Acknowledge(ctx context.Context, id uuid.UUID, req dto.AcknowledgeReconciliationRequest) (*dto.ReconciliationResponse, error)
	WritePDF(ctx context.Context, id uuid.UUID, w io.Writer) error
}

// ReconciliationSettings carries the business rules the engine depends on.
type ReconciliationSettings struct {
	Tolerance     decimal.Decimal
	SalesLocation string
	Location      *time.Location
}

type reconciliationService struct {
	reconciliations repository.ReconciliationRepository
	counts          repository.StockCountRepository
	ingredients     repository.IngredientRepository
	dispatches      repository.DispatchRepository
	consumption     repository.ConsumptionRepository
	notifier        Notifier
	settings        ReconciliationSettings
	now             func() time.Time
}

func NewReconciliationService(
	reconciliations repository.ReconciliationRepository,
	counts repository.StockCountRepository,
	ingredients repository.IngredientRepository,
	dispatches repository.DispatchRepository,
	consumption repository.ConsumptionRepository,
	notifier Notifier,
	settings ReconciliationSettings,
) ReconciliationService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Tolerance.IsNegative() {
		settings.Tolerance = decimal.Zero
	}
	return &reconciliationService{
		reconciliations: reconciliations,
		counts:          counts,
		ingredients:     ingredients,
		dispatches:      dispatches,
		consumption:     consumption,
		notifier:        notifier,
		settings:        settings,
		now:             time.Now,
	}
}

// ── Calculate ─────────────────────────────────────────────────────────────────
//   1. Validate both count sessions (completed, same location, right type)
//   2. Upsert header on (date, location); acknowledged → locked
//   3. Maps by ingredient: opening, closing, received, usage (sales location only)
//   4. expected = opening + received - usage; variance = actual - expected
//   5. Replace items in one transaction and complete the header

func (s *reconciliationService) Calculate(ctx context.Context, req dto.CalculateReconciliationRequest) (*dto.ReconciliationResult, error) {
	from, to, err := dayWindow(req.Date, s.settings.Location)
	if err != nil {
		return nil, err
	}
	openingID, err := uuid.Parse(req.OpeningStockCountID)
	if err != nil {
		return nil, invalid("invalid openingStockCountId")
	}
	closingID, err := uuid.Parse(req.ClosingStockCountID)
	if err != nil {
		return nil, invalid("invalid closingStockCountId")
	}

	var warnings []string
	opening, err := s.loadCompletedCount(ctx, openingID, req.Location, "opening", req.Date, &warnings)
	if err != nil {
		return nil, err
	}
	closing, err := s.loadCompletedCount(ctx, closingID, req.Location, "closing", req.Date, &warnings)
	if err != nil {
		return nil, err
	}

	header := &model.DailyReconciliation{
		Date:             req.Date,
		Location:         req.Location,
		OpeningSessionID: openingID,
		ClosingSessionID: closingID,
		Status:           "pending",
	}
	applied, err := s.reconciliations.UpsertHeader(ctx, header)
	if err != nil {
		return nil, fmt.Errorf("upsert reconciliation header: %w", err)
	}
	if !applied {
		return nil, conflict(CodeReconciliationLocked, "reconciliation for this date and location is acknowledged and locked")
	}

	ingredients, err := s.ingredients.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	byID := make(map[uuid.UUID]model.Ingredient, len(ingredients))
	byName := make(map[string]model.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byID[ing.ID] = ing
		byName[strings.ToLower(strings.TrimSpace(ing.Name))] = ing
	}

	openingQty := countQuantities(opening, byID, byName, &warnings)
	closingQty := countQuantities(closing, byID, byName, &warnings)

	received, err := s.dispatches.SumReceivedByIngredient(ctx, req.Location, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum received: %w", err)
	}
	usage := map[uuid.UUID]decimal.Decimal{}
	if req.Location == s.settings.SalesLocation {
		usage, err = s.consumption.SumByIngredient(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("sum consumption: %w", err)
		}
	}

	items := buildReconciliationItems(openingQty, closingQty, received, usage, byID, s.settings.Tolerance)
	for _, it := range items {
		switch it.Status {
		case "matched":
			header.MatchedCount++
		case "over":
			header.OverCount++
		case "under":
			header.UnderCount++
		}
		header.TotalVarianceValue = header.TotalVarianceValue.Add(it.VarianceValue)
	}

	replaced, err := s.reconciliations.ReplaceItems(ctx, header, items)
	if err != nil {
		return nil, fmt.Errorf("store reconciliation items: %w", err)
	}

	result := &dto.ReconciliationResult{
		ReconciliationID:   header.ID.String(),
		Date:               header.Date,
		Location:           header.Location,
		Status:             "completed",
		ItemCount:          replaced.Inserted,
		Matched:            header.MatchedCount,
		Over:               header.OverCount,
		Under:              header.UnderCount,
		TotalVarianceValue: header.TotalVarianceValue,
		Errors:             make([]dto.ItemError, 0, len(replaced.Failures)),
		Warnings:           warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	for _, f := range replaced.Failures {
		result.Errors = append(result.Errors, dto.ItemError{IngredientID: f.IngredientID.String(), Error: f.Error})
	}

	infra.ReconciliationItemsTotal.WithLabelValues("matched").Add(float64(header.MatchedCount))
	infra.ReconciliationItemsTotal.WithLabelValues("over").Add(float64(header.OverCount))
	infra.ReconciliationItemsTotal.WithLabelValues("under").Add(float64(header.UnderCount))
	log.Info().
		Str("reconciliation_id", result.ReconciliationID).
		Str("date", req.Date).
		Str("location", req.Location).
		Int("matched", header.MatchedCount).
		Int("over", header.OverCount).
		Int("under", header.UnderCount).
		Int("failed", len(result.Errors)).
		Msg("reconciliation: calculated")

	if s.notifier != nil && header.OverCount+header.UnderCount > 0 {
		alert := VarianceAlert{
			ReconciliationID:   result.ReconciliationID,
			Date:               header.Date,
			Location:           header.Location,
			Over:               header.OverCount,
			Under:              header.UnderCount,
			TotalVarianceValue: header.TotalVarianceValue,
		}
		if err := s.notifier.NotifyVariance(ctx, alert); err != nil {
			log.Warn().Err(err).Str("reconciliation_id", result.ReconciliationID).Msg("reconciliation: variance alert not queued")
		}
	}
	return result, nil
}

func (s *reconciliationService) loadCompletedCount(ctx context.Context, id uuid.UUID, location, countType, date string, warnings *[]string) (*model.StockCountSession, error) {
	session, err := s.counts.FindSession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(countType + " stock count")
	}
	if err != nil {
		return nil, err
	}
	if session.Status != "completed" {
		return nil, invalid(fmt.Sprintf("%s stock count is not completed", countType))
	}
	if session.Location != location {
		return nil, invalid(fmt.Sprintf("%s stock count belongs to %s, not %s", countType, session.Location, location))
	}
	if session.CountType != countType {
		return nil, invalid(fmt.Sprintf("stock count %s is a %s count, expected %s", id, session.CountType, countType))
	}
	if session.BusinessDate != date {
		*warnings = append(*warnings, fmt.Sprintf("%s stock count is dated %s", countType, session.BusinessDate))
	}
	return session, nil
}

// countQuantities sums a session's items per ingredient. Free-text items are
// matched by case-insensitive name; unmatched names become warnings.
func countQuantities(session *model.StockCountSession, byID map[uuid.UUID]model.Ingredient, byName map[string]model.Ingredient, warnings *[]string) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(session.Items))
	for _, it := range session.Items {
		var id uuid.UUID
		switch {
		case it.IngredientID != nil:
			if _, ok := byID[*it.IngredientID]; !ok {
				*warnings = append(*warnings, fmt.Sprintf("%s count: unknown ingredient %s", session.CountType, it.IngredientID))
				continue
			}
			id = *it.IngredientID
		default:
			ing, ok := byName[strings.ToLower(strings.TrimSpace(it.ItemName))]
			if !ok {
				*warnings = append(*warnings, fmt.Sprintf("%s count: %q matches no ingredient", session.CountType, it.ItemName))
				continue
			}
			id = ing.ID
		}
		out[id] = out[id].Add(it.Quantity)
	}
	return out
}

// buildReconciliationItems applies the stock formula over the union of ids.
func buildReconciliationItems(
	opening, closing, received, usage map[uuid.UUID]decimal.Decimal,
	ingredients map[uuid.UUID]model.Ingredient,
	tolerance decimal.Decimal,
) []model.ReconciliationItem {
	ids := map[uuid.UUID]struct{}{}
	for _, m := range []map[uuid.UUID]decimal.Decimal{opening, closing, received, usage} {
		for id := range m {
			ids[id] = struct{}{}
		}
	}

	items := make([]model.ReconciliationItem, 0, len(ids))
	for id := range ids {
		ing := ingredients[id]
		expected := opening[id].Add(received[id]).Sub(usage[id])
		actual := closing[id]
		variance := actual.Sub(expected)
		items = append(items, model.ReconciliationItem{
			IngredientID:   id,
			IngredientName: ing.Name,
			Unit:           ing.Unit,
			Opening:        opening[id],
			Received:       received[id],
			Usage:          usage[id],
			Expected:       expected,
			Actual:         actual,
			Variance:       variance,
			VarianceValue:  variance.Mul(ing.AverageCost).Round(2),
			Status:         classifyVariance(variance, tolerance),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].IngredientName != items[j].IngredientName {
			return items[i].IngredientName < items[j].IngredientName
		}
		return items[i].IngredientID.String() < items[j].IngredientID.String()
	})
	return items
}

// classifyVariance: matched when |variance| <= tolerance, otherwise over / under by sign.
func classifyVariance(variance, tolerance decimal.Decimal) string {
	switch {
	case variance.Abs().LessThanOrEqual(tolerance):
		return "matched"
	case variance.IsPositive():
		return "over"
	default:
		return "under"
	}
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *reconciliationService) List(ctx context.Context, filter dto.ReconciliationFilter) ([]dto.ReconciliationResponse, error) {
	list, err := s.reconciliations.List(ctx, repository.ReconciliationFilter{
		From:     filter.From,
		To:       filter.To,
		Location: filter.Location,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReconciliationResponse, 0, len(list))
	for i := range list {
		out = append(out, reconciliationToResponse(&list[i], false))
	}
	return out, nil
}

func (s *reconciliationService) Get(ctx context.Context, id uuid.UUID) (*dto.ReconciliationResponse, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := reconciliationToResponse(rec, true)
	return &resp, nil
}

// Acknowledge locks a completed reconciliation against recalculation.
func (s *reconciliationService) Acknowledge(ctx context.Context, id uuid.UUID, req dto.AcknowledgeReconciliationRequest) (*dto.ReconciliationResponse, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.reconciliations.Acknowledge(ctx, id, req.AcknowledgedBy, s.now())
	if err != nil {
		return nil, fmt.Errorf("acknowledge reconciliation: %w", err)
	}
	if !ok {
		return nil, conflict(CodeReconciliationLocked, fmt.Sprintf("reconciliation is %s; only completed reconciliations can be acknowledged", rec.Status))
	}
	log.Info().Str("reconciliation_id", id.String()).Str("by", req.AcknowledgedBy).Msg("reconciliation: acknowledged")
	return s.Get(ctx, id)
}

func (s *reconciliationService) WritePDF(ctx context.Context, id uuid.UUID, w io.Writer) error {
	rec, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return infra.WriteReconciliationPDF(w, rec)
}

func (s *reconciliationService) find(ctx context.Context, id uuid.UUID) (*model.DailyReconciliation, error) {
	rec, err := s.reconciliations.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("reconciliation")
	}
	return rec, err
}

func reconciliationToResponse(r *model.DailyReconciliation, withItems bool) dto.ReconciliationResponse {
	resp := dto.ReconciliationResponse{
		ID:                 r.ID.String(),
		Date:               r.Date,
		Location:           r.Location,
		OpeningSessionID:   r.OpeningSessionID.String(),
		ClosingSessionID:   r.ClosingSessionID.String(),
		Status:             r.Status,
		Matched:            r.MatchedCount,
		Over:               r.OverCount,
		Under:              r.UnderCount,
		TotalVarianceValue: r.TotalVarianceValue,
		AcknowledgedBy:     r.AcknowledgedBy,
		AcknowledgedAt:     formatTimePtr(r.AcknowledgedAt),
	}
	if !withItems {
		return resp
	}
	resp.Items = make([]dto.ReconciliationItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		resp.Items = append(resp.Items, dto.ReconciliationItemResponse{
			IngredientID:   it.IngredientID.String(),
			IngredientName: it.IngredientName,
			Unit:           it.Unit,
			Opening:        it.Opening,
			Received:       it.Received,
			Usage:          it.Usage,
			Expected:       it.Expected,
			Actual:         it.Actual,
			Variance:       it.Variance,
			VarianceValue:  it.VarianceValue,
			Status:         it.Status,
		})
	}
	return resp
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryService defines the contract for the movement ledger and reorders.
type InventoryService interface {
	RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
	CreateReorder(ctx context.Context, req dto.CreateReorderRequest) (*dto.ReorderResponse, error)
	ListReorders(ctx context.Context, status string) ([]dto.ReorderResponse, error)
	// ReorderSuggestions compares the latest completed closing count per location
	// against each ingredient's PAR level.
	ReorderSuggestions(ctx context.Context) ([]dto.ReorderSuggestion, error)
}

type inventoryService struct {
	movements   repository.MovementRepository
	reorders    repository.ReorderRepository
	ingredients repository.IngredientRepository
	counts      repository.StockCountRepository
	defaultPar  decimal.Decimal
	now         func() time.Time
}

var countLocations = []string{"store", "shop"}

func NewInventoryService(
	movements repository.MovementRepository,
	reorders repository.ReorderRepository,
	ingredients repository.IngredientRepository,
	counts repository.StockCountRepository,
	defaultPar decimal.Decimal,
) InventoryService {
	return &inventoryService{
		movements:   movements,
		reorders:    reorders,
		ingredients: ingredients,
		counts:      counts,
		defaultPar:  defaultPar,
		now:         time.Now,
	}
}

// ── Movements ─────────────────────────────────────────────────────────────────
// The ledger is append-only; a wrong entry is corrected by a new one.

func (s *inventoryService) RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	ing, err := s.ingredient(ctx, req.IngredientID)
	if err != nil {
		return nil, err
	}
	if req.Quantity.IsZero() {
		return nil, invalid("quantity must not be zero")
	}
	qty := req.Quantity
	// waste always leaves stock regardless of the sign sent
	if req.Type == "waste" {
		qty = qty.Abs().Neg()
	}

	m := &model.InventoryMovement{
		IngredientID: ing.ID,
		Location:     req.Location,
		Type:         req.Type,
		Quantity:     qty,
		Reason:       req.Reason,
		RecordedBy:   req.RecordedBy,
		CreatedAt:    s.now(),
	}
	if err := s.movements.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	m.Ingredient = ing
	resp := movementToResponse(m)
	return &resp, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	f := repository.MovementFilter{
		Location: filter.Location,
		Type:     filter.Type,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if filter.IngredientID != "" {
		id, err := uuid.Parse(filter.IngredientID)
		if err != nil {
			return nil, invalid("invalid ingredientId")
		}
		f.IngredientID = &id
	}

	list, total, err := s.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	out := &dto.MovementListResponse{
		Data:  make([]dto.MovementResponse, 0, len(list)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range list {
		out.Data = append(out.Data, movementToResponse(&list[i]))
	}
	return out, nil
}

// ── Reorders ──────────────────────────────────────────────────────────────────

func (s *inventoryService) CreateReorder(ctx context.Context, req dto.CreateReorderRequest) (*dto.ReorderResponse, error) {
	ing, err := s.ingredient(ctx, req.IngredientID)
	if err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, invalid("quantity must be positive")
	}
	r := &model.Reorder{
		IngredientID: ing.ID,
		Location:     req.Location,
		Quantity:     req.Quantity,
		Status:       "requested",
		RequestedBy:  req.RequestedBy,
	}
	if err := s.reorders.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reorder: %w", err)
	}
	r.Ingredient = ing
	resp := reorderToResponse(r)
	return &resp, nil
}

func (s *inventoryService) ListReorders(ctx context.Context, status string) ([]dto.ReorderResponse, error) {
	list, err := s.reorders.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReorderResponse, 0, len(list))
	for i := range list {
		out = append(out, reorderToResponse(&list[i]))
	}
	return out, nil
}

func (s *inventoryService) ReorderSuggestions(ctx context.Context) ([]dto.ReorderSuggestion, error) {
	ingredients, err := s.ingredients.List(ctx, false)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byID[ing.ID] = ing
	}

	out := []dto.ReorderSuggestion{}
	for _, loc := range countLocations {
		session, err := s.counts.LatestCompleted(ctx, loc, "closing")
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		onHand := map[uuid.UUID]decimal.Decimal{}
		for _, it := range session.Items {
			if it.IngredientID == nil {
				continue
			}
			onHand[*it.IngredientID] = onHand[*it.IngredientID].Add(it.Quantity)
		}

		countedAt := formatTime(session.StartedAt)
		if session.CompletedAt != nil {
			countedAt = formatTime(*session.CompletedAt)
		}
		for id, qty := range onHand {
			ing, ok := byID[id]
			if !ok {
				continue
			}
			par := s.defaultPar
			if ing.ParLevel != nil {
				par = *ing.ParLevel
			}
			if !par.IsPositive() || !qty.LessThan(par) {
				continue
			}
			out = append(out, dto.ReorderSuggestion{
				IngredientID: id.String(),
				Name:         ing.Name,
				Unit:         ing.Unit,
				Location:     loc,
				OnHand:       qty,
				ParLevel:     par,
				Suggested:    par.Sub(qty),
				CountedAt:    countedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *inventoryService) ingredient(ctx context.Context, rawID string) (*model.Ingredient, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, invalid("invalid ingredientId")
	}
	ing, err := s.ingredients.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("ingredient")
	}
	return ing, err
}

func movementToResponse(m *model.InventoryMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:           m.ID.String(),
		IngredientID: m.IngredientID.String(),
		Location:     m.Location,
		Type:         m.Type,
		Quantity:     m.Quantity,
		Reason:       m.Reason,
		ReferenceID:  uuidPtrString(m.ReferenceID),
		RecordedBy:   m.RecordedBy,
		CreatedAt:    formatTime(m.CreatedAt),
	}
	if m.Ingredient != nil {
		resp.IngredientName = m.Ingredient.Name
	}
	return resp
}

func reorderToResponse(r *model.Reorder) dto.ReorderResponse {
	resp := dto.ReorderResponse{
		ID:           r.ID.String(),
		IngredientID: r.IngredientID.String(),
		Location:     r.Location,
		Quantity:     r.Quantity,
		Status:       r.Status,
		RequestedBy:  r.RequestedBy,
		CreatedAt:    formatTime(r.CreatedAt),
	}
	if r.Ingredient != nil {
		resp.IngredientName = r.Ingredient.Name
	}
	return resp
}

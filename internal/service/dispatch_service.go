package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DispatchService moves goods between locations. Sending writes dispatch_out
// movements at the source; receiving writes dispatch_in movements at the
// destination with the quantities actually received.
type DispatchService interface {
	Create(ctx context.Context, req dto.CreateDispatchRequest) (*dto.DispatchResponse, error)
	Receive(ctx context.Context, id uuid.UUID, req dto.ReceiveDispatchRequest) (*dto.DispatchResponse, error)
	List(ctx context.Context, toLocation, status string) ([]dto.DispatchResponse, error)
}

type dispatchService struct {
	dispatches  repository.DispatchRepository
	movements   repository.MovementRepository
	ingredients repository.IngredientRepository
	now         func() time.Time
}

func NewDispatchService(dispatches repository.DispatchRepository, movements repository.MovementRepository, ingredients repository.IngredientRepository) DispatchService {
	return &dispatchService{dispatches: dispatches, movements: movements, ingredients: ingredients, now: time.Now}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *dispatchService) Create(ctx context.Context, req dto.CreateDispatchRequest) (*dto.DispatchResponse, error) {
	if req.FromLocation == req.ToLocation {
		return nil, invalid("fromLocation and toLocation must differ")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	items := make([]model.DispatchItem, 0, len(req.Items))
	for i, in := range req.Items {
		ingID, err := uuid.Parse(in.IngredientID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d]: invalid ingredientId", i))
		}
		if !in.Quantity.IsPositive() {
			return nil, invalid(fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
		ids = append(ids, ingID)
		items = append(items, model.DispatchItem{IngredientID: ingID, SentQty: in.Quantity, Unit: in.Unit})
	}
	known, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, notFound("ingredient " + id.String())
		}
	}

	d := &model.Dispatch{
		FromLocation: req.FromLocation,
		ToLocation:   req.ToLocation,
		Status:       "sent",
		SentBy:       req.SentBy,
		SentAt:       s.now(),
		Notes:        req.Notes,
		Items:        items,
	}

	err = runTx(ctx, s.dispatches.DB(), func(tx *gorm.DB) error {
		if err := s.dispatches.CreateTx(tx, d); err != nil {
			return err
		}
		for _, it := range d.Items {
			ref := d.ID
			mov := &model.InventoryMovement{
				IngredientID: it.IngredientID,
				Location:     d.FromLocation,
				Type:         "dispatch_out",
				Quantity:     it.SentQty.Neg(),
				Reason:       "dispatch to " + d.ToLocation,
				ReferenceID:  &ref,
				RecordedBy:   d.SentBy,
			}
			if err := s.movements.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create dispatch: %w", err)
	}
	log.Info().Str("dispatch_id", d.ID.String()).Int("items", len(d.Items)).Msg("dispatch: sent")

	for i := range d.Items {
		if ing, ok := known[d.Items[i].IngredientID]; ok {
			ing := ing
			d.Items[i].Ingredient = &ing
		}
	}
	resp := dispatchToResponse(d)
	return &resp, nil
}

// ── Receive ───────────────────────────────────────────────────────────────────
// Items missing from the request are received at their sent quantity.

func (s *dispatchService) Receive(ctx context.Context, id uuid.UUID, req dto.ReceiveDispatchRequest) (*dto.DispatchResponse, error) {
	d, err := s.dispatches.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("dispatch")
	}
	if err != nil {
		return nil, err
	}
	if d.Status != "sent" {
		return nil, conflict(CodeDispatchNotSent, "dispatch was already received")
	}

	received := make(map[uuid.UUID]decimal.Decimal, len(d.Items))
	for _, it := range d.Items {
		received[it.ID] = it.SentQty
	}
	for i, in := range req.Items {
		itemID, err := uuid.Parse(in.ItemID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d]: invalid itemId", i))
		}
		if _, ok := received[itemID]; !ok {
			return nil, invalid(fmt.Sprintf("items[%d]: item does not belong to this dispatch", i))
		}
		if in.ReceivedQty.IsNegative() {
			return nil, invalid(fmt.Sprintf("items[%d]: receivedQty must be zero or positive", i))
		}
		received[itemID] = in.ReceivedQty
	}

	at := s.now()
	err = runTx(ctx, s.dispatches.DB(), func(tx *gorm.DB) error {
		ok, err := s.dispatches.MarkReceivedTx(tx, id, req.ReceivedBy, at, received)
		if err != nil {
			return err
		}
		if !ok {
			return conflict(CodeDispatchNotSent, "dispatch was already received")
		}
		for _, it := range d.Items {
			qty := received[it.ID]
			if qty.IsZero() {
				continue
			}
			ref := d.ID
			mov := &model.InventoryMovement{
				IngredientID: it.IngredientID,
				Location:     d.ToLocation,
				Type:         "dispatch_in",
				Quantity:     qty,
				Reason:       "dispatch from " + d.FromLocation,
				ReferenceID:  &ref,
				RecordedBy:   req.ReceivedBy,
			}
			if err := s.movements.CreateTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var coded *CodedError
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, fmt.Errorf("receive dispatch: %w", err)
	}
	log.Info().Str("dispatch_id", id.String()).Str("received_by", req.ReceivedBy).Msg("dispatch: received")

	by := req.ReceivedBy
	d.Status = "received"
	d.ReceivedBy = &by
	d.ReceivedAt = &at
	for i := range d.Items {
		qty := received[d.Items[i].ID]
		d.Items[i].ReceivedQty = &qty
	}
	resp := dispatchToResponse(d)
	return &resp, nil
}

func (s *dispatchService) List(ctx context.Context, toLocation, status string) ([]dto.DispatchResponse, error) {
	list, err := s.dispatches.List(ctx, repository.DispatchFilter{ToLocation: toLocation, Status: status})
	if err != nil {
		return nil, err
	}
	out := make([]dto.DispatchResponse, 0, len(list))
	for i := range list {
		out = append(out, dispatchToResponse(&list[i]))
	}
	return out, nil
}

func dispatchToResponse(d *model.Dispatch) dto.DispatchResponse {
	resp := dto.DispatchResponse{
		ID:           d.ID.String(),
		FromLocation: d.FromLocation,
		ToLocation:   d.ToLocation,
		Status:       d.Status,
		SentBy:       d.SentBy,
		SentAt:       formatTime(d.SentAt),
		ReceivedBy:   d.ReceivedBy,
		ReceivedAt:   formatTimePtr(d.ReceivedAt),
		Notes:        d.Notes,
		Items:        make([]dto.DispatchItemResponse, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		item := dto.DispatchItemResponse{
			ID:           it.ID.String(),
			IngredientID: it.IngredientID.String(),
			SentQty:      it.SentQty,
			ReceivedQty:  it.ReceivedQty,
			Unit:         it.Unit,
		}
		if it.Ingredient != nil {
			item.IngredientName = it.Ingredient.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

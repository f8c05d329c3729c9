package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type StockCountService interface {
	Create(ctx context.Context, req dto.CreateStockCountRequest) (*dto.StockCountResponse, error)
	AddItems(ctx context.Context, id uuid.UUID, req dto.AddStockCountItemsRequest) (*dto.StockCountResponse, error)
	// Complete closes the count. A second completed count of the same type for
	// the same day is a warning, or a conflict when single counts are enforced.
	Complete(ctx context.Context, id uuid.UUID) (*dto.StockCountResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StockCountResponse, error)
	List(ctx context.Context, filter dto.StockCountFilter) ([]dto.StockCountResponse, error)
}

type stockCountService struct {
	counts        repository.StockCountRepository
	ingredients   repository.IngredientRepository
	enforceSingle bool
	loc           *time.Location
	now           func() time.Time
}

func NewStockCountService(counts repository.StockCountRepository, ingredients repository.IngredientRepository, enforceSingle bool, loc *time.Location) StockCountService {
	if loc == nil {
		loc = time.UTC
	}
	return &stockCountService{counts: counts, ingredients: ingredients, enforceSingle: enforceSingle, loc: loc, now: time.Now}
}

func (s *stockCountService) Create(ctx context.Context, req dto.CreateStockCountRequest) (*dto.StockCountResponse, error) {
	date := req.Date
	if date == "" {
		date = s.now().In(s.loc).Format("2006-01-02")
	}
	if _, _, err := dayWindow(date, s.loc); err != nil {
		return nil, err
	}

	session := &model.StockCountSession{
		Location:     req.Location,
		CountType:    req.CountType,
		BusinessDate: date,
		Staff:        req.Staff,
		Status:       "in_progress",
		StartedAt:    s.now(),
	}
	if err := s.counts.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create stock count: %w", err)
	}
	log.Info().
		Str("session_id", session.ID.String()).
		Str("location", session.Location).
		Str("type", session.CountType).
		Msg("stock count: started")

	resp := stockCountToResponse(session)
	return &resp, nil
}

func (s *stockCountService) AddItems(ctx context.Context, id uuid.UUID, req dto.AddStockCountItemsRequest) (*dto.StockCountResponse, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != "in_progress" {
		return nil, conflict(CodeCountNotInProgress, "stock count is already completed")
	}

	items := make([]model.StockCountItem, 0, len(req.Items))
	var ingredientIDs []uuid.UUID
	for i, in := range req.Items {
		if in.Quantity.IsNegative() {
			return nil, invalid(fmt.Sprintf("items[%d]: quantity must be zero or positive", i))
		}
		item := model.StockCountItem{
			ItemName:  strings.TrimSpace(in.ItemName),
			Quantity:  in.Quantity,
			Unit:      in.Unit,
			Notes:     in.Notes,
			CreatedAt: s.now(),
		}
		if in.IngredientID != nil && *in.IngredientID != "" {
			ingID, err := uuid.Parse(*in.IngredientID)
			if err != nil {
				return nil, invalid(fmt.Sprintf("items[%d]: invalid ingredientId", i))
			}
			item.IngredientID = &ingID
			ingredientIDs = append(ingredientIDs, ingID)
		} else if item.ItemName == "" {
			return nil, invalid(fmt.Sprintf("items[%d]: ingredientId or itemName is required", i))
		}
		items = append(items, item)
	}

	// referenced ingredients must exist; names and units default from them
	if len(ingredientIDs) > 0 {
		known, err := s.ingredients.FindByIDs(ctx, ingredientIDs)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].IngredientID == nil {
				continue
			}
			ing, ok := known[*items[i].IngredientID]
			if !ok {
				return nil, notFound("ingredient " + items[i].IngredientID.String())
			}
			if items[i].ItemName == "" {
				items[i].ItemName = ing.Name
			}
			if items[i].Unit == "" {
				items[i].Unit = ing.Unit
			}
		}
	}

	added, err := s.counts.AddItems(ctx, id, items)
	if err != nil {
		return nil, fmt.Errorf("add stock count items: %w", err)
	}
	if !added {
		return nil, conflict(CodeCountNotInProgress, "stock count is already completed")
	}
	return s.Get(ctx, id)
}

func (s *stockCountService) Complete(ctx context.Context, id uuid.UUID) (*dto.StockCountResponse, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != "in_progress" {
		return nil, conflict(CodeCountNotInProgress, "stock count is already completed")
	}

	existing, err := s.counts.CountCompleted(ctx, session.Location, session.CountType, session.BusinessDate)
	if err != nil {
		return nil, err
	}
	var warning *string
	if existing > 0 {
		msg := fmt.Sprintf("a completed %s count for %s on %s already exists", session.CountType, session.Location, session.BusinessDate)
		if s.enforceSingle {
			return nil, conflict(CodeCountAlreadyDone, msg)
		}
		warning = &msg
	}

	ok, err := s.counts.CompleteSession(ctx, id, s.now())
	if errors.Is(err, repository.ErrDuplicate) {
		// a concurrent completion won the single-count index
		return nil, conflict(CodeCountAlreadyDone,
			fmt.Sprintf("a completed %s count for %s on %s already exists", session.CountType, session.Location, session.BusinessDate))
	}
	if err != nil {
		return nil, fmt.Errorf("complete stock count: %w", err)
	}
	if !ok {
		return nil, conflict(CodeCountNotInProgress, "stock count is already completed")
	}
	log.Info().Str("session_id", id.String()).Int("items", session.ItemCount).Msg("stock count: completed")

	resp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.Warning = warning
	return resp, nil
}

func (s *stockCountService) Get(ctx context.Context, id uuid.UUID) (*dto.StockCountResponse, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := stockCountToResponse(session)
	resp.Items = make([]dto.StockCountItemResponse, 0, len(session.Items))
	for _, it := range session.Items {
		resp.Items = append(resp.Items, dto.StockCountItemResponse{
			ID:           it.ID.String(),
			IngredientID: uuidPtrString(it.IngredientID),
			ItemName:     it.ItemName,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			Notes:        it.Notes,
		})
	}
	return &resp, nil
}

func (s *stockCountService) List(ctx context.Context, filter dto.StockCountFilter) ([]dto.StockCountResponse, error) {
	list, err := s.counts.List(ctx, repository.StockCountFilter{
		Location:  filter.Location,
		CountType: filter.CountType,
		Date:      filter.Date,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockCountResponse, 0, len(list))
	for i := range list {
		out = append(out, stockCountToResponse(&list[i]))
	}
	return out, nil
}

func (s *stockCountService) findSession(ctx context.Context, id uuid.UUID) (*model.StockCountSession, error) {
	session, err := s.counts.FindSession(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("stock count")
	}
	return session, err
}

func stockCountToResponse(s *model.StockCountSession) dto.StockCountResponse {
	return dto.StockCountResponse{
		ID:           s.ID.String(),
		Location:     s.Location,
		CountType:    s.CountType,
		BusinessDate: s.BusinessDate,
		Staff:        s.Staff,
		Status:       s.Status,
		ItemCount:    s.ItemCount,
		StartedAt:    formatTime(s.StartedAt),
		CompletedAt:  formatTimePtr(s.CompletedAt),
	}
}

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
)

type ShiftService interface {
	Open(ctx context.Context, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Close(ctx context.Context, id uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
	// ReconcileCash never returns an error; failures come back with Success=false.
	ReconcileCash(ctx context.Context, id uuid.UUID) dto.CashReconciliationResult
	Current(ctx context.Context) (*dto.ShiftResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error)
	List(ctx context.Context, limit int) ([]dto.ShiftResponse, error)
	AddExpense(ctx context.Context, shiftID uuid.UUID, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error)
	ListExpenses(ctx context.Context, shiftID uuid.UUID) ([]dto.ExpenseResponse, error)
}

// ShiftGates are the optional control gates on open / close.
type ShiftGates struct {
	RequireOpeningCount    bool
	RequireClosingCount    bool
	RequireCashDeclaration bool
}

type shiftService struct {
	shifts       repository.ShiftRepository
	transactions repository.TransactionRepository
	summaries    SummaryService
	gates        ShiftGates
	loc          *time.Location
	now          func() time.Time
}

func NewShiftService(
	shifts repository.ShiftRepository,
	transactions repository.TransactionRepository,
	summaries SummaryService,
	gates ShiftGates,
	loc *time.Location,
) ShiftService {
	if loc == nil {
		loc = time.UTC
	}
	return &shiftService{
		shifts:       shifts,
		transactions: transactions,
		summaries:    summaries,
		gates:        gates,
		loc:          loc,
		now:          time.Now,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────
// none → open. The partial unique index on status='open' decides the race.

func (s *shiftService) Open(ctx context.Context, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if req.OpeningFloat == nil || req.OpeningFloat.IsNegative() {
		return nil, invalid("openingFloat must be zero or positive")
	}
	if s.gates.RequireOpeningCount && req.OpeningStockCountID == nil {
		return nil, controlGate(CodeCountRequired, "an opening stock count is required before opening a shift")
	}
	countID, err := parseOptionalUUID(req.OpeningStockCountID)
	if err != nil {
		return nil, err
	}

	shift := &model.Shift{
		OpenedBy:            req.OpenedBy,
		OpeningFloat:        *req.OpeningFloat,
		StaffOnDuty:         req.StaffOnDuty,
		OpeningStockCountID: countID,
		Status:              "open",
		OpenedAt:            s.now(),
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(CodeShiftAlreadyOpen, "a shift is already open")
		}
		return nil, fmt.Errorf("open shift: %w", err)
	}
	log.Info().Str("shift_id", shift.ID.String()).Str("opened_by", shift.OpenedBy).Msg("shift: opened")

	resp := shiftToResponse(shift)
	return &resp, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// open → closed, then cash reconciliation and the daily summary for the close date.

func (s *shiftService) Close(ctx context.Context, id uuid.UUID, req dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	if req.ClosingCash == nil || req.ClosingCash.IsNegative() {
		return nil, invalid("closingCash must be zero or positive")
	}
	if s.gates.RequireClosingCount && req.ClosingStockCountID == nil {
		return nil, controlGate(CodeCountRequired, "a closing stock count is required before closing a shift")
	}
	if s.gates.RequireCashDeclaration && req.CashDeclared == nil {
		return nil, controlGate(CodeDeclarationRequired, "a cash declaration is required before closing a shift")
	}
	countID, err := parseOptionalUUID(req.ClosingStockCountID)
	if err != nil {
		return nil, err
	}

	shift, err := s.shifts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("shift")
	}
	if err != nil {
		return nil, err
	}
	if shift.Status != "open" {
		return nil, conflict(CodeShiftNotOpen, "shift is not open")
	}

	closedAt := s.now()
	closedBy := req.ClosedBy
	shift.Status = "closed"
	shift.ClosedBy = &closedBy
	shift.ClosedAt = &closedAt
	shift.ClosingCash = req.ClosingCash
	shift.CashDeclared = req.CashDeclared
	shift.ClosingStockCountID = countID

	ok, err := s.shifts.CloseIfOpen(ctx, shift)
	if err != nil {
		return nil, fmt.Errorf("close shift: %w", err)
	}
	if !ok {
		// lost the race to a concurrent close
		return nil, conflict(CodeShiftNotOpen, "shift is not open")
	}
	log.Info().Str("shift_id", id.String()).Str("closed_by", closedBy).Msg("shift: closed")

	cash := s.ReconcileCash(ctx, id)

	date := closedAt.In(s.loc).Format("2006-01-02")
	if s.summaries != nil {
		if _, err := s.summaries.Regenerate(ctx, date); err != nil {
			log.Warn().Err(err).Str("date", date).Msg("shift: summary regeneration failed")
		}
	}

	if updated, err := s.shifts.FindByID(ctx, id); err == nil {
		shift = updated
	}
	return &dto.CloseShiftResponse{Shift: shiftToResponse(shift), Cash: cash}, nil
}

// ── ReconcileCash ─────────────────────────────────────────────────────────────
// expected = float + POS cash - expenses; variance = declared - expected.

func (s *shiftService) ReconcileCash(ctx context.Context, id uuid.UUID) dto.CashReconciliationResult {
	res := dto.CashReconciliationResult{ShiftID: id.String()}

	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			res.Message = "shift not found"
		} else {
			log.Error().Err(err).Str("shift_id", id.String()).Msg("cash: load shift failed")
			res.Message = "could not load shift"
		}
		return res
	}

	end := s.now()
	if shift.ClosedAt != nil {
		end = *shift.ClosedAt
	}
	pay, err := s.transactions.SumPaymentsThrough(ctx, shift.OpenedAt, end)
	if err != nil {
		log.Error().Err(err).Str("shift_id", id.String()).Msg("cash: sum payments failed")
		res.Message = "could not total POS payments"
		return res
	}
	expenses, err := s.shifts.SumExpenses(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("shift_id", id.String()).Msg("cash: sum expenses failed")
		res.Message = "could not total expenses"
		return res
	}

	res.OpeningFloat = shift.OpeningFloat
	res.PosCash = pay.Cash
	res.PosCard = pay.Card
	res.Expenses = expenses
	res.ExpectedCash = shift.OpeningFloat.Add(pay.Cash).Sub(expenses)
	switch {
	case shift.CashDeclared != nil:
		res.DeclaredCash = *shift.CashDeclared
	case shift.ClosingCash != nil:
		res.DeclaredCash = *shift.ClosingCash
	}
	res.Variance = res.DeclaredCash.Sub(res.ExpectedCash)

	totals := repository.CashTotals{
		PosCash:      res.PosCash,
		PosCard:      res.PosCard,
		Expenses:     res.Expenses,
		ExpectedCash: res.ExpectedCash,
		Variance:     res.Variance,
	}
	if err := s.shifts.UpdateCashTotals(ctx, id, totals); err != nil {
		log.Error().Err(err).Str("shift_id", id.String()).Msg("cash: persist totals failed")
		res.Message = "could not store cash reconciliation"
		return res
	}

	res.Success = true
	log.Info().
		Str("shift_id", id.String()).
		Str("expected", res.ExpectedCash.String()).
		Str("variance", res.Variance.String()).
		Msg("cash: reconciled")
	return res
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *shiftService) Current(ctx context.Context) (*dto.ShiftResponse, error) {
	shift, err := s.shifts.FindOpen(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("open shift")
	}
	if err != nil {
		return nil, err
	}
	resp := shiftToResponse(shift)
	return &resp, nil
}

func (s *shiftService) Get(ctx context.Context, id uuid.UUID) (*dto.ShiftResponse, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("shift")
	}
	if err != nil {
		return nil, err
	}
	resp := shiftToResponse(shift)
	return &resp, nil
}

func (s *shiftService) List(ctx context.Context, limit int) ([]dto.ShiftResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.shifts.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ShiftResponse, 0, len(list))
	for i := range list {
		out = append(out, shiftToResponse(&list[i]))
	}
	return out, nil
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (s *shiftService) AddExpense(ctx context.Context, shiftID uuid.UUID, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("shift")
	}
	if err != nil {
		return nil, err
	}
	if shift.Status != "open" {
		return nil, conflict(CodeShiftNotOpen, "expenses can only be added to an open shift")
	}

	e := &model.Expense{
		ShiftID:     shiftID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		RecordedBy:  req.RecordedBy,
		CreatedAt:   s.now(),
	}
	if err := s.shifts.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	resp := expenseToResponse(e)
	return &resp, nil
}

func (s *shiftService) ListExpenses(ctx context.Context, shiftID uuid.UUID) ([]dto.ExpenseResponse, error) {
	list, err := s.shifts.ListExpenses(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpenseResponse, 0, len(list))
	for i := range list {
		out = append(out, expenseToResponse(&list[i]))
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, invalid("invalid stock count id")
	}
	return &id, nil
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func shiftToResponse(s *model.Shift) dto.ShiftResponse {
	staff := []string(s.StaffOnDuty)
	if staff == nil {
		staff = []string{}
	}
	return dto.ShiftResponse{
		ID:                  s.ID.String(),
		OpenedBy:            s.OpenedBy,
		OpeningFloat:        s.OpeningFloat,
		StaffOnDuty:         staff,
		Status:              s.Status,
		OpenedAt:            formatTime(s.OpenedAt),
		OpeningStockCountID: uuidPtrString(s.OpeningStockCountID),
		ClosedBy:            s.ClosedBy,
		ClosingCash:         s.ClosingCash,
		CashDeclared:        s.CashDeclared,
		ClosingStockCountID: uuidPtrString(s.ClosingStockCountID),
		ClosedAt:            formatTimePtr(s.ClosedAt),
		PosCashTotal:        s.PosCashTotal,
		PosCardTotal:        s.PosCardTotal,
		ExpensesTotal:       s.ExpensesTotal,
		ExpectedCash:        s.ExpectedCash,
		CashVariance:        s.CashVariance,
	}
}

func expenseToResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		ShiftID:     e.ShiftID.String(),
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		RecordedBy:  e.RecordedBy,
		CreatedAt:   formatTime(e.CreatedAt),
	}
}

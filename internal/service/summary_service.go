package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

type SummaryService interface {
	// Regenerate recomputes the summary for date (YYYY-MM-DD) from stored facts.
	Regenerate(ctx context.Context, date string) (*dto.DailySummaryResponse, error)
	List(ctx context.Context, from, to string) ([]dto.DailySummaryResponse, error)
}

type summaryService struct {
	summaries       repository.SummaryRepository
	transactions    repository.TransactionRepository
	consumption     repository.ConsumptionRepository
	reconciliations repository.ReconciliationRepository
	shifts          repository.ShiftRepository
	dispatches      repository.DispatchRepository
	reorders        repository.ReorderRepository
	loc             *time.Location
}

func NewSummaryService(
	summaries repository.SummaryRepository,
	transactions repository.TransactionRepository,
	consumption repository.ConsumptionRepository,
	reconciliations repository.ReconciliationRepository,
	shifts repository.ShiftRepository,
	dispatches repository.DispatchRepository,
	reorders repository.ReorderRepository,
	loc *time.Location,
) SummaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &summaryService{
		summaries:       summaries,
		transactions:    transactions,
		consumption:     consumption,
		reconciliations: reconciliations,
		shifts:          shifts,
		dispatches:      dispatches,
		reorders:        reorders,
		loc:             loc,
	}
}

func (s *summaryService) Regenerate(ctx context.Context, date string) (*dto.DailySummaryResponse, error) {
	from, to, err := dayWindow(date, s.loc)
	if err != nil {
		return nil, err
	}

	pay, err := s.transactions.SumPaymentsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary payments: %w", err)
	}
	cost, err := s.consumption.TotalCost(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary consumption: %w", err)
	}
	variance, err := s.reconciliations.SumVarianceForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("summary variance: %w", err)
	}
	cashVariance, err := s.shifts.SumCashVarianceBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary cash variance: %w", err)
	}
	shiftCount, err := s.shifts.CountOpenedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary shifts: %w", err)
	}
	dispatchCount, err := s.dispatches.CountSentBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary dispatches: %w", err)
	}
	reorderCount, err := s.reorders.CountCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary reorders: %w", err)
	}

	sum := &model.DailySummary{
		Date:               date,
		TotalSales:         pay.Total,
		CashSales:          pay.Cash,
		CardSales:          pay.Card,
		TransactionCount:   int(pay.Count),
		ConsumptionCost:    cost.Round(2),
		StockVarianceCount: int(variance.Count),
		StockVarianceValue: variance.Value,
		CashVariance:       cashVariance,
		ShiftCount:         int(shiftCount),
		DispatchCount:      int(dispatchCount),
		ReorderCount:       int(reorderCount),
		GrossMargin:        pay.Total.Sub(cost).Round(2),
		UpdatedAt:          time.Now(),
	}
	if err := s.summaries.Upsert(ctx, sum); err != nil {
		return nil, fmt.Errorf("summary upsert: %w", err)
	}
	log.Info().Str("date", date).Str("sales", sum.TotalSales.String()).Msg("summary: regenerated")

	resp := summaryToResponse(sum)
	return &resp, nil
}

func (s *summaryService) List(ctx context.Context, from, to string) ([]dto.DailySummaryResponse, error) {
	list, err := s.summaries.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DailySummaryResponse, 0, len(list))
	for i := range list {
		out = append(out, summaryToResponse(&list[i]))
	}
	return out, nil
}

func summaryToResponse(s *model.DailySummary) dto.DailySummaryResponse {
	return dto.DailySummaryResponse{
		Date:               s.Date,
		TotalSales:         s.TotalSales,
		CashSales:          s.CashSales,
		CardSales:          s.CardSales,
		TransactionCount:   s.TransactionCount,
		ConsumptionCost:    s.ConsumptionCost,
		StockVarianceCount: s.StockVarianceCount,
		StockVarianceValue: s.StockVarianceValue,
		CashVariance:       s.CashVariance,
		ShiftCount:         s.ShiftCount,
		DispatchCount:      s.DispatchCount,
		ReorderCount:       s.ReorderCount,
		GrossMargin:        s.GrossMargin,
		UpdatedAt:          formatTime(s.UpdatedAt),
	}
}

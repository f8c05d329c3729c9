package repository

import (
	"context"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SummaryRepository interface {
	Upsert(ctx context.Context, s *model.DailySummary) error
	FindByDate(ctx context.Context, date string) (*model.DailySummary, error)
	List(ctx context.Context, from, to string) ([]model.DailySummary, error)
}

type summaryRepo struct{ db *gorm.DB }

func NewSummaryRepository(db *gorm.DB) SummaryRepository { return &summaryRepo{db: db} }

func (r *summaryRepo) Upsert(ctx context.Context, s *model.DailySummary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(s).Error
}

func (r *summaryRepo) FindByDate(ctx context.Context, date string) (*model.DailySummary, error) {
	var s model.DailySummary
	err := r.db.WithContext(ctx).First(&s, "date = ?", date).Error
	return &s, err
}

func (r *summaryRepo) List(ctx context.Context, from, to string) ([]model.DailySummary, error) {
	q := r.db.WithContext(ctx).Model(&model.DailySummary{})
	if from != "" {
		q = q.Where("date >= ?", from)
	}
	if to != "" {
		q = q.Where("date <= ?", to)
	}
	var rows []model.DailySummary
	err := q.Order("date DESC").Limit(366).Find(&rows).Error
	return rows, err
}

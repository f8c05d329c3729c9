package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"gorm.io/gorm"
)

type ReorderRepository interface {
	Create(ctx context.Context, r *model.Reorder) error
	List(ctx context.Context, status string) ([]model.Reorder, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type reorderRepo struct{ db *gorm.DB }

func NewReorderRepository(db *gorm.DB) ReorderRepository { return &reorderRepo{db: db} }

func (r *reorderRepo) Create(ctx context.Context, ro *model.Reorder) error {
	return r.db.WithContext(ctx).Omit("Ingredient").Create(ro).Error
}

func (r *reorderRepo) List(ctx context.Context, status string) ([]model.Reorder, error) {
	q := r.db.WithContext(ctx).Preload("Ingredient")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []model.Reorder
	err := q.Order("created_at DESC").Limit(200).Find(&rows).Error
	return rows, err
}

func (r *reorderRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Reorder{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

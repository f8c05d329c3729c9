package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockCountFilter defines filters for listing count sessions.
type StockCountFilter struct {
	Location  string
	CountType string
	Date      string
	Limit     int
}

type StockCountRepository interface {
	CreateSession(ctx context.Context, s *model.StockCountSession) error
	FindSession(ctx context.Context, id uuid.UUID) (*model.StockCountSession, error)
	// AddItems appends items and bumps the session's item_count in one
	// transaction; false, with nothing written, when the session is not in progress.
	AddItems(ctx context.Context, sessionID uuid.UUID, items []model.StockCountItem) (bool, error)
	// CompleteSession flips in_progress → completed; false when the session was not in progress.
	// ErrDuplicate when the single-completed-count index rejects it.
	CompleteSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	CountCompleted(ctx context.Context, location, countType, date string) (int64, error)
	LatestCompleted(ctx context.Context, location, countType string) (*model.StockCountSession, error)
	List(ctx context.Context, filter StockCountFilter) ([]model.StockCountSession, error)
}

type stockCountRepo struct{ db *gorm.DB }

func NewStockCountRepository(db *gorm.DB) StockCountRepository { return &stockCountRepo{db: db} }

func (r *stockCountRepo) CreateSession(ctx context.Context, s *model.StockCountSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *stockCountRepo) FindSession(ctx context.Context, id uuid.UUID) (*model.StockCountSession, error) {
	var s model.StockCountSession
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&s, "id = ?", id).Error
	return &s, err
}

func (r *stockCountRepo) AddItems(ctx context.Context, sessionID uuid.UUID, items []model.StockCountItem) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.StockCountSession{}).
			Where("id = ? AND status = 'in_progress'", sessionID).
			Update("item_count", gorm.Expr("item_count + ?", len(items)))
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		for i := range items {
			items[i].SessionID = sessionID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		added = true
		return nil
	})
	return added, err
}

func (r *stockCountRepo) CompleteSession(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.StockCountSession{}).
		Where("id = ? AND status = 'in_progress'", id).
		Updates(map[string]interface{}{"status": "completed", "completed_at": at})
	return res.RowsAffected == 1, translate(res.Error)
}

func (r *stockCountRepo) CountCompleted(ctx context.Context, location, countType, date string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.StockCountSession{}).
		Where("location = ? AND count_type = ? AND business_date = ? AND status = 'completed'", location, countType, date).
		Count(&n).Error
	return n, err
}

func (r *stockCountRepo) LatestCompleted(ctx context.Context, location, countType string) (*model.StockCountSession, error) {
	var s model.StockCountSession
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("location = ? AND count_type = ? AND status = 'completed'", location, countType).
		Order("completed_at DESC").
		First(&s).Error
	return &s, err
}

func (r *stockCountRepo) List(ctx context.Context, filter StockCountFilter) ([]model.StockCountSession, error) {
	q := r.db.WithContext(ctx).Model(&model.StockCountSession{})
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.CountType != "" {
		q = q.Where("count_type = ?", filter.CountType)
	}
	if filter.Date != "" {
		q = q.Where("business_date = ?", filter.Date)
	}
	limit := filter.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var rows []model.StockCountSession
	err := q.Order("started_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

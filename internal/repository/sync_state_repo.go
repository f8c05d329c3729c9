package repository

import (
	"context"
	"errors"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncStateRepository interface {
	// Get returns an idle state when the kind has never run.
	Get(ctx context.Context, kind string) (*model.SyncState, error)
	Save(ctx context.Context, s *model.SyncState) error
}

type syncStateRepo struct{ db *gorm.DB }

func NewSyncStateRepository(db *gorm.DB) SyncStateRepository { return &syncStateRepo{db: db} }

func (r *syncStateRepo) Get(ctx context.Context, kind string) (*model.SyncState, error) {
	var s model.SyncState
	err := r.db.WithContext(ctx).First(&s, "kind = ?", kind).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SyncState{Kind: kind, Status: model.SyncStatusIdle}, nil
	}
	return &s, err
}

func (r *syncStateRepo) Save(ctx context.Context, s *model.SyncState) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}},
		UpdateAll: true,
	}).Create(s).Error
}

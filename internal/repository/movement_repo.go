package repository

import (
	"context"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter defines filters for listing inventory movements.
type MovementFilter struct {
	IngredientID *uuid.UUID
	Location     string
	Type         string
	Page         int
	Limit        int
}

type MovementRepository interface {
	Create(ctx context.Context, m *model.InventoryMovement) error
	CreateTx(tx *gorm.DB, m *model.InventoryMovement) error
	List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, m *model.InventoryMovement) error {
	return r.db.WithContext(ctx).Omit("Ingredient").Create(m).Error
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.InventoryMovement) error {
	return tx.Omit("Ingredient").Create(m).Error
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryMovement{}).
		Preload("Ingredient")
	if filter.IngredientID != nil {
		q = q.Where("ingredient_id = ?", *filter.IngredientID)
	}
	if filter.Location != "" {
		q = q.Where("location = ?", filter.Location)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movements []model.InventoryMovement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

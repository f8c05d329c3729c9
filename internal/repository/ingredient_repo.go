package repository

import (
	"context"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IngredientRepository interface {
	Create(ctx context.Context, i *model.Ingredient) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Ingredient, error)
	List(ctx context.Context, includeInactive bool) ([]model.Ingredient, error)
	Update(ctx context.Context, i *model.Ingredient) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	// UpsertByExternalIDTx inserts or renames the ingredient keyed by its POS id
	// and returns the stored row id.
	UpsertByExternalIDTx(tx *gorm.DB, i *model.Ingredient) (uuid.UUID, error)
	UpdateCostsByExternalID(ctx context.Context, externalID string, lastCost, averageCost decimal.Decimal) error
}

type ingredientRepo struct{ db *gorm.DB }

func NewIngredientRepository(db *gorm.DB) IngredientRepository { return &ingredientRepo{db: db} }

func (r *ingredientRepo) Create(ctx context.Context, i *model.Ingredient) error {
	return translate(r.db.WithContext(ctx).Create(i).Error)
}

func (r *ingredientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingredient, error) {
	var i model.Ingredient
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingredientRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Ingredient, error) {
	out := make(map[uuid.UUID]model.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Ingredient
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (r *ingredientRepo) List(ctx context.Context, includeInactive bool) ([]model.Ingredient, error) {
	var rows []model.Ingredient
	q := r.db.WithContext(ctx).Model(&model.Ingredient{})
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *ingredientRepo) Update(ctx context.Context, i *model.Ingredient) error {
	return translate(r.db.WithContext(ctx).Save(i).Error)
}

func (r *ingredientRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Ingredient{}).Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ingredientRepo) UpsertByExternalIDTx(tx *gorm.DB, i *model.Ingredient) (uuid.UUID, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "unit", "updated_at"}),
	}).Create(i).Error
	return i.ID, err
}

func (r *ingredientRepo) UpdateCostsByExternalID(ctx context.Context, externalID string, lastCost, averageCost decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Ingredient{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"last_cost":    lastCost,
			"average_cost": averageCost,
			"updated_at":   time.Now(),
		}).Error
}

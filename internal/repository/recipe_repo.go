package repository

import (
	"context"

	"github.com/bildin8/postergram-juice-sub001/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeRepository interface {
	FindByExternalProductID(ctx context.Context, externalProductID string) (*model.Recipe, error)
	List(ctx context.Context) ([]model.Recipe, error)
	// ReplaceTx upserts the recipe header on external_product_id and swaps its lines.
	ReplaceTx(tx *gorm.DB, r *model.Recipe) error
	DB() *gorm.DB
}

type recipeRepo struct{ db *gorm.DB }

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepo{db: db} }

func (r *recipeRepo) DB() *gorm.DB { return r.db }

func (r *recipeRepo) FindByExternalProductID(ctx context.Context, externalProductID string) (*model.Recipe, error) {
	var rec model.Recipe
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Lines.Ingredient").
		Where("external_product_id = ?", externalProductID).
		First(&rec).Error
	return &rec, err
}

func (r *recipeRepo) List(ctx context.Context) ([]model.Recipe, error) {
	var recs []model.Recipe
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("name ASC").Find(&recs).Error
	return recs, err
}

func (r *recipeRepo) ReplaceTx(tx *gorm.DB, rec *model.Recipe) error {
	lines := rec.Lines
	rec.Lines = nil
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", rec.ID).Delete(&model.RecipeLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].RecipeID = rec.ID
		lines[i].Position = i
	}
	if len(lines) > 0 {
		if err := tx.Omit("Ingredient").Create(&lines).Error; err != nil {
			return err
		}
	}
	rec.Lines = lines
	return nil
}

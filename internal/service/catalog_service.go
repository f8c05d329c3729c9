package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/model"
	"github.com/bildin8/postergram-juice-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService manages ingredients and the recipes that reference them.
// Most of the catalog arrives through recipe sync; these operations cover
// manual corrections.
type CatalogService interface {
	CreateIngredient(ctx context.Context, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error)
	ListIngredients(ctx context.Context, includeInactive bool) ([]dto.IngredientResponse, error)
	UpdateIngredient(ctx context.Context, id uuid.UUID, req dto.UpdateIngredientRequest) (*dto.IngredientResponse, error)
	DeactivateIngredient(ctx context.Context, id uuid.UUID) error

	ListRecipes(ctx context.Context) ([]dto.RecipeResponse, error)
	GetRecipe(ctx context.Context, externalProductID string) (*dto.RecipeResponse, error)
	ReplaceRecipe(ctx context.Context, externalProductID string, req dto.ReplaceRecipeRequest) (*dto.RecipeResponse, error)
}

type catalogService struct {
	ingredients repository.IngredientRepository
	recipes     repository.RecipeRepository
}

func NewCatalogService(ingredients repository.IngredientRepository, recipes repository.RecipeRepository) CatalogService {
	return &catalogService{ingredients: ingredients, recipes: recipes}
}

// ── Ingredients ───────────────────────────────────────────────────────────────

func (s *catalogService) CreateIngredient(ctx context.Context, req dto.CreateIngredientRequest) (*dto.IngredientResponse, error) {
	if req.AverageCost.IsNegative() {
		return nil, invalid("averageCost must be zero or positive")
	}
	if req.ParLevel != nil && req.ParLevel.IsNegative() {
		return nil, invalid("parLevel must be zero or positive")
	}
	ing := &model.Ingredient{
		Name:        strings.TrimSpace(req.Name),
		Unit:        req.Unit,
		ExternalID:  req.ExternalID,
		AverageCost: req.AverageCost,
		LastCost:    req.AverageCost,
		ParLevel:    req.ParLevel,
		Active:      true,
	}
	if err := s.ingredients.Create(ctx, ing); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("an ingredient with this external id already exists: %w", ErrConflict)
		}
		return nil, err
	}
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *catalogService) ListIngredients(ctx context.Context, includeInactive bool) ([]dto.IngredientResponse, error) {
	list, err := s.ingredients.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IngredientResponse, 0, len(list))
	for i := range list {
		out = append(out, ingredientToResponse(&list[i]))
	}
	return out, nil
}

func (s *catalogService) UpdateIngredient(ctx context.Context, id uuid.UUID, req dto.UpdateIngredientRequest) (*dto.IngredientResponse, error) {
	ing, err := s.ingredients.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("ingredient")
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		ing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Unit != nil {
		ing.Unit = *req.Unit
	}
	if req.AverageCost != nil {
		if req.AverageCost.IsNegative() {
			return nil, invalid("averageCost must be zero or positive")
		}
		ing.AverageCost = *req.AverageCost
	}
	if req.LastCost != nil {
		if req.LastCost.IsNegative() {
			return nil, invalid("lastCost must be zero or positive")
		}
		ing.LastCost = *req.LastCost
	}
	if req.ParLevel != nil {
		if req.ParLevel.IsNegative() {
			return nil, invalid("parLevel must be zero or positive")
		}
		ing.ParLevel = req.ParLevel
	}

	if err := s.ingredients.Update(ctx, ing); err != nil {
		return nil, err
	}
	resp := ingredientToResponse(ing)
	return &resp, nil
}

func (s *catalogService) DeactivateIngredient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ingredients.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("ingredient")
		}
		return err
	}
	return s.ingredients.Deactivate(ctx, id)
}

// ── Recipes ───────────────────────────────────────────────────────────────────

func (s *catalogService) ListRecipes(ctx context.Context) ([]dto.RecipeResponse, error) {
	list, err := s.recipes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecipeResponse, 0, len(list))
	for i := range list {
		out = append(out, recipeToResponse(&list[i]))
	}
	return out, nil
}

func (s *catalogService) GetRecipe(ctx context.Context, externalProductID string) (*dto.RecipeResponse, error) {
	rec, err := s.recipes.FindByExternalProductID(ctx, externalProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("recipe")
	}
	if err != nil {
		return nil, err
	}
	resp := recipeToResponse(rec)
	return &resp, nil
}

// ReplaceRecipe swaps every line of the product's recipe in one transaction.
func (s *catalogService) ReplaceRecipe(ctx context.Context, externalProductID string, req dto.ReplaceRecipeRequest) (*dto.RecipeResponse, error) {
	externalProductID = strings.TrimSpace(externalProductID)
	if externalProductID == "" {
		return nil, invalid("product id is required")
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	lines := make([]model.RecipeLine, 0, len(req.Lines))
	for i, in := range req.Lines {
		ingID, err := uuid.Parse(in.IngredientID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("lines[%d]: invalid ingredientId", i))
		}
		if in.Quantity.IsNegative() {
			return nil, invalid(fmt.Sprintf("lines[%d]: quantity must be zero or positive", i))
		}
		if in.IsModifier && (in.ExternalModifierID == nil || *in.ExternalModifierID == "") {
			return nil, invalid(fmt.Sprintf("lines[%d]: modifier lines need externalModifierId", i))
		}
		ids = append(ids, ingID)
		lines = append(lines, model.RecipeLine{
			IngredientID:       ingID,
			Quantity:           in.Quantity,
			Unit:               in.Unit,
			IsModifier:         in.IsModifier,
			ExternalModifierID: in.ExternalModifierID,
			ModifierGroup:      in.ModifierGroup,
		})
	}

	known, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return nil, notFound("ingredient " + id.String())
		}
	}

	rec := &model.Recipe{ExternalProductID: externalProductID, Name: req.Name, Lines: lines}
	err = runTx(ctx, s.recipes.DB(), func(tx *gorm.DB) error {
		return s.recipes.ReplaceTx(tx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("replace recipe: %w", err)
	}
	return s.GetRecipe(ctx, externalProductID)
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func ingredientToResponse(i *model.Ingredient) dto.IngredientResponse {
	return dto.IngredientResponse{
		ID:          i.ID.String(),
		Name:        i.Name,
		Unit:        i.Unit,
		ExternalID:  i.ExternalID,
		AverageCost: i.AverageCost,
		LastCost:    i.LastCost,
		ParLevel:    i.ParLevel,
		Active:      i.Active,
	}
}

func recipeToResponse(r *model.Recipe) dto.RecipeResponse {
	resp := dto.RecipeResponse{
		ID:                r.ID.String(),
		ExternalProductID: r.ExternalProductID,
		Name:              r.Name,
		Lines:             make([]dto.RecipeLineResponse, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		line := dto.RecipeLineResponse{
			IngredientID:       l.IngredientID.String(),
			Quantity:           l.Quantity,
			Unit:               l.Unit,
			IsModifier:         l.IsModifier,
			ExternalModifierID: l.ExternalModifierID,
			ModifierGroup:      l.ModifierGroup,
		}
		if l.Ingredient != nil {
			line.IngredientName = l.Ingredient.Name
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

package handler

import (
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler { return &CatalogHandler{svc: svc} }

// ── Ingredients ───────────────────────────────────────────────────────────────

// ListIngredients godoc
// @Summary Ingredients, active only unless includeInactive=true
// @Tags ingredients
// @Produce json
// @Security BearerAuth
// @Param includeInactive query bool false "Include deactivated ingredients"
// @Success 200 {array} dto.IngredientResponse
// @Router /v1/ingredients [get]
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	resp, err := h.svc.ListIngredients(c.Request.Context(), c.Query("includeInactive") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateIngredient godoc
// @Summary Create an ingredient
// @Tags ingredients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateIngredientRequest true "Ingredient"
// @Success 201 {object} dto.IngredientResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ingredients [post]
func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateIngredient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateIngredient godoc
// @Summary Update name, unit, costs or PAR level
// @Tags ingredients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Param body body dto.UpdateIngredientRequest true "Fields to change"
// @Success 200 {object} dto.IngredientResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ingredients/{id} [patch]
func (h *CatalogHandler) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateIngredient(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeactivateIngredient godoc
// @Summary Deactivate an ingredient; history keeps referencing it
// @Tags ingredients
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/ingredients/{id} [delete]
func (h *CatalogHandler) DeactivateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateIngredient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Recipes ───────────────────────────────────────────────────────────────────

// ListRecipes godoc
// @Summary All product recipes
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RecipeResponse
// @Router /v1/recipes [get]
func (h *CatalogHandler) ListRecipes(c *gin.Context) {
	resp, err := h.svc.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecipe godoc
// @Summary Recipe of one POS product
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param productId path string true "POS product id"
// @Success 200 {object} dto.RecipeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/recipes/{productId} [get]
func (h *CatalogHandler) GetRecipe(c *gin.Context) {
	resp, err := h.svc.GetRecipe(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReplaceRecipe godoc
// @Summary Replace every line of a product recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productId path string true "POS product id"
// @Param body body dto.ReplaceRecipeRequest true "Recipe"
// @Success 200 {object} dto.RecipeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/recipes/{productId} [put]
func (h *CatalogHandler) ReplaceRecipe(c *gin.Context) {
	var req dto.ReplaceRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReplaceRecipe(c.Request.Context(), c.Param("productId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves dispatches, the movement ledger and reorders.
type InventoryHandler struct {
	dispatches service.DispatchService
	inventory  service.InventoryService
}

func NewInventoryHandler(dispatches service.DispatchService, inventory service.InventoryService) *InventoryHandler {
	return &InventoryHandler{dispatches: dispatches, inventory: inventory}
}

// CreateDispatch godoc
// @Summary Send goods from one location to the other
// @Tags dispatches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateDispatchRequest true "Dispatch"
// @Success 201 {object} dto.DispatchResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/dispatches [post]
func (h *InventoryHandler) CreateDispatch(c *gin.Context) {
	var req dto.CreateDispatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.SentBy == "" {
		req.SentBy = actor(c)
	}
	resp, err := h.dispatches.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ReceiveDispatch godoc
// @Summary Confirm a dispatch; omitted items are received in full
// @Tags dispatches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dispatch ID"
// @Param body body dto.ReceiveDispatchRequest true "Received quantities"
// @Success 200 {object} dto.DispatchResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "DISPATCH_NOT_SENT"
// @Router /v1/dispatches/{id}/receive [post]
func (h *InventoryHandler) ReceiveDispatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveDispatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.dispatches.Receive(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListDispatches godoc
// @Summary Dispatches, newest first
// @Tags dispatches
// @Produce json
// @Security BearerAuth
// @Param toLocation query string false "store | shop"
// @Param status query string false "sent | received"
// @Success 200 {array} dto.DispatchResponse
// @Router /v1/dispatches [get]
func (h *InventoryHandler) ListDispatches(c *gin.Context) {
	resp, err := h.dispatches.List(c.Request.Context(), c.Query("toLocation"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Record a manual adjustment or waste entry
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordMovementRequest true "Movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.RecordMovement(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary Inventory ledger, paginated
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param ingredientId query string false "Ingredient ID"
// @Param location query string false "store | shop"
// @Param type query string false "dispatch_out | dispatch_in | adjustment | waste"
// @Param page query int false "Page (from 1)"
// @Param limit query int false "Page size (max 500)"
// @Success 200 {object} dto.MovementListResponse
// @Router /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.inventory.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReorderSuggestions godoc
// @Summary Ingredients whose last closing count is below PAR
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ReorderSuggestion
// @Router /v1/inventory/reorder-suggestions [get]
func (h *InventoryHandler) ReorderSuggestions(c *gin.Context) {
	resp, err := h.inventory.ReorderSuggestions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateReorder godoc
// @Summary Request a purchase of one ingredient
// @Tags reorders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateReorderRequest true "Reorder"
// @Success 201 {object} dto.ReorderResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/reorders [post]
func (h *InventoryHandler) CreateReorder(c *gin.Context) {
	var req dto.CreateReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.CreateReorder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListReorders godoc
// @Summary Reorders, newest first
// @Tags reorders
// @Produce json
// @Security BearerAuth
// @Param status query string false "requested | ordered | received"
// @Success 200 {array} dto.ReorderResponse
// @Router /v1/reorders [get]
func (h *InventoryHandler) ListReorders(c *gin.Context) {
	resp, err := h.inventory.ListReorders(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

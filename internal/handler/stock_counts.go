package handler

import (
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type StockCountsHandler struct{ svc service.StockCountService }

func NewStockCountsHandler(svc service.StockCountService) *StockCountsHandler {
	return &StockCountsHandler{svc: svc}
}

// Create godoc
// @Summary Start an opening or closing stock count
// @Tags stock-counts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateStockCountRequest true "Count header"
// @Success 201 {object} dto.StockCountResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/stock-counts [post]
func (h *StockCountsHandler) Create(c *gin.Context) {
	var req dto.CreateStockCountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddItems godoc
// @Summary Add counted lines to an in-progress count
// @Tags stock-counts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Count ID"
// @Param body body dto.AddStockCountItemsRequest true "Counted items"
// @Success 200 {object} dto.StockCountResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "COUNT_NOT_IN_PROGRESS"
// @Router /v1/stock-counts/{id}/items [post]
func (h *StockCountsHandler) AddItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddStockCountItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItems(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Complete godoc
// @Summary Complete a count; a second count of the same type for the day returns a warning
// @Tags stock-counts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Count ID"
// @Success 200 {object} dto.StockCountResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "COUNT_NOT_IN_PROGRESS | COUNT_ALREADY_COMPLETED"
// @Router /v1/stock-counts/{id}/complete [post]
func (h *StockCountsHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Stock count with its items
// @Tags stock-counts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Count ID"
// @Success 200 {object} dto.StockCountResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stock-counts/{id} [get]
func (h *StockCountsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Stock counts, newest first
// @Tags stock-counts
// @Produce json
// @Security BearerAuth
// @Param location query string false "store | shop"
// @Param countType query string false "opening | closing"
// @Param date query string false "YYYY-MM-DD"
// @Param limit query int false "Max rows"
// @Success 200 {array} dto.StockCountResponse
// @Router /v1/stock-counts [get]
func (h *StockCountsHandler) List(c *gin.Context) {
	var filter dto.StockCountFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

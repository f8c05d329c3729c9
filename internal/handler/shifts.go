package handler

import (
	"net/http"
	"strconv"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftsHandler struct{ svc service.ShiftService }

func NewShiftsHandler(svc service.ShiftService) *ShiftsHandler { return &ShiftsHandler{svc: svc} }

// Open godoc
// @Summary Open a shift; only one shift may be open at a time
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Opening data"
// @Success 201 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError "SHIFT_ALREADY_OPEN"
// @Failure 422 {object} apierror.APIError "COUNT_REQUIRED"
// @Router /v1/shifts/open [post]
func (h *ShiftsHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Close the open shift and reconcile its cash
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param body body dto.CloseShiftRequest true "Closing data"
// @Success 200 {object} dto.CloseShiftResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "SHIFT_NOT_OPEN"
// @Failure 422 {object} apierror.APIError "COUNT_REQUIRED | DECLARATION_REQUIRED"
// @Router /v1/shifts/{id}/close [post]
func (h *ShiftsHandler) Close(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReconcileCash godoc
// @Summary Recompute expected cash and variance for a shift
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} dto.CashReconciliationResult
// @Router /v1/shifts/{id}/reconcile-cash [post]
func (h *ShiftsHandler) ReconcileCash(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	// failures are reported in the body with success=false
	c.JSON(http.StatusOK, h.svc.ReconcileCash(c.Request.Context(), id))
}

// Current godoc
// @Summary The currently open shift
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ShiftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/current [get]
func (h *ShiftsHandler) Current(c *gin.Context) {
	resp, err := h.svc.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Shift by id
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} dto.ShiftResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/shifts/{id} [get]
func (h *ShiftsHandler) Get(c *gin.Context) {
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
// @Summary Recent shifts, newest first
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {array} dto.ShiftResponse
// @Router /v1/shifts [get]
func (h *ShiftsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddExpense godoc
// @Summary Record a cash expense against an open shift
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Param body body dto.CreateExpenseRequest true "Expense"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "SHIFT_NOT_OPEN"
// @Router /v1/shifts/{id}/expenses [post]
func (h *ShiftsHandler) AddExpense(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddExpense(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListExpenses godoc
// @Summary Expenses recorded for a shift
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {array} dto.ExpenseResponse
// @Router /v1/shifts/{id}/expenses [get]
func (h *ShiftsHandler) ListExpenses(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListExpenses(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Calculate godoc
// @Summary Compute the daily stock reconciliation from two completed counts
// @Description Expected = opening + received − usage. Item failures are listed in errors with status 200.
// @Tags reconciliation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CalculateReconciliationRequest true "Date, location and counts"
// @Success 200 {object} dto.ReconciliationResult
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "RECONCILIATION_LOCKED"
// @Router /v1/reconciliation/calculate [post]
func (h *ReconciliationHandler) Calculate(c *gin.Context) {
	var req dto.CalculateReconciliationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Reconciliation headers
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param location query string false "store | shop"
// @Success 200 {array} dto.ReconciliationResponse
// @Router /v1/reconciliation [get]
func (h *ReconciliationHandler) List(c *gin.Context) {
	var filter dto.ReconciliationFilter
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

// Get godoc
// @Summary Reconciliation with items
// @Tags reconciliation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reconciliation ID"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/reconciliation/{id} [get]
func (h *ReconciliationHandler) Get(c *gin.Context) {
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

// Acknowledge godoc
// @Summary Acknowledge a completed reconciliation; it can no longer be recalculated
// @Tags reconciliation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reconciliation ID"
// @Param body body dto.AcknowledgeReconciliationRequest true "Who acknowledges"
// @Success 200 {object} dto.ReconciliationResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/reconciliation/{id}/acknowledge [post]
func (h *ReconciliationHandler) Acknowledge(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AcknowledgeReconciliationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Acknowledge(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary Download the reconciliation report as PDF
// @Tags reconciliation
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Reconciliation ID"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/reconciliation/{id}/pdf [get]
func (h *ReconciliationHandler) PDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	// render fully before writing so errors can still produce a JSON response
	var buf bytes.Buffer
	if err := h.svc.WritePDF(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reconciliation_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

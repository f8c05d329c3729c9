package handler

import (
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type SummariesHandler struct{ svc service.SummaryService }

func NewSummariesHandler(svc service.SummaryService) *SummariesHandler {
	return &SummariesHandler{svc: svc}
}

// Regenerate godoc
// @Summary Recompute the daily summary for a date
// @Tags summaries
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} dto.DailySummaryResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/summaries/{date}/regenerate [post]
func (h *SummariesHandler) Regenerate(c *gin.Context) {
	resp, err := h.svc.Regenerate(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Daily summaries in a date range
// @Tags summaries
// @Produce json
// @Security BearerAuth
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {array} dto.DailySummaryResponse
// @Router /v1/summaries [get]
func (h *SummariesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

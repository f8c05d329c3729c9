package handler

import (
	"net/http"

	"github.com/bildin8/postergram-juice-sub001/internal/apierror"
	"github.com/bildin8/postergram-juice-sub001/internal/dto"
	"github.com/bildin8/postergram-juice-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

// Scheduler is the part of the sync cron the API controls.
type Scheduler interface {
	Start() error
	Stop()
	Running() bool
}

type SyncHandler struct {
	svc       service.SyncService
	scheduler Scheduler
}

func NewSyncHandler(svc service.SyncService, scheduler Scheduler) *SyncHandler {
	return &SyncHandler{svc: svc, scheduler: scheduler}
}

// SyncTransactions godoc
// @Summary Import POS transactions closed since the last watermark
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SyncResult
// @Failure 502 {object} apierror.APIError
// @Router /v1/sync/transactions [post]
func (h *SyncHandler) SyncTransactions(c *gin.Context) {
	res, err := h.svc.SyncTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Backfill godoc
// @Summary Re-import the last N days of sales without moving the watermark
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.BackfillRequest true "Days to backfill (1-90)"
// @Success 200 {object} dto.SyncResult
// @Failure 422 {object} apierror.ValidationError
// @Failure 502 {object} apierror.APIError
// @Router /v1/sync/backfill [post]
func (h *SyncHandler) Backfill(c *gin.Context) {
	var req dto.BackfillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Backfill(c.Request.Context(), req.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SyncRecipes godoc
// @Summary Import ingredients, stock costs and product recipes from the POS
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.RecipeSyncResult
// @Failure 502 {object} apierror.APIError
// @Router /v1/sync/recipes [post]
func (h *SyncHandler) SyncRecipes(c *gin.Context) {
	res, err := h.svc.SyncRecipes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Status godoc
// @Summary Sync state per kind and scheduler state
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SyncStatusResponse
// @Router /v1/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	res, err := h.svc.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if h.scheduler != nil {
		res.SchedulerRunning = h.scheduler.Running()
	}
	c.JSON(http.StatusOK, res)
}

// StartScheduler godoc
// @Summary Start the periodic transaction sync
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Failure 500 {object} apierror.APIError
// @Router /v1/sync/scheduler/start [post]
func (h *SyncHandler) StartScheduler(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("scheduler not available"))
		return
	}
	if err := h.scheduler.Start(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

// StopScheduler godoc
// @Summary Stop the periodic transaction sync
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Router /v1/sync/scheduler/stop [post]
func (h *SyncHandler) StopScheduler(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("scheduler not available"))
		return
	}
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

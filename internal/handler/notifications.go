package handler

import (
	"net/http"
	"strconv"

	"github.com/bildin8/postergram-juice-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NotificationsHandler exposes the dead letter list of the notification queue.
type NotificationsHandler struct{ rdb *redis.Client }

func NewNotificationsHandler(rdb *redis.Client) *NotificationsHandler {
	return &NotificationsHandler{rdb: rdb}
}

// DeadLetters godoc
// @Summary Number of parked notification jobs
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int64
// @Router /v1/notifications/dead-letters [get]
func (h *NotificationsHandler) DeadLetters(c *gin.Context) {
	n, err := worker.DLQLength(c.Request.Context(), h.rdb, worker.QueueNotifications)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parked": n})
}

// Replay godoc
// @Summary Requeue parked notification jobs, oldest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max jobs to requeue (default 100)"
// @Success 200 {object} map[string]int
// @Router /v1/notifications/replay [post]
func (h *NotificationsHandler) Replay(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	n, err := worker.ReplayDLQ(c.Request.Context(), h.rdb, worker.QueueNotifications, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replayed": n})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/infra"
	"github.com/bildin8/postergram-juice-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// DB and Redis must answer; an open POS breaker or parked notification jobs
// are reported but do not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, posCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if posCB != nil {
			body["pos"] = posCB.State().String()
		}
		if redisStatus == "connected" {
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueNotifications); err == nil {
				body["deadLetters"] = n
			}
		}
		c.JSON(status, body)
	}
}

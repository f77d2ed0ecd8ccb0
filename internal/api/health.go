package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/db"
)

// HealthHandler reports liveness of the server and its two backing stores.
// Public, no auth: load balancers need to reach it.
type HealthHandler struct {
	database *db.DB
	redis    *redis.Client
	logger   *zap.Logger
}

func NewHealthHandler(database *db.DB, redisClient *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{database: database, redis: redisClient, logger: logger}
}

// Check handles GET /v1/health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	postgres := "ok"
	redisStatus := "ok"

	if err := h.database.Health(ctx); err != nil {
		h.logger.Warn("postgres health check failed", zap.Error(err))
		postgres = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.Warn("redis health check failed", zap.Error(err))
		redisStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   overall,
		"postgres": postgres,
		"redis":    redisStatus,
	})
}

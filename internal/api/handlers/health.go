package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/api/middleware"
)

// Pinger checks database connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler handles health check endpoints for container and load
// balancer probes.
type HealthHandler struct {
	db         Pinger
	instanceID string
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(db Pinger, instanceID string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		instanceID: instanceID,
	}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	Database   string `json:"database"`
}

// Liveness handles GET /health/live.
//
// This endpoint always returns 200 OK as long as the HTTP server is running.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:     "ok",
		InstanceID: h.instanceID,
	})
}

// Readiness handles GET /health/ready.
//
// Returns 200 when the database answers a ping and 503 otherwise.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		middleware.GetLogger(c).Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ReadinessResponse{
			Status:     "unavailable",
			InstanceID: h.instanceID,
			Database:   "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, ReadinessResponse{
		Status:     "ok",
		InstanceID: h.instanceID,
		Database:   "ok",
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaroslav/recipebox/models"
)

// CoreHealth handles GET /api/core/health.
func CoreHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Healthy: true})
}

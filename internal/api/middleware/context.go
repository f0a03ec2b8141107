package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/models"
)

// Context keys for request-scoped values.
const (
	// ContextKeyUser stores the authenticated *models.User.
	ContextKeyUser = "user"

	// ContextKeyRequestID stores the unique request ID for tracing.
	ContextKeyRequestID = "request_id"

	// ContextKeyLogger stores the request-scoped *zap.Logger.
	ContextKeyLogger = "logger"
)

// GetUser retrieves the authenticated user from the request context.
// Returns nil if the request is not authenticated.
func GetUser(c *gin.Context) *models.User {
	if val, exists := c.Get(ContextKeyUser); exists {
		if user, ok := val.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SetUser stores the authenticated user in the request context.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(ContextKeyUser, user)
}

// GetLogger retrieves the request-scoped logger from Gin context.
// Returns a no-op logger if not found.
func GetLogger(c *gin.Context) *zap.Logger {
	if logger, exists := c.Get(ContextKeyLogger); exists {
		if l, ok := logger.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

// GetRequestID retrieves the request ID from Gin context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(ContextKeyRequestID); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// AbortWithDetail writes a {"detail": ...} error body and stops the chain.
func AbortWithDetail(c *gin.Context, status int, detail interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Detail:    detail,
		RequestID: GetRequestID(c),
	})
}

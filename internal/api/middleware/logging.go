// Package middleware provides HTTP middleware for the recipebox REST API.
//
// This package implements bearer token authentication, rate limiting,
// request logging, metrics and CORS handling for all API requests.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/util"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestLogger creates a middleware that logs all HTTP requests using structured logging.
//
// This middleware:
// - Reuses a valid incoming X-Request-ID or generates a new one
// - Creates a request-scoped logger with standard fields
// - Stores logger in both Gin and request context
// - Logs completion with duration at a level chosen by status code
// - Includes the user ID once the request is authenticated
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if util.ValidateUUID(requestID) != nil {
			requestID = uuid.New().String()
		}
		c.Header(HeaderRequestID, requestID)

		start := time.Now()

		requestLogger := logger.With(
			zap.String(logging.FieldRequestID, requestID),
			zap.String(logging.FieldMethod, c.Request.Method),
			zap.String(logging.FieldPath, c.Request.URL.Path),
			zap.String(logging.FieldRemoteAddr, c.ClientIP()),
			zap.String(logging.FieldUserAgent, c.Request.UserAgent()),
		)

		c.Set(ContextKeyLogger, requestLogger)
		c.Set(ContextKeyRequestID, requestID)

		// Store in request context for non-gin code
		ctx := logging.WithLogger(c.Request.Context(), requestLogger)
		c.Request = c.Request.WithContext(ctx)

		requestLogger.Debug("request started")

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int(logging.FieldStatusCode, status),
			zap.Duration(logging.FieldDuration, duration),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.Int("response_size", c.Writer.Size()),
		}
		if user := GetUser(c); user != nil {
			fields = append(fields, zap.Int64(logging.FieldUserID, user.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String(logging.FieldError, c.Errors.String()))
		}

		if status >= 500 {
			requestLogger.Error("request completed with server error", fields...)
		} else if status >= 400 {
			requestLogger.Warn("request completed with client error", fields...)
		} else {
			requestLogger.Info("request completed", fields...)
		}
	}
}

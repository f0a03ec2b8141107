package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/models"
)

// UserResolver maps a bearer token to an active user.
type UserResolver interface {
	UserFromToken(ctx context.Context, raw string) (*models.User, error)
}

// RequireUser creates middleware that requires "Authorization: Bearer <jwt>".
//
// Missing, malformed, expired or foreign tokens, and tokens for deleted or
// inactive users, all produce 401 {"detail":"Unauthorized"}.
func RequireUser(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithDetail(c, http.StatusUnauthorized, models.ErrUnauthorized.Error())
			return
		}

		user, err := users.UserFromToken(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				AbortWithDetail(c, http.StatusUnauthorized, models.ErrUnauthorized.Error())
				return
			}
			GetLogger(c).Error("failed to resolve bearer token", zap.Error(err))
			AbortWithDetail(c, http.StatusInternalServerError, "An internal error occurred")
			return
		}

		SetUser(c, user)
		ctx := logging.AddFields(c.Request.Context(), zap.Int64(logging.FieldUserID, user.ID))
		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextKeyLogger, GetLogger(c).With(zap.Int64(logging.FieldUserID, user.ID)))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Package handlers provides HTTP handlers for the recipebox REST API.
//
// Bodies are bare JSON objects. Errors are {"detail": ..., "request_id": ...}
// where detail is a message, or a list of validation items for 422.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/api/middleware"
	"github.com/yaroslav/recipebox/models"
)

var validatorOnce sync.Once

// ConfigureValidator makes gin's validator report JSON field names instead
// of Go struct field names.
func ConfigureValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// respondError sends a {"detail": ...} error response.
func respondError(c *gin.Context, statusCode int, detail interface{}) {
	c.JSON(statusCode, models.ErrorResponse{
		Detail:    detail,
		RequestID: middleware.GetRequestID(c),
	})
}

// respondValidation sends 422 with one item per invalid field.
func respondValidation(c *gin.Context, items ...models.ValidationItem) {
	respondError(c, http.StatusUnprocessableEntity, items)
}

// respondBindError converts a ShouldBind* failure into a 422 response.
func respondBindError(c *gin.Context, err error) {
	respondValidation(c, validationItems(err)...)
}

// validationItems describes a binding error as validation items located in
// the request body.
func validationItems(err error) []models.ValidationItem {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		items := make([]models.ValidationItem, 0, len(verrs))
		for _, fe := range verrs {
			items = append(items, fieldErrorItem(fe))
		}
		return items
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []models.ValidationItem{{
			Loc:  []string{"body", typeErr.Field},
			Msg:  fmt.Sprintf("value is not a valid %s", typeErr.Type.Kind()),
			Type: "type_error",
		}}
	}

	if errors.Is(err, io.EOF) {
		return []models.ValidationItem{{
			Loc:  []string{"body"},
			Msg:  "field required",
			Type: "value_error.missing",
		}}
	}

	return []models.ValidationItem{{
		Loc:  []string{"body"},
		Msg:  "invalid JSON body",
		Type: "value_error.jsondecode",
	}}
}

func fieldErrorItem(fe validator.FieldError) models.ValidationItem {
	item := models.ValidationItem{Loc: []string{"body", fe.Field()}}

	switch fe.Tag() {
	case "required":
		item.Msg = "field required"
		item.Type = "value_error.missing"
	case "email":
		item.Msg = "value is not a valid email address"
		item.Type = "value_error.email"
	case "min":
		item.Msg = fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		item.Type = "value_error.any_str.min_length"
	case "max":
		item.Msg = fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		item.Type = "value_error.any_str.max_length"
	default:
		item.Msg = "invalid value"
		item.Type = "value_error"
	}
	return item
}

// parseID reads an integer path parameter, answering 422 when it is not one.
func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		respondValidation(c, models.ValidationItem{
			Loc:  []string{"path", param},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		})
		return 0, false
	}
	return id, true
}

// mapErrorToResponse converts a models package error to an HTTP response.
//
// The detail is always the sentinel's own message, so wrapping context added
// by services never reaches the client. Anything unknown is logged with the
// request logger and reported as a generic 500.
func mapErrorToResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		respondError(c, http.StatusNotFound, models.ErrUserNotFound.Error())

	case errors.Is(err, models.ErrRecipeNotFound):
		respondError(c, http.StatusNotFound, models.ErrRecipeNotFound.Error())

	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, models.ErrUnauthorized.Error())

	case errors.Is(err, models.ErrAuthenticationRequired):
		respondError(c, http.StatusUnauthorized, models.ErrAuthenticationRequired.Error())

	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, models.ErrForbidden.Error())

	case errors.Is(err, models.ErrInvalidCredentials):
		respondError(c, http.StatusBadRequest, models.ErrInvalidCredentials.Error())

	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, models.ErrInvalidRequest.Error())

	case errors.Is(err, models.ErrEmailExists):
		respondError(c, http.StatusBadRequest, models.ErrEmailExists.Error())

	case errors.Is(err, models.ErrPasswordTooShort):
		respondValidation(c, models.ValidationItem{
			Loc:  []string{"body", "password"},
			Msg:  fmt.Sprintf("ensure this value has at least %d characters", models.MinPasswordLength),
			Type: "value_error.any_str.min_length",
		})

	case errors.Is(err, models.ErrPasswordTooLong):
		respondValidation(c, models.ValidationItem{
			Loc:  []string{"body", "password"},
			Msg:  fmt.Sprintf("ensure this value has at most %d bytes", models.MaxPasswordLength),
			Type: "value_error.any_str.max_length",
		})

	case errors.Is(err, models.ErrInvalidImage):
		respondValidation(c, models.ValidationItem{
			Loc:  []string{"body", "image"},
			Msg:  models.ErrInvalidImage.Error(),
			Type: "value_error.image",
		})

	case errors.Is(err, models.ErrPayloadTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Payload exceeds size limit")

	default:
		middleware.GetLogger(c).Error("request failed", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "An internal error occurred")
	}
}

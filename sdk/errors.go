package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common SDK errors that clients can check for specific error handling.
var (
	// ErrInvalidConfig indicates the client configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrMissingAuth indicates an authenticated call was made before Login.
	ErrMissingAuth = errors.New("missing access token")

	// ErrBadRequest indicates the server rejected the request (400), e.g.
	// invalid credentials or an invalid recipe payload.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates the access token is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user may not perform this operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrPayloadTooLarge indicates an upload exceeded the server limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrValidation indicates field-level validation failed (422).
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the request was rate limited by the server.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrServerError indicates an internal server error occurred.
	ErrServerError = errors.New("server error")

	// ErrNotReady indicates the readiness probe did not succeed.
	ErrNotReady = errors.New("service not ready")

	// ErrUnexpectedStatus indicates a status code the SDK does not map.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// APIError is a non-2xx response from the server.
//
// It unwraps to the sentinel matching its status code, so callers can use
// errors.Is(err, sdk.ErrNotFound).
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Detail is the server message, empty for validation failures.
	Detail string

	// Items lists the invalid fields of a 422 response.
	Items []ValidationItem

	// RequestID is the server-side request ID, useful when reporting issues.
	RequestID string
}

// Error implements error.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.Items) > 0 {
		parts := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(item.Loc, "."), item.Msg))
		}
		msg = strings.Join(parts, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, msg)
}

// Unwrap returns the sentinel error for the status code.
func (e *APIError) Unwrap() error {
	return statusError(e.StatusCode)
}

func statusError(code int) error {
	switch {
	case code == http.StatusBadRequest:
		return ErrBadRequest
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrServerError
	default:
		return ErrUnexpectedStatus
	}
}

// rawDetail accepts both shapes of the "detail" field.
type rawDetail struct {
	message string
	items   []ValidationItem
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *rawDetail) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &d.message)
	case '[':
		return json.Unmarshal(trimmed, &d.items)
	default:
		return nil
	}
}

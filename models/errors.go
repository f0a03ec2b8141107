package models

import "errors"

// Common error types used throughout the recipebox application.
// These errors provide semantic meaning and enable consistent error handling
// across different layers (API, service, database).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	// HTTP equivalent: 404 Not Found
	ErrUserNotFound = errors.New("User not found")

	// ErrRecipeNotFound indicates the requested recipe does not exist or is
	// owned by another user.
	// HTTP equivalent: 404 Not Found
	ErrRecipeNotFound = errors.New("Recipe not found")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	// HTTP equivalent: 401 Unauthorized
	ErrUnauthorized = errors.New("Unauthorized")

	// ErrAuthenticationRequired indicates an endpoint was called without a user.
	// HTTP equivalent: 401 Unauthorized
	ErrAuthenticationRequired = errors.New("Authentication required")

	// ErrInvalidToken indicates the access token is malformed, expired or
	// signed with the wrong key. It is always reported together with
	// ErrUnauthorized.
	ErrInvalidToken = errors.New("invalid access token")

	// ErrInvalidCredentials indicates the email/password pair did not match an
	// active user.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrForbidden indicates the authenticated user lacks permission for this operation.
	// HTTP equivalent: 403 Forbidden
	ErrForbidden = errors.New("You do not have permission to perform this action")

	// ErrInvalidRequest indicates the request body or parameters are invalid.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidRequest = errors.New("Invalid payload")

	// ErrPasswordTooShort indicates the password is shorter than MinPasswordLength.
	// HTTP equivalent: 422 Unprocessable Entity
	ErrPasswordTooShort = errors.New("password must be at least 5 characters")

	// ErrPasswordTooLong indicates the password exceeds MaxPasswordLength bytes.
	// HTTP equivalent: 422 Unprocessable Entity
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

	// ErrEmailExists indicates a user with this email already exists.
	// HTTP equivalent: 400 Bad Request
	ErrEmailExists = errors.New("User with this email already exists.")

	// ErrInvalidImage indicates the uploaded file is not a supported image.
	// HTTP equivalent: 422 Unprocessable Entity
	ErrInvalidImage = errors.New("Upload a valid image")

	// ErrPayloadTooLarge indicates the request body exceeds size limits.
	// HTTP equivalent: 413 Payload Too Large
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRateLimitExceeded indicates too many requests from this client.
	// HTTP equivalent: 429 Too Many Requests
	ErrRateLimitExceeded = errors.New("Rate limit exceeded")

	// ErrDatabaseUnavailable indicates the database could not be reached in
	// time. Returned by wait-for-db.
	ErrDatabaseUnavailable = errors.New("database unavailable")
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	// Detail is either a human-readable message or a list of ValidationItem.
	Detail interface{} `json:"detail"`

	// RequestID is the unique request ID for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// ValidationItem describes a single invalid field in a 422 response.
type ValidationItem struct {
	// Loc is the location of the field, e.g. ["body", "password"].
	Loc []string `json:"loc"`

	// Msg is a human-readable explanation.
	Msg string `json:"msg"`

	// Type is the failed rule (e.g. "min", "required", "email").
	Type string `json:"type"`
}

// HealthResponse represents the response for the core health endpoint.
type HealthResponse struct {
	Healthy bool `json:"healthy"`
}

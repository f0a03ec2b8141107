// Package logging provides structured logging utilities for the recipebox server.
package logging

// Field names shared by request logs and service logs.
const (
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration"
	FieldRemoteAddr = "remote_addr"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"

	// FieldUserID is the authenticated user, or the user a command acted on.
	FieldUserID = "user_id"

	// FieldRecipeID is the recipe being read or changed.
	FieldRecipeID = "recipe_id"

	// FieldImagePath is a media path relative to the media root.
	FieldImagePath = "image_path"

	FieldDBDriver   = "db_driver"
	FieldInstanceID = "instance_id"
)

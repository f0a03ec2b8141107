package models

import "time"

const (
	// MinPasswordLength is the shortest password accepted on create and update.
	MinPasswordLength = 5

	// MaxPasswordLength is the longest password bcrypt can hash, in bytes.
	MaxPasswordLength = 72
)

// User represents an account that can authenticate against the API.
// Users are identified by their normalized email address.
type User struct {
	// ID is the auto-incremented primary key
	ID int64 `json:"id" db:"id"`

	// Email is the login identifier, unique after normalization
	// (surrounding whitespace trimmed, domain part lower-cased)
	Email string `json:"email" db:"email"`

	// Name is the display name
	Name string `json:"name" db:"name"`

	// PasswordHash is the bcrypt hash of the password
	// Never returned in API responses
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive indicates whether the user may authenticate
	// Inactive users cannot obtain or use tokens
	IsActive bool `json:"is_active" db:"is_active"`

	// IsStaff indicates whether the user may manage other users
	IsStaff bool `json:"is_staff" db:"is_staff"`

	// CreatedAt is the timestamp when this user was created
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp when this user was last modified
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserCreateRequest represents the request body for registering a user.
type UserCreateRequest struct {
	// Email is the login identifier (required, must be a valid address)
	Email string `json:"email" binding:"required,email,max=255"`

	// Password is the plaintext password (required, 5 to 72 characters)
	Password string `json:"password" binding:"required,min=5,max=72"`

	// Name is the display name (required)
	Name string `json:"name" binding:"required,max=255"`
}

// UserOut is the public representation of a user.
type UserOut struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserUpdateRequest represents the request body for changing a user's name.
type UserUpdateRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// UserPasswordUpdateRequest represents the request body for changing a password.
type UserPasswordUpdateRequest struct {
	Password string `json:"password" binding:"required,min=5,max=72"`
}

// TokenCreateRequest represents the credentials posted to obtain a token.
//
// Fields carry no binding rules: any missing or blank value is reported as
// invalid credentials rather than a validation error.
type TokenCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenOut represents an issued access token.
type TokenOut struct {
	// Access is the signed JWT to send as "Authorization: Bearer <access>"
	Access string `json:"access"`
}

// Out converts the user to its public representation.
func (u *User) Out() UserOut {
	return UserOut{Email: u.Email, Name: u.Name}
}

package models

import (
	"math"
	"time"
)

const (
	// MaxRecipePriceCents is the highest storable price (999.99).
	MaxRecipePriceCents = 99999

	// MaxTitleLength is the maximum length of a recipe title or link.
	MaxTitleLength = 255

	// MaxTimeMinutes keeps time_minutes within a 32-bit INTEGER column.
	MaxTimeMinutes = math.MaxInt32
)

// Recipe represents a recipe owned by a single user.
type Recipe struct {
	// ID is the auto-incremented primary key
	ID int64 `json:"id" db:"id"`

	// UserID is the owning user
	// Recipes are only visible to their owner
	UserID int64 `json:"-" db:"user_id"`

	// Title is the recipe name (1-255 characters)
	Title string `json:"title" db:"title"`

	// TimeMinutes is the preparation time, never negative
	TimeMinutes int `json:"time_minutes" db:"time_minutes"`

	// PriceCents is the price in cents (0-99999)
	PriceCents int64 `json:"-" db:"price_cents"`

	// Description is free text, empty by default
	Description string `json:"description" db:"description"`

	// Link is an optional external URL
	Link string `json:"link" db:"link"`

	// Image is the media-relative path of the uploaded image, empty if none
	Image string `json:"-" db:"image"`

	// CreatedAt is the timestamp when this recipe was created
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is the timestamp when this recipe was last modified
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// RecipeCreateRequest represents the request body for creating a recipe.
//
// A missing field is a 422. Range checks and an empty title happen in the
// service and report as a 400 "Invalid payload".
type RecipeCreateRequest struct {
	Title       *string  `json:"title" binding:"required,max=255"`
	TimeMinutes *int     `json:"time_minutes" binding:"required"`
	Price       *float64 `json:"price" binding:"required"`
	Description string   `json:"description"`
	Link        string   `json:"link" binding:"max=255"`
}

// RecipeUpdateRequest represents a partial update. Nil fields are left unchanged.
type RecipeUpdateRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=255"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Link        *string  `json:"link" binding:"omitempty,max=255"`
}

// RecipeOut is the public representation of a recipe.
type RecipeOut struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Link        string  `json:"link"`
}

// RecipeDetailOut extends RecipeOut with the image URL when one is stored.
type RecipeDetailOut struct {
	RecipeOut
	Image string `json:"image,omitempty"`
}

// RecipeImageOut is returned after a successful image upload.
type RecipeImageOut struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// Out converts the recipe to its public representation.
func (r *Recipe) Out() RecipeOut {
	return RecipeOut{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       CentsToPrice(r.PriceCents),
		Description: r.Description,
		Link:        r.Link,
	}
}

// PriceToCents converts a decimal price to cents, rounding half away from zero.
func PriceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CentsToPrice converts cents back to a decimal price.
func CentsToPrice(cents int64) float64 {
	return float64(cents) / 100
}

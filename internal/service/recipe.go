package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/metrics"
	"github.com/yaroslav/recipebox/internal/storage"
	"github.com/yaroslav/recipebox/internal/util"
	"github.com/yaroslav/recipebox/models"
)

const recipeColumns = `id, user_id, title, time_minutes, price_cents, description, link, image, created_at, updated_at`

// ImageStore persists uploaded recipe images.
type ImageStore interface {
	SaveRecipeImage(r io.Reader) (string, error)
	RemoveQuietly(rel string)
}

// RecipeService provides recipe CRUD scoped to the owning user.
//
// A recipe owned by someone else is reported as models.ErrRecipeNotFound,
// never as forbidden.
type RecipeService struct {
	db     *storage.DB
	logger *zap.Logger
	images ImageStore
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(db *storage.DB, logger *zap.Logger, images ImageStore) *RecipeService {
	return &RecipeService{
		db:     db,
		logger: logger,
		images: images,
	}
}

// List returns the user's recipes ordered by ID.
func (s *RecipeService) List(ctx context.Context, userID int64) ([]models.Recipe, error) {
	rows, err := s.db.Query(ctx, "recipe_list",
		`SELECT `+recipeColumns+` FROM recipes WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var r models.Recipe
		if err := rows.Scan(recipeDest(&r)...); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

// Create stores a new recipe for userID.
//
// Returns models.ErrInvalidRequest for an empty title, a time outside
// 0..MaxTimeMinutes or a price outside 0..999.99.
func (s *RecipeService) Create(ctx context.Context, userID int64, req *models.RecipeCreateRequest) (recipe *models.Recipe, err error) {
	defer func() { recordRecipeOp("create", err) }()

	if req.Title == nil || req.TimeMinutes == nil || req.Price == nil {
		return nil, models.ErrInvalidRequest
	}

	now := time.Now().UTC()
	recipe = &models.Recipe{
		UserID:      userID,
		Title:       *req.Title,
		TimeMinutes: *req.TimeMinutes,
		PriceCents:  models.PriceToCents(*req.Price),
		Description: req.Description,
		Link:        req.Link,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateRecipe(recipe, *req.Price); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx, "recipe_create", `
		INSERT INTO recipes (user_id, title, time_minutes, price_cents, description, link, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', ?, ?)
		RETURNING id`,
		[]any{recipe.UserID, recipe.Title, recipe.TimeMinutes, recipe.PriceCents, recipe.Description, recipe.Link, now, now},
		&recipe.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}

	s.log(ctx).Info("recipe created",
		zap.Int64(logging.FieldRecipeID, recipe.ID),
		zap.Int64(logging.FieldUserID, userID),
	)
	return recipe, nil
}

// Get returns one of the user's recipes.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	var r models.Recipe
	err := s.db.QueryRow(ctx, "recipe_get",
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		[]any{id, userID}, recipeDest(&r)...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	return &r, nil
}

// Update applies the non-nil fields of req to one of the user's recipes.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, req *models.RecipeUpdateRequest) (recipe *models.Recipe, err error) {
	defer func() { recordRecipeOp("update", err) }()

	recipe, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	price := models.CentsToPrice(recipe.PriceCents)
	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		price = *req.Price
		recipe.PriceCents = models.PriceToCents(price)
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if err := validateRecipe(recipe, price); err != nil {
		return nil, err
	}

	recipe.UpdatedAt = time.Now().UTC()
	result, err := s.db.Exec(ctx, "recipe_update", `
		UPDATE recipes
		SET title = ?, time_minutes = ?, price_cents = ?, description = ?, link = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		recipe.Title, recipe.TimeMinutes, recipe.PriceCents, recipe.Description, recipe.Link, recipe.UpdatedAt,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrRecipeNotFound
	}

	s.log(ctx).Info("recipe updated", zap.Int64(logging.FieldRecipeID, id), zap.Int64(logging.FieldUserID, userID))
	return recipe, nil
}

// Delete removes one of the user's recipes and its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) (err error) {
	defer func() { recordRecipeOp("delete", err) }()

	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, "recipe_delete", `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrRecipeNotFound
	}

	if recipe.Image != "" {
		s.images.RemoveQuietly(recipe.Image)
	}

	s.log(ctx).Info("recipe deleted", zap.Int64(logging.FieldRecipeID, id), zap.Int64(logging.FieldUserID, userID))
	return nil
}

// SetImage stores the uploaded image for one of the user's recipes and
// removes the image it replaces.
func (s *RecipeService) SetImage(ctx context.Context, userID, id int64, image io.Reader) (recipe *models.Recipe, err error) {
	defer func() { metrics.ImageUploads.WithLabelValues(imageStatus(err)).Inc() }()

	recipe, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rel, err := s.images.SaveRecipeImage(image)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(ctx, "recipe_set_image",
		`UPDATE recipes SET image = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		rel, now, id, userID); err != nil {
		s.images.RemoveQuietly(rel)
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	previous := recipe.Image
	recipe.Image = rel
	recipe.UpdatedAt = now
	if previous != "" && previous != rel {
		s.images.RemoveQuietly(previous)
	}

	s.log(ctx).Info("recipe image uploaded",
		zap.Int64(logging.FieldRecipeID, id),
		zap.Int64(logging.FieldUserID, userID),
		zap.String(logging.FieldImagePath, rel),
	)
	return recipe, nil
}

func recipeDest(r *models.Recipe) []any {
	return []any{
		&r.ID, &r.UserID, &r.Title, &r.TimeMinutes, &r.PriceCents,
		&r.Description, &r.Link, &r.Image, &r.CreatedAt, &r.UpdatedAt,
	}
}

// validateRecipe checks field ranges. price is the caller's decimal value,
// checked before rounding so that -0.001 is rejected.
func validateRecipe(r *models.Recipe, price float64) error {
	if err := util.ValidateTitle(r.Title, models.MaxTitleLength); err != nil {
		return models.ErrInvalidRequest
	}
	if r.TimeMinutes < 0 || r.TimeMinutes > models.MaxTimeMinutes {
		return models.ErrInvalidRequest
	}
	if price < 0 || r.PriceCents < 0 || r.PriceCents > models.MaxRecipePriceCents {
		return models.ErrInvalidRequest
	}
	if err := util.ValidateLink(r.Link); err != nil {
		return models.ErrInvalidRequest
	}
	return nil
}

func recordRecipeOp(op string, err error) {
	metrics.RecipeOperations.WithLabelValues(op, metrics.StatusLabel(err)).Inc()
}

func imageStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrInvalidImage):
		return "invalid"
	case errors.Is(err, models.ErrPayloadTooLarge):
		return "too_large"
	default:
		return "error"
	}
}

// log returns the request-scoped logger carried by ctx, if any.
func (s *RecipeService) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}

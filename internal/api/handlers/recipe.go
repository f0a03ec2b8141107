package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaroslav/recipebox/internal/api/middleware"
	"github.com/yaroslav/recipebox/internal/media"
	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/models"
)

// multipartOverhead is allowed on top of the image limit for multipart
// boundaries and headers.
const multipartOverhead = 64 << 10

// RecipeHandler handles the /api/recipe endpoints. Every route requires an
// authenticated user and only sees that user's recipes.
type RecipeHandler struct {
	recipes        *service.RecipeService
	maxUploadBytes int64
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(recipes *service.RecipeService, maxUploadBytes int64) *RecipeHandler {
	return &RecipeHandler{
		recipes:        recipes,
		maxUploadBytes: maxUploadBytes,
	}
}

// ListRecipes handles GET /api/recipe/recipes.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	user := middleware.GetUser(c)

	recipes, err := h.recipes.List(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	out := make([]models.RecipeOut, 0, len(recipes))
	for i := range recipes {
		out = append(out, recipes[i].Out())
	}
	c.JSON(http.StatusOK, out)
}

// CreateRecipe handles POST /api/recipe/recipes.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req models.RecipeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), middleware.GetUser(c).ID, &req)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe.Out())
}

// GetRecipe handles GET /api/recipe/:recipe_id.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), middleware.GetUser(c).ID, id)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RecipeDetailOut{
		RecipeOut: recipe.Out(),
		Image:     media.URL(recipe.Image),
	})
}

// UpdateRecipe handles PATCH /api/recipe/:recipe_id.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	var req models.RecipeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), middleware.GetUser(c).ID, id, &req)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe.Out())
}

// DeleteRecipe handles DELETE /api/recipe/:recipe_id. The body is JSON null.
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.GetUser(c).ID, id); err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, nil)
}

// UploadImage handles POST /api/recipe/:recipe_id/upload-image with a
// multipart field named "image".
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	id, ok := parseID(c, "recipe_id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			mapErrorToResponse(c, models.ErrPayloadTooLarge)
			return
		}
		respondValidation(c, models.ValidationItem{
			Loc:  []string{"body", "image"},
			Msg:  "field required",
			Type: "value_error.missing",
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	defer file.Close()

	recipe, err := h.recipes.SetImage(c.Request.Context(), middleware.GetUser(c).ID, id, file)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RecipeImageOut{
		ID:    recipe.ID,
		Image: media.URL(recipe.Image),
	})
}

package sdk

// User is the public view of an account.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateUserRequest registers a new user.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Recipe is a recipe owned by the logged-in user.
type Recipe struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Link        string  `json:"link"`
}

// RecipeDetail is a recipe with its image URL, as returned by GetRecipe.
type RecipeDetail struct {
	Recipe

	// Image is the image URL path, empty when no image was uploaded.
	Image string `json:"image,omitempty"`
}

// RecipeImage is the result of an image upload.
type RecipeImage struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// CreateRecipeRequest creates a recipe. Title, TimeMinutes and Price are
// required by the server.
type CreateRecipeRequest struct {
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Link        string  `json:"link,omitempty"`
}

// UpdateRecipeRequest changes only the non-nil fields.
type UpdateRecipeRequest struct {
	Title       *string  `json:"title,omitempty"`
	TimeMinutes *int     `json:"time_minutes,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Link        *string  `json:"link,omitempty"`
}

// HealthStatus is the liveness probe response.
type HealthStatus struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id,omitempty"`
}

// ValidationItem describes one invalid field of a 422 response.
type ValidationItem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// errorResponse is the server error body. Detail is a string or a list of
// validation items.
type errorResponse struct {
	Detail    rawDetail `json:"detail"`
	RequestID string    `json:"request_id"`
}

type tokenResponse struct {
	Access string `json:"access"`
}

// Package sdk is a Go client for the recipebox HTTP API.
//
// A Client logs in once and keeps the access token for the user and recipe
// calls that follow. 429 responses and failed dials are retried with
// exponential backoff, and so are other network errors and 5xx responses
// for every method except POST. Failed calls return errors wrapping an *APIError,
// which unwraps to one of the package sentinels:
//
//	client, err := sdk.NewClient(sdk.ClientConfig{BaseURL: "http://localhost:8000"})
//	if err != nil {
//	    return err
//	}
//	if _, err := client.Login(ctx, "me@example.com", "secret"); err != nil {
//	    return err
//	}
//	recipe, err := client.GetRecipe(ctx, 42)
//	if errors.Is(err, sdk.ErrNotFound) {
//	    // not ours, or deleted
//	}
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"
)

// Client is the main SDK client for interacting with a recipebox server.
type Client struct {
	// BaseURL is the server URL without a trailing slash.
	BaseURL string

	// HTTPClient is the HTTP client used for requests.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry failed requests.
	RetryAttempts int

	// RetryWaitMin is the minimum wait time between retries.
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	RetryWaitMax time.Duration

	// accessToken is the JWT sent on authenticated calls (protected by mutex).
	accessToken string

	// mu protects concurrent access to accessToken.
	mu sync.RWMutex
}

// NewClient creates a new SDK client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		BaseURL:       config.BaseURL,
		HTTPClient:    config.HTTPClient,
		RetryAttempts: config.RetryAttempts,
		RetryWaitMin:  config.RetryWaitMin,
		RetryWaitMax:  config.RetryWaitMax,
		accessToken:   config.AccessToken,
	}, nil
}

// doRequest performs an HTTP request with retries. body may be nil.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body []byte, authType AuthType) (*http.Response, error) {
	fullURL := c.BaseURL + path

	return c.doRequestWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, err
		}
		if err := c.addAuthHeaders(req, authType); err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}

// parseJSONResponse parses a JSON response body into the provided destination.
func (c *Client) parseJSONResponse(resp *http.Response, dest interface{}) error {
	defer drainAndCloseBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return nil
}

// parseErrorResponse converts a non-2xx response into an *APIError.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body errorResponse
	if err := c.parseJSONResponse(resp, &body); err == nil {
		apiErr.Detail = body.Detail.message
		apiErr.Items = body.Detail.items
		apiErr.RequestID = body.RequestID
	}

	return apiErr
}

// doJSONRequest is a convenience method that performs a request with JSON body and parses the JSON response.
func (c *Client) doJSONRequest(ctx context.Context, method, path string, reqBody, respBody interface{}, authType AuthType) error {
	var (
		body        []byte
		contentType string
	)
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = jsonData
		contentType = "application/json"
	}

	resp, err := c.doRequest(ctx, method, path, contentType, body, authType)
	if err != nil {
		return err
	}
	return c.handleResponse(resp, respBody)
}

// handleResponse checks the status code and decodes a successful body into
// respBody when it is non-nil.
func (c *Client) handleResponse(resp *http.Response, respBody interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(resp)
	}

	if respBody != nil {
		return c.parseJSONResponse(resp, respBody)
	}

	drainAndCloseBody(resp)
	return nil
}

// ============================================================================
// Health
// ============================================================================

// Ready calls the readiness probe. It returns nil when the server can reach
// its database, and an error wrapping ErrNotReady otherwise.
func (c *Client) Ready(ctx context.Context) error {
	if err := c.doJSONRequest(ctx, http.MethodGet, "/health/ready", nil, nil, AuthTypeNone); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

// Live calls the liveness probe.
func (c *Client) Live(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doJSONRequest(ctx, http.MethodGet, "/health/live", nil, &status, AuthTypeNone); err != nil {
		return nil, fmt.Errorf("failed to check liveness: %w", err)
	}
	return &status, nil
}

// ============================================================================
// User Methods
// ============================================================================

// CreateUser registers a new user. It does not log in.
//
// Returns an error wrapping ErrBadRequest when the email is taken, or
// ErrValidation for missing fields, a malformed email or a short password.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/user/users", req, &user, AuthTypeNone); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/user/me", nil, &user, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &user, nil
}

// ListUsers returns all users ordered by id.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/user/users", nil, &users, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserName renames a user. Only the user itself or staff may do this.
func (c *Client) UpdateUserName(ctx context.Context, userID int64, name string) (*User, error) {
	path := fmt.Sprintf("/api/user/users/%d", userID)
	reqBody := map[string]string{"name": name}

	var user User
	if err := c.doJSONRequest(ctx, http.MethodPatch, path, reqBody, &user, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to update user name: %w", err)
	}
	return &user, nil
}

// UpdateUserPassword changes a user's password. Only the user itself or
// staff may do this.
func (c *Client) UpdateUserPassword(ctx context.Context, userID int64, password string) (*User, error) {
	path := fmt.Sprintf("/api/user/users/%d/password", userID)
	reqBody := map[string]string{"password": password}

	var user User
	if err := c.doJSONRequest(ctx, http.MethodPatch, path, reqBody, &user, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to update user password: %w", err)
	}
	return &user, nil
}

// ============================================================================
// Recipe Methods
// ============================================================================

// ListRecipes returns the logged-in user's recipes ordered by id.
func (c *Client) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	if err := c.doJSONRequest(ctx, http.MethodGet, "/api/recipe/recipes", nil, &recipes, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// CreateRecipe creates a recipe owned by the logged-in user.
func (c *Client) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*Recipe, error) {
	var recipe Recipe
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/recipe/recipes", req, &recipe, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return &recipe, nil
}

// GetRecipe returns one recipe with its image URL. Recipes of other users
// are reported as ErrNotFound.
func (c *Client) GetRecipe(ctx context.Context, recipeID int64) (*RecipeDetail, error) {
	path := fmt.Sprintf("/api/recipe/%d", recipeID)

	var recipe RecipeDetail
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &recipe, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// UpdateRecipe changes the non-nil fields of a recipe.
func (c *Client) UpdateRecipe(ctx context.Context, recipeID int64, req UpdateRecipeRequest) (*Recipe, error) {
	path := fmt.Sprintf("/api/recipe/%d", recipeID)

	var recipe Recipe
	if err := c.doJSONRequest(ctx, http.MethodPatch, path, req, &recipe, AuthTypeBearer); err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return &recipe, nil
}

// DeleteRecipe removes a recipe and its image.
func (c *Client) DeleteRecipe(ctx context.Context, recipeID int64) error {
	path := fmt.Sprintf("/api/recipe/%d", recipeID)

	if err := c.doJSONRequest(ctx, http.MethodDelete, path, nil, nil, AuthTypeBearer); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// UploadImage attaches a JPEG, PNG or GIF image to a recipe, replacing any
// previous one. The image is read fully so the upload can be retried.
//
// Returns an error wrapping ErrValidation when the file is not a supported
// image, or ErrPayloadTooLarge when it exceeds the server limit.
func (c *Client) UploadImage(ctx context.Context, recipeID int64, filename string, image io.Reader) (*RecipeImage, error) {
	path := fmt.Sprintf("/api/recipe/%d/upload-image", recipeID)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, writer.FormDataContentType(), buf.Bytes(), AuthTypeBearer)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	var out RecipeImage
	if err := c.handleResponse(resp, &out); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	return &out, nil
}

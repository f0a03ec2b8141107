package sdk

import (
	"context"
	"fmt"
	"net/http"
)

// Authentication header constants matching the server expectations.
const (
	// HeaderAuthorization carries the access token.
	HeaderAuthorization = "Authorization"

	// BearerPrefix precedes the token in HeaderAuthorization.
	BearerPrefix = "Bearer "
)

// AuthType represents the type of authentication to use for a request.
type AuthType int

const (
	// AuthTypeNone indicates no authentication headers should be added.
	AuthTypeNone AuthType = iota

	// AuthTypeBearer indicates the stored access token must be sent.
	AuthTypeBearer
)

// Login exchanges email and password for an access token and stores it for
// subsequent calls. Bad credentials return an error wrapping ErrBadRequest.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	reqBody := map[string]string{
		"email":    email,
		"password": password,
	}

	var out tokenResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/user/token", reqBody, &out, AuthTypeNone); err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}

	c.SetAccessToken(out.Access)
	return out.Access, nil
}

// SetAccessToken replaces the stored access token.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// AccessToken returns the stored access token.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// addAuthHeaders adds the appropriate authentication headers to the request based on the auth type.
// Returns an error if the required credentials are not available.
func (c *Client) addAuthHeaders(req *http.Request, authType AuthType) error {
	switch authType {
	case AuthTypeBearer:
		token := c.AccessToken()
		if token == "" {
			return ErrMissingAuth
		}
		req.Header.Set(HeaderAuthorization, BearerPrefix+token)
	case AuthTypeNone:
		// No authentication required
	}

	return nil
}

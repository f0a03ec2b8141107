package sdk

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ClientConfig contains the configuration for creating a new SDK client.
type ClientConfig struct {
	// BaseURL is the recipebox server URL (e.g., "http://localhost:8000").
	BaseURL string

	// AccessToken is a JWT obtained earlier.
	// Optional: Login obtains and stores one.
	AccessToken string

	// HTTPClient is the HTTP client to use for requests.
	// Optional: if nil, a default client with reasonable timeouts will be created.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry failed requests.
	// Default: 3. A negative value disables retries.
	RetryAttempts int

	// RetryWaitMin is the minimum wait time between retries.
	// Default: 500 milliseconds
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	// Default: 10 seconds
	RetryWaitMax time.Duration

	// Timeout is the HTTP request timeout.
	// Default: 30 seconds
	Timeout time.Duration
}

// Validate checks if the client configuration is valid and sets defaults.
func (c *ClientConfig) Validate() error {
	url := strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if url == "" {
		return fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%w: base URL must start with http:// or https://", ErrInvalidConfig)
	}
	c.BaseURL = url

	switch {
	case c.RetryAttempts == 0:
		c.RetryAttempts = 3
	case c.RetryAttempts < 0:
		c.RetryAttempts = 0
	}

	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = 500 * time.Millisecond
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = 10 * time.Second
	}
	if c.RetryWaitMax < c.RetryWaitMin {
		return fmt.Errorf("%w: retry wait max must not be below retry wait min", ErrInvalidConfig)
	}

	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: c.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return nil
}

package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

// requestFactory builds a fresh request for every attempt, so bodies are
// never reused after being consumed.
type requestFactory func(ctx context.Context) (*http.Request, error)

// doRequestWithRetry performs an HTTP request with exponential backoff retry logic.
//
// Every request is retried on 429 and on connection failures that happen
// before the request is sent. Idempotent requests are also retried on other
// network errors and on 5xx responses. POST is not, since the server may have
// committed the first attempt. The last response is returned as is when all
// attempts fail with a status code.
func (c *Client) doRequestWithRetry(ctx context.Context, newRequest requestFactory) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.HTTPClient.Do(req)
		if attempt >= c.RetryAttempts || !shouldRetry(req.Method, resp, err) {
			if err != nil {
				return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			return resp, nil
		}

		wait := c.calculateBackoff(attempt)
		if err == nil {
			if retryAfter := parseRetryAfter(resp); retryAfter > wait {
				wait = min(retryAfter, c.RetryWaitMax)
			}
			drainAndCloseBody(resp)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func shouldRetry(method string, resp *http.Response, err error) bool {
	if err != nil {
		return isIdempotent(method) || notSent(err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode >= 500 && isIdempotent(method)
}

// isIdempotent reports whether repeating a request has no further effect.
// The API's PATCH endpoints set field values, so they qualify.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// notSent reports whether err happened while dialing, before any request
// bytes reached the server.
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// calculateBackoff calculates the backoff duration for a retry attempt.
// It uses exponential backoff with jitter, never below RetryWaitMin.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: min * (2 ^ attempt)
	backoff := float64(c.RetryWaitMin) * math.Pow(2, float64(attempt))

	// Cap at maximum wait time
	if backoff > float64(c.RetryWaitMax) {
		backoff = float64(c.RetryWaitMax)
	}

	// Jitter in [min, backoff]
	minWait := float64(c.RetryWaitMin)
	jitter := minWait + rand.Float64()*(backoff-minWait)

	return time.Duration(jitter)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// drainAndCloseBody reads and closes the response body to ensure connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

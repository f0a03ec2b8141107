// Package ratelimit implements keyed token bucket limiting for abuse-prone
// endpoints: failed logins, registrations and image uploads.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// LimitType represents the type of rate limit to apply.
type LimitType string

const (
	// LimitTypeAuthFailure is for failed login attempts per client IP.
	LimitTypeAuthFailure LimitType = "auth_failure"

	// LimitTypeRegistration is for account sign-ups per client IP.
	LimitTypeRegistration LimitType = "registration"

	// LimitTypeImageUpload is for recipe image uploads per user.
	LimitTypeImageUpload LimitType = "image_upload"
)

// Config holds the rate limiting configuration.
type Config struct {
	// AuthFailuresPerMin is the number of failed logins allowed per minute per IP.
	AuthFailuresPerMin int

	// RegistrationsPerMin is the number of sign-ups allowed per minute per IP.
	RegistrationsPerMin int

	// ImageUploadsPerMin is the number of image uploads allowed per minute per user.
	ImageUploadsPerMin int
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		AuthFailuresPerMin:  10,
		RegistrationsPerMin: 20,
		ImageUploadsPerMin:  30,
	}
}

// Limiter implements token bucket rate limiting with support for multiple limit types.
type Limiter struct {
	storage *Storage
	config  Config
	mu      sync.Mutex

	// now is overridable in tests.
	now func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
// Call Stop to release the storage cleanup goroutine.
func NewLimiter(config Config) *Limiter {
	return newLimiter(config, DefaultCleanupInterval, DefaultBucketTTL)
}

func newLimiter(config Config, cleanupInterval, bucketTTL time.Duration) *Limiter {
	l := &Limiter{
		config: config,
		now:    time.Now,
	}
	l.storage = newStorage(cleanupInterval, bucketTTL, &l.mu)
	return l
}

// Allow consumes one token for key. It returns true if allowed, false if rate
// limited, and the number of seconds to wait.
func (l *Limiter) Allow(key string, limitType LimitType) (allowed bool, retryAfter int) {
	return l.take(key, limitType, true)
}

// Check reports whether a token is available for key without consuming it.
//
// The login flow checks first and only consumes on failure, so successful
// logins never count against the failure budget.
func (l *Limiter) Check(key string, limitType LimitType) (allowed bool, retryAfter int) {
	return l.take(key, limitType, false)
}

// Reset forgets the bucket for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.storage.Delete(key)
}

func (l *Limiter) take(key string, limitType LimitType, consume bool) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	bucket := l.storage.Get(key)
	if bucket == nil {
		bucket = l.createBucket(limitType, now)
		l.storage.Set(key, bucket)
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(bucket.LastRefill).Seconds()
	if elapsed > 0 {
		bucket.Tokens += elapsed * bucket.RefillRate
		if bucket.Tokens > bucket.Capacity {
			bucket.Tokens = bucket.Capacity
		}
		bucket.LastRefill = now
	}

	if bucket.Tokens >= 1.0 {
		if consume {
			bucket.Tokens -= 1.0
		}
		return true, 0
	}

	tokensNeeded := 1.0 - bucket.Tokens
	retrySeconds := int(tokensNeeded / bucket.RefillRate)
	if retrySeconds < 1 {
		retrySeconds = 1
	}

	return false, retrySeconds
}

// createBucket creates a new full token bucket based on the limit type.
func (l *Limiter) createBucket(limitType LimitType, now time.Time) *Bucket {
	var perMin int

	switch limitType {
	case LimitTypeAuthFailure:
		perMin = l.config.AuthFailuresPerMin
	case LimitTypeRegistration:
		perMin = l.config.RegistrationsPerMin
	case LimitTypeImageUpload:
		perMin = l.config.ImageUploadsPerMin
	}
	if perMin <= 0 {
		perMin = 1
	}

	capacity := float64(perMin)
	return &Bucket{
		Tokens:     capacity,
		LastRefill: now,
		Capacity:   capacity,
		RefillRate: capacity / 60.0,
	}
}

// BuildKey creates a rate limit key from identifier and limit type.
func BuildKey(identifier string, limitType LimitType) string {
	return fmt.Sprintf("%s:%s", limitType, identifier)
}

// Stop gracefully stops the limiter and cleans up resources.
func (l *Limiter) Stop() {
	l.storage.Stop()
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yaroslav/recipebox/internal/metrics"
	"github.com/yaroslav/recipebox/models"
)

// limitTypeRequest labels global per-IP request limiting in metrics.
const limitTypeRequest = "request"

// RateLimiter implements per-identifier token bucket rate limiting on top of
// golang.org/x/time/rate, with periodic cleanup of idle limiters.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRateLimiter creates a new rate limiter and starts its cleanup goroutine.
// Call Stop to release it.
//
// Parameters:
//   - rps: Requests per second allowed
//   - burst: Burst size (number of requests that can be made in quick succession)
//   - cleanup: How often to drop limiters that have refilled completely
func NewRateLimiter(rps float64, burst int, cleanup time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		stopCh:   make(chan struct{}),
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanup)

	return rl
}

func (rl *RateLimiter) getLimiter(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[identifier]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[identifier] = limiter
	}
	return limiter
}

// cleanupLoop periodically removes limiters that haven't been used recently.
func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for identifier, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, identifier)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Allow reports whether a request from identifier may proceed.
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.getLimiter(identifier).Allow()
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	rl.wg.Wait()
}

// ByIP returns middleware that rate limits requests by client IP address.
//
// Example:
//
//	limiter := NewRateLimiter(100, 200, time.Minute)
//	defer limiter.Stop()
//	router.Use(limiter.ByIP())
func (rl *RateLimiter) ByIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := rl.Allow(c.ClientIP())
		metrics.RecordRateLimit(limitTypeRequest, allowed)
		if !allowed {
			c.Header("Retry-After", "1")
			AbortWithDetail(c, http.StatusTooManyRequests, models.ErrRateLimitExceeded.Error())
			return
		}
		c.Next()
	}
}

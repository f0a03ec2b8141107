package ratelimit

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 3})
	key := BuildKey("10.0.0.1", LimitTypeAuthFailure)

	for i := 0; i < 3; i++ {
		allowed, retryAfter := l.Allow(key, LimitTypeAuthFailure)
		if !allowed {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
		if retryAfter != 0 {
			t.Errorf("attempt %d: retryAfter = %d, want 0", i+1, retryAfter)
		}
	}

	allowed, retryAfter := l.Allow(key, LimitTypeAuthFailure)
	if allowed {
		t.Fatal("fourth attempt should be rate limited")
	}
	if retryAfter < 1 {
		t.Errorf("retryAfter = %d, want >= 1", retryAfter)
	}
}

func TestLimiter_CheckDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 1})
	key := BuildKey("10.0.0.2", LimitTypeAuthFailure)

	for i := 0; i < 5; i++ {
		if allowed, _ := l.Check(key, LimitTypeAuthFailure); !allowed {
			t.Fatalf("check %d: expected allowed", i+1)
		}
	}

	if allowed, _ := l.Allow(key, LimitTypeAuthFailure); !allowed {
		t.Fatal("first Allow should succeed")
	}
	if allowed, _ := l.Check(key, LimitTypeAuthFailure); allowed {
		t.Fatal("Check should report exhausted bucket")
	}
}

func TestLimiter_TokenRefill(t *testing.T) {
	l, clock := newTestLimiter(t, Config{AuthFailuresPerMin: 60})
	key := BuildKey("10.0.0.3", LimitTypeAuthFailure)

	for i := 0; i < 60; i++ {
		l.Allow(key, LimitTypeAuthFailure)
	}
	if allowed, _ := l.Allow(key, LimitTypeAuthFailure); allowed {
		t.Fatal("bucket should be empty")
	}

	// 60 per minute refills one token per second.
	clock.Advance(time.Second)

	if allowed, _ := l.Allow(key, LimitTypeAuthFailure); !allowed {
		t.Fatal("expected a refilled token after one second")
	}
}

func TestLimiter_RefillCapsAtCapacity(t *testing.T) {
	l, clock := newTestLimiter(t, Config{RegistrationsPerMin: 2})
	key := BuildKey("10.0.0.4", LimitTypeRegistration)

	l.Allow(key, LimitTypeRegistration)
	clock.Advance(time.Hour)

	for i := 0; i < 2; i++ {
		if allowed, _ := l.Allow(key, LimitTypeRegistration); !allowed {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}
	if allowed, _ := l.Allow(key, LimitTypeRegistration); allowed {
		t.Fatal("bucket should not exceed capacity after a long idle period")
	}
}

func TestLimiter_DifferentLimitTypes(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 1, RegistrationsPerMin: 2, ImageUploadsPerMin: 3})

	tests := []struct {
		limitType LimitType
		want      int
	}{
		{LimitTypeAuthFailure, 1},
		{LimitTypeRegistration, 2},
		{LimitTypeImageUpload, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.limitType), func(t *testing.T) {
			key := BuildKey("client", tt.limitType)
			count := 0
			for i := 0; i < 10; i++ {
				if allowed, _ := l.Allow(key, tt.limitType); allowed {
					count++
				}
			}
			if count != tt.want {
				t.Errorf("allowed %d requests, want %d", count, tt.want)
			}
		})
	}
}

func TestLimiter_IndependentKeys(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 1})

	a := BuildKey("10.0.0.5", LimitTypeAuthFailure)
	b := BuildKey("10.0.0.6", LimitTypeAuthFailure)

	if allowed, _ := l.Allow(a, LimitTypeAuthFailure); !allowed {
		t.Fatal("first key should be allowed")
	}
	if allowed, _ := l.Allow(a, LimitTypeAuthFailure); allowed {
		t.Fatal("first key should be exhausted")
	}
	if allowed, _ := l.Allow(b, LimitTypeAuthFailure); !allowed {
		t.Fatal("second key should be unaffected")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 1})
	key := BuildKey("10.0.0.7", LimitTypeAuthFailure)

	l.Allow(key, LimitTypeAuthFailure)
	l.Reset(key)

	if allowed, _ := l.Allow(key, LimitTypeAuthFailure); !allowed {
		t.Fatal("reset key should start with a full bucket")
	}
}

func TestLimiter_RetryAfterCalculation(t *testing.T) {
	l, _ := newTestLimiter(t, Config{AuthFailuresPerMin: 6})
	key := BuildKey("10.0.0.8", LimitTypeAuthFailure)

	for i := 0; i < 6; i++ {
		l.Allow(key, LimitTypeAuthFailure)
	}

	// 6 per minute refills one token every 10 seconds.
	_, retryAfter := l.Allow(key, LimitTypeAuthFailure)
	if retryAfter != 10 {
		t.Errorf("retryAfter = %d, want 10", retryAfter)
	}
}

func TestLimiter_ZeroConfigStillLimits(t *testing.T) {
	l, _ := newTestLimiter(t, Config{})
	key := BuildKey("10.0.0.9", LimitTypeImageUpload)

	if allowed, _ := l.Allow(key, LimitTypeImageUpload); !allowed {
		t.Fatal("first attempt should be allowed")
	}
	if allowed, _ := l.Allow(key, LimitTypeImageUpload); allowed {
		t.Fatal("zero config falls back to one per minute")
	}
}

func TestBuildKey(t *testing.T) {
	if got := BuildKey("1.2.3.4", LimitTypeAuthFailure); got != "auth_failure:1.2.3.4" {
		t.Errorf("BuildKey = %q", got)
	}
	if got := BuildKey("42", LimitTypeImageUpload); got != "image_upload:42" {
		t.Errorf("BuildKey = %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.AuthFailuresPerMin != 10 {
		t.Errorf("AuthFailuresPerMin = %d, want 10", cfg.AuthFailuresPerMin)
	}
	if cfg.RegistrationsPerMin != 20 {
		t.Errorf("RegistrationsPerMin = %d, want 20", cfg.RegistrationsPerMin)
	}
	if cfg.ImageUploadsPerMin != 30 {
		t.Errorf("ImageUploadsPerMin = %d, want 30", cfg.ImageUploadsPerMin)
	}
}

func TestLimiter_ConcurrentSweep(t *testing.T) {
	l := newLimiter(Config{AuthFailuresPerMin: 1000}, time.Millisecond, time.Millisecond)
	t.Cleanup(l.Stop)

	key := BuildKey("10.0.0.9", LimitTypeAuthFailure)
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		l.Allow(key, LimitTypeAuthFailure)
		l.Check(key, LimitTypeAuthFailure)
	}
	l.Reset(key)

	if allowed, _ := l.Allow(key, LimitTypeAuthFailure); !allowed {
		t.Fatal("a reset key should start with a full bucket")
	}
}

package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage(time.Hour, time.Hour)
	t.Cleanup(s.Stop)
	return s
}

func TestStorage_GetSet(t *testing.T) {
	storage := newTestStorage(t)

	if storage.Get("missing") != nil {
		t.Error("Get() on missing key should return nil")
	}

	bucket := &Bucket{Tokens: 5, LastRefill: time.Now(), Capacity: 10, RefillRate: 1}
	storage.Set("key", bucket)

	got := storage.Get("key")
	if got == nil {
		t.Fatal("Get() returned nil after Set()")
	}
	if got.Tokens != 5 {
		t.Errorf("Tokens = %v, want 5", got.Tokens)
	}
}

func TestStorage_Delete(t *testing.T) {
	storage := newTestStorage(t)

	storage.Set("key", &Bucket{Tokens: 1, LastRefill: time.Now(), Capacity: 1, RefillRate: 1})
	storage.Delete("key")

	if storage.Get("key") != nil {
		t.Error("Bucket should not exist after Delete()")
	}
}

func TestStorage_ConcurrentAccess(t *testing.T) {
	storage := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				storage.Set(fmt.Sprintf("key-%d", id%10), &Bucket{
					Tokens:     float64(j),
					LastRefill: time.Now(),
					Capacity:   100,
					RefillRate: 1,
				})
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				storage.Get(fmt.Sprintf("key-%d", id%10))
			}
		}(i)
	}
	wg.Wait()

	if storage.Count() == 0 {
		t.Error("Storage should have buckets after concurrent operations")
	}
}

func TestStorage_Cleanup(t *testing.T) {
	storage := newTestStorage(t)
	now := time.Now()

	storage.Set("fresh", &Bucket{Tokens: 10, LastRefill: now, Capacity: 10, RefillRate: 1})
	storage.Set("old", &Bucket{Tokens: 10, LastRefill: now.Add(-2 * time.Hour), Capacity: 10, RefillRate: 1})

	storage.cleanup(now)

	if storage.Get("fresh") == nil {
		t.Error("Fresh bucket should not be cleaned up")
	}
	if storage.Get("old") != nil {
		t.Error("Old bucket should be cleaned up")
	}
	if storage.Count() != 1 {
		t.Errorf("Count = %d, want 1", storage.Count())
	}
}

func TestStorage_CleanupLoop(t *testing.T) {
	storage := NewStorage(10*time.Millisecond, time.Millisecond)
	defer storage.Stop()

	storage.Set("stale", &Bucket{Tokens: 1, LastRefill: time.Now().Add(-time.Minute), Capacity: 1, RefillRate: 1})

	deadline := time.Now().Add(2 * time.Second)
	for storage.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup goroutine never removed the stale bucket")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStorage_StopIsIdempotent(t *testing.T) {
	storage := NewStorage(time.Hour, time.Hour)
	storage.Set("key", &Bucket{Tokens: 1, LastRefill: time.Now(), Capacity: 1, RefillRate: 1})

	storage.Stop()
	storage.Stop()

	if storage.Get("key") == nil {
		t.Error("Buckets should still exist after Stop()")
	}
}

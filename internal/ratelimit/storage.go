package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultCleanupInterval is how often idle buckets are swept.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultBucketTTL is how long an untouched bucket is kept.
	DefaultBucketTTL = time.Hour
)

// Bucket represents a token bucket for rate limiting.
type Bucket struct {
	// Tokens is the current number of available tokens.
	Tokens float64

	// LastRefill is the timestamp of the last token refill.
	LastRefill time.Time

	// Capacity is the maximum number of tokens the bucket can hold.
	Capacity float64

	// RefillRate is the number of tokens added per second.
	RefillRate float64
}

// Storage provides thread-safe in-memory storage for rate limit buckets.
// It uses sync.Map for concurrent access and performs periodic cleanup of expired entries.
//
// Bucket fields are mutated by the owner under bucketMu, so the sweeper takes
// the same lock before reading them.
type Storage struct {
	buckets  sync.Map
	bucketMu sync.Locker
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStorage creates a new rate limit storage and starts the cleanup goroutine.
func NewStorage(interval, ttl time.Duration) *Storage {
	return newStorage(interval, ttl, &sync.Mutex{})
}

// newStorage creates a storage whose sweeper holds bucketMu while it inspects
// buckets.
func newStorage(interval, ttl time.Duration, bucketMu sync.Locker) *Storage {
	s := &Storage{
		bucketMu: bucketMu,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	s.startCleanup(interval)
	return s
}

// Get retrieves a bucket by key. Returns nil if not found.
func (s *Storage) Get(key string) *Bucket {
	value, ok := s.buckets.Load(key)
	if !ok {
		return nil
	}
	bucket, ok := value.(*Bucket)
	if !ok {
		return nil
	}
	return bucket
}

// Set stores or updates a bucket by key.
func (s *Storage) Set(key string, bucket *Bucket) {
	s.buckets.Store(key, bucket)
}

// Delete removes a bucket by key.
func (s *Storage) Delete(key string) {
	s.buckets.Delete(key)
}

func (s *Storage) startCleanup(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				s.cleanup(now)
			case <-s.stopCh:
				return
			}
		}
	}()
}

// cleanup removes buckets that have not been touched within the TTL.
func (s *Storage) cleanup(now time.Time) {
	expireThreshold := now.Add(-s.ttl)

	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()

	s.buckets.Range(func(key, value interface{}) bool {
		bucket, ok := value.(*Bucket)
		if !ok {
			s.buckets.Delete(key)
			return true
		}
		if bucket.LastRefill.Before(expireThreshold) {
			s.buckets.Delete(key)
		}
		return true
	})
}

// Stop gracefully stops the storage cleanup goroutine. It is safe to call more than once.
func (s *Storage) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Count returns the number of buckets currently stored.
func (s *Storage) Count() int {
	count := 0
	s.buckets.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

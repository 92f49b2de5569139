// Package ratelimit provides per-key token-bucket admission control.
// Buckets are keyed by (principal-or-IP, operation class), start full,
// and refill lazily from elapsed time at admission; there is no
// background refill timer. Denial is a boolean; bucket internals are
// never returned to the caller.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClassConfig overrides the bucket shape for one operation class.
type ClassConfig struct {
	RefillPerSecond float64
	Capacity        int
}

// Config holds rate limiting configuration.
type Config struct {
	// Default bucket refill rate in tokens per second.
	DefaultRefillPerSecond float64
	// Default bucket capacity (burst).
	DefaultCapacity int
	// Cleanup interval for idle buckets.
	CleanupInterval time.Duration
	// How long an untouched bucket is kept before cleanup.
	BucketExpiry time.Duration
	// Per-class overrides, keyed by operation class.
	Classes map[string]ClassConfig
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultRefillPerSecond: 10,
		DefaultCapacity:        20,
		CleanupInterval:        time.Hour,
		BucketExpiry:           24 * time.Hour,
	}
}

type bucketEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Service admits or denies operations against per-key buckets.
type Service struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry
	config  *Config
	now     func() time.Time
	done    chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithNowFunc overrides the clock. Intended for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a rate limiting service and starts its idle
// bucket cleanup loop. Callers must Stop it.
func NewService(config *Config, opts ...Option) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Service{
		buckets: make(map[string]*bucketEntry),
		config:  config,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupLoop()
	return s
}

// Stop stops the cleanup loop.
func (s *Service) Stop() {
	close(s.done)
}

// Admit deducts cost tokens from the bucket for (key, class) if
// available. The bucket is created full on first use. Time-based
// refill is the only way tokens come back.
func (s *Service) Admit(key, class string, cost int) bool {
	entry := s.getBucket(key+"|"+class, class)
	return entry.AllowN(s.now(), cost)
}

func (s *Service) getBucket(bucketKey, class string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.buckets[bucketKey]; ok {
		entry.lastAccess = s.now()
		return entry.limiter
	}

	refill := s.config.DefaultRefillPerSecond
	capacity := s.config.DefaultCapacity
	if cc, ok := s.config.Classes[class]; ok {
		if cc.RefillPerSecond > 0 {
			refill = cc.RefillPerSecond
		}
		if cc.Capacity > 0 {
			capacity = cc.Capacity
		}
	}

	limiter := rate.NewLimiter(rate.Limit(refill), capacity)
	s.buckets[bucketKey] = &bucketEntry{limiter: limiter, lastAccess: s.now()}
	return limiter
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Service) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.config.BucketExpiry)
	for key, entry := range s.buckets {
		if entry.lastAccess.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// BucketCount returns the number of live buckets. Intended for tests
// and admin introspection, never for guest callers.
func (s *Service) BucketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

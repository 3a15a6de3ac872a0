package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-itinerary/internal/app/observability/metrics"
)

// Store is a typed TTL cache backed by go-cache. Expired entries are
// evicted by the go-cache janitor.
type Store[T any] struct {
	items  *gocache.Cache
	ttl    time.Duration
	name   string
	logger *zap.Logger

	// serializes Update; plain Get/Set rely on go-cache's own locking
	mu sync.Mutex
}

// NewStore creates a store whose entries live for ttl.
func NewStore[T any](ttl time.Duration, name string, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		items:  gocache.New(ttl, ttl/2),
		ttl:    ttl,
		name:   name,
		logger: logger,
	}
}

// Set stores value under key, resetting its TTL.
func (s *Store[T]) Set(key string, value T) {
	s.items.Set(key, value, gocache.DefaultExpiration)
	s.record("set")
	s.logger.Debug("Cache set",
		zap.String("cache", s.name),
		zap.String("key", key),
		zap.Duration("ttl", s.ttl),
	)
}

// Get returns the value for key if present and not expired.
func (s *Store[T]) Get(key string) (T, bool) {
	raw, found := s.items.Get(key)
	if !found {
		s.record("miss")
		s.logger.Debug("Cache miss", zap.String("cache", s.name), zap.String("key", key))
		var zero T
		return zero, false
	}
	s.record("hit")
	s.logger.Debug("Cache hit", zap.String("cache", s.name), zap.String("key", key))
	return raw.(T), true
}

// Update applies fn to the current value of key under a store-wide lock, so
// concurrent read-modify-write cycles on the same store do not interleave.
// fn returns the new value and whether to keep it; returning false deletes
// the entry.
func (s *Store[T]) Update(key string, fn func(current T, found bool) (T, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.Get(key)
	next, keep := fn(current, found)
	if !keep {
		s.Delete(key)
		return
	}
	s.Set(key, next)
}

// Delete removes key.
func (s *Store[T]) Delete(key string) {
	s.items.Delete(key)
	s.logger.Debug("Cache delete", zap.String("cache", s.name), zap.String("key", key))
}

// Size returns the number of entries, including expired ones not yet evicted.
func (s *Store[T]) Size() int {
	return s.items.ItemCount()
}

// Expiry returns when key expires. It does not count as a lookup.
func (s *Store[T]) Expiry(key string) (time.Time, bool) {
	_, exp, found := s.items.GetWithExpiration(key)
	return exp, found
}

func (s *Store[T]) record(result string) {
	metrics.Get().CacheOpsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("cache", s.name),
		attribute.String("result", result),
	))
}

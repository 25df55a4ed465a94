package repo

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/clearpath-health/clearpath/internal/cache"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripFunc) *http.Client {
	return &http.Client{Transport: rt}
}

// stubCache records the TTL of every write alongside the value.
type stubCache struct {
	mu    sync.Mutex
	store map[string][]byte
	ttls  map[string]time.Duration
}

func newStubCache() *stubCache {
	return &stubCache{store: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *stubCache) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.store[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

func (s *stubCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = append([]byte(nil), value...)
	s.ttls[key] = ttl
	return nil
}

func (s *stubCache) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	_, exists := s.store[key]
	s.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, s.Set(ctx, key, value, ttl)
}

func (s *stubCache) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, key)
	delete(s.ttls, key)
	return nil
}

func (s *stubCache) Close() error { return nil }

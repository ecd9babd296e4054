package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a settings snapshot stays fresh.
const DefaultCacheTTL = 30 * time.Second

// Store is a time-boxed, read-mostly settings cache. The pipeline consults
// it at every stage; snapshots refresh on TTL expiry, explicit invalidation,
// or a Set from the loader's watch callback. It is the only mutated-in-place
// resource shared across concurrent pipeline executions.
type Store struct {
	loader *Loader
	ttl    time.Duration

	mu       sync.RWMutex
	current  *Config
	loadedAt time.Time
}

// NewStore creates a settings cache around a loader. A ttl of zero uses
// DefaultCacheTTL.
func NewStore(loader *Loader, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Store{
		loader: loader,
		ttl:    ttl,
	}
}

// Get returns the active configuration snapshot, reloading when stale.
// A failed reload keeps serving the last good snapshot rather than failing
// every in-flight request.
func (s *Store) Get(ctx context.Context) (*Config, error) {
	s.mu.RLock()
	cfg, fresh := s.current, time.Since(s.loadedAt) < s.ttl
	s.mu.RUnlock()

	if cfg != nil && fresh {
		return cfg, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if s.current != nil && time.Since(s.loadedAt) < s.ttl {
		return s.current, nil
	}

	loaded, err := s.loader.Load(ctx)
	if err != nil {
		if s.current != nil {
			slog.Warn("Settings reload failed, serving stale snapshot", "error", err)
			return s.current, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.current = loaded
	s.loadedAt = time.Now()
	return s.current, nil
}

// Set installs a new snapshot, typically from the loader's watch callback.
func (s *Store) Set(cfg *Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = cfg
	s.loadedAt = time.Now()
}

// Invalidate forces the next Get to reload.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadedAt = time.Time{}
}

// Watch runs the loader's watch loop, installing reloaded snapshots into
// the cache. Blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	s.loader.onChange = s.Set
	return s.loader.Watch(ctx)
}

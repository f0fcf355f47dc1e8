package board

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// FallbackStore serves from a durable primary until the primary fails, then
// switches to an in-process secondary for the rest of the process's life.
// The switch is one-way: state written to the secondary would be lost by
// switching back. Callers see no error for the failed operation; it is retried
// on the secondary.
type FallbackStore struct {
	primary   Store
	secondary Store
	degraded  atomic.Bool
	once      sync.Once
	cause     atomic.Value // string
}

// NewFallbackStore wraps primary with secondary as its fallback.
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

// Degraded reports whether the store has fallen back to the secondary.
func (s *FallbackStore) Degraded() bool {
	return s.degraded.Load()
}

// Cause returns the primary error that triggered the fallback, if any.
func (s *FallbackStore) Cause() string {
	if v, ok := s.cause.Load().(string); ok {
		return v
	}
	return ""
}

func (s *FallbackStore) current() Store {
	if s.degraded.Load() {
		return s.secondary
	}
	return s.primary
}

// fallBack decides whether err from the primary should trigger the switch.
// Errors caused by the caller's own context ending are returned as-is.
func (s *FallbackStore) fallBack(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	s.once.Do(func() {
		s.cause.Store(err.Error())
		s.degraded.Store(true)
		log.Printf("[WARN] Durable store (%s) unavailable, falling back to %s for the rest of this process: %v",
			s.primary.Backend(), s.secondary.Backend(), err)
	})
	return true
}

// Load implements Store.
func (s *FallbackStore) Load(ctx context.Context, sessionID string) ([]Item, error) {
	if !s.degraded.Load() {
		items, err := s.primary.Load(ctx, sessionID)
		if !s.fallBack(ctx, err) {
			return items, err
		}
	}
	return s.secondary.Load(ctx, sessionID)
}

// Save implements Store.
func (s *FallbackStore) Save(ctx context.Context, sessionID string, items []Item) error {
	if !s.degraded.Load() {
		err := s.primary.Save(ctx, sessionID, items)
		if !s.fallBack(ctx, err) {
			return err
		}
	}
	return s.secondary.Save(ctx, sessionID, items)
}

// Touch implements Store.
func (s *FallbackStore) Touch(ctx context.Context, sessionID string) (SessionMeta, error) {
	if !s.degraded.Load() {
		meta, err := s.primary.Touch(ctx, sessionID)
		if !s.fallBack(ctx, err) {
			return meta, err
		}
	}
	return s.secondary.Touch(ctx, sessionID)
}

// Purge implements Store.
func (s *FallbackStore) Purge(ctx context.Context, sessionID string) error {
	if !s.degraded.Load() {
		err := s.primary.Purge(ctx, sessionID)
		if !s.fallBack(ctx, err) {
			return err
		}
	}
	return s.secondary.Purge(ctx, sessionID)
}

// Ping implements Store. Once degraded, it reports the secondary's health.
func (s *FallbackStore) Ping(ctx context.Context) error {
	return s.current().Ping(ctx)
}

// Backend implements Store.
func (s *FallbackStore) Backend() string {
	return s.current().Backend()
}

// Durable implements Store.
func (s *FallbackStore) Durable() bool {
	return s.current().Durable()
}

package board

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory with the same JSON encoding and
// expiry semantics as RedisStore. State is lost on restart and is not shared
// between processes.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time
}

type memorySession struct {
	items     []byte
	createdAt time.Time
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process store. A non-positive ttl uses
// DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// lookup returns the live session record, evicting it if expired.
// Caller must hold s.mu.
func (s *MemoryStore) lookup(sessionID string) *memorySession {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return nil
	}
	return sess
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.lookup(sessionID)
	var data []byte
	if sess != nil {
		data = sess.items
	}
	s.mu.Unlock()

	return DecodeItems(data)
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, sessionID string, items []Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := EncodeItems(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(sessionID)
	sess.items = data
	return nil
}

// Touch implements Store.
func (s *MemoryStore) Touch(ctx context.Context, sessionID string) (SessionMeta, error) {
	if err := ctx.Err(); err != nil {
		return SessionMeta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touchLocked(sessionID)
	return SessionMeta{ID: sessionID, CreatedAt: sess.createdAt}, nil
}

func (s *MemoryStore) touchLocked(sessionID string) *memorySession {
	now := s.now()
	sess := s.lookup(sessionID)
	if sess == nil {
		sess = &memorySession{createdAt: now}
		s.sessions[sessionID] = sess
	}
	sess.expiresAt = now.Add(s.ttl)
	return sess
}

// Purge implements Store.
func (s *MemoryStore) Purge(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Ping implements Store. Memory is always reachable.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Backend implements Store.
func (s *MemoryStore) Backend() string {
	return "memory"
}

// Durable implements Store.
func (s *MemoryStore) Durable() bool {
	return false
}

// SessionCount returns the number of unexpired sessions held in memory.
func (s *MemoryStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id := range s.sessions {
		if s.lookup(id) != nil {
			count++
		}
	}
	return count
}

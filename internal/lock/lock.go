// Package lock serializes read-modify-write sequences per session.
//
// Every mutation of a session's item list loads the list, changes it and saves
// it back. Two such sequences interleaving on one session lose an update, so
// callers hold the session's lock for the whole sequence. Different sessions
// never contend.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/easel/pkg/board"
)

// DefaultWaitTimeout bounds how long Acquire waits for a busy session.
const DefaultWaitTimeout = 10 * time.Second

// Sessions is a keyed lock with one entry per session that currently has a
// holder or waiters. Entries are dropped when their last user releases.
type Sessions struct {
	mu          sync.Mutex
	entries     map[string]*entry
	waitTimeout time.Duration
}

type entry struct {
	sem  chan struct{}
	refs int
}

// New creates a session lock. A non-positive waitTimeout means waits are
// bounded only by the caller's context.
func New(waitTimeout time.Duration) *Sessions {
	return &Sessions{
		entries:     make(map[string]*entry),
		waitTimeout: waitTimeout,
	}
}

// Acquire blocks until the caller holds the lock for sessionID, then returns
// its release function. Release must be called exactly once; extra calls are
// no-ops. When the wait is cut short by ctx or the wait timeout, Acquire
// returns a SESSION_BUSY error.
func (s *Sessions) Acquire(ctx context.Context, sessionID string) (func(), error) {
	e := s.ref(sessionID)

	waitCtx := ctx
	if s.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()
	}

	select {
	case e.sem <- struct{}{}:
	case <-waitCtx.Done():
		s.unref(sessionID, e)
		return nil, board.NewSessionBusy(sessionID, fmt.Errorf("waited for lock: %w", waitCtx.Err()))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			s.unref(sessionID, e)
		})
	}, nil
}

// Do runs fn while holding the lock for sessionID.
func (s *Sessions) Do(ctx context.Context, sessionID string, fn func() error) error {
	release, err := s.Acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Active returns the number of sessions with a holder or waiters.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) ref(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		s.entries[sessionID] = e
	}
	e.refs++
	return e
}

func (s *Sessions) unref(sessionID string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, sessionID)
	}
}

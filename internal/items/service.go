// Package items implements the board operations: creating items of each kind,
// updating and deleting them, focus requests and session lifecycle.
//
// Every operation that changes a session's item list runs load, modify and
// save under that session's lock, then notifies the session's viewers after
// the lock is released.
package items

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/lock"
	"github.com/dyluth/easel/pkg/board"
)

// Service is the board's domain layer. It is safe for concurrent use.
type Service struct {
	store  board.Store
	locks  *lock.Sessions
	engine *layout.Engine
	hub    *broadcast.Hub
	now    func() time.Time
}

// NewService wires the store, session lock, layout engine and hub together.
func NewService(store board.Store, locks *lock.Sessions, engine *layout.Engine, hub *broadcast.Hub) *Service {
	return &Service{
		store:  store,
		locks:  locks,
		engine: engine,
		hub:    hub,
		now:    time.Now,
	}
}

// Engine returns the layout engine.
func (s *Service) Engine() *layout.Engine {
	return s.engine
}

// List returns the session's items in insertion order.
func (s *Service) List(ctx context.Context, sessionID string) ([]board.Item, error) {
	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, board.NewInternal(fmt.Errorf("failed to load session %s: %w", sessionID, err))
	}
	return items, nil
}

// mutate runs fn over the session's items while holding the session lock and
// saves what fn returns. fn's error aborts without saving.
func (s *Service) mutate(ctx context.Context, sessionID string, fn func([]board.Item) ([]board.Item, error)) error {
	release, err := s.locks.Acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return board.NewInternal(fmt.Errorf("failed to load session %s: %w", sessionID, err))
	}

	updated, err := fn(items)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, sessionID, updated); err != nil {
		return board.NewInternal(fmt.Errorf("failed to save session %s: %w", sessionID, err))
	}
	return nil
}

// notify broadcasts an event to the session's viewers. Events are best
// effort; a failure never fails the operation that triggered it.
func (s *Service) notify(ctx context.Context, sessionID string, eventType board.EventType, payload any) int {
	ev, err := board.NewEvent(eventType, payload)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return 0
	}
	return s.hub.Broadcast(ctx, sessionID, ev)
}

func indexOf(items []board.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

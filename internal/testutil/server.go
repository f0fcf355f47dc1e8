// Package testutil runs a complete in-process easel server for tests of the
// packages that talk to it over HTTP.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dyluth/easel/internal/api"
	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/lock"
	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
	"github.com/stretchr/testify/require"
)

// Environment is one running server and direct handles on its parts.
type Environment struct {
	T       *testing.T
	URL     string
	Service *items.Service
	Hub     *broadcast.Hub
	Store   board.Store
	Ctx     context.Context
}

// Option customises the environment before the server starts.
type Option func(*settings)

type settings struct {
	mode  session.Mode
	store board.Store
	seed  int64
}

// WithMode sets the session mode. The default is strict.
func WithMode(mode session.Mode) Option {
	return func(s *settings) { s.mode = mode }
}

// WithStore replaces the default memory store.
func WithStore(store board.Store) Option {
	return func(s *settings) { s.store = store }
}

// Setup starts a server that is shut down when the test ends. Free-area
// placement is seeded so positions are repeatable.
func Setup(t *testing.T, opts ...Option) *Environment {
	t.Helper()

	s := settings{mode: session.ModeStrict, seed: 1}
	for _, opt := range opts {
		opt(&s)
	}
	if s.store == nil {
		s.store = board.NewMemoryStore(0)
	}

	engine, err := layout.NewEngine(layout.DefaultZones(), layout.WithRand(rand.New(rand.NewSource(s.seed))))
	require.NoError(t, err, "Failed to create layout engine")

	hub := broadcast.NewHub()
	svc := items.NewService(s.store, lock.New(time.Second), engine, hub)
	server := httptest.NewServer(api.NewServer(svc, session.NewResolver(s.mode), hub, s.store).Handler())
	t.Cleanup(server.Close)

	return &Environment{
		T:       t,
		URL:     server.URL,
		Service: svc,
		Hub:     hub,
		Store:   s.store,
		Ctx:     context.Background(),
	}
}

// Note adds a doctor note to sessionID and returns it.
func (env *Environment) Note(sessionID, content string) board.Item {
	env.T.Helper()
	item, err := env.Service.CreateDoctorNote(env.Ctx, sessionID, items.DoctorNoteInput{Content: content})
	require.NoError(env.T, err, "Failed to create note")
	return item
}

// Items returns the stored items of sessionID.
func (env *Environment) Items(sessionID string) []board.Item {
	env.T.Helper()
	list, err := env.Service.List(env.Ctx, sessionID)
	require.NoError(env.T, err, "Failed to list items")
	return list
}

// WaitForViewers waits until sessionID has n viewers connected (up to 5 seconds).
func (env *Environment) WaitForViewers(sessionID string, n int) {
	env.T.Helper()
	for i := 0; i < 500; i++ {
		if env.Hub.Connections(sessionID) == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Fail(env.T, fmt.Sprintf("Session %s did not reach %d viewers within 5 seconds", sessionID, n))
}

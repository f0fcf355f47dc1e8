package board

import (
	"context"
	"time"
)

// DefaultSessionTTL is how long an untouched session survives in the store.
const DefaultSessionTTL = 24 * time.Hour

// SessionMeta is what the store knows about a session besides its items.
type SessionMeta struct {
	ID        string
	CreatedAt time.Time
}

// Store persists one ordered item list per session.
// Every write refreshes the session's expiry. Implementations must be safe for
// concurrent use, but they do not serialize read-modify-write sequences;
// callers hold the session lock for that.
type Store interface {
	// Load returns the session's items, or an empty list for an unknown session.
	Load(ctx context.Context, sessionID string) ([]Item, error)

	// Save replaces the session's items and refreshes its expiry. The session's
	// metadata is created on first save.
	Save(ctx context.Context, sessionID string, items []Item) error

	// Touch creates the session's metadata if absent, refreshes its expiry and
	// returns the metadata.
	Touch(ctx context.Context, sessionID string) (SessionMeta, error)

	// Purge removes the session's items and metadata.
	Purge(ctx context.Context, sessionID string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Backend names the backend currently serving requests.
	Backend() string

	// Durable reports whether the current backend survives process restarts.
	Durable() bool
}

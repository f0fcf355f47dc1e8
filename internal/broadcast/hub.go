// Package broadcast fans board events out to the live viewers of a session.
//
// Delivery is at-most-once. A viewer whose buffer is full misses the event and
// is expected to catch up by re-reading the item list.
package broadcast

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dyluth/easel/pkg/board"
)

const (
	// DefaultBufferSize is the per-viewer event buffer.
	DefaultBufferSize = 32
	// DefaultHeartbeatInterval is how often Run pings every viewer.
	DefaultHeartbeatInterval = 25 * time.Second
	// RelayBufferSize is how many events may wait for the relay publisher.
	// Events beyond it are not relayed.
	RelayBufferSize = 256

	publishTimeout = 2 * time.Second
)

// Publisher relays events to other server instances.
type Publisher interface {
	PublishEvent(ctx context.Context, origin, sessionID string, ev board.Event) error
}

// Stats is a snapshot of the hub's connection table.
type Stats struct {
	Sessions    int `json:"activeSessions"`
	Connections int `json:"connections"`
}

// Hub owns the viewer connections of every session.
// Hub is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[*Subscription]struct{}

	bufferSize int
	heartbeat  time.Duration
	origin     string
	publisher  Publisher
	paused     func() bool
	outbox     chan relayed
	now        func() time.Time
}

type relayed struct {
	sessionID string
	ev        board.Event
}

// Option customises a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-viewer buffer.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithHeartbeat sets the ping interval used by Run.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithRelay publishes every broadcast to other instances, tagged with origin.
// Publishing happens in the background while Run is running.
func WithRelay(origin string, pub Publisher) Option {
	return func(h *Hub) {
		h.origin = origin
		h.publisher = pub
	}
}

// WithRelayPause skips relaying while paused reports true, for example while
// the store has fallen back to memory and other instances cannot see the
// session anyway.
func WithRelayPause(paused func() bool) Option {
	return func(h *Hub) {
		h.paused = paused
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Subscription]struct{}),
		bufferSize: DefaultBufferSize,
		heartbeat:  DefaultHeartbeatInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.publisher != nil {
		h.outbox = make(chan relayed, RelayBufferSize)
	}
	return h
}

// Origin returns the instance id attached to relayed events.
func (h *Hub) Origin() string {
	return h.origin
}

// Subscription is one viewer connection. The connected event is already
// queued when Subscribe returns. Caller must call Close() when done.
type Subscription struct {
	hub       *Hub
	sessionID string
	events    chan board.Event
	done      chan struct{}
	once      sync.Once
}

// SessionID returns the session the viewer is attached to.
func (s *Subscription) SessionID() string {
	return s.sessionID
}

// Events returns the viewer's event channel. It is never closed; watch Done.
func (s *Subscription) Events() <-chan board.Event {
	return s.events
}

// Done is closed when the subscription ends, either through Close or because
// the session was reset.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the viewer. Safe to call multiple times. Implements io.Closer.
func (s *Subscription) Close() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
	return nil
}

func (s *Subscription) finish() {
	s.once.Do(func() { close(s.done) })
}

// Subscribe attaches a viewer to sessionID.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		hub:       h,
		sessionID: sessionID,
		events:    make(chan board.Event, h.bufferSize),
		done:      make(chan struct{}),
	}

	if ev, err := board.NewEvent(board.EventConnected, board.ConnectedPayload{SessionID: sessionID}); err == nil {
		sub.events <- ev
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.sessions[sessionID] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Broadcast delivers ev to the local viewers of sessionID and, when a relay is
// configured, queues it for other instances. It never waits on the relay.
// It returns the number of local viewers that received the event.
func (h *Hub) Broadcast(ctx context.Context, sessionID string, ev board.Event) int {
	delivered := h.Deliver(sessionID, ev)

	if h.outbox != nil && (h.paused == nil || !h.paused()) {
		select {
		case h.outbox <- relayed{sessionID: sessionID, ev: ev}:
		default:
			log.Printf("[DEBUG] Relay queue full, %s event for session %s not relayed", ev.Type, sessionID)
		}
	}

	return delivered
}

// Deliver sends ev to the local viewers of sessionID only. Viewers with a
// full buffer are skipped.
func (h *Hub) Deliver(sessionID string, ev board.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for sub := range h.sessions[sessionID] {
		select {
		case sub.events <- ev:
			delivered++
		default:
			log.Printf("[DEBUG] Dropped %s event for a slow viewer of session %s", ev.Type, sessionID)
		}
	}
	return delivered
}

// CloseSession disconnects every local viewer of sessionID and returns how
// many there were.
func (h *Hub) CloseSession(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.sessions[sessionID]
	n := len(subs)
	for sub := range subs {
		h.removeLocked(sub)
	}
	return n
}

// CloseAll disconnects every local viewer. It is used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.sessions {
		for sub := range subs {
			h.removeLocked(sub)
		}
	}
}

// Connections returns the number of local viewers of sessionID.
func (h *Hub) Connections(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}

// Stats returns the current connection counts.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{Sessions: len(h.sessions)}
	for _, subs := range h.sessions {
		stats.Connections += len(subs)
	}
	return stats
}

// Run pings every viewer on the heartbeat interval and publishes queued relay
// events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	if h.outbox != nil {
		go h.publish(ctx)
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.ping()
		}
	}
}

// publish drains the relay queue. Failures are logged when the relay goes
// down and when it recovers, not for every event.
func (h *Hub) publish(ctx context.Context) {
	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-h.outbox:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := h.publisher.PublishEvent(pubCtx, h.origin, r.sessionID, r.ev)
			cancel()

			switch {
			case err != nil && !failing:
				failing = true
				log.Printf("[WARN] Failed to relay %s event for session %s: %v", r.ev.Type, r.sessionID, err)
			case err != nil:
				log.Printf("[DEBUG] Failed to relay %s event for session %s: %v", r.ev.Type, r.sessionID, err)
			case failing:
				failing = false
				log.Printf("[INFO] Event relay recovered")
			}
		}
	}
}

func (h *Hub) ping() {
	ev, err := board.NewEvent(board.EventPing, board.PingPayload{Timestamp: h.now().UnixMilli()})
	if err != nil {
		log.Printf("[ERROR] %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.sessions {
		for sub := range subs {
			select {
			case sub.events <- ev:
			default:
			}
		}
	}
}

func (h *Hub) removeLocked(sub *Subscription) {
	if subs, ok := h.sessions[sub.sessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.sessions, sub.sessionID)
		}
	}
	sub.finish()
}

// Package watch keeps a viewer's copy of a board in step with the server,
// either from the pushed event stream or by polling the item list.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/easel/pkg/board"
)

// DefaultPollInterval is how often PollFeed lists the session's items.
const DefaultPollInterval = 2 * time.Second

// ErrStreamEnded is returned by StreamFeed when the server closes the stream
// without a session reset.
var ErrStreamEnded = errors.New("event stream ended")

// UpdateKind says what an Update does to the viewer's board.
type UpdateKind string

const (
	UpdateAdded   UpdateKind = "added"
	UpdateChanged UpdateKind = "changed"
	UpdateRemoved UpdateKind = "removed"
	UpdateFocus   UpdateKind = "focus"
	UpdateReset   UpdateKind = "reset"
)

// Update is one change to apply to the viewer's board.
type Update struct {
	Kind    UpdateKind
	Item    board.Item          // added, changed
	ItemIDs []string            // removed
	Focus   *board.FocusPayload // focus
}

// Feed delivers updates for one session until its context ends. A watcher
// runs exactly one feed.
type Feed interface {
	Name() string
	Run(ctx context.Context, apply func(Update)) error
}

// Lister returns a session's items.
type Lister interface {
	ListItems(ctx context.Context) ([]board.Item, error)
}

// Streamer opens a session's event stream.
type Streamer interface {
	Events(ctx context.Context) (io.ReadCloser, error)
}

// StreamFeed applies pushed events.
type StreamFeed struct {
	src    Streamer
	lister Lister
	rec    *Reconciler
}

// NewStreamFeed creates a push feed. When lister is non-nil the current items
// are applied once the stream is open, so nothing created in between is lost.
func NewStreamFeed(src Streamer, lister Lister, rec *Reconciler) *StreamFeed {
	return &StreamFeed{src: src, lister: lister, rec: rec}
}

// Name implements Feed.
func (f *StreamFeed) Name() string { return "stream" }

// Run implements Feed. It returns nil when ctx ends or the session is reset,
// and ErrStreamEnded when the server drops the stream.
func (f *StreamFeed) Run(ctx context.Context, apply func(Update)) error {
	body, err := f.src.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to open event stream: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			body.Close()
		case <-stop:
			body.Close()
		}
	}()

	if f.lister != nil {
		list, err := f.lister.ListItems(ctx)
		if err != nil {
			return fmt.Errorf("failed to load current items: %w", err)
		}
		for _, item := range f.rec.Observe(list) {
			apply(Update{Kind: UpdateAdded, Item: item})
		}
	}

	scanner := NewScanner(body)
	for scanner.Next() {
		if done := f.handle(scanner.Event(), apply); done {
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event stream failed: %w", err)
	}
	return ErrStreamEnded
}

// handle applies one event and reports whether the stream is finished.
func (f *StreamFeed) handle(ev board.Event, apply func(Update)) bool {
	switch ev.Type {
	case board.EventConnected, board.EventPing:

	case board.EventNewItem:
		var p board.NewItemPayload
		if err := ev.Decode(&p); err != nil {
			log.Printf("[WARN] %v", err)
			return false
		}
		if fresh := f.rec.Observe([]board.Item{p.Item}); len(fresh) > 0 {
			apply(Update{Kind: UpdateAdded, Item: p.Item})
		} else if p.Action == board.ItemActionUpdated {
			apply(Update{Kind: UpdateChanged, Item: p.Item})
		}

	case board.EventFocus:
		var p board.FocusPayload
		if err := ev.Decode(&p); err != nil {
			log.Printf("[WARN] %v", err)
			return false
		}
		if f.rec.Known(p.ItemID) {
			apply(Update{Kind: UpdateFocus, Focus: &p})
		}

	case board.EventItemsDeleted:
		var p board.ItemsDeletedPayload
		if err := ev.Decode(&p); err != nil {
			log.Printf("[WARN] %v", err)
			return false
		}
		if dropped := f.rec.Forget(p.ItemIDs); len(dropped) > 0 {
			apply(Update{Kind: UpdateRemoved, ItemIDs: dropped})
		}

	case board.EventSessionReset:
		f.rec.Reset()
		apply(Update{Kind: UpdateReset})
		return true

	default:
		log.Printf("[DEBUG] Ignoring unknown event type %q", ev.Type)
	}
	return false
}

// PollFeed lists the session's items on an interval and applies the
// difference. After each poll that found new items it focuses the newest.
type PollFeed struct {
	lister   Lister
	interval time.Duration
	rec      *Reconciler
}

// NewPollFeed creates a poll feed. A non-positive interval means
// DefaultPollInterval.
func NewPollFeed(lister Lister, interval time.Duration, rec *Reconciler) *PollFeed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollFeed{lister: lister, interval: interval, rec: rec}
}

// Name implements Feed.
func (f *PollFeed) Name() string { return "poll" }

// Run implements Feed. Failed polls are logged and retried on the next tick.
// It returns nil when ctx ends.
func (f *PollFeed) Run(ctx context.Context, apply func(Update)) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.poll(ctx, apply)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.poll(ctx, apply)
		}
	}
}

func (f *PollFeed) poll(ctx context.Context, apply func(Update)) {
	list, err := f.lister.ListItems(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[WARN] Failed to poll items: %v", err)
		}
		return
	}

	if dropped := f.rec.Retain(list); len(dropped) > 0 {
		apply(Update{Kind: UpdateRemoved, ItemIDs: dropped})
	}

	fresh := f.rec.Observe(list)
	for _, item := range fresh {
		apply(Update{Kind: UpdateAdded, Item: item})
	}
	if len(fresh) > 0 {
		newest := fresh[len(fresh)-1]
		apply(Update{Kind: UpdateFocus, Focus: &board.FocusPayload{
			ItemID:       newest.ID,
			FocusOptions: board.DefaultFocusOptions(),
		}})
	}
}

package board

import (
	"encoding/json"
	"fmt"
)

// EventType names a server-push event.
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"
	// EventPing is the heartbeat.
	EventPing EventType = "ping"
	// EventNewItem carries a created or updated item.
	EventNewItem EventType = "new-item"
	// EventFocus asks viewers to move their camera to an item.
	EventFocus EventType = "focus"
	// EventItemsDeleted lists items removed from the session.
	EventItemsDeleted EventType = "items-deleted"
	// EventSessionReset tells viewers the session was purged.
	EventSessionReset EventType = "session-reset"
)

// Event is a named event with a JSON payload, serialized once at creation.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals payload into an Event.
func NewEvent(eventType EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return Event{Type: eventType, Data: data}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", e.Type, err)
	}
	return nil
}

// ItemAction tags why a new-item event was sent.
type ItemAction string

const (
	ItemActionCreated ItemAction = "created"
	ItemActionUpdated ItemAction = "updated"
)

// ConnectedPayload is the payload of EventConnected.
type ConnectedPayload struct {
	SessionID string `json:"sessionId"`
}

// PingPayload is the payload of EventPing.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // server time, Unix milliseconds
}

// NewItemPayload is the payload of EventNewItem.
type NewItemPayload struct {
	Item   Item       `json:"item"`
	Action ItemAction `json:"action"`
}

// FocusPayload is the payload of EventFocus.
type FocusPayload struct {
	ItemID       string       `json:"itemId"`
	SubElement   string       `json:"subElement,omitempty"`
	FocusOptions FocusOptions `json:"focusOptions"`
}

// FocusOptions controls the camera transition on viewers.
type FocusOptions struct {
	Zoom           float64 `json:"zoom"`
	Highlight      bool    `json:"highlight"`
	Duration       int     `json:"duration"` // milliseconds
	ScrollIntoView bool    `json:"scrollIntoView"`
}

// DefaultFocusOptions are applied to focus requests that omit options.
func DefaultFocusOptions() FocusOptions {
	return FocusOptions{
		Zoom:           0.8,
		Highlight:      true,
		Duration:       1200,
		ScrollIntoView: true,
	}
}

// ItemsDeletedPayload is the payload of EventItemsDeleted.
type ItemsDeletedPayload struct {
	ItemIDs []string `json:"itemIds"`
}

// SessionResetPayload is the payload of EventSessionReset.
type SessionResetPayload struct {
	SessionID string `json:"sessionId"`
}

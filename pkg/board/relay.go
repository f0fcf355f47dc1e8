package board

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// RelayMessage is one event relayed between server instances over Redis Pub/Sub.
// Origin identifies the publishing instance so it can skip its own messages.
type RelayMessage struct {
	Origin    string `json:"origin"`
	SessionID string `json:"sessionId"`
	Event     Event  `json:"event"`
}

// PublishEvent relays ev to every instance subscribed to this namespace.
// Delivery is at-most-once, as with all Redis Pub/Sub.
func (s *RedisStore) PublishEvent(ctx context.Context, origin, sessionID string, ev Event) error {
	data, err := json.Marshal(RelayMessage{Origin: origin, SessionID: sessionID, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to marshal relay message: %w", err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	channel := SessionEventsChannel(s.namespace, sessionID)
	if err := s.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}

// RelaySubscription is an active pattern subscription to all session event
// channels. Caller must call Close() when done.
type RelaySubscription struct {
	messages <-chan *RelayMessage
	errors   <-chan error
	cancel   func()
	once     sync.Once
}

// Messages returns the channel of relayed events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *RelaySubscription) Messages() <-chan *RelayMessage {
	return s.messages
}

// Errors returns the channel of non-fatal decode errors. Bad messages are skipped.
func (s *RelaySubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times. Implements io.Closer.
func (s *RelaySubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents pattern-subscribes to every session's event channel in this
// namespace. Messages are delivered on a buffered channel (size 64); a slow
// consumer blocks the reader goroutine, and Redis may then drop messages.
func (s *RedisStore) SubscribeEvents(ctx context.Context) (*RelaySubscription, error) {
	pubsub := s.rdb.PSubscribe(ctx, SessionEventsPattern(s.namespace))

	// Wait for the subscription confirmation so callers know it is live.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session events: %w", err)
	}

	messagesChan := make(chan *RelayMessage, 64)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(messagesChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		prefix := s.namespace + ":session:"

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var relayed RelayMessage
				err := json.Unmarshal([]byte(msg.Payload), &relayed)
				if err == nil && !strings.HasPrefix(msg.Channel, prefix) {
					err = fmt.Errorf("unexpected channel %q", msg.Channel)
				}
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode relay message: %w", err):
					case <-subCtx.Done():
						return
					default:
					}
					continue
				}

				select {
				case messagesChan <- &relayed:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &RelaySubscription{
		messages: messagesChan,
		errors:   errorsChan,
		cancel:   cancelFunc,
	}, nil
}

package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/dyluth/easel/pkg/board"
)

// Source yields events published by other instances.
type Source interface {
	SubscribeEvents(ctx context.Context) (*board.RelaySubscription, error)
}

// RunRelay delivers events published by other instances to this hub's local
// viewers until ctx is cancelled or the subscription ends. Events carrying the
// hub's own origin are skipped; they were delivered locally when broadcast.
func RunRelay(ctx context.Context, h *Hub, src Source) error {
	sub, err := src.SubscribeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to start event relay: %w", err)
	}
	defer sub.Close()

	log.Printf("[INFO] Event relay started (origin=%s)", h.Origin())

	messages := sub.Messages()
	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Printf("[WARN] Event relay: %v", err)
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg.Origin == h.Origin() {
				continue
			}
			h.Deliver(msg.SessionID, msg.Event)
			if msg.Event.Type == board.EventSessionReset {
				h.CloseSession(msg.SessionID)
			}
		}
	}
}

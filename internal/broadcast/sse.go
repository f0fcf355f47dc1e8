package broadcast

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dyluth/easel/pkg/board"
)

// WriteEvent writes ev as one server-sent event frame.
func WriteEvent(w io.Writer, ev board.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data); err != nil {
		return fmt.Errorf("failed to write %s event: %w", ev.Type, err)
	}
	return nil
}

// ServeSSE streams sub's events to w until the client disconnects or the
// subscription ends. The subscription is closed on return.
func ServeSSE(w http.ResponseWriter, r *http.Request, sub *Subscription) {
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			drain(w, flusher, sub)
			return
		case ev := <-sub.Events():
			if err := WriteEvent(w, ev); err != nil {
				log.Printf("[DEBUG] Viewer of session %s went away: %v", sub.SessionID(), err)
				return
			}
			flusher.Flush()
		}
	}
}

// drain writes events that were queued before the subscription ended, such as
// the session-reset notice.
func drain(w io.Writer, flusher http.Flusher, sub *Subscription) {
	for {
		select {
		case ev := <-sub.Events():
			if WriteEvent(w, ev) != nil {
				return
			}
		default:
			flusher.Flush()
			return
		}
	}
}

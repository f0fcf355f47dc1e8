// Package api is the HTTP surface of the board service.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server routes HTTP requests to the item service.
type Server struct {
	svc      *items.Service
	resolver *session.Resolver
	hub      *broadcast.Hub
	store    board.Store
}

// NewServer creates the HTTP layer over svc. store and hub are read for
// health reporting.
func NewServer(svc *items.Service, resolver *session.Resolver, hub *broadcast.Hub, store board.Store) *Server {
	return &Server{
		svc:      svc,
		resolver: resolver,
		hub:      hub,
		store:    store,
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /items", s.handleListItems)
	mux.HandleFunc("POST /todos", create(s, s.svc.CreateTodo))
	mux.HandleFunc("POST /enhanced-todo", create(s, s.svc.CreateEnhancedTodo))
	mux.HandleFunc("POST /agents", create(s, s.svc.CreateAgent))
	mux.HandleFunc("POST /lab-results", create(s, s.svc.CreateLabResult))
	mux.HandleFunc("POST /ehr-data", create(s, s.svc.CreateEHR))
	mux.HandleFunc("POST /doctor-notes", create(s, s.svc.CreateDoctorNote))
	mux.HandleFunc("POST /board-items", create(s, s.svc.CreateBoardItem))
	mux.HandleFunc("POST /board-items/batch-delete", s.handleBatchDelete)
	mux.HandleFunc("PUT /board-items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /board-items/{id}", s.handleDeleteItem)
	mux.HandleFunc("POST /focus", s.handleFocus)

	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("POST /session", s.handleSession)
	mux.HandleFunc("DELETE /session", s.handlePurgeSession)

	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /zones", s.handleZones)

	return logRequests(mux)
}

// NewHTTPServer wraps handler in an http.Server listening on addr. Viewer
// streams are closed when the server shuts down.
func NewHTTPServer(addr string, handler http.Handler, hub *broadcast.Hub) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.CloseAll)
	return srv
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// shutdownTimeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("[INFO] Easel listening on %s", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("[INFO] Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := "[INFO]"
		if rec.status >= http.StatusInternalServerError {
			level = "[ERROR]"
		} else if r.URL.Path == "/health" {
			level = "[DEBUG]"
		}
		log.Printf("%s %s %s %d %s", level, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

package api

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status         string      `json:"status"`
	Store          StoreHealth `json:"store"`
	ActiveSessions int         `json:"activeSessions"`
	Connections    int         `json:"connections"`
}

// StoreHealth describes the backend serving requests.
type StoreHealth struct {
	Backend string `json:"backend"`
	Durable bool   `json:"durable"`
	Error   string `json:"error,omitempty"`
}

// degradable is implemented by stores that can fall back to a secondary.
type degradable interface {
	Degraded() bool
	Cause() string
}

// handleHealth handles GET /health.
// Returns 200 OK while the store answers, 503 Service Unavailable otherwise.
// A store that has fallen back to memory reports "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	stats := s.hub.Stats()
	response := HealthResponse{
		Status: "healthy",
		Store: StoreHealth{
			Backend: s.store.Backend(),
			Durable: s.store.Durable(),
		},
		ActiveSessions: stats.Sessions,
		Connections:    stats.Connections,
	}

	if err := s.store.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Store.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	if d, ok := s.store.(degradable); ok && d.Degraded() {
		response.Status = "degraded"
		response.Store.Error = d.Cause()
	}

	writeJSON(w, http.StatusOK, response)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dyluth/easel/internal/broadcast"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/layout"
	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
)

// CreateResponse is returned by every create endpoint.
type CreateResponse struct {
	Success   bool       `json:"success"`
	Item      board.Item `json:"item"`
	SessionID string     `json:"sessionId"`
}

// ListResponse is returned by GET /items.
type ListResponse struct {
	SessionID string       `json:"sessionId"`
	Items     []board.Item `json:"items"`
	Count     int          `json:"count"`
}

// ItemResponse is returned by PUT /board-items/{id}.
type ItemResponse struct {
	Success bool       `json:"success"`
	Item    board.Item `json:"item"`
}

// DeleteResponse is returned by DELETE /board-items/{id}.
type DeleteResponse struct {
	Success bool `json:"success"`
	items.DeleteOutput
}

// BatchDeleteRequest is the body of POST /board-items/batch-delete.
type BatchDeleteRequest struct {
	ItemIDs []string `json:"itemIds"`
}

// BatchDeleteResponse is returned by POST /board-items/batch-delete.
type BatchDeleteResponse struct {
	Success bool `json:"success"`
	items.BatchDeleteOutput
}

// FocusResponse is returned by POST /focus.
type FocusResponse struct {
	Success   bool `json:"success"`
	Delivered int  `json:"delivered"`
}

// PurgeResponse is returned by DELETE /session.
type PurgeResponse struct {
	Success      bool   `json:"success"`
	SessionID    string `json:"sessionId"`
	Disconnected int    `json:"disconnected"`
}

// ZonesResponse is returned by GET /zones.
type ZonesResponse struct {
	Zones    []layout.Zone   `json:"zones"`
	FreeArea layout.FreeArea `json:"freeArea"`
}

// create adapts one of the service's create operations to a POST handler.
func create[T any](s *Server, fn func(context.Context, string, T) (board.Item, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, sessionID, ok := s.begin(w, r)
		if !ok {
			return
		}

		var in T
		if err := decodeBody(body, &in); err != nil {
			writeError(w, err)
			return
		}

		item, err := fn(r.Context(), sessionID, in)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateResponse{
			Success:   true,
			Item:      item,
			SessionID: sessionID,
		})
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	_, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}

	list, err := s.svc.List(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		SessionID: sessionID,
		Items:     list,
		Count:     len(list),
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	body, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}

	patch := map[string]json.RawMessage{}
	if err := decodeBody(body, &patch); err != nil {
		writeError(w, err)
		return
	}

	item, err := s.svc.Update(r.Context(), sessionID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ItemResponse{Success: true, Item: item})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	_, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}

	out, err := s.svc.Delete(r.Context(), sessionID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteOutput: *out})
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	body, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}

	var req BatchDeleteRequest
	if err := decodeBody(body, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := s.svc.BatchDelete(r.Context(), sessionID, req.ItemIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BatchDeleteResponse{Success: true, BatchDeleteOutput: *out})
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	body, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}

	var in items.FocusInput
	if err := decodeBody(body, &in); err != nil {
		writeError(w, err)
		return
	}

	delivered, err := s.svc.Focus(r.Context(), sessionID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FocusResponse{Success: true, Delivered: delivered})
}

// handleSession serves GET and POST /session. Without an id a new session is
// minted, whatever the session mode.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID, err := s.resolver.Optional(r, body)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if sessionID == "" {
		sessionID = session.NewID()
		status = http.StatusCreated
	}
	w.Header().Set(session.Header, sessionID)

	info, err := s.svc.Session(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, status, info)
}

func (s *Server) handlePurgeSession(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Purging never mints, even in lenient mode.
	sessionID, err := s.resolver.Optional(r, body)
	if err != nil {
		writeError(w, err)
		return
	}
	if sessionID == "" {
		writeError(w, board.NewSessionRequired())
		return
	}
	w.Header().Set(session.Header, sessionID)

	disconnected, err := s.svc.Purge(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PurgeResponse{
		Success:      true,
		SessionID:    sessionID,
		Disconnected: disconnected,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	_, sessionID, ok := s.begin(w, r)
	if !ok {
		return
	}
	broadcast.ServeSSE(w, r, s.hub.Subscribe(sessionID))
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	engine := s.svc.Engine()
	writeJSON(w, http.StatusOK, ZonesResponse{
		Zones:    engine.Zones(),
		FreeArea: engine.FreeArea(),
	})
}

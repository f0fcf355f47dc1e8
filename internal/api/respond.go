package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string          `json:"error"`
	Code    board.ErrorCode `json:"code"`
	Details map[string]any  `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	bErr := board.AsError(err)
	if bErr.Code == board.ErrInternal {
		log.Printf("[ERROR] %v", err)
	}
	writeJSON(w, bErr.Status, ErrorResponse{
		Error:   bErr.Message,
		Code:    bErr.Code,
		Details: bErr.Details,
	})
}

// readBody reads the whole request body once so that both the session
// resolver and the handler can look at it.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, board.NewInvalidRequest(fmt.Sprintf("failed to read request body: %v", err))
	}
	return data, nil
}

// decodeBody unmarshals a JSON body into v. An empty body leaves v untouched.
func decodeBody(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return board.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// begin reads the body and resolves the session, echoing the id in the
// response header. On failure the error reply is already written.
func (s *Server) begin(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}

	sessionID, err := s.resolver.Resolve(r, body)
	if err != nil {
		writeError(w, err)
		return nil, "", false
	}
	w.Header().Set(session.Header, sessionID)
	return body, sessionID, true
}

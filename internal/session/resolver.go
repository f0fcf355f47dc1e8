// Package session resolves which board session a request addresses.
package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/dyluth/easel/pkg/board"
	"github.com/google/uuid"
)

// Header carries the session id on requests and responses.
const Header = "X-Session-Id"

// MaxIDLength bounds accepted session ids.
const MaxIDLength = 128

// Mode decides what happens when a request names no session.
type Mode string

const (
	// ModeStrict rejects requests without a session id.
	ModeStrict Mode = "strict"
	// ModeLenient mints a fresh session id.
	ModeLenient Mode = "lenient"
)

// Validate checks if the Mode is a valid enum value.
func (m Mode) Validate() error {
	switch m {
	case ModeStrict, ModeLenient:
		return nil
	default:
		return fmt.Errorf("session mode must be 'strict' or 'lenient' (got %q)", m)
	}
}

var queryKeys = []string{"sessionId", "session_id", "session"}

// Resolver extracts session ids from requests.
type Resolver struct {
	mode Mode
	mint func() string
}

// NewResolver creates a resolver. An empty mode means ModeStrict.
func NewResolver(mode Mode) *Resolver {
	if mode == "" {
		mode = ModeStrict
	}
	return &Resolver{mode: mode, mint: NewID}
}

// Mode returns the resolver's mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// NewID mints a session id.
func NewID() string {
	return uuid.NewString()
}

// Resolve returns the session id named by req, looking at the X-Session-Id
// header, then the sessionId, session_id and session query parameters, then
// the sessionId and session_id fields of a JSON object body. body is the
// already-read request body and may be nil.
//
// When no id is present, strict mode returns SESSION_REQUIRED and lenient
// mode mints one. A present but malformed id is INVALID_REQUEST in both modes.
func (r *Resolver) Resolve(req *http.Request, body []byte) (string, error) {
	raw, found := lookup(req, body)
	if !found {
		if r.mode == ModeLenient {
			return r.mint(), nil
		}
		return "", board.NewSessionRequired()
	}
	return Validate(raw)
}

// Optional resolves like Resolve but reports a missing id as "" instead of an
// error in either mode.
func (r *Resolver) Optional(req *http.Request, body []byte) (string, error) {
	raw, found := lookup(req, body)
	if !found {
		return "", nil
	}
	return Validate(raw)
}

// Validate trims id and checks that it is usable as a session id.
func Validate(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", board.NewInvalidRequest("session id must not be empty")
	}
	if len(id) > MaxIDLength {
		return "", board.NewInvalidRequest(fmt.Sprintf("session id exceeds %d characters", MaxIDLength))
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", board.NewInvalidRequest("session id must not contain whitespace or control characters")
		}
	}
	return id, nil
}

func lookup(req *http.Request, body []byte) (string, bool) {
	if v := req.Header.Get(Header); strings.TrimSpace(v) != "" {
		return v, true
	}

	query := req.URL.Query()
	for _, key := range queryKeys {
		if v := query.Get(key); strings.TrimSpace(v) != "" {
			return v, true
		}
	}

	if len(body) == 0 {
		return "", false
	}
	var fields struct {
		SessionID      string `json:"sessionId"`
		SessionIDSnake string `json:"session_id"`
	}
	// Non-object bodies simply carry no session id.
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", false
	}
	if strings.TrimSpace(fields.SessionID) != "" {
		return fields.SessionID, true
	}
	if strings.TrimSpace(fields.SessionIDSnake) != "" {
		return fields.SessionIDSnake, true
	}
	return "", false
}

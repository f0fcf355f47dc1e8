// Package client is a small HTTP client for the Easel API, used by the easel
// CLI and the watch feeds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dyluth/easel/internal/api"
	"github.com/dyluth/easel/internal/items"
	"github.com/dyluth/easel/internal/session"
	"github.com/dyluth/easel/pkg/board"
)

// DefaultServer is the address easeld listens on by default.
const DefaultServer = "http://localhost:8080"

// Client talks to one Easel server on behalf of one session.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// New creates a client for server. sessionID may be empty until a session is
// created with CreateSession.
func New(server, sessionID string, httpClient *http.Client) (*Client, error) {
	if server == "" {
		server = DefaultServer
	}
	if _, err := url.Parse(server); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(server, "/"),
		sessionID:  sessionID,
		httpClient: httpClient,
	}, nil
}

// SessionID returns the session the client acts on.
func (c *Client) SessionID() string {
	return c.sessionID
}

// CreateSession asks the server for a fresh session and adopts it.
func (c *Client) CreateSession(ctx context.Context) (*items.SessionInfo, error) {
	var info items.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/session", "", nil, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.SessionID
	return &info, nil
}

// Session describes the client's session.
func (c *Client) Session(ctx context.Context) (*items.SessionInfo, error) {
	var info items.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/session", c.sessionID, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListItems returns the session's items.
func (c *Client) ListItems(ctx context.Context) ([]board.Item, error) {
	var resp api.ListResponse
	if err := c.do(ctx, http.MethodGet, "/items", c.sessionID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// BatchDelete removes ids from the session.
func (c *Client) BatchDelete(ctx context.Context, ids []string) (*items.BatchDeleteOutput, error) {
	var resp api.BatchDeleteResponse
	if err := c.do(ctx, http.MethodPost, "/board-items/batch-delete", c.sessionID, api.BatchDeleteRequest{ItemIDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp.BatchDeleteOutput, nil
}

// Focus asks the session's viewers to focus on an item.
func (c *Client) Focus(ctx context.Context, in items.FocusInput) (int, error) {
	var resp api.FocusResponse
	if err := c.do(ctx, http.MethodPost, "/focus", c.sessionID, in, &resp); err != nil {
		return 0, err
	}
	return resp.Delivered, nil
}

// Reset purges the session.
func (c *Client) Reset(ctx context.Context) (*api.PurgeResponse, error) {
	var resp api.PurgeResponse
	if err := c.do(ctx, http.MethodDelete, "/session", c.sessionID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events opens the session's event stream. The caller must close the
// returned body.
func (c *Client) Events(ctx context.Context) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/events", c.sessionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, sessionID string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(session.Header, sessionID)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path, sessionID string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, sessionID, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error reply into a *board.Error.
func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read error response: %w", err)
	}

	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Code == "" {
		return fmt.Errorf("unexpected %d response: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return &board.Error{
		Code:    body.Code,
		Status:  resp.StatusCode,
		Message: body.Error,
		Details: body.Details,
	}
}

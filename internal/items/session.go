package items

import (
	"context"
	"fmt"

	"github.com/dyluth/easel/pkg/board"
)

// SessionInfo describes a session.
type SessionInfo struct {
	SessionID        string `json:"sessionId"`
	ItemCount        int    `json:"itemCount"`
	CreatedAt        string `json:"createdAt"`
	ConnectedClients int    `json:"connectedClients"`
}

// Session creates the session if needed, refreshes its expiry and describes it.
func (s *Service) Session(ctx context.Context, sessionID string) (*SessionInfo, error) {
	meta, err := s.store.Touch(ctx, sessionID)
	if err != nil {
		return nil, board.NewInternal(fmt.Errorf("failed to touch session %s: %w", sessionID, err))
	}

	items, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, board.NewInternal(fmt.Errorf("failed to load session %s: %w", sessionID, err))
	}

	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	return &SessionInfo{
		SessionID:        sessionID,
		ItemCount:        len(items),
		CreatedAt:        board.Timestamp(createdAt),
		ConnectedClients: s.hub.Connections(sessionID),
	}, nil
}

// Purge deletes the session's items and metadata, tells its viewers and
// disconnects them. It returns the number of viewers disconnected here.
func (s *Service) Purge(ctx context.Context, sessionID string) (int, error) {
	err := s.locks.Do(ctx, sessionID, func() error {
		if err := s.store.Purge(ctx, sessionID); err != nil {
			return board.NewInternal(fmt.Errorf("failed to purge session %s: %w", sessionID, err))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notify(ctx, sessionID, board.EventSessionReset, board.SessionResetPayload{SessionID: sessionID})
	return s.hub.CloseSession(sessionID), nil
}

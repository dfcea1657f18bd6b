package history

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one persisted conversational message belonging to a session.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the bounded per-session turn log. Turns are written in
// user/assistant pairs and the store keeps at most its configured limit per
// session, discarding the oldest rows first.
type Store interface {
	AppendPair(ctx context.Context, sessionID, userText, assistantText string) error
	Recent(ctx context.Context, sessionID string) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

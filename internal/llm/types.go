package llm

import (
	"context"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion call. The voice flows use a smaller, faster
// model tier than the text flow, so these are supplied per call rather than
// fixed on the client.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Client generates a reply for an ordered list of role-tagged messages.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

package llm

import (
	"context"
	"sync"
)

// MockClient is a canned completion client for tests.
type MockClient struct {
	mu           sync.Mutex
	Reply        string
	Err          error
	Calls        int
	LastMessages []Message
	LastOptions  Options
}

func (c *MockClient) Complete(_ context.Context, messages []Message, opts Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls++
	c.LastMessages = append([]Message(nil), messages...)
	c.LastOptions = opts
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process turn log for local/dev use.
type InMemoryStore struct {
	mu    sync.RWMutex
	limit int
	turns map[string][]Turn
}

func NewInMemoryStore(limit int) *InMemoryStore {
	if limit <= 0 {
		limit = 20
	}
	return &InMemoryStore{limit: limit, turns: make(map[string][]Turn)}
}

func (s *InMemoryStore) AppendPair(_ context.Context, sessionID, userText, assistantText string) error {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	arr := append(s.turns[sessionID],
		Turn{ID: uuid.NewString(), SessionID: sessionID, Role: RoleUser, Content: userText, CreatedAt: now},
		Turn{ID: uuid.NewString(), SessionID: sessionID, Role: RoleAssistant, Content: assistantText, CreatedAt: now},
	)
	if excess := len(arr) - s.limit; excess > 0 {
		arr = append(arr[:0:0], arr[excess:]...)
	}
	s.turns[sessionID] = arr
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[sessionID]
	if len(arr) == 0 {
		return nil, nil
	}
	out := make([]Turn, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, sessionID)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development. It
// serializes through JSON like the Redis store so round-trip behavior matches.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, d Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft: marshal: %w", err)
	}
	s.mu.Lock()
	s.slots[sessionID] = body
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Draft, error) {
	s.mu.Lock()
	body, ok := s.slots[sessionID]
	s.mu.Unlock()
	if !ok {
		return Draft{}, ErrNoDraft
	}
	var d Draft
	if err := json.Unmarshal(body, &d); err != nil {
		return Draft{}, fmt.Errorf("draft: unmarshal: %w", err)
	}
	return d, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.slots, sessionID)
	s.mu.Unlock()
	return nil
}

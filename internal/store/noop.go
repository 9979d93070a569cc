package store

import (
	"context"
	"sync"
)

// NoopStore is used when persistence is disabled. Transcript writes are
// discarded; the enabled flag lives in memory for the life of the process.
type NoopStore struct {
	mu      sync.Mutex
	enabled bool
}

func (s *NoopStore) GetEnabled(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled, nil
}

func (s *NoopStore) SetEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	return nil
}

func (s *NoopStore) CreateConversation(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}

func (s *NoopStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	return nil, ErrNotFound
}

func (s *NoopStore) ListConversations(ctx context.Context, limit int) ([]Conversation, error) {
	return nil, nil
}

func (s *NoopStore) DeleteConversation(ctx context.Context, id string) error {
	return nil
}

func (s *NoopStore) AddMessage(ctx context.Context, conversationID string, msg *Message) error {
	return nil
}

func (s *NoopStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return nil, nil
}

func (s *NoopStore) Close() error {
	return nil
}

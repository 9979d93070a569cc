// Package store persists the on/off state and chat transcripts.
package store

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pagetutor/pagetutor/internal/config"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Store is the interface for state and transcript persistence.
type Store interface {
	// Extension state. Off until explicitly enabled.
	GetEnabled(ctx context.Context) (bool, error)
	SetEnabled(ctx context.Context, enabled bool) error

	// Conversations
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// Messages are returned in the order they were added.
	AddMessage(ctx context.Context, conversationID string, msg *Message) error
	Messages(ctx context.Context, conversationID string) ([]Message, error)

	// Lifecycle
	Close() error
}

// Role of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is one chat transcript.
type Conversation struct {
	ID           string
	Title        string // first question, shortened
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Message is one transcript entry.
type Message struct {
	ID             int64
	ConversationID string
	Role           Role
	Content        string
	Interrupted    bool // generation was stopped before the answer finished
	CreatedAt      time.Time
	Sequence       int
}

// NewID returns a fresh conversation ID.
func NewID() string {
	return uuid.NewString()
}

// GetDBPath returns the default database location.
func GetDBPath() (string, error) {
	dataDir, err := config.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "pagetutor.db"), nil
}

// NewStore creates a Store from config. When persistence is disabled it
// returns an in-memory NoopStore.
func NewStore(cfg config.StoreConfig) (Store, error) {
	if !cfg.Enabled {
		return &NoopStore{}, nil
	}
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = GetDBPath(); err != nil {
			return nil, err
		}
	}
	return NewSQLiteStore(path)
}

const maxTitleLen = 60

func titleFrom(content string) string {
	r := []rune(content)
	for i, c := range r {
		if c == '\n' {
			r = r[:i]
			break
		}
	}
	if len(r) > maxTitleLen {
		return string(r[:maxTitleLen-3]) + "..."
	}
	return string(r)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pagetutor/pagetutor/internal/config"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreEnabledDefaultsOff(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	enabled, err := store.GetEnabled(ctx)
	if err != nil {
		t.Fatalf("GetEnabled: %v", err)
	}
	if enabled {
		t.Fatal("expected state to default to off")
	}

	for _, want := range []bool{true, false, true} {
		if err := store.SetEnabled(ctx, want); err != nil {
			t.Fatalf("SetEnabled(%v): %v", want, err)
		}
		got, err := store.GetEnabled(ctx)
		if err != nil {
			t.Fatalf("GetEnabled: %v", err)
		}
		if got != want {
			t.Errorf("expected enabled=%v, got %v", want, got)
		}
	}
}

func TestSQLiteStoreEnabledPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SetEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if enabled, _ := second.GetEnabled(ctx); !enabled {
		t.Error("expected enabled state to survive reopen")
	}
}

func TestSQLiteStoreConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := &Conversation{Provider: "Echo"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	base := time.Now()
	msgs := []*Message{
		{Role: RoleUser, Content: "What is photosynthesis?\nExplain briefly.", CreatedAt: base},
		{Role: RoleAssistant, Content: "Plants turn light into sugar.", CreatedAt: base.Add(time.Second)},
		{Role: RoleUser, Content: "And at night?", CreatedAt: base.Add(2 * time.Second)},
		{Role: RoleAssistant, Content: "They", Interrupted: true, CreatedAt: base.Add(3 * time.Second)},
	}
	for _, m := range msgs {
		if err := store.AddMessage(ctx, conv.ID, m); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	got, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(got) != len(msgs) {
		t.Fatalf("expected %d messages, got %d", len(msgs), len(got))
	}
	for i, m := range got {
		if m.Sequence != i {
			t.Errorf("message %d has sequence %d", i, m.Sequence)
		}
		if m.Content != msgs[i].Content || m.Role != msgs[i].Role {
			t.Errorf("message %d = %+v", i, m)
		}
	}
	if !got[3].Interrupted || got[1].Interrupted {
		t.Error("interrupted flag not round-tripped")
	}

	loaded, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if loaded.Title != "What is photosynthesis?" {
		t.Errorf("expected title from first question, got %q", loaded.Title)
	}
	if loaded.MessageCount != 4 {
		t.Errorf("expected message_count=4, got %d", loaded.MessageCount)
	}
	if loaded.Provider != "Echo" {
		t.Errorf("expected provider Echo, got %q", loaded.Provider)
	}
}

func TestSQLiteStoreListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &Conversation{CreatedAt: time.Now().Add(-time.Hour)}
	recent := &Conversation{CreatedAt: time.Now()}
	for _, c := range []*Conversation{old, recent} {
		if err := store.CreateConversation(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 2 || list[0].ID != recent.ID {
		t.Fatalf("expected most recent first, got %+v", list)
	}
	if list, _ := store.ListConversations(ctx, 1); len(list) != 1 {
		t.Errorf("expected limit to apply, got %d", len(list))
	}

	if err := store.AddMessage(ctx, old.ID, &Message{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteConversation(ctx, old.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := store.GetConversation(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if msgs, _ := store.Messages(ctx, old.ID); len(msgs) != 0 {
		t.Errorf("expected messages to cascade, got %d", len(msgs))
	}
	if err := store.DeleteConversation(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := store.AddMessage(ctx, "missing", &Message{Role: RoleUser, Content: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown conversation, got %v", err)
	}
}

func TestSQLiteStoreMigratesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	legacy := []string{
		`CREATE TABLE conversations (id TEXT PRIMARY KEY, title TEXT, provider TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
		`CREATE TABLE messages (id INTEGER PRIMARY KEY AUTOINCREMENT, conversation_id TEXT NOT NULL,
			role TEXT NOT NULL, content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, sequence INTEGER NOT NULL)`,
		`INSERT INTO conversations (id, title) VALUES ('c1', 'legacy')`,
		`INSERT INTO messages (conversation_id, role, content, sequence) VALUES ('c1', 'user', 'hello', 0)`,
	}
	for _, stmt := range legacy {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("legacy setup: %v", err)
		}
	}
	db.Close()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	conv, err := store.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv.MessageCount != 1 {
		t.Errorf("expected backfilled message_count=1, got %d", conv.MessageCount)
	}
	if err := store.AddMessage(ctx, "c1", &Message{Role: RoleAssistant, Content: "hi", Interrupted: true}); err != nil {
		t.Fatalf("AddMessage after migration: %v", err)
	}
}

func TestNewStoreDisabled(t *testing.T) {
	s, err := NewStore(config.StoreConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*NoopStore); !ok {
		t.Fatalf("expected NoopStore, got %T", s)
	}
	ctx := context.Background()
	if err := s.SetEnabled(ctx, true); err != nil {
		t.Fatal(err)
	}
	if enabled, _ := s.GetEnabled(ctx); !enabled {
		t.Error("noop store should keep the enabled flag in memory")
	}
	if _, err := s.GetConversation(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewStoreDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	s, err := NewStore(config.StoreConfig{Enabled: true})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", s)
	}
}

func TestTitleFrom(t *testing.T) {
	long := "Explain the difference between mitosis and meiosis in simple words please"
	if got := titleFrom(long); len([]rune(got)) != maxTitleLen {
		t.Errorf("expected %d runes, got %q", maxTitleLen, got)
	}
	if got := titleFrom("line one\nline two"); got != "line one" {
		t.Errorf("expected first line, got %q", got)
	}
}

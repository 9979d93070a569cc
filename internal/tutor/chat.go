package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
	"github.com/pagetutor/pagetutor/internal/store"
)

// Conversation is a running chat transcript. It is not safe for concurrent
// use; one question is answered at a time.
type Conversation struct {
	ID    string // empty until the first turn is stored
	Turns []Turn
}

// Turn is one question and its answer.
type Turn struct {
	Question    string
	Answer      string
	Interrupted bool
}

// ChatPrompt frames a question the way the model sees it.
func ChatPrompt(question string) string {
	return "Human: " + question + "\nAI:"
}

// messages replays the transcript followed by the new question.
func (c *Conversation) messages(question string) []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(c.Turns)+1)
	for _, turn := range c.Turns {
		msgs = append(msgs, llm.UserText(ChatPrompt(turn.Question)))
		if turn.Answer != "" {
			msgs = append(msgs, llm.AssistantText(turn.Answer))
		}
	}
	return append(msgs, llm.UserText(ChatPrompt(question)))
}

// Chat answers question in the context of conv. Cancelling ctx stops the
// answer: the partial text is delivered as final, the turn is kept and
// marked interrupted, and ErrStopped is returned.
func (t *Tutor) Chat(ctx context.Context, conv *Conversation, question string, s display.Surface) (Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}, ErrEmptyInput
	}

	s.Status("Generating...")
	req := t.request(t.opts.SystemPrompt, conv.messages(question)...)
	r, err := t.run(ctx, req, s)
	if err != nil && ctx.Err() == nil {
		s.Fail(FailChat)
		return r, fmt.Errorf("chat: %w", err)
	}

	turn := Turn{Question: question, Answer: r.Markdown, Interrupted: err != nil}
	conv.Turns = append(conv.Turns, turn)
	// The transcript is saved even when the request context is gone.
	t.persist(context.WithoutCancel(ctx), conv, turn)

	if turn.Interrupted {
		return t.stop(r, s), ErrStopped
	}
	return r, nil
}

func (t *Tutor) persist(ctx context.Context, conv *Conversation, turn Turn) {
	st := t.opts.Store
	if conv.ID == "" {
		c := &store.Conversation{Provider: t.provider.Name()}
		if err := st.CreateConversation(ctx, c); err != nil {
			slog.Warn("failed to create conversation", "error", err)
			return
		}
		conv.ID = c.ID
	}
	now := time.Now()
	msgs := []*store.Message{
		{Role: store.RoleUser, Content: turn.Question, CreatedAt: now},
		{Role: store.RoleAssistant, Content: turn.Answer, Interrupted: turn.Interrupted, CreatedAt: now},
	}
	for _, m := range msgs {
		if err := st.AddMessage(ctx, conv.ID, m); err != nil {
			slog.Warn("failed to save chat message", "conversation", conv.ID, "error", err)
			return
		}
	}
}

// LoadConversation rebuilds a conversation from the store.
func (t *Tutor) LoadConversation(ctx context.Context, id string) (*Conversation, error) {
	if _, err := t.opts.Store.GetConversation(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := t.opts.Store.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return ConversationFromMessages(id, msgs), nil
}

// ConversationFromMessages pairs stored messages into turns. An unanswered
// trailing question becomes a turn with no answer.
func ConversationFromMessages(id string, msgs []store.Message) *Conversation {
	conv := &Conversation{ID: id}
	for _, m := range msgs {
		switch m.Role {
		case store.RoleUser:
			conv.Turns = append(conv.Turns, Turn{Question: m.Content})
		case store.RoleAssistant:
			if len(conv.Turns) == 0 {
				continue
			}
			last := &conv.Turns[len(conv.Turns)-1]
			last.Answer = m.Content
			last.Interrupted = m.Interrupted
		}
	}
	return conv
}

// IsStopped reports whether err means the user stopped generation.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

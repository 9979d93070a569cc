package serve

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pagetutor/pagetutor/internal/store"
)

type conversationJSON struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Provider     string        `json:"provider,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	MessageCount int           `json:"message_count"`
	Messages     []messageJSON `json:"messages,omitempty"`
}

type messageJSON struct {
	Role        store.Role `json:"role"`
	Content     string     `json:"content"`
	HTML        string     `json:"html"`
	Interrupted bool       `json:"interrupted,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toConversationJSON(c store.Conversation) conversationJSON {
	return conversationJSON{
		ID:           c.ID,
		Title:        c.Title,
		Provider:     c.Provider,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: c.MessageCount,
	}
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit")
			return
		}
		limit = n
	}
	convs, err := s.store.ListConversations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	out := make([]conversationJSON, 0, len(convs))
	for _, c := range convs {
		out = append(out, toConversationJSON(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		s.getConversation(w, r, id)
	case http.MethodDelete:
		err := s.store.DeleteConversation(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		s.mu.Lock()
		delete(s.chats, id)
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
	}
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request, id string) {
	conv, err := s.store.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	msgs, err := s.store.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	out := toConversationJSON(*conv)
	out.Messages = make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		html := m.Content
		if m.Role == store.RoleAssistant {
			html = s.tutor.Render(m.Content)
		}
		out.Messages = append(out.Messages, messageJSON{
			Role:        m.Role,
			Content:     m.Content,
			HTML:        html,
			Interrupted: m.Interrupted,
			CreatedAt:   m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

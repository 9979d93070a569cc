package serve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/page"
	"github.com/pagetutor/pagetutor/internal/store"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

// sseSurface forwards surface calls as server-sent events.
type sseSurface struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	failed  bool
	broken  bool
}

func newSSESurface(w http.ResponseWriter) (*sseSurface, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseSurface{w: w, flusher: flusher}, true
}

func (s *sseSurface) send(event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	if err := writeSSEEvent(s.w, event, payload); err != nil {
		// Client went away; the request context ends the flow.
		s.broken = true
		return
	}
	s.flusher.Flush()
}

func (s *sseSurface) Status(msg string) {
	s.send("status", map[string]string{"message": msg})
}

func (s *sseSurface) Update(html string) {
	s.send("update", map[string]string{"html": html})
}

func (s *sseSurface) Done(html, plain string) {
	s.send("done", map[string]string{"html": html, "plain": plain})
}

func (s *sseSurface) Fail(msg string) {
	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
	s.send("error", map[string]string{"message": msg})
}

// finish reports an error the flow returned without showing it.
func (s *sseSurface) finish(err error) {
	if err == nil || errors.Is(err, tutor.ErrStopped) {
		return
	}
	s.mu.Lock()
	failed := s.failed
	s.mu.Unlock()
	if !failed {
		s.Fail(err.Error())
	}
}

var _ display.Surface = (*sseSurface)(nil)

// stream runs flow against an SSE surface once the request has been
// decoded and the tutor is known to be on.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, name string, flow func(ctx context.Context, sur display.Surface) error) {
	sur, ok := newSSESurface(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "server_error", "streaming unsupported")
		return
	}
	err := flow(r.Context(), sur)
	if err != nil && !errors.Is(err, tutor.ErrStopped) {
		slog.Warn("flow failed", "flow", name, "error", err)
	}
	sur.finish(err)
}

type summarizeRequest struct {
	URL    string `json:"url,omitempty"`
	Text   string `json:"text,omitempty"`
	Type   string `json:"type,omitempty"`
	Length string `json:"length,omitempty"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !s.decodePost(w, r, &req) || !s.requireEnabled(w, r) {
		return
	}
	if strings.TrimSpace(req.URL) == "" && strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "url or text is required")
		return
	}
	s.stream(w, r, "summarize", func(ctx context.Context, sur display.Surface) error {
		text := req.Text
		if text == "" {
			p, err := s.readPage(ctx, req.URL, tutor.FailSummarize, sur)
			if err != nil {
				return err
			}
			text = p.Text
		}
		_, err := s.tutor.Summarize(ctx, text, tutor.SummarizeOptions{Type: req.Type, Length: req.Length}, sur)
		return err
	})
}

// readPage extracts a page for a flow, reporting failures on sur with the
// flow's own failure text.
func (s *Server) readPage(ctx context.Context, rawURL, failure string, sur display.Surface) (page.Page, error) {
	if s.pages == nil {
		return page.Page{}, errors.New("page extraction is not configured")
	}
	sur.Status("Reading page...")
	p, err := s.pages.Extract(ctx, rawURL)
	if err != nil {
		sur.Fail(failure)
		return page.Page{}, err
	}
	return p, nil
}

type simplifyRequest struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	var req simplifyRequest
	if !s.decodePost(w, r, &req) || !s.requireEnabled(w, r) {
		return
	}
	if req.Level == "" {
		req.Level = tutor.LevelBasic
	}
	s.stream(w, r, "simplify", func(ctx context.Context, sur display.Surface) error {
		_, err := s.tutor.Simplify(ctx, req.Text, req.Level, sur)
		return err
	})
}

type quizRequest struct {
	Kind  string `json:"kind"`
	Topic string `json:"topic,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if !s.decodePost(w, r, &req) || !s.requireEnabled(w, r) {
		return
	}
	if req.Kind == "" {
		req.Kind = tutor.QuizMultiChoice
	}
	s.stream(w, r, "quiz", func(ctx context.Context, sur display.Surface) error {
		topic := req.Topic
		if topic == "" && req.URL != "" {
			p, err := s.readPage(ctx, req.URL, tutor.FailQuiz, sur)
			if err != nil {
				return err
			}
			topic = p.Text
		}
		_, err := s.tutor.Quiz(ctx, req.Kind, topic, sur)
		return err
	})
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decodePost(w, r, &req) || !s.requireEnabled(w, r) {
		return
	}
	s.stream(w, r, "translate", func(ctx context.Context, sur display.Surface) error {
		_, err := s.tutor.Translate(ctx, req.Text, req.Target, sur)
		return err
	})
}

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decodePost(w, r, &req) || !s.requireEnabled(w, r) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
		return
	}
	session, err := s.chatSession(r.Context(), req.ConversationID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	s.stream(w, r, "chat", func(ctx context.Context, sur display.Surface) error {
		session.mu.Lock()
		defer session.mu.Unlock()
		_, err := s.tutor.Chat(ctx, session.conv, req.Message, sur)
		if id := session.conv.ID; id != "" {
			s.rememberChat(id, session)
			if ss, ok := sur.(*sseSurface); ok {
				ss.send("conversation", map[string]string{"id": id})
			}
		}
		return err
	})
}

// chatSession returns the live session for id, loading it from the store
// if needed. An empty id starts a new conversation.
func (s *Server) chatSession(ctx context.Context, id string) (*chatSession, error) {
	if id == "" {
		return &chatSession{conv: &tutor.Conversation{}}, nil
	}
	s.mu.Lock()
	session, ok := s.chats[id]
	if ok {
		session.lastUsed = time.Now()
	}
	s.mu.Unlock()
	if ok {
		return session, nil
	}
	conv, err := s.tutor.LoadConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.chats[id]; ok {
		return existing, nil
	}
	session = &chatSession{conv: conv}
	s.addChatLocked(id, session)
	return session, nil
}

func (s *Server) rememberChat(id string, session *chatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addChatLocked(id, session)
}

// addChatLocked caches session under id, then evicts the least recently
// used idle sessions while the cache is over its bound. A session that is
// answering holds its lock and is never evicted. s.mu must be held.
func (s *Server) addChatLocked(id string, session *chatSession) {
	session.lastUsed = time.Now()
	s.chats[id] = session
	for len(s.chats) > s.maxChats {
		victim := ""
		var oldest time.Time
		for cid, cs := range s.chats {
			if cid == id || (victim != "" && !cs.lastUsed.Before(oldest)) {
				continue
			}
			if !cs.mu.TryLock() {
				continue
			}
			cs.mu.Unlock()
			victim, oldest = cid, cs.lastUsed
		}
		if victim == "" {
			return
		}
		delete(s.chats, victim)
	}
}

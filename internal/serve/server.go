// Package serve exposes the tutor flows over HTTP. Flow endpoints stream
// server-sent events carrying the re-rendered HTML of the answer so far;
// the embedded page plays the part of the extension popup.
package serve

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/page"
	"github.com/pagetutor/pagetutor/internal/serveui"
	"github.com/pagetutor/pagetutor/internal/store"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

// DisabledMessage is returned by flow endpoints while the tutor is off.
const DisabledMessage = "pagetutor is disabled"

// Config controls the listener and access checks.
type Config struct {
	Host        string
	Port        int
	RequireAuth bool
	Token       string
	CORSOrigins []string
	UI          bool
}

// Server is the HTTP front end of a Tutor.
type Server struct {
	cfg    Config
	tutor  *tutor.Tutor
	store  store.Store
	pages  page.Extractor
	server *http.Server

	mu       sync.Mutex
	chats    map[string]*chatSession
	maxChats int
}

// maxChatSessions bounds the conversations kept in memory. Evicted ones are
// reloaded from the store on their next question.
const maxChatSessions = 256

// chatSession serializes questions on one conversation.
type chatSession struct {
	mu       sync.Mutex
	conv     *tutor.Conversation
	lastUsed time.Time // guarded by Server.mu
}

// New creates a Server. Transcripts and the on/off state use the tutor's store.
func New(cfg Config, t *tutor.Tutor, pages page.Extractor) *Server {
	return &Server{
		cfg:      cfg,
		tutor:    t,
		store:    t.Store(),
		pages:    pages,
		chats:    make(map[string]*chatSession),
		maxChats: maxChatSessions,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/state", s.cors(s.auth(s.handleState)))
	mux.HandleFunc("/api/render", s.cors(s.auth(s.handleRender)))
	mux.HandleFunc("/api/summarize", s.cors(s.auth(s.handleSummarize)))
	mux.HandleFunc("/api/simplify", s.cors(s.auth(s.handleSimplify)))
	mux.HandleFunc("/api/quiz", s.cors(s.auth(s.handleQuiz)))
	mux.HandleFunc("/api/translate", s.cors(s.auth(s.handleTranslate)))
	mux.HandleFunc("/api/chat", s.cors(s.auth(s.handleChat)))
	mux.HandleFunc("/api/conversations", s.cors(s.auth(s.handleConversations)))
	mux.HandleFunc("/api/conversations/{id}", s.cors(s.auth(s.handleConversation)))

	if s.cfg.UI {
		mux.HandleFunc("/{$}", s.handleUI)
		mux.HandleFunc("/ui", s.handleUI)
	}
	return mux
}

// Start listens in the background. It returns an error if the listener
// fails right away, for example when the port is taken.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "provider": s.tutor.Provider().Name()})
}

func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(serveui.IndexHTML())
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if !s.cfg.RequireAuth {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, prefix) {
			writeError(w, http.StatusUnauthorized, "invalid_api_key", "invalid authentication credentials")
			return
		}
		gotToken := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
		if subtle.ConstantTimeCompare([]byte(gotToken), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid_api_key", "invalid authentication credentials")
			return
		}
		next(w, r)
	}
}

func (s *Server) cors(next http.HandlerFunc) http.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.cfg.CORSOrigins))
	allowAll := false
	for _, origin := range s.cfg.CORSOrigins {
		o := strings.TrimSpace(origin)
		if o == "" {
			continue
		}
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

type stateBody struct {
	Enabled bool `json:"enabled"`
}

// handleState is the GET_STATE / UPDATE_STATE pair.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		if err := requireJSONContentType(r); err != nil {
			writeError(w, http.StatusUnsupportedMediaType, "invalid_request_error", err.Error())
			return
		}
		var body stateBody
		if err := decodeJSONBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
			return
		}
		if err := s.store.SetEnabled(r.Context(), body.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
	default:
		w.Header().Set("Allow", "GET, PUT, POST")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return
	}
	enabled, err := s.store.GetEnabled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stateBody{Enabled: enabled})
}

type renderRequest struct {
	Markdown string `json:"markdown"`
	Engine   string `json:"engine,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	html := s.tutor.Render(req.Markdown)
	if req.Engine != "" {
		engine, err := markdown.NewEngine(req.Engine)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
			return
		}
		html = engine(req.Markdown)
	}
	writeJSON(w, http.StatusOK, map[string]any{"html": html, "plain": markdown.PlainText(html)})
}

// decodePost checks method and content type and decodes the JSON body.
// It writes the error response and returns false on failure.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "invalid_request_error", "method not allowed")
		return false
	}
	if err := requireJSONContentType(r); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, "invalid_request_error", err.Error())
		return false
	}
	if err := decodeJSONBody(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// requireEnabled answers 409 while the tutor is switched off.
func (s *Server) requireEnabled(w http.ResponseWriter, r *http.Request) bool {
	enabled, err := s.store.GetEnabled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return false
	}
	if !enabled {
		writeError(w, http.StatusConflict, "disabled", DisabledMessage)
		return false
	}
	return true
}

package tutor

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/store"
	"github.com/pagetutor/pagetutor/internal/testutil"
)

func TestSimplifyStreamsFrames(t *testing.T) {
	provider := testutil.NewTextProvider("- **one**", "\n- two")
	tut := New(provider, Options{})
	var rec display.Recorder

	r, err := tut.Simplify(context.Background(), "Photosynthesis converts light.", LevelBasic, &rec)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}

	wantFrames := []string{
		"<ul><li><strong>one</strong></li></ul>",
		"<ul><li><strong>one</strong></li><li>two</li></ul>",
	}
	if diff := cmp.Diff(wantFrames, rec.Frames()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	html, plain, ok := rec.Final()
	if !ok || html != wantFrames[1] || plain != "• one\n• two" {
		t.Errorf("final = %q %q %v", html, plain, ok)
	}
	if r.Markdown != "- **one**\n- two" {
		t.Errorf("expected accumulated markdown, got %q", r.Markdown)
	}
	if got := rec.Statuses(); len(got) != 1 || got[0] != "Simplifying..." {
		t.Errorf("statuses = %v", got)
	}

	req := provider.LastRequest()
	if req.Temperature != 1 || req.TopK != 4 {
		t.Errorf("expected temperature 1 and top-k 4, got %v %d", req.Temperature, req.TopK)
	}
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[0].Text != "Pretend to be a Tutor" {
		t.Errorf("unexpected system message %+v", req.Messages[0])
	}
	wantPrompt := "Simplify in very basic language, the given text:\n\nPhotosynthesis converts light."
	if req.Messages[1].Text != wantPrompt {
		t.Errorf("expected prompt %q, got %q", wantPrompt, req.Messages[1].Text)
	}
}

func TestSnapshotChunks(t *testing.T) {
	provider := testutil.NewMockProvider(testutil.MockResponse{
		Chunks:   []string{"# Ti", "tle", "\nbody "},
		Snapshot: true,
	})
	var rec display.Recorder
	r, err := New(provider, Options{}).Quiz(context.Background(), QuizTrueFalse, "", &rec)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"<h1>Ti</h1>", "<h1>Title</h1>", "<h1>Title</h1>body"}
	if diff := cmp.Diff(want, rec.Frames()); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if r.HTML != "<h1>Title</h1>body" {
		t.Errorf("unexpected final html %q", r.HTML)
	}
}

func TestFlowPrompts(t *testing.T) {
	tests := []struct {
		name   string
		run    func(*Tutor, display.Surface) error
		status string
		prompt string
		system string
	}{
		{
			name: "technical",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Simplify(context.Background(), "x", LevelTechnical, s)
				return err
			},
			status: "Simplifying...",
			prompt: "Explain technically in very technical and professional language, the given text:\n\nx",
			system: "Pretend to be a Tutor",
		},
		{
			name: "quiz",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Quiz(context.Background(), QuizMultiChoice, "", s)
				return err
			},
			status: "Generating quiz...",
			prompt: "Generate a multiple-choice quiz.",
			system: "Pretend to be a Tutor",
		},
		{
			name: "quiz with topic",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Quiz(context.Background(), QuizFillBlank, " cells ", s)
				return err
			},
			status: "Generating quiz...",
			prompt: "Generate a fill-in-the-blank quiz. Base the questions on the following text:\n\ncells",
			system: "Pretend to be a Tutor",
		},
		{
			name: "translate",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Translate(context.Background(), "hello", "FR", s)
				return err
			},
			status: "Translating...",
			prompt: "Translate the following text to French. Reply with the translation only.\n\nhello",
		},
		{
			name: "summarize headline",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Summarize(context.Background(), "page", SummarizeOptions{Type: SummaryHeadline, Length: LengthShort}, s)
				return err
			},
			status: "Summarizing...",
			prompt: "Write a single headline of at most 12 words that captures the main point of the text. Reply with the headline only.\n\nText:\n\npage",
			system: summarizerPrompt,
		},
		{
			name: "summarize defaults",
			run: func(tut *Tutor, s display.Surface) error {
				_, err := tut.Summarize(context.Background(), "page", SummarizeOptions{}, s)
				return err
			},
			status: "Summarizing...",
			prompt: "Summarize the text as a markdown bullet list of the 5 most important key points. Each bullet starts with \"- \".\n\nText:\n\npage",
			system: summarizerPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewTextProvider("ok")
			var rec display.Recorder
			if err := tt.run(New(provider, Options{}), &rec); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := rec.Statuses(); len(got) == 0 || got[0] != tt.status {
				t.Errorf("expected status %q, got %v", tt.status, got)
			}
			msgs := provider.LastRequest().Messages
			last := msgs[len(msgs)-1]
			if last.Text != tt.prompt {
				t.Errorf("expected prompt %q, got %q", tt.prompt, last.Text)
			}
			if tt.system == "" {
				if len(msgs) != 1 {
					t.Errorf("expected no system message, got %+v", msgs)
				}
			} else if msgs[0].Text != tt.system {
				t.Errorf("expected system %q, got %q", tt.system, msgs[0].Text)
			}
		})
	}
}

func TestInvalidArguments(t *testing.T) {
	tut := New(testutil.NewTextProvider("x"), Options{})
	ctx := context.Background()
	var rec display.Recorder

	if _, err := tut.Simplify(ctx, "x", "casual", &rec); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := tut.Quiz(ctx, "essay", "", &rec); err == nil {
		t.Error("expected error for unknown quiz kind")
	}
	if _, err := tut.Translate(ctx, "x", "xx", &rec); err == nil {
		t.Error("expected error for unsupported language")
	}
	if _, err := tut.Summarize(ctx, "x", SummarizeOptions{Type: "outline"}, &rec); err == nil {
		t.Error("expected error for unknown summary type")
	}
	if _, err := tut.Summarize(ctx, "x", SummarizeOptions{Length: "huge"}, &rec); err == nil {
		t.Error("expected error for unknown summary length")
	}
}

func TestEmptyInput(t *testing.T) {
	tests := []struct {
		name    string
		run     func(*Tutor, display.Surface) error
		failure string
	}{
		{"summarize", func(tut *Tutor, s display.Surface) error {
			_, err := tut.Summarize(context.Background(), " \n", SummarizeOptions{}, s)
			return err
		}, "Failed to summarize the page. Please try another page or refresh."},
		{"simplify", func(tut *Tutor, s display.Surface) error {
			_, err := tut.Simplify(context.Background(), "", LevelBasic, s)
			return err
		}, "Failed to simplify text."},
		{"translate", func(tut *Tutor, s display.Surface) error {
			_, err := tut.Translate(context.Background(), "", "de", s)
			return err
		}, "Failed to translate text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := testutil.NewTextProvider("x")
			var rec display.Recorder
			err := tt.run(New(provider, Options{}), &rec)
			if !errors.Is(err, ErrEmptyInput) {
				t.Fatalf("expected ErrEmptyInput, got %v", err)
			}
			if rec.Failure() != tt.failure {
				t.Errorf("expected failure %q, got %q", tt.failure, rec.Failure())
			}
			if len(provider.Requests) != 0 {
				t.Error("provider should not be called")
			}
		})
	}
}

func TestProviderFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		resp testutil.MockResponse
	}{
		{"stream error", testutil.MockResponse{Err: boom, StreamErr: true}},
		{"mid-stream error", testutil.MockResponse{Chunks: []string{"par"}, Err: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec display.Recorder
			_, err := New(testutil.NewMockProvider(tt.resp), Options{}).Quiz(context.Background(), QuizTrueFalse, "", &rec)
			if !errors.Is(err, boom) {
				t.Fatalf("expected wrapped boom, got %v", err)
			}
			if rec.Failure() != "Failed to generate quiz." {
				t.Errorf("unexpected failure text %q", rec.Failure())
			}
			if _, _, ok := rec.Final(); ok {
				t.Error("failed flow should not report done")
			}
		})
	}
}

func TestRetryStatus(t *testing.T) {
	provider := &eventProvider{events: []llm.Event{
		{Type: llm.EventRetry, RetryAttempt: 1, RetryMaxAttempts: 4},
		{Type: llm.EventTextDelta, Text: "hi"},
		{Type: llm.EventDone},
	}}
	var rec display.Recorder
	if _, err := New(provider, Options{}).Quiz(context.Background(), QuizTrueFalse, "", &rec); err != nil {
		t.Fatal(err)
	}
	want := []string{"Generating quiz...", "Retrying (1/4)..."}
	if diff := cmp.Diff(want, rec.Statuses()); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestCommonMarkEngine(t *testing.T) {
	engine, err := markdown.NewEngine(markdown.EngineCommonMark)
	if err != nil {
		t.Fatal(err)
	}
	var rec display.Recorder
	r, err := New(testutil.NewTextProvider("# Hi"), Options{Engine: engine}).
		Quiz(context.Background(), QuizTrueFalse, "", &rec)
	if err != nil {
		t.Fatal(err)
	}
	if r.HTML != "<h1>Hi</h1>" {
		t.Errorf("expected goldmark output, got %q", r.HTML)
	}
}

func TestChatTranscript(t *testing.T) {
	provider := testutil.NewMockProvider(
		testutil.MockResponse{Chunks: []string{"Plants ", "make sugar."}},
		testutil.MockResponse{Chunks: []string{"They rest."}},
	)
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	tut := New(provider, Options{Store: st})
	conv := &Conversation{}
	ctx := context.Background()

	var rec display.Recorder
	if _, err := tut.Chat(ctx, conv, "What is photosynthesis?", &rec); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if rec.Statuses()[0] != "Generating..." {
		t.Errorf("unexpected status %v", rec.Statuses())
	}
	if _, err := tut.Chat(ctx, conv, "  And at night?  ", &display.Recorder{}); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	wantMsgs := []llm.Message{
		llm.SystemText("Pretend to be a Tutor"),
		llm.UserText("Human: What is photosynthesis?\nAI:"),
		llm.AssistantText("Plants make sugar."),
		llm.UserText("Human: And at night?\nAI:"),
	}
	if diff := cmp.Diff(wantMsgs, provider.LastRequest().Messages); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	if conv.ID == "" {
		t.Fatal("expected conversation to be stored")
	}
	loaded, err := tut.LoadConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if diff := cmp.Diff(conv.Turns, loaded.Turns); diff != "" {
		t.Errorf("stored transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestChatStop(t *testing.T) {
	started := make(chan struct{})
	provider := testutil.NewMockProvider(testutil.MockResponse{
		Chunks:  []string{"Partial ", "**answer"},
		Block:   true,
		Started: started,
	})
	tut := New(provider, Options{})
	conv := &Conversation{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	var rec display.Recorder
	r, err := tut.Chat(ctx, conv, "Explain", &rec)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if r.Markdown != "Partial **answer" {
		t.Errorf("expected partial answer, got %q", r.Markdown)
	}
	html, _, ok := rec.Final()
	if !ok || html != "Partial **answer" {
		t.Errorf("expected partial answer as final frame, got %q %v", html, ok)
	}
	statuses := rec.Statuses()
	if statuses[len(statuses)-1] != StoppedMessage {
		t.Errorf("expected stop status, got %v", statuses)
	}
	if rec.Failure() != "" {
		t.Errorf("stop is not a failure, got %q", rec.Failure())
	}
	if len(conv.Turns) != 1 || !conv.Turns[0].Interrupted {
		t.Errorf("expected interrupted turn, got %+v", conv.Turns)
	}
}

func TestChatFailure(t *testing.T) {
	provider := testutil.NewMockProvider(testutil.MockResponse{Err: errors.New("overloaded"), StreamErr: true})
	conv := &Conversation{}
	var rec display.Recorder
	if _, err := New(provider, Options{}).Chat(context.Background(), conv, "hi", &rec); err == nil {
		t.Fatal("expected error")
	}
	if rec.Failure() != "Failed to get response. Please try again." {
		t.Errorf("unexpected failure %q", rec.Failure())
	}
	if len(conv.Turns) != 0 {
		t.Errorf("failed turn should not be kept, got %+v", conv.Turns)
	}
	if _, err := New(provider, Options{}).Chat(context.Background(), conv, "   ", &rec); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestConversationFromMessages(t *testing.T) {
	msgs := []store.Message{
		{Role: store.RoleAssistant, Content: "orphan"},
		{Role: store.RoleUser, Content: "q1"},
		{Role: store.RoleAssistant, Content: "a1", Interrupted: true},
		{Role: store.RoleUser, Content: "q2"},
	}
	got := ConversationFromMessages("c", msgs)
	want := &Conversation{ID: "c", Turns: []Turn{
		{Question: "q1", Answer: "a1", Interrupted: true},
		{Question: "q2"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSummaryInstructionLengths(t *testing.T) {
	for _, kind := range SummaryTypes() {
		for _, length := range SummaryLengths() {
			got, err := summaryInstruction(kind, length)
			if err != nil {
				t.Errorf("%s/%s: %v", kind, length, err)
				continue
			}
			if strings.TrimSpace(got) == "" {
				t.Errorf("%s/%s: empty instruction", kind, length)
			}
		}
	}
	got, _ := summaryInstruction(SummaryTLDR, LengthShort)
	if !strings.Contains(got, "a single sentence") {
		t.Errorf("expected singular sentence wording, got %q", got)
	}
}

// eventProvider replays a fixed event list.
type eventProvider struct {
	events []llm.Event
}

func (p *eventProvider) Name() string       { return "events" }
func (p *eventProvider) Credential() string { return "none" }

func (p *eventProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	return &sliceStream{events: p.events}, nil
}

type sliceStream struct {
	events []llm.Event
}

func (s *sliceStream) Recv() (llm.Event, error) {
	if len(s.events) == 0 {
		return llm.Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *sliceStream) Close() error { return nil }

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pagetutor/pagetutor/internal/config"
	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/testutil"
	"github.com/pagetutor/pagetutor/internal/tutor"
	"github.com/pagetutor/pagetutor/internal/ui"
)

func TestReadText(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		stdin    string
		useStdin bool
		want     string
	}{
		{name: "args joined", args: []string{"Where", "is", "it?"}, want: "Where is it?"},
		{name: "piped stdin", stdin: "from a pipe", want: "from a pipe"},
		{name: "stdin flag wins", args: []string{"ignored"}, stdin: "piped", useStdin: true, want: "piped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readText(tt.args, strings.NewReader(tt.stdin), tt.useStdin)
			if err != nil {
				t.Fatalf("readText: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestApplyProviderOverrides(t *testing.T) {
	cfg := config.Default()
	if err := applyProviderOverrides(cfg, "openai:gpt-4o-mini"); err != nil {
		t.Fatalf("applyProviderOverrides: %v", err)
	}
	if cfg.Provider != "openai" || cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected openai/gpt-4o-mini, got %s/%s", cfg.Provider, cfg.OpenAI.Model)
	}

	before := *cfg
	if err := applyProviderOverrides(cfg, ""); err != nil {
		t.Fatalf("empty flag: %v", err)
	}
	if diff := cmp.Diff(before, *cfg); diff != "" {
		t.Errorf("empty flag changed config (-want +got):\n%s", diff)
	}

	if err := applyProviderOverrides(cfg, "nope"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFlowError(t *testing.T) {
	if err := flowError(fmt.Errorf("chat: %w", tutor.ErrStopped)); err != nil {
		t.Errorf("expected stopped flows to exit cleanly, got %v", err)
	}
	boom := errors.New("boom")
	if err := flowError(boom); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func setRenderFlags(t *testing.T, engine string, trace, plain bool) {
	t.Helper()
	oldEngine, oldTrace, oldPlain := renderEngine, renderTrace, renderPlain
	renderEngine, renderTrace, renderPlain = engine, trace, plain
	t.Cleanup(func() {
		renderEngine, renderTrace, renderPlain = oldEngine, oldTrace, oldPlain
	})
}

func TestWriteRender(t *testing.T) {
	src := "- **bold** item\n- second"

	setRenderFlags(t, markdown.EngineStream, false, false)
	var buf bytes.Buffer
	if err := writeRender(&buf, src); err != nil {
		t.Fatalf("writeRender: %v", err)
	}
	if want := markdown.Render(src) + "\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}

	setRenderFlags(t, markdown.EngineStream, false, true)
	buf.Reset()
	if err := writeRender(&buf, src); err != nil {
		t.Fatalf("writeRender plain: %v", err)
	}
	if want := "• bold item\n• second\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteRenderTrace(t *testing.T) {
	setRenderFlags(t, markdown.EngineStream, true, false)
	var buf bytes.Buffer
	if err := writeRender(&buf, "# Title"); err != nil {
		t.Fatalf("writeRender: %v", err)
	}
	out := buf.String()
	for _, stage := range markdown.Stages() {
		if !strings.Contains(out, "== "+stage) {
			t.Errorf("expected stage %q in trace, got:\n%s", stage, out)
		}
	}

	setRenderFlags(t, markdown.EngineCommonMark, true, false)
	if err := writeRender(&buf, "x"); err == nil {
		t.Error("expected --trace with commonmark to fail")
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":                    "",
		"short":               "****",
		"sk-ant-1234567890ab": "sk-a****90ab",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestMarshalConfigMasksCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Anthropic.APIKey = "sk-ant-secret-value-1234"
	cfg.Serve.Token = "token-abcdefgh-5678"

	b, err := marshalConfig(cfg)
	if err != nil {
		t.Fatalf("marshalConfig: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "secret-value") || strings.Contains(out, "abcdefgh") {
		t.Errorf("expected credentials masked, got:\n%s", out)
	}
	if !strings.Contains(out, "provider: "+cfg.Provider) {
		t.Errorf("expected provider in output, got:\n%s", out)
	}
	if cfg.Anthropic.APIKey != "sk-ant-secret-value-1234" {
		t.Error("marshalConfig modified the caller's config")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Errorf("expected b, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

type replFixture struct {
	repl   *chatREPL
	out    *bytes.Buffer
	rec    *display.Recorder
	copied []string
	spoken []string
	cancel context.CancelFunc
}

func newREPL(t *testing.T, provider *testutil.MockProvider) *replFixture {
	t.Helper()
	f := &replFixture{out: &bytes.Buffer{}}
	f.repl = &chatREPL{
		tutor:  tutor.New(provider, tutor.Options{}),
		conv:   &tutor.Conversation{},
		out:    f.out,
		styles: ui.DefaultStyles(),
		surface: func() display.Surface {
			f.rec = &display.Recorder{}
			return f.rec
		},
		begin: func(ctx context.Context) (context.Context, func()) {
			ctx, cancel := context.WithCancel(ctx)
			f.cancel = cancel
			return ctx, cancel
		},
		copyText: func(_ context.Context, s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
		speak: func(_ context.Context, s string) error {
			f.spoken = append(f.spoken, s)
			return nil
		},
	}
	return f
}

func TestChatREPLAnswersAndCopies(t *testing.T) {
	f := newREPL(t, testutil.NewTextProvider("Light ", "becomes **sugar**."))
	ctx := context.Background()

	if quit, err := f.repl.handle(ctx, "What does photosynthesis do?"); quit || err != nil {
		t.Fatalf("handle: quit=%v err=%v", quit, err)
	}
	if _, plain, ok := f.rec.Final(); !ok || plain != "Light becomes sugar." {
		t.Errorf("expected final plain answer, got %q (done=%v)", plain, ok)
	}
	if len(f.repl.conv.Turns) != 1 {
		t.Fatalf("expected one turn, got %d", len(f.repl.conv.Turns))
	}

	f.repl.handle(ctx, "/copy")
	if diff := cmp.Diff([]string{"Light becomes sugar."}, f.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(f.out.String(), "Response copied to clipboard!") {
		t.Errorf("expected copy confirmation, got %q", f.out.String())
	}

	f.repl.handle(ctx, "/speak")
	if diff := cmp.Diff([]string{"Light becomes sugar."}, f.spoken); diff != "" {
		t.Errorf("spoken mismatch (-want +got):\n%s", diff)
	}

	f.repl.handle(ctx, "/new")
	if len(f.repl.conv.Turns) != 0 || f.repl.last.Plain != "" {
		t.Error("expected /new to reset the conversation")
	}
	f.out.Reset()
	f.repl.handle(ctx, "/copy")
	if !strings.Contains(f.out.String(), "Nothing to copy yet.") {
		t.Errorf("expected nothing-to-copy message, got %q", f.out.String())
	}
}

func TestChatREPLAutoCopy(t *testing.T) {
	f := newREPL(t, testutil.NewTextProvider("Forty-two."))
	f.repl.autoCopy = true
	f.repl.handle(context.Background(), "Answer?")
	if diff := cmp.Diff([]string{"Forty-two."}, f.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
}

func TestChatREPLStopKeepsPartialAnswer(t *testing.T) {
	started := make(chan struct{})
	provider := testutil.NewMockProvider(testutil.MockResponse{
		Chunks:  []string{"Partial answer"},
		Block:   true,
		Started: started,
	})
	f := newREPL(t, provider)

	go func() {
		<-started
		f.cancel()
	}()
	quit, err := f.repl.handle(context.Background(), "Tell me everything")
	if quit || err != nil {
		t.Fatalf("handle: quit=%v err=%v", quit, err)
	}
	if _, plain, ok := f.rec.Final(); !ok || plain != "Partial answer" {
		t.Errorf("expected partial answer delivered, got %q (done=%v)", plain, ok)
	}
	statuses := f.rec.Statuses()
	if len(statuses) == 0 || statuses[len(statuses)-1] != tutor.StoppedMessage {
		t.Errorf("expected stop status last, got %v", statuses)
	}
	if f.repl.last.Plain != "Partial answer" {
		t.Errorf("expected partial answer kept for /copy, got %q", f.repl.last.Plain)
	}
	if !f.repl.conv.Turns[0].Interrupted {
		t.Error("expected turn marked interrupted")
	}
}

func TestChatREPLCommands(t *testing.T) {
	f := newREPL(t, testutil.NewTextProvider("ok"))
	ctx := context.Background()

	if quit, _ := f.repl.handle(ctx, "   "); quit {
		t.Error("blank line should not quit")
	}
	f.repl.handle(ctx, "/bogus")
	if !strings.Contains(f.out.String(), "Unknown command /bogus") {
		t.Errorf("expected unknown command message, got %q", f.out.String())
	}
	for _, cmd := range []string{"/quit", "/exit", "/q"} {
		if quit, err := f.repl.handle(ctx, cmd); !quit || err != nil {
			t.Errorf("%s: expected quit, got quit=%v err=%v", cmd, quit, err)
		}
	}
}

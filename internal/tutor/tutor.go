// Package tutor implements the study flows: summaries, simplified
// explanations, quizzes, translations and chat. Each flow streams a model
// answer, re-renders the whole answer on every chunk and pushes the result
// to a display surface.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pagetutor/pagetutor/internal/config"
	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
	"github.com/pagetutor/pagetutor/internal/markdown"
	"github.com/pagetutor/pagetutor/internal/store"
)

var (
	// ErrEmptyInput is returned when a flow is given no text to work on.
	ErrEmptyInput = errors.New("no text to work with")
	// ErrStopped is returned when the caller stopped generation. The
	// partial answer has already been delivered.
	ErrStopped = errors.New("response generation stopped")
)

// StoppedMessage is shown after a chat answer is cut short.
const StoppedMessage = "Response generation stopped."

// Failure texts shown on a surface when a flow cannot produce an answer.
const (
	FailSummarize = "Failed to summarize the page. Please try another page or refresh."
	FailSimplify  = "Failed to simplify text."
	FailQuiz      = "Failed to generate quiz."
	FailTranslate = "Failed to translate text."
	FailChat      = "Failed to get response. Please try again."
)

// Options configure a Tutor. Zero values fall back to the defaults.
type Options struct {
	SystemPrompt    string
	Temperature     float32
	TopK            int
	MaxOutputTokens int
	Model           string
	Debug           bool
	Engine          markdown.Engine
	Store           store.Store
	Summarize       config.SummarizeConfig
}

// Tutor runs study flows against one provider.
type Tutor struct {
	provider llm.Provider
	opts     Options
}

// Result is the final state of a flow.
type Result struct {
	Markdown string
	HTML     string
	Plain    string
}

// New creates a Tutor.
func New(provider llm.Provider, opts Options) *Tutor {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = config.DefaultSystemPrompt
	}
	if opts.Temperature == 0 {
		opts.Temperature = 1
	}
	if opts.TopK == 0 {
		opts.TopK = 4
	}
	if opts.Engine == nil {
		opts.Engine = markdown.Render
	}
	if opts.Store == nil {
		opts.Store = &store.NoopStore{}
	}
	if opts.Summarize.Type == "" {
		opts.Summarize.Type = SummaryKeyPoints
	}
	if opts.Summarize.Length == "" {
		opts.Summarize.Length = LengthMedium
	}
	return &Tutor{provider: provider, opts: opts}
}

// FromConfig builds Options from the loaded configuration.
func FromConfig(cfg *config.Config, st store.Store) (Options, error) {
	engine, err := markdown.NewEngine(cfg.Render.Engine)
	if err != nil {
		return Options{}, err
	}
	return Options{
		SystemPrompt:    cfg.Tutor.SystemPrompt,
		Temperature:     cfg.Tutor.Temperature,
		TopK:            cfg.Tutor.TopK,
		MaxOutputTokens: cfg.Tutor.MaxOutputTokens,
		Model:           cfg.ModelFor(cfg.Provider),
		Engine:          engine,
		Store:           st,
		Summarize:       cfg.Summarize,
	}, nil
}

// Provider returns the provider the tutor streams from.
func (t *Tutor) Provider() llm.Provider {
	return t.provider
}

// Store returns the transcript store.
func (t *Tutor) Store() store.Store {
	return t.opts.Store
}

// Render converts markdown with the configured engine.
func (t *Tutor) Render(md string) string {
	return t.opts.Engine(md)
}

// request builds a model request from a system prompt and messages.
func (t *Tutor) request(system string, msgs ...llm.Message) llm.Request {
	all := make([]llm.Message, 0, len(msgs)+1)
	if system != "" {
		all = append(all, llm.SystemText(system))
	}
	all = append(all, msgs...)
	return llm.Request{
		Model:           t.opts.Model,
		Messages:        all,
		Temperature:     t.opts.Temperature,
		TopK:            t.opts.TopK,
		MaxOutputTokens: t.opts.MaxOutputTokens,
		Debug:           t.opts.Debug,
	}
}

// run streams req to the surface. Every change to the answer re-renders the
// whole accumulated text. The returned Result holds whatever arrived, even
// when err is non-nil.
func (t *Tutor) run(ctx context.Context, req llm.Request, s display.Surface) (Result, error) {
	stream, err := t.provider.Stream(ctx, req)
	if err != nil {
		return Result{}, err
	}
	defer stream.Close()

	var acc llm.Accumulator
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t.result(acc.Text()), err
		}
		switch ev.Type {
		case llm.EventRetry:
			s.Status(fmt.Sprintf("Retrying (%d/%d)...", ev.RetryAttempt, ev.RetryMaxAttempts))
		case llm.EventError:
			if ev.Err != nil {
				return t.result(acc.Text()), ev.Err
			}
		case llm.EventDone:
			return t.finish(acc.Text(), s), nil
		default:
			if acc.Apply(ev) {
				md := acc.Text()
				display.Update(s, md, t.opts.Engine(md))
			}
		}
	}
	return t.finish(acc.Text(), s), nil
}

func (t *Tutor) result(md string) Result {
	html := t.opts.Engine(md)
	return Result{Markdown: md, HTML: html, Plain: markdown.PlainText(html)}
}

func (t *Tutor) finish(md string, s display.Surface) Result {
	r := t.result(md)
	display.Done(s, r.Markdown, r.HTML, r.Plain)
	return r
}

// oneShot runs a flow that has a single prompt and a fixed failure message.
func (t *Tutor) oneShot(ctx context.Context, op, status, failure string, req llm.Request, s display.Surface) (Result, error) {
	s.Status(status)
	r, err := t.run(ctx, req, s)
	if err != nil {
		if ctx.Err() != nil {
			return t.stop(r, s), ErrStopped
		}
		s.Fail(failure)
		return r, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// stop delivers a partial answer as final and reports the stop.
func (t *Tutor) stop(r Result, s display.Surface) Result {
	display.Done(s, r.Markdown, r.HTML, r.Plain)
	s.Status(StoppedMessage)
	return r
}

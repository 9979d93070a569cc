package llm

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// EchoProvider answers offline by streaming the last user message back one
// word at a time. It needs no credentials, which makes it useful for demos
// and for exercising the streaming path end to end.
type EchoProvider struct {
	// Delay between chunks.
	Delay time.Duration
	// Cumulative sends the whole text so far with every chunk instead of
	// the new word only.
	Cumulative bool
	// Reply, when set, is streamed instead of the user message.
	Reply string
}

func NewEchoProvider() *EchoProvider {
	return &EchoProvider{Delay: 25 * time.Millisecond}
}

func (p *EchoProvider) Name() string {
	return "Echo"
}

func (p *EchoProvider) Credential() string {
	return "none"
}

var wordChunkRe = regexp.MustCompile(`\s*\S+`)

func (p *EchoProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	text := p.Reply
	if text == "" {
		text = lastUserText(req.Messages)
	}
	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		var sofar strings.Builder
		for _, word := range wordChunkRe.FindAllString(text, -1) {
			if p.Delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.Delay):
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
			sofar.WriteString(word)
			if p.Cumulative {
				events <- Event{Type: EventTextSnapshot, Text: sofar.String()}
			} else {
				events <- Event{Type: EventTextDelta, Text: word}
			}
		}
		// Trailing whitespace is not part of any word chunk.
		if rest := text[sofar.Len():]; rest != "" && !p.Cumulative {
			events <- Event{Type: EventTextDelta, Text: rest}
		}
		events <- Event{Type: EventUsage, Use: &Usage{
			InputTokens:  len(strings.Fields(lastUserText(req.Messages))),
			OutputTokens: len(strings.Fields(text)),
		}}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

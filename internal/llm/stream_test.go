package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, s Stream) (string, error) {
	t.Helper()
	defer s.Close()
	var acc Accumulator
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			return acc.Text(), nil
		}
		if err != nil {
			return acc.Text(), err
		}
		acc.Apply(ev)
	}
}

func TestEventStreamOrderAndEOF(t *testing.T) {
	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		for _, w := range []string{"a", "b", "c"} {
			events <- Event{Type: EventTextDelta, Text: w}
		}
		events <- Event{Type: EventDone}
		return nil
	})
	text, err := collect(t, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "abc" {
		t.Errorf("expected abc, got %q", text)
	}
}

func TestEventStreamError(t *testing.T) {
	boom := errors.New("boom")
	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		events <- Event{Type: EventTextDelta, Text: "partial"}
		return boom
	})
	text, err := collect(t, s)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if text != "partial" {
		t.Errorf("expected partial text kept, got %q", text)
	}
}

func TestEventStreamCloseStopsProducer(t *testing.T) {
	exited := make(chan struct{})
	s := newEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		defer close(exited)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case events <- Event{Type: EventTextDelta, Text: "x"}:
			}
		}
	})
	if _, err := s.Recv(); err != nil {
		t.Fatalf("Recv: %v", err)
	}
	s.Close()
	s.Close()

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not exit after Close")
	}
}

func TestEchoProvider(t *testing.T) {
	p := &EchoProvider{}
	s, err := p.Stream(context.Background(), Request{Messages: []Message{
		SystemText("ignored"),
		UserText("**hello**  there\n- item "),
	}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	text, err := collect(t, s)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if text != "**hello**  there\n- item " {
		t.Errorf("echo mismatch: %q", text)
	}
}

func TestEchoProviderCumulative(t *testing.T) {
	p := &EchoProvider{Cumulative: true, Reply: "one two three"}
	s, _ := p.Stream(context.Background(), Request{Messages: []Message{UserText("q")}})
	defer s.Close()

	var snapshots []string
	for {
		ev, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if ev.Type == EventTextSnapshot {
			snapshots = append(snapshots, ev.Text)
		}
	}
	want := []string{"one", "one two", "one two three"}
	if strings.Join(snapshots, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, snapshots)
	}
}

func TestEchoProviderCancel(t *testing.T) {
	p := &EchoProvider{Delay: 50 * time.Millisecond, Reply: strings.Repeat("word ", 100)}
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := p.Stream(ctx, Request{})
	if _, err := s.Recv(); err != nil {
		t.Fatalf("first Recv: %v", err)
	}
	cancel()
	_, err := collect(t, s)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

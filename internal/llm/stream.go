package llm

import (
	"context"
	"io"
	"sync"
)

// eventStream adapts a producer goroutine to the Stream interface.
type eventStream struct {
	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// newEventStream runs produce in a goroutine. Events it sends are returned
// by Recv in order; a non-nil return value is delivered as a final error.
// The channel is closed when produce returns.
func newEventStream(ctx context.Context, produce func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event, 16),
		cancel: cancel,
	}
	go func() {
		defer close(s.events)
		if err := produce(ctx, s.events); err != nil {
			s.events <- Event{Type: EventError, Err: err}
		}
	}()
	return s
}

// Recv returns the next event. An error event is surfaced as the error.
func (s *eventStream) Recv() (Event, error) {
	ev, ok := <-s.events
	if !ok {
		return Event{}, io.EOF
	}
	if ev.Type == EventError && ev.Err != nil {
		return ev, ev.Err
	}
	return ev, nil
}

// Close cancels the producer and drains what it still sends so it can exit.
func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		go func() {
			for range s.events {
			}
		}()
	})
	return nil
}

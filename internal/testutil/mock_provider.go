package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/pagetutor/pagetutor/internal/llm"
)

// MockProvider is a scripted llm.Provider for testing. Each Stream call
// consumes the next response; the last one repeats once the script runs out.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Requests  []llm.Request
}

// MockResponse is one scripted answer.
type MockResponse struct {
	Chunks []string
	// Snapshot sends each chunk as the full text so far.
	Snapshot bool
	// Err is returned by Stream itself when StreamErr is set, otherwise it
	// arrives after the chunks.
	Err       error
	StreamErr bool
	// Block holds the stream open after the chunks until the context ends.
	Block bool
	// Started is closed once the chunks have been sent.
	Started chan struct{}
}

// NewMockProvider creates a provider that answers with the given responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewTextProvider answers every request with text split into the given chunks.
func NewTextProvider(chunks ...string) *MockProvider {
	return NewMockProvider(MockResponse{Chunks: chunks})
}

func (m *MockProvider) Name() string       { return "mock" }
func (m *MockProvider) Credential() string { return "mock" }

// Stream implements llm.Provider.
func (m *MockProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	var resp MockResponse
	switch len(m.responses) {
	case 0:
	case 1:
		resp = m.responses[0]
	default:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if resp.StreamErr {
		return nil, resp.Err
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan llm.Event)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		send := func(ev llm.Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				errc <- ctx.Err()
				return false
			}
		}
		sofar := ""
		for _, chunk := range resp.Chunks {
			sofar += chunk
			ev := llm.Event{Type: llm.EventTextDelta, Text: chunk}
			if resp.Snapshot {
				ev = llm.Event{Type: llm.EventTextSnapshot, Text: sofar}
			}
			if !send(ev) {
				return
			}
		}
		if resp.Started != nil {
			close(resp.Started)
		}
		if resp.Block {
			<-ctx.Done()
			errc <- ctx.Err()
			return
		}
		if resp.Err != nil {
			errc <- resp.Err
			return
		}
		send(llm.Event{Type: llm.EventDone})
	}()
	return &mockStream{events: events, errc: errc, cancel: cancel}, nil
}

// LastRequest returns the most recent request, or the zero Request.
func (m *MockProvider) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return llm.Request{}
	}
	return m.Requests[len(m.Requests)-1]
}

type mockStream struct {
	events <-chan llm.Event
	errc   chan error
	cancel context.CancelFunc
}

func (s *mockStream) Recv() (llm.Event, error) {
	ev, ok := <-s.events
	if ok {
		return ev, nil
	}
	select {
	case err := <-s.errc:
		return llm.Event{}, err
	default:
		return llm.Event{}, io.EOF
	}
}

func (s *mockStream) Close() error {
	s.cancel()
	return nil
}

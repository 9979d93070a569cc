package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// NotifyContext returns a context that is cancelled when SIGINT or SIGTERM is received.
// The returned stop function should be called to release resources.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Stopper turns Ctrl-C into "stop the current answer". While an operation
// started with Begin is running an interrupt cancels it; while idle the
// interrupt is passed to onIdle.
type Stopper struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	onIdle func()

	ch   chan os.Signal
	done chan struct{}
}

// NewStopper starts listening for SIGINT.
func NewStopper(onIdle func()) *Stopper {
	s := &Stopper{onIdle: onIdle, ch: make(chan os.Signal, 1), done: make(chan struct{})}
	signal.Notify(s.ch, os.Interrupt)
	go s.loop()
	return s
}

func (s *Stopper) loop() {
	for {
		select {
		case <-s.ch:
			s.interrupt()
		case <-s.done:
			return
		}
	}
}

func (s *Stopper) interrupt() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		return
	}
	if s.onIdle != nil {
		s.onIdle()
	}
}

// Begin returns a context for one operation. Call end when it finishes.
func (s *Stopper) Begin(parent context.Context) (ctx context.Context, end func()) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	return ctx, func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}
}

// Close stops listening and restores the default interrupt behavior.
func (s *Stopper) Close() {
	signal.Stop(s.ch)
	close(s.done)
}

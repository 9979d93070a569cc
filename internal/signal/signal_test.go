package signal

import (
	"context"
	"testing"
)

func TestStopperCancelsActiveOperation(t *testing.T) {
	idle := 0
	s := &Stopper{onIdle: func() { idle++ }}

	ctx, end := s.Begin(context.Background())
	s.interrupt()
	if ctx.Err() == nil {
		t.Fatal("expected operation context to be cancelled")
	}
	if idle != 0 {
		t.Errorf("interrupt during an operation should not reach onIdle")
	}
	end()

	s.interrupt()
	if idle != 1 {
		t.Errorf("expected idle interrupt to call onIdle once, got %d", idle)
	}
}

func TestStopperEndDetaches(t *testing.T) {
	idle := 0
	s := &Stopper{onIdle: func() { idle++ }}

	ctx, end := s.Begin(context.Background())
	end()
	if ctx.Err() == nil {
		t.Error("end should release the operation context")
	}
	s.interrupt()
	if idle != 1 {
		t.Errorf("expected onIdle after end, got %d", idle)
	}
}

func TestNotifyContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := NotifyContext(parent)
	defer stop()
	cancel()
	<-ctx.Done()
}

package watch

import (
	"context"
	"sync"
)

// Slot runs at most one task at a time. Starting a task cancels the previous
// one and waits for it to return before the new one begins, so tasks complete
// in the order they were started and a superseded task never starts late.
type Slot struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Go supersedes the current task with fn. fn is skipped entirely when it is
// itself superseded (or parent is cancelled) before it gets to run; once
// running it should honour ctx before touching storage.
func (s *Slot) Go(parent context.Context, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	prev := s.done
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}()
}

// Cancel cancels the current task, if any.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the most recently started task has returned.
func (s *Slot) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Package watch provides the push primitives shared by the stores and the
// coordinators: a change notifier, cancellable subscriptions that re-query on
// change, and a latest-value channel.
package watch

import (
	"context"
	"sync"
)

// Notifier broadcasts "something changed" to every registered listener.
// Signals coalesce: a listener that has not consumed the previous signal
// receives no second one.
type Notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]chan struct{})}
}

// Listen registers a listener. The returned func unregisters it.
func (n *Notifier) Listen() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = ch
	n.mu.Unlock()

	return ch, func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Notify signals every listener without blocking.
func (n *Notifier) Notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Latest is a one-slot channel that always holds the newest published value.
// Readers never see a value older than one they could have seen.
type Latest[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed bool
}

func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Publish replaces any unread value with v. It is a no-op after Close.
func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case <-l.ch:
	default:
	}
	l.ch <- v
}

// Close closes the channel. An unread value stays readable.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.ch)
}

func (l *Latest[T]) C() <-chan T { return l.ch }

// Subscription is a live stream of snapshots. The channel is closed once the
// subscription has been cancelled and its goroutine has exited.
type Subscription[T any] struct {
	out    *Latest[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// C yields the current snapshot first, then one snapshot per observed change.
func (s *Subscription[T]) C() <-chan T { return s.out.C() }

// Close cancels the subscription. It does not wait; use Done for that.
func (s *Subscription[T]) Close() { s.cancel() }

// Done is closed after the subscription goroutine has exited.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Watch starts a subscription that calls load once immediately and again after
// every signal from n. When equal is non-nil, a result equal to the previous
// emission is dropped. A load error skips that emission; the caller's load
// func is responsible for reporting it.
func Watch[T any](ctx context.Context, n *Notifier, load func(context.Context) (T, error), equal func(a, b T) bool) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		out:    NewLatest[T](),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// Listen before the first load so no write between load and wait is missed.
	changes, stop := n.Listen()

	go func() {
		defer close(sub.done)
		defer sub.out.Close()
		defer stop()

		var (
			last    T
			emitted bool
		)
		for {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			if err == nil && (!emitted || equal == nil || !equal(last, v)) {
				sub.out.Publish(v)
				last, emitted = v, true
			}

			select {
			case <-ctx.Done():
				return
			case <-changes:
			}
		}
	}()

	return sub
}

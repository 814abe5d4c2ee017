// Package coord holds the coordinators behind each screen. A coordinator is a
// pure reducer, (state, event) -> (state, effects), plus a runner that turns
// effects into subscriptions, writes and timers whose results come back as
// events. State is published as immutable snapshots.
package coord

import (
	"context"
	"log"
	"sync"

	"github.com/sadopc/tally/internal/logging"
	"github.com/sadopc/tally/internal/prefs"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/watch"
)

// CounterStore is the counter persistence the coordinators need.
type CounterStore interface {
	GetCounter(ctx context.Context, id int64) (*store.Counter, error)
	UpsertCounter(ctx context.Context, c store.Counter) (*store.Counter, error)
	DeleteCounter(ctx context.Context, id int64) error
	WatchCounter(ctx context.Context, id int64) *watch.Subscription[*store.Counter]
	WatchCounters(ctx context.Context) *watch.Subscription[[]store.Counter]
}

// PrefStore is the preference persistence the coordinators need.
type PrefStore interface {
	Int(key string) (int64, bool)
	String(key string) (string, bool)
	SetBool(ctx context.Context, key string, v bool) error
	SetInt(ctx context.Context, key string, v int64) error
	SetString(ctx context.Context, key string, v string) error
	WatchBool(ctx context.Context, key string) *watch.Subscription[prefs.Value[bool]]
	WatchInt(ctx context.Context, key string) *watch.Subscription[prefs.Value[int64]]
}

// Effect is a side effect requested by a reducer.
type Effect interface{ effect() }

// machine serialises events through a reducer and runs the resulting effects
// in order. Effects run with the lock held, so runners must not block and
// must not dispatch synchronously.
type machine[S, E any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger

	mu     sync.Mutex
	state  S
	closed bool
	reduce func(S, E) (S, []Effect)
	run    func(Effect)
	out    *watch.Latest[S]
	tasks  sync.WaitGroup
}

func newMachine[S, E any](parent context.Context, initial S, reduce func(S, E) (S, []Effect), logger *log.Logger) *machine[S, E] {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(parent)
	m := &machine[S, E]{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		state:  initial,
		reduce: reduce,
		out:    watch.NewLatest[S](),
	}
	m.out.Publish(initial)
	return m
}

// Dispatch applies ev. It is safe to call from any goroutine; after Close it
// does nothing.
func (m *machine[S, E]) Dispatch(ev E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	next, effects := m.reduce(m.state, ev)
	m.state = next
	m.out.Publish(next)
	for _, e := range effects {
		m.run(e)
	}
}

// State returns the current snapshot.
func (m *machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// States yields the newest snapshot whenever it changes. Intermediate
// snapshots may be skipped by slow readers. Closed by Close.
func (m *machine[S, E]) States() <-chan S {
	return m.out.C()
}

// goTask runs fn on its own goroutine, tracked for close. Only call it from a
// runner (with the lock held).
func (m *machine[S, E]) goTask(fn func(ctx context.Context)) {
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		fn(m.ctx)
	}()
}

func (m *machine[S, E]) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.tasks.Wait()
	m.out.Close()
}

// forward pumps a subscription into the machine until it ends.
func forward[T, S, E any](m *machine[S, E], sub *watch.Subscription[T], wrap func(T) E) {
	m.goTask(func(context.Context) {
		for v := range sub.C() {
			m.Dispatch(wrap(v))
		}
	})
}

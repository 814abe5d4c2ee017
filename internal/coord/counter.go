package coord

import (
	"context"
	"log"

	"github.com/sadopc/tally/internal/prefs"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/watch"
)

// CounterNav is where the counter screen wants to go next.
type CounterNav int

const (
	CounterNavNone CounterNav = iota
	CounterNavSettings
	CounterNavCounters
	CounterNavEditor
)

// CounterState is the counter screen. Counter is nil when no counter is
// available: nothing selected yet, or the selected counter was deleted.
type CounterState struct {
	Loading      bool
	Counter      *store.Counter
	VibrateOnTap bool
	KeepScreenOn bool
	Nav          CounterNav

	watchID int64
}

// CounterEvent is an input to the counter coordinator.
type CounterEvent interface{ counterEvent() }

type (
	Increment    struct{}
	Decrement    struct{}
	Reset        struct{}
	OpenSettings struct{}
	OpenCounters struct{}
	EditCounter  struct{}
)

func (Increment) counterEvent()    {}
func (Decrement) counterEvent()    {}
func (Reset) counterEvent()        {}
func (OpenSettings) counterEvent() {}
func (OpenCounters) counterEvent() {}
func (EditCounter) counterEvent()  {}

type lastUsedChanged struct{ v prefs.Value[int64] }

type counterChanged struct {
	id      int64
	counter *store.Counter
}

func (lastUsedChanged) counterEvent() {}
func (counterChanged) counterEvent()  {}

type watchLastUsed struct{}
type watchCounter struct{ ID int64 }
type stopCounterWatch struct{}
type persistCounter struct{ Counter store.Counter }

func (watchLastUsed) effect()    {}
func (watchCounter) effect()     {}
func (stopCounterWatch) effect() {}
func (persistCounter) effect()   {}

// ReduceCounter is the counter screen's transition function.
func ReduceCounter(s CounterState, ev CounterEvent) (CounterState, []Effect) {
	switch ev := ev.(type) {
	case started:
		s.Loading = true
		return s, []Effect{watchLastUsed{}, watchFlags{}}

	case lastUsedChanged:
		if !ev.v.OK {
			s.Loading = false
			s.Counter = nil
			s.watchID = 0
			return s, []Effect{stopCounterWatch{}}
		}
		if ev.v.V == s.watchID {
			return s, nil
		}
		s.watchID = ev.v.V
		s.Loading = true
		return s, []Effect{watchCounter{ID: ev.v.V}}

	case counterChanged:
		// Late emission from a subscription that has been replaced.
		if ev.id != s.watchID {
			return s, nil
		}
		s.Loading = false
		s.Counter = ev.counter

	case vibrateChanged:
		s.VibrateOnTap = ev.on

	case keepScreenOnChanged:
		s.KeepScreenOn = ev.on

	case Increment:
		return step(s, 1)

	case Decrement:
		return step(s, -1)

	case Reset:
		if s.Counter == nil {
			return s, nil
		}
		c := *s.Counter
		c.SavedValue = 0
		s.Counter = &c
		return s, []Effect{persistCounter{Counter: c}}

	case OpenSettings:
		s.Nav = CounterNavSettings

	case OpenCounters:
		s.Nav = CounterNavCounters

	case EditCounter:
		if s.Counter != nil {
			s.Nav = CounterNavEditor
		}

	case NavigationHandled:
		s.Nav = CounterNavNone
	}
	return s, nil
}

func step(s CounterState, delta int) (CounterState, []Effect) {
	if s.Counter == nil {
		return s, nil
	}
	v := s.Counter.SavedValue + delta
	if !store.InRange(v) {
		return s, nil
	}
	c := *s.Counter
	c.SavedValue = v
	s.Counter = &c
	return s, []Effect{persistCounter{Counter: c}}
}

// CounterOptions configures a CounterCoordinator.
type CounterOptions struct {
	Logger *log.Logger
}

// CounterCoordinator drives the counter screen: it follows the last-used
// counter and persists every change made to it.
type CounterCoordinator struct {
	*machine[CounterState, CounterEvent]

	counters CounterStore
	prefs    PrefStore
	save     watch.Slot
	sub      *watch.Subscription[*store.Counter]
}

func NewCounterCoordinator(ctx context.Context, counters CounterStore, p PrefStore, opts CounterOptions) *CounterCoordinator {
	c := &CounterCoordinator{counters: counters, prefs: p}
	c.machine = newMachine(ctx, CounterState{Loading: true}, ReduceCounter, opts.Logger)
	c.machine.run = c.run
	c.Dispatch(started{})
	return c
}

func (c *CounterCoordinator) run(e Effect) {
	switch e := e.(type) {
	case watchLastUsed:
		sub := c.prefs.WatchInt(c.ctx, prefs.KeyLastUsedCounterID)
		forward(c.machine, sub, func(v prefs.Value[int64]) CounterEvent { return lastUsedChanged{v: v} })

	case watchFlags:
		runWatchFlags(c.machine, c.prefs,
			func(on bool) CounterEvent { return vibrateChanged{on: on} },
			func(on bool) CounterEvent { return keepScreenOnChanged{on: on} })

	case watchCounter:
		if c.sub != nil {
			c.sub.Close()
		}
		c.sub = c.counters.WatchCounter(c.ctx, e.ID)
		id := e.ID
		forward(c.machine, c.sub, func(v *store.Counter) CounterEvent { return counterChanged{id: id, counter: v} })

	case stopCounterWatch:
		if c.sub != nil {
			c.sub.Close()
			c.sub = nil
		}

	case persistCounter:
		counter := e.Counter
		// Writes outlive Close so the last change is not lost on exit.
		c.save.Go(context.WithoutCancel(c.ctx), func(ctx context.Context) {
			if _, err := c.counters.UpsertCounter(ctx, counter); err != nil && ctx.Err() == nil {
				c.logger.Printf("persist counter %d: %v", counter.ID, err)
			}
		})
	}
}

// Close stops all subscriptions and waits for in-flight work.
func (c *CounterCoordinator) Close() {
	c.close()
	c.save.Wait()
}

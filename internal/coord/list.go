package coord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sadopc/tally/internal/prefs"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/watch"
)

const defaultUndoWindow = 4 * time.Second

// ListNavKind is where the list screen wants to go next.
type ListNavKind int

const (
	ListNavNone ListNavKind = iota
	ListNavBack
	ListNavCounter
	ListNavEditor
	ListNavNewCounter
)

// ListNav is a navigation target. ID is set for ListNavEditor.
type ListNav struct {
	Kind ListNavKind
	ID   int64
}

// ListState is the counter list screen.
type ListState struct {
	Loading             bool
	Counters            []store.Counter
	Order               store.Order
	OrderSectionVisible bool
	// Message is a one-shot notice, cleared by MessageShown.
	Message string
	// Deleted is the most recently deleted counter while it can still be
	// restored.
	Deleted *store.Counter
	Nav     ListNav

	listGen int
	undoGen int
}

// ListEvent is an input to the list coordinator.
type ListEvent interface{ listEvent() }

type (
	SelectCounter      struct{ ID int64 }
	Edit               struct{ ID int64 }
	Delete             struct{ Counter store.Counter }
	SetOrder           struct{ Order store.Order }
	NewCounter         struct{}
	ToggleOrderSection struct{}
	DismissUndo        struct{}
)

func (SelectCounter) listEvent()      {}
func (Edit) listEvent()               {}
func (Delete) listEvent()             {}
func (SetOrder) listEvent()           {}
func (NewCounter) listEvent()         {}
func (ToggleOrderSection) listEvent() {}
func (DismissUndo) listEvent()        {}

type countersChanged struct {
	gen      int
	counters []store.Counter
}

type counterSelected struct{}
type deleteRefused struct{}
type deleteFailed struct{}
type counterDeleted struct{ counter store.Counter }
type undoExpired struct{ gen int }

func (countersChanged) listEvent() {}
func (counterSelected) listEvent() {}
func (deleteRefused) listEvent()   {}
func (deleteFailed) listEvent()    {}
func (counterDeleted) listEvent()  {}
func (undoExpired) listEvent()     {}

type watchList struct{ Gen int }
type saveOrder struct{ Order store.Order }
type selectCounter struct{ ID int64 }
type deleteCounter struct{ ID int64 }
type restoreCounter struct{ Counter store.Counter }
type startUndoTimer struct{ Gen int }
type stopUndoTimer struct{}

func (watchList) effect()      {}
func (saveOrder) effect()      {}
func (selectCounter) effect()  {}
func (deleteCounter) effect()  {}
func (restoreCounter) effect() {}
func (startUndoTimer) effect() {}
func (stopUndoTimer) effect()  {}

// ReduceList is the list screen's transition function.
func ReduceList(s ListState, ev ListEvent) (ListState, []Effect) {
	switch ev := ev.(type) {
	case started:
		s.Loading = true
		s.listGen++
		return s, []Effect{watchList{Gen: s.listGen}}

	case countersChanged:
		if ev.gen != s.listGen {
			return s, nil
		}
		s.Loading = false
		s.Counters = store.SortCounters(ev.counters, s.Order)

	case SetOrder:
		if ev.Order == s.Order {
			return s, nil
		}
		s.Order = ev.Order
		s.Counters = store.SortCounters(s.Counters, s.Order)
		s.listGen++
		return s, []Effect{watchList{Gen: s.listGen}, saveOrder{Order: ev.Order}}

	case ToggleOrderSection:
		s.OrderSectionVisible = !s.OrderSectionVisible

	case SelectCounter:
		return s, []Effect{selectCounter{ID: ev.ID}}

	case counterSelected:
		s.Nav = ListNav{Kind: ListNavCounter}

	case Edit:
		s.Nav = ListNav{Kind: ListNavEditor, ID: ev.ID}

	case NewCounter:
		s.Nav = ListNav{Kind: ListNavNewCounter}

	case Delete:
		return s, []Effect{deleteCounter{ID: ev.Counter.ID}}

	case deleteRefused:
		s.Message = MsgCounterInUse

	case deleteFailed:
		s.Message = MsgDeleteFailed

	case counterDeleted:
		c := ev.counter
		s.Deleted = &c
		s.undoGen++
		s.Message = fmt.Sprintf("%s: %q", MsgCounterDeleted, c.Name)
		return s, []Effect{startUndoTimer{Gen: s.undoGen}}

	case RestoreCounter:
		if s.Deleted == nil {
			return s, nil
		}
		c := *s.Deleted
		s.Deleted = nil
		return s, []Effect{stopUndoTimer{}, restoreCounter{Counter: c}}

	case DismissUndo:
		if s.Deleted == nil {
			return s, nil
		}
		s.Deleted = nil
		return s, []Effect{stopUndoTimer{}}

	case undoExpired:
		if ev.gen == s.undoGen {
			s.Deleted = nil
		}

	case MessageShown:
		s.Message = ""

	case GoBack:
		s.Nav = ListNav{Kind: ListNavBack}

	case NavigationHandled:
		s.Nav = ListNav{}
	}
	return s, nil
}

// ListOptions configures a ListCoordinator.
type ListOptions struct {
	Logger *log.Logger
	// UndoWindow is how long a deleted counter can be restored.
	UndoWindow time.Duration
}

// ListCoordinator drives the counter list screen.
type ListCoordinator struct {
	*machine[ListState, ListEvent]

	counters   CounterStore
	prefs      PrefStore
	undoWindow time.Duration
	undo       watch.Slot
	sub        *watch.Subscription[[]store.Counter]
}

func NewListCoordinator(ctx context.Context, counters CounterStore, p PrefStore, opts ListOptions) *ListCoordinator {
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = defaultUndoWindow
	}
	c := &ListCoordinator{counters: counters, prefs: p, undoWindow: opts.UndoWindow}

	initial := ListState{Loading: true, Order: store.DefaultOrder()}
	if raw, ok := p.String(prefs.KeyCounterOrder); ok {
		if o, err := store.ParseOrder(raw); err == nil {
			initial.Order = o
		} else if opts.Logger != nil {
			opts.Logger.Printf("ignoring stored counter order: %v", err)
		}
	}

	c.machine = newMachine(ctx, initial, ReduceList, opts.Logger)
	c.machine.run = c.run
	c.Dispatch(started{})
	return c
}

func (c *ListCoordinator) run(e Effect) {
	switch e := e.(type) {
	case watchList:
		if c.sub != nil {
			c.sub.Close()
		}
		c.sub = c.counters.WatchCounters(c.ctx)
		gen := e.Gen
		forward(c.machine, c.sub, func(v []store.Counter) ListEvent { return countersChanged{gen: gen, counters: v} })

	case saveOrder:
		order := e.Order.String()
		c.goTask(func(ctx context.Context) {
			if err := c.prefs.SetString(context.WithoutCancel(ctx), prefs.KeyCounterOrder, order); err != nil {
				c.logger.Printf("save counter order: %v", err)
			}
		})

	case selectCounter:
		id := e.ID
		c.goTask(func(ctx context.Context) {
			if err := c.prefs.SetInt(ctx, prefs.KeyLastUsedCounterID, id); err != nil {
				if ctx.Err() == nil {
					c.logger.Printf("select counter %d: %v", id, err)
				}
				return
			}
			c.Dispatch(counterSelected{})
		})

	case deleteCounter:
		id := e.ID
		c.goTask(func(ctx context.Context) {
			deleted, err := c.deleteUnlessInUse(ctx, id)
			switch {
			case errors.Is(err, ErrCounterInUse):
				c.Dispatch(deleteRefused{})
			case err != nil:
				if ctx.Err() == nil {
					c.logger.Printf("delete counter %d: %v", id, err)
					c.Dispatch(deleteFailed{})
				}
			default:
				c.Dispatch(counterDeleted{counter: *deleted})
			}
		})

	case restoreCounter:
		counter := e.Counter
		c.goTask(func(ctx context.Context) {
			if _, err := c.counters.UpsertCounter(context.WithoutCancel(ctx), counter); err != nil {
				c.logger.Printf("restore counter %d: %v", counter.ID, err)
			}
		})

	case startUndoTimer:
		gen := e.Gen
		c.undo.Go(c.ctx, func(ctx context.Context) {
			t := time.NewTimer(c.undoWindow)
			defer t.Stop()
			select {
			case <-t.C:
				c.Dispatch(undoExpired{gen: gen})
			case <-ctx.Done():
			}
		})

	case stopUndoTimer:
		c.undo.Cancel()
	}
}

// deleteUnlessInUse removes the counter unless it is the last-used one, and
// returns the record as it was stored.
func (c *ListCoordinator) deleteUnlessInUse(ctx context.Context, id int64) (*store.Counter, error) {
	if used, ok := c.prefs.Int(prefs.KeyLastUsedCounterID); ok && used == id {
		return nil, ErrCounterInUse
	}
	current, err := c.counters.GetCounter(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.counters.DeleteCounter(ctx, id); err != nil {
		return nil, err
	}
	return current, nil
}

// Close stops all subscriptions and timers and waits for in-flight work.
func (c *ListCoordinator) Close() {
	c.close()
	c.undo.Wait()
}

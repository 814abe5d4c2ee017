package coord

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/tally/internal/store"
)

// maxValueDigits is the number of digits in store.MaxValue.
const maxValueDigits = 7

// EditorNav is where the editor wants to go next.
type EditorNav int

const (
	EditorNavNone EditorNav = iota
	EditorNavBack
	EditorNavSaved
	EditorNavCanceled
)

// EditorState is the counter editor. ID is zero while creating a counter.
// Name, Description and Value are the edit buffers; nothing is stored until
// Save succeeds.
type EditorState struct {
	Loading     bool
	Saving      bool
	ID          int64
	Name        string
	Description string
	Value       string
	Message     string
	Nav         EditorNav
}

// IsNew reports whether the editor is creating a counter.
func (s EditorState) IsNew() bool { return s.ID == 0 }

// EditorEvent is an input to the editor coordinator.
type EditorEvent interface{ editorEvent() }

type (
	EnteredName        struct{ Name string }
	EnteredDescription struct{ Description string }
	EnteredValue       struct{ Value string }
	Save               struct{}
	Cancel             struct{}
)

func (EnteredName) editorEvent()        {}
func (EnteredDescription) editorEvent() {}
func (EnteredValue) editorEvent()       {}
func (Save) editorEvent()               {}
func (Cancel) editorEvent()             {}

type counterLoaded struct{ counter *store.Counter }
type counterSaved struct{ counter store.Counter }
type saveFailed struct{ message string }

func (counterLoaded) editorEvent() {}
func (counterSaved) editorEvent()  {}
func (saveFailed) editorEvent()    {}

type loadCounter struct{ ID int64 }
type saveCounter struct{ Counter store.Counter }

func (loadCounter) effect() {}
func (saveCounter) effect() {}

// ReduceEditor is the editor's transition function.
func ReduceEditor(s EditorState, ev EditorEvent) (EditorState, []Effect) {
	switch ev := ev.(type) {
	case started:
		if s.IsNew() {
			s.Loading = false
			return s, nil
		}
		s.Loading = true
		return s, []Effect{loadCounter{ID: s.ID}}

	case counterLoaded:
		s.Loading = false
		if ev.counter == nil {
			s.ID = 0
			s.Name, s.Description, s.Value = "", "", ""
			s.Message = MsgCounterNotFound
			return s, nil
		}
		s.Name = ev.counter.Name
		s.Description = ev.counter.Description
		s.Value = strconv.Itoa(ev.counter.SavedValue)

	case EnteredName:
		s.Name = ev.Name

	case EnteredDescription:
		s.Description = ev.Description

	case EnteredValue:
		if validValueInput(ev.Value) {
			s.Value = ev.Value
		}

	case Save:
		if s.Saving || s.Loading {
			return s, nil
		}
		candidate := store.Counter{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			SavedValue:  parseValue(s.Value),
		}
		if err := store.ValidateCounter(candidate); err != nil {
			s.Message = validationMessage(err)
			return s, nil
		}
		s.Saving = true
		return s, []Effect{saveCounter{Counter: candidate}}

	case counterSaved:
		s.Saving = false
		s.ID = ev.counter.ID
		s.Nav = EditorNavSaved

	case saveFailed:
		s.Saving = false
		s.Message = ev.message

	case Cancel:
		s.Nav = EditorNavCanceled

	case GoBack:
		s.Nav = EditorNavBack

	case RestoreCounter:
		if s.IsNew() {
			s.Name, s.Description, s.Value = "", "", ""
			return s, nil
		}
		s.Loading = true
		return s, []Effect{loadCounter{ID: s.ID}}

	case MessageShown:
		s.Message = ""

	case NavigationHandled:
		s.Nav = EditorNavNone
	}
	return s, nil
}

// validValueInput accepts an empty string or up to seven ASCII digits.
func validValueInput(v string) bool {
	if len(v) > maxValueDigits {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseValue reads an edit buffer accepted by validValueInput. Empty is 0.
func parseValue(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func validationMessage(err error) string {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// EditorOptions configures an EditorCoordinator.
type EditorOptions struct {
	Logger *log.Logger
	// Now stamps the saved counter's creation date. Defaults to time.Now.
	Now func() time.Time
}

// EditorCoordinator drives the editor for one counter, or for a new one when
// id is zero.
type EditorCoordinator struct {
	*machine[EditorState, EditorEvent]

	counters CounterStore
	now      func() time.Time
}

func NewEditorCoordinator(ctx context.Context, counters CounterStore, id int64, opts EditorOptions) *EditorCoordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &EditorCoordinator{counters: counters, now: opts.Now}
	c.machine = newMachine(ctx, EditorState{ID: id, Loading: id != 0}, ReduceEditor, opts.Logger)
	c.machine.run = c.run
	c.Dispatch(started{})
	return c
}

func (c *EditorCoordinator) run(e Effect) {
	switch e := e.(type) {
	case loadCounter:
		id := e.ID
		c.goTask(func(ctx context.Context) {
			counter, err := c.counters.GetCounter(ctx, id)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				if ctx.Err() == nil {
					c.logger.Printf("load counter %d: %v", id, err)
				}
				return
			}
			c.Dispatch(counterLoaded{counter: counter})
		})

	case saveCounter:
		counter := e.Counter
		counter.CreatedAt = c.now()
		c.goTask(func(ctx context.Context) {
			saved, err := c.counters.UpsertCounter(context.WithoutCancel(ctx), counter)
			var ve *store.ValidationError
			switch {
			case errors.As(err, &ve):
				c.Dispatch(saveFailed{message: ve.Message})
			case err != nil:
				c.logger.Printf("save counter: %v", err)
				c.Dispatch(saveFailed{message: MsgSaveFailed})
			default:
				c.Dispatch(counterSaved{counter: *saved})
			}
		})
	}
}

// Close waits for an in-flight save.
func (c *EditorCoordinator) Close() {
	c.close()
}

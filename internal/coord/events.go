package coord

import (
	"context"
	"errors"

	"github.com/sadopc/tally/internal/prefs"
)

// ErrCounterInUse refuses deleting the counter shown on the counter screen.
var ErrCounterInUse = errors.New("counter currently in use")

// User-facing messages.
const (
	MsgCounterInUse    = "This counter is currently in use and can't be deleted"
	MsgCounterDeleted  = "Counter deleted"
	MsgDeleteFailed    = "Couldn't delete counter"
	MsgSaveFailed      = "Couldn't save counter"
	MsgCounterNotFound = "Counter no longer exists"
)

// Events shared by several coordinators.

// NavigationHandled tells a coordinator its Nav target has been acted on.
type NavigationHandled struct{}

// GoBack asks to leave the current screen.
type GoBack struct{}

// MessageShown acknowledges the current Message.
type MessageShown struct{}

// RestoreCounter undoes a delete (list) or discards edits (editor).
type RestoreCounter struct{}

func (NavigationHandled) counterEvent()  {}
func (NavigationHandled) listEvent()     {}
func (NavigationHandled) editorEvent()   {}
func (NavigationHandled) settingsEvent() {}

func (GoBack) listEvent()     {}
func (GoBack) editorEvent()   {}
func (GoBack) settingsEvent() {}

func (MessageShown) listEvent()   {}
func (MessageShown) editorEvent() {}

func (RestoreCounter) listEvent()   {}
func (RestoreCounter) editorEvent() {}

// Internal events fed back by runners.

type started struct{}

func (started) counterEvent()  {}
func (started) listEvent()     {}
func (started) editorEvent()   {}
func (started) settingsEvent() {}

type vibrateChanged struct{ on bool }
type keepScreenOnChanged struct{ on bool }

func (vibrateChanged) counterEvent()       {}
func (vibrateChanged) settingsEvent()      {}
func (keepScreenOnChanged) counterEvent()  {}
func (keepScreenOnChanged) settingsEvent() {}

// Effects shared by several coordinators.

// watchFlags subscribes to the two boolean display preferences.
type watchFlags struct{}

// writeBool stores a boolean preference.
type writeBool struct {
	Key   string
	Value bool
}

func (watchFlags) effect() {}
func (writeBool) effect()  {}

func runWatchFlags[S, E any](m *machine[S, E], p PrefStore, vibrate func(bool) E, keepOn func(bool) E) {
	forward(m, p.WatchBool(m.ctx, prefs.KeyVibrateOnTap), func(v prefs.Value[bool]) E { return vibrate(v.V) })
	forward(m, p.WatchBool(m.ctx, prefs.KeyKeepScreenOn), func(v prefs.Value[bool]) E { return keepOn(v.V) })
}

func runWriteBool[S, E any](m *machine[S, E], p PrefStore, e writeBool) {
	m.goTask(func(ctx context.Context) {
		if err := p.SetBool(context.WithoutCancel(ctx), e.Key, e.Value); err != nil {
			m.logger.Printf("write preference %s: %v", e.Key, err)
		}
	})
}

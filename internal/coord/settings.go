package coord

import (
	"context"
	"log"

	"github.com/sadopc/tally/internal/prefs"
)

// SettingsNav is where the settings screen wants to go next.
type SettingsNav int

const (
	SettingsNavNone SettingsNav = iota
	SettingsNavBack
	SettingsNavAbout
)

type SettingsState struct {
	Loading      bool
	VibrateOnTap bool
	KeepScreenOn bool
	Nav          SettingsNav
}

// SettingsEvent is an input to the settings coordinator.
type SettingsEvent interface{ settingsEvent() }

type (
	ToggleVibrateOnTap struct{}
	ToggleKeepScreenOn struct{}
	OpenAbout          struct{}
)

func (ToggleVibrateOnTap) settingsEvent() {}
func (ToggleKeepScreenOn) settingsEvent() {}
func (OpenAbout) settingsEvent()          {}

// ReduceSettings is the settings screen's transition function. Toggles write
// the negation of the displayed value; the display follows the stored value.
func ReduceSettings(s SettingsState, ev SettingsEvent) (SettingsState, []Effect) {
	switch ev := ev.(type) {
	case started:
		s.Loading = true
		return s, []Effect{watchFlags{}}

	case vibrateChanged:
		s.Loading = false
		s.VibrateOnTap = ev.on

	case keepScreenOnChanged:
		s.Loading = false
		s.KeepScreenOn = ev.on

	case ToggleVibrateOnTap:
		return s, []Effect{writeBool{Key: prefs.KeyVibrateOnTap, Value: !s.VibrateOnTap}}

	case ToggleKeepScreenOn:
		return s, []Effect{writeBool{Key: prefs.KeyKeepScreenOn, Value: !s.KeepScreenOn}}

	case OpenAbout:
		s.Nav = SettingsNavAbout

	case GoBack:
		s.Nav = SettingsNavBack

	case NavigationHandled:
		s.Nav = SettingsNavNone
	}
	return s, nil
}

type SettingsOptions struct {
	Logger *log.Logger
}

// SettingsCoordinator drives the settings screen.
type SettingsCoordinator struct {
	*machine[SettingsState, SettingsEvent]

	prefs PrefStore
}

func NewSettingsCoordinator(ctx context.Context, p PrefStore, opts SettingsOptions) *SettingsCoordinator {
	c := &SettingsCoordinator{prefs: p}
	c.machine = newMachine(ctx, SettingsState{Loading: true}, ReduceSettings, opts.Logger)
	c.machine.run = c.run
	c.Dispatch(started{})
	return c
}

func (c *SettingsCoordinator) run(e Effect) {
	switch e := e.(type) {
	case watchFlags:
		runWatchFlags(c.machine, c.prefs,
			func(on bool) SettingsEvent { return vibrateChanged{on: on} },
			func(on bool) SettingsEvent { return keepScreenOnChanged{on: on} })

	case writeBool:
		runWriteBool(c.machine, c.prefs, e)
	}
}

func (c *SettingsCoordinator) Close() {
	c.close()
}

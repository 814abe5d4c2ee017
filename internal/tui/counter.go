package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/coord"
	"github.com/sadopc/tally/internal/store"
)

const defaultIdleDim = time.Minute

type counterModel struct {
	coord  *coord.CounterCoordinator
	state  coord.CounterState
	width  int
	height int

	// Idle dimming
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newCounterModel(c *coord.CounterCoordinator, idleTimeout time.Duration) counterModel {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleDim
	}
	return counterModel{
		coord:        c,
		state:        c.State(),
		lastActivity: time.Now(),
		idleTimeout:  idleTimeout,
	}
}

func (c *counterModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c counterModel) init() tea.Cmd {
	return waitForState(c.coord.States())
}

func (c counterModel) update(msg tea.Msg) (counterModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg[coord.CounterState]:
		c.state = msg.state
		cmds := []tea.Cmd{waitForState(c.coord.States())}
		if nav := c.navigate(); nav != nil {
			c.coord.Dispatch(coord.NavigationHandled{})
			cmds = append(cmds, nav)
		}
		if c.state.KeepScreenOn {
			c.recordActivity()
		}
		return c, tea.Batch(cmds...)

	case tickMsg:
		c.tick(time.Time(msg))
		return c, nil

	case tea.KeyMsg:
		c.recordActivity()
		switch {
		case key.Matches(msg, keys.Increment):
			return c, c.tap(coord.Increment{}, 1)
		case key.Matches(msg, keys.Decrement):
			return c, c.tap(coord.Decrement{}, -1)
		case key.Matches(msg, keys.Reset):
			return c, c.tap(coord.Reset{}, 0)
		case key.Matches(msg, keys.Edit):
			c.coord.Dispatch(coord.EditCounter{})
		case key.Matches(msg, keys.Enter):
			c.coord.Dispatch(coord.OpenCounters{})
		case key.Matches(msg, keys.Settings):
			c.coord.Dispatch(coord.OpenSettings{})
		}
	}
	return c, nil
}

// tap dispatches ev and rings the bell when vibrate-on-tap is set and the tap
// changes the value. delta 0 means reset.
func (c counterModel) tap(ev coord.CounterEvent, delta int) tea.Cmd {
	counter := c.state.Counter
	c.coord.Dispatch(ev)
	if counter == nil || !c.state.VibrateOnTap {
		return nil
	}
	next := counter.SavedValue + delta
	if delta == 0 {
		next = 0
	}
	if next == counter.SavedValue || !store.InRange(next) {
		return nil
	}
	return bell()
}

func (c counterModel) navigate() tea.Cmd {
	switch c.state.Nav {
	case coord.CounterNavSettings:
		return send(openViewMsg{view: viewSettings})
	case coord.CounterNavCounters:
		return send(openViewMsg{view: viewCounters})
	case coord.CounterNavEditor:
		if c.state.Counter != nil {
			return send(openEditorMsg{id: c.state.Counter.ID})
		}
	}
	return nil
}

func (c *counterModel) tick(now time.Time) {
	if c.state.KeepScreenOn {
		c.isIdle = false
		return
	}
	if now.Sub(c.lastActivity) > c.idleTimeout && !c.isIdle {
		c.isIdle = true
	}
}

func (c *counterModel) recordActivity() {
	c.lastActivity = time.Now()
	c.isIdle = false
}

func (c counterModel) view() string {
	w := c.width - 4
	if w < 20 {
		w = 20
	}

	if c.state.Loading && c.state.Counter == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	counter := c.state.Counter
	if counter == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("No counter selected"),
			"",
			mutedStyle.Render("Press 2 to pick or create a counter."),
		)
		return panelStyle.Width(w).Render(content)
	}

	style := valueStyle
	if c.isIdle {
		style = valueDimStyle
	}
	value := style.Width(w - 6).Render(formatValue(counter.SavedValue))

	rows := []string{
		titleStyle.Render(counter.Name),
	}
	if counter.Description != "" {
		rows = append(rows, subtitleStyle.Render(counter.Description))
	}
	rows = append(rows, "", value, "")

	var flags []string
	if c.state.VibrateOnTap {
		flags = append(flags, highlightStyle.Render("♪ bell"))
	}
	if c.state.KeepScreenOn {
		flags = append(flags, highlightStyle.Render("☀ keep on"))
	}
	if len(flags) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom, joinWith("  ", flags)...))
	}
	rows = append(rows, mutedStyle.Render("  +/k: increment  -/j: decrement  r: reset  e: edit  enter: counters  s: settings"))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func joinWith(sep string, parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

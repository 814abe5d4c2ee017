package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/coord"
)

type settingRow int

const (
	rowVibrateOnTap settingRow = iota
	rowKeepScreenOn
	settingRows
)

type settingsModel struct {
	coord  *coord.SettingsCoordinator
	state  coord.SettingsState
	width  int
	height int
	cursor settingRow
}

func newSettingsModel(c *coord.SettingsCoordinator) settingsModel {
	return settingsModel{coord: c, state: c.State()}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) init() tea.Cmd {
	return waitForState(s.coord.States())
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg[coord.SettingsState]:
		s.state = msg.state
		cmds := []tea.Cmd{waitForState(s.coord.States())}
		if nav := s.navigate(); nav != nil {
			s.coord.Dispatch(coord.NavigationHandled{})
			cmds = append(cmds, nav)
		}
		return s, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < settingRows-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if s.cursor == rowVibrateOnTap {
				s.coord.Dispatch(coord.ToggleVibrateOnTap{})
			} else {
				s.coord.Dispatch(coord.ToggleKeepScreenOn{})
			}
		case key.Matches(msg, keys.About):
			s.coord.Dispatch(coord.OpenAbout{})
		case key.Matches(msg, keys.Back):
			s.coord.Dispatch(coord.GoBack{})
		}
	}
	return s, nil
}

func (s settingsModel) navigate() tea.Cmd {
	switch s.state.Nav {
	case coord.SettingsNavAbout:
		return send(openAboutMsg{})
	case coord.SettingsNavBack:
		return send(openViewMsg{view: viewCounter})
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	rows := []string{title, ""}
	if s.state.Loading {
		rows = append(rows, mutedStyle.Render("Loading..."))
	} else {
		rows = append(rows,
			s.renderRow(rowVibrateOnTap, "Vibrate on tap", "ring the terminal bell on every change", s.state.VibrateOnTap),
			s.renderRow(rowKeepScreenOn, "Keep screen on", "never dim the counter when idle", s.state.KeepScreenOn),
		)
	}
	rows = append(rows, "", mutedStyle.Render("  enter/space: toggle  a: about  esc: back"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) renderRow(row settingRow, label, hint string, on bool) string {
	cursor := "  "
	style := normalItemStyle
	if s.cursor == row {
		cursor = "> "
		style = selectedItemStyle
	}
	value := mutedStyle.Render("off")
	if on {
		value = successStyle.Render("on")
	}
	name := lipgloss.NewStyle().Width(20).Render(label)
	return fmt.Sprintf("%s %s  %s", style.Render(cursor+name), value, subtitleStyle.Render(hint))
}

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type aboutModel struct {
	version string
	dbPath  string
	width   int
}

func (a *aboutModel) setSize(w, _ int) {
	a.width = w
}

func (a aboutModel) view() string {
	w := a.width - 4
	rows := []string{
		titleStyle.Render("tally"),
		subtitleStyle.Render("A counter for anything you want to count."),
		"",
		"Version  " + highlightStyle.Render(a.version),
	}
	if a.dbPath != "" {
		rows = append(rows, "Data     "+highlightStyle.Render(a.dbPath))
	}
	rows = append(rows, "", mutedStyle.Render("  esc: back"))
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

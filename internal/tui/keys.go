package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Increment key.Binding
	Decrement key.Binding
	Reset     key.Binding
	Edit      key.Binding
	New       key.Binding
	Delete    key.Binding
	Undo      key.Binding
	Order     key.Binding
	ByName    key.Binding
	ByDate    key.Binding
	Asc       key.Binding
	Desc      key.Binding
	Toggle    key.Binding
	About     key.Binding
	Settings  key.Binding
	Restore   key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab       key.Binding
	Help      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Increment: key.NewBinding(
		key.WithKeys("+", "=", "k", "up", " "),
		key.WithHelp("+/k/space", "increment"),
	),
	Decrement: key.NewBinding(
		key.WithKeys("-", "_", "j", "down"),
		key.WithHelp("-/j", "decrement"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "undo delete"),
	),
	Order: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "order"),
	),
	ByName: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "by name"),
	),
	ByDate: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "by date"),
	),
	Asc: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "ascending"),
	),
	Desc: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "descending"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter/space", "toggle"),
	),
	About: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "about"),
	),
	Settings: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "settings"),
	),
	Restore: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "restore"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "counter"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "counters"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "settings"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.Decrement, k.Reset, k.Edit, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Increment, k.Decrement, k.Reset, k.Edit},
		{k.New, k.Delete, k.Undo, k.Order},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}

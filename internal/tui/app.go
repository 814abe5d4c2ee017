package tui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/coord"
)

// Options configures the App.
type Options struct {
	Logger     *log.Logger
	UndoWindow time.Duration
	IdleDim    time.Duration
	Version    string
	DBPath     string
}

// App is the root Bubble Tea model.
type App struct {
	ctx      context.Context
	counters coord.CounterStore
	opts     Options
	width    int
	height   int

	activeView viewState
	screen     screen
	showHelp   bool

	counter  counterModel
	list     listModel
	settings settingsModel
	editor   editorModel
	about    aboutModel

	// editorSession numbers editor coordinators so late snapshots from a
	// closed one are ignored.
	editorSession int

	help      help.Model
	status    string
	statusErr bool
}

// NewApp starts the long-lived coordinators. Call Close on the model returned
// by the program when it exits.
func NewApp(ctx context.Context, counters coord.CounterStore, p coord.PrefStore, opts Options) App {
	h := help.New()
	h.ShowAll = false

	if opts.Version == "" {
		opts.Version = "dev"
	}

	cc := coord.NewCounterCoordinator(ctx, counters, p, coord.CounterOptions{Logger: opts.Logger})
	lc := coord.NewListCoordinator(ctx, counters, p, coord.ListOptions{Logger: opts.Logger, UndoWindow: opts.UndoWindow})
	sc := coord.NewSettingsCoordinator(ctx, p, coord.SettingsOptions{Logger: opts.Logger})

	return App{
		ctx:        ctx,
		counters:   counters,
		opts:       opts,
		activeView: viewCounter,
		counter:    newCounterModel(cc, opts.IdleDim),
		list:       newListModel(lc),
		settings:   newSettingsModel(sc),
		about:      aboutModel{version: opts.Version, dbPath: opts.DBPath},
		help:       h,
	}
}

// Close stops every coordinator and waits for pending writes.
func (a App) Close() {
	if a.screen == screenEditor {
		a.editor.coord.Close()
	}
	a.counter.coord.Close()
	a.list.coord.Close()
	a.settings.coord.Close()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.counter.init(),
		a.list.init(),
		a.settings.init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.counter.setSize(a.width, contentHeight)
		a.list.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.editor.setSize(a.width, contentHeight)
		a.about.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// The editor form captures all input.
		if a.isFormActive() {
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			return a.updateEditor(msg)
		}

		if a.screen == screenAbout {
			switch {
			case key.Matches(msg, keys.Quit):
				return a, tea.Quit
			case key.Matches(msg, keys.Back):
				a.screen = screenNone
			}
			return a, nil
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewCounter
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewCounters
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}

	case tickMsg:
		var cmd tea.Cmd
		a.counter, cmd = a.counter.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case stateMsg[coord.CounterState]:
		var cmd tea.Cmd
		a.counter, cmd = a.counter.update(msg)
		return a, cmd

	case stateMsg[coord.ListState]:
		var cmd tea.Cmd
		a.list, cmd = a.list.update(msg)
		return a, cmd

	case stateMsg[coord.SettingsState]:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case editorStateMsg[coord.EditorState]:
		if a.screen != screenEditor {
			return a, nil
		}
		return a.updateEditor(msg)

	case openViewMsg:
		a.activeView = msg.view
		return a, nil

	case openEditorMsg:
		return a.openEditor(msg.id)

	case openAboutMsg:
		a.screen = screenAbout
		return a, nil

	case closeScreenMsg:
		return a.closeScreen(), nil
	}

	if a.isFormActive() {
		return a.updateEditor(msg)
	}
	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewCounter:
		a.counter, cmd = a.counter.update(msg)
	case viewCounters:
		a.list, cmd = a.list.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.editor, cmd = a.editor.update(msg)
	return a, cmd
}

func (a App) openEditor(id int64) (tea.Model, tea.Cmd) {
	if a.screen == screenEditor {
		a.editor.coord.Close()
	}
	a.editorSession++
	c := coord.NewEditorCoordinator(a.ctx, a.counters, id, coord.EditorOptions{Logger: a.opts.Logger})
	a.editor = newEditorModel(c, a.editorSession)
	a.editor.setSize(a.width, a.height-4)
	a.screen = screenEditor
	return a, a.editor.init()
}

func (a App) closeScreen() App {
	if a.screen == screenEditor {
		a.editor.coord.Close()
		a.editor = editorModel{width: a.editor.width, height: a.editor.height}
	}
	a.screen = screenNone
	return a
}

func (a App) isFormActive() bool {
	return a.screen == screenEditor
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.screen {
	case screenEditor:
		content = a.editor.view()
	case screenAbout:
		content = a.about.view()
	default:
		switch a.activeView {
		case viewCounter:
			content = a.counter.view()
		case viewCounters:
			content = a.list.view()
		case viewSettings:
			content = a.settings.view()
		}
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tally")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	statusText := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		statusText = style.Render(" " + a.status)
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(statusText) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, statusText)
}

package tui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active tab.
type viewState int

const (
	viewCounter viewState = iota
	viewCounters
	viewSettings
)

var viewNames = []string{"Counter", "Counters", "Settings"}

// screen is a pushed screen drawn over the tabs.
type screen int

const (
	screenNone screen = iota
	screenEditor
	screenAbout
)

// --- Messages ---

// stateMsg carries a coordinator snapshot into the update loop.
type stateMsg[S any] struct {
	state S
}

// editorStateMsg is tagged with the editor session it belongs to, so a late
// snapshot from a closed editor is dropped.
type editorStateMsg[S any] struct {
	session int
	state   S
}

type openViewMsg struct {
	view viewState
}

type openEditorMsg struct {
	id int64
}

type openAboutMsg struct{}

type closeScreenMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// --- Commands ---

// waitForState blocks on the next snapshot. A closed channel ends the loop.
func waitForState[S any](ch <-chan S) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg[S]{state: s}
	}
}

func waitForEditorState[S any](session int, ch <-chan S) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return editorStateMsg[S]{session: session, state: s}
	}
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func status(text string, isError bool) tea.Cmd {
	if text == "" {
		return nil
	}
	return send(statusMsg{text: text, isError: isError})
}

// bellOut receives the terminal bell. Tests swap it.
var bellOut io.Writer = os.Stdout

func bell() tea.Cmd {
	return func() tea.Msg {
		fmt.Fprint(bellOut, "\a")
		return nil
	}
}

// --- Helpers ---

// formatValue groups digits in threes: 1234567 -> "1,234,567".
func formatValue(v int) string {
	s := strconv.Itoa(v)
	neg := false
	if v < 0 {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

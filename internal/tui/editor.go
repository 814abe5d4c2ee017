package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/coord"
)

const valueCharLimit = 7

var errDigitsOnly = errors.New("digits only")

type editorModel struct {
	coord   *coord.EditorCoordinator
	session int
	state   coord.EditorState
	width   int
	height  int

	form   *huh.Form
	seeded bool

	// Form values as pointers (survive value copies)
	name        *string
	description *string
	value       *string
}

func newEditorModel(c *coord.EditorCoordinator, session int) editorModel {
	name, desc, value := "", "", ""
	e := editorModel{
		coord:       c,
		session:     session,
		state:       c.State(),
		name:        &name,
		description: &desc,
		value:       &value,
	}
	if !e.state.Loading {
		e.seed()
	}
	return e
}

func (e *editorModel) setSize(w, h int) {
	e.width = w
	e.height = h
}

func (e editorModel) init() tea.Cmd {
	cmds := []tea.Cmd{waitForEditorState(e.session, e.coord.States())}
	if e.form != nil {
		cmds = append(cmds, e.form.Init())
	}
	return tea.Batch(cmds...)
}

// seed copies the coordinator buffers into the form and rebuilds it.
func (e *editorModel) seed() {
	*e.name = e.state.Name
	*e.description = e.state.Description
	*e.value = e.state.Value
	e.buildForm()
	e.seeded = true
}

func (e *editorModel) buildForm() {
	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(e.name),
			huh.NewInput().Title("Description").Value(e.description),
			huh.NewInput().Title("Value").
				CharLimit(valueCharLimit).
				Validate(validateDigits).
				Value(e.value),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func validateDigits(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return errDigitsOnly
		}
	}
	return nil
}

func (e editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorStateMsg[coord.EditorState]:
		if msg.session != e.session {
			return e, nil
		}
		e.state = msg.state
		cmds := []tea.Cmd{waitForEditorState(e.session, e.coord.States())}
		if !e.seeded && !e.state.Loading {
			e.seed()
			cmds = append(cmds, e.form.Init())
		}
		if nav := e.navigate(); nav != nil {
			e.coord.Dispatch(coord.NavigationHandled{})
			cmds = append(cmds, nav)
		}
		if e.state.Message != "" {
			cmds = append(cmds, status(e.state.Message, true))
			e.coord.Dispatch(coord.MessageShown{})
			if e.form != nil && e.form.State != huh.StateNormal && !e.state.Saving {
				e.buildForm()
				cmds = append(cmds, e.form.Init())
			}
		}
		return e, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Back):
			e.coord.Dispatch(coord.Cancel{})
			return e, nil
		case key.Matches(msg, keys.Restore):
			e.coord.Dispatch(coord.RestoreCounter{})
			e.seeded = false
			e.state = e.coord.State()
			if !e.state.Loading {
				e.seed()
				return e, e.form.Init()
			}
			return e, nil
		}
	}

	if e.form == nil {
		return e, nil
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		return e.save()
	}
	return e, cmd
}

// save pushes the form buffers through the coordinator. A validation failure
// keeps the editor open with the same content.
func (e editorModel) save() (editorModel, tea.Cmd) {
	e.coord.Dispatch(coord.EnteredName{Name: *e.name})
	e.coord.Dispatch(coord.EnteredDescription{Description: *e.description})
	e.coord.Dispatch(coord.EnteredValue{Value: *e.value})
	e.coord.Dispatch(coord.Save{})

	e.state = e.coord.State()
	if e.state.Saving {
		return e, nil
	}
	message := e.state.Message
	e.coord.Dispatch(coord.MessageShown{})
	*e.value = e.state.Value
	e.buildForm()
	return e, tea.Batch(status(message, true), e.form.Init())
}

func (e editorModel) navigate() tea.Cmd {
	switch e.state.Nav {
	case coord.EditorNavSaved:
		return tea.Batch(send(closeScreenMsg{}), status("Counter saved", false))
	case coord.EditorNavCanceled, coord.EditorNavBack:
		return send(closeScreenMsg{})
	}
	return nil
}

func (e editorModel) view() string {
	w := e.width - 4
	title := "New Counter"
	if !e.state.IsNew() {
		title = "Edit Counter"
	}

	if e.state.Loading || e.form == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(title), "", mutedStyle.Render("Loading..."),
		))
	}

	hint := mutedStyle.Render("  esc: cancel  ctrl+r: restore")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title), "", e.form.View(), "", hint,
	))
}

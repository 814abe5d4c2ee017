package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tally/internal/coord"
	"github.com/sadopc/tally/internal/store"
)

// maxChartBars caps the bar chart; the list itself is not capped.
const maxChartBars = 12

type listModel struct {
	coord  *coord.ListCoordinator
	state  coord.ListState
	width  int
	height int

	cursor int
	chart  barchart.Model
}

func newListModel(c *coord.ListCoordinator) listModel {
	return listModel{
		coord: c,
		state: c.State(),
		chart: barchart.New(60, 10),
	}
}

func (l *listModel) setSize(w, h int) {
	l.width = w
	l.height = h
	l.buildChart()
}

func (l listModel) init() tea.Cmd {
	return waitForState(l.coord.States())
}

func (l listModel) selected() (store.Counter, bool) {
	if l.cursor < 0 || l.cursor >= len(l.state.Counters) {
		return store.Counter{}, false
	}
	return l.state.Counters[l.cursor], true
}

func (l listModel) update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg[coord.ListState]:
		l.state = msg.state
		if l.cursor >= len(l.state.Counters) {
			l.cursor = max(0, len(l.state.Counters)-1)
		}
		l.buildChart()

		cmds := []tea.Cmd{waitForState(l.coord.States())}
		if l.state.Message != "" {
			text := l.state.Message
			if l.state.Deleted != nil {
				text += "  (u: undo)"
			}
			cmds = append(cmds, status(text, l.state.Message == coord.MsgCounterInUse))
			l.coord.Dispatch(coord.MessageShown{})
		}
		if nav := l.navigate(); nav != nil {
			l.coord.Dispatch(coord.NavigationHandled{})
			cmds = append(cmds, nav)
		}
		return l, tea.Batch(cmds...)

	case tea.KeyMsg:
		if l.state.OrderSectionVisible {
			return l.updateOrderSection(msg)
		}
		return l.updateList(msg)
	}
	return l, nil
}

func (l listModel) updateList(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < len(l.state.Counters)-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if c, ok := l.selected(); ok {
			l.coord.Dispatch(coord.SelectCounter{ID: c.ID})
		}
	case key.Matches(msg, keys.Edit):
		if c, ok := l.selected(); ok {
			l.coord.Dispatch(coord.Edit{ID: c.ID})
		}
	case key.Matches(msg, keys.New):
		l.coord.Dispatch(coord.NewCounter{})
	case key.Matches(msg, keys.Delete):
		if c, ok := l.selected(); ok {
			l.coord.Dispatch(coord.Delete{Counter: c})
		}
	case key.Matches(msg, keys.Undo):
		l.coord.Dispatch(coord.RestoreCounter{})
	case key.Matches(msg, keys.Order):
		l.coord.Dispatch(coord.ToggleOrderSection{})
	case key.Matches(msg, keys.Back):
		l.coord.Dispatch(coord.GoBack{})
	}
	return l, nil
}

func (l listModel) updateOrderSection(msg tea.KeyMsg) (listModel, tea.Cmd) {
	o := l.state.Order
	switch {
	case key.Matches(msg, keys.ByName):
		o.Field = store.ByName
	case key.Matches(msg, keys.ByDate):
		o.Field = store.ByDate
	case key.Matches(msg, keys.Asc):
		o.Direction = store.Ascending
	case key.Matches(msg, keys.Desc):
		o.Direction = store.Descending
	case key.Matches(msg, keys.Order), key.Matches(msg, keys.Back):
		l.coord.Dispatch(coord.ToggleOrderSection{})
		return l, nil
	default:
		return l, nil
	}
	l.coord.Dispatch(coord.SetOrder{Order: o})
	return l, nil
}

func (l listModel) navigate() tea.Cmd {
	switch l.state.Nav.Kind {
	case coord.ListNavBack, coord.ListNavCounter:
		return send(openViewMsg{view: viewCounter})
	case coord.ListNavEditor:
		return send(openEditorMsg{id: l.state.Nav.ID})
	case coord.ListNavNewCounter:
		return send(openEditorMsg{})
	}
	return nil
}

func (l *listModel) buildChart() {
	chartWidth := l.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8
	if l.height > 30 {
		chartHeight = 12
	}

	l.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for i, c := range l.state.Counters {
		if i == maxChartBars {
			break
		}
		style := barStyle
		if i == l.cursor {
			style = lipgloss.NewStyle().Foreground(colorPrimary)
		}
		bars = append(bars, barchart.BarData{
			Label: truncate(c.Name, 6),
			Values: []barchart.BarValue{{
				Name:  c.Name,
				Value: float64(c.SavedValue),
				Style: style,
			}},
		})
	}
	if len(bars) == 0 {
		return
	}

	l.chart.PushAll(bars)
	l.chart.Draw()
}

func (l listModel) view() string {
	w := l.width - 4
	title := titleStyle.Render("Counters")
	orderLabel := mutedStyle.Render("sorted " + describeOrder(l.state.Order))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", orderLabel)

	var rows []string
	rows = append(rows, header, "")

	if l.state.OrderSectionVisible {
		rows = append(rows, l.renderOrderSection(), "")
	}

	switch {
	case l.state.Loading && len(l.state.Counters) == 0:
		rows = append(rows, mutedStyle.Render("Loading..."))
	case len(l.state.Counters) == 0:
		rows = append(rows, mutedStyle.Render("No counters yet. Press n to create one."))
	default:
		rows = append(rows, l.chart.View(), "")
		head := mutedStyle.Render(fmt.Sprintf("  %-24s %12s  %s", "Name", "Value", "Created"))
		rows = append(rows, head)
		rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 54)))))
		for i, c := range l.state.Counters {
			cursor := "  "
			style := normalItemStyle
			if i == l.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %12s  %s",
				cursor, truncate(c.Name, 24), formatValue(c.SavedValue), c.CreatedAt.Local().Format("Jan 02, 2006"))))
		}
	}

	rows = append(rows, "")
	if l.state.Deleted != nil {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  Deleted %q. Press u to undo.", l.state.Deleted.Name)))
	}
	rows = append(rows, mutedStyle.Render("  enter: select  n: new  e: edit  d: delete  o: order  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (l listModel) renderOrderSection() string {
	field := func(label string, f store.OrderField) string {
		if l.state.Order.Field == f {
			return activeTabStyle.Render(label)
		}
		return inactiveTabStyle.Render(label)
	}
	dir := func(label string, d store.Direction) string {
		if l.state.Order.Direction == d {
			return activeTabStyle.Render(label)
		}
		return inactiveTabStyle.Render(label)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Bottom,
			field("Date (d)", store.ByDate), field("Name (n)", store.ByName),
			"  ",
			dir("Ascending (a)", store.Ascending), dir("Descending (z)", store.Descending),
		),
		mutedStyle.Render("  o/esc: close"),
	)
}

func describeOrder(o store.Order) string {
	field := "by date"
	if o.Field == store.ByName {
		field = "by name"
	}
	dir := "descending"
	if o.Direction == store.Ascending {
		dir = "ascending"
	}
	return field + ", " + dir
}

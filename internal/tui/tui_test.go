package tui

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tally/internal/coord"
	"github.com/sadopc/tally/internal/prefs"
	"github.com/sadopc/tally/internal/store"
)

func newTestDeps(t *testing.T) (*store.Store, *prefs.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.toml"), nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	return s, p
}

func newTestApp(t *testing.T) App {
	t.Helper()
	s, p := newTestDeps(t)
	app := NewApp(context.Background(), s, p, Options{})
	t.Cleanup(app.Close)
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// ============================================================
// Helpers
// ============================================================

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{9999999, "9,999,999"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		got := formatValue(tt.in)
		if got != tt.want {
			t.Errorf("formatValue(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Gym", 6, "Gym"},
		{"Pushups", 6, "Pushu…"},
		{"Café au lait", 4, "Caf…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestValidateDigits(t *testing.T) {
	for _, ok := range []string{"", "0", "9999999"} {
		if err := validateDigits(ok); err != nil {
			t.Errorf("validateDigits(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"1a", "-1", " 1", "1.5"} {
		if err := validateDigits(bad); err == nil {
			t.Errorf("validateDigits(%q) should fail", bad)
		}
	}
}

func TestDescribeOrder(t *testing.T) {
	if got := describeOrder(store.DefaultOrder()); got != "by date, descending" {
		t.Fatalf("default order = %q", got)
	}
	got := describeOrder(store.Order{Field: store.ByName, Direction: store.Ascending})
	if got != "by name, ascending" {
		t.Fatalf("name order = %q", got)
	}
}

// ============================================================
// Counter model
// ============================================================

func TestCounterIdleDetection(t *testing.T) {
	now := time.Now()
	cm := counterModel{idleTimeout: time.Minute, lastActivity: now.Add(-2 * time.Minute)}

	cm.tick(now)
	if !cm.isIdle {
		t.Fatal("counter should dim after idle timeout")
	}

	cm.recordActivity()
	if cm.isIdle {
		t.Fatal("activity should wake the counter")
	}
}

func TestCounterKeepScreenOnPreventsDimming(t *testing.T) {
	now := time.Now()
	cm := counterModel{idleTimeout: time.Minute, lastActivity: now.Add(-time.Hour)}
	cm.state.KeepScreenOn = true

	cm.tick(now)
	if cm.isIdle {
		t.Fatal("keep screen on must prevent dimming")
	}
}

func TestCounterNotIdleBeforeTimeout(t *testing.T) {
	now := time.Now()
	cm := counterModel{idleTimeout: time.Minute, lastActivity: now.Add(-30 * time.Second)}

	cm.tick(now)
	if cm.isIdle {
		t.Fatal("should not dim before the timeout")
	}
}

func TestCounterTapRingsBell(t *testing.T) {
	app := newTestApp(t)
	cm := app.counter
	cm.state.VibrateOnTap = true
	cm.state.Counter = &store.Counter{ID: 1, Name: "Gym", SavedValue: 4}

	var buf bytes.Buffer
	old := bellOut
	bellOut = &buf
	defer func() { bellOut = old }()

	cmd := cm.tap(coord.Increment{}, 1)
	if cmd == nil {
		t.Fatal("tap with vibrate on should ring")
	}
	cmd()
	if buf.String() != "\a" {
		t.Fatalf("bell wrote %q", buf.String())
	}
}

func TestCounterTapSilentWhenNothingChanges(t *testing.T) {
	app := newTestApp(t)
	cm := app.counter
	cm.state.VibrateOnTap = true

	cm.state.Counter = &store.Counter{ID: 1, Name: "Gym", SavedValue: store.MaxValue}
	if cmd := cm.tap(coord.Increment{}, 1); cmd != nil {
		t.Fatal("increment at max should not ring")
	}
	cm.state.Counter = &store.Counter{ID: 1, Name: "Gym", SavedValue: 0}
	if cmd := cm.tap(coord.Reset{}, 0); cmd != nil {
		t.Fatal("reset at zero should not ring")
	}
	cm.state.VibrateOnTap = false
	if cmd := cm.tap(coord.Increment{}, 1); cmd != nil {
		t.Fatal("bell is off")
	}
}

func TestCounterView(t *testing.T) {
	app := newTestApp(t)
	cm := app.counter
	cm.setSize(100, 30)

	cm.state = coord.CounterState{}
	if !strings.Contains(cm.view(), "No counter selected") {
		t.Fatal("empty state should say no counter is selected")
	}

	cm.state.Counter = &store.Counter{ID: 1, Name: "Gym", Description: "sessions", SavedValue: 1234567}
	out := cm.view()
	for _, want := range []string{"Gym", "sessions", "1,234,567"} {
		if !strings.Contains(out, want) {
			t.Fatalf("counter view missing %q", want)
		}
	}
}

func TestCounterNavigationEmitsMessage(t *testing.T) {
	app := newTestApp(t)
	cm := app.counter

	cm, cmd := cm.update(stateMsg[coord.CounterState]{state: coord.CounterState{Nav: coord.CounterNavSettings}})
	if cmd == nil {
		t.Fatal("expected commands")
	}
	if cm.navigate() == nil {
		t.Fatal("settings navigation should produce a command")
	}
}

// ============================================================
// List model
// ============================================================

func TestListStateClampsCursor(t *testing.T) {
	app := newTestApp(t)
	lm := app.list
	lm.cursor = 5

	state := coord.ListState{Counters: []store.Counter{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}}
	lm, _ = lm.update(stateMsg[coord.ListState]{state: state})
	if lm.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", lm.cursor)
	}

	lm, _ = lm.update(stateMsg[coord.ListState]{state: coord.ListState{}})
	if lm.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", lm.cursor)
	}
}

func TestListCursorMovement(t *testing.T) {
	app := newTestApp(t)
	lm := app.list
	lm.state = coord.ListState{Counters: []store.Counter{{ID: 1}, {ID: 2}, {ID: 3}}}

	lm, _ = lm.update(tea.KeyMsg{Type: tea.KeyDown})
	lm, _ = lm.update(tea.KeyMsg{Type: tea.KeyDown})
	lm, _ = lm.update(tea.KeyMsg{Type: tea.KeyDown})
	if lm.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", lm.cursor)
	}
	lm, _ = lm.update(tea.KeyMsg{Type: tea.KeyUp})
	if lm.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", lm.cursor)
	}
	c, ok := lm.selected()
	if !ok || c.ID != 2 {
		t.Fatalf("selected = %+v, %v", c, ok)
	}
}

func TestListView(t *testing.T) {
	app := newTestApp(t)
	lm := app.list
	lm.setSize(120, 40)

	lm.state = coord.ListState{}
	if !strings.Contains(lm.view(), "No counters yet") {
		t.Fatal("empty list should prompt to create a counter")
	}

	lm.state = coord.ListState{Counters: []store.Counter{
		{ID: 1, Name: "Gym", SavedValue: 12, CreatedAt: time.Now()},
		{ID: 2, Name: "Water", SavedValue: 3400, CreatedAt: time.Now()},
	}}
	lm.buildChart()
	out := lm.view()
	for _, want := range []string{"Gym", "Water", "3,400"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list view missing %q", want)
		}
	}

	deleted := store.Counter{ID: 3, Name: "Old"}
	lm.state.Deleted = &deleted
	if !strings.Contains(lm.view(), "Press u to undo") {
		t.Fatal("undo hint missing")
	}
}

func TestListOrderSectionSetsOrder(t *testing.T) {
	app := newTestApp(t)
	lm := app.list
	lm.state.OrderSectionVisible = true
	lm.state.Order = store.DefaultOrder()

	lm.update(runes("n"))
	got := lm.coord.State().Order
	if got.Field != store.ByName || got.Direction != store.Descending {
		t.Fatalf("order = %+v, want name descending", got)
	}
}

func TestListNewCounterNavigates(t *testing.T) {
	app := newTestApp(t)
	lm := app.list

	lm.update(runes("n"))
	if got := lm.coord.State().Nav.Kind; got != coord.ListNavNewCounter {
		t.Fatalf("nav = %v, want new counter", got)
	}
}

// ============================================================
// Editor model
// ============================================================

func TestEditorSaveBlankNameKeepsFormOpen(t *testing.T) {
	s, _ := newTestDeps(t)
	c := coord.NewEditorCoordinator(context.Background(), s, 0, coord.EditorOptions{})
	defer c.Close()

	e := newEditorModel(c, 1)
	*e.name = "  "
	*e.value = "5"

	e, cmd := e.save()
	if cmd == nil {
		t.Fatal("expected status and form commands")
	}
	if e.state.Message == "" {
		t.Fatal("validation message expected")
	}
	if e.form == nil {
		t.Fatal("form should be rebuilt")
	}
	if *e.value != "5" {
		t.Fatalf("buffer lost: %q", *e.value)
	}

	all, err := s.ListCounters(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("storage changed: %+v", all)
	}
}

func TestEditorSaveCreatesCounter(t *testing.T) {
	s, _ := newTestDeps(t)
	c := coord.NewEditorCoordinator(context.Background(), s, 0, coord.EditorOptions{})
	defer c.Close()

	e := newEditorModel(c, 1)
	*e.name = "Gym"
	*e.value = "5"

	e, _ = e.save()
	if !e.state.Saving {
		t.Fatal("editor should be saving")
	}
	eventually(t, func() bool { return c.State().Nav == coord.EditorNavSaved })

	all, err := s.ListCounters(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Name != "Gym" || all[0].SavedValue != 5 {
		t.Fatalf("stored = %+v", all)
	}
}

func TestEditorEscCancels(t *testing.T) {
	s, _ := newTestDeps(t)
	c := coord.NewEditorCoordinator(context.Background(), s, 0, coord.EditorOptions{})
	defer c.Close()

	e := newEditorModel(c, 1)
	e.update(tea.KeyMsg{Type: tea.KeyEsc})
	if c.State().Nav != coord.EditorNavCanceled {
		t.Fatalf("nav = %v, want canceled", c.State().Nav)
	}
}

func TestEditorIgnoresOtherSessions(t *testing.T) {
	s, _ := newTestDeps(t)
	c := coord.NewEditorCoordinator(context.Background(), s, 0, coord.EditorOptions{})
	defer c.Close()

	e := newEditorModel(c, 2)
	e, cmd := e.update(editorStateMsg[coord.EditorState]{session: 1, state: coord.EditorState{Name: "stale"}})
	if cmd != nil || e.state.Name == "stale" {
		t.Fatal("snapshot from another session must be dropped")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsToggleWritesPreference(t *testing.T) {
	_, p := newTestDeps(t)
	c := coord.NewSettingsCoordinator(context.Background(), p, coord.SettingsOptions{})
	defer c.Close()
	eventually(t, func() bool { return !c.State().Loading })

	sm := newSettingsModel(c)
	sm.update(tea.KeyMsg{Type: tea.KeyEnter})
	eventually(t, func() bool {
		v, ok := p.Bool(prefs.KeyVibrateOnTap)
		return ok && v
	})

	sm, _ = sm.update(tea.KeyMsg{Type: tea.KeyDown})
	sm.update(tea.KeyMsg{Type: tea.KeyEnter})
	eventually(t, func() bool {
		v, ok := p.Bool(prefs.KeyKeepScreenOn)
		return ok && v
	})
}

func TestSettingsView(t *testing.T) {
	app := newTestApp(t)
	sm := app.settings
	sm.setSize(100, 30)
	sm.state = coord.SettingsState{VibrateOnTap: true}

	out := sm.view()
	for _, want := range []string{"Vibrate on tap", "Keep screen on", "on", "off"} {
		if !strings.Contains(out, want) {
			t.Fatalf("settings view missing %q", want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	if app.activeView != viewCounter {
		t.Fatal("default view should be the counter")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.screen != screenNone {
		t.Fatal("no screen should be open by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	app := newTestApp(t)

	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	views := []viewState{viewCounter, viewCounters, viewSettings}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	output := app.View()
	if output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(statusMsg{text: "test status"})
	app = m.(App)
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppTabKeys(t *testing.T) {
	app := newTestApp(t)

	m, _ := app.Update(runes("2"))
	app = m.(App)
	if app.activeView != viewCounters {
		t.Fatalf("view = %d, want counters", app.activeView)
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewSettings {
		t.Fatalf("view = %d, want settings", app.activeView)
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(App)
	if app.activeView != viewCounter {
		t.Fatalf("tab should wrap to the counter, got %d", app.activeView)
	}
}

func TestAppOpenView(t *testing.T) {
	app := newTestApp(t)

	m, _ := app.Update(openViewMsg{view: viewSettings})
	app = m.(App)
	if app.activeView != viewSettings {
		t.Fatal("openViewMsg should switch tabs")
	}
}

func TestAppEditorScreen(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(openEditorMsg{})
	app = m.(App)
	if !app.isFormActive() {
		t.Fatal("editor should capture input")
	}
	if !strings.Contains(app.View(), "New Counter") {
		t.Fatal("editor view should be shown")
	}

	// Tab keys go to the form while the editor is open.
	m, _ = app.Update(runes("2"))
	app = m.(App)
	if app.activeView != viewCounter {
		t.Fatal("tab key leaked past the editor")
	}

	m, _ = app.Update(closeScreenMsg{})
	app = m.(App)
	if app.isFormActive() {
		t.Fatal("editor should be closed")
	}
}

func TestAppAboutScreen(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(openAboutMsg{})
	app = m.(App)
	if !strings.Contains(app.View(), "Version") {
		t.Fatal("about view should show the version")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	if app.screen != screenNone {
		t.Fatal("esc should close the about screen")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they don't panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"value", func() string { return valueStyle.Render("test") }},
		{"valueDim", func() string { return valueDimStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"subtitle", func() string { return subtitleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"bar", func() string { return barStyle.Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

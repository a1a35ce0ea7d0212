package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/runreport/internal/prefs"
	"github.com/csheth/runreport/internal/report"
	"github.com/csheth/runreport/internal/toc"
)

type clipboardStub struct {
	copied []string
	err    error
}

func (c *clipboardStub) write(value string) error {
	if c.err != nil {
		return c.err
	}
	c.copied = append(c.copied, value)
	return nil
}

// syntheticReport builds tests laid out as: header, blank, record label,
// axis line, table label, table.
func syntheticReport(tests int) *report.Report {
	r := &report.Report{Version: report.Version, Title: "Synthetic run"}
	for i := 0; i < tests; i++ {
		id := fmt.Sprintf("test-%02d", i)
		r.Content = append(r.Content, report.Block{
			Type: report.BlockTest,
			ID:   id,
			Test: &report.TestBlock{
				ID:              id,
				Label:           "Test " + id,
				EnableTableView: true,
				Records: []report.Record{{
					ID:         id + "/rate",
					Label:      "Rate",
					AxisYLabel: "ops/s",
					DatasetTable: [][]report.Value{
						{"size", "rate"},
						{"64", "10"},
						{"128", "20"},
						{"256", "40"},
					},
				}},
			},
		})
	}
	return r
}

type testOptions struct {
	smooth bool
	tests  int
}

func newTestModel(t *testing.T, opts ...func(*testOptions)) (*model, *prefs.MemoryStore, *clipboardStub) {
	t.Helper()
	options := testOptions{tests: 20}
	for _, opt := range opts {
		opt(&options)
	}
	kv := prefs.NewMemoryStore()
	clip := &clipboardStub{}
	teaModel, ok := New(Config{
		ReportPath:    "synthetic.json",
		Prefs:         kv,
		ThresholdRows: 1,
		SmoothScroll:  options.smooth,
		Clipboard:     clip.write,
	}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	teaModel.Update(reportLoadedMsg{path: "synthetic.json", report: syntheticReport(options.tests)})
	settle(teaModel)
	return teaModel, kv, clip
}

func withSmoothScroll(o *testOptions) { o.smooth = true }

// settle delivers frames until no engine work or animation is pending.
func settle(m *model) {
	for i := 0; i < 500 && (m.frames.Pending() || m.scroller.active); i++ {
		m.Update(frameMsg{})
	}
}

func press(m *model, keys ...string) tea.Cmd {
	var cmds []tea.Cmd
	for _, key := range keys {
		var msg tea.KeyMsg
		switch key {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func activeID(m *model) string {
	return m.provider.Active().State().ActiveID
}

func scrollToLine(m *model, line int) {
	m.scrollBy(line - m.viewport.YOffset)
	m.Update(nil)
	settle(m)
}

func TestReportLoadMountsContents(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.stage != stageDisplay {
		t.Fatalf("stage = %v, want display", m.stage)
	}
	if got := len(m.provider.AnchorIDs()); got != 60 {
		t.Fatalf("anchor count = %d, want 60", got)
	}
	if got := activeID(m); got != "test-00" {
		t.Fatalf("active after load = %q, want test-00", got)
	}
	if len(m.rows) != 40 {
		t.Fatalf("panel rows = %d, want 40 (tests and records, tables folded)", len(m.rows))
	}
	if m.rows[1].node.ID != "test-00/rate" || m.rows[1].depth != 1 {
		t.Fatalf("record row should sit directly under its test, got %+v", m.rows[1])
	}
}

func TestScrollingUpdatesActiveAnchor(t *testing.T) {
	m, _, _ := newTestModel(t)

	scrollToLine(m, m.anchors["test-07"].line)
	if got := activeID(m); got != "test-07" {
		t.Fatalf("active = %q, want test-07", got)
	}
	if parents := m.provider.Active().State().ParentIDs; len(parents) != 0 {
		t.Fatalf("top-level anchor should have no parents, got %v", parents)
	}

	scrollToLine(m, m.anchors["test-07/rate/table"].line)
	state := m.provider.Active().State()
	if state.ActiveID != "test-07/rate/table" {
		t.Fatalf("active = %q, want test-07/rate/table", state.ActiveID)
	}
	if len(state.ParentIDs) == 0 || state.ParentIDs[0] != "test-07" || state.ParentIDs[len(state.ParentIDs)-1] != "test-07/rate" {
		t.Fatalf("unexpected parent chain %v", state.ParentIDs)
	}
	if !m.provider.Expansion().IsExpanded("test-07/rate") {
		t.Fatal("scrolling into a table should unfold its record")
	}
	if m.rowIndex("test-07/rate/table") < 0 {
		t.Fatal("unfolded table should appear in the panel")
	}
	if level, ok := m.provider.Active().ParentLevel("test-07/rate"); !ok || level != 0 {
		t.Fatalf("record should be the immediate parent, got level %d ok=%v", level, ok)
	}
}

func TestBracketKeysStepThroughAnchors(t *testing.T) {
	m, _, _ := newTestModel(t)

	press(m, "]")
	settle(m)
	if got := activeID(m); got != "test-00/rate" {
		t.Fatalf("after ] active = %q, want test-00/rate", got)
	}
	press(m, "]")
	settle(m)
	if got := activeID(m); got != "test-00/rate/table" {
		t.Fatalf("after ]] active = %q, want test-00/rate/table", got)
	}
	press(m, "[")
	settle(m)
	if got := activeID(m); got != "test-00/rate" {
		t.Fatalf("after [ active = %q, want test-00/rate", got)
	}
	press(m, "g")
	settle(m)
	press(m, "[")
	if !strings.Contains(m.infoMessage, "first section") {
		t.Fatalf("expected first-section notice, got %q", m.infoMessage)
	}
}

func TestInstantJumpHighlightsWithoutWaitingForAFrame(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "]")
	if got := activeID(m); got != "test-00/rate" {
		t.Fatalf("active right after ] = %q, want test-00/rate", got)
	}
}

func TestRebuildAtSameSizeRefreshesAnchors(t *testing.T) {
	m, _, _ := newTestModel(t)
	resizes := 0
	m.surface.OnResize(nil, func() { resizes++ })

	m.markViewportDirty()
	m.Update(nil)
	if resizes != 0 {
		t.Fatalf("a same-size rebuild is not a resize, got %d", resizes)
	}
	if !m.frames.Pending() || !m.frameArmed {
		t.Fatal("a rebuild should queue a spy pass")
	}
	settle(m)

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	if resizes != 1 {
		t.Fatalf("a new width should emit one resize, got %d", resizes)
	}
	settle(m)
	if got := activeID(m); got == "" {
		t.Fatal("active anchor lost after resize")
	}
}

func TestSmoothJumpAnimatesOverFrames(t *testing.T) {
	m, _, _ := newTestModel(t, withSmoothScroll)
	span := m.anchors["test-05"]
	target := span.line - span.lead

	if !m.provider.ScrollToItem("test-05") {
		t.Fatal("ScrollToItem should resolve a rendered anchor")
	}
	if !m.scroller.active {
		t.Fatal("smooth scroll should start the spring animation")
	}
	for i := 0; i < 5; i++ {
		m.Update(frameMsg{})
	}
	if y := m.viewport.YOffset; y <= 0 || y >= target {
		t.Fatalf("after a few frames offset should be between 0 and %d, got %d", target, y)
	}
	settle(m)
	if m.viewport.YOffset != target {
		t.Fatalf("animation should land on %d, got %d", target, m.viewport.YOffset)
	}
	if got := activeID(m); got != "test-05" {
		t.Fatalf("active = %q, want test-05", got)
	}
}

func TestManualScrollCancelsAnimation(t *testing.T) {
	m, _, _ := newTestModel(t, withSmoothScroll)
	m.provider.ScrollToItem("test-09")
	m.Update(frameMsg{})
	press(m, "j")
	if m.scroller.active {
		t.Fatal("manual scrolling should stop the animation")
	}
}

func TestScrollBurstCoalescesIntoOneEvaluation(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "j", "j", "j")
	if !m.frameArmed {
		t.Fatal("scrolling should arm a frame tick")
	}
	if ran := m.frames.Flush(); ran != 1 {
		t.Fatalf("three scroll events should share one frame callback, ran %d", ran)
	}
}

func TestToggleContentsPersistsDisplayState(t *testing.T) {
	m, kv, _ := newTestModel(t)

	press(m, "t")
	if !m.displayState().Visible {
		t.Fatal("t should show the contents panel")
	}
	if got := kv.Get(toc.VisibleKey, ""); got != "true" {
		t.Fatalf("persisted visibility = %q, want true", got)
	}
	if m.viewport.Width != 100 {
		t.Fatalf("floating panel should not narrow the viewport, width %d", m.viewport.Width)
	}
	if view := stripANSI(m.View()); !strings.Contains(view, "Contents") {
		t.Fatalf("view should render the panel:\n%s", view)
	}

	press(m, "m")
	if got := kv.Get(toc.ModeKey, ""); got != `"sidebar"` {
		t.Fatalf("persisted mode = %q, want \"sidebar\"", got)
	}
	if m.layout.sidebarWidth != defaultPanelWidth || m.viewport.Width != 100-defaultPanelWidth-sidebarGap {
		t.Fatalf("sidebar layout wrong: sidebar %d viewport %d", m.layout.sidebarWidth, m.viewport.Width)
	}

	press(m, "t")
	if m.displayState().Visible || m.displayState().Mode != toc.DisplaySidebar {
		t.Fatalf("hiding should keep the mode, got %+v", m.displayState())
	}
	if m.viewport.Width != 100 {
		t.Fatalf("hidden sidebar should give the width back, got %d", m.viewport.Width)
	}
}

func TestDisplayStateRestoredFromPreferences(t *testing.T) {
	kv := prefs.NewMemoryStore()
	if err := kv.Set(toc.VisibleKey, "true"); err != nil {
		t.Fatalf("seed visibility: %v", err)
	}
	if err := kv.Set(toc.ModeKey, `"sidebar"`); err != nil {
		t.Fatalf("seed mode: %v", err)
	}
	m := newModel(Config{ReportPath: "synthetic.json", Prefs: kv, Clipboard: (&clipboardStub{}).write})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m.Update(reportLoadedMsg{report: syntheticReport(3)})
	if !m.panelVisible() || m.layout.sidebarWidth == 0 {
		t.Fatalf("restored sidebar should be laid out, layout %+v", m.layout)
	}
}

func TestExpandAndCollapseAll(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "C")
	if len(m.rows) != 20 {
		t.Fatalf("collapsed rows = %d, want 20", len(m.rows))
	}
	press(m, "E")
	if len(m.rows) != 60 {
		t.Fatalf("expanded rows = %d, want 60", len(m.rows))
	}
}

func TestPanelKeyboardNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "tab")
	if m.focus != focusPanel || !m.displayState().Visible {
		t.Fatal("tab should reveal and focus the panel")
	}
	if m.panelCursor != 0 {
		t.Fatalf("cursor should start on the active row, got %d", m.panelCursor)
	}

	press(m, "j", "j", "enter")
	settle(m)
	if got := activeID(m); got != "test-01" {
		t.Fatalf("enter should jump to the cursor row, active %q", got)
	}

	press(m, " ")
	if m.provider.Expansion().IsExpanded("test-01") {
		t.Fatal("space should fold the cursor row")
	}
	if m.rowIndex("test-01/rate") >= 0 {
		t.Fatal("folded children should leave the panel")
	}

	press(m, "esc")
	if m.focus != focusContent {
		t.Fatal("esc should return focus to the report")
	}
}

func TestPanelClickJumpsToRow(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "t")

	idx := m.rowIndex("test-02")
	if idx < 0 || idx >= m.panelCapacity() {
		t.Fatalf("test-02 should be on the first panel page, idx %d", idx)
	}
	m.Update(tea.MouseMsg{
		X:      m.layout.panelLeft + 2,
		Y:      m.layout.panelTop + 2 + idx - m.panelOffset,
		Button: tea.MouseButtonLeft,
		Action: tea.MouseActionPress,
	})
	settle(m)
	if got := activeID(m); got != "test-02" {
		t.Fatalf("click should jump to test-02, active %q", got)
	}
}

func TestWheelScrollsContent(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if m.viewport.YOffset != wheelStep {
		t.Fatalf("wheel offset = %d, want %d", m.viewport.YOffset, wheelStep)
	}
}

func TestYankCopiesActiveAnchor(t *testing.T) {
	m, _, clip := newTestModel(t)
	scrollToLine(m, m.anchors["test-03"].line)

	if cmd := m.yank(); cmd == nil {
		t.Fatal("yank should start a clipboard job")
	}
	msg, err := yankJob(m.config.Clipboard, activeID(m))(m.ctx)
	if err != nil {
		t.Fatalf("yank job: %v", err)
	}
	m.Update(msg)
	if len(clip.copied) != 1 || clip.copied[0] != "test-03" {
		t.Fatalf("copied %v, want [test-03]", clip.copied)
	}
	if !strings.Contains(m.infoMessage, "test-03") {
		t.Fatalf("info should name the copied id, got %q", m.infoMessage)
	}

	clip.err = errors.New("no clipboard")
	msg, _ = yankJob(m.config.Clipboard, "test-03")(m.ctx)
	m.Update(msg)
	if !strings.Contains(m.errorMessage, "no clipboard") {
		t.Fatalf("clipboard failure should surface, got %q", m.errorMessage)
	}
}

func TestSearchJumpsToMatch(t *testing.T) {
	m, _, _ := newTestModel(t)
	press(m, "/")
	if m.stage != stageSearch {
		t.Fatal("/ should open the search prompt")
	}
	for _, r := range "test-12" {
		press(m, string(r))
	}
	press(m, "enter")
	settle(m)

	if len(m.searchMatches) != 1 {
		t.Fatalf("matches = %d, want 1", len(m.searchMatches))
	}
	if got := activeID(m); got != "test-12" {
		t.Fatalf("search should bring test-12 into view, active %q", got)
	}
	if !strings.Contains(m.viewport.View(), searchCurrentStyle.Render("test-12")) {
		t.Fatal("current match should be highlighted")
	}

	press(m, "esc")
	if m.searchQuery != "" {
		t.Fatal("esc should clear the search")
	}
}

func TestReloadFailureKeepsReport(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(reportLoadedMsg{path: "synthetic.json", err: errors.New("unexpected end of JSON input")})
	if m.report == nil || m.stage != stageDisplay {
		t.Fatal("a failed reload should keep the loaded report")
	}
	if !strings.Contains(m.errorMessage, "unexpected end") {
		t.Fatalf("error not surfaced: %q", m.errorMessage)
	}
}

func TestReloadSwapsContents(t *testing.T) {
	m, _, _ := newTestModel(t)
	scrollToLine(m, m.anchors["test-15"].line)

	m.Update(reportLoadedMsg{path: "synthetic.json", report: syntheticReport(4)})
	settle(m)
	if got := len(m.provider.AnchorIDs()); got != 12 {
		t.Fatalf("anchor count after reload = %d, want 12", got)
	}
	if got := activeID(m); !strings.HasPrefix(got, "test-0") {
		t.Fatalf("active should come from the new report, got %q", got)
	}
	if _, ok := m.anchors["test-15"]; ok {
		t.Fatal("stale anchors should be dropped")
	}
}

func TestInitialLoadFailure(t *testing.T) {
	m := newModel(Config{ReportPath: "missing.json"})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.Update(reportLoadedMsg{path: "missing.json", err: errors.New("open missing.json: no such file or directory")})
	if m.stage != stageFailed {
		t.Fatalf("stage = %v, want failed", m.stage)
	}
	view := stripANSI(m.View())
	if !strings.Contains(view, "Could not load missing.json") || !strings.Contains(view, "no such file") {
		t.Fatalf("failure view missing details:\n%s", view)
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd == nil {
		t.Fatal("r should retry the load")
	}
}

func TestViewShowsHeaderAndStatus(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := stripANSI(m.View())
	for _, want := range []string{"Synthetic run", "Test test-00", "REPORT", "TOC hidden", "1/60"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 30 {
		t.Fatalf("view should fill the window height, got %d lines", lines)
	}
}

func TestQuitClosesProvider(t *testing.T) {
	m, _, _ := newTestModel(t)
	before := m.View()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if m.ctx.Err() == nil {
		t.Fatal("quitting should cancel background work")
	}
	if m.View() != before {
		t.Fatal("the last frame should stay on screen after quitting")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("provider accessors should panic after close")
		}
	}()
	m.provider.Tree()
}

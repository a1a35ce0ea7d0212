package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/csheth/runreport/internal/report"
	"github.com/csheth/runreport/internal/toc"
)

// Config wires runtime options into the viewer.
type Config struct {
	ReportPath    string
	Prefs         toc.KV
	Logger        *zap.Logger
	ThresholdRows int
	FrameInterval time.Duration
	PanelWidth    int
	SmoothScroll  bool
	HeaderStyle   string
	Wrap          int
	Watch         bool
	// Clipboard receives yanked anchor ids; the system clipboard when nil.
	Clipboard func(string) error
}

// New returns the run report viewer.
func New(config Config) tea.Model {
	return newModel(config)
}

type model struct {
	config Config
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	jobs   *jobBus

	stage       stage
	focus       focusArea
	spinner     spinner.Model
	searchInput textinput.Model
	viewport    viewport.Model
	layout      pageLayout

	report   *report.Report
	tree     *toc.Tree
	provider *toc.Provider
	surface  *viewportSurface
	frames   *toc.FrameQueue
	scroller scroller
	changes  chan struct{}

	header          string
	anchors         map[string]anchorSpan
	viewportContent string
	lineCount       int
	viewportDirty   bool
	lastYOffset     int
	renderedSize    [2]int
	frameArmed      bool

	rows        []panelRow
	panelCursor int
	panelOffset int
	activeMoved bool
	lastJump    string

	searchQuery    string
	searchMatches  []matchRange
	searchMatchIdx int

	infoMessage  string
	errorMessage string
	helpVisible  bool
	closed       bool
	lastFrame    string
}

func newModel(config Config) *model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ThresholdRows < 1 {
		config.ThresholdRows = defaultThresholdRows
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = defaultFrameInterval
	}
	if config.PanelWidth <= 0 {
		config.PanelWidth = defaultPanelWidth
	}
	if config.Clipboard == nil {
		config.Clipboard = clipboard.WriteAll
	}

	searchInput := textinput.New()
	searchInput.Placeholder = "Search the report…"
	searchInput.CharLimit = 120
	searchInput.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = false

	ctx, cancel := context.WithCancel(context.Background())
	m := &model{
		config:         config,
		logger:         config.Logger,
		ctx:            ctx,
		cancel:         cancel,
		jobs:           newJobBus(ctx, config.Logger.Named("jobs")),
		stage:          stageLoading,
		spinner:        spin,
		searchInput:    searchInput,
		viewport:       vp,
		layout:         newPageLayout(),
		frames:         toc.NewFrameQueue(),
		scroller:       newScroller(int(time.Second / config.FrameInterval)),
		anchors:        map[string]anchorSpan{},
		searchMatchIdx: -1,
		infoMessage:    fmt.Sprintf("Loading %s…", config.ReportPath),
	}
	m.surface = newViewportSurface(m)
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.jobs.Start(jobKindLoad, loadReportJob(m.config.ReportPath)),
		m.startWatching(),
	)
}

// Update runs the message handler and then reconciles the viewport with the
// TOC engine: pending content rebuilds become resize events, offset changes
// become scroll events and queued engine work arms the next frame.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.update(msg)
	if m.closed {
		return m, cmd
	}
	m.refreshViewportIfDirty()
	m.syncScroll()
	m.syncPanel()
	return m, tea.Batch(cmd, m.armFrame())
}

func (m *model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading || len(m.jobs.Running()) > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case frameMsg:
		m.handleFrame()
		return m, nil
	case tea.WindowSizeMsg:
		m.layout.windowWidth = msg.Width
		m.layout.windowHeight = msg.Height
		m.relayout()
		return m, nil
	case jobSignalMsg:
		m.jobs.Track(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		m.jobs.Track(msg.Snapshot)
		if msg.Payload != nil {
			return m.update(msg.Payload)
		}
		return m, nil
	case reportLoadedMsg:
		m.handleReportLoaded(msg)
		return m, nil
	case reportChangedMsg:
		m.infoMessage = "Report changed on disk, reloading…"
		return m, tea.Batch(m.reload(), waitForChange(m.changes))
	case yankResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Copy failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Copied %s to the clipboard.", msg.id)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m *model) handleReportLoaded(msg reportLoadedMsg) {
	var tree *toc.Tree
	err := msg.err
	if err == nil {
		tree, err = report.Tree(msg.report)
	}
	if err != nil {
		m.logger.Warn("report load failed", zap.String("path", msg.path), zap.Error(err))
		m.errorMessage = err.Error()
		if m.report == nil {
			m.stage = stageFailed
			m.infoMessage = "Press r to retry or q to quit."
		} else {
			m.infoMessage = "Reload failed; keeping the previous report."
		}
		return
	}

	m.report = msg.report
	m.tree = tree
	if m.stage != stageSearch {
		m.stage = stageDisplay
	}
	m.errorMessage = ""
	m.lastJump = ""
	m.scroller.stop()
	m.relayout()
	m.refreshViewport()

	if m.provider == nil {
		m.mountProvider(tree)
	} else {
		m.provider.SetTree(tree)
	}
	m.relayout()

	anchors := len(m.provider.AnchorIDs())
	m.infoMessage = fmt.Sprintf("Loaded %q with %d sections. Press t for contents, ? for help.", m.report.Title, anchors)
	m.logger.Info("report loaded", zap.String("path", msg.path), zap.Int("tests", len(m.report.Tests())), zap.Int("anchors", anchors))
}

func (m *model) mountProvider(tree *toc.Tree) {
	m.provider = toc.NewProvider(tree, toc.Deps{
		Surface:   m.surface,
		Frames:    m.frames,
		Prefs:     m.config.Prefs,
		Logger:    m.logger.Named("toc"),
		Threshold: float64(m.config.ThresholdRows),
	})
	m.provider.Mount()
	m.provider.Active().Subscribe(func(*toc.ActiveState) { m.activeMoved = true })
	m.provider.Display().Subscribe(func(toc.DisplayState) { m.relayout() })
	m.activeMoved = true
}

func (m *model) displayState() toc.DisplayState {
	if m.provider == nil || m.closed {
		return toc.DefaultDisplayState
	}
	return m.provider.Display().State()
}

// relayout recomputes the header and frame geometry and schedules a content
// rebuild, which reaches the engine as a resize.
func (m *model) relayout() {
	width := m.layout.windowWidth
	if width <= 0 {
		width = 80
	}
	m.header = ""
	headerHeight := 0
	if m.report != nil {
		m.header = renderHeader(m.report, m.config.HeaderStyle, width, max(1, m.layout.windowHeight/4))
		headerHeight = lipgloss.Height(m.header)
	}
	m.layout.Update(width, m.layout.windowHeight, headerHeight, m.displayState(), m.config.PanelWidth)
	m.viewport.Width = m.layout.viewportWidth
	m.viewport.Height = m.layout.bodyHeight
	m.searchInput.Width = max(10, width-4)
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	if m.report == nil {
		m.viewportContent = ""
		m.viewport.SetContent("")
		m.anchors = map[string]anchorSpan{}
		m.lineCount = 0
		return
	}
	view := m.buildDisplayContent()
	m.viewportContent = view.content
	m.anchors = view.anchors
	m.lineCount = len(splitLinesPreserve(view.content))

	content := view.content
	if m.searchQuery != "" {
		// Matching runs on the plain text so queries never hit escape codes.
		plain := stripANSI(view.content)
		m.viewportContent = plain
		m.searchMatches = findMatches(plain, m.searchQuery)
		if len(m.searchMatches) == 0 {
			m.searchMatchIdx = -1
		} else if m.searchMatchIdx < 0 || m.searchMatchIdx >= len(m.searchMatches) {
			m.searchMatchIdx = 0
		}
		content = highlightMatches(plain, m.searchMatches, m.searchMatchIdx)
	}
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(m.clampYOffset(m.viewport.YOffset))
	if m.scroller.active {
		m.scroller.start(m.viewport.YOffset, m.clampYOffset(int(m.scroller.target)))
	}
	// Only a new viewport size is a resize. A rebuild at the same size
	// still moves anchors, so the spy re-reads them.
	size := [2]int{m.viewport.Width, m.viewport.Height}
	if size != m.renderedSize || m.provider == nil || m.closed {
		m.renderedSize = size
		m.surface.emitResize()
		return
	}
	m.provider.Refresh()
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, m.quit()
	}
	switch m.stage {
	case stageSearch:
		return m.handleSearchKey(key)
	case stageLoading:
		if key.String() == "q" {
			return m, m.quit()
		}
		return m, nil
	case stageFailed:
		switch key.String() {
		case "q", "esc":
			return m, m.quit()
		case "r":
			return m, m.reload()
		}
		return m, nil
	}
	if m.focus == focusPanel {
		if handled, cmd := m.handlePanelKey(key); handled {
			return m, cmd
		}
	}
	return m.handleDisplayKey(key)
}

func (m *model) handleDisplayKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		return m, m.quit()
	case "esc":
		switch {
		case m.helpVisible:
			m.helpVisible = false
		case m.searchQuery != "":
			m.clearSearch()
			m.infoMessage = "Cleared search filter."
		}
	case "?":
		m.helpVisible = !m.helpVisible
	case "up", "k":
		m.scrollBy(-1)
	case "down", "j":
		m.scrollBy(1)
	case "pgup", "b":
		m.scrollBy(-m.viewport.Height)
	case "pgdown", "f", " ":
		m.scrollBy(m.viewport.Height)
	case "ctrl+u":
		m.scrollBy(-m.viewport.Height / 2)
	case "ctrl+d":
		m.scrollBy(m.viewport.Height / 2)
	case "g", "home":
		m.scrollToTop()
	case "G", "end":
		m.scrollToBottom()
	case "]":
		m.jumpToRelativeAnchor(1)
	case "[":
		m.jumpToRelativeAnchor(-1)
	case "t":
		m.toggleContents()
	case "m":
		m.switchDisplayMode()
	case "tab":
		m.focusContents()
	case "E":
		m.provider.Expansion().ExpandAll(m.provider.Tree())
		m.infoMessage = "Expanded every section."
	case "C":
		m.provider.Expansion().CollapseAll()
		m.infoMessage = "Collapsed every section."
	case "y":
		return m, m.yank()
	case "/":
		m.stage = stageSearch
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()
	case "n":
		m.advanceSearch(1)
	case "N":
		m.advanceSearch(-1)
	case "r":
		return m, m.reload()
	}
	return m, nil
}

func (m *model) handlePanelKey(key tea.KeyMsg) (bool, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.panelCursor--
	case "down", "j":
		m.panelCursor++
	case "g", "home":
		m.panelCursor = 0
	case "G", "end":
		m.panelCursor = len(m.rows) - 1
	case "enter":
		m.jumpToRow(m.panelCursor)
	case " ":
		if row, ok := m.rowAt(m.panelCursor); ok && row.node.HasChildren() {
			m.provider.Expansion().Toggle(row.node.ID)
		}
	case "right", "l":
		if row, ok := m.rowAt(m.panelCursor); ok && row.node.HasChildren() {
			m.provider.Expansion().Expand(row.node.ID)
		}
	case "left", "h":
		if row, ok := m.rowAt(m.panelCursor); ok && m.provider.Expansion().IsExpanded(row.node.ID) {
			m.provider.Expansion().Toggle(row.node.ID)
		}
	case "tab", "esc":
		m.focus = focusContent
		m.activeMoved = true
		m.infoMessage = "Focus returned to the report."
	default:
		return false, nil
	}
	return true, nil
}

func (m *model) rowAt(idx int) (panelRow, bool) {
	if idx < 0 || idx >= len(m.rows) {
		return panelRow{}, false
	}
	return m.rows[idx], true
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.report == nil || m.stage != stageDisplay {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scrollBy(-wheelStep)
	case tea.MouseButtonWheelDown:
		m.scrollBy(wheelStep)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if idx, ok := m.panelRowAt(msg.X, msg.Y); ok {
			m.panelCursor = idx
			m.jumpToRow(idx)
		}
	}
	return m, nil
}

func (m *model) scrollBy(delta int) {
	m.scroller.stop()
	m.lastJump = ""
	m.viewport.SetYOffset(m.clampYOffset(m.viewport.YOffset + delta))
}

func (m *model) scrollToTop() {
	m.scrollBy(-m.viewport.YOffset)
	m.infoMessage = "Jumped to top."
}

func (m *model) scrollToBottom() {
	m.scrollBy(m.lineCount)
	m.infoMessage = "Jumped to bottom."
}

func (m *model) jumpToRow(idx int) {
	row, ok := m.rowAt(idx)
	if !ok {
		return
	}
	m.jumpTo(row.node)
}

func (m *model) jumpTo(node toc.Node) {
	if !m.provider.ScrollToItem(node.ID) {
		m.infoMessage = fmt.Sprintf("%s is not rendered.", node.Label)
		return
	}
	m.lastJump = node.ID
	m.infoMessage = fmt.Sprintf("Jumped to %s.", node.Label)
	if !m.scroller.active {
		m.syncScroll()
		m.provider.Evaluate()
	}
}

// jumpToRelativeAnchor moves to the next or previous anchor in reading
// order. While an animated jump is still running it steps from that jump's
// target rather than from the active anchor.
func (m *model) jumpToRelativeAnchor(delta int) {
	ids := m.provider.AnchorIDs()
	if len(ids) == 0 {
		m.infoMessage = "This report has no sections."
		return
	}
	base := m.provider.Active().State().ActiveID
	if m.lastJump != "" && m.scroller.active {
		base = m.lastJump
	}
	idx := -1
	for i, id := range ids {
		if id == base {
			idx = i
			break
		}
	}
	next := idx + delta
	if idx < 0 {
		next = 0
		if delta < 0 {
			next = len(ids) - 1
		}
	}
	if next < 0 {
		m.infoMessage = "Already at the first section."
		return
	}
	if next >= len(ids) {
		m.infoMessage = "Already at the last section."
		return
	}
	node, _ := m.provider.Tree().Node(ids[next])
	m.jumpTo(node)
}

func (m *model) toggleContents() {
	display := m.provider.Display()
	display.ToggleVisibility()
	if display.State().Visible {
		m.infoMessage = "Contents shown. Press tab to focus it."
		return
	}
	m.focus = focusContent
	m.infoMessage = "Contents hidden."
}

func (m *model) switchDisplayMode() {
	display := m.provider.Display()
	next := toc.DisplaySidebar
	if display.State().Mode == toc.DisplaySidebar {
		next = toc.DisplayFloating
	}
	display.SetDisplayMode(next)
	m.infoMessage = fmt.Sprintf("Contents layout: %s.", next)
}

func (m *model) focusContents() {
	display := m.provider.Display()
	if !display.State().Visible {
		display.ToggleVisibility()
	}
	m.focus = focusPanel
	if idx := m.rowIndex(m.provider.Active().State().ActiveID); idx >= 0 {
		m.panelCursor = idx
	}
	m.infoMessage = "Contents focused. Enter jumps, space folds, tab returns."
}

func (m *model) yank() tea.Cmd {
	id := m.provider.Active().State().ActiveID
	if m.focus == focusPanel {
		if row, ok := m.rowAt(m.panelCursor); ok {
			id = row.node.ID
		}
	}
	if id == "" {
		m.infoMessage = "Nothing to copy yet."
		return nil
	}
	return m.jobs.Start(jobKindYank, yankJob(m.config.Clipboard, id))
}

func (m *model) reload() tea.Cmd {
	m.infoMessage = fmt.Sprintf("Reloading %s…", m.config.ReportPath)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindReload, loadReportJob(m.config.ReportPath)))
}

func (m *model) quit() tea.Cmd {
	m.lastFrame = m.View()
	m.closed = true
	m.cancel()
	m.provider.Close()
	return tea.Quit
}

func (m *model) handleSearchKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageDisplay
		m.searchInput.Blur()
		m.infoMessage = "Search cancelled."
		return m, nil
	case tea.KeyEnter:
		m.stage = stageDisplay
		m.applySearch(m.searchInput.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(key)
	return m, cmd
}

func (m *model) applySearch(query string) {
	query = strings.TrimSpace(query)
	m.searchInput.Blur()
	m.searchQuery = query
	if query == "" {
		m.clearSearch()
		m.infoMessage = "Cleared search filter."
		return
	}
	m.searchMatchIdx = 0
	m.refreshViewport()
	if len(m.searchMatches) == 0 {
		m.infoMessage = fmt.Sprintf("No matches for %q.", query)
		return
	}
	m.scrollToCurrentMatch()
	m.infoMessage = fmt.Sprintf("Match 1/%d for %q.", len(m.searchMatches), query)
}

func (m *model) clearSearch() {
	m.searchQuery = ""
	m.searchMatches = nil
	m.searchMatchIdx = -1
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	m.markViewportDirty()
}

func (m *model) advanceSearch(delta int) {
	if m.searchQuery == "" {
		m.infoMessage = "Start a search with / first."
		return
	}
	if len(m.searchMatches) == 0 {
		m.infoMessage = fmt.Sprintf("No matches for %q.", m.searchQuery)
		return
	}
	count := len(m.searchMatches)
	m.searchMatchIdx = (m.searchMatchIdx + delta) % count
	if m.searchMatchIdx < 0 {
		m.searchMatchIdx += count
	}
	m.refreshViewport()
	m.scrollToCurrentMatch()
	m.infoMessage = fmt.Sprintf("Match %d/%d for %q.", m.searchMatchIdx+1, count, m.searchQuery)
}

func (m *model) scrollToCurrentMatch() {
	if m.searchMatchIdx < 0 || m.searchMatchIdx >= len(m.searchMatches) {
		return
	}
	line := lineNumberAtOffset(m.viewportContent, m.searchMatches[m.searchMatchIdx].start)
	m.scrollBy(line - 1 - m.viewport.YOffset)
}

func (m *model) searchStatusLine() string {
	if m.searchQuery == "" {
		return ""
	}
	if len(m.searchMatches) == 0 {
		return fmt.Sprintf("Search %q: no matches", m.searchQuery)
	}
	return fmt.Sprintf("Search %q: match %d/%d", m.searchQuery, m.searchMatchIdx+1, len(m.searchMatches))
}

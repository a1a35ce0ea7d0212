package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/csheth/runreport/internal/toc"
)

// panelRow is one visible line of the contents panel.
type panelRow struct {
	node  toc.Node
	depth int
}

// buildPanelRows lists the rows a reader can see. Wrappers never get a row
// of their own; their children take the wrapper's depth. Children of a
// collapsed row are hidden.
func buildPanelRows(tree *toc.Tree, expansion *toc.ExpansionTracker) []panelRow {
	if tree == nil {
		return nil
	}
	var rows []panelRow
	var walk func(nodes []toc.Node, depth int)
	walk = func(nodes []toc.Node, depth int) {
		for _, node := range nodes {
			if !node.IsAnchor() {
				walk(node.Children, depth)
				continue
			}
			rows = append(rows, panelRow{node: node, depth: depth})
			if node.HasChildren() && expansion.IsExpanded(node.ID) {
				walk(node.Children, depth+1)
			}
		}
	}
	walk(tree.Roots(), 0)
	return rows
}

func (m *model) rowIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, row := range m.rows {
		if row.node.ID == id {
			return i
		}
	}
	return -1
}

// panelCapacity is the number of rows that fit below the panel title.
func (m *model) panelCapacity() int {
	capacity := m.layout.panelHeight - 3
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// syncPanel rebuilds the rows and keeps the cursor row on screen. While the
// content has focus the cursor follows the active anchor.
func (m *model) syncPanel() {
	if m.provider == nil || m.closed {
		m.rows = nil
		return
	}
	m.rows = buildPanelRows(m.provider.Tree(), m.provider.Expansion())
	if len(m.rows) == 0 {
		m.panelCursor, m.panelOffset = 0, 0
		return
	}
	if m.activeMoved {
		m.activeMoved = false
		if m.focus != focusPanel {
			if idx := m.rowIndex(m.provider.Active().State().ActiveID); idx >= 0 {
				m.panelCursor = idx
			}
		}
	}
	m.panelCursor = max(0, min(m.panelCursor, len(m.rows)-1))

	capacity := m.panelCapacity()
	if m.panelCursor < m.panelOffset {
		m.panelOffset = m.panelCursor
	}
	if m.panelCursor >= m.panelOffset+capacity {
		m.panelOffset = m.panelCursor - capacity + 1
	}
	m.panelOffset = max(0, min(m.panelOffset, len(m.rows)-capacity))
}

func (m *model) panelVisible() bool {
	return m.provider != nil && !m.closed && m.displayState().Visible
}

// panelBounds returns the panel's screen rectangle.
func (m *model) panelBounds() (left, top, width, height int) {
	if m.displayState().Mode == toc.DisplaySidebar {
		return 0, m.layout.contentTop, m.layout.sidebarWidth, m.layout.bodyHeight
	}
	return m.layout.panelLeft, m.layout.panelTop, m.layout.panelWidth, m.layout.panelHeight
}

// panelRowAt maps a screen cell to a row index.
func (m *model) panelRowAt(x, y int) (int, bool) {
	if !m.panelVisible() {
		return 0, false
	}
	left, top, width, height := m.panelBounds()
	if x < left || x >= left+width || y < top || y >= top+height {
		return 0, false
	}
	// One line of border and one of title sit above the first row.
	row := y - top - 2
	if row < 0 || row >= m.panelCapacity() {
		return 0, false
	}
	idx := m.panelOffset + row
	if idx >= len(m.rows) {
		return 0, false
	}
	return idx, true
}

func (m *model) panelContains(x, y int) bool {
	if !m.panelVisible() {
		return false
	}
	left, top, width, height := m.panelBounds()
	return x >= left && x < left+width && y >= top && y < top+height
}

func (m *model) renderPanel(width, height int) string {
	inner := width - 2
	if inner < 4 {
		inner = 4
	}
	title := "Contents"
	if m.focus == focusPanel {
		title += " (focused)"
	}
	lines := []string{panelTitleStyle.Render(runewidth.Truncate(title, inner, "…"))}

	store := m.provider.Active()
	capacity := m.panelCapacity()
	end := min(len(m.rows), m.panelOffset+capacity)
	for i := m.panelOffset; i < end; i++ {
		lines = append(lines, m.renderPanelRow(m.rows[i], i, inner, store))
	}
	if len(m.rows) == 0 {
		lines = append(lines, helperStyle.Render("No sections"))
	}

	style := panelBoxStyle
	if m.focus == focusPanel {
		style = panelFocusedBoxStyle
	}
	return style.Width(inner).Height(height - 2).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

func (m *model) renderPanelRow(row panelRow, idx, width int, store *toc.ActiveStore) string {
	marker := "· "
	if row.node.HasChildren() {
		marker = "▸ "
		if m.provider.Expansion().IsExpanded(row.node.ID) {
			marker = "▾ "
		}
	}
	label := row.node.Label
	if row.node.Kind == toc.KindArgValBlock {
		if badges := badgeText(row.node.MetadataEntries()); badges != "" {
			label = badges
		}
	}
	text := strings.Repeat("  ", row.depth) + marker + label
	text = runewidth.FillRight(runewidth.Truncate(text, width, "…"), width)

	switch {
	case m.focus == focusPanel && idx == m.panelCursor:
		return cursorRowStyle.Render(text)
	case store.IsActive(row.node.ID):
		return activeRowStyle.Render(text)
	}
	if level, ok := store.ParentLevel(row.node.ID); ok {
		return parentRowStyles[min(level, len(parentRowStyles)-1)].Render(text)
	}
	if row.node.Kind == toc.KindArgValBlock {
		return badgeStyle.Render(text)
	}
	return text
}

// badgeText lists the first argument values of a group and counts the rest.
func badgeText(entries []toc.MetadataEntry) string {
	if len(entries) == 0 {
		return ""
	}
	shown := entries
	if len(shown) > maxBadges {
		shown = shown[:maxBadges]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, entry := range shown {
		parts = append(parts, fmt.Sprintf("%s=%s", entry.Key, entry.Value))
	}
	if rest := len(entries) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", rest))
	}
	return strings.Join(parts, " ")
}

// overlay draws block over base with its top-left corner at (left, top).
func overlay(base, block string, top, left int) string {
	baseLines := strings.Split(base, "\n")
	for i, line := range strings.Split(block, "\n") {
		idx := top + i
		if idx < 0 || idx >= len(baseLines) {
			continue
		}
		prefix := truncate.String(baseLines[idx], uint(left))
		prefix = padding.String(prefix, uint(left))
		baseLines[idx] = prefix + line
	}
	return strings.Join(baseLines, "\n")
}

func (m *model) bodyWithPanel(content string) string {
	if !m.panelVisible() {
		return content
	}
	if m.displayState().Mode == toc.DisplaySidebar {
		panel := m.renderPanel(m.layout.sidebarWidth, m.layout.bodyHeight)
		gap := lipgloss.NewStyle().Width(sidebarGap).Height(m.layout.bodyHeight).Render("")
		return lipgloss.JoinHorizontal(lipgloss.Top, panel, gap, content)
	}
	panel := m.renderPanel(m.layout.panelWidth, m.layout.panelHeight)
	return overlay(content, panel, m.layout.panelTop-m.layout.contentTop, m.layout.panelLeft)
}

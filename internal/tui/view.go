package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func (m *model) View() string {
	if m.closed {
		return m.lastFrame
	}
	switch {
	case m.stage == stageLoading && m.report == nil:
		return m.viewLoading()
	case m.stage == stageFailed:
		return m.viewFailed()
	}
	m.refreshViewportIfDirty()
	parts := []string{}
	if m.header != "" {
		parts = append(parts, m.header)
	}
	parts = append(parts, m.bodyView(), m.statusBarView(), m.messageLine())
	return strings.Join(parts, "\n")
}

func (m *model) viewLoading() string {
	return fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render(m.infoMessage))
}

func (m *model) viewFailed() string {
	lines := []string{
		errorStyle.Render("Could not load " + m.config.ReportPath),
		errorStyle.Render(m.errorMessage),
		helperStyle.Render(m.infoMessage),
	}
	return strings.Join(lines, "\n")
}

func (m *model) bodyView() string {
	if m.helpVisible {
		return lipgloss.Place(m.layout.windowWidth, m.layout.bodyHeight, lipgloss.Center, lipgloss.Center, m.keyLegendView())
	}
	return m.bodyWithPanel(m.viewport.View())
}

func (m *model) statusBarView() string {
	width := m.layout.windowWidth
	focus := "REPORT"
	if m.focus == focusPanel {
		focus = "CONTENTS"
	}
	stats := []string{focus}

	display := m.displayState()
	if display.Visible {
		stats = append(stats, fmt.Sprintf("TOC %s", display.Mode))
	} else {
		stats = append(stats, "TOC hidden")
	}

	if m.provider != nil {
		ids := m.provider.AnchorIDs()
		activeID := m.provider.Active().State().ActiveID
		position := 0
		for i, id := range ids {
			if id == activeID {
				position = i + 1
				break
			}
		}
		if node, ok := m.provider.Tree().Node(activeID); ok {
			stats = append(stats, node.Label)
		}
		stats = append(stats, fmt.Sprintf("%d/%d", position, len(ids)))
	}
	stats = append(stats, m.jobStatusBadges()...)

	text := runewidth.Truncate(strings.Join(stats, "  •  "), max(1, width-2), "…")
	return statusBarStyle.Width(width).MaxHeight(1).Render(text)
}

func (m *model) jobStatusBadges() []string {
	running := m.jobs.Running()
	badges := make([]string, 0, len(running))
	for _, job := range running {
		badges = append(badges, fmt.Sprintf("%s %s", m.spinner.View(), job.Kind))
	}
	return badges
}

func (m *model) messageLine() string {
	width := max(1, m.layout.windowWidth)
	if m.stage == stageSearch {
		return m.searchInput.View()
	}
	switch {
	case m.errorMessage != "":
		return errorStyle.Render(runewidth.Truncate(m.errorMessage, width, "…"))
	case m.searchQuery != "" && m.infoMessage == "":
		return helperStyle.Render(runewidth.Truncate(m.searchStatusLine(), width, "…"))
	default:
		return helperStyle.Render(runewidth.Truncate(m.infoMessage, width, "…"))
	}
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"↑/↓", "Scroll"},
		{"[/]", "Prev/next section"},
		{"g/G", "Top or bottom"},
		{"t", "Toggle contents"},
		{"m", "Float or dock"},
		{"tab", "Focus contents"},
		{"E/C", "Expand/collapse all"},
		{"y", "Copy section id"},
		{"/", "Search"},
		{"n/N", "Next/prev match"},
		{"r", "Reload report"},
		{"q", "Quit"},
	}
	rows := []string{panelTitleStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := min(i+columns, len(hints))
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	rows = append(rows, "", helperStyle.Render("In the contents panel: enter jumps, space folds, esc returns."))
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

var ansiEscapeCodes = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripANSI(text string) string {
	return ansiEscapeCodes.ReplaceAllString(text, "")
}

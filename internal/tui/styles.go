package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	testHeaderStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	argsHeaderStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	measurementStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	chartStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ecae6"))
	warningStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	searchHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190"))
	searchCurrentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("229"))
	tableBorderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#56526e"))

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)

	panelBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e"))
	panelFocusedBoxStyle = panelBoxStyle.BorderForeground(lipgloss.Color("#ffd166"))
	panelTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	activeRowStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	cursorRowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166"))
	badgeStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))

	// Ancestors of the active row fade with distance.
	parentRowStyles = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#bde0fe")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#bde0fe")).Bold(true),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8ecae6")),
	}
)

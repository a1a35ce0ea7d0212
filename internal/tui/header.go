package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/csheth/runreport/internal/report"
)

// headerMarkdown summarises the report preamble: the title, the run links
// and every branch and revision block.
func headerMarkdown(r *report.Report) string {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "Run report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var links []string
	if r.RunSourceLink != "" {
		links = append(links, fmt.Sprintf("[source](%s)", r.RunSourceLink))
	}
	if r.RunStatsLink != "" {
		links = append(links, fmt.Sprintf("[stats](%s)", r.RunStatsLink))
	}
	if len(links) > 0 {
		b.WriteString(strings.Join(links, " · "))
		b.WriteString("\n\n")
	}

	for _, block := range r.Content {
		if block.Type != report.BlockBranch && block.Type != report.BlockRevision {
			continue
		}
		parts := make([]string, 0, len(block.Items))
		for _, item := range block.Items {
			value := "`" + item.Value + "`"
			if item.URL != "" {
				value = fmt.Sprintf("[%s](%s)", item.Value, item.URL)
			}
			parts = append(parts, fmt.Sprintf("%s %s", item.Name, value))
		}
		if len(parts) == 0 {
			continue
		}
		label := block.Label
		if label == "" {
			label = string(block.Type)
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", label, strings.Join(parts, ", "))
	}
	return b.String()
}

// renderHeader renders the preamble with glamour and caps it at maxLines.
// Rendering failures fall back to the styled title alone.
func renderHeader(r *report.Report, style string, width, maxLines int) string {
	if r == nil {
		return ""
	}
	if style == "" {
		style = "dark"
	}
	rendered, err := renderMarkdown(headerMarkdown(r), style, width)
	if err != nil {
		return titleStyle.Render(r.Title)
	}
	lines := trimBlankLines(strings.Split(rendered, "\n"))
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func renderMarkdown(markdown, style string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(markdown)
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(stripANSI(lines[start])) == "" {
		start++
	}
	for end > start && strings.TrimSpace(stripANSI(lines[end-1])) == "" {
		end--
	}
	return lines[start:end]
}

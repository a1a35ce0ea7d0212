package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/runreport/internal/report"
	"github.com/csheth/runreport/internal/toc"
)

type pageLayout struct {
	windowWidth   int
	windowHeight  int
	contentTop    int
	bodyHeight    int
	viewportWidth int
	sidebarWidth  int
	panelWidth    int
	panelHeight   int
	panelTop      int
	panelLeft     int
}

func newPageLayout() pageLayout {
	return pageLayout{
		windowWidth:   80,
		windowHeight:  24,
		bodyHeight:    20,
		viewportWidth: 80,
		panelWidth:    defaultPanelWidth,
	}
}

// Update recomputes the frame geometry. The floating panel overlays the
// right edge of the viewport at 60% of its height; the sidebar takes a
// column on the left and narrows the viewport.
func (l *pageLayout) Update(width, height, headerHeight int, display toc.DisplayState, panelWidth int) {
	l.windowWidth = width
	l.windowHeight = height
	l.contentTop = headerHeight
	body := height - headerHeight - footerHeight
	if body < minBodyHeight {
		body = minBodyHeight
	}
	l.bodyHeight = body

	pw := panelWidth
	if pw > width/2 {
		pw = width / 2
	}
	if pw < 16 {
		pw = 16
	}
	l.panelWidth = pw

	l.sidebarWidth = 0
	l.viewportWidth = width
	if display.Mode == toc.DisplaySidebar {
		l.panelHeight = body
		l.panelTop = headerHeight
		l.panelLeft = 0
		if display.Visible {
			l.sidebarWidth = pw
			l.viewportWidth = width - pw - sidebarGap
		}
	} else {
		h := body * floatingHeightPct / 100
		if h < minBodyHeight {
			h = minBodyHeight
		}
		l.panelHeight = h
		l.panelTop = headerHeight + (body-h)/2
		l.panelLeft = width - pw
		if l.panelLeft < 0 {
			l.panelLeft = 0
		}
	}
	if l.viewportWidth < minViewportWidth {
		l.viewportWidth = minViewportWidth
	}
}

type displayView struct {
	content string
	anchors map[string]anchorSpan
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (cb *contentBuilder) Indented(text, prefix string) {
	cb.WriteString(indentMultiline(text, prefix))
	cb.WriteRune('\n')
}

func (m *model) buildDisplayContent() displayView {
	cb := &contentBuilder{}
	lines := map[string]int{}
	// leads counts the blank separator rows right above an anchor; jumps keep
	// them on screen.
	leads := map[string]int{}
	wrap := m.wrapWidth(6)

	records := map[string]report.Record{}
	for _, test := range m.report.Tests() {
		for _, record := range test.Records {
			records[record.ID] = record
		}
	}

	for _, test := range m.report.Tests() {
		node, ok := m.tree.Node(test.ID)
		if !ok {
			continue
		}
		if cb.Line() > 0 {
			cb.WriteRune('\n')
			leads[test.ID] = 1
		}
		lines[test.ID] = cb.Line()
		cb.WriteString(testHeaderStyle.Render(test.Label))
		cb.WriteRune('\n')
		if len(test.CommonArgs) > 0 {
			cb.Indented(helperStyle.Render(wordwrap.String("Common arguments: "+test.CommonArgs.String(), wrap)), "  ")
		}
		for _, group := range node.Children {
			if group.IsAnchor() {
				cb.WriteRune('\n')
				leads[group.ID] = 1
				lines[group.ID] = cb.Line()
				cb.Indented(argsHeaderStyle.Render(wordwrap.String(group.Label, wrap)), "  ")
			}
			for _, recordNode := range group.Children {
				m.writeRecord(cb, lines, leads, test, records[recordNode.ID], recordNode)
			}
		}
	}

	return displayView{
		content: strings.TrimSuffix(cb.String(), "\n"),
		anchors: spans(lines, leads, cb.Line()),
	}
}

func (m *model) writeRecord(cb *contentBuilder, lines, leads map[string]int, test *report.TestBlock, record report.Record, node toc.Node) {
	const indent = "    "
	cb.WriteRune('\n')
	leads[node.ID] = 1
	lines[node.ID] = cb.Line()
	cb.WriteString(indent + measurementStyle.Render(node.Label))
	cb.WriteRune('\n')
	if axes := axisLine(record); axes != "" {
		cb.WriteString(indent + helperStyle.Render(axes))
		cb.WriteRune('\n')
	}
	for _, warning := range record.Warnings {
		cb.WriteString(indent + warningStyle.Render("! "+warning))
		cb.WriteRune('\n')
	}
	if test.EnableChartView {
		if spark := sparkline(record.DatasetChart); spark != "" {
			cb.WriteString(indent + chartStyle.Render(spark))
			cb.WriteRune('\n')
		}
	}
	for _, child := range node.Children {
		lines[child.ID] = cb.Line()
		cb.WriteString(indent + helperStyle.Render(child.Label))
		cb.WriteRune('\n')
		cb.Indented(renderTable(record.DatasetTable, m.wrapWidth(len(indent)+2)), indent)
	}
}

// spans turns anchor start lines into line ranges; each section runs until
// the next one starts.
func spans(lines, leads map[string]int, total int) map[string]anchorSpan {
	type entry struct {
		id   string
		line int
	}
	entries := make([]entry, 0, len(lines))
	for id, line := range lines {
		entries = append(entries, entry{id, line})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].line == entries[j].line {
			return entries[i].id < entries[j].id
		}
		return entries[i].line < entries[j].line
	})
	out := make(map[string]anchorSpan, len(entries))
	for i, e := range entries {
		end := total
		for j := i + 1; j < len(entries); j++ {
			if entries[j].line > e.line {
				end = entries[j].line
				break
			}
		}
		height := end - e.line
		if height < 1 {
			height = 1
		}
		out[e.id] = anchorSpan{line: e.line, height: height, lead: leads[e.id]}
	}
	return out
}

func axisLine(record report.Record) string {
	var parts []string
	if record.AxisXLabel != "" {
		parts = append(parts, "x: "+record.AxisXLabel)
	}
	if record.AxisYLabel != "" {
		parts = append(parts, "y: "+record.AxisYLabel)
	}
	if record.SequenceGroupArg != "" {
		parts = append(parts, "series: "+record.SequenceGroupArg)
	}
	return strings.Join(parts, "  ")
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// sparkline plots the last column of a dataset whose first row is a header.
func sparkline(rows [][]report.Value) string {
	if len(rows) < 2 {
		return ""
	}
	var values []float64
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(string(row[len(row)-1]), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
		}
		b.WriteRune(sparkTicks[idx])
	}
	return fmt.Sprintf("%s  %s..%s", b.String(), formatFloat(lo), formatFloat(hi))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func renderTable(rows [][]report.Value, width int) string {
	if len(rows) == 0 {
		return ""
	}
	toStrings := func(row []report.Value) []string {
		out := make([]string, len(row))
		for i, v := range row {
			out[i] = string(v)
		}
		return out
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers(toStrings(rows[0])...)
	for _, row := range rows[1:] {
		t.Row(toStrings(row)...)
	}
	rendered := t.Render()
	if lipgloss.Width(rendered) > width {
		rendered = t.Width(width).Render()
	}
	return rendered
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if m.config.Wrap > 0 && width > m.config.Wrap {
		width = m.config.Wrap
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func (m *model) clampYOffset(offset int) int {
	maxOffset := m.lineCount - m.viewport.Height
	if m.viewport.Height <= 0 {
		maxOffset = m.lineCount - 1
	}
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset < 0 {
		return 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

type matchRange struct {
	start int
	end   int
}

func findMatches(content, query string) []matchRange {
	lowerContent := strings.ToLower(content)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" {
		return nil
	}
	var matches []matchRange
	searchIdx := 0
	for {
		idx := strings.Index(lowerContent[searchIdx:], lowerQuery)
		if idx == -1 {
			break
		}
		start := searchIdx + idx
		end := start + len(lowerQuery)
		matches = append(matches, matchRange{start: start, end: end})
		searchIdx = end
		if searchIdx >= len(content) {
			break
		}
	}
	return matches
}

func highlightMatches(content string, matches []matchRange, current int) string {
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	pos := 0
	for idx, match := range matches {
		if match.start > len(content) {
			break
		}
		if match.start > pos {
			b.WriteString(content[pos:match.start])
		}
		segmentEnd := match.end
		if segmentEnd > len(content) {
			segmentEnd = len(content)
		}
		segment := content[match.start:segmentEnd]
		if idx == current {
			b.WriteString(searchCurrentStyle.Render(segment))
		} else {
			b.WriteString(searchHighlightStyle.Render(segment))
		}
		pos = segmentEnd
	}
	if pos < len(content) {
		b.WriteString(content[pos:])
	}
	return b.String()
}

func lineNumberAtOffset(content string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n")
}

package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// chartRowsTop is the screen line of the first task row: title, quarters, months and marker lines come first.
const chartRowsTop = 4

// cellKind classifies one track cell outside a bar.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellGrid
	cellMarker
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	markerColor = lipgloss.Color("203")
)

// chartStyles groups the styles shared by one render pass.
type chartStyles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	dim      lipgloss.Style
	marker   lipgloss.Style
	label    lipgloss.Style
	selected lipgloss.Style
	done     lipgloss.Style
}

func newChartStyles() chartStyles {
	return chartStyles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		muted:    lipgloss.NewStyle().Foreground(mutedColor),
		dim:      lipgloss.NewStyle().Foreground(dimColor),
		marker:   lipgloss.NewStyle().Foreground(markerColor).Bold(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		done:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Strikethrough(true),
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		return newAltView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
	}
	if !m.ready {
		return newAltView("loading...")
	}
	return newAltView(m.renderChart())
}

// renderChart renders the chart screen with any open modal on top.
func (m Model) renderChart() string {
	styles := newChartStyles()
	view := m.chart()
	footer := m.renderFooter(view, styles)
	footerHeight := lipgloss.Height(footer)

	labelW, trackW := m.columnWidths()
	grid := monthGrid(view.Viewport, trackW)
	markerCol := -1
	if m.showToday && view.TodayMarker != nil {
		markerCol, _ = timeline.Columns(*view.TodayMarker, 0, trackW)
	}

	lines := []string{
		m.renderTitleLine(view, styles),
		strings.Repeat(" ", labelW+1) + renderQuarterHeader(view, trackW, styles),
		strings.Repeat(" ", labelW+1) + renderMonthHeader(view, trackW, styles),
		strings.Repeat(" ", labelW+1) + renderMarkerLine(markerCol, trackW, styles),
	}

	capacity := m.rowCapacity(footerHeight)
	selected := m.selectedIndex(view.Rows)
	offset := rowOffset(selected, capacity, len(view.Rows))
	for idx := offset; idx < len(view.Rows) && idx < offset+capacity; idx++ {
		row := view.Rows[idx]
		lines = append(lines, m.renderRow(row, idx == selected, labelW, trackW, grid, markerCol, styles))
	}
	if len(view.Rows) == 0 {
		lines = append(lines, "", styles.muted.Render(m.emptyStateText(view)))
	}

	content := strings.Join(lines, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-footerHeight))
	}
	fullContent := content + "\n" + footer
	if overlay := m.renderModeOverlay(view, styles, m.width-8); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// newAltView wraps content in a full-screen view with cell-motion mouse reporting.
func newAltView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// columnWidths splits the screen into the task-name column and the timeline track.
func (m Model) columnWidths() (labelW, trackW int) {
	width := max(40, m.width)
	labelW = clamp(width/4, 14, 32)
	trackW = max(12, width-labelW-1)
	return labelW, trackW
}

// rowCapacity returns how many task rows fit above a footer of footerHeight lines.
func (m Model) rowCapacity(footerHeight int) int {
	if m.height <= 0 {
		return len(m.tasks)
	}
	return max(1, m.height-chartRowsTop-footerHeight)
}

// rowOffset scrolls the rows so that selected stays on screen.
func rowOffset(selected, capacity, total int) int {
	if selected < capacity {
		return 0
	}
	return clamp(selected-capacity+1, 0, max(0, total-capacity))
}

// rowAt maps a screen line to a row index of view.
func (m Model) rowAt(view app.TimelineView, y int) (int, bool) {
	rel := y - chartRowsTop
	if rel < 0 {
		return 0, false
	}
	capacity := m.rowCapacity(lipgloss.Height(m.renderFooter(view, newChartStyles())))
	if rel >= capacity {
		return 0, false
	}
	idx := rowOffset(m.selectedIndex(view.Rows), capacity, len(view.Rows)) + rel
	if idx >= len(view.Rows) {
		return 0, false
	}
	return idx, true
}

func (m Model) renderTitleLine(view app.TimelineView, styles chartStyles) string {
	meta := fmt.Sprintf("  %d · %s · zoom %d%%", view.Viewport.Year, windowLabel(view.Viewport), int(view.Viewport.Zoom*100+0.5))
	line := styles.title.Render(m.title) + styles.dim.Render(meta)
	if m.searchQuery != "" {
		line += styles.dim.Render(fmt.Sprintf("  search: %s (%d)", truncate(m.searchQuery, 24), len(m.tasks)))
	}
	return line
}

// monthColumns returns the cell span of each visible month.
func monthColumns(vp timeline.ViewportState, trackW int) [][2]int {
	months := timeline.VisibleMonths(vp)
	out := make([][2]int, 0, len(months))
	for i := range months {
		left := float64(i) / float64(vp.MonthsCount) * 100
		start, span := timeline.Columns(left, 100/float64(vp.MonthsCount), trackW)
		out = append(out, [2]int{start, span})
	}
	return out
}

// monthGrid marks the first cell of every visible month after the first.
func monthGrid(vp timeline.ViewportState, trackW int) []bool {
	grid := make([]bool, trackW)
	for i, col := range monthColumns(vp, trackW) {
		if i > 0 && col[0] < trackW {
			grid[col[0]] = true
		}
	}
	return grid
}

func renderQuarterHeader(view app.TimelineView, trackW int, styles chartStyles) string {
	cells := []rune(strings.Repeat(" ", trackW))
	for i, col := range monthColumns(view.Viewport, trackW) {
		month := view.Months[i]
		if i > 0 && month.Index%3 != 0 {
			continue
		}
		writeRunes(cells, col[0], fmt.Sprintf("Q%d", month.Quarter))
	}
	return styles.muted.Render(string(cells))
}

func renderMonthHeader(view app.TimelineView, trackW int, styles chartStyles) string {
	cells := []rune(strings.Repeat(" ", trackW))
	for i, col := range monthColumns(view.Viewport, trackW) {
		name := view.Months[i].Name
		if col[1] < len(name)+1 {
			name = view.Months[i].Short()
		}
		writeRunes(cells, col[0], truncate(name, max(1, col[1]-1)))
	}
	return styles.title.Render(string(cells))
}

func renderMarkerLine(markerCol, trackW int, styles chartStyles) string {
	if markerCol < 0 {
		return ""
	}
	label := "▼ today"
	if markerCol+len([]rune(label)) > trackW {
		label = "▼"
	}
	return strings.Repeat(" ", markerCol) + styles.marker.Render(label)
}

// renderRow draws the task label and its bar on the track.
func (m Model) renderRow(row app.TimelineRow, selected bool, labelW, trackW int, grid []bool, markerCol int, styles chartStyles) string {
	task := row.Task
	prefix := "  "
	if selected {
		prefix = "› "
	}
	if task.Completed {
		prefix += "✓ "
	}
	label := truncate(prefix+task.Name, labelW)
	label += strings.Repeat(" ", max(0, labelW-lipgloss.Width(label)))
	switch {
	case selected:
		label = styles.selected.Render(label)
	case task.Completed:
		label = styles.done.Render(label)
	default:
		label = styles.label.Render(label)
	}

	start, span := timeline.Columns(row.Position.LeftPercent, row.Position.WidthPercent, trackW)
	var b strings.Builder
	b.WriteString(label)
	b.WriteString(" ")
	b.WriteString(renderCells(0, start, grid, markerCol, styles))
	b.WriteString(renderBar(task, span, selected))
	b.WriteString(renderCells(start+span, trackW, grid, markerCol, styles))
	return b.String()
}

// renderCells draws the empty track between from and to with month gridlines and the today marker.
func renderCells(from, to int, grid []bool, markerCol int, styles chartStyles) string {
	var b strings.Builder
	for col := from; col < to; col++ {
		switch cellAt(col, grid, markerCol) {
		case cellMarker:
			b.WriteString(styles.marker.Render("│"))
		case cellGrid:
			b.WriteString(styles.dim.Render("┊"))
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func cellAt(col int, grid []bool, markerCol int) cellKind {
	switch {
	case col == markerCol:
		return cellMarker
	case col >= 0 && col < len(grid) && grid[col]:
		return cellGrid
	default:
		return cellEmpty
	}
}

// renderBar draws a bar of span cells in the status color with the task name inside when it fits.
func renderBar(task domain.Task, span int, selected bool) string {
	if span <= 0 {
		return ""
	}
	fill := lipgloss.Color(task.Status.Descriptor().ColorToken)
	style := lipgloss.NewStyle().Background(fill).Foreground(lipgloss.Color("235"))
	text := task.Name
	if task.Completed {
		style = lipgloss.NewStyle().Background(lipgloss.Color("237")).Foreground(fill).Faint(true)
		text = "✓ " + text
	}
	if selected {
		style = style.Bold(true).Underline(true)
	}
	text = truncate(" "+text, span)
	text += strings.Repeat(" ", max(0, span-lipgloss.Width(text)))
	return style.Render(text)
}

func (m Model) emptyStateText(view app.TimelineView) string {
	switch {
	case m.searchQuery != "" && len(m.tasks) == 0:
		return fmt.Sprintf("No tasks match %q. Press esc to clear the search.", m.searchQuery)
	case len(m.tasks) == 0:
		return fmt.Sprintf("No tasks yet. Press %s to create one.", m.keys.addTask.Help().Key)
	default:
		return fmt.Sprintf("No tasks in %s. Pan with h/l or jump with 1-4.", windowLabel(view.Viewport))
	}
}

// renderFooter draws the legend, minimap, status line and help.
func (m Model) renderFooter(view app.TimelineView, styles chartStyles) string {
	width := max(0, m.width)
	sections := []string{renderLegend(width, styles)}
	if m.showMinimap {
		sections = append(sections, m.renderMinimap(view, styles))
	}

	status := m.status
	if view.Hidden > 0 {
		hidden := fmt.Sprintf("%d outside %s", view.Hidden, windowLabel(view.Viewport))
		if strings.TrimSpace(status) == "" || status == "ready" {
			status = hidden
		} else {
			status += " • " + hidden
		}
	}
	sections = append(sections, styles.dim.Render(truncate(status, max(1, width))))

	helpBubble := m.help
	helpBubble.SetWidth(max(0, width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width).
		Render(helpBubble.View(m.keys))
	sections = append(sections, helpLine)
	return strings.Join(sections, "\n")
}

// renderLegend lists every status with its color swatch.
func renderLegend(width int, styles chartStyles) string {
	items := make([]string, 0, len(domain.Statuses()))
	for _, status := range domain.Statuses() {
		desc := status.Descriptor()
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(desc.ColorToken)).Render("■")
		items = append(items, swatch+" "+styles.muted.Render(desc.Label))
	}
	legend := strings.Join(items, "  ")
	if width <= 0 {
		return legend
	}
	return lipgloss.NewStyle().Width(width).Render(legend)
}

// renderMinimap draws the whole year with the visible window and today highlighted.
func (m Model) renderMinimap(view app.TimelineView, styles chartStyles) string {
	labelW, trackW := m.columnWidths()
	left, width := timeline.MinimapWindow(view.Viewport)
	winStart, winSpan := timeline.Columns(left, width, trackW)
	todayCol := -1
	if now := m.now(); m.showToday && now.Year() == view.Viewport.Year {
		todayCol, _ = timeline.Columns(timeline.YearPercent(now), 0, trackW)
	}

	var b strings.Builder
	label := fmt.Sprintf("%d", view.Viewport.Year)
	b.WriteString(styles.muted.Render(label + strings.Repeat(" ", max(0, labelW-len(label)))))
	b.WriteString(" ")
	window := lipgloss.NewStyle().Foreground(accentColor)
	for col := range trackW {
		inWindow := col >= winStart && col < winStart+winSpan
		switch {
		case col == todayCol:
			b.WriteString(styles.marker.Render("┃"))
		case inWindow:
			b.WriteString(window.Render("━"))
		default:
			b.WriteString(styles.dim.Render("─"))
		}
	}
	return b.String()
}

// renderModeOverlay renders the modal for the active input mode.
func (m Model) renderModeOverlay(view app.TimelineView, styles chartStyles, maxWidth int) string {
	boxWidth := clamp(maxWidth, 32, 76)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(boxWidth)
	heading := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hint := styles.muted

	switch m.mode {
	case modeSearch:
		return box.Render(strings.Join([]string{
			heading.Render("Search tasks"),
			m.searchInput.View(),
			hint.Render("enter apply • empty clears • esc cancel"),
		}, "\n"))
	case modeEditTitle:
		return box.Render(strings.Join([]string{
			heading.Render("Chart title"),
			m.titleInput.View(),
			hint.Render("enter save • esc cancel"),
		}, "\n"))
	case modeAddTask, modeEditTask:
		return box.Render(m.renderTaskForm(heading, styles))
	case modeConfirmDelete:
		return box.Render(strings.Join([]string{
			heading.Render("Delete task"),
			fmt.Sprintf("Delete %q? This cannot be undone.", m.pendingDelete.Name),
			hint.Render("y/enter delete • n/esc cancel"),
		}, "\n"))
	case modeTaskInfo:
		task, ok := m.selectedTask()
		if !ok {
			return ""
		}
		return box.Render(m.renderTaskInfo(task, heading, styles, boxWidth-4))
	default:
		return ""
	}
}

func (m Model) renderTaskForm(heading lipgloss.Style, styles chartStyles) string {
	title := "New task"
	if m.mode == modeEditTask {
		title = "Edit task"
	}
	lines := []string{heading.Render(title), ""}
	for idx, field := range taskFormFields {
		marker := "  "
		if idx == m.formFocus {
			marker = "› "
		}
		value := ""
		if idx == taskFieldStatus {
			status := m.formStatusValue()
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(status.Descriptor().ColorToken)).Render("■")
			value = "‹ " + swatch + " " + status.Label() + " ›"
		} else if idx < len(m.formInputs) {
			value = m.formInputs[idx].View()
		}
		lines = append(lines, fmt.Sprintf("%s%-12s %s", marker, field+":", value))
	}
	if m.formErr != "" {
		lines = append(lines, "", styles.marker.Render(m.formErr))
	}
	lines = append(lines, "", styles.muted.Render("tab/↓ next • shift+tab/↑ prev • ←/→ status • enter save • esc cancel"))
	return strings.Join(lines, "\n")
}

// renderTaskInfo renders the detail panel of task.
func (m Model) renderTaskInfo(task domain.Task, heading lipgloss.Style, styles chartStyles, width int) string {
	desc := task.Status.Descriptor()
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(desc.ColorToken)).Render("■")
	completed := "no"
	if task.Completed {
		completed = "yes"
	}
	responsible := task.Responsible
	if responsible == "" {
		responsible = "-"
	}
	lines := []string{
		heading.Render(task.Name),
		"",
		fmt.Sprintf("status:       %s %s", swatch, desc.Label),
		fmt.Sprintf("dates:        %s → %s (%d days)", task.StartDate.Format(time.DateOnly), task.EndDate.Format(time.DateOnly), task.DurationDays()),
		fmt.Sprintf("responsible:  %s", responsible),
		fmt.Sprintf("completed:    %s", completed),
		styles.dim.Render(fmt.Sprintf("updated:      %s", task.UpdatedAt.Local().Format("2006-01-02 15:04"))),
	}
	if details := m.renderDetails(task.Details, width); details != "" {
		lines = append(lines, "", details)
	}
	lines = append(lines, "", styles.muted.Render("e edit • y copy • j/k next task • esc close"))
	return strings.Join(lines, "\n")
}

func (m Model) renderDetails(details string, width int) string {
	if m.details == nil {
		return strings.TrimSpace(details)
	}
	return m.details.render(details, width)
}

// writeRunes copies text into cells starting at col, cutting at the end of cells.
func writeRunes(cells []rune, col int, text string) {
	for i, r := range []rune(text) {
		if col+i < 0 || col+i >= len(cells) {
			return
		}
		cells[col+i] = r
	}
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

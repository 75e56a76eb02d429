package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/week"
)

const minWidth = 60
const minHeight = 16

const cellWidth = 4

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}
	if m.isReviewMode {
		return placeOverlay(m.renderReviewModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(m.renderTabs(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 3
	footerLines := 2
	contentHeight := h - headerLines - footerLines

	var lines []string
	focus := 0
	switch {
	case m.cycle == nil:
		lines = m.renderEmpty()
	case m.tab == TabWeek:
		lines, focus = m.renderWeek(w)
	case m.tab == TabToday:
		lines, focus = m.renderToday(w)
	default:
		lines = m.renderProgress(w, contentHeight)
	}

	body := strings.Join(window(lines, focus, contentHeight), "\n")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(body, i, w))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("12 Week Year")
	if m.cycle != nil {
		title += HeaderCountStyle.Render("  " + m.cycle.Title)
	}

	stats := ""
	if m.cycle != nil && m.todaySc != nil {
		p := m.todaySc.Score
		stats = HeaderCountStyle.Render(fmt.Sprintf("Week %d/%d  ", m.todaySc.Week, week.WeeksPerCycle)) +
			bandStyle(p).Render(fmt.Sprintf("%d%%", p))
	}

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = "  " + StatusStyle.Render(m.statusMsg) + "  "
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderTabs(width int) string {
	var tabs []string
	for t := Tab(0); t < tabCount; t++ {
		style := InactiveTabStyle
		if t == m.tab {
			style = ActiveTabStyle
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	line := strings.Join(tabs, " ")

	if m.tab == TabWeek && m.sc != nil {
		span := fmt.Sprintf("Week %d  %s - %s", m.sc.Week,
			m.sc.Start.Format("Jan 2"), m.sc.End.Format("Jan 2"))
		gap := width - lipgloss.Width(line) - len(span)
		if gap > 0 {
			line += strings.Repeat(" ", gap) + DimStyle.Render(span)
		}
	}
	return line
}

func (m Model) renderEmpty() []string {
	return []string{
		"",
		DimStyle.Render("  No active cycle."),
		DimStyle.Render(`  Start one with: twy cycle new "Q1 focus"`),
	}
}

func (m Model) nameWidth(width, trailing int) int {
	nw := width - 7*cellWidth - trailing
	if nw > 40 {
		nw = 40
	}
	if nw < 12 {
		nw = 12
	}
	return nw
}

// cellIcon renders one scorecard cell; the cursor cell is highlighted.
func cellIcon(c score.Cell, cursor bool) string {
	icon, style := IconIncomplete, IncompleteStyle
	switch {
	case c.Checked:
		icon, style = IconComplete, CompleteStyle
	case c.Locked:
		icon, style = IconLocked, LockedStyle
	}
	if cursor {
		style = CellCursorStyle
	}
	return padRight(" "+style.Render(icon)+" ", cellWidth)
}

func (m Model) renderWeek(width int) ([]string, int) {
	sc := m.sc
	if sc == nil {
		return nil, 0
	}
	nw := m.nameWidth(width, 14)
	today := m.dayIndex(sc)

	head := padRight(DimStyle.Render("Tactic"), nw)
	for i, d := range sc.Days {
		label := d.Date.Format("Mon")
		style := DimStyle
		switch {
		case i == m.day:
			style = HeaderStyle
		case i == today:
			style = StatusStyle
		}
		head += padRight(style.Render(label), cellWidth)
	}
	head += DimStyle.Render("  done   %")
	lines := []string{head}

	focus := 0
	if len(m.items) == 0 {
		lines = append(lines, "", DimStyle.Render("  No tactics scheduled this week."))
	}
	for i, item := range m.items {
		if item.IsSectionHeader {
			lines = append(lines, GoalHeaderStyle.Render(truncate(item.Name, width)))
			continue
		}
		selected := i == m.cursor
		if selected {
			focus = len(lines)
		}
		row := item.Row
		name := "  " + truncate(item.Name, nw-3)
		if selected {
			name = SelectedStyle.Render(name)
		}
		line := padRight(name, nw)
		for d, c := range row.Days {
			line += cellIcon(c, selected && d == m.day)
		}
		line += fmt.Sprintf("  %-6s ", fmt.Sprintf("%d/%d", row.Completed, row.Target))
		line += bandStyle(row.Percent).Render(fmt.Sprintf("%3d%%", row.Percent))
		lines = append(lines, line)
	}

	daily := padRight(DimStyle.Render("  Daily"), nw)
	for _, d := range sc.Days {
		cell := " · "
		if d.Total > 0 {
			cell = bandStyle(d.Percent).Render(fmt.Sprintf("%3d", d.Percent))
		}
		daily += padRight(cell, cellWidth)
	}
	lines = append(lines, "", daily)

	exec := fmt.Sprintf("  Execution %s  %d/%d  target %d%%",
		bandStyle(sc.Score).Render(fmt.Sprintf("%d%%", sc.Score)), sc.Achieved, sc.Target, m.opts.Target)
	if r := m.reviews[sc.Week]; r != nil {
		exec += DimStyle.Render(fmt.Sprintf("  reviewed %d%%", r.ExecutionPercentage))
	}
	lines = append(lines, "", exec)
	return lines, focus
}

func (m Model) renderToday(width int) ([]string, int) {
	today := m.today()
	idx := m.dayIndex(m.todaySc)
	if idx < 0 {
		return []string{"", DimStyle.Render("  " + today.Format("Mon Jan 2") + " is outside the cycle.")}, 0
	}

	day := int(today.Sub(m.cycle.StartDate).Hours()/24) + 1
	lines := []string{HeaderCountStyle.Render(fmt.Sprintf("%s  week %d, day %d",
		today.Format("Monday, Jan 2"), m.todaySc.Week, day))}

	nw := m.nameWidth(width+7*cellWidth, 24)
	focus := 0
	if len(m.items) == 0 {
		lines = append(lines, "", DimStyle.Render("  Nothing scheduled today."))
	}
	for i, item := range m.items {
		if item.IsSectionHeader {
			lines = append(lines, GoalHeaderStyle.Render(truncate(item.Name, width)))
			continue
		}
		selected := i == m.cursor
		if selected {
			focus = len(lines)
		}
		row := item.Row
		c := row.Days[idx]
		name := truncate(item.Name, nw)
		if selected {
			name = SelectedStyle.Render(name)
		}
		line := " " + cellIcon(c, false) + padRight(name, nw)
		line += DimStyle.Render(fmt.Sprintf("  %d/%d this week", row.Completed, row.Target))
		if c.Locked {
			line += LockedStyle.Render("  target met")
		}
		lines = append(lines, line)
	}

	dt := m.todaySc.Days[idx]
	if dt.Total > 0 {
		lines = append(lines, "", fmt.Sprintf("  Today %s  %d/%d",
			bandStyle(dt.Percent).Render(fmt.Sprintf("%d%%", dt.Percent)), dt.Completed, dt.Total))
	}
	return lines, focus
}

func (m Model) detailWidth() int {
	w := m.width
	if w < minWidth {
		w = minWidth
	}
	right := w - w/3 - 1
	if right < 20 {
		right = 20
	}
	return right
}

func (m Model) renderProgress(width, height int) []string {
	leftWidth := width / 3
	rightWidth := m.detailWidth()
	if leftWidth+1+rightWidth > width {
		rightWidth = width - leftWidth - 1
	}

	left := strings.Join(m.renderIndicatorList(leftWidth), "\n")
	right := strings.Join(window(m.renderProgressDetail(rightWidth), 0, height), "\n")

	sep := lipgloss.NewStyle().Foreground(ColorGrayDim).Render("│")
	lines := make([]string, 0, height)
	for i := 0; i < height; i++ {
		lines = append(lines, getLine(left, i, leftWidth)+sep+getLine(right, i, rightWidth))
	}
	return lines
}

func (m Model) renderIndicatorList(width int) []string {
	lines := []string{DimStyle.Render("Indicators")}
	if len(m.items) == 0 {
		return append(lines, "", DimStyle.Render("  none yet"),
			DimStyle.Render("  twy indicator add"))
	}
	f := m.formatter()
	for i, item := range m.items {
		if item.IsSectionHeader {
			lines = append(lines, GoalHeaderStyle.Render(truncate(item.Name, width)))
			continue
		}
		value := "--"
		if iv, ok := m.indicators[item.ID]; ok && iv.Latest != nil {
			value, _ = f.Format(iv.Latest.Value, item.Indicator.MetricType)
		}
		name := truncate(IconIndicator+" "+item.Name, width-lipgloss.Width(value)-3)
		if i == m.cursor {
			name = SelectedStyle.Render(name)
		}
		gap := width - lipgloss.Width(name) - lipgloss.Width(value) - 1
		if gap < 1 {
			gap = 1
		}
		lines = append(lines, " "+name+strings.Repeat(" ", gap-1)+DimStyle.Render(value))
	}
	return lines
}

func (m Model) renderProgressDetail(width int) []string {
	var lines []string

	if item, ok := m.selected(); ok && item.Indicator != nil {
		lines = append(lines, m.renderIndicatorDetail(item)...)
		lines = append(lines, "")
	}

	lines = append(lines, HeaderStyle.Render(" Execution"))
	barWidth := width - 16
	if barWidth > 30 {
		barWidth = 30
	}
	if len(m.trend.Weeks) == 0 {
		lines = append(lines, DimStyle.Render("  No weekly reviews yet (w to write one)"))
	}
	for _, p := range m.trend.Weeks {
		lines = append(lines, fmt.Sprintf("  W%-2d %s %s", p.Week, bar(p.Score, barWidth),
			bandStyle(p.Score).Render(fmt.Sprintf("%3d%%", p.Score))))
	}
	if len(m.trend.Weeks) > 0 {
		lines = append(lines, fmt.Sprintf("  Average %s  %d/%d weeks at %d%%+",
			bandStyle(m.trend.Average).Render(fmt.Sprintf("%d%%", m.trend.Average)),
			m.trend.WeeksOnGoal, len(m.trend.Weeks), m.opts.Target))
	}

	lines = append(lines, "", HeaderStyle.Render(" Goals"))
	for _, gp := range m.progress {
		lines = append(lines, "  "+truncate(gp.Title, width-4))
		lines = append(lines, fmt.Sprintf("    %s %3d%%  %d/%d", bar(gp.Percent, barWidth), gp.Percent, gp.Completed, gp.Total))
	}

	if m.vision != nil && strings.TrimSpace(m.vision.LongTerm+m.vision.ThreeYear) != "" {
		lines = append(lines, "")
		lines = append(lines, m.renderVision(width)...)
	}
	return lines
}

func (m Model) renderIndicatorDetail(item Item) []string {
	iv := m.indicators[item.ID]
	ind := item.Indicator
	f := m.formatter()

	target, _ := f.FormatOptional(ind.TargetValue, ind.MetricType)
	lines := []string{
		HeaderStyle.Render(" " + ind.Name),
		fmt.Sprintf("  %s%s", ModalLabelStyle.Render("Target"), target),
	}
	if iv.Current != nil {
		current, _ := f.Format(iv.Current.Value, ind.MetricType)
		lines = append(lines, fmt.Sprintf("  %s%s", ModalLabelStyle.Render("This week"), current))
	} else {
		lines = append(lines, fmt.Sprintf("  %s%s", ModalLabelStyle.Render("This week"),
			DimStyle.Render("not recorded (v to record)")))
	}
	if iv.Previous != nil {
		prev, _ := f.Format(iv.Previous.Value, ind.MetricType)
		lines = append(lines, fmt.Sprintf("  %s%s", ModalLabelStyle.Render("Last week"), prev))
	}
	if iv.Delta != nil {
		style, sign := CompleteStyle, "+"
		if !iv.Delta.IsPositive {
			style, sign = lipgloss.NewStyle().Foreground(ColorRed), ""
		}
		diff, _ := f.Format(iv.Delta.Diff, ind.MetricType)
		lines = append(lines, fmt.Sprintf("  %s%s", ModalLabelStyle.Render("Change"),
			style.Render(sign+diff)))
	}
	if iv.Progress != nil {
		p := int(*iv.Progress + 0.5)
		lines = append(lines, fmt.Sprintf("  %s%s %d%%", ModalLabelStyle.Render("Progress"), bar(p, 20), p))
	}
	return lines
}

func (m Model) renderVision(width int) []string {
	var md strings.Builder
	md.WriteString("## Vision\n\n")
	if v := strings.TrimSpace(m.vision.LongTerm); v != "" {
		md.WriteString(v)
		md.WriteString("\n\n")
	}
	if v := strings.TrimSpace(m.vision.ThreeYear); v != "" {
		md.WriteString("**Three years:** ")
		md.WriteString(v)
		md.WriteString("\n")
	}

	if r := m.glamourRenderer; r != nil && m.glamourWidth == width {
		if out, err := r.Render(md.String()); err == nil {
			return strings.Split(strings.TrimRight(out, "\n"), "\n")
		}
	}
	return strings.Split(strings.TrimRight(md.String(), "\n"), "\n")
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp(m.tab)
	switch {
	case m.isRecordMode && m.recordIndicator != nil:
		return InputPromptStyle.Render(m.recordIndicator.Name+": ") + m.textInput.View() +
			FooterStyle.Render("  enter save  esc cancel")
	case m.cycle == nil:
		help = "R reload  s sync  ? help  q quit"
	}
	return FooterStyle.Render(truncate(help, width))
}

func (m Model) renderReviewModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render(fmt.Sprintf("Week %d review", m.reviewWeek)))
	b.WriteString("\n\n")

	for i, label := range reviewLabels {
		style := ModalLabelStyle
		if i == m.reviewFocus {
			style = style.Foreground(ColorPurple).Bold(true)
		}
		b.WriteString(style.Render(label))
		b.WriteString(m.reviewInputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("tab next  enter save on last field  ctrl+s save  esc cancel"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func bar(p, width int) string {
	if width < 1 {
		return ""
	}
	filled := p * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return bandStyle(p).Render(strings.Repeat("█", filled)) +
		DimStyle.Render(strings.Repeat("░", width-filled))
}

func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// window returns at most height lines of lines, scrolled so focus is visible.
func window(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if focus >= height {
		start = focus - height + 1
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}

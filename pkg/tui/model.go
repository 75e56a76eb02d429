package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/stefanpenner/twy/pkg/logging"
	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
	gsync "github.com/stefanpenner/twy/pkg/sync"
	"github.com/stefanpenner/twy/pkg/week"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when git sync completes.
type SyncDoneMsg struct {
	Err error
}

// Tab is one of the top-level views.
type Tab int

const (
	TabWeek Tab = iota
	TabToday
	TabProgress
	tabCount
)

var tabNames = [...]string{"Week", "Today", "Progress"}

func (t Tab) String() string { return tabNames[t] }

// Options configures the TUI.
type Options struct {
	Currency string
	Target   int // weekly execution target, percent
	Git      *gsync.Git
	Log      *logging.Logger
	Now      func() time.Time
}

// indicatorView is an indicator's status for the current week.
type indicatorView struct {
	score.IndicatorStatus
	Latest *store.LagSnapshot
}

var reviewLabels = [...]string{"What worked", "What didn't", "Adjustments"}

// Model is the Bubble Tea model for the cycle TUI.
type Model struct {
	ctx    context.Context
	repo   store.Repository
	opts   Options
	keys   KeyMap
	width  int
	height int

	tab    Tab
	items  []Item
	cursor int
	day    int // selected column on the Week tab, 0..6

	cycle      *store.Cycle
	vision     *store.Vision
	goals      []*store.Goal
	week       int // week shown on the Week tab
	sc         *score.Scorecard
	todaySc    *score.Scorecard
	reviews    map[int]*store.WeeklyReview
	trend      score.Trend
	progress   []score.GoalProgress
	indicators map[string]indicatorView

	// Modal state
	showHelpModal bool

	// Weekly review form
	isReviewMode bool
	reviewWeek   int
	reviewInputs [len(reviewLabels)]textinput.Model
	reviewFocus  int

	// Indicator value input
	isRecordMode    bool
	recordIndicator *store.LagIndicator
	textInput       textinput.Model

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a new TUI model and loads the active cycle.
func NewModel(ctx context.Context, repo store.Repository, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Target == 0 {
		opts.Target = score.ExecutionTarget
	}
	if opts.Currency == "" {
		opts.Currency = score.DefaultCurrency
	}

	ti := textinput.New()
	ti.Placeholder = "value"
	ti.CharLimit = 32

	m := Model{
		ctx:       ctx,
		repo:      repo,
		opts:      opts,
		keys:      DefaultKeyMap(),
		textInput: ti,
	}
	for i, label := range reviewLabels {
		in := textinput.New()
		in.Placeholder = strings.ToLower(label)
		in.CharLimit = 500
		in.Width = 48
		m.reviewInputs[i] = in
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.detailWidth())
		m.reload()
		return m, tea.ClearScreen

	case FileChangedMsg:
		m.reload()
		return m, nil

	case SyncDoneMsg:
		if msg.Err != nil {
			m.fail("sync", msg.Err)
		} else {
			m.setStatus("Synced successfully")
			m.reload()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.isRecordMode {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	if m.isReviewMode {
		var cmd tea.Cmd
		m.reviewInputs[m.reviewFocus], cmd = m.reviewInputs[m.reviewFocus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.isRecordMode {
		return m.handleRecordMode(msg)
	}
	if m.isReviewMode {
		return m.handleReviewMode(msg)
	}

	// Help modal
	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = true
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		m.reload()
		m.setStatus("Reloaded")
		return m, nil

	case key.Matches(msg, m.keys.Sync):
		m.setStatus("Syncing...")
		return m, m.doSync()
	}

	if m.cycle == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Tab):
		m.switchTab((m.tab + 1) % tabCount)

	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab((m.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Left):
		if m.tab == TabWeek && m.day > 0 {
			m.day--
		}

	case key.Matches(msg, m.keys.Right):
		if m.tab == TabWeek && m.day < 6 {
			m.day++
		}

	case key.Matches(msg, m.keys.PrevWeek):
		if m.tab == TabWeek {
			m.setWeek(m.week - 1)
		}

	case key.Matches(msg, m.keys.NextWeek):
		if m.tab == TabWeek {
			m.setWeek(m.week + 1)
		}

	case key.Matches(msg, m.keys.ThisWeek):
		if m.tab == TabWeek {
			m.setWeek(m.currentWeek())
			m.day = max(m.dayIndex(m.sc), 0)
		}

	case key.Matches(msg, m.keys.Space):
		if m.tab != TabProgress {
			m.toggleSelected()
		}

	case key.Matches(msg, m.keys.Review):
		w := m.currentWeek()
		if m.tab == TabWeek {
			w = m.week
		}
		return m, m.openReview(w)

	case key.Matches(msg, m.keys.Record):
		item, ok := m.selected()
		if m.tab != TabProgress || !ok || item.Indicator == nil {
			return m, nil
		}
		m.isRecordMode = true
		m.recordIndicator = item.Indicator
		m.textInput.SetValue("")
		return m, m.textInput.Focus()
	}

	return m, nil
}

func (m Model) handleReviewMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.reviewInputs) - 1
	switch msg.String() {
	case "esc":
		m.closeReview()
		return m, nil
	case "ctrl+s":
		m.saveReview()
		return m, nil
	case "tab", "down":
		return m, m.focusReview((m.reviewFocus + 1) % len(m.reviewInputs))
	case "shift+tab", "up":
		return m, m.focusReview((m.reviewFocus + last) % len(m.reviewInputs))
	case "enter":
		if m.reviewFocus < last {
			return m, m.focusReview(m.reviewFocus + 1)
		}
		m.saveReview()
		return m, nil
	}
	var cmd tea.Cmd
	m.reviewInputs[m.reviewFocus], cmd = m.reviewInputs[m.reviewFocus].Update(msg)
	return m, cmd
}

func (m Model) handleRecordMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isRecordMode = false
		m.textInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.recordValue(m.textInput.Value())
		m.isRecordMode = false
		m.textInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) today() time.Time {
	return week.Date(m.opts.Now())
}

func (m *Model) currentWeek() int {
	if m.cycle == nil {
		return 1
	}
	return m.cycle.WeekOf(m.today())
}

// dayIndex returns today's column in sc, or -1 when today is outside it.
func (m *Model) dayIndex(sc *score.Scorecard) int {
	if sc == nil {
		return -1
	}
	today := m.today()
	for i, d := range sc.Days {
		if d.Date.Equal(today) {
			return i
		}
	}
	return -1
}

func (m *Model) reload() {
	ctx := m.ctx
	c, err := m.repo.ActiveCycle(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.fail("load cycle", err)
		}
		m.cycle, m.sc, m.todaySc, m.goals, m.items = nil, nil, nil, nil, nil
		return
	}
	fresh := m.cycle == nil || m.cycle.ID != c.ID
	m.cycle = c
	if fresh {
		m.week = m.currentWeek()
	}

	m.vision, err = m.repo.ActiveVision(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		m.fail("load vision", err)
	}

	goals, err := m.repo.ListGoals(ctx, c.ID)
	if err != nil {
		m.fail("load goals", err)
		return
	}
	tasks, err := m.repo.ListTasks(ctx, c.ID, 0)
	if err != nil {
		m.fail("load tasks", err)
		return
	}
	m.goals = goals

	if m.sc, err = score.BuildScorecard(c.StartDate, m.week, goals, tasks); err != nil {
		m.fail("build scorecard", err)
	}
	if fresh {
		m.day = max(m.dayIndex(m.sc), 0)
	}
	current := m.currentWeek()
	if m.todaySc, err = score.BuildScorecard(c.StartDate, current, goals, tasks); err != nil {
		m.fail("build scorecard", err)
	}
	m.progress = score.GoalsProgress(goals, tasks)

	reviews, err := m.repo.ListReviews(ctx, c.ID)
	if err != nil {
		m.fail("load reviews", err)
	}
	m.reviews = make(map[int]*store.WeeklyReview, len(reviews))
	for _, r := range reviews {
		m.reviews[r.WeekNumber] = r
	}
	m.trend = score.ReviewTrend(reviews, m.opts.Target)

	m.indicators = make(map[string]indicatorView)
	for _, g := range goals {
		for _, ind := range g.Indicators {
			snaps, err := m.repo.ListSnapshots(ctx, ind.ID, c.ID)
			if err != nil {
				m.fail("load snapshots", err)
				continue
			}
			m.indicators[ind.ID] = indicatorView{
				IndicatorStatus: score.StatusForWeek(ind, snaps, current),
				Latest:          score.Latest(snaps),
			}
		}
	}

	m.rebuildItems()
}

func (m *Model) rebuildItems() {
	var prevID string
	if item, ok := m.selected(); ok {
		prevID = item.ID
	}

	switch m.tab {
	case TabWeek:
		m.items = FlattenScorecard(m.sc)
	case TabToday:
		m.items = FlattenScorecard(m.todaySc)
	default:
		m.items = FlattenIndicators(m.goals)
	}

	m.cursor = 0
	for i, item := range m.items {
		if item.ID == prevID && !item.IsSectionHeader {
			m.cursor = i
			return
		}
	}
	if next := nextSelectable(m.items, 0, 1); next >= 0 {
		m.cursor = next
	}
}

func (m *Model) selected() (Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) || m.items[m.cursor].IsSectionHeader {
		return Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *Model) moveCursor(dir int) {
	if next := nextSelectable(m.items, m.cursor+dir, dir); next >= 0 {
		m.cursor = next
	}
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.rebuildItems()
}

func (m *Model) setWeek(w int) {
	if !week.Valid(w) || w == m.week {
		return
	}
	m.week = w
	m.reload()
}

// selectedCell returns the scorecard cell under the cursor: the selected
// day on the Week tab, or today on the Today tab.
func (m *Model) selectedCell() (Item, score.Cell, bool) {
	item, ok := m.selected()
	if !ok || item.Row == nil {
		return Item{}, score.Cell{}, false
	}
	switch m.tab {
	case TabWeek:
		return item, item.Row.Days[m.day], true
	case TabToday:
		if idx := m.dayIndex(m.todaySc); idx >= 0 {
			return item, item.Row.Days[idx], true
		}
	}
	return Item{}, score.Cell{}, false
}

func (m *Model) toggleSelected() {
	item, cell, ok := m.selectedCell()
	if !ok {
		if m.tab == TabToday {
			m.setStatus("Today is outside the cycle")
		}
		return
	}
	row := item.Row
	if cell.Locked && !cell.Checked {
		m.setStatus(fmt.Sprintf("Target met: %s is done %d/%d this week", row.Tactic.Title, row.Completed, row.Target))
		return
	}
	completed := !cell.Checked
	if _, err := m.repo.SetTaskCompletion(m.ctx, row.Tactic.ID, cell.Date, completed, ""); err != nil {
		m.fail("toggle task", err)
		return
	}
	m.opts.Log.Debug("task toggled", "tactic", row.Tactic.ID, "date", week.FormatDate(cell.Date), "completed", completed)
	m.reload()
}

func (m *Model) openReview(w int) tea.Cmd {
	m.isReviewMode = true
	m.reviewWeek = w
	values := [len(reviewLabels)]string{}
	if r := m.reviews[w]; r != nil {
		values = [len(reviewLabels)]string{r.WhatWorked, r.WhatDidntWork, r.Adjustments}
	}
	for i := range m.reviewInputs {
		m.reviewInputs[i].SetValue(values[i])
	}
	return m.focusReview(0)
}

func (m *Model) focusReview(i int) tea.Cmd {
	for j := range m.reviewInputs {
		m.reviewInputs[j].Blur()
	}
	m.reviewFocus = i
	return m.reviewInputs[i].Focus()
}

func (m *Model) closeReview() {
	m.isReviewMode = false
	for j := range m.reviewInputs {
		m.reviewInputs[j].Blur()
	}
}

func (m *Model) saveReview() {
	defer m.closeReview()

	tasks, err := m.repo.ListTasks(m.ctx, m.cycle.ID, m.reviewWeek)
	if err != nil {
		m.fail("save review", err)
		return
	}
	r, err := score.NewReview(m.cycle.ID, m.reviewWeek, tasks,
		strings.TrimSpace(m.reviewInputs[0].Value()),
		strings.TrimSpace(m.reviewInputs[1].Value()),
		strings.TrimSpace(m.reviewInputs[2].Value()))
	if err != nil {
		m.fail("save review", err)
		return
	}
	saved, err := m.repo.SaveReview(m.ctx, r)
	if err != nil {
		m.fail("save review", err)
		return
	}
	m.setStatus(fmt.Sprintf("Week %d review saved: %d%% (%d/%d)",
		saved.WeekNumber, saved.ExecutionPercentage, saved.CompletedTasks, saved.PlannedTasks))
	m.reload()
}

// parseValue accepts plain numbers with optional thousands separators and a
// trailing percent sign.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number: %w", s, store.ErrInvalidInput)
	}
	return v, nil
}

func (m *Model) recordValue(input string) {
	ind := m.recordIndicator
	if ind == nil || strings.TrimSpace(input) == "" {
		return
	}
	v, err := parseValue(input)
	if err != nil {
		m.fail("record value", err)
		return
	}
	snap, err := m.repo.UpsertSnapshot(m.ctx, &store.LagSnapshot{
		IndicatorID: ind.ID,
		CycleID:     m.cycle.ID,
		WeekNumber:  m.currentWeek(),
		Value:       v,
	})
	if err != nil {
		m.fail("record value", err)
		return
	}
	display, _ := m.formatter().Format(snap.Value, ind.MetricType)
	m.setStatus(fmt.Sprintf("Recorded %s: %s (week %d)", ind.Name, display, snap.WeekNumber))
	m.reload()
}

func (m *Model) formatter() score.Formatter {
	return score.Formatter{Currency: m.opts.Currency}
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

func (m *Model) fail(action string, err error) {
	m.setStatus("Error: " + err.Error())
	m.opts.Log.Warn("tui action failed", "action", action, "error", err)
}

func (m Model) doSync() tea.Cmd {
	ctx, git := m.ctx, m.opts.Git
	return func() tea.Msg {
		if git == nil {
			return SyncDoneMsg{Err: errors.New("git sync is not configured")}
		}
		return SyncDoneMsg{Err: git.Sync(ctx)}
	}
}

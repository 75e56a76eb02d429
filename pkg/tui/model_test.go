package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/store"
)

var cycleStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Tuesday of week 2.
var now = time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *store.Store
	cycle     *store.Cycle
	tactic    *store.Tactic
	indicator *store.LagIndicator
}

func setupFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.NewStore(t.TempDir(), store.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	c, err := s.CreateCycle(ctx, "Q1", cycleStart)
	require.NoError(t, err)
	fitness, err := s.CreateGoal(ctx, c.ID, store.GoalInput{Title: "Fitness"})
	require.NoError(t, err)
	lift, err := s.CreateTactic(ctx, fitness.ID, store.TacticInput{Title: "Lift", WeeklyFrequency: 1})
	require.NoError(t, err)

	income, err := s.CreateGoal(ctx, c.ID, store.GoalInput{Title: "Income"})
	require.NoError(t, err)
	target := 10000.0
	revenue, err := s.CreateIndicator(ctx, income.ID, store.IndicatorInput{
		Name:        "Revenue",
		MetricType:  store.MetricCurrency,
		TargetValue: &target,
	})
	require.NoError(t, err)

	return fixture{repo: s, cycle: c, tactic: lift, indicator: revenue}
}

func newTestModel(t *testing.T, f fixture) Model {
	t.Helper()
	return NewModel(context.Background(), f.repo, Options{Now: func() time.Time { return now }})
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	space  = runes(" ")
	tab    = tea.KeyMsg{Type: tea.KeyTab}
	left   = tea.KeyMsg{Type: tea.KeyLeft}
	right  = tea.KeyMsg{Type: tea.KeyRight}
	enter  = tea.KeyMsg{Type: tea.KeyEnter}
	escape = tea.KeyMsg{Type: tea.KeyEsc}
	ctrlS  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func weekTasks(t *testing.T, f fixture, w int) []*store.ScheduledTask {
	t.Helper()
	tasks, err := f.repo.ListTasks(context.Background(), f.cycle.ID, w)
	require.NoError(t, err)
	return tasks
}

func TestNewModelOpensOnToday(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	assert.Equal(t, TabWeek, m.tab)
	assert.Equal(t, 2, m.week)
	assert.Equal(t, 1, m.day)

	// Income has no tactics, so only Fitness shows on the grid.
	require.Len(t, m.items, 2)
	assert.True(t, m.items[0].IsSectionHeader)
	item, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, f.tactic.ID, item.ID)
}

func TestToggleRespectsLockedCells(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, space)
	tasks := weekTasks(t, f, 2)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.True(t, tasks[0].Date.Equal(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 100, m.sc.Score)

	// Wednesday is locked once the weekly target of 1 is met.
	m = press(m, right, space)
	assert.Contains(t, m.statusMsg, "Target met")
	assert.Len(t, weekTasks(t, f, 2), 1)

	m = press(m, left, space)
	tasks = weekTasks(t, f, 2)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, 0, m.sc.Achieved)
}

func TestWeekNavigation(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, runes("]"))
	assert.Equal(t, 3, m.week)
	assert.Equal(t, 3, m.sc.Week)

	m = press(m, runes("["), runes("["), runes("["), runes("["))
	assert.Equal(t, 1, m.week)

	m = press(m, runes("t"))
	assert.Equal(t, 2, m.week)
	assert.Equal(t, 1, m.day)
}

func TestTodayTabTogglesToday(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, tab)
	require.Equal(t, TabToday, m.tab)
	m = press(m, space)

	tasks := weekTasks(t, f, 2)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.True(t, tasks[0].Date.Equal(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)))
	assert.Contains(t, m.View(), "Lift")
}

func TestReviewForm(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	_, err := f.repo.SetTaskCompletion(ctx, f.tactic.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), true, "")
	require.NoError(t, err)

	m := newTestModel(t, f)
	m = press(m, runes("w"))
	require.True(t, m.isReviewMode)
	assert.Equal(t, 2, m.reviewWeek)

	m = press(m, runes("early starts"), tab, runes("skipped friday"), ctrlS)
	assert.False(t, m.isReviewMode)

	r, err := f.repo.GetReview(ctx, f.cycle.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "early starts", r.WhatWorked)
	assert.Equal(t, "skipped friday", r.WhatDidntWork)
	assert.Equal(t, 1, r.PlannedTasks)
	assert.Equal(t, 100, r.ExecutionPercentage)

	// Reopening prefills the saved answers; escape leaves them untouched.
	m = press(m, runes("w"))
	assert.Equal(t, "early starts", m.reviewInputs[0].Value())
	m = press(m, escape)
	assert.False(t, m.isReviewMode)
}

func TestRecordIndicatorValue(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, tab, tab)
	require.Equal(t, TabProgress, m.tab)
	item, ok := m.selected()
	require.True(t, ok)
	require.Equal(t, f.indicator.ID, item.ID)

	m = press(m, runes("v"))
	require.True(t, m.isRecordMode)
	m = press(m, runes("2,500"), enter)
	assert.False(t, m.isRecordMode)

	snaps, err := f.repo.ListSnapshots(context.Background(), f.indicator.ID, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 2500.0, snaps[0].Value)
	assert.Equal(t, 2, snaps[0].WeekNumber)

	iv := m.indicators[f.indicator.ID]
	require.NotNil(t, iv.Progress)
	assert.InDelta(t, 25.0, *iv.Progress, 0.001)
	assert.Contains(t, m.View(), "AED 2,500")
}

func TestRecordRejectsGarbage(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, tab, tab, runes("v"), runes("lots"), enter)
	assert.Contains(t, m.statusMsg, "not a number")

	snaps, err := f.repo.ListSnapshots(context.Background(), f.indicator.ID, f.cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestNoActiveCycle(t *testing.T) {
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)

	m := NewModel(context.Background(), s, Options{Now: func() time.Time { return now }})
	m = press(m, tab, space, runes("w"))
	assert.Nil(t, m.cycle)
	assert.False(t, m.isReviewMode)
	assert.Contains(t, m.View(), "No active cycle")
}

func TestFileChangeReloads(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	_, err := f.repo.SetTaskCompletion(context.Background(), f.tactic.ID, now, true, "")
	require.NoError(t, err)
	assert.Equal(t, 0, m.sc.Achieved)

	m = press(m, FileChangedMsg{})
	assert.Equal(t, 1, m.sc.Achieved)
}

func TestHelpModal(t *testing.T) {
	f := setupFixture(t)
	m := newTestModel(t, f)

	m = press(m, runes("?"))
	assert.True(t, m.showHelpModal)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	// Keys other than close are swallowed while help is open.
	m = press(m, space, runes("?"))
	assert.False(t, m.showHelpModal)
	assert.Empty(t, weekTasks(t, f, 2))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"42", 42, false},
		{" 2,500.50 ", 2500.5, false},
		{"85%", 85, false},
		{"-3", -3, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseValue(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchable(t *testing.T) {
	assert.True(t, watchable("/data/cycles/abc/cycle.md"))
	assert.True(t, watchable("/data/twy.db"))
	assert.True(t, watchable("/data/twy.db-wal"))
	assert.False(t, watchable("/data/logs/twy.log"))
	assert.False(t, watchable("/data/.git/index"))
	assert.False(t, watchable("/data/cycles/.cycle.md.swp"))
	assert.True(t, skipDir(".git"))
	assert.True(t, skipDir("logs"))
	assert.False(t, skipDir("cycles"))
}

func TestWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, lines, window(lines, 0, 10))
	assert.Equal(t, []string{"a", "b"}, window(lines, 1, 2))
	assert.Equal(t, []string{"c", "d"}, window(lines, 3, 2))
	assert.Equal(t, []string{"d", "e"}, window(lines, 4, 2))
}

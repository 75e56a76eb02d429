package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
)

// setupCLI returns an empty data dir with config lookups isolated from the
// developer's machine.
func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return t.TempDir()
}

// runTwy executes one command in-process against dir.
func runTwy(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	out, _, err := execute(t, dir, args...)
	return out, err
}

// execute runs one command and tears it down the way main does.
func execute(t *testing.T, dir string, args ...string) (string, *app, error) {
	t.Helper()
	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--dir", dir}, args...))
	err := root.Execute()
	a.teardown()
	return out.String(), a, err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runTwy(t, dir, args...)
	require.NoError(t, err, out)
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

// seedCLI creates a cycle starting 2024-01-01 with one goal and one 3x/week tactic.
func seedCLI(t *testing.T, dir string) (goalID, tacticID string) {
	t.Helper()
	mustRun(t, dir, "cycle", "new", "Q1", "--start", "2024-01-01")
	g := decode[store.Goal](t, mustRun(t, dir, "--json", "goal", "add", "Fitness", "--why", "health"))
	tac := decode[store.Tactic](t, mustRun(t, dir, "--json", "tactic", "add", g.ID, "Run", "--freq", "3"))
	return g.ID, tac.ID
}

func TestCheckShowsUpInWeek(t *testing.T) {
	dir := setupCLI(t)
	_, tacticID := seedCLI(t, dir)

	task := decode[store.ScheduledTask](t, mustRun(t, dir, "--json", "check", tacticID, "--date", "2024-01-09", "--note", "5k"))
	assert.True(t, task.Completed)
	assert.Equal(t, 2, task.WeekNumber)

	sc := decode[score.Scorecard](t, mustRun(t, dir, "--json", "week", "2"))
	assert.Equal(t, 3, sc.Target)
	assert.Equal(t, 1, sc.Achieved)
	assert.Equal(t, 33, sc.Score)
	require.Len(t, sc.Goals, 1)
	require.Len(t, sc.Goals[0].Rows, 1)
	assert.True(t, sc.Goals[0].Rows[0].Days[1].Checked)

	human := mustRun(t, dir, "week", "2")
	assert.Contains(t, human, "Week 2 of 12")
	assert.Contains(t, human, "Run")
	assert.Contains(t, human, "1/3")

	mustRun(t, dir, "uncheck", tacticID, "--date", "2024-01-09")
	sc = decode[score.Scorecard](t, mustRun(t, dir, "--json", "week", "2"))
	assert.Equal(t, 0, sc.Achieved)
	assert.Equal(t, 1, sc.TotalTasks, "unchecking keeps the task as planned")
}

func TestCheckRefusesLockedCell(t *testing.T) {
	dir := setupCLI(t)
	_, tacticID := seedCLI(t, dir)

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		mustRun(t, dir, "check", tacticID, "--date", d)
	}
	_, err := runTwy(t, dir, "check", tacticID, "--date", "2024-01-04")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already met")

	mustRun(t, dir, "check", tacticID, "--date", "2024-01-04", "--force")
	sc := decode[score.Scorecard](t, mustRun(t, dir, "--json", "week", "1"))
	assert.Equal(t, 3, sc.Achieved, "completions past the target are capped")
	assert.Equal(t, 133, sc.Goals[0].Rows[0].Percent)
}

func TestCheckOutsideCycle(t *testing.T) {
	dir := setupCLI(t)
	_, tacticID := seedCLI(t, dir)

	_, err := runTwy(t, dir, "check", tacticID, "--date", "2024-03-25")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestToday(t *testing.T) {
	dir := setupCLI(t)
	_, tacticID := seedCLI(t, dir)
	mustRun(t, dir, "check", tacticID, "--date", "2024-01-10")

	items := decode[[]todayItem](t, mustRun(t, dir, "--json", "today", "--date", "2024-01-10"))
	require.Len(t, items, 1)
	assert.True(t, items[0].Checked)
	assert.Equal(t, "Fitness", items[0].Goal)
	assert.Equal(t, 3, items[0].Target)

	items = decode[[]todayItem](t, mustRun(t, dir, "--json", "today", "--date", "2024-01-11"))
	require.Len(t, items, 1)
	assert.False(t, items[0].Checked)
}

func TestReviewComputesExecution(t *testing.T) {
	dir := setupCLI(t)
	_, tacticID := seedCLI(t, dir)
	mustRun(t, dir, "check", tacticID, "--date", "2024-01-08")
	mustRun(t, dir, "check", tacticID, "--date", "2024-01-09")
	mustRun(t, dir, "uncheck", tacticID, "--date", "2024-01-10")

	r := decode[store.WeeklyReview](t, mustRun(t, dir, "--json", "review", "--week", "2", "--worked", "mornings"))
	assert.Equal(t, 3, r.PlannedTasks)
	assert.Equal(t, 2, r.CompletedTasks)
	assert.Equal(t, 67, r.ExecutionPercentage)
	assert.Equal(t, "mornings", r.WhatWorked)

	again := decode[store.WeeklyReview](t, mustRun(t, dir, "--json", "review", "--week", "2", "--adjust", "earlier"))
	assert.Equal(t, r.ID, again.ID)

	reviews := decode[[]store.WeeklyReview](t, mustRun(t, dir, "--json", "review", "list"))
	require.Len(t, reviews, 1)
	assert.Equal(t, "earlier", reviews[0].Adjustments)
}

func TestProgressReportsIndicators(t *testing.T) {
	dir := setupCLI(t)
	goalID, _ := seedCLI(t, dir)

	ind := decode[store.LagIndicator](t, mustRun(t, dir, "--json", "indicator", "add", goalID, "Revenue", "--type", "currency", "--target", "10000"))
	mustRun(t, dir, "indicator", "record", ind.ID, "2500", "--week", "1")
	mustRun(t, dir, "review", "--week", "1")

	var rep struct {
		Trend      score.Trend          `json:"trend"`
		Goals      []score.GoalProgress `json:"goals"`
		Indicators []struct {
			Display string `json:"display"`
			Target  string `json:"target_display"`
		} `json:"indicators"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "--json", "progress")), &rep))
	require.Len(t, rep.Trend.Weeks, 1)
	require.Len(t, rep.Goals, 1)
	assert.Equal(t, "Fitness", rep.Goals[0].Title)
	require.Len(t, rep.Indicators, 1)
	assert.Equal(t, "AED 2,500", rep.Indicators[0].Display)
	assert.Equal(t, "AED 10,000", rep.Indicators[0].Target)

	human := mustRun(t, dir, "progress")
	assert.Contains(t, human, "Revenue")
	assert.Contains(t, human, "cycle score")
}

func TestGoalCommands(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, dir, "cycle", "new", "Q1", "--start", "2024-01-01")

	var ids []string
	for _, title := range []string{"A", "B", "C", "D"} {
		g := decode[store.Goal](t, mustRun(t, dir, "--json", "goal", "add", title))
		ids = append(ids, g.ID)
	}
	_, err := runTwy(t, dir, "goal", "add", "E")
	assert.ErrorIs(t, err, store.ErrGoalLimit)

	mustRun(t, dir, "goal", "down", ids[0])
	mustRun(t, dir, "goal", "edit", ids[1], "--title", "Bee", "--metric", "10 hives")
	mustRun(t, dir, "goal", "rm", ids[3])

	goals := decode[[]store.Goal](t, mustRun(t, dir, "--json", "goal", "list"))
	var titles []string
	for _, g := range goals {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"Bee", "A", "C"}, titles)
	assert.Equal(t, "10 hives", goals[0].TargetMetric)
}

func TestTacticFlags(t *testing.T) {
	dir := setupCLI(t)
	goalID, _ := seedCLI(t, dir)

	once := decode[store.Tactic](t, mustRun(t, dir, "--json", "tactic", "add", goalID, "Buy shoes", "--once", "--week", "4"))
	assert.Equal(t, store.TacticOneTime, once.Type)
	assert.Equal(t, 4, once.EndWeek)

	ranged := decode[store.Tactic](t, mustRun(t, dir, "--json", "tactic", "add", goalID, "Stretch", "--weeks", "3-8", "--priority", "high"))
	assert.Equal(t, 3, ranged.StartWeek)
	assert.Equal(t, 8, ranged.EndWeek)
	assert.Equal(t, store.PriorityHigh, ranged.Priority)

	_, err := runTwy(t, dir, "tactic", "add", goalID, "Bad", "--weeks", "x-2")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	mustRun(t, dir, "tactic", "rm", once.ID)
	_, err = runTwy(t, dir, "tactic", "rm", once.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCycleAndVisionCommands(t *testing.T) {
	dir := setupCLI(t)

	mustRun(t, dir, "vision", "set", "--long", "Live deliberately")
	v := decode[store.Vision](t, mustRun(t, dir, "--json", "vision", "show"))
	assert.Equal(t, "Live deliberately", v.LongTerm)

	first := decode[store.Cycle](t, mustRun(t, dir, "--json", "cycle", "new", "Q1", "--start", "2024-01-01"))
	assert.Equal(t, v.ID, first.VisionID)
	mustRun(t, dir, "cycle", "new", "Q2", "--start", "2024-04-01")

	cycles := decode[[]store.Cycle](t, mustRun(t, dir, "--json", "cycle", "list"))
	require.Len(t, cycles, 2)
	assert.Equal(t, "Q2", cycles[0].Title)
	assert.Equal(t, store.CycleCompleted, cycles[1].Status)

	mustRun(t, dir, "cycle", "archive", first.ID)
	_, err := runTwy(t, dir, "cycle", "complete", first.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	mustRun(t, dir, "cycle", "reflect", "Shipped the thing.")
	shown := mustRun(t, dir, "cycle", "show")
	assert.Contains(t, shown, "Q2")
	assert.Contains(t, shown, "Shipped the thing.")
}

func TestNoActiveCycle(t *testing.T) {
	dir := setupCLI(t)
	_, err := runTwy(t, dir, "goal", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "twy cycle new")
}

func TestSQLiteBackendFlag(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, dir, "--backend", "sqlite", "cycle", "new", "Q1", "--start", "2024-01-01")

	cycles := decode[[]store.Cycle](t, mustRun(t, dir, "--backend", "sqlite", "--json", "cycle", "list"))
	require.Len(t, cycles, 1)

	// The file backend in the same directory knows nothing about it.
	cycles = decode[[]store.Cycle](t, mustRun(t, dir, "--json", "cycle", "list"))
	assert.Empty(t, cycles)

	_, err := runTwy(t, dir, "--backend", "postgres", "cycle", "list")
	assert.Error(t, err)
}

func TestFailedCommandReleasesStore(t *testing.T) {
	dir := setupCLI(t)
	mustRun(t, dir, "--backend", "sqlite", "cycle", "new", "Q1", "--start", "2024-01-01")

	_, a, err := execute(t, dir, "--backend", "sqlite", "cycle", "show", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, a.repo)

	// A second teardown is a no-op.
	a.teardown()

	cycles := decode[[]store.Cycle](t, mustRun(t, dir, "--backend", "sqlite", "--json", "cycle", "list"))
	assert.Len(t, cycles, 1)
}

func TestParseWeekRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end int
		wantErr    bool
	}{
		{"3-8", 3, 8, false},
		{"5", 5, 5, false},
		{" 2 - 4 ", 2, 4, false},
		{"a-4", 0, 0, true},
		{"2-", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			start, end, err := parseWeekRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, store.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

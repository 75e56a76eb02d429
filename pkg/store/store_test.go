package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cycleStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(dir, WithClock(func() time.Time {
		return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	return s
}

func TestNewStoreCreatesLayout(t *testing.T) {
	s := setupTestStore(t)
	for _, dir := range []string{s.CyclesDir(), s.VisionsDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFilesOnDisk(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCycle(ctx, "Q1", cycleStart)
	require.NoError(t, err)
	g, err := s.CreateGoal(ctx, c.ID, GoalInput{Title: "Fitness", Description: "Get strong."})
	require.NoError(t, err)
	tac, err := s.CreateTactic(ctx, g.ID, TacticInput{Title: "Lift", Type: TacticRecurring, WeeklyFrequency: 3})
	require.NoError(t, err)
	_, err = s.SetTaskCompletion(ctx, tac.ID, cycleStart.AddDate(0, 0, 9), true, "")
	require.NoError(t, err)

	cycleFile, err := os.ReadFile(filepath.Join(s.CyclesDir(), c.ID, "cycle.md"))
	require.NoError(t, err)
	assert.Contains(t, string(cycleFile), "goals_order:")
	assert.Contains(t, string(cycleFile), "status: active")

	goalFile, err := os.ReadFile(filepath.Join(s.CyclesDir(), c.ID, "goals", g.ID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(goalFile), "title: Lift")
	assert.Contains(t, string(goalFile), "weekly_frequency: 3")
	assert.Contains(t, string(goalFile), "Get strong.")

	weekFile, err := os.ReadFile(filepath.Join(s.CyclesDir(), c.ID, "weeks", "week-02.md"))
	require.NoError(t, err)
	assert.Contains(t, string(weekFile), "tactic_id: "+tac.ID)
	assert.Contains(t, string(weekFile), "is_completed: true")
	assert.Contains(t, string(weekFile), "completed_at: 2024-01-10T09:00:00Z")
}

func TestCreateCycleMakesGoalAndWeekDirs(t *testing.T) {
	s := setupTestStore(t)

	c, err := s.CreateCycle(context.Background(), "Q1", cycleStart)
	require.NoError(t, err)
	for _, dir := range []string{"goals", "weeks"} {
		info, err := os.Stat(filepath.Join(s.CyclesDir(), c.ID, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestHandEditedGoalIsPickedUp(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCycle(ctx, "Q1", cycleStart)
	require.NoError(t, err)

	content := `---
title: Write a book
why_it_matters: legacy
tactics:
  - id: t-draft
    title: Draft 500 words
    tactic_type: recurring
    start_week: 1
    end_week: 12
    weekly_frequency: 5
created: 2024-01-01T00:00:00Z
updated: 2024-01-01T00:00:00Z
---

Nonfiction, 200 pages.
`
	require.NoError(t, os.WriteFile(filepath.Join(s.CyclesDir(), c.ID, "goals", "book.md"), []byte(content), 0644))

	goals, err := s.ListGoals(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "book", goals[0].ID)
	assert.Equal(t, c.ID, goals[0].CycleID)
	assert.Equal(t, "Nonfiction, 200 pages.", goals[0].Description)
	require.Len(t, goals[0].Tactics, 1)
	assert.Equal(t, "book", goals[0].Tactics[0].GoalID)

	task, err := s.SetTaskCompletion(ctx, "t-draft", cycleStart, true, "")
	require.NoError(t, err)
	assert.Equal(t, 1, task.WeekNumber)
}

func TestGoalsOrderSkipsUnknownIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCycle(ctx, "Q1", cycleStart)
	require.NoError(t, err)
	a, err := s.CreateGoal(ctx, c.ID, GoalInput{Title: "A"})
	require.NoError(t, err)
	b, err := s.CreateGoal(ctx, c.ID, GoalInput{Title: "B"})
	require.NoError(t, err)

	c, err = s.GetCycle(ctx, c.ID)
	require.NoError(t, err)
	c.GoalsOrder = []string{"ghost", b.ID}
	require.NoError(t, s.saveCycle(c))

	goals, err := s.ListGoals(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, b.ID, goals[0].ID)
	assert.Equal(t, a.ID, goals[1].ID)
}

func TestBrokenCycleIsSkipped(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCycle(ctx, "Q1", cycleStart)
	require.NoError(t, err)

	broken := filepath.Join(s.CyclesDir(), "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "cycle.md"), []byte("---\ntitle: [\n"), 0644))

	cycles, err := s.ListCycles(ctx)
	require.NoError(t, err)
	assert.Len(t, cycles, 1)
}

func TestRejectsPathLikeIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"../etc", "a/b", "*", ""} {
		_, err := s.GetCycle(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		_, err = s.GetGoal(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestCanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListCycles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.CreateCycle(ctx, "Q1", cycleStart)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyCompletion(t *testing.T) {
	first := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)
	task := &ScheduledTask{}

	applyCompletion(task, true, "note", first)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, first, *task.CompletedAt)

	applyCompletion(task, true, "", later)
	assert.Equal(t, first, *task.CompletedAt, "completion time is kept")
	assert.Equal(t, "note", task.Notes)

	applyCompletion(task, false, "", later)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

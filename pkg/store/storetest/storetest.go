// Package storetest holds the behavioural suite every store.Repository
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

// Opener returns a fresh, empty repository for one test.
type Opener func(t *testing.T) store.Repository

// Start is the start date of the cycle most tests create.
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes the suite against the repositories produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r store.Repository)
	}{
		{"VisionLifecycle", testVisionLifecycle},
		{"CreateCycleCompletesActive", testCreateCycleCompletesActive},
		{"CycleStatusTransitions", testCycleStatusTransitions},
		{"CycleReflection", testCycleReflection},
		{"GoalLimit", testGoalLimit},
		{"GoalOrdering", testGoalOrdering},
		{"UpdateGoal", testUpdateGoal},
		{"TacticValidation", testTacticValidation},
		{"TaskCompletionIsIdempotent", testTaskCompletionIsIdempotent},
		{"TaskCompletionOutsideCycle", testTaskCompletionOutsideCycle},
		{"ListTasksByWeek", testListTasksByWeek},
		{"ReviewUpsert", testReviewUpsert},
		{"SnapshotUpsert", testSnapshotUpsert},
		{"DeleteGoalCascades", testDeleteGoalCascades},
		{"DeleteTacticAndIndicator", testDeleteTacticAndIndicator},
		{"NotFound", testNotFound},
		{"UnknownCycleReads", testUnknownCycleReads},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := open(t)
			t.Cleanup(func() { _ = r.Close() })
			tt.fn(t, r)
		})
	}
}

func day(offset int) time.Time {
	return Start.AddDate(0, 0, offset)
}

// seed creates an active cycle with one goal holding a recurring tactic.
func seed(t *testing.T, r store.Repository) (*store.Cycle, *store.Goal, *store.Tactic) {
	t.Helper()
	ctx := context.Background()
	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)
	g, err := r.CreateGoal(ctx, c.ID, store.GoalInput{Title: "Fitness", WhyItMatters: "health"})
	require.NoError(t, err)
	tac, err := r.CreateTactic(ctx, g.ID, store.TacticInput{
		Title:           "Run",
		Type:            store.TacticRecurring,
		WeeklyFrequency: 3,
	})
	require.NoError(t, err)
	return c, g, tac
}

func testVisionLifecycle(t *testing.T, r store.Repository) {
	ctx := context.Background()

	_, err := r.ActiveVision(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first, err := r.SaveVision(ctx, "Build a calm life", "Own a small studio")
	require.NoError(t, err)
	assert.True(t, first.Active)

	second, err := r.SaveVision(ctx, "Build a calmer life", "")
	require.NoError(t, err)

	active, err := r.ActiveVision(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "Build a calmer life", active.LongTerm)

	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)
	assert.Equal(t, second.ID, c.VisionID)

	_, err = r.SaveVision(ctx, " ", "")
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func testCreateCycleCompletesActive(t *testing.T, r store.Repository) {
	ctx := context.Background()

	first, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)
	assert.Equal(t, store.CycleActive, first.Status)
	assert.Equal(t, "2024-03-25", week.FormatDate(first.EndDate))

	second, err := r.CreateCycle(ctx, "Q2", Start.AddDate(0, 0, 91))
	require.NoError(t, err)

	active, err := r.ActiveCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	reloaded, err := r.GetCycle(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, store.CycleCompleted, reloaded.Status)

	cycles, err := r.ListCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, second.ID, cycles[0].ID, "newest first")

	activeCount := 0
	for _, c := range cycles {
		if c.IsActive() {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	_, err = r.CreateCycle(ctx, "", Start)
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func testCycleStatusTransitions(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)

	c, err = r.SetCycleStatus(ctx, c.ID, store.CycleCompleted)
	require.NoError(t, err)
	assert.Equal(t, store.CycleCompleted, c.Status)

	_, err = r.SetCycleStatus(ctx, c.ID, store.CycleActive)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	c, err = r.SetCycleStatus(ctx, c.ID, store.CycleArchived)
	require.NoError(t, err)
	assert.Equal(t, store.CycleArchived, c.Status)

	_, err = r.SetCycleStatus(ctx, c.ID, store.CycleCompleted)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = r.ActiveCycle(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testCycleReflection(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)

	_, err = r.SetCycleReflection(ctx, c.ID, "Mornings worked.\n\nEvenings did not.")
	require.NoError(t, err)

	reloaded, err := r.GetCycle(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mornings worked.\n\nEvenings did not.", reloaded.Reflection)
}

func testGoalLimit(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)

	for i := 0; i < store.MaxGoalsPerCycle; i++ {
		_, err := r.CreateGoal(ctx, c.ID, store.GoalInput{Title: "goal"})
		require.NoError(t, err)
	}
	_, err = r.CreateGoal(ctx, c.ID, store.GoalInput{Title: "one too many"})
	assert.ErrorIs(t, err, store.ErrGoalLimit)

	_, err = r.CreateGoal(ctx, c.ID, store.GoalInput{Title: "  "})
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func goalTitles(t *testing.T, r store.Repository, cycleID string) []string {
	t.Helper()
	goals, err := r.ListGoals(context.Background(), cycleID)
	require.NoError(t, err)
	var titles []string
	for i, g := range goals {
		assert.Equal(t, i, g.DisplayOrder)
		titles = append(titles, g.Title)
	}
	return titles
}

func testGoalOrdering(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, err := r.CreateCycle(ctx, "Q1", Start)
	require.NoError(t, err)

	var ids []string
	for _, title := range []string{"A", "B", "C"} {
		g, err := r.CreateGoal(ctx, c.ID, store.GoalInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, goalTitles(t, r, c.ID))

	require.NoError(t, r.ReorderGoal(ctx, ids[2], -1))
	assert.Equal(t, []string{"A", "C", "B"}, goalTitles(t, r, c.ID))

	// Moving past either end is a no-op
	require.NoError(t, r.ReorderGoal(ctx, ids[0], -1))
	require.NoError(t, r.ReorderGoal(ctx, ids[1], +1))
	assert.Equal(t, []string{"A", "C", "B"}, goalTitles(t, r, c.ID))
}

func testUpdateGoal(t *testing.T, r store.Repository) {
	ctx := context.Background()
	_, g, _ := seed(t, r)

	_, err := r.UpdateGoal(ctx, g.ID, store.GoalInput{Title: "Strength", Description: "Lift", TargetMetric: "100kg squat"})
	require.NoError(t, err)

	reloaded, err := r.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strength", reloaded.Title)
	assert.Equal(t, "Lift", reloaded.Description)
	assert.Equal(t, "100kg squat", reloaded.TargetMetric)
	require.Len(t, reloaded.Tactics, 1, "tactics survive an update")
}

func testTacticValidation(t *testing.T, r store.Repository) {
	ctx := context.Background()
	_, g, _ := seed(t, r)

	once, err := r.CreateTactic(ctx, g.ID, store.TacticInput{Title: "Buy shoes", Type: store.TacticOneTime, StartWeek: 3, EndWeek: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, once.StartWeek)
	assert.Equal(t, 3, once.EndWeek)

	bad := []store.TacticInput{
		{Title: "", Type: store.TacticRecurring},
		{Title: "x", Type: "sometimes"},
		{Title: "x", Type: store.TacticRecurring, StartWeek: 13},
		{Title: "x", Type: store.TacticRecurring, StartWeek: 8, EndWeek: 4},
		{Title: "x", Type: store.TacticRecurring, WeeklyFrequency: 8},
		{Title: "x", Type: store.TacticRecurring, Priority: "urgent"},
	}
	for _, in := range bad {
		_, err := r.CreateTactic(ctx, g.ID, in)
		assert.ErrorIs(t, err, week.ErrInvalidInput, "%+v", in)
	}

	reloaded, err := r.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Tactics, 2)
	assert.Equal(t, 12, reloaded.Tactics[0].EndWeek)
	assert.Equal(t, store.PriorityMedium, reloaded.Tactics[0].Priority)
}

func testTaskCompletionIsIdempotent(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, _, tac := seed(t, r)
	date := day(8).Add(15 * time.Hour)

	first, err := r.SetTaskCompletion(ctx, tac.ID, date, true, "felt good")
	require.NoError(t, err)
	assert.True(t, first.Completed)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, 2, first.WeekNumber)

	second, err := r.SetTaskCompletion(ctx, tac.ID, date, true, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "felt good", second.Notes)

	tasks, err := r.ListTasks(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "2024-01-09", week.FormatDate(tasks[0].Date))
	assert.True(t, tasks[0].Completed)

	off, err := r.SetTaskCompletion(ctx, tac.ID, date, false, "")
	require.NoError(t, err)
	assert.False(t, off.Completed)
	assert.Nil(t, off.CompletedAt)

	tasks, err = r.ListTasks(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
}

func testTaskCompletionOutsideCycle(t *testing.T, r store.Repository) {
	ctx := context.Background()
	_, _, tac := seed(t, r)

	_, err := r.SetTaskCompletion(ctx, tac.ID, day(-1), true, "")
	assert.ErrorIs(t, err, week.ErrInvalidInput)
	_, err = r.SetTaskCompletion(ctx, tac.ID, day(84), true, "")
	assert.ErrorIs(t, err, week.ErrInvalidInput)

	_, err = r.SetTaskCompletion(ctx, tac.ID, day(83), true, "")
	assert.NoError(t, err)

	_, err = r.SetTaskCompletion(ctx, "missing", day(0), true, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListTasksByWeek(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, _, tac := seed(t, r)

	for _, offset := range []int{0, 2, 7, 8, 80} {
		_, err := r.SetTaskCompletion(ctx, tac.ID, day(offset), true, "")
		require.NoError(t, err)
	}

	all, err := r.ListTasks(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Date.Before(all[i-1].Date), "sorted by date")
	}

	w1, err := r.ListTasks(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Len(t, w1, 2)

	w12, err := r.ListTasks(ctx, c.ID, 12)
	require.NoError(t, err)
	assert.Len(t, w12, 1)

	_, err = r.ListTasks(ctx, c.ID, 13)
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func testReviewUpsert(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, _, _ := seed(t, r)

	saved, err := r.SaveReview(ctx, &store.WeeklyReview{
		CycleID:             c.ID,
		WeekNumber:          2,
		PlannedTasks:        10,
		CompletedTasks:      8,
		ExecutionPercentage: 80,
		WhatWorked:          "early runs",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", week.FormatDate(saved.WeekStart))
	assert.Equal(t, "2024-01-14", week.FormatDate(saved.WeekEnd))

	updated, err := r.SaveReview(ctx, &store.WeeklyReview{
		CycleID:             c.ID,
		WeekNumber:          2,
		PlannedTasks:        10,
		CompletedTasks:      9,
		ExecutionPercentage: 90,
		Adjustments:         "sleep earlier",
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	reviews, err := r.ListReviews(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 90, reviews[0].ExecutionPercentage)
	assert.Equal(t, "sleep earlier", reviews[0].Adjustments)
	assert.Empty(t, reviews[0].WhatWorked)

	got, err := r.GetReview(ctx, c.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, got.CompletedTasks)

	_, err = r.GetReview(ctx, c.ID, 3)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = r.SaveReview(ctx, &store.WeeklyReview{CycleID: c.ID, WeekNumber: 0})
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func testSnapshotUpsert(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, g, _ := seed(t, r)
	target := 10000.0

	ind, err := r.CreateIndicator(ctx, g.ID, store.IndicatorInput{Name: "Revenue", MetricType: store.MetricCurrency, TargetValue: &target})
	require.NoError(t, err)

	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: ind.ID, CycleID: c.ID, WeekNumber: 1, Value: 2000})
	require.NoError(t, err)
	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: ind.ID, CycleID: c.ID, WeekNumber: 2, Value: 4000})
	require.NoError(t, err)
	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: ind.ID, CycleID: c.ID, WeekNumber: 2, Value: 5000, Notes: "big client"})
	require.NoError(t, err)

	snaps, err := r.ListSnapshots(ctx, ind.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 1, snaps[0].WeekNumber)
	assert.Equal(t, 5000.0, snaps[1].Value)
	assert.Equal(t, "big client", snaps[1].Notes)

	week2, err := r.ListWeekSnapshots(ctx, c.ID, 2)
	require.NoError(t, err)
	require.Len(t, week2, 1)

	goal, err := r.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, goal.Indicators, 1)
	assert.Equal(t, store.MetricCurrency, goal.Indicators[0].MetricType)
	require.NotNil(t, goal.Indicators[0].TargetValue)
	assert.Equal(t, target, *goal.Indicators[0].TargetValue)

	require.NoError(t, r.DeleteSnapshot(ctx, snaps[0].ID))
	snaps, err = r.ListSnapshots(ctx, ind.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	_, err = r.CreateIndicator(ctx, g.ID, store.IndicatorInput{Name: "Mood", MetricType: "vibes"})
	assert.ErrorIs(t, err, week.ErrInvalidInput)
}

func testDeleteGoalCascades(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, g, tac := seed(t, r)
	ind, err := r.CreateIndicator(ctx, g.ID, store.IndicatorInput{Name: "Weight", MetricType: store.MetricWeightKg})
	require.NoError(t, err)
	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: ind.ID, CycleID: c.ID, WeekNumber: 1, Value: 80})
	require.NoError(t, err)
	_, err = r.SetTaskCompletion(ctx, tac.ID, day(1), true, "")
	require.NoError(t, err)

	other, err := r.CreateGoal(ctx, c.ID, store.GoalInput{Title: "Reading"})
	require.NoError(t, err)
	read, err := r.CreateTactic(ctx, other.ID, store.TacticInput{Title: "Read", Type: store.TacticRecurring})
	require.NoError(t, err)
	_, err = r.SetTaskCompletion(ctx, read.ID, day(1), true, "")
	require.NoError(t, err)

	require.NoError(t, r.DeleteGoal(ctx, g.ID))

	_, err = r.GetGoal(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	tasks, err := r.ListTasks(ctx, c.ID, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, read.ID, tasks[0].TacticID)

	snaps, err := r.ListWeekSnapshots(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	assert.Equal(t, []string{"Reading"}, goalTitles(t, r, c.ID))
}

func testDeleteTacticAndIndicator(t *testing.T, r store.Repository) {
	ctx := context.Background()
	c, g, tac := seed(t, r)
	_, err := r.SetTaskCompletion(ctx, tac.ID, day(1), true, "")
	require.NoError(t, err)
	ind, err := r.CreateIndicator(ctx, g.ID, store.IndicatorInput{Name: "Pages", MetricType: store.MetricCount})
	require.NoError(t, err)
	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: ind.ID, CycleID: c.ID, WeekNumber: 1, Value: 120})
	require.NoError(t, err)

	require.NoError(t, r.DeleteTactic(ctx, tac.ID))
	require.NoError(t, r.DeleteIndicator(ctx, ind.ID))

	goal, err := r.GetGoal(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, goal.Tactics)
	assert.Empty(t, goal.Indicators)

	tasks, err := r.ListTasks(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	snaps, err := r.ListSnapshots(ctx, ind.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	assert.ErrorIs(t, r.DeleteTactic(ctx, tac.ID), store.ErrNotFound)
	assert.ErrorIs(t, r.DeleteIndicator(ctx, ind.ID), store.ErrNotFound)
}

func testNotFound(t *testing.T, r store.Repository) {
	ctx := context.Background()

	_, err := r.GetCycle(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = r.GetGoal(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = r.CreateGoal(ctx, "nope", store.GoalInput{Title: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = r.CreateTactic(ctx, "nope", store.TacticInput{Title: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, r.DeleteGoal(ctx, "nope"), store.ErrNotFound)
	assert.ErrorIs(t, r.DeleteSnapshot(ctx, "nope"), store.ErrNotFound)
	_, err = r.UpsertSnapshot(ctx, &store.LagSnapshot{IndicatorID: "nope", WeekNumber: 1, Value: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUnknownCycleReads(t *testing.T, r store.Repository) {
	ctx := context.Background()
	_, _, _ = seed(t, r)

	for _, id := range []string{"nope", "../x"} {
		_, err := r.ListTasks(ctx, id, 1)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		_, err = r.ListReviews(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		_, err = r.GetReview(ctx, id, 1)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		_, err = r.ListSnapshots(ctx, "nope", id)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
		_, err = r.ListWeekSnapshots(ctx, id, 1)
		assert.ErrorIs(t, err, store.ErrNotFound, id)
	}
}

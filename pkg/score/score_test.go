package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/store"
)

func TestWeeklyScore(t *testing.T) {
	tests := []struct {
		planned, completed, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{-3, 1, 0},
		{10, 10, 100},
		{10, 8, 80},
		{3, 1, 33},
		{3, 2, 67},
		{8, 1, 13}, // 12.5 rounds half away from zero
		{10, 0, 0},
		{4, 6, 100},
		{4, -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeeklyScore(tt.planned, tt.completed), "WeeklyScore(%d, %d)", tt.planned, tt.completed)
	}
}

func TestCycleScore(t *testing.T) {
	assert.Equal(t, 0, CycleScore(nil))
	assert.Equal(t, 0, CycleScore([]int{}))
	assert.Equal(t, 75, CycleScore([]int{100, 50}))
	assert.Equal(t, 84, CycleScore([]int{80, 85, 88}))
	assert.Equal(t, 51, CycleScore([]int{50, 51})) // 50.5
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandExcellent, BandFor(100))
	assert.Equal(t, BandExcellent, BandFor(85))
	assert.Equal(t, BandGood, BandFor(84))
	assert.Equal(t, BandGood, BandFor(70))
	assert.Equal(t, BandFair, BandFor(50))
	assert.Equal(t, BandNeedsImprovement, BandFor(49))
	assert.Equal(t, BandNeedsImprovement, BandFor(0))
}

func TestNewReview(t *testing.T) {
	tasks := []*store.ScheduledTask{
		{Completed: true}, {Completed: true}, {Completed: false},
	}
	r, err := NewReview("c1", 4, tasks, "mornings", "evenings", "sleep")
	require.NoError(t, err)
	assert.Equal(t, 3, r.PlannedTasks)
	assert.Equal(t, 2, r.CompletedTasks)
	assert.Equal(t, 67, r.ExecutionPercentage)
	assert.Equal(t, "c1", r.CycleID)
	assert.Equal(t, "sleep", r.Adjustments)

	_, err = NewReview("c1", 13, nil, "", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReviewTrend(t *testing.T) {
	reviews := []*store.WeeklyReview{
		{WeekNumber: 3, ExecutionPercentage: 60},
		{WeekNumber: 1, ExecutionPercentage: 90},
		{WeekNumber: 2, ExecutionPercentage: 85},
	}
	tr := ReviewTrend(reviews, ExecutionTarget)
	require.Len(t, tr.Weeks, 3)
	assert.Equal(t, []TrendPoint{{1, 90}, {2, 85}, {3, 60}}, tr.Weeks)
	assert.Equal(t, 78, tr.Average)
	assert.Equal(t, 2, tr.WeeksOnGoal)
	assert.Equal(t, BandGood, tr.Band)
	assert.Equal(t, 3, reviews[0].WeekNumber, "input order untouched")

	empty := ReviewTrend(nil, ExecutionTarget)
	assert.Empty(t, empty.Weeks)
	assert.Equal(t, 0, empty.Average)
}

func TestTargetForWeek(t *testing.T) {
	assert.Equal(t, 1, TargetForWeek(&store.Tactic{Type: store.TacticOneTime, WeeklyFrequency: 5}))
	assert.Equal(t, 3, TargetForWeek(&store.Tactic{Type: store.TacticRecurring, WeeklyFrequency: 3}))
	assert.Equal(t, 7, TargetForWeek(&store.Tactic{Type: store.TacticRecurring}))
}

func TestIsActiveInWeek(t *testing.T) {
	tac := &store.Tactic{StartWeek: 3, EndWeek: 5}
	assert.False(t, IsActiveInWeek(tac, 2))
	assert.True(t, IsActiveInWeek(tac, 3))
	assert.True(t, IsActiveInWeek(tac, 5))
	assert.False(t, IsActiveInWeek(tac, 6))

	unset := &store.Tactic{}
	assert.True(t, IsActiveInWeek(unset, 1))
	assert.True(t, IsActiveInWeek(unset, 12))

	once := &store.Tactic{Type: store.TacticOneTime, StartWeek: 7, EndWeek: 7}
	assert.True(t, IsActiveInWeek(once, 7))
	assert.False(t, IsActiveInWeek(once, 8))
}

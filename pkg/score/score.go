// Package score computes execution scores, tactic targets, weekly scorecards
// and lag indicator progress. Everything here is pure: callers load records
// from a store.Repository and pass them in.
package score

import (
	"math"
	"sort"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

// ErrInvalidInput is the only error class of this package.
var ErrInvalidInput = week.ErrInvalidInput

// ExecutionTarget is the weekly execution percentage a cycle aims for.
const ExecutionTarget = 85

// Band is a qualitative label for an execution score.
type Band string

const (
	BandExcellent        Band = "Excellent"
	BandGood             Band = "Good"
	BandFair             Band = "Fair"
	BandNeedsImprovement Band = "Needs Improvement"
)

// BandFor labels a score: 85+ excellent, 70+ good, 50+ fair.
func BandFor(score int) Band {
	switch {
	case score >= 85:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 50:
		return BandFair
	default:
		return BandNeedsImprovement
	}
}

func percent(part, whole int) int {
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// WeeklyScore is the rounded percentage of planned occurrences completed,
// clamped to 0..100. Zero planned scores 0.
func WeeklyScore(planned, completed int) int {
	if planned <= 0 {
		return 0
	}
	p := percent(completed, planned)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CycleScore is the rounded mean of weekly scores, 0 when there are none.
func CycleScore(weekly []int) int {
	if len(weekly) == 0 {
		return 0
	}
	sum := 0
	for _, s := range weekly {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(weekly))))
}

// TaskCounts returns how many tasks were planned and completed.
func TaskCounts(tasks []*store.ScheduledTask) (planned, completed int) {
	for _, t := range tasks {
		planned++
		if t.Completed {
			completed++
		}
	}
	return planned, completed
}

// NewReview builds the review of one week from that week's tasks and the
// reflection text. The store fills in the week's dates.
func NewReview(cycleID string, w int, tasks []*store.ScheduledTask, worked, didnt, adjust string) (*store.WeeklyReview, error) {
	if err := week.Check(w); err != nil {
		return nil, err
	}
	planned, completed := TaskCounts(tasks)
	return &store.WeeklyReview{
		CycleID:             cycleID,
		WeekNumber:          w,
		PlannedTasks:        planned,
		CompletedTasks:      completed,
		ExecutionPercentage: WeeklyScore(planned, completed),
		WhatWorked:          worked,
		WhatDidntWork:       didnt,
		Adjustments:         adjust,
	}, nil
}

// Trend summarises the recorded weekly reviews of a cycle.
type Trend struct {
	Weeks       []TrendPoint `json:"weeks"`
	Average     int          `json:"average"`
	WeeksOnGoal int          `json:"weeks_on_target"`
	Band        Band         `json:"band"`
}

// TrendPoint is one week of a Trend.
type TrendPoint struct {
	Week  int `json:"week"`
	Score int `json:"score"`
}

// ReviewTrend orders reviews by week and counts the weeks at or above target.
func ReviewTrend(reviews []*store.WeeklyReview, target int) Trend {
	sorted := append([]*store.WeeklyReview(nil), reviews...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WeekNumber < sorted[j].WeekNumber })

	tr := Trend{Weeks: []TrendPoint{}}
	scores := make([]int, 0, len(sorted))
	for _, r := range sorted {
		tr.Weeks = append(tr.Weeks, TrendPoint{Week: r.WeekNumber, Score: r.ExecutionPercentage})
		scores = append(scores, r.ExecutionPercentage)
		if r.ExecutionPercentage >= target {
			tr.WeeksOnGoal++
		}
	}
	tr.Average = CycleScore(scores)
	tr.Band = BandFor(tr.Average)
	return tr
}

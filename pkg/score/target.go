package score

import (
	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

// DailyTarget is the weekly target of a recurring tactic with no frequency.
const DailyTarget = 7

// IsActiveInWeek reports whether w lies in the tactic's week range. Unset
// bounds read as the start and end of the cycle.
func IsActiveInWeek(t *store.Tactic, w int) bool {
	start, end := t.StartWeek, t.EndWeek
	if start == 0 {
		start = 1
	}
	if end == 0 {
		end = week.WeeksPerCycle
	}
	return start <= w && w <= end
}

// TargetForWeek is how many completions the tactic needs in an active week.
func TargetForWeek(t *store.Tactic) int {
	if t.IsOneTime() {
		return 1
	}
	if t.WeeklyFrequency > 0 {
		return t.WeeklyFrequency
	}
	return DailyTarget
}

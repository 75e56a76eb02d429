package score

import (
	"time"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

// Cell is one tactic on one day of the scorecard grid.
type Cell struct {
	Date    time.Time            `json:"date"`
	Task    *store.ScheduledTask `json:"task,omitempty"`
	Checked bool                 `json:"checked"`
	// Locked marks an unchecked cell of a tactic whose target is already met.
	// It is advisory; callers decide whether to honour it.
	Locked bool `json:"locked"`
}

// TacticRow is one tactic's line of the scorecard.
type TacticRow struct {
	Tactic    *store.Tactic `json:"tactic"`
	Target    int           `json:"target"`
	Completed int           `json:"completed"`
	// Capped is Completed limited to Target; only this counts toward the score.
	Capped int `json:"capped"`
	// Percent is Completed over Target and may exceed 100.
	Percent   int     `json:"percent"`
	TargetMet bool    `json:"target_met"`
	Days      [7]Cell `json:"days"`
}

// GoalSection groups the active tactics of one goal.
type GoalSection struct {
	Goal *store.Goal `json:"goal"`
	Rows []TacticRow `json:"rows"`
}

// DayTotal is the completion ratio of all tasks scheduled on one date.
type DayTotal struct {
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Percent   int       `json:"percent"`
}

// Scorecard is the aggregated view of one week.
type Scorecard struct {
	Week  int           `json:"week"`
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Goals []GoalSection `json:"goals"`
	Days  [7]DayTotal   `json:"days"`

	Target   int `json:"target"`   // sum of active tactic targets
	Achieved int `json:"achieved"` // sum of capped completions
	Score    int `json:"score"`

	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
}

type taskKey struct {
	tacticID string
	date     time.Time
}

// BuildScorecard aggregates the tasks of week w for the given goals. Tasks of
// other weeks are ignored, as are tactics not active in w.
func BuildScorecard(cycleStart time.Time, w int, goals []*store.Goal, tasks []*store.ScheduledTask) (*Scorecard, error) {
	days, err := week.Days(cycleStart, w)
	if err != nil {
		return nil, err
	}
	sc := &Scorecard{Week: w, Start: days[0], End: days[6], Goals: []GoalSection{}}

	byKey := make(map[taskKey]*store.ScheduledTask)
	dayIndex := make(map[time.Time]int, 7)
	for i, d := range days {
		dayIndex[d] = i
		sc.Days[i].Date = d
	}
	for _, t := range tasks {
		if t.WeekNumber != w {
			continue
		}
		d := week.Date(t.Date)
		byKey[taskKey{t.TacticID, d}] = t

		sc.TotalTasks++
		if t.Completed {
			sc.CompletedTasks++
		}
		if i, ok := dayIndex[d]; ok {
			sc.Days[i].Total++
			if t.Completed {
				sc.Days[i].Completed++
			}
		}
	}
	for i := range sc.Days {
		sc.Days[i].Percent = WeeklyScore(sc.Days[i].Total, sc.Days[i].Completed)
	}

	for _, g := range goals {
		section := GoalSection{Goal: g, Rows: []TacticRow{}}
		for _, tac := range g.Tactics {
			if !IsActiveInWeek(tac, w) {
				continue
			}
			row := TacticRow{Tactic: tac, Target: TargetForWeek(tac)}
			for i, d := range days {
				cell := Cell{Date: d}
				if t, ok := byKey[taskKey{tac.ID, d}]; ok {
					cell.Task = t
					cell.Checked = t.Completed
				}
				if cell.Checked {
					row.Completed++
				}
				row.Days[i] = cell
			}
			row.Capped = min(row.Completed, row.Target)
			row.Percent = percent(row.Completed, row.Target)
			row.TargetMet = row.Completed >= row.Target
			for i := range row.Days {
				row.Days[i].Locked = row.TargetMet && !row.Days[i].Checked
			}

			sc.Target += row.Target
			sc.Achieved += row.Capped
			section.Rows = append(section.Rows, row)
		}
		sc.Goals = append(sc.Goals, section)
	}
	sc.Score = WeeklyScore(sc.Target, sc.Achieved)
	return sc, nil
}

// Cell returns the grid cell of a tactic on a date of the week.
func (sc *Scorecard) Cell(tacticID string, date time.Time) (Cell, bool) {
	d := week.Date(date)
	for _, section := range sc.Goals {
		for _, row := range section.Rows {
			if row.Tactic.ID != tacticID {
				continue
			}
			for _, c := range row.Days {
				if c.Date.Equal(d) {
					return c, true
				}
			}
		}
	}
	return Cell{}, false
}

// Rows returns every tactic row in goal order.
func (sc *Scorecard) Rows() []TacticRow {
	var rows []TacticRow
	for _, section := range sc.Goals {
		rows = append(rows, section.Rows...)
	}
	return rows
}

// GoalProgress is the share of a goal's scheduled tasks that were completed.
type GoalProgress struct {
	GoalID    string `json:"goal_id"`
	Title     string `json:"title"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
}

// GoalsProgress attributes tasks to goals through their tactics.
func GoalsProgress(goals []*store.Goal, tasks []*store.ScheduledTask) []GoalProgress {
	owner := make(map[string]int)
	out := make([]GoalProgress, len(goals))
	for i, g := range goals {
		out[i] = GoalProgress{GoalID: g.ID, Title: g.Title}
		for _, t := range g.Tactics {
			owner[t.ID] = i
		}
	}
	for _, t := range tasks {
		i, ok := owner[t.TacticID]
		if !ok {
			continue
		}
		out[i].Total++
		if t.Completed {
			out[i].Completed++
		}
	}
	for i := range out {
		out[i].Percent = WeeklyScore(out[i].Total, out[i].Completed)
	}
	return out
}

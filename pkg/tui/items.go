package tui

import (
	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
)

// Item is one line of a tab's list. Goal headers are not selectable.
type Item struct {
	ID              string
	Name            string
	Goal            *store.Goal
	Row             *score.TacticRow    // Week and Today tabs
	Indicator       *store.LagIndicator // Progress tab
	IsSectionHeader bool
}

func goalHeader(g *store.Goal) Item {
	return Item{ID: "__goal_" + g.ID, Name: g.Title, Goal: g, IsSectionHeader: true}
}

// FlattenScorecard lists each goal followed by its tactic rows for the week.
// Goals with nothing active that week are left out.
func FlattenScorecard(sc *score.Scorecard) []Item {
	if sc == nil {
		return nil
	}
	var result []Item
	for gi := range sc.Goals {
		section := &sc.Goals[gi]
		if len(section.Rows) == 0 {
			continue
		}
		result = append(result, goalHeader(section.Goal))
		for ri := range section.Rows {
			row := &section.Rows[ri]
			result = append(result, Item{
				ID:   row.Tactic.ID,
				Name: row.Tactic.Title,
				Goal: section.Goal,
				Row:  row,
			})
		}
	}
	return result
}

// FlattenIndicators lists each goal that tracks indicators, followed by them.
func FlattenIndicators(goals []*store.Goal) []Item {
	var result []Item
	for _, g := range goals {
		if len(g.Indicators) == 0 {
			continue
		}
		result = append(result, goalHeader(g))
		for _, ind := range g.Indicators {
			result = append(result, Item{ID: ind.ID, Name: ind.Name, Goal: g, Indicator: ind})
		}
	}
	return result
}

// nextSelectable returns the first non-header index at or beyond from in
// direction dir (+1 or -1), or -1 when there is none.
func nextSelectable(items []Item, from, dir int) int {
	for i := from; i >= 0 && i < len(items); i += dir {
		if !items[i].IsSectionHeader {
			return i
		}
	}
	return -1
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/stefanpenner/twy/pkg/store"
)

const goalColumns = `id, cycle_id, title, description, why_it_matters, target_metric, display_order, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (*store.Goal, error) {
	var g store.Goal
	var created, updated string
	if err := row.Scan(&g.ID, &g.CycleID, &g.Title, &g.Description, &g.WhyItMatters, &g.TargetMetric, &g.DisplayOrder, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if g.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if g.Updated, err = parseTime(updated); err != nil {
		return nil, err
	}
	g.Tactics = []*store.Tactic{}
	g.Indicators = []*store.LagIndicator{}
	return &g, nil
}

// loadGoals returns a cycle's goals ordered for display, with tactics and
// indicators attached.
func (s *Store) loadGoals(ctx context.Context, q querier, cycleID string) ([]*store.Goal, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE cycle_id = ? ORDER BY display_order, rowid`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	var goals []*store.Goal
	byID := make(map[string]*store.Goal)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		g.DisplayOrder = len(goals)
		goals = append(goals, g)
		byID[g.ID] = g
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	tactics, err := q.QueryContext(ctx, `
		SELECT t.id, t.goal_id, t.title, t.description, t.tactic_type, t.start_week, t.end_week,
		       t.weekly_frequency, t.priority, t.estimated_duration, t.notes, t.created_at
		FROM tactics t JOIN goals g ON g.id = t.goal_id
		WHERE g.cycle_id = ?
		ORDER BY t.rowid`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing tactics: %w", err)
	}
	for tactics.Next() {
		var t store.Tactic
		var created string
		if err := tactics.Scan(&t.ID, &t.GoalID, &t.Title, &t.Description, &t.Type, &t.StartWeek, &t.EndWeek,
			&t.WeeklyFrequency, &t.Priority, &t.EstimatedMinutes, &t.Notes, &created); err != nil {
			tactics.Close()
			return nil, err
		}
		if t.Created, err = parseTime(created); err != nil {
			tactics.Close()
			return nil, err
		}
		if g, ok := byID[t.GoalID]; ok {
			g.Tactics = append(g.Tactics, &t)
		}
	}
	tactics.Close()
	if err := tactics.Err(); err != nil {
		return nil, err
	}

	indicators, err := q.QueryContext(ctx, `
		SELECT i.id, i.goal_id, i.name, i.metric_type, i.target_value
		FROM goal_lag_indicators i JOIN goals g ON g.id = i.goal_id
		WHERE g.cycle_id = ?
		ORDER BY i.display_order, i.rowid`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing indicators: %w", err)
	}
	defer indicators.Close()
	for indicators.Next() {
		var ind store.LagIndicator
		var target sql.NullFloat64
		if err := indicators.Scan(&ind.ID, &ind.GoalID, &ind.Name, &ind.MetricType, &target); err != nil {
			return nil, err
		}
		if target.Valid {
			v := target.Float64
			ind.TargetValue = &v
		}
		if g, ok := byID[ind.GoalID]; ok {
			ind.DisplayOrder = len(g.Indicators)
			g.Indicators = append(g.Indicators, &ind)
		}
	}
	return goals, indicators.Err()
}

func (s *Store) goalCycle(ctx context.Context, q querier, goalID string) (string, error) {
	var cycleID string
	if err := q.QueryRowContext(ctx, `SELECT cycle_id FROM goals WHERE id = ?`, goalID).Scan(&cycleID); err != nil {
		return "", notFound(err, "goal "+goalID)
	}
	return cycleID, nil
}

// ListGoals returns a cycle's goals in display order.
func (s *Store) ListGoals(ctx context.Context, cycleID string) ([]*store.Goal, error) {
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	return s.loadGoals(ctx, s.db, cycleID)
}

// GetGoal loads one goal with its tactics and indicators.
func (s *Store) GetGoal(ctx context.Context, id string) (*store.Goal, error) {
	cycleID, err := s.goalCycle(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	goals, err := s.loadGoals(ctx, s.db, cycleID)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
}

// CreateGoal adds a goal to a cycle, up to store.MaxGoalsPerCycle.
func (s *Store) CreateGoal(ctx context.Context, cycleID string, in store.GoalInput) (*store.Goal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	g := &store.Goal{
		ID:           store.NewID(),
		CycleID:      cycleID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		WhyItMatters: in.WhyItMatters,
		TargetMetric: in.TargetMetric,
		Tactics:      []*store.Tactic{},
		Indicators:   []*store.LagIndicator{},
		Created:      now,
		Updated:      now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getCycle(ctx, tx, cycleID); err != nil {
			return err
		}
		var count, maxOrder int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(display_order), -1) FROM goals WHERE cycle_id = ?`, cycleID).Scan(&count, &maxOrder); err != nil {
			return fmt.Errorf("counting goals: %w", err)
		}
		if count >= store.MaxGoalsPerCycle {
			return fmt.Errorf("cycle %s has %d goals: %w", cycleID, count, store.ErrGoalLimit)
		}
		g.DisplayOrder = count
		_, err := tx.ExecContext(ctx, `INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.CycleID, g.Title, g.Description, g.WhyItMatters, g.TargetMetric, maxOrder+1, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("goal created", "id", g.ID, "cycle", cycleID)
	return g, nil
}

// UpdateGoal replaces a goal's editable fields.
func (s *Store) UpdateGoal(ctx context.Context, id string, in store.GoalInput) (*store.Goal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, description = ?, why_it_matters = ?, target_metric = ?, updated_at = ?
		WHERE id = ?`,
		strings.TrimSpace(in.Title), in.Description, in.WhyItMatters, in.TargetMetric, formatTime(s.now()), id)
	if err != nil {
		return nil, fmt.Errorf("updating goal: %w", err)
	}
	if err := requireAffected(res, "goal "+id); err != nil {
		return nil, err
	}
	return s.GetGoal(ctx, id)
}

// DeleteGoal removes a goal; foreign keys cascade to its tactics, tasks,
// indicators and snapshots.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	if err := requireAffected(res, "goal "+id); err != nil {
		return err
	}
	s.log.Debug("goal deleted", "id", id)
	return nil
}

// ReorderGoal swaps a goal with its neighbour (delta -1 up, +1 down).
func (s *Store) ReorderGoal(ctx context.Context, id string, delta int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cycleID, err := s.goalCycle(ctx, tx, id)
		if err != nil {
			return err
		}
		goals, err := s.loadGoals(ctx, tx, cycleID)
		if err != nil {
			return err
		}
		idx := -1
		for i, g := range goals {
			if g.ID == id {
				idx = i
			}
		}
		newIdx := idx + delta
		if idx == -1 || newIdx < 0 || newIdx >= len(goals) {
			return nil
		}
		goals[idx], goals[newIdx] = goals[newIdx], goals[idx]
		for i, g := range goals {
			if _, err := tx.ExecContext(ctx, `UPDATE goals SET display_order = ? WHERE id = ?`, i, g.ID); err != nil {
				return fmt.Errorf("reordering goals: %w", err)
			}
		}
		return nil
	})
}

// CreateTactic validates and inserts a tactic.
func (s *Store) CreateTactic(ctx context.Context, goalID string, in store.TacticInput) (*store.Tactic, error) {
	t, err := in.Tactic()
	if err != nil {
		return nil, err
	}
	if _, err := s.goalCycle(ctx, s.db, goalID); err != nil {
		return nil, err
	}
	t.ID = store.NewID()
	t.GoalID = goalID
	t.Created = s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tactics (id, goal_id, title, description, tactic_type, start_week, end_week,
		                     weekly_frequency, priority, estimated_duration, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.GoalID, t.Title, t.Description, string(t.Type), t.StartWeek, t.EndWeek,
		t.WeeklyFrequency, string(t.Priority), t.EstimatedMinutes, t.Notes, formatTime(t.Created))
	if err != nil {
		return nil, fmt.Errorf("inserting tactic: %w", err)
	}
	s.log.Debug("tactic created", "id", t.ID, "goal", goalID, "type", t.Type)
	return t, nil
}

// DeleteTactic removes a tactic and, by cascade, its tasks.
func (s *Store) DeleteTactic(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tactics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tactic: %w", err)
	}
	return requireAffected(res, "tactic "+id)
}

// CreateIndicator adds a lag indicator to a goal.
func (s *Store) CreateIndicator(ctx context.Context, goalID string, in store.IndicatorInput) (*store.LagIndicator, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	mt, _ := store.ParseMetricType(string(in.MetricType))
	ind := &store.LagIndicator{ID: store.NewID(), GoalID: goalID, Name: strings.TrimSpace(in.Name), MetricType: mt, TargetValue: in.TargetValue}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.goalCycle(ctx, tx, goalID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM goal_lag_indicators WHERE goal_id = ?`, goalID).Scan(&ind.DisplayOrder); err != nil {
			return fmt.Errorf("counting indicators: %w", err)
		}
		var target sql.NullFloat64
		if in.TargetValue != nil {
			target = sql.NullFloat64{Float64: *in.TargetValue, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goal_lag_indicators (id, goal_id, name, metric_type, target_value, display_order)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ind.ID, goalID, ind.Name, string(mt), target, ind.DisplayOrder)
		if err != nil {
			return fmt.Errorf("inserting indicator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ind, nil
}

// DeleteIndicator removes an indicator and, by cascade, its snapshots.
func (s *Store) DeleteIndicator(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goal_lag_indicators WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting indicator: %w", err)
	}
	return requireAffected(res, "indicator "+id)
}

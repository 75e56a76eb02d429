package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

const taskColumns = `id, tactic_id, cycle_id, week_number, scheduled_date, is_completed, completed_at, notes`

func scanTask(row interface{ Scan(...any) error }) (*store.ScheduledTask, error) {
	var t store.ScheduledTask
	var date string
	var completedAt sql.NullString
	if err := row.Scan(&t.ID, &t.TacticID, &t.CycleID, &t.WeekNumber, &date, &t.Completed, &completedAt, &t.Notes); err != nil {
		return nil, err
	}
	var err error
	if t.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		t.CompletedAt = &at
	}
	return &t, nil
}

// ListTasks returns the tasks of one week of a cycle, or all weeks when w is 0.
func (s *Store) ListTasks(ctx context.Context, cycleID string, w int) ([]*store.ScheduledTask, error) {
	if w != 0 {
		if err := week.Check(w); err != nil {
			return nil, err
		}
	}
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM scheduled_tasks
		WHERE cycle_id = ? AND (? = 0 OR week_number = ?)
		ORDER BY scheduled_date, tactic_id`, cycleID, w, w)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*store.ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SetTaskCompletion upserts the task for (tacticID, date) in one statement.
// completed_at is set on the first completion and cleared when un-completed;
// an empty note keeps the stored one.
func (s *Store) SetTaskCompletion(ctx context.Context, tacticID string, date time.Time, completed bool, note string) (*store.ScheduledTask, error) {
	var task *store.ScheduledTask
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var cycleID string
		err := tx.QueryRowContext(ctx, `
			SELECT g.cycle_id FROM tactics t JOIN goals g ON g.id = t.goal_id WHERE t.id = ?`, tacticID).Scan(&cycleID)
		if err != nil {
			return notFound(err, "tactic "+tacticID)
		}
		c, err := s.getCycle(ctx, tx, cycleID)
		if err != nil {
			return err
		}
		date = week.Date(date)
		if !c.Contains(date) {
			return fmt.Errorf("date %s outside cycle %s: %w", formatDate(date), c.ID, week.ErrInvalidInput)
		}

		var completedAt sql.NullString
		if completed {
			completedAt = sql.NullString{String: formatTime(s.now()), Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scheduled_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (tactic_id, scheduled_date) DO UPDATE SET
				completed_at = CASE
					WHEN excluded.is_completed = 0 THEN NULL
					WHEN scheduled_tasks.is_completed = 1 AND scheduled_tasks.completed_at IS NOT NULL THEN scheduled_tasks.completed_at
					ELSE excluded.completed_at
				END,
				is_completed = excluded.is_completed,
				notes = CASE WHEN excluded.notes = '' THEN scheduled_tasks.notes ELSE excluded.notes END`,
			store.NewID(), tacticID, c.ID, c.WeekOf(date), formatDate(date), completed, completedAt, note)
		if err != nil {
			return fmt.Errorf("saving task: %w", err)
		}

		task, err = scanTask(tx.QueryRowContext(ctx,
			`SELECT `+taskColumns+` FROM scheduled_tasks WHERE tactic_id = ? AND scheduled_date = ?`, tacticID, formatDate(date)))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("task updated", "tactic", tacticID, "date", formatDate(date), "completed", completed)
	return task, nil
}

const reviewColumns = `id, cycle_id, week_number, week_start_date, week_end_date, planned_tasks_count,
	completed_tasks_count, execution_percentage, what_worked, what_didnt_work, adjustments_needed, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*store.WeeklyReview, error) {
	var r store.WeeklyReview
	var start, end, created, updated string
	if err := row.Scan(&r.ID, &r.CycleID, &r.WeekNumber, &start, &end, &r.PlannedTasks, &r.CompletedTasks,
		&r.ExecutionPercentage, &r.WhatWorked, &r.WhatDidntWork, &r.Adjustments, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if r.WeekStart, err = parseDate(start); err != nil {
		return nil, err
	}
	if r.WeekEnd, err = parseDate(end); err != nil {
		return nil, err
	}
	if r.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.Updated, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReviews returns a cycle's reviews ordered by week.
func (s *Store) ListReviews(ctx context.Context, cycleID string) ([]*store.WeeklyReview, error) {
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM weekly_reviews WHERE cycle_id = ? ORDER BY week_number`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*store.WeeklyReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetReview returns the review of one week.
func (s *Store) GetReview(ctx context.Context, cycleID string, w int) (*store.WeeklyReview, error) {
	if err := week.Check(w); err != nil {
		return nil, err
	}
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM weekly_reviews WHERE cycle_id = ? AND week_number = ?`, cycleID, w))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("review of week %d", w))
	}
	return r, nil
}

// SaveReview upserts the review of (r.CycleID, r.WeekNumber).
func (s *Store) SaveReview(ctx context.Context, r *store.WeeklyReview) (*store.WeeklyReview, error) {
	if err := week.Check(r.WeekNumber); err != nil {
		return nil, err
	}
	var saved *store.WeeklyReview
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := s.getCycle(ctx, tx, r.CycleID)
		if err != nil {
			return err
		}
		start, end, _ := week.Range(c.StartDate, r.WeekNumber)
		now := formatTime(s.now())
		_, err = tx.ExecContext(ctx, `
			INSERT INTO weekly_reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (cycle_id, week_number) DO UPDATE SET
				week_start_date = excluded.week_start_date,
				week_end_date = excluded.week_end_date,
				planned_tasks_count = excluded.planned_tasks_count,
				completed_tasks_count = excluded.completed_tasks_count,
				execution_percentage = excluded.execution_percentage,
				what_worked = excluded.what_worked,
				what_didnt_work = excluded.what_didnt_work,
				adjustments_needed = excluded.adjustments_needed,
				updated_at = excluded.updated_at`,
			store.NewID(), c.ID, r.WeekNumber, formatDate(start), formatDate(end), r.PlannedTasks, r.CompletedTasks,
			r.ExecutionPercentage, r.WhatWorked, r.WhatDidntWork, r.Adjustments, now, now)
		if err != nil {
			return fmt.Errorf("saving review: %w", err)
		}
		saved, err = scanReview(tx.QueryRowContext(ctx,
			`SELECT `+reviewColumns+` FROM weekly_reviews WHERE cycle_id = ? AND week_number = ?`, c.ID, r.WeekNumber))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("review saved", "cycle", r.CycleID, "week", r.WeekNumber, "execution", r.ExecutionPercentage)
	return saved, nil
}

const snapshotColumns = `id, goal_lag_indicator_id, cycle_id, week_number, value, notes, recorded_at`

func scanSnapshot(row interface{ Scan(...any) error }) (*store.LagSnapshot, error) {
	var sn store.LagSnapshot
	var recorded string
	if err := row.Scan(&sn.ID, &sn.IndicatorID, &sn.CycleID, &sn.WeekNumber, &sn.Value, &sn.Notes, &recorded); err != nil {
		return nil, err
	}
	var err error
	if sn.RecordedAt, err = parseTime(recorded); err != nil {
		return nil, err
	}
	return &sn, nil
}

func (s *Store) listSnapshots(ctx context.Context, query string, args ...any) ([]*store.LagSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*store.LagSnapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// ListSnapshots returns an indicator's snapshots in a cycle, ordered by week.
func (s *Store) ListSnapshots(ctx context.Context, indicatorID, cycleID string) ([]*store.LagSnapshot, error) {
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	return s.listSnapshots(ctx, `SELECT `+snapshotColumns+` FROM goal_lag_snapshots
		WHERE goal_lag_indicator_id = ? AND cycle_id = ? ORDER BY week_number`, indicatorID, cycleID)
}

// ListWeekSnapshots returns every snapshot recorded for one week.
func (s *Store) ListWeekSnapshots(ctx context.Context, cycleID string, w int) ([]*store.LagSnapshot, error) {
	if err := week.Check(w); err != nil {
		return nil, err
	}
	if _, err := s.getCycle(ctx, s.db, cycleID); err != nil {
		return nil, err
	}
	return s.listSnapshots(ctx, `SELECT `+snapshotColumns+` FROM goal_lag_snapshots
		WHERE cycle_id = ? AND week_number = ? ORDER BY rowid`, cycleID, w)
}

// UpsertSnapshot records an indicator value for a week, replacing any value
// already recorded for that week.
func (s *Store) UpsertSnapshot(ctx context.Context, sn *store.LagSnapshot) (*store.LagSnapshot, error) {
	if err := week.Check(sn.WeekNumber); err != nil {
		return nil, err
	}
	if math.IsNaN(sn.Value) || math.IsInf(sn.Value, 0) {
		return nil, fmt.Errorf("snapshot value %v: %w", sn.Value, week.ErrInvalidInput)
	}
	var saved *store.LagSnapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var goalCycle string
		err := tx.QueryRowContext(ctx, `
			SELECT g.cycle_id FROM goal_lag_indicators i JOIN goals g ON g.id = i.goal_id WHERE i.id = ?`,
			sn.IndicatorID).Scan(&goalCycle)
		if err != nil {
			return notFound(err, "indicator "+sn.IndicatorID)
		}
		cycleID := sn.CycleID
		if cycleID == "" {
			cycleID = goalCycle
		}
		if _, err := s.getCycle(ctx, tx, cycleID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO goal_lag_snapshots (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (goal_lag_indicator_id, cycle_id, week_number) DO UPDATE SET
				value = excluded.value,
				notes = excluded.notes,
				recorded_at = excluded.recorded_at`,
			store.NewID(), sn.IndicatorID, cycleID, sn.WeekNumber, sn.Value, sn.Notes, formatTime(s.now()))
		if err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		saved, err = scanSnapshot(tx.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM goal_lag_snapshots
			WHERE goal_lag_indicator_id = ? AND cycle_id = ? AND week_number = ?`, sn.IndicatorID, cycleID, sn.WeekNumber))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("snapshot recorded", "indicator", sn.IndicatorID, "week", sn.WeekNumber, "value", sn.Value)
	return saved, nil
}

// DeleteSnapshot removes one snapshot by id.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goal_lag_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return requireAffected(res, "snapshot "+id)
}

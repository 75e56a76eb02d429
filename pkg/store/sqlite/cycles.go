package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

const visionColumns = `id, long_term_vision, three_year_vision, is_active, created_at, updated_at`

func scanVision(row interface{ Scan(...any) error }) (*store.Vision, error) {
	var v store.Vision
	var created, updated string
	if err := row.Scan(&v.ID, &v.LongTerm, &v.ThreeYear, &v.Active, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if v.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if v.Updated, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &v, nil
}

// ActiveVision returns the current vision.
func (s *Store) ActiveVision(ctx context.Context) (*store.Vision, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+visionColumns+` FROM visions WHERE is_active = 1 ORDER BY rowid DESC LIMIT 1`)
	v, err := scanVision(row)
	if err != nil {
		return nil, notFound(err, "active vision")
	}
	return v, nil
}

// SaveVision records a new active vision and deactivates the previous ones.
func (s *Store) SaveVision(ctx context.Context, longTerm, threeYear string) (*store.Vision, error) {
	if strings.TrimSpace(longTerm) == "" && strings.TrimSpace(threeYear) == "" {
		return nil, fmt.Errorf("vision text is required: %w", week.ErrInvalidInput)
	}
	now := s.now()
	v := &store.Vision{ID: store.NewID(), LongTerm: longTerm, ThreeYear: threeYear, Active: true, Created: now, Updated: now}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE visions SET is_active = 0, updated_at = ? WHERE is_active = 1`, formatTime(now)); err != nil {
			return fmt.Errorf("deactivating visions: %w", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO visions (`+visionColumns+`) VALUES (?, ?, ?, 1, ?, ?)`,
			v.ID, v.LongTerm, v.ThreeYear, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting vision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("vision saved", "id", v.ID)
	return v, nil
}

const cycleColumns = `id, title, start_date, end_date, status, vision_id, overall_execution_score, week_13_reflection, created_at, updated_at`

func scanCycle(row interface{ Scan(...any) error }) (*store.Cycle, error) {
	var c store.Cycle
	var start, end, created, updated string
	var visionID sql.NullString
	var score sql.NullInt64
	if err := row.Scan(&c.ID, &c.Title, &start, &end, &c.Status, &visionID, &score, &c.Reflection, &created, &updated); err != nil {
		return nil, err
	}
	c.VisionID = visionID.String
	if score.Valid {
		v := int(score.Int64)
		c.ExecutionScore = &v
	}
	var err error
	if c.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if c.EndDate, err = parseDate(end); err != nil {
		return nil, err
	}
	if c.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.Updated, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) getCycle(ctx context.Context, q querier, id string) (*store.Cycle, error) {
	c, err := scanCycle(q.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "cycle "+id)
	}
	return c, nil
}

// ListCycles returns every cycle, newest start date first.
func (s *Store) ListCycles(ctx context.Context) ([]*store.Cycle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cycleColumns+` FROM cycles ORDER BY start_date DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*store.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// GetCycle loads one cycle.
func (s *Store) GetCycle(ctx context.Context, id string) (*store.Cycle, error) {
	return s.getCycle(ctx, s.db, id)
}

// ActiveCycle returns the cycle being executed.
func (s *Store) ActiveCycle(ctx context.Context) (*store.Cycle, error) {
	c, err := scanCycle(s.db.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycles WHERE status = 'active'`))
	if err != nil {
		return nil, notFound(err, "active cycle")
	}
	return c, nil
}

// CreateCycle completes any active cycle and starts a new one.
func (s *Store) CreateCycle(ctx context.Context, title string, start time.Time) (*store.Cycle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("cycle title is required: %w", week.ErrInvalidInput)
	}
	now := s.now()
	start = week.Date(start)
	c := &store.Cycle{
		ID:        store.NewID(),
		Title:     title,
		StartDate: start,
		EndDate:   week.CycleEnd(start),
		Status:    store.CycleActive,
		Created:   now,
		Updated:   now,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE cycles SET status = 'completed', updated_at = ? WHERE status = 'active'`, formatTime(now)); err != nil {
			return fmt.Errorf("completing active cycle: %w", err)
		}
		var visionID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT id FROM visions WHERE is_active = 1 ORDER BY rowid DESC LIMIT 1`).Scan(&visionID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("finding active vision: %w", err)
		}
		c.VisionID = visionID.String

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cycles (id, title, start_date, end_date, status, vision_id, week_13_reflection, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'active', ?, '', ?, ?)`,
			c.ID, c.Title, formatDate(c.StartDate), formatDate(c.EndDate), visionID, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting cycle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("cycle created", "id", c.ID, "start", formatDate(start))
	return c, nil
}

// SetCycleStatus moves a cycle forward in its lifecycle.
func (s *Store) SetCycleStatus(ctx context.Context, id string, status store.CycleStatus) (*store.Cycle, error) {
	var c *store.Cycle
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = s.getCycle(ctx, tx, id)
		if err != nil {
			return err
		}
		if c.Status == status {
			return nil
		}
		if !c.Status.CanTransition(status) {
			return fmt.Errorf("cycle %s from %s to %s: %w", id, c.Status, status, store.ErrInvalidTransition)
		}
		c.Status = status
		c.Updated = s.now()
		_, err = tx.ExecContext(ctx, `UPDATE cycles SET status = ?, updated_at = ? WHERE id = ?`, string(status), formatTime(c.Updated), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetCycleReflection stores the week-13 reflection.
func (s *Store) SetCycleReflection(ctx context.Context, id, text string) (*store.Cycle, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE cycles SET week_13_reflection = ?, updated_at = ? WHERE id = ?`, text, formatTime(s.now()), id)
	if err != nil {
		return nil, fmt.Errorf("saving reflection: %w", err)
	}
	if err := requireAffected(res, "cycle "+id); err != nil {
		return nil, err
	}
	return s.GetCycle(ctx, id)
}

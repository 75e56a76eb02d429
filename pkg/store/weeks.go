package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stefanpenner/twy/pkg/week"
)

func (s *Store) loadWeek(cycleID string, w int) (*weekDoc, error) {
	var doc weekDoc
	if _, err := readDoc(s.weekPath(cycleID, w), &doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &weekDoc{}, nil
		}
		return nil, err
	}
	for _, t := range doc.Tasks {
		t.CycleID = cycleID
		t.WeekNumber = w
	}
	for _, sn := range doc.Snapshots {
		sn.CycleID = cycleID
		sn.WeekNumber = w
	}
	if doc.Review != nil {
		doc.Review.CycleID = cycleID
		doc.Review.WeekNumber = w
	}
	return &doc, nil
}

func (s *Store) saveWeek(cycleID string, w int, doc *weekDoc) error {
	if err := writeDoc(s.weekPath(cycleID, w), doc, ""); err != nil {
		return fmt.Errorf("saving week %d of cycle %s: %w", w, cycleID, err)
	}
	return nil
}

// purgeWeeks drops tasks of the given tactics and snapshots of the given
// indicators from every week file of a cycle.
func (s *Store) purgeWeeks(cycleID string, tactics, indicators map[string]bool) error {
	for w := 1; w <= week.WeeksPerCycle; w++ {
		if _, err := os.Stat(s.weekPath(cycleID, w)); os.IsNotExist(err) {
			continue
		}
		doc, err := s.loadWeek(cycleID, w)
		if err != nil {
			return err
		}
		changed := false
		tasks := doc.Tasks[:0]
		for _, t := range doc.Tasks {
			if tactics[t.TacticID] {
				changed = true
				continue
			}
			tasks = append(tasks, t)
		}
		doc.Tasks = tasks
		snaps := doc.Snapshots[:0]
		for _, sn := range doc.Snapshots {
			if indicators[sn.IndicatorID] {
				changed = true
				continue
			}
			snaps = append(snaps, sn)
		}
		doc.Snapshots = snaps
		if changed {
			if err := s.saveWeek(cycleID, w, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

func weeksOf(w int) ([]int, error) {
	if w == 0 {
		weeks := make([]int, week.WeeksPerCycle)
		for i := range weeks {
			weeks[i] = i + 1
		}
		return weeks, nil
	}
	if err := week.Check(w); err != nil {
		return nil, err
	}
	return []int{w}, nil
}

// ListTasks returns the tasks of one week of a cycle, or all weeks when w is 0.
func (s *Store) ListTasks(ctx context.Context, cycleID string, w int) ([]*ScheduledTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	weeks, err := weeksOf(w)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	var tasks []*ScheduledTask
	for _, n := range weeks {
		doc, err := s.loadWeek(cycleID, n)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.Tasks...)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].Date.Equal(tasks[j].Date) {
			return tasks[i].Date.Before(tasks[j].Date)
		}
		return tasks[i].TacticID < tasks[j].TacticID
	})
	return tasks, nil
}

// SetTaskCompletion upserts the task for (tacticID, date). Completing sets
// completed_at once; un-completing clears it. A non-empty note replaces the
// stored one.
func (s *Store) SetTaskCompletion(ctx context.Context, tacticID string, date time.Time, completed bool, note string) (*ScheduledTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, _, err := s.findTactic(tacticID)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCycle(g.CycleID)
	if err != nil {
		return nil, err
	}
	date = week.Date(date)
	if !c.Contains(date) {
		return nil, fmt.Errorf("date %s outside cycle %s: %w", week.FormatDate(date), c.ID, week.ErrInvalidInput)
	}
	w := c.WeekOf(date)

	doc, err := s.loadWeek(c.ID, w)
	if err != nil {
		return nil, err
	}
	var task *ScheduledTask
	for _, t := range doc.Tasks {
		if t.TacticID == tacticID && week.Date(t.Date).Equal(date) {
			task = t
			break
		}
	}
	if task == nil {
		task = &ScheduledTask{ID: NewID(), TacticID: tacticID, CycleID: c.ID, WeekNumber: w, Date: date}
		doc.Tasks = append(doc.Tasks, task)
	}
	applyCompletion(task, completed, note, s.now())

	if err := s.saveWeek(c.ID, w, doc); err != nil {
		return nil, err
	}
	s.log.Debug("task updated", "tactic", tacticID, "date", week.FormatDate(date), "completed", completed)
	return task, nil
}

// applyCompletion sets the completion state of a task in place.
func applyCompletion(t *ScheduledTask, completed bool, note string, now time.Time) {
	if completed && (!t.Completed || t.CompletedAt == nil) {
		at := now
		t.CompletedAt = &at
	}
	if !completed {
		t.CompletedAt = nil
	}
	t.Completed = completed
	if note != "" {
		t.Notes = note
	}
}

// ListReviews returns a cycle's reviews ordered by week.
func (s *Store) ListReviews(ctx context.Context, cycleID string) ([]*WeeklyReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	var reviews []*WeeklyReview
	for w := 1; w <= week.WeeksPerCycle; w++ {
		doc, err := s.loadWeek(cycleID, w)
		if err != nil {
			return nil, err
		}
		if doc.Review != nil {
			reviews = append(reviews, doc.Review)
		}
	}
	return reviews, nil
}

// GetReview returns the review of one week.
func (s *Store) GetReview(ctx context.Context, cycleID string, w int) (*WeeklyReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := week.Check(w); err != nil {
		return nil, err
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	doc, err := s.loadWeek(cycleID, w)
	if err != nil {
		return nil, err
	}
	if doc.Review == nil {
		return nil, fmt.Errorf("review of week %d: %w", w, ErrNotFound)
	}
	return doc.Review, nil
}

// SaveReview upserts the review of (r.CycleID, r.WeekNumber).
func (s *Store) SaveReview(ctx context.Context, r *WeeklyReview) (*WeeklyReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := week.Check(r.WeekNumber); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.loadCycle(r.CycleID)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadWeek(c.ID, r.WeekNumber)
	if err != nil {
		return nil, err
	}

	saved := *r
	saved.WeekStart, saved.WeekEnd, _ = week.Range(c.StartDate, r.WeekNumber)
	now := s.now()
	if doc.Review != nil {
		saved.ID = doc.Review.ID
		saved.Created = doc.Review.Created
	} else {
		saved.ID = NewID()
		saved.Created = now
	}
	saved.Updated = now
	doc.Review = &saved

	if err := s.saveWeek(c.ID, r.WeekNumber, doc); err != nil {
		return nil, err
	}
	s.log.Debug("review saved", "cycle", c.ID, "week", r.WeekNumber, "execution", saved.ExecutionPercentage)
	return &saved, nil
}

// CreateIndicator adds a lag indicator to a goal.
func (s *Store) CreateIndicator(ctx context.Context, goalID string, in IndicatorInput) (*LagIndicator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	mt, _ := ParseMetricType(string(in.MetricType))
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.findGoal(goalID)
	if err != nil {
		return nil, err
	}
	ind := &LagIndicator{
		ID:           NewID(),
		GoalID:       g.ID,
		Name:         strings.TrimSpace(in.Name),
		MetricType:   mt,
		TargetValue:  in.TargetValue,
		DisplayOrder: len(g.Indicators),
	}
	g.Indicators = append(g.Indicators, ind)
	if err := s.saveGoal(g); err != nil {
		return nil, err
	}
	return ind, nil
}

// DeleteIndicator removes an indicator and its snapshots.
func (s *Store) DeleteIndicator(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, idx, err := s.findIndicator(id)
	if err != nil {
		return err
	}
	g.Indicators = append(g.Indicators[:idx], g.Indicators[idx+1:]...)
	if err := s.purgeWeeks(g.CycleID, nil, map[string]bool{id: true}); err != nil {
		return err
	}
	return s.saveGoal(g)
}

// ListSnapshots returns an indicator's snapshots in a cycle, ordered by week.
func (s *Store) ListSnapshots(ctx context.Context, indicatorID, cycleID string) ([]*LagSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	var snaps []*LagSnapshot
	for w := 1; w <= week.WeeksPerCycle; w++ {
		doc, err := s.loadWeek(cycleID, w)
		if err != nil {
			return nil, err
		}
		for _, sn := range doc.Snapshots {
			if sn.IndicatorID == indicatorID {
				snaps = append(snaps, sn)
			}
		}
	}
	return snaps, nil
}

// ListWeekSnapshots returns every snapshot recorded for one week.
func (s *Store) ListWeekSnapshots(ctx context.Context, cycleID string, w int) ([]*LagSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := week.Check(w); err != nil {
		return nil, err
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	doc, err := s.loadWeek(cycleID, w)
	if err != nil {
		return nil, err
	}
	return doc.Snapshots, nil
}

// UpsertSnapshot records an indicator value for a week, replacing any value
// already recorded for that week.
func (s *Store) UpsertSnapshot(ctx context.Context, sn *LagSnapshot) (*LagSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := week.Check(sn.WeekNumber); err != nil {
		return nil, err
	}
	if math.IsNaN(sn.Value) || math.IsInf(sn.Value, 0) {
		return nil, fmt.Errorf("snapshot value %v: %w", sn.Value, week.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, _, err := s.findIndicator(sn.IndicatorID)
	if err != nil {
		return nil, err
	}
	cycleID := sn.CycleID
	if cycleID == "" {
		cycleID = g.CycleID
	}
	if _, err := s.loadCycle(cycleID); err != nil {
		return nil, err
	}
	doc, err := s.loadWeek(cycleID, sn.WeekNumber)
	if err != nil {
		return nil, err
	}

	var saved *LagSnapshot
	for _, existing := range doc.Snapshots {
		if existing.IndicatorID == sn.IndicatorID {
			saved = existing
			break
		}
	}
	if saved == nil {
		saved = &LagSnapshot{ID: NewID(), IndicatorID: sn.IndicatorID, CycleID: cycleID, WeekNumber: sn.WeekNumber}
		doc.Snapshots = append(doc.Snapshots, saved)
	}
	saved.Value = sn.Value
	saved.Notes = sn.Notes
	saved.RecordedAt = s.now()

	if err := s.saveWeek(cycleID, sn.WeekNumber, doc); err != nil {
		return nil, err
	}
	s.log.Debug("snapshot recorded", "indicator", sn.IndicatorID, "week", sn.WeekNumber, "value", sn.Value)
	return saved, nil
}

// DeleteSnapshot removes one snapshot by id.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.CyclesDir(), "*", "weeks", "week-*.md"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		cycleID := filepath.Base(filepath.Dir(filepath.Dir(m)))
		w, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "week-"), ".md"))
		if err != nil {
			continue
		}
		doc, err := s.loadWeek(cycleID, w)
		if err != nil {
			return err
		}
		for i, sn := range doc.Snapshots {
			if sn.ID == id {
				doc.Snapshots = append(doc.Snapshots[:i], doc.Snapshots[i+1:]...)
				return s.saveWeek(cycleID, w, doc)
			}
		}
	}
	return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func (s *Store) loadGoal(cycleID, goalID string) (*Goal, error) {
	var g Goal
	body, err := readDoc(s.goalPath(cycleID, goalID), &g)
	if err != nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, err)
	}
	g.ID = goalID
	g.CycleID = cycleID
	g.Description = body
	for _, t := range g.Tactics {
		t.GoalID = goalID
	}
	for i, ind := range g.Indicators {
		ind.GoalID = goalID
		ind.DisplayOrder = i
	}
	return &g, nil
}

func (s *Store) saveGoal(g *Goal) error {
	g.Updated = s.now()
	if err := writeDoc(s.goalPath(g.CycleID, g.ID), g, g.Description); err != nil {
		return fmt.Errorf("saving goal %s: %w", g.ID, err)
	}
	return nil
}

// findGoal locates a goal by id across all cycles.
func (s *Store) findGoal(id string) (*Goal, error) {
	if !validID(id) {
		return nil, fmt.Errorf("goal %q: %w", id, ErrNotFound)
	}
	matches, err := filepath.Glob(filepath.Join(s.CyclesDir(), "*", "goals", id+".md"))
	if err != nil {
		return nil, fmt.Errorf("finding goal %s: %w", id, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	cycleID := filepath.Base(filepath.Dir(filepath.Dir(matches[0])))
	return s.loadGoal(cycleID, id)
}

// allGoals loads every goal of every cycle.
func (s *Store) allGoals() ([]*Goal, error) {
	matches, err := filepath.Glob(filepath.Join(s.CyclesDir(), "*", "goals", "*.md"))
	if err != nil {
		return nil, err
	}
	var goals []*Goal
	for _, m := range matches {
		cycleID := filepath.Base(filepath.Dir(filepath.Dir(m)))
		g, err := s.loadGoal(cycleID, strings.TrimSuffix(filepath.Base(m), ".md"))
		if err != nil {
			continue
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *Store) findTactic(id string) (*Goal, int, error) {
	goals, err := s.allGoals()
	if err != nil {
		return nil, 0, err
	}
	for _, g := range goals {
		for i, t := range g.Tactics {
			if t.ID == id {
				return g, i, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("tactic %s: %w", id, ErrNotFound)
}

func (s *Store) findIndicator(id string) (*Goal, int, error) {
	goals, err := s.allGoals()
	if err != nil {
		return nil, 0, err
	}
	for _, g := range goals {
		for i, ind := range g.Indicators {
			if ind.ID == id {
				return g, i, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("indicator %s: %w", id, ErrNotFound)
}

// orderedGoals loads a cycle's goals, honouring goals_order and falling back
// to creation time for goals not listed there.
func (s *Store) orderedGoals(c *Cycle) ([]*Goal, error) {
	entries, err := os.ReadDir(s.goalsDir(c.ID))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading goals of cycle %s: %w", c.ID, err)
	}

	goalMap := make(map[string]*Goal)
	var rest []*Goal
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		g, err := s.loadGoal(c.ID, strings.TrimSuffix(e.Name(), ".md"))
		if err != nil {
			s.log.Warn("skipping unreadable goal", "file", e.Name(), "error", err)
			continue
		}
		goalMap[g.ID] = g
		rest = append(rest, g)
	}

	var goals []*Goal
	seen := make(map[string]bool)
	for _, id := range c.GoalsOrder {
		if g, ok := goalMap[id]; ok && !seen[id] {
			goals = append(goals, g)
			seen[id] = true
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Created.Before(rest[j].Created) })
	for _, g := range rest {
		if !seen[g.ID] {
			goals = append(goals, g)
		}
	}
	for i, g := range goals {
		g.DisplayOrder = i
	}
	return goals, nil
}

// ListGoals returns a cycle's goals in display order with tactics and
// indicators populated.
func (s *Store) ListGoals(ctx context.Context, cycleID string) ([]*Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.loadCycle(cycleID)
	if err != nil {
		return nil, err
	}
	return s.orderedGoals(c)
}

// GetGoal loads one goal.
func (s *Store) GetGoal(ctx context.Context, id string) (*Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := s.findGoal(id)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCycle(g.CycleID)
	if err != nil {
		return nil, err
	}
	for i, gid := range c.GoalsOrder {
		if gid == id {
			g.DisplayOrder = i
		}
	}
	return g, nil
}

// CreateGoal adds a goal to a cycle, up to MaxGoalsPerCycle.
func (s *Store) CreateGoal(ctx context.Context, cycleID string, in GoalInput) (*Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.loadCycle(cycleID)
	if err != nil {
		return nil, err
	}
	existing, err := s.orderedGoals(c)
	if err != nil {
		return nil, err
	}
	if len(existing) >= MaxGoalsPerCycle {
		return nil, fmt.Errorf("cycle %s has %d goals: %w", cycleID, len(existing), ErrGoalLimit)
	}

	now := s.now()
	g := &Goal{
		ID:           NewID(),
		CycleID:      cycleID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		WhyItMatters: in.WhyItMatters,
		TargetMetric: in.TargetMetric,
		DisplayOrder: len(existing),
		Created:      now,
	}
	if err := s.saveGoal(g); err != nil {
		return nil, err
	}

	order := make([]string, 0, len(existing)+1)
	for _, e := range existing {
		order = append(order, e.ID)
	}
	c.GoalsOrder = append(order, g.ID)
	if err := s.saveCycle(c); err != nil {
		return nil, err
	}
	s.log.Debug("goal created", "id", g.ID, "cycle", cycleID)
	return g, nil
}

// UpdateGoal replaces a goal's editable fields.
func (s *Store) UpdateGoal(ctx context.Context, id string, in GoalInput) (*Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.findGoal(id)
	if err != nil {
		return nil, err
	}
	g.Title = strings.TrimSpace(in.Title)
	g.Description = in.Description
	g.WhyItMatters = in.WhyItMatters
	g.TargetMetric = in.TargetMetric
	if err := s.saveGoal(g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGoal removes a goal with its tactics, tasks, indicators and snapshots.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.findGoal(id)
	if err != nil {
		return err
	}
	tactics := make(map[string]bool)
	for _, t := range g.Tactics {
		tactics[t.ID] = true
	}
	indicators := make(map[string]bool)
	for _, ind := range g.Indicators {
		indicators[ind.ID] = true
	}
	if err := s.purgeWeeks(g.CycleID, tactics, indicators); err != nil {
		return err
	}
	if err := os.Remove(s.goalPath(g.CycleID, id)); err != nil {
		return fmt.Errorf("removing goal %s: %w", id, err)
	}

	c, err := s.loadCycle(g.CycleID)
	if err != nil {
		return err
	}
	c.GoalsOrder = removeString(c.GoalsOrder, id)
	if err := s.saveCycle(c); err != nil {
		return err
	}
	s.log.Debug("goal deleted", "id", id)
	return nil
}

// ReorderGoal swaps a goal with a sibling in the given direction (delta: -1
// for up, +1 for down). Moving past either end is a no-op.
func (s *Store) ReorderGoal(ctx context.Context, id string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.findGoal(id)
	if err != nil {
		return err
	}
	c, err := s.loadCycle(g.CycleID)
	if err != nil {
		return err
	}
	goals, err := s.orderedGoals(c)
	if err != nil {
		return err
	}
	siblings := make([]string, len(goals))
	idx := -1
	for i, sib := range goals {
		siblings[i] = sib.ID
		if sib.ID == id {
			idx = i
		}
	}
	if idx == -1 {
		return fmt.Errorf("goal %s not found among siblings: %w", id, ErrNotFound)
	}

	newIdx := idx + delta
	if newIdx < 0 || newIdx >= len(siblings) {
		return nil // at boundary, nothing to do
	}
	siblings[idx], siblings[newIdx] = siblings[newIdx], siblings[idx]
	c.GoalsOrder = siblings
	return s.saveCycle(c)
}

func removeString(list []string, s string) []string {
	var out []string
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// --- tactics ---

// CreateTactic validates and appends a tactic to a goal.
func (s *Store) CreateTactic(ctx context.Context, goalID string, in TacticInput) (*Tactic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := in.Tactic()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.findGoal(goalID)
	if err != nil {
		return nil, err
	}
	t.ID = NewID()
	t.GoalID = g.ID
	t.Created = s.now()
	g.Tactics = append(g.Tactics, t)
	if err := s.saveGoal(g); err != nil {
		return nil, err
	}
	s.log.Debug("tactic created", "id", t.ID, "goal", g.ID, "type", t.Type)
	return t, nil
}

// DeleteTactic removes a tactic and its scheduled tasks.
func (s *Store) DeleteTactic(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g, idx, err := s.findTactic(id)
	if err != nil {
		return err
	}
	g.Tactics = append(g.Tactics[:idx], g.Tactics[idx+1:]...)
	if err := s.purgeWeeks(g.CycleID, map[string]bool{id: true}, nil); err != nil {
		return err
	}
	return s.saveGoal(g)
}

package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/stefanpenner/twy/pkg/week"
)

// MaxGoalsPerCycle caps how many goals one cycle may carry.
const MaxGoalsPerCycle = 4

// CycleStatus is the lifecycle state of a cycle.
type CycleStatus string

const (
	CycleActive    CycleStatus = "active"
	CycleCompleted CycleStatus = "completed"
	CycleArchived  CycleStatus = "archived"
)

// CanTransition reports whether a cycle may move from s to next.
// Transitions only go forward: active -> completed -> archived, or active -> archived.
func (s CycleStatus) CanTransition(next CycleStatus) bool {
	switch s {
	case CycleActive:
		return next == CycleCompleted || next == CycleArchived
	case CycleCompleted:
		return next == CycleArchived
	default:
		return false
	}
}

// ParseCycleStatus validates a status name.
func ParseCycleStatus(s string) (CycleStatus, error) {
	switch st := CycleStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case CycleActive, CycleCompleted, CycleArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown cycle status %q: %w", s, week.ErrInvalidInput)
}

// TacticType distinguishes repeating tactics from single actions.
type TacticType string

const (
	TacticOneTime   TacticType = "one_time"
	TacticRecurring TacticType = "recurring"
)

// Priority ranks tactics within a goal.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Vision is the long-range statement cycles are planned against.
type Vision struct {
	ID        string    `yaml:"id" json:"id"`
	LongTerm  string    `yaml:"-" json:"long_term_vision"` // markdown body
	ThreeYear string    `yaml:"three_year_vision,omitempty" json:"three_year_vision,omitempty"`
	Active    bool      `yaml:"is_active" json:"is_active"`
	Created   time.Time `yaml:"created" json:"created_at"`
	Updated   time.Time `yaml:"updated" json:"updated_at"`
}

// Cycle is one twelve-week execution period.
type Cycle struct {
	ID             string      `yaml:"id" json:"id"`
	Title          string      `yaml:"title" json:"title"`
	StartDate      time.Time   `yaml:"start_date" json:"start_date"`
	EndDate        time.Time   `yaml:"end_date" json:"end_date"`
	Status         CycleStatus `yaml:"status" json:"status"`
	VisionID       string      `yaml:"vision_id,omitempty" json:"vision_id,omitempty"`
	ExecutionScore *int        `yaml:"overall_execution_score,omitempty" json:"overall_execution_score,omitempty"`
	GoalsOrder     []string    `yaml:"goals_order,omitempty" json:"-"`
	Created        time.Time   `yaml:"created" json:"created_at"`
	Updated        time.Time   `yaml:"updated" json:"updated_at"`

	// Week-13 reflection, stored as the markdown body.
	Reflection string `yaml:"-" json:"week_13_reflection,omitempty"`
}

// WeekOf returns the week of the cycle containing t, clamped to 1..12.
func (c *Cycle) WeekOf(t time.Time) int {
	return week.Number(c.StartDate, t)
}

// Contains reports whether t falls inside one of the cycle's twelve weeks.
func (c *Cycle) Contains(t time.Time) bool {
	_, last, _ := week.Range(c.StartDate, week.WeeksPerCycle)
	return week.InCycle(t, c.StartDate, last)
}

// IsActive returns true for the cycle currently being executed.
func (c *Cycle) IsActive() bool {
	return c.Status == CycleActive
}

// Goal is one of the objectives of a cycle.
type Goal struct {
	ID           string          `yaml:"id" json:"id"`
	CycleID      string          `yaml:"cycle_id" json:"cycle_id"`
	Title        string          `yaml:"title" json:"title"`
	WhyItMatters string          `yaml:"why_it_matters,omitempty" json:"why_it_matters,omitempty"`
	TargetMetric string          `yaml:"target_metric,omitempty" json:"target_metric,omitempty"`
	DisplayOrder int             `yaml:"-" json:"display_order"`
	Tactics      []*Tactic       `yaml:"tactics,omitempty" json:"tactics"`
	Indicators   []*LagIndicator `yaml:"indicators,omitempty" json:"indicators"`
	Created      time.Time       `yaml:"created" json:"created_at"`
	Updated      time.Time       `yaml:"updated" json:"updated_at"`

	Description string `yaml:"-" json:"description,omitempty"`
}

// Tactic is a concrete action supporting a goal.
type Tactic struct {
	ID               string     `yaml:"id" json:"id"`
	GoalID           string     `yaml:"-" json:"goal_id"`
	Title            string     `yaml:"title" json:"title"`
	Description      string     `yaml:"description,omitempty" json:"description,omitempty"`
	Type             TacticType `yaml:"tactic_type" json:"tactic_type"`
	StartWeek        int        `yaml:"start_week" json:"start_week"`
	EndWeek          int        `yaml:"end_week" json:"end_week"`
	WeeklyFrequency  int        `yaml:"weekly_frequency,omitempty" json:"weekly_frequency,omitempty"`
	Priority         Priority   `yaml:"priority,omitempty" json:"priority,omitempty"`
	EstimatedMinutes int        `yaml:"estimated_duration,omitempty" json:"estimated_duration,omitempty"`
	Notes            string     `yaml:"notes,omitempty" json:"notes,omitempty"`
	Created          time.Time  `yaml:"created" json:"created_at"`
}

// IsOneTime returns true for single-action tactics.
func (t *Tactic) IsOneTime() bool {
	return t.Type == TacticOneTime
}

// ScheduledTask is one dated occurrence of a tactic.
type ScheduledTask struct {
	ID          string     `yaml:"id" json:"id"`
	TacticID    string     `yaml:"tactic_id" json:"tactic_id"`
	CycleID     string     `yaml:"-" json:"cycle_id"`
	WeekNumber  int        `yaml:"-" json:"week_number"`
	Date        time.Time  `yaml:"scheduled_date" json:"scheduled_date"`
	Completed   bool       `yaml:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	Notes       string     `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// WeeklyReview is the end-of-week retrospective.
type WeeklyReview struct {
	ID                  string    `yaml:"id" json:"id"`
	CycleID             string    `yaml:"-" json:"cycle_id"`
	WeekNumber          int       `yaml:"-" json:"week_number"`
	WeekStart           time.Time `yaml:"week_start_date" json:"week_start_date"`
	WeekEnd             time.Time `yaml:"week_end_date" json:"week_end_date"`
	PlannedTasks        int       `yaml:"planned_tasks_count" json:"planned_tasks_count"`
	CompletedTasks      int       `yaml:"completed_tasks_count" json:"completed_tasks_count"`
	ExecutionPercentage int       `yaml:"execution_percentage" json:"execution_percentage"`
	WhatWorked          string    `yaml:"what_worked,omitempty" json:"what_worked,omitempty"`
	WhatDidntWork       string    `yaml:"what_didnt_work,omitempty" json:"what_didnt_work,omitempty"`
	Adjustments         string    `yaml:"adjustments_needed,omitempty" json:"adjustments_needed,omitempty"`
	Created             time.Time `yaml:"created" json:"created_at"`
	Updated             time.Time `yaml:"updated" json:"updated_at"`
}

// LagIndicator is an outcome metric tracked for a goal.
type LagIndicator struct {
	ID           string     `yaml:"id" json:"id"`
	GoalID       string     `yaml:"-" json:"goal_id"`
	Name         string     `yaml:"name" json:"name"`
	MetricType   MetricType `yaml:"metric_type" json:"metric_type"`
	TargetValue  *float64   `yaml:"target_value,omitempty" json:"target_value,omitempty"`
	DisplayOrder int        `yaml:"-" json:"display_order"`
}

// LagSnapshot is the value of an indicator recorded for one week.
type LagSnapshot struct {
	ID          string    `yaml:"id" json:"id"`
	IndicatorID string    `yaml:"indicator_id" json:"goal_lag_indicator_id"`
	CycleID     string    `yaml:"-" json:"cycle_id"`
	WeekNumber  int       `yaml:"-" json:"week_number"`
	Value       float64   `yaml:"value" json:"value"`
	Notes       string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt  time.Time `yaml:"recorded_at" json:"recorded_at"`
}

// GoalInput carries the editable fields of a goal.
type GoalInput struct {
	Title        string
	Description  string
	WhyItMatters string
	TargetMetric string
}

// Validate checks the required fields.
func (in GoalInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("goal title is required: %w", week.ErrInvalidInput)
	}
	return nil
}

// TacticInput carries the fields of a new tactic.
type TacticInput struct {
	Title            string
	Description      string
	Type             TacticType
	StartWeek        int
	EndWeek          int
	WeeklyFrequency  int
	Priority         Priority
	EstimatedMinutes int
	Notes            string
}

// Tactic validates the input and fills defaults. One-time tactics occupy a
// single week; recurring tactics without a range span the whole cycle.
func (in TacticInput) Tactic() (*Tactic, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("tactic title is required: %w", week.ErrInvalidInput)
	}
	t := &Tactic{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Type:             in.Type,
		StartWeek:        in.StartWeek,
		EndWeek:          in.EndWeek,
		WeeklyFrequency:  in.WeeklyFrequency,
		Priority:         in.Priority,
		EstimatedMinutes: in.EstimatedMinutes,
		Notes:            in.Notes,
	}
	if t.Type == "" {
		t.Type = TacticRecurring
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.StartWeek == 0 {
		t.StartWeek = 1
	}

	switch t.Type {
	case TacticOneTime:
		t.EndWeek = t.StartWeek
		t.WeeklyFrequency = 0
	case TacticRecurring:
		if t.EndWeek == 0 {
			t.EndWeek = week.WeeksPerCycle
		}
		if t.WeeklyFrequency < 0 || t.WeeklyFrequency > 7 {
			return nil, fmt.Errorf("weekly frequency %d outside 1-7: %w", t.WeeklyFrequency, week.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("unknown tactic type %q: %w", t.Type, week.ErrInvalidInput)
	}

	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return nil, fmt.Errorf("unknown priority %q: %w", t.Priority, week.ErrInvalidInput)
	}
	if err := week.Check(t.StartWeek); err != nil {
		return nil, fmt.Errorf("start week: %w", err)
	}
	if err := week.Check(t.EndWeek); err != nil {
		return nil, fmt.Errorf("end week: %w", err)
	}
	if t.StartWeek > t.EndWeek {
		return nil, fmt.Errorf("start week %d after end week %d: %w", t.StartWeek, t.EndWeek, week.ErrInvalidInput)
	}
	if t.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("negative duration: %w", week.ErrInvalidInput)
	}
	return t, nil
}

// IndicatorInput carries the fields of a new lag indicator.
type IndicatorInput struct {
	Name        string
	MetricType  MetricType
	TargetValue *float64
}

// Validate checks the name and metric type.
func (in IndicatorInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("indicator name is required: %w", week.ErrInvalidInput)
	}
	if _, err := ParseMetricType(string(in.MetricType)); err != nil {
		return err
	}
	return nil
}

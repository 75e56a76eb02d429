package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stefanpenner/twy/pkg/week"
)

var (
	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = week.ErrInvalidInput
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGoalLimit is returned when a cycle already holds MaxGoalsPerCycle goals.
	ErrGoalLimit = errors.New("goal limit reached")
	// ErrInvalidTransition is returned for a backwards cycle status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository persists visions, cycles and everything that hangs off them.
// Both the file store and the SQLite store implement it.
type Repository interface {
	ActiveVision(ctx context.Context) (*Vision, error)
	SaveVision(ctx context.Context, longTerm, threeYear string) (*Vision, error)

	ListCycles(ctx context.Context) ([]*Cycle, error)
	GetCycle(ctx context.Context, id string) (*Cycle, error)
	ActiveCycle(ctx context.Context) (*Cycle, error)
	CreateCycle(ctx context.Context, title string, start time.Time) (*Cycle, error)
	SetCycleStatus(ctx context.Context, id string, status CycleStatus) (*Cycle, error)
	SetCycleReflection(ctx context.Context, id, text string) (*Cycle, error)

	ListGoals(ctx context.Context, cycleID string) ([]*Goal, error)
	GetGoal(ctx context.Context, id string) (*Goal, error)
	CreateGoal(ctx context.Context, cycleID string, in GoalInput) (*Goal, error)
	UpdateGoal(ctx context.Context, id string, in GoalInput) (*Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	ReorderGoal(ctx context.Context, id string, delta int) error

	CreateTactic(ctx context.Context, goalID string, in TacticInput) (*Tactic, error)
	DeleteTactic(ctx context.Context, id string) error

	// ListTasks returns the cycle's tasks for one week, or all weeks when week is 0.
	ListTasks(ctx context.Context, cycleID string, week int) ([]*ScheduledTask, error)
	// SetTaskCompletion creates or updates the task for (tacticID, date).
	// Repeating a call with the same arguments leaves the same state.
	SetTaskCompletion(ctx context.Context, tacticID string, date time.Time, completed bool, note string) (*ScheduledTask, error)

	ListReviews(ctx context.Context, cycleID string) ([]*WeeklyReview, error)
	GetReview(ctx context.Context, cycleID string, week int) (*WeeklyReview, error)
	// SaveReview upserts on (cycle, week) and fills in the week's dates.
	SaveReview(ctx context.Context, r *WeeklyReview) (*WeeklyReview, error)

	CreateIndicator(ctx context.Context, goalID string, in IndicatorInput) (*LagIndicator, error)
	DeleteIndicator(ctx context.Context, id string) error
	ListSnapshots(ctx context.Context, indicatorID, cycleID string) ([]*LagSnapshot, error)
	ListWeekSnapshots(ctx context.Context, cycleID string, week int) ([]*LagSnapshot, error)
	// UpsertSnapshot keeps at most one snapshot per (indicator, cycle, week).
	UpsertSnapshot(ctx context.Context, s *LagSnapshot) (*LagSnapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	Close() error
}

// NewID returns a short random identifier.
func NewID() string {
	return uuid.NewString()[:8]
}

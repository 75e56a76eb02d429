package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stefanpenner/twy/pkg/logging"
	"github.com/stefanpenner/twy/pkg/week"
)

// Store manages the filesystem-backed cycle data: one markdown file with YAML
// frontmatter per vision, cycle, goal and week.
type Store struct {
	Root string // e.g., ~/.local/share/twy

	log *logging.Logger
	now func() time.Time
	mu  sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store events to l.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// weekDoc is the frontmatter of cycles/<id>/weeks/week-NN.md.
type weekDoc struct {
	Tasks     []*ScheduledTask `yaml:"tasks,omitempty"`
	Snapshots []*LagSnapshot   `yaml:"snapshots,omitempty"`
	Review    *WeeklyReview    `yaml:"review,omitempty"`
}

var _ Repository = (*Store)(nil)

// NewStore creates a Store rooted at the given directory.
// It creates the directory structure if it doesn't exist.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{Root: root, log: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{s.CyclesDir(), s.VisionsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Base(dir), err)
		}
	}
	return s, nil
}

// CyclesDir returns the path to the cycles directory.
func (s *Store) CyclesDir() string {
	return filepath.Join(s.Root, "cycles")
}

// VisionsDir returns the path to the visions directory.
func (s *Store) VisionsDir() string {
	return filepath.Join(s.Root, "visions")
}

func (s *Store) cyclePath(id string) string {
	return filepath.Join(s.CyclesDir(), id, "cycle.md")
}

func (s *Store) goalsDir(cycleID string) string {
	return filepath.Join(s.CyclesDir(), cycleID, "goals")
}

func (s *Store) goalPath(cycleID, goalID string) string {
	return filepath.Join(s.goalsDir(cycleID), goalID+".md")
}

func (s *Store) weeksDir(cycleID string) string {
	return filepath.Join(s.CyclesDir(), cycleID, "weeks")
}

func (s *Store) weekPath(cycleID string, w int) string {
	return filepath.Join(s.weeksDir(cycleID), fmt.Sprintf("week-%02d.md", w))
}

// Close is a no-op; the file store holds no handles.
func (s *Store) Close() error { return nil }

func readDoc(path string, meta any) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	body, err := ParseFrontmatter(string(data), meta)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return body, nil
}

func writeDoc(path string, meta any, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	content, err := SerializeFrontmatter(meta, body)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// validID rejects ids that would escape their directory or act as globs.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\*?[].`)
}

// --- visions ---

func (s *Store) loadVisions() ([]*Vision, error) {
	entries, err := os.ReadDir(s.VisionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading visions directory: %w", err)
	}
	var visions []*Vision
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		var v Vision
		body, err := readDoc(filepath.Join(s.VisionsDir(), e.Name()), &v)
		if err != nil {
			s.log.Warn("skipping unreadable vision", "file", e.Name(), "error", err)
			continue
		}
		v.LongTerm = body
		visions = append(visions, &v)
	}
	return visions, nil
}

// ActiveVision returns the current vision.
func (s *Store) ActiveVision(ctx context.Context) (*Vision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	visions, err := s.loadVisions()
	if err != nil {
		return nil, err
	}
	var active *Vision
	for _, v := range visions {
		if v.Active && (active == nil || v.Updated.After(active.Updated)) {
			active = v
		}
	}
	if active == nil {
		return nil, fmt.Errorf("active vision: %w", ErrNotFound)
	}
	return active, nil
}

// SaveVision records a new active vision and deactivates the previous ones.
func (s *Store) SaveVision(ctx context.Context, longTerm, threeYear string) (*Vision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(longTerm) == "" && strings.TrimSpace(threeYear) == "" {
		return nil, fmt.Errorf("vision text is required: %w", week.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	visions, err := s.loadVisions()
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, v := range visions {
		if !v.Active {
			continue
		}
		v.Active = false
		v.Updated = now
		if err := writeDoc(filepath.Join(s.VisionsDir(), v.ID+".md"), v, v.LongTerm); err != nil {
			return nil, fmt.Errorf("deactivating vision %s: %w", v.ID, err)
		}
	}

	v := &Vision{ID: NewID(), LongTerm: longTerm, ThreeYear: threeYear, Active: true, Created: now, Updated: now}
	if err := writeDoc(filepath.Join(s.VisionsDir(), v.ID+".md"), v, v.LongTerm); err != nil {
		return nil, fmt.Errorf("saving vision: %w", err)
	}
	s.log.Debug("vision saved", "id", v.ID)
	return v, nil
}

// --- cycles ---

func (s *Store) loadCycle(id string) (*Cycle, error) {
	if !validID(id) {
		return nil, fmt.Errorf("cycle %q: %w", id, ErrNotFound)
	}
	var c Cycle
	body, err := readDoc(s.cyclePath(id), &c)
	if err != nil {
		return nil, fmt.Errorf("cycle %s: %w", id, err)
	}
	c.ID = id
	c.Reflection = body
	return &c, nil
}

func (s *Store) saveCycle(c *Cycle) error {
	c.Updated = s.now()
	if err := writeDoc(s.cyclePath(c.ID), c, c.Reflection); err != nil {
		return fmt.Errorf("saving cycle %s: %w", c.ID, err)
	}
	return nil
}

// ListCycles returns every cycle, newest start date first.
func (s *Store) ListCycles(ctx context.Context) ([]*Cycle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.CyclesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cycles directory: %w", err)
	}
	var cycles []*Cycle
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		c, err := s.loadCycle(e.Name())
		if err != nil {
			continue // skip broken cycles
		}
		cycles = append(cycles, c)
	}
	sort.SliceStable(cycles, func(i, j int) bool {
		if !cycles[i].StartDate.Equal(cycles[j].StartDate) {
			return cycles[i].StartDate.After(cycles[j].StartDate)
		}
		return cycles[i].Created.After(cycles[j].Created)
	})
	return cycles, nil
}

// GetCycle loads one cycle.
func (s *Store) GetCycle(ctx context.Context, id string) (*Cycle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loadCycle(id)
}

// ActiveCycle returns the cycle being executed.
func (s *Store) ActiveCycle(ctx context.Context) (*Cycle, error) {
	cycles, err := s.ListCycles(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cycles {
		if c.IsActive() {
			return c, nil
		}
	}
	return nil, fmt.Errorf("active cycle: %w", ErrNotFound)
}

// CreateCycle starts a new twelve-week cycle. Any active cycle is completed
// first so that only one cycle is active.
func (s *Store) CreateCycle(ctx context.Context, title string, start time.Time) (*Cycle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("cycle title is required: %w", week.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cycles, err := s.ListCycles(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cycles {
		if !c.IsActive() {
			continue
		}
		c.Status = CycleCompleted
		if err := s.saveCycle(c); err != nil {
			return nil, err
		}
		s.log.Info("cycle completed", "id", c.ID, "reason", "superseded")
	}

	now := s.now()
	start = week.Date(start)
	c := &Cycle{
		ID:        NewID(),
		Title:     title,
		StartDate: start,
		EndDate:   week.CycleEnd(start),
		Status:    CycleActive,
		Created:   now,
	}
	if v, err := s.ActiveVision(ctx); err == nil {
		c.VisionID = v.ID
	}
	if err := s.saveCycle(c); err != nil {
		return nil, err
	}
	// Goal and week files may be written by hand into a fresh cycle.
	for _, dir := range []string{s.goalsDir(c.ID), s.weeksDir(c.ID)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Base(dir), err)
		}
	}
	s.log.Info("cycle created", "id", c.ID, "start", week.FormatDate(start))
	return c, nil
}

// SetCycleStatus moves a cycle forward in its lifecycle.
func (s *Store) SetCycleStatus(ctx context.Context, id string, status CycleStatus) (*Cycle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.loadCycle(id)
	if err != nil {
		return nil, err
	}
	if c.Status == status {
		return c, nil
	}
	if !c.Status.CanTransition(status) {
		return nil, fmt.Errorf("cycle %s from %s to %s: %w", id, c.Status, status, ErrInvalidTransition)
	}
	c.Status = status
	if err := s.saveCycle(c); err != nil {
		return nil, err
	}
	s.log.Info("cycle status changed", "id", id, "status", status)
	return c, nil
}

// SetCycleReflection stores the week-13 reflection.
func (s *Store) SetCycleReflection(ctx context.Context, id, text string) (*Cycle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.loadCycle(id)
	if err != nil {
		return nil, err
	}
	c.Reflection = text
	if err := s.saveCycle(c); err != nil {
		return nil, err
	}
	return c, nil
}

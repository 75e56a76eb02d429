package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stefanpenner/twy/pkg/config"
	"github.com/stefanpenner/twy/pkg/logging"
	"github.com/stefanpenner/twy/pkg/store"
	gsync "github.com/stefanpenner/twy/pkg/sync"
	"github.com/stefanpenner/twy/pkg/tui"
	"github.com/stefanpenner/twy/pkg/week"
)

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configFile string

	cfg  *config.Config
	log  *logging.Logger
	repo store.Repository
	out  io.Writer
	now  func() time.Time
}

// newRootCmd builds the command tree. The caller owns teardown of the
// returned app once Execute returns, whether or not it failed.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: config.New(), now: time.Now}

	root := &cobra.Command{
		Use:   "twy",
		Short: "twy - a 12 Week Year execution tracker",
		Long: `Plan a twelve-week cycle around a few goals, break them into weekly tactics,
check off what you did each day and review your execution score every week.

Run without a command to open the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("dir", "", "Data directory (default: OS data dir, or $TWY_DIR)")
	flags.String("backend", "", "Storage backend: files or sqlite")
	flags.StringVar(&a.configFile, "config", "", "Config file (default: <dir>/config.yaml)")
	flags.Bool("json", false, "Output in JSON format")
	for _, name := range []string{"dir", "backend", "json"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newVisionCmd(a),
		newCycleCmd(a),
		newGoalCmd(a),
		newTacticCmd(a),
		newCheckCmd(a, true),
		newCheckCmd(a, false),
		newWeekCmd(a),
		newTodayCmd(a),
		newReviewCmd(a),
		newIndicatorCmd(a),
		newProgressCmd(a),
		newInitCmd(a),
		newSyncCmd(a),
	)
	return root, a
}

// setup resolves configuration, then opens the logger and the repository.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	a.log = log.With("cmd", cmd.Name())

	repo, err := cfg.OpenRepository(a.log)
	if err != nil {
		return fmt.Errorf("opening %s store in %s: %w", cfg.Backend, cfg.Dir, err)
	}
	a.repo = repo
	a.log.Debug("store opened", "backend", cfg.Backend, "dir", cfg.Dir)
	return nil
}

func (a *app) teardown() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("closing store", "error", err)
		}
		a.repo = nil
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func (a *app) git() *gsync.Git {
	return gsync.New(a.cfg.Dir, a.out, a.log)
}

func (a *app) runTUI(ctx context.Context) error {
	m := tui.NewModel(ctx, a.repo, tui.Options{
		Currency: a.cfg.Currency,
		Target:   a.cfg.ExecutionTarget,
		Git:      gsync.New(a.cfg.Dir, io.Discard, a.log),
		Log:      a.log,
		Now:      a.now,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	cleanup, err := tui.StartWatcher(a.cfg.Dir, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file watcher failed: %v\n", err)
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}

// today is the current calendar date.
func (a *app) today() time.Time {
	return week.Date(a.now())
}

// activeCycle returns the active cycle with a hint when there is none.
func (a *app) activeCycle(ctx context.Context) (*store.Cycle, error) {
	c, err := a.repo.ActiveCycle(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no active cycle, start one with 'twy cycle new <title>': %w", err)
	}
	return c, err
}

// currentWeek is the week of the active cycle containing today.
func (a *app) currentWeek(c *store.Cycle) int {
	return c.WeekOf(a.today())
}

// dateFlag parses an optional --date value, defaulting to today.
func (a *app) dateFlag(s string) (time.Time, error) {
	if s == "" {
		return a.today(), nil
	}
	return week.ParseDate(s)
}

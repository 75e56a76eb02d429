package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

// scorecard builds the scorecard of week w of cycle c.
func (a *app) scorecard(ctx context.Context, c *store.Cycle, w int) (*score.Scorecard, error) {
	goals, err := a.repo.ListGoals(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := a.repo.ListTasks(ctx, c.ID, w)
	if err != nil {
		return nil, err
	}
	return score.BuildScorecard(c.StartDate, w, goals, tasks)
}

// weekArg parses an optional week argument, defaulting to the current week.
func (a *app) weekArg(c *store.Cycle, args []string) (int, error) {
	if len(args) == 0 {
		return a.currentWeek(c), nil
	}
	w, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("week %q: %w", args[0], week.ErrInvalidInput)
	}
	return w, week.Check(w)
}

func newCheckCmd(a *app, completed bool) *cobra.Command {
	use, short := "check", "Mark a tactic done for a day"
	if !completed {
		use, short = "uncheck", "Clear a tactic's completion for a day"
	}
	var date, note string
	var force bool
	cmd := &cobra.Command{
		Use:   use + " <tactic-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			if completed && !force {
				if err := a.checkNotLocked(ctx, args[0], d); err != nil {
					return err
				}
			}
			t, err := a.repo.SetTaskCompletion(ctx, args[0], d, completed, note)
			if err != nil {
				return err
			}
			return a.emit(t, func() {
				a.printf("%s %s on %s (week %d)\n", checkMark(t.Completed), t.TacticID, week.FormatDate(t.Date), t.WeekNumber)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default: today)")
	if completed {
		cmd.Flags().StringVar(&note, "note", "", "Note for this occurrence")
		cmd.Flags().BoolVar(&force, "force", false, "Check even when the weekly target is already met")
	}
	return cmd
}

// checkNotLocked refuses to check a cell whose tactic already met its
// weekly target. Tactics outside the active cycle are left to the store.
func (a *app) checkNotLocked(ctx context.Context, tacticID string, d time.Time) error {
	c, err := a.repo.ActiveCycle(ctx)
	if err != nil || !c.Contains(d) {
		return nil
	}
	sc, err := a.scorecard(ctx, c, c.WeekOf(d))
	if err != nil {
		return err
	}
	if cell, ok := sc.Cell(tacticID, d); ok && cell.Locked {
		return fmt.Errorf("weekly target for %s already met, use --force to check anyway", tacticID)
	}
	return nil
}

func newWeekCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "week [N]",
		Short: "Show the scorecard of a week (default: current)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			w, err := a.weekArg(c, args)
			if err != nil {
				return err
			}
			sc, err := a.scorecard(ctx, c, w)
			if err != nil {
				return err
			}
			return a.emit(sc, func() { a.printScorecard(sc) })
		},
	}
}

const nameWidth = 30

func padName(s string) string {
	r := []rune(s)
	if len(r) > nameWidth-1 {
		r = append(r[:nameWidth-2], '…')
	}
	return string(r) + strings.Repeat(" ", nameWidth-len(r))
}

func (a *app) printScorecard(sc *score.Scorecard) {
	a.printf("%s  %s to %s\n\n", bold(fmt.Sprintf("Week %d of %d", sc.Week, week.WeeksPerCycle)),
		week.FormatDate(sc.Start), week.FormatDate(sc.End))

	header := padName("")
	for _, d := range sc.Days {
		header += d.Date.Format("Mon") + " "
	}
	a.println(faint(header + "  done"))

	for _, section := range sc.Goals {
		a.println(bold(section.Goal.Title))
		if len(section.Rows) == 0 {
			a.println(faint("  no tactics this week"))
		}
		for _, row := range section.Rows {
			line := padName("  " + row.Tactic.Title)
			for _, cell := range row.Days {
				switch {
				case cell.Checked:
					line += " " + green("✓") + "  "
				case cell.Locked:
					line += " " + faint("-") + "  "
				default:
					line += " " + faint("·") + "  "
				}
			}
			done := fmt.Sprintf("%d/%d", row.Completed, row.Target)
			if row.TargetMet {
				done = green(done)
			}
			a.printf("%s  %s %s\n", line, done, faint(fmt.Sprintf("%d%%", row.Percent)))
		}
	}

	daily := padName("Daily")
	for _, d := range sc.Days {
		if d.Total == 0 {
			daily += faint(" -- ")
			continue
		}
		daily += fmt.Sprintf("%3d ", d.Percent)
	}
	a.println()
	a.println(daily)
	a.printf("\nExecution: %s  %s  (%d/%d, target %d%%)\n",
		scoreColor(sc.Score), bar(sc.Score), sc.Achieved, sc.Target, a.cfg.ExecutionTarget)
}

// todayItem is one tactic due on the requested day.
type todayItem struct {
	Goal      string        `json:"goal"`
	Tactic    *store.Tactic `json:"tactic"`
	Checked   bool          `json:"checked"`
	Locked    bool          `json:"locked"`
	Completed int           `json:"completed"`
	Target    int           `json:"target"`
}

func newTodayCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's tactics and what is already done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.dateFlag(date)
			if err != nil {
				return err
			}
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			if !c.Contains(d) {
				return fmt.Errorf("%s is outside cycle %s: %w", week.FormatDate(d), c.Title, week.ErrInvalidInput)
			}
			sc, err := a.scorecard(ctx, c, c.WeekOf(d))
			if err != nil {
				return err
			}

			items := []todayItem{}
			for _, section := range sc.Goals {
				for _, row := range section.Rows {
					cell, _ := sc.Cell(row.Tactic.ID, d)
					items = append(items, todayItem{
						Goal:      section.Goal.Title,
						Tactic:    row.Tactic,
						Checked:   cell.Checked,
						Locked:    cell.Locked,
						Completed: row.Completed,
						Target:    row.Target,
					})
				}
			}
			return a.emit(items, func() {
				a.printf("%s  week %d, %s\n\n", bold(d.Format("Monday 2 Jan")), sc.Week, c.Title)
				if len(items) == 0 {
					a.println(faint("Nothing scheduled today."))
					return
				}
				for _, it := range items {
					mark := checkMark(it.Checked)
					if it.Locked {
						mark = faint("-")
					}
					a.printf("%s %s %s  %s\n", mark, it.Tactic.Title, cyan(it.Tactic.ID),
						faint(fmt.Sprintf("%d/%d this week · %s", it.Completed, it.Target, it.Goal)))
				}
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default: today)")
	return cmd
}

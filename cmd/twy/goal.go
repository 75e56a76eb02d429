package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

func printGoals(a *app, goals []*store.Goal) {
	if len(goals) == 0 {
		a.println(faint("No goals yet. Add one with 'twy goal add <title>'."))
		return
	}
	for i, g := range goals {
		a.printf("\n%d. %s %s\n", i+1, bold(g.Title), cyan(g.ID))
		if g.WhyItMatters != "" {
			a.printf("   %s %s\n", faint("why:"), g.WhyItMatters)
		}
		if g.TargetMetric != "" {
			a.printf("   %s %s\n", faint("target:"), g.TargetMetric)
		}
		for _, t := range g.Tactics {
			a.printf("   - %s %s  %s\n", t.Title, cyan(t.ID), faint(describeTactic(t)))
		}
		for _, ind := range g.Indicators {
			a.printf("   ◆ %s %s  %s\n", ind.Name, cyan(ind.ID), faint(string(ind.MetricType)))
		}
	}
}

func describeTactic(t *store.Tactic) string {
	if t.IsOneTime() {
		return fmt.Sprintf("once, week %d", t.StartWeek)
	}
	freq := "daily"
	if t.WeeklyFrequency > 0 {
		freq = fmt.Sprintf("%dx/week", t.WeeklyFrequency)
	}
	return fmt.Sprintf("%s, weeks %d-%d, %s", freq, t.StartWeek, t.EndWeek, t.Priority)
}

func newGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage the goals of the active cycle",
	}

	var in store.GoalInput
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a goal to the active cycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			in.Title = args[0]
			g, err := a.repo.CreateGoal(ctx, c.ID, in)
			if err != nil {
				return err
			}
			return a.emit(g, func() { a.printf("%s Created goal %s (%s)\n", green("✓"), bold(g.Title), g.ID) })
		},
	}
	add.Flags().StringVar(&in.WhyItMatters, "why", "", "Why this goal matters")
	add.Flags().StringVar(&in.TargetMetric, "metric", "", "How success is measured")
	add.Flags().StringVar(&in.Description, "description", "", "Longer description (markdown)")

	var title, why, metric, description string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a goal's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.repo.GetGoal(ctx, args[0])
			if err != nil {
				return err
			}
			upd := store.GoalInput{Title: g.Title, Description: g.Description, WhyItMatters: g.WhyItMatters, TargetMetric: g.TargetMetric}
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = title
			}
			if flags.Changed("why") {
				upd.WhyItMatters = why
			}
			if flags.Changed("metric") {
				upd.TargetMetric = metric
			}
			if flags.Changed("description") {
				upd.Description = description
			}
			g, err = a.repo.UpdateGoal(ctx, g.ID, upd)
			if err != nil {
				return err
			}
			return a.emit(g, func() { a.printf("Updated %s\n", bold(g.Title)) })
		},
	}
	edit.Flags().StringVar(&title, "title", "", "New title")
	edit.Flags().StringVar(&why, "why", "", "Why this goal matters")
	edit.Flags().StringVar(&metric, "metric", "", "How success is measured")
	edit.Flags().StringVar(&description, "description", "", "Longer description (markdown)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the goals of the active cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			goals, err := a.repo.ListGoals(ctx, c.ID)
			if err != nil {
				return err
			}
			return a.emit(goals, func() { printGoals(a, goals) })
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a goal with its tactics, tasks and indicators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteGoal(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(map[string]string{"deleted": args[0]}, func() { a.printf("Deleted: %s\n", args[0]) })
		},
	}

	move := func(use string, delta int) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: "Move a goal " + use + " in display order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.repo.ReorderGoal(cmd.Context(), args[0], delta); err != nil {
					return err
				}
				return a.emit(map[string]any{"moved": args[0], "delta": delta}, func() {
					a.printf("Moved %s %s\n", args[0], use)
				})
			},
		}
	}

	cmd.AddCommand(add, edit, list, rm, move("up", -1), move("down", 1))
	return cmd
}

// parseWeekRange parses "A-B" or a single week "A".
func parseWeekRange(s string) (start, end int, err error) {
	lo, hi, found := strings.Cut(s, "-")
	if start, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
		return 0, 0, fmt.Errorf("week range %q: %w", s, week.ErrInvalidInput)
	}
	if !found {
		return start, start, nil
	}
	if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
		return 0, 0, fmt.Errorf("week range %q: %w", s, week.ErrInvalidInput)
	}
	return start, end, nil
}

func newTacticCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tactic",
		Short: "Manage the tactics of a goal",
	}

	var (
		once     bool
		weekNum  int
		weeks    string
		freq     int
		priority string
		minutes  int
		notes    string
	)
	add := &cobra.Command{
		Use:   "add <goal-id> <title>",
		Short: "Add a tactic to a goal",
		Long: `Add a tactic to a goal. Recurring tactics run every week of the cycle unless
--weeks narrows them; --freq sets the weekly target (default: daily).
One-time tactics (--once) happen in a single week.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := store.TacticInput{
				Title:            args[1],
				Type:             store.TacticRecurring,
				WeeklyFrequency:  freq,
				Priority:         store.Priority(strings.ToLower(priority)),
				EstimatedMinutes: minutes,
				Notes:            notes,
			}
			if once {
				in.Type = store.TacticOneTime
				in.StartWeek = weekNum
			}
			if weeks != "" {
				var err error
				if in.StartWeek, in.EndWeek, err = parseWeekRange(weeks); err != nil {
					return err
				}
			}
			t, err := a.repo.CreateTactic(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.emit(t, func() {
				a.printf("%s Created tactic %s (%s): %s\n", green("✓"), bold(t.Title), t.ID, describeTactic(t))
			})
		},
	}
	add.Flags().BoolVar(&once, "once", false, "One-time tactic")
	add.Flags().IntVar(&weekNum, "week", 0, "Week of a one-time tactic")
	add.Flags().StringVar(&weeks, "weeks", "", "Active weeks, e.g. 3-8")
	add.Flags().IntVar(&freq, "freq", 0, "Times per week (0 = daily)")
	add.Flags().StringVar(&priority, "priority", "", "high, medium or low")
	add.Flags().IntVar(&minutes, "minutes", 0, "Estimated minutes per occurrence")
	add.Flags().StringVar(&notes, "notes", "", "Notes")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a tactic and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteTactic(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(map[string]string{"deleted": args[0]}, func() { a.printf("Deleted: %s\n", args[0]) })
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

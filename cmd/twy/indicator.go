package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

func newIndicatorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indicator",
		Short: "Track lag indicators, the outcomes your goals aim for",
	}

	var metric string
	var target float64
	add := &cobra.Command{
		Use:   "add <goal-id> <name>",
		Short: "Add a lag indicator to a goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mt, err := store.ParseMetricType(metric)
			if err != nil {
				return err
			}
			in := store.IndicatorInput{Name: args[1], MetricType: mt}
			if cmd.Flags().Changed("target") {
				in.TargetValue = &target
			}
			ind, err := a.repo.CreateIndicator(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.emit(ind, func() { a.printf("%s Created indicator %s (%s)\n", green("✓"), bold(ind.Name), ind.ID) })
		},
	}
	add.Flags().StringVar(&metric, "type", string(store.MetricNumber), fmt.Sprintf("Metric type %v", store.MetricTypes))
	add.Flags().Float64Var(&target, "target", 0, "Target value")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an indicator and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.DeleteIndicator(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.emit(map[string]string{"deleted": args[0]}, func() { a.printf("Deleted: %s\n", args[0]) })
		},
	}

	var weekNum int
	var notes string
	record := &cobra.Command{
		Use:   "record <id> <value>",
		Short: "Record an indicator's value for a week (default: current)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("value %q: %w", args[1], week.ErrInvalidInput)
			}
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			w := weekNum
			if w == 0 {
				w = a.currentWeek(c)
			}
			sn, err := a.repo.UpsertSnapshot(ctx, &store.LagSnapshot{
				IndicatorID: args[0],
				CycleID:     c.ID,
				WeekNumber:  w,
				Value:       value,
				Notes:       notes,
			})
			if err != nil {
				return err
			}
			return a.emit(sn, func() { a.printf("Recorded %s for week %d\n", args[1], sn.WeekNumber) })
		},
	}
	record.Flags().IntVar(&weekNum, "week", 0, "Week number (default: current)")
	record.Flags().StringVar(&notes, "notes", "", "Notes")

	cmd.AddCommand(add, rm, record)
	return cmd
}

// indicatorReport is one indicator's line of the progress report.
type indicatorReport struct {
	Goal string `json:"goal"`
	score.IndicatorStatus
	Latest  *store.LagSnapshot `json:"latest,omitempty"`
	Display string             `json:"display"`
	Target  string             `json:"target_display"`
}

// progressReport is the cycle-wide summary printed by 'twy progress'.
type progressReport struct {
	Cycle      *store.Cycle         `json:"cycle"`
	Week       int                  `json:"week"`
	Trend      score.Trend          `json:"trend"`
	Goals      []score.GoalProgress `json:"goals"`
	Indicators []indicatorReport    `json:"indicators"`
}

func (a *app) progress(ctx context.Context, c *store.Cycle) (*progressReport, error) {
	reviews, err := a.repo.ListReviews(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	goals, err := a.repo.ListGoals(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := a.repo.ListTasks(ctx, c.ID, 0)
	if err != nil {
		return nil, err
	}

	rep := &progressReport{
		Cycle:      c,
		Week:       a.currentWeek(c),
		Trend:      score.ReviewTrend(reviews, a.cfg.ExecutionTarget),
		Goals:      score.GoalsProgress(goals, tasks),
		Indicators: []indicatorReport{},
	}
	f := score.Formatter{Currency: a.cfg.Currency}
	for _, g := range goals {
		for _, ind := range g.Indicators {
			snaps, err := a.repo.ListSnapshots(ctx, ind.ID, c.ID)
			if err != nil {
				return nil, err
			}
			line := indicatorReport{
				Goal:            g.Title,
				IndicatorStatus: score.StatusForWeek(ind, snaps, rep.Week),
				Latest:          score.Latest(snaps),
			}
			var latest *float64
			if line.Latest != nil {
				latest = &line.Latest.Value
			}
			if line.Display, err = f.FormatOptional(latest, ind.MetricType); err != nil {
				return nil, err
			}
			if line.Target, err = f.FormatOptional(ind.TargetValue, ind.MetricType); err != nil {
				return nil, err
			}
			rep.Indicators = append(rep.Indicators, line)
		}
	}
	return rep, nil
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show execution trend, goal progress and lag indicators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			rep, err := a.progress(ctx, c)
			if err != nil {
				return err
			}
			return a.emit(rep, func() { a.printProgress(rep) })
		},
	}
}

func (a *app) printProgress(rep *progressReport) {
	a.printf("%s  week %d of %d\n\n", bold(rep.Cycle.Title), rep.Week, week.WeeksPerCycle)

	a.println(bold("Execution"))
	if len(rep.Trend.Weeks) == 0 {
		a.println(faint("  no reviews yet, run 'twy review'"))
	}
	for _, p := range rep.Trend.Weeks {
		a.printf("  week %2d  %s %s\n", p.Week, bar(p.Score), scoreColor(p.Score))
	}
	a.printf("  cycle score %s (%s), %d of %d weeks at %d%%+\n\n",
		scoreColor(rep.Trend.Average), rep.Trend.Band, rep.Trend.WeeksOnGoal, len(rep.Trend.Weeks), a.cfg.ExecutionTarget)

	a.println(bold("Goals"))
	for _, g := range rep.Goals {
		a.printf("  %s %s %s  %s\n", padName(g.Title), bar(g.Percent), scoreColor(g.Percent),
			faint(fmt.Sprintf("%d/%d", g.Completed, g.Total)))
	}

	if len(rep.Indicators) > 0 {
		a.println()
		a.println(bold("Indicators"))
	}
	for _, ind := range rep.Indicators {
		line := fmt.Sprintf("  %s %s / %s", padName(ind.Indicator.Name), ind.Display, ind.Target)
		if ind.Progress != nil {
			line += fmt.Sprintf("  %.0f%%", *ind.Progress)
		}
		if ind.Delta != nil {
			d := fmt.Sprintf("%+g", ind.Delta.Diff)
			if ind.Delta.IsPositive {
				d = green(d)
			} else if ind.Delta.Diff < 0 {
				d = red(d)
			}
			line += "  " + d
		}
		a.println(line)
	}
}

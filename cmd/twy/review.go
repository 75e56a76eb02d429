package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
)

func newReviewCmd(a *app) *cobra.Command {
	var weekNum int
	var worked, didnt, adjust string
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Record the weekly review of a week (default: current)",
		Long: `Record the weekly review. Planned and completed counts and the execution
percentage are computed from the week's tasks; the text fields are yours.
Running it again for the same week updates the review.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			w := weekNum
			if w == 0 {
				w = a.currentWeek(c)
			}
			tasks, err := a.repo.ListTasks(ctx, c.ID, w)
			if err != nil {
				return err
			}
			r, err := score.NewReview(c.ID, w, tasks, worked, didnt, adjust)
			if err != nil {
				return err
			}
			saved, err := a.repo.SaveReview(ctx, r)
			if err != nil {
				return err
			}
			a.log.Info("review saved", "cycle", c.ID, "week", w, "execution", saved.ExecutionPercentage)
			return a.emit(saved, func() { a.printReview(saved) })
		},
	}
	cmd.Flags().IntVar(&weekNum, "week", 0, "Week number (default: current)")
	cmd.Flags().StringVar(&worked, "worked", "", "What worked")
	cmd.Flags().StringVar(&didnt, "didnt", "", "What didn't work")
	cmd.Flags().StringVar(&adjust, "adjust", "", "Adjustments for next week")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the reviews of the active cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.activeCycle(ctx)
			if err != nil {
				return err
			}
			reviews, err := a.repo.ListReviews(ctx, c.ID)
			if err != nil {
				return err
			}
			return a.emit(reviews, func() {
				if len(reviews) == 0 {
					a.println(faint("No reviews yet."))
					return
				}
				for _, r := range reviews {
					a.printReview(r)
					a.println()
				}
			})
		},
	}
	cmd.AddCommand(list)
	return cmd
}

func (a *app) printReview(r *store.WeeklyReview) {
	a.printf("%s  %s to %s  %s (%d/%d)\n", bold("Week "+strconv.Itoa(r.WeekNumber)),
		r.WeekStart.Format("Jan 2"), r.WeekEnd.Format("Jan 2"),
		scoreColor(r.ExecutionPercentage), r.CompletedTasks, r.PlannedTasks)
	for _, f := range []struct{ label, text string }{
		{"Worked", r.WhatWorked},
		{"Didn't work", r.WhatDidntWork},
		{"Adjust", r.Adjustments},
	} {
		if f.text != "" {
			a.printf("  %s %s\n", faint(f.label+":"), f.text)
		}
	}
}

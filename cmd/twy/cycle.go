package main

import (
	"github.com/spf13/cobra"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/week"
)

func newVisionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Show or set the long-term vision",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active vision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.repo.ActiveVision(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(v, func() {
				a.println(bold("Vision"))
				a.println(v.LongTerm)
				if v.ThreeYear != "" {
					a.println()
					a.println(bold("In three years"))
					a.println(v.ThreeYear)
				}
			})
		},
	}

	var longTerm, threeYear string
	set := &cobra.Command{
		Use:   "set",
		Short: "Record a new vision, replacing the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.repo.SaveVision(cmd.Context(), longTerm, threeYear)
			if err != nil {
				return err
			}
			return a.emit(v, func() { a.printf("%s Vision saved (%s)\n", green("✓"), v.ID) })
		},
	}
	set.Flags().StringVar(&longTerm, "long", "", "Long-term vision (markdown)")
	set.Flags().StringVar(&threeYear, "three-year", "", "Where you want to be in three years")

	cmd.AddCommand(show, set)
	return cmd
}

func newCycleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Manage twelve-week cycles",
	}

	var start string
	create := &cobra.Command{
		Use:   "new <title>",
		Short: "Start a new cycle, completing the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := a.dateFlag(start)
			if err != nil {
				return err
			}
			c, err := a.repo.CreateCycle(cmd.Context(), args[0], startDate)
			if err != nil {
				return err
			}
			return a.emit(c, func() {
				a.printf("%s Started %s (%s): %s to %s\n", green("✓"), bold(c.Title), c.ID,
					week.FormatDate(c.StartDate), week.FormatDate(c.EndDate))
			})
		},
	}
	create.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default: today)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all cycles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cycles, err := a.repo.ListCycles(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cycles, func() {
				if len(cycles) == 0 {
					a.println("No cycles yet. Start one with 'twy cycle new <title>'.")
					return
				}
				for _, c := range cycles {
					status := faint(string(c.Status))
					if c.IsActive() {
						status = green(string(c.Status))
					}
					a.printf("%s  %-24s %s  %s\n", cyan(c.ID), c.Title, week.FormatDate(c.StartDate), status)
				}
			})
		},
	}

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a cycle with its goals and tactics (default: active)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var c *store.Cycle
			var err error
			if len(args) == 1 {
				c, err = a.repo.GetCycle(ctx, args[0])
			} else {
				c, err = a.activeCycle(ctx)
			}
			if err != nil {
				return err
			}
			goals, err := a.repo.ListGoals(ctx, c.ID)
			if err != nil {
				return err
			}
			out := struct {
				*store.Cycle
				Goals []*store.Goal `json:"goals"`
			}{c, goals}
			return a.emit(out, func() {
				a.printf("%s %s  %s to %s  [%s]\n", bold(c.Title), cyan(c.ID),
					week.FormatDate(c.StartDate), week.FormatDate(c.EndDate), c.Status)
				if c.IsActive() {
					a.printf("Week %d of %d\n", a.currentWeek(c), week.WeeksPerCycle)
				}
				printGoals(a, goals)
				if c.Reflection != "" {
					a.println()
					a.println(bold("Reflection"))
					a.println(c.Reflection)
				}
			})
		},
	}

	transition := func(use, short string, status store.CycleStatus) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.repo.SetCycleStatus(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				return a.emit(c, func() { a.printf("%s → %s\n", c.Title, c.Status) })
			},
		}
	}

	var cycleID string
	reflect := &cobra.Command{
		Use:   "reflect <text>",
		Short: "Record the week-13 reflection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := cycleID
			if id == "" {
				c, err := a.activeCycle(ctx)
				if err != nil {
					return err
				}
				id = c.ID
			}
			c, err := a.repo.SetCycleReflection(ctx, id, args[0])
			if err != nil {
				return err
			}
			return a.emit(c, func() { a.printf("Reflection saved for %s\n", c.Title) })
		},
	}
	reflect.Flags().StringVar(&cycleID, "cycle", "", "Cycle id (default: active)")

	cmd.AddCommand(create, list, show,
		transition("complete", "Mark a cycle completed", store.CycleCompleted),
		transition("archive", "Archive a cycle", store.CycleArchived),
		reflect,
	)
	return cmd
}

package cli

import (
	gocontext "context"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/wire"
)

// BatchCmd returns the batch command
func BatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the derivation pipeline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Recompute every active plant now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.ReportAdapter(cmd.OutOrStdout()).RunBatch(ctx)
			})
		},
	})
	cmd.AddCommand(batchRunsCmd())

	return cmd
}

func batchRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.ReportAdapter(cmd.OutOrStdout()).ListRuns(ctx, limit)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of runs to show")

	return cmd
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show derived plant status",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Current status of every plant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.ReportAdapter(cmd.OutOrStdout()).ListStatuses(ctx)
			})
		},
	})
	cmd.AddCommand(statusShowCmd())

	return cmd
}

func statusShowCmd() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "show [plant-id]",
		Short: "Status, factors and status history of one plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.ReportAdapter(cmd.OutOrStdout()).ShowStatus(ctx, args[0], history)
			})
		},
	}

	cmd.Flags().IntVar(&history, "history", 5, "Number of status windows to show (0 hides history)")

	return cmd
}

// ScheduleCmd returns the schedule command
func ScheduleCmd() *cobra.Command {
	var plantID, before string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show upcoming care tasks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List open schedule items by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.ReportAdapter(cmd.OutOrStdout()).ListSchedule(ctx, primary.ScheduleFilters{
					PlantID: plantID,
					Before:  before,
				})
			})
		},
	}
	list.Flags().StringVarP(&plantID, "plant", "p", "", "Only items of this plant")
	list.Flags().StringVar(&before, "before", "", "Only items dated on or before YYYY-MM-DD")
	cmd.AddCommand(list)

	return cmd
}

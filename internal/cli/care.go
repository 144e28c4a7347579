package cli

import (
	gocontext "context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/wire"
)

// ActivityCmd returns the activity command
func ActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Record care activities",
	}

	cmd.AddCommand(activityAddCmd())

	return cmd
}

func activityAddCmd() *cobra.Command {
	var (
		date, unit, notes, result string
		quantity                  float64
	)

	cmd := &cobra.Command{
		Use:   "add [plant-id] [activity-type]",
		Short: "Record an activity and recompute the plant",
		Long: `Record a care activity (watering or fertilizing). Watering
recomputes the plant's due date, status, schedule and alerts before the
command returns.

Examples:
  plantcare activity add PLANT-001 watering
  plantcare activity add PLANT-001 watering --date 2025-01-09 --quantity 250 --unit ml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				if date == "" {
					date = c.Clock.Today().Format("2006-01-02")
				}
				req := primary.SubmitActivityRequest{
					PlantID:      args[0],
					ActivityType: args[1],
					ActivityDate: date,
					Unit:         unit,
					Notes:        notes,
					Result:       result,
				}
				if cmd.Flags().Changed("quantity") {
					req.Quantity = &quantity
				}
				return c.CareAdapter(cmd.OutOrStdout()).RecordActivity(ctx, req)
			})
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Activity date YYYY-MM-DD (default today)")
	cmd.Flags().Float64VarP(&quantity, "quantity", "q", 0, "Amount applied")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit of the quantity")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	cmd.Flags().StringVar(&result, "result", "", "Observed result")

	return cmd
}

// AlertCmd returns the alert command
func AlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "List and act on alerts",
	}

	cmd.AddCommand(alertListCmd())
	cmd.AddCommand(alertSnoozeCmd())
	cmd.AddCommand(alertDismissCmd())
	cmd.AddCommand(alertDoneCmd())

	return cmd
}

func alertListCmd() *cobra.Command {
	var (
		plantID string
		all     bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.CareAdapter(cmd.OutOrStdout()).ListAlerts(ctx, primary.AlertFilters{
					PlantID:     plantID,
					IncludeDone: all,
					Limit:       limit,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&plantID, "plant", "p", "", "Only alerts of this plant")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include resolved alerts")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of alerts (0 = no limit)")

	return cmd
}

func alertSnoozeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "snooze [alert-id]",
		Short: "Snooze an alert for 1-3 days (once per alert)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.CareAdapter(cmd.OutOrStdout()).Snooze(ctx, args[0], days)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 1, "Days to snooze (1-3)")

	return cmd
}

func alertDismissCmd() *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:   "dismiss [alert-id]",
		Short: "Dismiss an alert and move the watering due date",
		Long: `Dismiss an alert until a future date. The plant's watering due date
is set to that date and the alert stays suppressed until it passes.

Examples:
  plantcare alert dismiss 3f2c... --until 2025-01-20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if until == "" {
				return fmt.Errorf("--until is required")
			}
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.CareAdapter(cmd.OutOrStdout()).Dismiss(ctx, args[0], until)
			})
		},
	}

	cmd.Flags().StringVar(&until, "until", "", "Override date YYYY-MM-DD (must be in the future)")

	return cmd
}

func alertDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [alert-id]",
		Short: "Record today's watering and resolve the alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.CareAdapter(cmd.OutOrStdout()).Done(ctx, args[0])
			})
		},
	}
}

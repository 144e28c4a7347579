package cli

import (
	gocontext "context"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/wire"
)

// PlantCmd returns the plant command
func PlantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plant",
		Short: "Manage plants",
	}

	cmd.AddCommand(plantAddCmd())
	cmd.AddCommand(plantListCmd())
	cmd.AddCommand(plantSetActiveCmd("activate", true))
	cmd.AddCommand(plantSetActiveCmd("deactivate", false))

	return cmd
}

func plantAddCmd() *cobra.Command {
	var plantType, acquired string

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a plant",
		Long: `Register a plant. Plants without a type are tracked but get no
watering schedule.

Examples:
  plantcare plant add "Kitchen Pothos" --type TYPE-POTHOS
  plantcare plant add "Office Fern" --type TYPE-FERN --acquired 2025-01-03`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.PlantAdapter(cmd.OutOrStdout()).Add(ctx, args[0], plantType, acquired)
			})
		},
	}

	cmd.Flags().StringVarP(&plantType, "type", "t", "", "Plant type ID (see 'plantcare plant-type list')")
	cmd.Flags().StringVar(&acquired, "acquired", "", "Acquisition date YYYY-MM-DD (default today)")

	return cmd
}

func plantListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.PlantAdapter(cmd.OutOrStdout()).List(ctx, all)
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include inactive plants")

	return cmd
}

func plantSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Stop deriving status for a plant"
	if active {
		short = "Resume deriving status for a plant"
	}
	return &cobra.Command{
		Use:   use + " [plant-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.PlantAdapter(cmd.OutOrStdout()).SetActive(ctx, args[0], active)
			})
		},
	}
}

// PlantTypeCmd returns the plant-type command
func PlantTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plant-type",
		Short: "Manage plant types and their default watering intervals",
	}

	cmd.AddCommand(plantTypeAddCmd())
	cmd.AddCommand(plantTypeListCmd())

	return cmd
}

func plantTypeAddCmd() *cobra.Command {
	var interval int

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a plant type",
		Long: `Register a plant type. Its ID is derived from the name.

Examples:
  plantcare plant-type add "Snake plant" --interval 14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.PlantAdapter(cmd.OutOrStdout()).AddType(ctx, args[0], interval)
			})
		},
	}

	cmd.Flags().IntVarP(&interval, "interval", "i", 7, "Default watering interval in days")

	return cmd
}

func plantTypeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active plant types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(wire.ModeInline, func(ctx gocontext.Context, c *wire.Container) error {
				return c.PlantAdapter(cmd.OutOrStdout()).ListTypes(ctx)
			})
		},
	}
}

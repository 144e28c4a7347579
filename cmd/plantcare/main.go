package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/cli"
	"github.com/example/plantcare/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "plantcare",
		Short:   "plantcare - plant health derivation pipeline",
		Version: version.String(),
		Long: `plantcare derives watering due dates, plant status, a care schedule and
alerts from the care activities you record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.BindGlobalFlags(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.DBCmd())
	rootCmd.AddCommand(cli.PlantTypeCmd())
	rootCmd.AddCommand(cli.PlantCmd())

	// Care
	rootCmd.AddCommand(cli.ActivityCmd())
	rootCmd.AddCommand(cli.AlertCmd())

	// Derived state
	rootCmd.AddCommand(cli.BatchCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ScheduleCmd())

	rootCmd.AddCommand(cli.ServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

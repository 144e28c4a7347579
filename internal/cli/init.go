package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plantcare/internal/config"
	"github.com/example/plantcare/internal/db"
)

// DBCmd returns the db command
func DBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the plantcare database",
	}

	cmd.AddCommand(dbInitCmd())
	cmd.AddCommand(dbSeedCmd())

	return cmd
}

func dbInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database and seed reference data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initializing plantcare database at %s\n", cfg.Database.Path)

			database, err := db.Open(cfg.Database.Path, log.Info)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.SeedLookups(database); err != nil {
				return fmt.Errorf("failed to seed reference data: %w", err)
			}
			fmt.Fprintln(out, "✓ Database initialized successfully")

			created, path, err := writeDefaultConfig(cfg)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			if created {
				fmt.Fprintf(out, "✓ Config file created at %s\n", path)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  plantcare plant-type list")
			fmt.Fprintln(out, "  plantcare plant add \"Kitchen Pothos\" --type TYPE-POTHOS")
			fmt.Fprintln(out, "  plantcare batch run")

			return nil
		},
	}
}

func dbSeedCmd() *cobra.Command {
	var acquired string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add development plants (PLANT-001..003)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			database, err := db.Open(cfg.Database.Path, log.Info)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.SeedFixtures(database, acquired); err != nil {
				return fmt.Errorf("failed to seed fixtures: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Seeded development plants")
			return nil
		},
	}

	cmd.Flags().StringVar(&acquired, "acquired", "2025-01-01", "Acquisition date of the seeded plants")

	return cmd
}

// writeDefaultConfig saves cfg to the default config path unless a config
// file was given or one already exists. The batch secret is never written.
func writeDefaultConfig(cfg *config.Config) (bool, string, error) {
	if configPath != "" {
		return false, configPath, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return false, "", err
	}
	if _, err := os.Stat(path); err == nil {
		return false, path, nil
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return false, path, err
	}
	return true, path, nil
}

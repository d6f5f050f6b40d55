package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&migrationsPath, "path", "", "migrations directory (default: database.migration_path from config)")

	resolvePath := func(configured string) string {
		if migrationsPath != "" {
			return migrationsPath
		}
		return configured
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			path := resolvePath(cfg.Database.MigrationPath)
			if err := postgres.RunMigrations(cfg.Database.DSN(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be >= 1, got %d", steps)
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			path := resolvePath(cfg.Database.MigrationPath)
			if err := postgres.RollbackMigration(cfg.Database.DSN(), path, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			path := resolvePath(cfg.Database.MigrationPath)
			version, dirty, err := postgres.MigrationStatus(cfg.Database.DSN(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run database schema",
	}

	withStore := func(fn func(cmd *cobra.Command, st *store.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			path := a.cfg.GetDBPath()
			if path == "" {
				return fmt.Errorf("no database configured (use --db or GFE_DB_PATH)")
			}
			st, err := store.OpenRaw(path)
			if err != nil {
				return err
			}
			defer st.Close()
			return fn(cmd, st)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, st *store.Store) error {
				monitoring.Logf("Running migrations...")
				if err := st.MigrateUp(); err != nil {
					return err
				}
				return printMigrateStatus(cmd, st)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, st *store.Store) error {
				monitoring.Logf("Rolling back one migration...")
				if err := st.MigrateDown(); err != nil {
					return err
				}
				return printMigrateStatus(cmd, st)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE:  withStore(printMigrateStatus),
		},
	)
	return cmd
}

func printMigrateStatus(cmd *cobra.Command, st *store.Store) error {
	version, dirty, err := st.MigrateVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Fprintln(cmd.OutOrStdout(), "WARNING: a migration failed mid-execution; inspect the database before retrying")
	}
	return nil
}

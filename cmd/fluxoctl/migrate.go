package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fluxo/internal/log"
	"fluxo/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Create or upgrade the SQLite schema to the latest version. The services
migrate on start as well; this command lets an operator do it ahead of a
deploy or inspect the current version with --status.`,
		RunE: runMigrate,
	}
	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := loadConfig().SQLiteDBPath
	out := cmd.OutOrStdout()

	if !status {
		slog.Info("Applying migrations", "database", dbPath)
		if err := storage.RunMigrations(dbPath); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		slog.Error("failed to read schema version", log.FieldError, err.Error())
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintf(out, "database: %s\nversion:  %d\n", dbPath, version)
	if dirty {
		fmt.Fprintln(out, "state:    dirty (a previous migration failed halfway)")
		return fmt.Errorf("schema version %d is dirty", version)
	}
	return nil
}

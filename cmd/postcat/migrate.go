package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/postcat/internal/cli"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures the configured database has the posts, categories and
post_categories tables along with their indexes.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openStorage(ctx, appConfig.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	slog.Info("Starting database migration",
		"driver", appConfig.Database.Driver,
		"status_only", status)

	if status {
		versioner, ok := store.(schemaVersioner)
		if !ok {
			return fmt.Errorf("driver %s does not report schema versions", appConfig.Database.Driver)
		}
		current, err := versioner.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Schema version: %d", current)))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully"))
	return nil
}

package main

import (
	"fmt"

	"github.com/DanteAc13/propintel/internal/cli"
	"github.com/DanteAc13/propintel/internal/common"
	"github.com/DanteAc13/propintel/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the tables and indexes
for observations, issues and the defect dictionary.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	common.LogInfo("Starting database migration", common.Fields{"database": settings.DatabasePath})

	// Create storage instance
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Database at schema version %d: %s", storage.ExpectedSchemaVersion, settings.DatabasePath)))
	return nil
}

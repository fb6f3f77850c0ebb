package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/db"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for the merge run ledger",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCommand)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if settings.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}

	database, err := db.Connect(cmd.Context(), settings.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

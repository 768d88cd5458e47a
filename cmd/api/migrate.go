package main

import (
	"fmt"

	"github.com/assetstore/backend/internal/models"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := bootstrap()
		if err != nil {
			return err
		}
		defer lg.Sync()

		db, err := models.InitDB(cfg, lg)
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		lg.Info("Migrations applied")
		return nil
	},
}

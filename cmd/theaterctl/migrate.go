package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/theater-seat-booking/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.WithField("db", cfg.DB.Driver).Info("schema up to date")
		return nil
	},
}

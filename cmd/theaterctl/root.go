package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/theater-seat-booking/internal/app"
	"github.com/iliyamo/theater-seat-booking/internal/config"
)

var (
	cfg config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "theaterctl",
	Short:         "Theater seat booking operator tool",
	Long:          `Manage the booking database from the terminal: migrate the schema, import bookings and sections, print occupancy and issue API tokens.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		log = config.NewLogger(cfg.Log)
		return nil
	},
}

// openApp connects to the database and the event broker.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, log)
}

func Execute() {
	rootCmd.AddCommand(migrateCmd, importCmd, statsCmd, tokenCmd, consumeCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Error("theaterctl failed")
		os.Exit(1)
	}
}

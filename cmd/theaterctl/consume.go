package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/theater-seat-booking/internal/events"
)

var auditPath string

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append every published event to an audit log (RabbitMQ)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.WithFields(logrus.Fields{"queue": cfg.AMQP.Queue, "file": auditPath}).Info("audit consumer started")
		err := events.StartAuditConsumer(ctx, cfg.AMQP, auditPath, log)
		if errors.Is(err, context.Canceled) {
			log.Info("audit consumer stopped")
			return nil
		}
		return err
	},
}

func init() {
	consumeCmd.Flags().StringVar(&auditPath, "file", "logs/audit.log", "audit log to append to")
}

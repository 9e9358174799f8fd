package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/theater-seat-booking/internal/app"    // service wiring
	"github.com/iliyamo/theater-seat-booking/internal/config" // Internal config loader
)

func main() {
	cfg := config.MustLoad()         // Load .env, config file and environment
	log := config.NewLogger(cfg.Log) // Structured process logger
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	rdb := config.NewRedisClient(log) // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}
	e := a.NewEcho(rdb)

	addr := ":" + cfg.App.Port // Address string with port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.App.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/orgball2608/postview/internal/app"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

const (
	// Postgres may still be starting; the pool ping retries for a while.
	startTimeout = time.Minute
	stopTimeout  = 15 * time.Second
)

func main() {
	log := logger.New(logger.Opts{Env: os.Getenv("APP_ENV")})

	application := fx.New(
		fx.Logger(log),
		fx.StartTimeout(startTimeout),
		app.Module,
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStart()

	if err := application.Start(startCtx); err != nil {
		log.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	// Done fires on SIGINT and SIGTERM.
	sig := <-application.Done()
	log.Info("Shutting down", "signal", sig.String())

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()

	if err := application.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application", "error", err)
		os.Exit(1)
	}
}

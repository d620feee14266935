// claimsd runs the claims pool service: role registry, stake ledger, claim
// engine, premium controller and the REST API in front of them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/opencover/claims_layer/internal/app/runtime"
	"github.com/opencover/claims_layer/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.NewDefault("claimsd")

	app, err := runtime.NewApplication(nil)
	if err != nil {
		log.WithError(err).Error("failed to initialise application")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("shutdown error")
		os.Exit(1)
	}
}

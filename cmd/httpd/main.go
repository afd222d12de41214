package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/civicpulse/classifier/internal/bootstrap"
	"github.com/civicpulse/classifier/internal/logging"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	comps, err := bootstrap.NewHTTPComponents(cfg, logger)
	if err != nil {
		logger.Fatal("building http components failed", logging.Error(err))
	}
	defer comps.Close()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- comps.Server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Fatal("server error", logging.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), bootstrap.HTTPShutdownTimeout())
		defer cancel()

		if err := comps.Server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", logging.Error(err))
			os.Exit(1)
		}

		logger.Info("server stopped")
	}
}

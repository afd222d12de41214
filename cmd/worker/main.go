package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicpulse/classifier/internal/bootstrap"
	"github.com/civicpulse/classifier/internal/logging"
)

const queueDepthInterval = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := bootstrap.NewWorkerComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building worker components failed", logging.Error(err))
	}
	defer comps.Close()

	if err := comps.Consumer.Start(ctx); err != nil {
		logger.Fatal("starting consumer failed", logging.Error(err))
	}

	logger.Info("classification worker started",
		logging.Int("concurrency", cfg.Service.Concurrency),
		logging.Bool("model_available", comps.Gemini != nil))

	go publishQueueDepths(ctx, comps)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	comps.Consumer.Stop()
	logger.Info("worker stopped")
}

// publishQueueDepths exports queue gauge snapshots until ctx is canceled.
func publishQueueDepths(ctx context.Context, comps *bootstrap.WorkerComponents) {
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := comps.Queue.Stats(ctx)
			if err != nil {
				continue
			}
			comps.Telemetry.SetQueueDepths(stats.Waiting, stats.Delayed, stats.Failed)
		}
	}
}

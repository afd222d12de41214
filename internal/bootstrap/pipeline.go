package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/classifier/internal/analysis"
	"github.com/civicpulse/classifier/internal/api"
	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/gemini"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/queue"
	"github.com/civicpulse/classifier/internal/routing"
	"github.com/civicpulse/classifier/internal/stt"
	"github.com/civicpulse/classifier/internal/telemetry"
	"github.com/civicpulse/classifier/internal/worker"
)

const defaultHTTPTimeout = 30 * time.Second

// WorkerComponents holds everything the classification worker needs.
type WorkerComponents struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	Queue     *queue.Queue
	Consumer  *queue.Consumer
	Gemini    *gemini.Client
	Telemetry *telemetry.Provider
}

// NewWorkerComponents builds the full classification pipeline: model
// adapter, consensus engine, routing, and the queue consumer driving it.
func NewWorkerComponents(ctx context.Context, cfg *config.Config, logger logging.Logger) (*WorkerComponents, error) {
	dbComps, err := SetupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	rdb, err := queue.NewRedisClient(cfg.Redis)
	if err != nil {
		dbComps.DB.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	tp := telemetry.NewProvider()
	keywords := classifier.NewKeywordClassifier(logger)

	// No reachable model is a degraded mode, not a startup failure: the
	// keyword and path fallbacks serve every classification.
	client, err := gemini.NewClient(ctx, cfg.Model, logger)
	if err != nil {
		if !errors.Is(err, domain.ErrModelUnavailable) {
			dbComps.DB.Close()
			rdb.Close()
			return nil, fmt.Errorf("initialize model client: %w", err)
		}
		logger.Warn("remote model unavailable, running keyword-only", logging.Error(err))
		client = nil
	}

	fetcher := gemini.NewImageFetcher(cfg.Model.MaxImageWidth, cfg.Model.JPEGQuality)
	analyzer := gemini.NewAnalyzer(client, fetcher, keywords, cfg.Analysis.ImageMinConfidence, logger)
	engine := analysis.NewEngine(analyzer, keywords, cfg.Analysis, logger)

	router := routing.NewRouter(dbComps.Departments, dbComps.Notifications, logger)
	transcriber := stt.NewClient(cfg.STT)
	if transcriber.Enabled() {
		logger.Info("speech-to-text collaborator configured", logging.String("url", cfg.STT.URL))
	}

	handler := worker.NewHandler(
		dbComps.Reports,
		transcriber,
		engine,
		router,
		dbComps.History,
		tp,
		logger,
	)

	q := queue.New(rdb, cfg.Queue, logger)
	consumer := queue.NewConsumer(q, handler.Process, cfg.Service.Concurrency, logger)
	tp.SetActiveWorkers(cfg.Service.Concurrency)

	return &WorkerComponents{
		DB:        dbComps.DB,
		Redis:     rdb,
		Queue:     q,
		Consumer:  consumer,
		Gemini:    client,
		Telemetry: tp,
	}, nil
}

// Close releases all held connections.
func (w *WorkerComponents) Close() {
	if w.Gemini != nil {
		w.Gemini.Close()
	}
	w.Redis.Close()
	w.DB.Close()
}

// HTTPComponents holds everything the ops HTTP server needs.
type HTTPComponents struct {
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *api.Server
}

// NewHTTPComponents builds the ops server with its queue and report views.
func NewHTTPComponents(cfg *config.Config, logger logging.Logger) (*HTTPComponents, error) {
	dbComps, err := SetupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	rdb, err := queue.NewRedisClient(cfg.Redis)
	if err != nil {
		dbComps.DB.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	tp := telemetry.NewProvider()
	q := queue.New(rdb, cfg.Queue, logger)

	checks := []api.ReadyCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return dbComps.DB.PingContext(ctx) }},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}

	handler := api.NewHandler(
		dbComps.Reports,
		q,
		classifier.NewKeywordClassifier(logger),
		tp,
		checks,
		cfg.Service.Version,
		logger,
	)

	server := api.NewServer(handler, api.ServerConfig{
		Port:         cfg.Service.Port,
		ReadTimeout:  defaultHTTPTimeout,
		WriteTimeout: defaultHTTPTimeout,
		Debug:        cfg.Service.Debug,
	}, logger)

	return &HTTPComponents{
		DB:     dbComps.DB,
		Redis:  rdb,
		Server: server,
	}, nil
}

// Close releases all held connections.
func (h *HTTPComponents) Close() {
	h.Redis.Close()
	h.DB.Close()
}

// HTTPShutdownTimeout is how long graceful shutdown waits for in-flight
// requests.
func HTTPShutdownTimeout() time.Duration {
	return defaultHTTPTimeout
}

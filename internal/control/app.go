// Package control assembles the application: queue backend, history
// store, provider adapters, worker and the HTTP surface.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/ara/internal/core/config"
	"github.com/vietddude/ara/internal/infra/redis"
	"github.com/vietddude/ara/internal/infra/storage/postgres"
	"github.com/vietddude/ara/internal/queue"
	"github.com/vietddude/ara/internal/research/adapter"
	"github.com/vietddude/ara/internal/research/history"
	"github.com/vietddude/ara/internal/research/portfolio"
	"github.com/vietddude/ara/internal/research/secrets"
	"github.com/vietddude/ara/internal/research/worker"
)

// App is the main application struct that owns all long-lived resources.
type App struct {
	cfg         *config.AppConfig
	worker      *worker.Worker
	queue       queue.TaskQueue
	server      *Server
	db          *postgres.DB
	redisClient *redis.Client
	log         *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}

	// 1. Task queue backend
	q, err := app.initQueue()
	if err != nil {
		return nil, err
	}
	app.queue = q

	// 2. Run history store
	hist, err := app.initHistory()
	if err != nil {
		return nil, err
	}

	// 3. Provider adapters
	store := secrets.Default()
	registry := adapter.NewRegistry(
		adapter.NewGrok(store),
		adapter.NewPerplexity(store),
		adapter.NewDeepSeek(store),
		adapter.NewGemini(store),
		adapter.NewClaude(store),
	)

	// 4. Portfolio context
	var pf portfolio.Provider = portfolio.MockProvider{}
	if cfg.Research.PortfolioPath != "" {
		pf = portfolio.FileProvider{Path: cfg.Research.PortfolioPath}
	}

	app.worker = worker.New(worker.Config{
		Queue:           q,
		Adapters:        registry,
		AdapterSequence: cfg.Research.AdapterSequence,
		ShadowAdapters:  cfg.Research.ShadowAdapters,
		Portfolio:       pf,
		History:         hist,
		RetryPolicy:     cfg.Research.Retry,
	})

	app.server = NewServer(app.worker, q, cfg.Server.Port)
	return app, nil
}

func (a *App) initQueue() (queue.TaskQueue, error) {
	switch a.cfg.Queue.Backend {
	case "", "memory":
		a.log.Info("Using memory queue backend")
		return queue.NewMemoryQueue(), nil
	case "file":
		a.log.Info("Using file queue backend", "path", a.cfg.Queue.FilePath)
		return queue.NewFileQueue(a.cfg.Queue.FilePath)
	case "redis":
		client, err := redis.NewClient(a.cfg.Queue.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis queue: %w", err)
		}
		a.redisClient = client
		a.log.Info("Using redis queue backend")
		return redis.NewTaskQueue(client), nil
	default:
		return nil, fmt.Errorf("unknown queue backend: %s", a.cfg.Queue.Backend)
	}
}

func (a *App) initHistory() (history.Store, error) {
	if a.cfg.Database.URL == "" {
		a.log.Info("Using memory history store")
		return history.NewMemoryStore(), nil
	}

	db, err := postgres.NewDB(context.Background(), a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	a.db = db

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db.DB.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	a.log.Info("Using PostgreSQL history store")
	return postgres.NewHistoryRepo(db), nil
}

// Worker exposes the task worker for one-shot CLI runs.
func (a *App) Worker() *worker.Worker { return a.worker }

// Queue exposes the task queue for read-only CLI inspection.
func (a *App) Queue() queue.TaskQueue { return a.queue }

// Start starts the HTTP server. It blocks until the server exits.
func (a *App) Start() error {
	a.log.Info("Starting server", "port", a.cfg.Server.Port)
	return a.server.Start()
}

// Stop shuts the application down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.server.Stop(ctx)
}

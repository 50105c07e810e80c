package app

import (
	"context"
	"fmt"
	"time"

	"codementor/internal/background"
	"codementor/internal/config"
	"codementor/internal/llm"
	"codementor/internal/logging/types"
	"codementor/internal/mentor"
	"codementor/internal/platform"
	"codementor/internal/router"
	"codementor/internal/scraper"
	"codementor/internal/scraper/fetch"
	"codementor/internal/session"
)

const nudgeTimeout = 45 * time.Second

// App owns the mentor's long-lived components and their lifecycle
type App struct {
	Config  *config.Config
	Store   session.Store
	Repo    *session.Repository
	LLM     *llm.Manager
	Router  *router.Router
	Fetcher fetch.Fetcher
	Scraper *scraper.Scraper
	Monitor *session.StuckMonitor
	Jobs    *background.TaskManager

	logger types.Logger
}

// New builds every component from cfg. Nothing runs until Start.
func New(cfg *config.Config, logger types.Logger) (*App, error) {
	store, err := NewStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, store, logger)
}

// NewWithStore builds the components on an existing store
func NewWithStore(cfg *config.Config, store session.Store, logger types.Logger) (*App, error) {
	repo := session.NewRepository(store, logger)
	manager := llm.NewManager(cfg, repo.KeySource(), logger)

	fetcher, err := fetch.New(cfg.Scraper.Engine, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q fetcher: %w", cfg.Scraper.Engine, err)
	}

	a := &App{
		Config:  cfg,
		Store:   store,
		Repo:    repo,
		LLM:     manager,
		Fetcher: fetcher,
		Scraper: scraper.New(platform.NewRegistry(), fetcher, cfg.Scraper.RequestTimeout, logger),
		Router: router.New(manager, repo, router.Options{
			MaxHints:        cfg.Mentor.MaxHints,
			HistoryTurns:    cfg.Mentor.HistoryTurns,
			MaxExplainLines: cfg.Mentor.MaxExplainLines,
		}, logger),
		logger: logger.WithField("component", "app"),
	}
	a.Jobs = background.NewTaskManager(a.Scraper, background.Options{
		Workers:   cfg.Jobs.Workers,
		QueueSize: cfg.Jobs.QueueSize,
		Retention: cfg.Jobs.Retention,
	}, logger)
	a.Monitor = session.NewStuckMonitor(repo, session.MonitorOptions{
		Schedule:  cfg.Mentor.StuckCheckSchedule,
		Threshold: cfg.Mentor.StuckThreshold,
		MaxHints:  cfg.Mentor.MaxHints,
		Nudge:     a.nudge,
		Notify: func(s *session.Session) {
			a.logger.Info("Stuck nudge queued", map[string]interface{}{
				"session_id":  s.ID,
				"problem_url": s.ProblemURL,
			})
		},
	}, logger)
	return a, nil
}

// NewStore opens the configured storage backend
func NewStore(cfg *config.Config, logger types.Logger) (session.Store, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		store, err := session.NewRedisStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// Start brings up the LLM client. With workers set the stuck monitor and
// the scrape job workers run too.
func (a *App) Start(workers bool) error {
	if err := a.LLM.Start(); err != nil {
		return err
	}
	if !workers {
		return nil
	}
	if err := a.Jobs.Start(context.Background()); err != nil {
		return err
	}
	return a.Monitor.Start()
}

// Stop shuts components down in reverse order
func (a *App) Stop(ctx context.Context) {
	a.Monitor.Stop(ctx)
	if err := a.Jobs.Stop(ctx); err != nil {
		a.logger.Error("Error stopping task manager", map[string]interface{}{"error": err.Error()})
	}
	if err := a.LLM.Stop(); err != nil {
		a.logger.Error("Error stopping LLM manager", map[string]interface{}{"error": err.Error()})
	}
	if err := a.Fetcher.Close(); err != nil {
		a.logger.Error("Error closing fetcher", map[string]interface{}{"error": err.Error()})
	}
	if err := a.Store.Close(); err != nil {
		a.logger.Error("Error closing store", map[string]interface{}{"error": err.Error()})
	}
}

// Checks are the dependency probes shared by the HTTP and gRPC health surfaces
func (a *App) Checks() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"storage": a.Store.Ping,
		"llm":     a.LLM.CheckHealth,
	}
}

func (a *App) nudge(ctx context.Context, s *session.Session) string {
	ctx, cancel := context.WithTimeout(ctx, nudgeTimeout)
	defer cancel()

	text, err := a.LLM.Complete(ctx, mentor.StuckNudgePrompt(s.Problem, s.SecondsElapsed, s.HintsUsed))
	if err != nil {
		a.logger.Warn("Nudge completion failed, using default text", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return mentor.DefaultNudge(s.SecondsElapsed)
	}
	return mentor.ParseNudge(text, s.SecondsElapsed).Message
}

// Package app holds the assembled Code-Pilot components and runs the server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/code-pilot/internal/config"
	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/library"
	"github.com/sevigo/code-pilot/internal/llm"
	"github.com/sevigo/code-pilot/internal/metrics"
	"github.com/sevigo/code-pilot/internal/server"
)

// Services bundles the components shared by the server, the CLI and the
// terminal UI.
type Services struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Reviewer  core.Reviewer
	Library   *library.Service
	Assistant *llm.Assistant
}

func NewServices(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, reviewer core.Reviewer, lib *library.Service, assistant *llm.Assistant) *Services {
	return &Services{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Reviewer:  reviewer,
		Library:   lib,
		Assistant: assistant,
	}
}

// App is the HTTP server together with its review worker pool.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

func NewApp(cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run serves until ctx is cancelled or the server fails, then shuts down the
// server first and the worker pool second.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting Code-Pilot",
		"server_port", a.cfg.Server.Port,
		"llm_provider", a.cfg.AI.LLMProvider,
		"storage", a.cfg.Storage.Driver,
		"search", a.cfg.Search.Mode,
		"max_workers", a.cfg.Review.MaxWorkers,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.server.Start)
	g.Go(func() error {
		<-gctx.Done()
		return a.stop()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("code-pilot stopped with errors: %w", err)
	}
	a.logger.Info("Code-Pilot stopped successfully")
	return nil
}

func (a *App) stop() error {
	a.logger.Info("shutting down Code-Pilot services")

	// Stop accepting requests before draining the queue.
	serverErr := a.server.Stop(context.Background())
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()
	return serverErr
}

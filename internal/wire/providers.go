package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/wire"
	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/config"
	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/db"
	"github.com/sevigo/code-pilot/internal/jobs"
	"github.com/sevigo/code-pilot/internal/library"
	"github.com/sevigo/code-pilot/internal/llm"
	"github.com/sevigo/code-pilot/internal/logger"
	"github.com/sevigo/code-pilot/internal/metrics"
	"github.com/sevigo/code-pilot/internal/review"
	"github.com/sevigo/code-pilot/internal/server"
	"github.com/sevigo/code-pilot/internal/storage"
	"github.com/sevigo/code-pilot/internal/util"
)

// ConfigPath is the optional config file; empty means ./config.yaml.
type ConfigPath string

var ServicesSet = wire.NewSet(
	app.NewServices,
	metrics.New,
	llm.NewPromptManager,
	llm.NewGeneratorModel,
	llm.NewAssistant,
	provideConfig,
	provideLogger,
	provideGenerate,
	provideModelProvider,
	provideReviewProfile,
	provideCompletionClient,
	provideHistoryStore,
	provideReviewIndex,
	provideLibrary,
	provideReviewer,
)

var AppSet = wire.NewSet(
	ServicesSet,
	app.NewApp,
	server.NewServer,
	provideDispatcher,
	provideRouter,
)

func provideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(cfg.Logging, nil)
}

func provideGenerate(model llms.Model) llm.GenerateFunc {
	return llm.FromModel(model)
}

func provideModelProvider(cfg *config.Config) llm.ModelProvider {
	return llm.ModelProvider(cfg.AI.LLMProvider)
}

func provideReviewProfile(cfg *config.Config, logger *slog.Logger) (*config.ReviewProfile, error) {
	profile, err := config.LoadReviewProfile(cfg.Review.ProfilePath)
	if errors.Is(err, config.ErrProfileNotFound) {
		logger.Debug("no review profile found, using defaults", "path", cfg.Review.ProfilePath)
		return profile, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("loaded review profile", "path", cfg.Review.ProfilePath)
	return profile, nil
}

func provideCompletionClient(
	generate llm.GenerateFunc,
	prompts *llm.PromptManager,
	provider llm.ModelProvider,
	profile *config.ReviewProfile,
	m *metrics.Metrics,
	logger *slog.Logger,
) core.CompletionClient {
	client := llm.NewModelClient(generate, prompts, provider, profile.CustomInstructions, logger)
	return m.InstrumentClient(client)
}

func provideHistoryStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.HistoryStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		conn, cleanup, err := db.NewDatabase(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPostgresStore(conn.DB, logger), cleanup, nil
	case config.StorageDriverFile:
		store, err := storage.NewFileStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// provideReviewIndex returns nil unless vector search is enabled.
func provideReviewIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ReviewIndex, error) {
	if cfg.Search.Mode != config.SearchModeVector {
		return nil, nil
	}
	embedder, err := llm.NewEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	collection := util.CollectionName(cfg.Search.Collection, cfg.AI.EmbedderModel)
	return storage.NewQdrantIndex(cfg.Search.QdrantHost, collection, cfg.Search.MinScore, embedder, logger)
}

func provideLibrary(store storage.HistoryStore, assistant *llm.Assistant, index storage.ReviewIndex, logger *slog.Logger) *library.Service {
	return library.NewService(store, assistant, index, logger)
}

func provideReviewer(cfg *config.Config, client core.CompletionClient, lib *library.Service, logger *slog.Logger) core.Reviewer {
	driver := review.NewDriver(client, cfg.Review.MaxContinuations, cfg.Review.CallTimeout, logger)
	return review.NewOrchestrator(driver, lib, cfg.Review.MaxLinesPerChunk, logger)
}

func provideDispatcher(cfg *config.Config, reviewer core.Reviewer, m *metrics.Metrics, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(reviewer, cfg.Review.MaxWorkers, cfg.Review.QueueSize, m, logger)
}

func provideRouter(dispatcher core.JobDispatcher, lib *library.Service, assistant *llm.Assistant, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return server.NewRouter(dispatcher, lib, assistant, m, logger)
}

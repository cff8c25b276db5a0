// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/llm"
	"github.com/sevigo/code-pilot/internal/metrics"
	"github.com/sevigo/code-pilot/internal/server"
)

// InitializeServices builds the review stack without the HTTP server.
func InitializeServices(ctx context.Context, path ConfigPath) (*app.Services, func(), error) {
	cfg, err := provideConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger := provideLogger(cfg)
	metricsMetrics := metrics.New()
	model, err := llm.NewGeneratorModel(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	generateFunc := provideGenerate(model)
	promptManager, err := llm.NewPromptManager()
	if err != nil {
		return nil, nil, err
	}
	modelProvider := provideModelProvider(cfg)
	reviewProfile, err := provideReviewProfile(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	completionClient := provideCompletionClient(generateFunc, promptManager, modelProvider, reviewProfile, metricsMetrics, logger)
	historyStore, cleanup, err := provideHistoryStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	assistant := llm.NewAssistant(generateFunc, promptManager, modelProvider, logger)
	reviewIndex, err := provideReviewIndex(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	service := provideLibrary(historyStore, assistant, reviewIndex, logger)
	reviewer := provideReviewer(cfg, completionClient, service, logger)
	services := app.NewServices(cfg, logger, metricsMetrics, reviewer, service, assistant)
	return services, func() {
		cleanup()
	}, nil
}

// InitializeApp builds the HTTP server and everything behind it.
func InitializeApp(ctx context.Context, path ConfigPath) (*app.App, func(), error) {
	cfg, err := provideConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger := provideLogger(cfg)
	metricsMetrics := metrics.New()
	model, err := llm.NewGeneratorModel(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	generateFunc := provideGenerate(model)
	promptManager, err := llm.NewPromptManager()
	if err != nil {
		return nil, nil, err
	}
	modelProvider := provideModelProvider(cfg)
	reviewProfile, err := provideReviewProfile(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	completionClient := provideCompletionClient(generateFunc, promptManager, modelProvider, reviewProfile, metricsMetrics, logger)
	historyStore, cleanup, err := provideHistoryStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	assistant := llm.NewAssistant(generateFunc, promptManager, modelProvider, logger)
	reviewIndex, err := provideReviewIndex(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	service := provideLibrary(historyStore, assistant, reviewIndex, logger)
	reviewer := provideReviewer(cfg, completionClient, service, logger)
	jobDispatcher := provideDispatcher(cfg, reviewer, metricsMetrics, logger)
	handler := provideRouter(jobDispatcher, service, assistant, metricsMetrics, logger)
	serverServer := server.NewServer(cfg, handler, logger)
	appApp := app.NewApp(cfg, serverServer, jobDispatcher, logger)
	return appApp, func() {
		cleanup()
	}, nil
}

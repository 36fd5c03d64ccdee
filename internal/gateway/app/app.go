package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storyboarder/internal/gateway/config"
	"storyboarder/internal/gateway/handler"
	"storyboarder/internal/gateway/handler/rpc"
	"storyboarder/internal/gateway/server"
	"storyboarder/internal/gateway/session"
	"storyboarder/internal/llm"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/workflow"
)

type App struct {
	server   *server.Server
	registry *session.Registry
	closers  []func() error
}

func NewWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc := cfg.Pipeline

	// Dependencies
	text, images, err := llm.NewClients(ctx, llm.Settings{
		APIKey:            cfg.GeminiAPIKey,
		TextModel:         pc.TextModel,
		ImageModel:        pc.ImageModel,
		RequestsPerMinute: pc.RequestsPerMinute,
		ImagesPerMinute:   pc.ImagesPerMinute,
		Burst:             pc.Burst,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init generation clients: %w", err)
	}
	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		_ = text.Close()
		return nil, err
	}
	stages := pipeline.New(text, images, stores.images, pipeline.Options{ProductContext: pc.ProductContext})
	registry, err := session.New(stages, session.Options{
		CacheSize: pc.SessionCacheSize,
		Store:     stores.sessions,
		Logger:    logger,
		Sessions: []workflow.Option{
			workflow.WithBrief(pc.Brief),
			workflow.WithConcurrency(pc.Concurrency),
		},
	})
	if err != nil {
		_ = text.Close()
		return nil, err
	}

	storyboardHandler := rpc.NewStoryboardHandler(registry, logger)
	streamHandler := handler.NewSessionStreamHandler(registry, registry.Events(), logger)
	reportHandler := handler.NewReportHandler(registry, logger)

	// Routing & Server
	mux := server.NewMux(storyboardHandler, streamHandler, reportHandler)
	srv := server.New(cfg.Port, mux, logger)

	return &App{
		server:   srv,
		registry: registry,
		closers:  append([]func() error{text.Close}, stores.closers...),
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.registry.Close()
	for _, c := range a.closers {
		err = errors.Join(err, c())
	}
	return err
}

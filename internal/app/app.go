package app

import (
	"context"
	"fmt"
	"log/slog"

	"finnews/internal/config"
	"finnews/internal/infrastructure/alert"
	"finnews/internal/infrastructure/marketaux"
	"finnews/internal/infrastructure/newsapi"
	"finnews/internal/infrastructure/scraper"
	"finnews/internal/infrastructure/sentiment"
	"finnews/internal/infrastructure/storage"
	"finnews/internal/logging"
	"finnews/internal/ports"
	"finnews/internal/provider"
	"finnews/internal/usecase"
)

// Application wires configs to the pipeline and owns process-wide resources:
// the store connection and the loaded model.
type Application struct {
	cfg        config.Config
	store      *storage.SQLiteStore
	classifier *sentiment.Classifier
	pipeline   *usecase.Pipeline
}

// New builds a runnable application instance. Store-open and model-load
// failures are fatal here, before any pass starts.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	classifier, err := sentiment.New(cfg.Model)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load classifier: %w", err)
	}

	registry := provider.NewRegistry()
	if cfg.Providers.NewsAPI.Enabled && cfg.Providers.NewsAPI.APIKey != "" {
		registry.Register(newsapi.NewClient(cfg.Providers.NewsAPI, cfg.Fetch.PageSize,
			baseLogger.With("component", "provider.newsapi")))
	}
	if cfg.Providers.Marketaux.Enabled && cfg.Providers.Marketaux.APIKey != "" {
		registry.Register(marketaux.NewClient(cfg.Providers.Marketaux,
			baseLogger.With("component", "provider.marketaux")))
	}
	if len(cfg.Providers.Scrape) > 0 {
		registry.Register(scraper.New(cfg.Providers.Scrape, nil,
			baseLogger.With("component", "provider.scraper")))
	}

	source := provider.NewMultiSource(registry, baseLogger.With("component", "source"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Articles:   store,
		Sentiments: store,
		Classifier: classifier,
		Alerts:     alert.NewConsoleSink(nil),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, store: store, classifier: classifier, pipeline: pipeline}, nil
}

// Run performs a single pipeline pass; recurring execution is delegated to an
// external scheduler such as cron.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	return a.pipeline.Run(ctx, ports.FetchQuery{
		Categories: a.cfg.Fetch.Categories,
		Countries:  a.cfg.Fetch.Countries,
		Language:   a.cfg.Fetch.Language,
	})
}

// Close releases the model session and the store connection.
func (a *Application) Close() error {
	var firstErr error
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

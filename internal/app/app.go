package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"peerfeed/internal/config"
	"peerfeed/internal/domain"
	"peerfeed/internal/infrastructure/crossref"
	"peerfeed/internal/infrastructure/feedstore"
	"peerfeed/internal/infrastructure/listing"
	"peerfeed/internal/logging"
	"peerfeed/internal/usecase"
)

// Application wires configs to the pipeline and lifecycle orchestration.
type Application struct {
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := listing.NewScanner(cfg.Listing.URL, &http.Client{
		Timeout: time.Duration(cfg.Listing.TimeoutSeconds) * time.Second,
	})

	enricher := crossref.NewClient(cfg.CrossRef.APIURL, cfg.CrossRef.Mailto, &http.Client{
		Timeout: time.Duration(cfg.CrossRef.TimeoutSeconds) * time.Second,
	})

	store := feedstore.NewStore(cfg.Feed.OutputPath)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Enricher: enricher,
		Store:    store,
		Meta: domain.FeedMetadata{
			Title:       cfg.Feed.Title,
			Link:        cfg.Feed.Link,
			Description: cfg.Feed.Description,
			Language:    cfg.Feed.Language,
			Category:    cfg.Feed.Category,
		},
		MaxItems: cfg.Feed.MaxItems,
		Logger:   baseLogger.With("component", "pipeline"),
	})

	return &Application{pipeline: pipeline}
}

// Run performs a single pipeline execution; scheduling lives outside the
// process.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

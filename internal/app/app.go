// -----------------------------------------------------------------------
// Application - dependency wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/handlers"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/agent"
	"github.com/ternarybob/lumen/internal/services/answer"
	"github.com/ternarybob/lumen/internal/services/corpus"
	"github.com/ternarybob/lumen/internal/services/embeddings"
	"github.com/ternarybob/lumen/internal/services/geocode"
	"github.com/ternarybob/lumen/internal/services/index"
	"github.com/ternarybob/lumen/internal/services/llm"
	"github.com/ternarybob/lumen/internal/services/pdf"
	"github.com/ternarybob/lumen/internal/services/retrieval"
	"github.com/ternarybob/lumen/internal/services/router"
	"github.com/ternarybob/lumen/internal/services/scheduler"
	"github.com/ternarybob/lumen/internal/services/site"
	"github.com/ternarybob/lumen/internal/services/solar"
	"github.com/ternarybob/lumen/internal/services/status"
)

// App holds the wired application: configuration, services, and the HTTP
// handlers the server mounts.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	LLMService     interfaces.LLMService
	Retriever      interfaces.Retriever
	Scheduler      *scheduler.Service

	QueryHandler  *handlers.QueryHandler
	StatusHandler *handlers.StatusHandler
	APIHandler    *handlers.APIHandler
}

// unavailableSolar stands in when no NREL API key is configured: the
// server still answers municipality questions, and site queries report
// the missing key as a solar stage failure.
type unavailableSolar struct {
	err error
}

func (u unavailableSolar) Lookup(_ context.Context, _, _ float64) (*models.SolarResource, error) {
	return nil, u.err
}

// New wires the full application from configuration. The retrieval index
// is empty until Ingest runs.
func New(config *common.Config, storageManager interfaces.StorageManager, logger arbor.ILogger) (*App, error) {
	llmService, err := llm.NewLLMService(config, storageManager.KeyValueStorage(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM service: %w", err)
	}

	embedder := embeddings.NewService(llmService, config.LLM.EmbedDimension, logger)
	vectorIndex := index.NewMemoryIndex(embedder, logger)
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)

	retriever, err := retrieval.NewRetriever(config, loader, vectorIndex, storageManager.DocumentStorage(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	geocoder := geocode.NewService(&config.Geocode, logger)

	var solarService interfaces.SolarService
	solarService, err = solar.NewService(&config.Solar, storageManager.KeyValueStorage(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Solar service unavailable, site queries will report the failure")
		solarService = unavailableSolar{err: err}
	}

	orchestrator := agent.NewOrchestrator(
		config,
		router.NewRouter(llmService, logger),
		site.NewPipeline(llmService, geocoder, solarService, logger),
		retriever,
		answer.NewSynthesizer(llmService, logger),
		logger,
	)

	statusService := status.NewService(retriever, vectorIndex, storageManager.DocumentStorage(), llmService, logger)

	return &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		LLMService:     llmService,
		Retriever:      retriever,
		Scheduler:      scheduler.NewService(retriever, logger),
		QueryHandler:   handlers.NewQueryHandler(orchestrator, logger),
		StatusHandler:  handlers.NewStatusHandler(statusService, logger),
		APIHandler:     handlers.NewAPIHandler(llmService, logger),
	}, nil
}

// Ingest builds the retrieval index from the corpus and starts the
// scheduled rebuild loop if one is configured. It must complete before
// the server starts answering queries.
func (a *App) Ingest(ctx context.Context) error {
	a.Logger.Info().
		Str("corpus_dir", a.Config.Corpus.Dir).
		Str("strategy", a.Retriever.Strategy()).
		Msg("Building retrieval index")

	if err := a.Retriever.Build(ctx); err != nil {
		return fmt.Errorf("initial corpus ingestion failed: %w", err)
	}

	if err := a.Scheduler.Start(a.Config.Ingest.RebuildSchedule); err != nil {
		return err
	}

	return nil
}

// Close releases application resources in reverse dependency order.
func (a *App) Close() error {
	a.Scheduler.Stop()

	if err := a.LLMService.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
	}

	if err := a.StorageManager.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------
// Ingest Scheduler - periodic corpus rebuilds on a cron schedule
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/interfaces"
)

// Service rebuilds the retrieval index on a cron schedule, picking up
// corpus files that changed on disk. An empty schedule disables it and
// ingestion runs once at startup only.
type Service struct {
	retriever interfaces.Retriever
	cron      *cron.Cron
	logger    arbor.ILogger

	mu         sync.Mutex
	running    bool
	rebuilding bool
}

// NewService creates an ingest scheduler for the retriever.
func NewService(retriever interfaces.Retriever, logger arbor.ILogger) *Service {
	return &Service{
		retriever: retriever,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the rebuild job and begins the scheduler. An empty
// expression is a no-op.
func (s *Service) Start(cronExpr string) error {
	if cronExpr == "" {
		s.logger.Info().Msg("Scheduled corpus rebuilds disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(cronExpr, s.runRebuild); err != nil {
		return fmt.Errorf("invalid rebuild schedule %q: %w", cronExpr, err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", cronExpr).
		Msg("Scheduled corpus rebuilds enabled")
	return nil
}

// Stop halts the scheduler and waits for a running rebuild to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// Stop returns a context that is done once running jobs complete.
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Ingest scheduler stopped")
}

// runRebuild performs one rebuild, skipping the tick if one is already in
// flight.
func (s *Service) runRebuild() {
	s.mu.Lock()
	if s.rebuilding {
		s.mu.Unlock()
		s.logger.Warn().Msg("Skipping scheduled rebuild, previous rebuild still running")
		return
	}
	s.rebuilding = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.rebuilding = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Scheduled corpus rebuild starting")
	if err := s.retriever.Build(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled corpus rebuild failed")
		return
	}
	s.logger.Info().Msg("Scheduled corpus rebuild completed")
}

package status

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// Status is the application status snapshot served at /api/status.
type Status struct {
	Status            string                `json:"status"`
	Version           string                `json:"version"`
	RetrievalStrategy string                `json:"retrieval_strategy"`
	IndexedFragments  int                   `json:"indexed_fragments"`
	Documents         *models.DocumentStats `json:"documents,omitempty"`
	LLMHealthy        bool                  `json:"llm_healthy"`
	Timestamp         time.Time             `json:"timestamp"`
}

// FragmentCounter reports the size of the vector index.
type FragmentCounter interface {
	Len() int
}

// Service composes the status snapshot from the index, document store,
// and LLM health probe.
type Service struct {
	retriever interfaces.Retriever
	index     FragmentCounter
	documents interfaces.DocumentStorage
	llm       interfaces.LLMService
	logger    arbor.ILogger
}

// NewService creates a status service.
func NewService(retriever interfaces.Retriever, index FragmentCounter, documents interfaces.DocumentStorage, llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		retriever: retriever,
		index:     index,
		documents: documents,
		llm:       llm,
		logger:    logger,
	}
}

// GetStatus returns the current snapshot. Storage or health failures
// degrade individual fields, not the whole response.
func (s *Service) GetStatus(ctx context.Context) *Status {
	status := &Status{
		Status:            "ok",
		Version:           common.GetVersion(),
		RetrievalStrategy: s.retriever.Strategy(),
		IndexedFragments:  s.index.Len(),
		Timestamp:         time.Now(),
	}

	stats, err := s.documents.GetStats()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read document stats")
	} else {
		status.Documents = stats
	}

	status.LLMHealthy = s.llm.HealthCheck(ctx) == nil

	return status
}

package retrieval

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/corpus"
	"github.com/ternarybob/lumen/internal/services/index"
)

// NewRetriever selects the retrieval strategy from configuration.
func NewRetriever(config *common.Config, loader *corpus.Loader, idx *index.MemoryIndex, documents interfaces.DocumentStorage, logger arbor.ILogger) (interfaces.Retriever, error) {
	switch config.Retrieval.Strategy {
	case StrategyFlat:
		return NewFlatRetriever(config, loader, idx, logger)
	case StrategyHierarchical:
		return NewHierarchicalRetriever(config, loader, idx, documents, logger)
	default:
		return nil, fmt.Errorf("unknown retrieval strategy: %s", config.Retrieval.Strategy)
	}
}

// JurisdictionFilter scopes retrieval to one municipality. Empty
// municipality means no scoping.
func JurisdictionFilter(municipality string) interfaces.TagFilter {
	if municipality == "" {
		return nil
	}
	return func(tags map[string]string) bool {
		return tags[models.TagMunicipality] == municipality
	}
}

// -----------------------------------------------------------------------
// Flat Retriever - single-granularity chunking, matched fragments are
// returned directly as answer context
// -----------------------------------------------------------------------

package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/chunker"
	"github.com/ternarybob/lumen/internal/services/corpus"
	"github.com/ternarybob/lumen/internal/services/index"
)

const StrategyFlat = "flat"

// FlatRetriever chunks documents at one granularity and serves the matched
// fragments themselves.
type FlatRetriever struct {
	loader  *corpus.Loader
	chunker *chunker.Chunker
	index   *index.MemoryIndex
	topK    int
	logger  arbor.ILogger

	buildMu sync.Mutex
}

var _ interfaces.Retriever = (*FlatRetriever)(nil)

// NewFlatRetriever creates a flat retriever using the configured chunk
// geometry and top-k.
func NewFlatRetriever(config *common.Config, loader *corpus.Loader, idx *index.MemoryIndex, logger arbor.ILogger) (*FlatRetriever, error) {
	ck, err := chunker.New(config.Retrieval.FlatChunkSize, config.Retrieval.FlatChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid flat chunk configuration: %w", err)
	}

	return &FlatRetriever{
		loader:  loader,
		chunker: ck,
		index:   idx,
		topK:    config.Retrieval.TopK,
		logger:  logger,
	}, nil
}

// Build ingests the corpus from scratch: load, chunk, embed, index.
// Repeat calls rebuild; concurrent calls serialize.
func (r *FlatRetriever) Build(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	documents, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("corpus load failed: %w", err)
	}

	r.index.Reset()

	fragmentCount := 0
	for i := range documents {
		fragments := r.chunker.Split(&documents[i], "")
		for _, fragment := range fragments {
			if err := r.index.Insert(ctx, fragment); err != nil {
				return fmt.Errorf("indexing failed for document %s: %w", documents[i].SourceID, err)
			}
		}
		fragmentCount += len(fragments)
	}

	r.logger.Info().
		Str("strategy", StrategyFlat).
		Int("documents", len(documents)).
		Int("fragments", fragmentCount).
		Msg("Retrieval index built")

	return nil
}

// Retrieve returns the top-k fragments most similar to the question.
func (r *FlatRetriever) Retrieve(ctx context.Context, question string, filter interfaces.TagFilter) (models.RetrievalResult, error) {
	return r.index.Query(ctx, question, r.topK, filter)
}

// Strategy names the variant.
func (r *FlatRetriever) Strategy() string { return StrategyFlat }

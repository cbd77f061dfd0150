// -----------------------------------------------------------------------
// Hierarchical Retriever - small child chunks are matched, full parent
// documents are returned as answer context
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

const StrategyHierarchical = "hierarchical"

// HierarchicalRetriever indexes small child chunks for precise matching
// and resolves each match to its stored parent document, so the answer
// model sees full surrounding context.
type HierarchicalRetriever struct {
	loader    *corpus.Loader
	chunker   *chunker.Chunker
	index     *index.MemoryIndex
	documents interfaces.DocumentStorage
	topK      int
	logger    arbor.ILogger

	buildMu sync.Mutex
}

var _ interfaces.Retriever = (*HierarchicalRetriever)(nil)

// NewHierarchicalRetriever creates a hierarchical retriever using the
// configured child chunk geometry and top-k.
func NewHierarchicalRetriever(config *common.Config, loader *corpus.Loader, idx *index.MemoryIndex, documents interfaces.DocumentStorage, logger arbor.ILogger) (*HierarchicalRetriever, error) {
	ck, err := chunker.New(config.Retrieval.ChildChunkSize, config.Retrieval.ChildChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid child chunk configuration: %w", err)
	}

	return &HierarchicalRetriever{
		loader:    loader,
		chunker:   ck,
		index:     idx,
		documents: documents,
		topK:      config.Retrieval.TopK,
		logger:    logger,
	}, nil
}

// Build ingests the corpus from scratch: load, store parents verbatim,
// chunk into children, embed, index. Repeat calls rebuild; concurrent
// calls serialize.
func (r *HierarchicalRetriever) Build(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	documents, err := r.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("corpus load failed: %w", err)
	}

	r.index.Reset()
	if err := r.documents.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear document store: %w", err)
	}

	childCount := 0
	for i := range documents {
		doc := &documents[i]
		if err := r.documents.SaveDocument(doc); err != nil {
			return fmt.Errorf("failed to store parent document %s: %w", doc.SourceID, err)
		}

		children := r.chunker.Split(doc, doc.ID)
		for _, child := range children {
			if err := r.index.Insert(ctx, child); err != nil {
				return fmt.Errorf("indexing failed for document %s: %w", doc.SourceID, err)
			}
		}
		childCount += len(children)
	}

	r.logger.Info().
		Str("strategy", StrategyHierarchical).
		Int("documents", len(documents)).
		Int("children", childCount).
		Msg("Retrieval index built")

	return nil
}

// Retrieve matches child fragments, deduplicates them by parent, and
// returns the parent documents ranked by their best child's score. At
// most k parents come back; fewer when multiple matched children share
// a parent.
func (r *HierarchicalRetriever) Retrieve(ctx context.Context, question string, filter interfaces.TagFilter) (models.RetrievalResult, error) {
	children, err := r.index.Query(ctx, question, r.topK, filter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(children))
	result := make(models.RetrievalResult, 0, len(children))
	for _, child := range children {
		parentID := child.Fragment.ParentID
		if parentID == "" || seen[parentID] {
			continue
		}
		seen[parentID] = true

		parent, err := r.documents.GetDocument(parentID)
		if err != nil {
			// A dangling parent reference means the store and index
			// disagree; skip the unit rather than fail the query.
			r.logger.Warn().Err(err).
				Str("parent_id", parentID).
				Str("fragment_id", child.Fragment.ID).
				Msg("Matched fragment has no resolvable parent")
			continue
		}

		// Children arrive sorted by score, so the first child seen for
		// a parent carries that parent's best score.
		result = append(result, models.RetrievalUnit{
			Document: parent,
			Score:    child.Score,
		})
	}

	return result, nil
}

// Strategy names the variant.
func (r *HierarchicalRetriever) Strategy() string { return StrategyHierarchical }

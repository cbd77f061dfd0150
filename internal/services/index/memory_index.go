package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// entry pairs a fragment with its embedding. The slice position doubles as
// insertion order, which breaks score ties deterministically.
type entry struct {
	fragment models.Fragment
	vector   []float32
}

// MemoryIndex is a brute-force cosine-similarity index over embedded
// fragments. Ingestion is a separate single-writer phase; once built, the
// index is read-mostly and safe for concurrent queries.
type MemoryIndex struct {
	mu        sync.RWMutex
	embedder  interfaces.EmbeddingService
	logger    arbor.ILogger
	dimension int
	entries   []entry
}

// NewMemoryIndex creates an empty index bound to an embedding service.
func NewMemoryIndex(embedder interfaces.EmbeddingService, logger arbor.ILogger) *MemoryIndex {
	return &MemoryIndex{
		embedder:  embedder,
		logger:    logger,
		dimension: embedder.Dimension(),
	}
}

// Insert embeds the fragment's text and stores the vector. An embedding
// failure is reported to the caller, never swallowed: a partial ingestion
// must be visible, not silent.
func (x *MemoryIndex) Insert(ctx context.Context, fragment models.Fragment) error {
	vector, err := x.embedder.GenerateEmbedding(ctx, fragment.Text)
	if err != nil {
		return fmt.Errorf("failed to embed fragment %s: %w", fragment.ID, err)
	}
	return x.InsertVector(fragment, vector)
}

// InsertVector stores a fragment with a pre-computed embedding.
func (x *MemoryIndex) InsertVector(fragment models.Fragment, vector []float32) error {
	if len(vector) != x.dimension {
		return fmt.Errorf("vector dimension mismatch for fragment %s: expected %d, got %d",
			fragment.ID, x.dimension, len(vector))
	}

	x.mu.Lock()
	x.entries = append(x.entries, entry{fragment: fragment, vector: vector})
	x.mu.Unlock()
	return nil
}

// Query embeds the text and returns the top-k fragments by cosine
// similarity, most similar first. A nil filter matches all fragments; a
// filter scopes the search to fragments whose tags satisfy it. Ties are
// broken by insertion order.
func (x *MemoryIndex) Query(ctx context.Context, text string, k int, filter interfaces.TagFilter) (models.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryVector, err := x.embedder.GenerateQueryEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, len(x.entries))
	for i := range x.entries {
		if filter != nil && !filter(x.entries[i].fragment.Tags) {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: cosineSimilarity(queryVector, x.entries[i].vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].idx < candidates[j].idx
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	result := make(models.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		fragment := x.entries[c.idx].fragment
		result = append(result, models.RetrievalUnit{
			Fragment: &fragment,
			Score:    c.score,
		})
	}

	x.logger.Debug().
		Int("candidates", len(x.entries)).
		Int("returned", len(result)).
		Msg("Vector query completed")

	return result, nil
}

// Len returns the number of indexed fragments.
func (x *MemoryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Reset drops every indexed fragment. Used by the idempotent
// rebuild-from-scratch ingestion policy.
func (x *MemoryIndex) Reset() {
	x.mu.Lock()
	x.entries = nil
	x.mu.Unlock()
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors score 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package index

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/models"
)

// stubEmbedder maps known strings to fixed vectors so similarity ordering
// is fully predictable.
type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
}

func (s *stubEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, s.dim), nil
}

func (s *stubEmbedder) GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, text)
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func (s *stubEmbedder) IsAvailable(_ context.Context) bool { return true }

func newTestIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	embedder := &stubEmbedder{
		dim: 3,
		vectors: map[string][]float32{
			"north": {0, 1, 0},
			"east":  {1, 0, 0},
			"mixed": {1, 1, 0},
			"up":    {0, 0, 1},
		},
	}
	return NewMemoryIndex(embedder, common.GetLogger())
}

func frag(id, text, municipality string) models.Fragment {
	tags := map[string]string{}
	if municipality != "" {
		tags[models.TagMunicipality] = municipality
	}
	return models.Fragment{ID: id, Text: text, Tags: tags}
}

func TestMemoryIndexRanking(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, frag("frag_east", "east", "barre")))
	require.NoError(t, idx.Insert(ctx, frag("frag_north", "north", "barre")))
	require.NoError(t, idx.Insert(ctx, frag("frag_mixed", "mixed", "barre")))

	result, err := idx.Query(ctx, "north", 3, nil)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "frag_north", result[0].Fragment.ID)
	assert.Equal(t, "frag_mixed", result[1].Fragment.ID)
	assert.Equal(t, "frag_east", result[2].Fragment.ID)

	assert.InDelta(t, 1.0, result[0].Score, 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, result[1].Score, 1e-9)

	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i].Score, result[i-1].Score, "scores must be non-increasing")
	}
}

func TestMemoryIndexTopKBound(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, frag("frag_1", "east", "")))
	require.NoError(t, idx.Insert(ctx, frag("frag_2", "north", "")))
	require.NoError(t, idx.Insert(ctx, frag("frag_3", "mixed", "")))

	result, err := idx.Query(ctx, "mixed", 2, nil)
	require.NoError(t, err)
	assert.Len(t, result, 2)

	// Fewer candidates than k is fine.
	result, err = idx.Query(ctx, "mixed", 10, nil)
	require.NoError(t, err)
	assert.Len(t, result, 3)

	_, err = idx.Query(ctx, "mixed", 0, nil)
	assert.Error(t, err)
}

func TestMemoryIndexTagFilter(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, frag("frag_barre", "north", "barre")))
	require.NoError(t, idx.Insert(ctx, frag("frag_berlin", "north", "berlin")))

	filter := func(tags map[string]string) bool {
		return tags[models.TagMunicipality] == "berlin"
	}

	result, err := idx.Query(ctx, "north", 10, filter)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "frag_berlin", result[0].Fragment.ID)
}

func TestMemoryIndexTieBreakByInsertionOrder(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// Identical vectors score identically against any query.
	require.NoError(t, idx.Insert(ctx, frag("frag_first", "north", "")))
	require.NoError(t, idx.Insert(ctx, frag("frag_second", "north", "")))

	result, err := idx.Query(ctx, "north", 2, nil)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "frag_first", result[0].Fragment.ID)
	assert.Equal(t, "frag_second", result[1].Fragment.ID)
}

func TestMemoryIndexReset(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, frag("frag_1", "east", "")))
	assert.Equal(t, 1, idx.Len())

	idx.Reset()
	assert.Equal(t, 0, idx.Len())

	result, err := idx.Query(ctx, "east", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)
	err := idx.InsertVector(frag("frag_bad", "text", ""), []float32{1, 2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

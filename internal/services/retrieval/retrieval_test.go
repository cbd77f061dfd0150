package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/corpus"
	"github.com/ternarybob/lumen/internal/services/index"
	"github.com/ternarybob/lumen/internal/services/pdf"
)

// keywordEmbedder gives texts mentioning solar one axis and everything
// else the other, so similarity ordering is fully predictable.
type keywordEmbedder struct{}

func (keywordEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "solar") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func (e keywordEmbedder) GenerateQueryEmbedding(ctx context.Context, text string) ([]float32, error) {
	return e.GenerateEmbedding(ctx, text)
}

func (keywordEmbedder) Dimension() int { return 2 }

func (keywordEmbedder) IsAvailable(_ context.Context) bool { return true }

// memoryDocStorage is a map-backed document store for tests.
type memoryDocStorage struct {
	docs map[string]*models.Document
}

func newMemoryDocStorage() *memoryDocStorage {
	return &memoryDocStorage{docs: map[string]*models.Document{}}
}

func (s *memoryDocStorage) SaveDocument(doc *models.Document) error {
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *memoryDocStorage) SaveDocuments(docs []*models.Document) error {
	for _, doc := range docs {
		if err := s.SaveDocument(doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryDocStorage) GetDocument(id string) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return doc, nil
}

func (s *memoryDocStorage) CountDocuments() (int, error) { return len(s.docs), nil }

func (s *memoryDocStorage) GetStats() (*models.DocumentStats, error) {
	stats := &models.DocumentStats{
		TotalDocuments:          len(s.docs),
		DocumentsByJurisdiction: map[string]int{},
		LastUpdated:             time.Now(),
	}
	for _, doc := range s.docs {
		stats.DocumentsByJurisdiction[doc.Municipality()]++
	}
	return stats, nil
}

func (s *memoryDocStorage) ClearAll() error {
	s.docs = map[string]*models.Document{}
	return nil
}

func testConfig(t *testing.T, strategy string) *common.Config {
	t.Helper()
	config := common.DefaultConfig()
	config.Retrieval.Strategy = strategy
	config.Retrieval.TopK = 10
	// Small geometry so short fixtures still split into several chunks.
	config.Retrieval.FlatChunkSize = 60
	config.Retrieval.FlatChunkOverlap = 10
	config.Retrieval.ChildChunkSize = 60
	config.Retrieval.ChildChunkOverlap = 10
	config.Corpus.Dir = t.TempDir()
	config.Corpus.Municipalities = []string{"ashburnham", "barre"}
	return config
}

func writeCorpusFile(t *testing.T, dir, municipality, name, content string) {
	t.Helper()
	municipalityDir := filepath.Join(dir, municipality)
	require.NoError(t, os.MkdirAll(municipalityDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(municipalityDir, name), []byte(content), 0644))
}

// solarText is long enough to split into multiple chunks that all mention
// solar, so several children of one parent match the same query.
func solarText() string {
	return strings.Repeat("Solar arrays are permitted here subject to review. ", 5)
}

func TestFlatRetrieverRanksMatchingFragmentsFirst(t *testing.T) {
	config := testConfig(t, StrategyFlat)
	writeCorpusFile(t, config.Corpus.Dir, "barre", "solar.txt", solarText())
	writeCorpusFile(t, config.Corpus.Dir, "ashburnham", "noise.txt",
		strings.Repeat("Parking setbacks apply to accessory structures. ", 5))

	logger := common.GetLogger()
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)
	idx := index.NewMemoryIndex(keywordEmbedder{}, logger)

	retriever, err := NewFlatRetriever(config, loader, idx, logger)
	require.NoError(t, err)
	require.NoError(t, retriever.Build(context.Background()))
	assert.Equal(t, StrategyFlat, retriever.Strategy())

	result, err := retriever.Retrieve(context.Background(), "solar farms", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result)
	assert.LessOrEqual(t, len(result), config.Retrieval.TopK)

	assert.Contains(t, strings.ToLower(result[0].Text()), "solar")
	assert.Equal(t, "barre", result[0].Tags()[models.TagMunicipality])
	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i].Score, result[i-1].Score)
	}
}

func TestHierarchicalRetrieverDeduplicatesParents(t *testing.T) {
	config := testConfig(t, StrategyHierarchical)
	writeCorpusFile(t, config.Corpus.Dir, "barre", "solar.txt", solarText())

	logger := common.GetLogger()
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)
	idx := index.NewMemoryIndex(keywordEmbedder{}, logger)
	docs := newMemoryDocStorage()

	retriever, err := NewHierarchicalRetriever(config, loader, idx, docs, logger)
	require.NoError(t, err)
	require.NoError(t, retriever.Build(context.Background()))

	// Several children exist and all match the query.
	require.Greater(t, idx.Len(), 1)

	result, err := retriever.Retrieve(context.Background(), "solar access", nil)
	require.NoError(t, err)
	require.Len(t, result, 1, "children of one parent must collapse to a single unit")

	unit := result[0]
	require.NotNil(t, unit.Document)
	assert.Nil(t, unit.Fragment)
	assert.Equal(t, "barre/solar.txt", unit.Document.SourceID)
	assert.Equal(t, solarText(), unit.Document.Content+" ",
		"parent unit must carry the verbatim source text")
}

func TestHierarchicalRetrieverScopesByJurisdiction(t *testing.T) {
	config := testConfig(t, StrategyHierarchical)
	writeCorpusFile(t, config.Corpus.Dir, "barre", "solar.txt", solarText())
	writeCorpusFile(t, config.Corpus.Dir, "ashburnham", "solar.txt", solarText())

	logger := common.GetLogger()
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)
	idx := index.NewMemoryIndex(keywordEmbedder{}, logger)
	docs := newMemoryDocStorage()

	retriever, err := NewHierarchicalRetriever(config, loader, idx, docs, logger)
	require.NoError(t, err)
	require.NoError(t, retriever.Build(context.Background()))

	result, err := retriever.Retrieve(context.Background(), "solar", JurisdictionFilter("ashburnham"))
	require.NoError(t, err)
	require.NotEmpty(t, result)
	for _, unit := range result {
		assert.Equal(t, "ashburnham", unit.Tags()[models.TagMunicipality])
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	config := testConfig(t, StrategyHierarchical)
	writeCorpusFile(t, config.Corpus.Dir, "barre", "solar.txt", solarText())

	logger := common.GetLogger()
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)
	idx := index.NewMemoryIndex(keywordEmbedder{}, logger)
	docs := newMemoryDocStorage()

	retriever, err := NewHierarchicalRetriever(config, loader, idx, docs, logger)
	require.NoError(t, err)

	require.NoError(t, retriever.Build(context.Background()))
	firstChildren := idx.Len()
	firstDocs, _ := docs.CountDocuments()

	require.NoError(t, retriever.Build(context.Background()))
	assert.Equal(t, firstChildren, idx.Len(), "rebuild must not accumulate fragments")
	secondDocs, _ := docs.CountDocuments()
	assert.Equal(t, firstDocs, secondDocs, "rebuild must not accumulate documents")
}

func TestNewRetrieverSelectsStrategy(t *testing.T) {
	logger := common.GetLogger()

	config := testConfig(t, StrategyFlat)
	loader := corpus.NewLoader(config, pdf.NewExtractor(logger), logger)
	idx := index.NewMemoryIndex(keywordEmbedder{}, logger)
	docs := newMemoryDocStorage()

	retriever, err := NewRetriever(config, loader, idx, docs, logger)
	require.NoError(t, err)
	assert.Equal(t, StrategyFlat, retriever.Strategy())

	config.Retrieval.Strategy = StrategyHierarchical
	retriever, err = NewRetriever(config, loader, idx, docs, logger)
	require.NoError(t, err)
	assert.Equal(t, StrategyHierarchical, retriever.Strategy())

	config.Retrieval.Strategy = "graph"
	_, err = NewRetriever(config, loader, idx, docs, logger)
	assert.Error(t, err)
}

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/pdf"
)

func newTestLoader(t *testing.T, municipalities []string) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	config := common.DefaultConfig()
	config.Corpus.Dir = dir
	config.Corpus.Municipalities = municipalities

	logger := common.GetLogger()
	return NewLoader(config, pdf.NewExtractor(logger), logger), dir
}

func writeCorpusFile(t *testing.T, dir, municipality, name, content string) {
	t.Helper()
	municipalityDir := filepath.Join(dir, municipality)
	require.NoError(t, os.MkdirAll(municipalityDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(municipalityDir, name), []byte(content), 0644))
}

func TestLoaderTagsDocumentsByMunicipality(t *testing.T) {
	loader, dir := newTestLoader(t, []string{"ashburnham", "barre"})

	writeCorpusFile(t, dir, "ashburnham", "zoning.txt", "Solar installations permitted in district R-1.")
	writeCorpusFile(t, dir, "barre", "bylaws.md", "# Bylaws\nGround-mounted systems require a permit.")

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byMunicipality := map[string]models.Document{}
	for _, doc := range docs {
		byMunicipality[doc.Municipality()] = doc
	}

	ashburnham, ok := byMunicipality["ashburnham"]
	require.True(t, ok)
	assert.Equal(t, "zoning", ashburnham.Title)
	assert.Equal(t, "ashburnham/zoning.txt", ashburnham.SourceID)
	assert.Contains(t, ashburnham.Content, "district R-1")

	barre, ok := byMunicipality["barre"]
	require.True(t, ok)
	assert.Contains(t, barre.Content, "Ground-mounted")
}

func TestLoaderConvertsHTML(t *testing.T) {
	loader, dir := newTestLoader(t, []string{"berlin"})

	html := `<html><head><title>Berlin Zoning Code</title><script>ignore()</script></head>` +
		`<body><h1>Article 5</h1><p>Setback requirements apply.</p></body></html>`
	writeCorpusFile(t, dir, "berlin", "code.html", html)

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Berlin Zoning Code", docs[0].Title)
	assert.Contains(t, docs[0].Content, "Article 5")
	assert.Contains(t, docs[0].Content, "Setback requirements")
	assert.NotContains(t, docs[0].Content, "ignore()")
}

func TestLoaderSkipsMissingAndUnsupported(t *testing.T) {
	loader, dir := newTestLoader(t, []string{"ashburnham", "missing-town"})

	writeCorpusFile(t, dir, "ashburnham", "notes.txt", "content")
	writeCorpusFile(t, dir, "ashburnham", "image.png", "\x89PNG")
	writeCorpusFile(t, dir, "ashburnham", "empty.txt", "   ")

	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes", docs[0].Title)
}

func TestLoaderFailsOnMissingCorpusRoot(t *testing.T) {
	config := common.DefaultConfig()
	config.Corpus.Dir = filepath.Join(t.TempDir(), "does-not-exist")
	logger := common.GetLogger()
	loader := NewLoader(config, pdf.NewExtractor(logger), logger)

	_, err := loader.Load(context.Background())
	assert.Error(t, err)
}

package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "hierarchical", config.Retrieval.Strategy)
	assert.Equal(t, 10, config.Retrieval.TopK)
	assert.Equal(t, 1000, config.Retrieval.FlatChunkSize)
	assert.Equal(t, 200, config.Retrieval.FlatChunkOverlap)
	assert.Equal(t, 500, config.Retrieval.ChildChunkSize)
	assert.Equal(t, 100, config.Retrieval.ChildChunkOverlap)
	assert.Equal(t, 1536, config.LLM.EmbedDimension)
	assert.Equal(t, []string{"ashburnham", "barre", "berlin"}, config.Corpus.Municipalities)
}

func TestLoadFromFilesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lumen.toml")
	content := `
[server]
port = 9090
host = "0.0.0.0"

[retrieval]
strategy = "flat"
top_k = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, "flat", config.Retrieval.Strategy)
	assert.Equal(t, 5, config.Retrieval.TopK)
	// Untouched sections keep defaults.
	assert.Equal(t, 1000, config.Retrieval.FlatChunkSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_SERVER_PORT", "7070")
	t.Setenv("LUMEN_RETRIEVAL_STRATEGY", "flat")
	t.Setenv("LUMEN_CORPUS_MUNICIPALITIES", "barre, berlin")

	config := DefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "flat", config.Retrieval.Strategy)
	assert.Equal(t, []string{"barre", "berlin"}, config.Corpus.Municipalities)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Retrieval.Strategy = "graph" }},
		{"flat overlap not less than size", func(c *Config) { c.Retrieval.FlatChunkOverlap = c.Retrieval.FlatChunkSize }},
		{"child overlap not less than size", func(c *Config) { c.Retrieval.ChildChunkOverlap = c.Retrieval.ChildChunkSize + 1 }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }},
		{"bad llm timeout", func(c *Config) { c.LLM.Timeout = "fast" }},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := DefaultConfig()
	ApplyFlagOverrides(config, 6060, "127.0.0.1")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)

	// Zero values leave config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	t.Setenv("NREL_API_KEY", "")
	t.Setenv("LUMEN_SOLAR_API_KEY", "")

	// Config fallback when nothing else is set.
	key, err := ResolveAPIKey(t.Context(), nil, "nrel_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	// Environment wins over config.
	t.Setenv("NREL_API_KEY", "from-env")
	key, err = ResolveAPIKey(t.Context(), nil, "nrel_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	// The prefixed variable wins over the bare one.
	t.Setenv("LUMEN_SOLAR_API_KEY", "from-prefixed-env")
	key, err = ResolveAPIKey(t.Context(), nil, "nrel_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed-env", key)

	// Nothing anywhere is an error.
	t.Setenv("LUMEN_SOLAR_API_KEY", "")
	t.Setenv("NREL_API_KEY", "")
	_, err = ResolveAPIKey(t.Context(), nil, "nrel_api_key", "")
	assert.Error(t, err)
}

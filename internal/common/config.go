package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/lumen/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	LLM         LLMConfig       `toml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Corpus      CorpusConfig    `toml:"corpus"`
	Ingest      IngestConfig    `toml:"ingest"`
	Geocode     GeocodeConfig   `toml:"geocode"`
	Solar       SolarConfig     `toml:"solar"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean rebuilds
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMConfig selects the chat provider and fixes the embedding contract.
// Embeddings always ride the Gemini client; Claude serves chat only.
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"oneof=gemini claude"`
	EmbedDimension  int    `toml:"embed_dimension" validate:"gt=0"`
	Timeout         string `toml:"timeout"` // e.g. "30s", applied per external call
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	EmbedModel  string  `toml:"embed_model"`
	Temperature float32 `toml:"temperature"`
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// RetrievalConfig selects the strategy and the two chunking granularities.
// Flat retrieval indexes large fragments and returns them directly; the
// hierarchical child layer indexes small fragments and answers with parents.
type RetrievalConfig struct {
	Strategy            string `toml:"strategy" validate:"oneof=flat hierarchical"`
	TopK                int    `toml:"top_k" validate:"gt=0"`
	FlatChunkSize       int    `toml:"flat_chunk_size" validate:"gt=0"`
	FlatChunkOverlap    int    `toml:"flat_chunk_overlap" validate:"gte=0"`
	ChildChunkSize      int    `toml:"child_chunk_size" validate:"gt=0"`
	ChildChunkOverlap   int    `toml:"child_chunk_overlap" validate:"gte=0"`
	ScopeByJurisdiction bool   `toml:"scope_by_jurisdiction"` // scope context to tags mentioned in the query
}

// CorpusConfig points at the regulation archive: one directory per
// municipality, each file tagged with its jurisdiction before chunking.
type CorpusConfig struct {
	Dir            string   `toml:"dir" validate:"required"`
	Municipalities []string `toml:"municipalities"`
}

type IngestConfig struct {
	// RebuildSchedule is a cron expression for periodic corpus rebuilds.
	// Empty disables scheduled rebuilds; ingestion then runs once at startup.
	RebuildSchedule string `toml:"rebuild_schedule"`
}

type GeocodeConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	UserAgent      string `toml:"user_agent" validate:"required"`
	RequestTimeout string `toml:"request_timeout"`
	RateLimit      string `toml:"rate_limit"` // minimum interval between requests
}

type SolarConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url" validate:"required,url"`
	RequestTimeout string `toml:"request_timeout"`
}

// DefaultConfig returns the baseline configuration. Chunking defaults match
// the regulation corpus: 1000/200 for flat retrieval, 500/100 for the
// hierarchical child layer, top-k 10.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/lumen",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
			EmbedDimension:  1536,
			Timeout:         "30s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			EmbedModel:  "gemini-embedding-001",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   2048,
			Temperature: 0.2,
		},
		Retrieval: RetrievalConfig{
			Strategy:          "hierarchical",
			TopK:              10,
			FlatChunkSize:     1000,
			FlatChunkOverlap:  200,
			ChildChunkSize:    500,
			ChildChunkOverlap: 100,
		},
		Corpus: CorpusConfig{
			Dir:            "./corpus",
			Municipalities: []string{"ashburnham", "barre", "berlin"},
		},
		Geocode: GeocodeConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			UserAgent:      "lumen-geocoder",
			RequestTimeout: "10s",
			RateLimit:      "1s",
		},
		Solar: SolarConfig{
			BaseURL:        "https://developer.nrel.gov",
			RequestTimeout: "15s",
		},
	}
}

// LoadFromFiles loads configuration with layered precedence:
// defaults -> config files (later files override earlier) -> environment.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints plus the chunking invariants the
// validator tags cannot express (overlap must be strictly less than size).
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Retrieval.FlatChunkOverlap >= c.Retrieval.FlatChunkSize {
		return fmt.Errorf("invalid configuration: flat_chunk_overlap (%d) must be less than flat_chunk_size (%d)",
			c.Retrieval.FlatChunkOverlap, c.Retrieval.FlatChunkSize)
	}
	if c.Retrieval.ChildChunkOverlap >= c.Retrieval.ChildChunkSize {
		return fmt.Errorf("invalid configuration: child_chunk_overlap (%d) must be less than child_chunk_size (%d)",
			c.Retrieval.ChildChunkOverlap, c.Retrieval.ChildChunkSize)
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
	}

	return nil
}

// LLMTimeout returns the parsed per-call timeout for external LLM requests.
// Validate guarantees the duration parses.
func (c *Config) LLMTimeout() time.Duration {
	d, _ := time.ParseDuration(c.LLM.Timeout)
	return d
}

// applyEnvOverrides applies LUMEN_* environment variable overrides
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("LUMEN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LUMEN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("LUMEN_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if level := os.Getenv("LUMEN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// LLM configuration
	if provider := os.Getenv("LUMEN_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("LUMEN_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey // LUMEN_ prefix takes priority
	}
	if model := os.Getenv("LUMEN_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("LUMEN_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}

	// Retrieval configuration
	if strategy := os.Getenv("LUMEN_RETRIEVAL_STRATEGY"); strategy != "" {
		config.Retrieval.Strategy = strategy
	}
	if topK := os.Getenv("LUMEN_RETRIEVAL_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = k
		}
	}

	// Corpus configuration
	if dir := os.Getenv("LUMEN_CORPUS_DIR"); dir != "" {
		config.Corpus.Dir = dir
	}
	if list := os.Getenv("LUMEN_CORPUS_MUNICIPALITIES"); list != "" {
		parts := strings.Split(list, ",")
		municipalities := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				municipalities = append(municipalities, trimmed)
			}
		}
		config.Corpus.Municipalities = municipalities
	}

	// Solar configuration
	if apiKey := os.Getenv("NREL_API_KEY"); apiKey != "" {
		config.Solar.APIKey = apiKey
	}
	if apiKey := os.Getenv("LUMEN_SOLAR_API_KEY"); apiKey != "" {
		config.Solar.APIKey = apiKey
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variable -> KV store -> config
// fallback -> error.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"LUMEN_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"anthropic_api_key": {"LUMEN_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"nrel_api_key":      {"LUMEN_SOLAR_API_KEY", "NREL_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVar := range envVarNames {
			if value := os.Getenv(envVar); value != "" {
				return value, nil
			}
		}
	}

	if kvStorage != nil {
		if value, err := kvStorage.Get(name); err == nil && value != "" {
			return value, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key %q not found in environment, KV store, or config", name)
}

package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeOffline indicates the service uses a local stand-in (tests)
	LLMModeOffline LLMMode = "offline"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations: embedding
// generation and chat completions. The router, address extraction, and the
// answer synthesizer all share one service, each with its own fixed prompt.
type LLMService interface {
	// Embed generates a dense embedding vector for the given text. The
	// vector dimension is fixed per service instance and must match the
	// vector index it feeds.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat generates a completion response for the conversation history.
	// Messages are in chronological order; system prompts use role "system".
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service is operational. For cloud services
	// this probes API connectivity and authentication.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the service.
	GetMode() LLMMode

	// Close releases client resources.
	Close() error
}

// EmbeddingService generates vector embeddings for fragments and queries.
type EmbeddingService interface {
	// GenerateEmbedding creates an embedding for raw text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateQueryEmbedding creates an embedding for a search query.
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// Dimension returns the embedding dimension.
	Dimension() int

	// IsAvailable checks whether the backing LLM service is reachable.
	IsAvailable(ctx context.Context) bool
}

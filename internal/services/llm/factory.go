package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
)

// NewLLMService creates the LLM service for the configured default provider.
//
// Gemini serves both chat and embeddings. Claude serves chat only, so
// selecting it yields a split service whose embedding calls ride a Gemini
// client; a Gemini API key is therefore required in both configurations.
func NewLLMService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", cfg.LLM.DefaultProvider).Msg("Initializing LLM service")

	gemini, err := NewGeminiService(cfg, kvStorage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}

	switch cfg.LLM.DefaultProvider {
	case "gemini":
		return gemini, nil

	case "claude":
		claude, err := NewClaudeService(cfg, kvStorage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude service: %w", err)
		}
		return &splitService{chat: claude, embed: gemini}, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.DefaultProvider)
	}
}

// splitService routes chat and embedding calls to different providers.
type splitService struct {
	chat  interfaces.LLMService
	embed interfaces.LLMService
}

func (s *splitService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embed.Embed(ctx, text)
}

func (s *splitService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	return s.chat.Chat(ctx, messages)
}

func (s *splitService) HealthCheck(ctx context.Context) error {
	if err := s.chat.HealthCheck(ctx); err != nil {
		return err
	}
	return s.embed.HealthCheck(ctx)
}

func (s *splitService) GetMode() interfaces.LLMMode {
	return s.chat.GetMode()
}

func (s *splitService) Close() error {
	chatErr := s.chat.Close()
	if err := s.embed.Close(); err != nil {
		return err
	}
	return chatErr
}

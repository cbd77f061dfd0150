// -----------------------------------------------------------------------
// Answer Synthesizer - grounded answer generation over retrieved context
// -----------------------------------------------------------------------

package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// answerPromptTemplate grounds the model in retrieved regulation text. The
// instruction to admit uncertainty keeps answers inside the corpus.
const answerPromptTemplate = `You are a helpful and kind assistant. Use the context provided below to answer the question.

If you do not know the answer, or are unsure, say you don't know.

Query:
%s

Context:
%s
`

// Synthesizer composes a grounded answer from a question and its retrieved
// context with a single chat completion.
type Synthesizer struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewSynthesizer creates an answer synthesizer backed by the chat model.
func NewSynthesizer(llm interfaces.LLMService, logger arbor.ILogger) *Synthesizer {
	return &Synthesizer{llm: llm, logger: logger}
}

// Synthesize answers the question from the retrieved units. An empty
// retrieval result still produces a completion; the prompt's uncertainty
// instruction handles the no-context case.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, retrieved models.RetrievalResult) (string, error) {
	prompt := fmt.Sprintf(answerPromptTemplate, question, formatContext(retrieved))

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	s.logger.Debug().
		Int("context_units", len(retrieved)).
		Int("answer_length", len(response)).
		Msg("Answer synthesized")

	return response, nil
}

// formatContext joins retrieved unit texts, separated so document
// boundaries stay visible to the model.
func formatContext(retrieved models.RetrievalResult) string {
	if len(retrieved) == 0 {
		return "(no relevant documents found)"
	}

	var builder strings.Builder
	for i, unit := range retrieved {
		if i > 0 {
			builder.WriteString("\n\n---\n\n")
		}
		if municipality := unit.Tags()[models.TagMunicipality]; municipality != "" {
			builder.WriteString(fmt.Sprintf("[%s]\n", municipality))
		}
		builder.WriteString(unit.Text())
	}
	return builder.String()
}

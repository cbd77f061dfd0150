// -----------------------------------------------------------------------
// Query Router - classify incoming questions as site-specific or
// municipality-level
// -----------------------------------------------------------------------

package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// routerPromptTemplate forces a two-way classification. Site routing
// requires literal address text in the question; everything else falls to
// the municipality path.
const routerPromptTemplate = `Decide if this question is about:
- a specific site/address - must have address text in the question (output "site"),
- anything else (output "municipality"),

Question: %s
Answer:
`

// Router classifies a question into one of the two processing routes.
type Router struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewRouter creates a query router backed by the chat model.
func NewRouter(llm interfaces.LLMService, logger arbor.ILogger) *Router {
	return &Router{llm: llm, logger: logger}
}

// Route classifies the question. The model's output is normalized
// (trimmed, lowercased) and checked against the closed route set; any
// unexpected output is logged and coerced to the municipality route, so a
// misbehaving classifier degrades to the general answer path instead of
// failing the query. A chat failure is returned to the caller.
func (r *Router) Route(ctx context.Context, question string) (models.Route, error) {
	prompt := fmt.Sprintf(routerPromptTemplate, question)

	response, err := r.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return models.RouteUnset, fmt.Errorf("route classification failed: %w", err)
	}

	normalized := strings.ToLower(strings.TrimSpace(response))
	switch models.Route(normalized) {
	case models.RouteSite:
		return models.RouteSite, nil
	case models.RouteMunicipality:
		return models.RouteMunicipality, nil
	default:
		r.logger.Warn().
			Str("classifier_output", normalized).
			Msg("Unrecognized route, defaulting to municipality")
		return models.RouteMunicipality, nil
	}
}

// -----------------------------------------------------------------------
// Agent Orchestrator - the query state machine: route, then site
// analysis or retrieval-grounded answering
// -----------------------------------------------------------------------

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/answer"
	"github.com/ternarybob/lumen/internal/services/retrieval"
	"github.com/ternarybob/lumen/internal/services/router"
	"github.com/ternarybob/lumen/internal/services/site"
)

// Orchestrator drives one query through its phases: classify the route,
// then either run the site pipeline or answer from the regulation corpus.
// Each query gets its own state; the orchestrator itself is stateless and
// safe for concurrent use.
type Orchestrator struct {
	router         *router.Router
	pipeline       *site.Pipeline
	retriever      interfaces.Retriever
	synthesizer    *answer.Synthesizer
	municipalities []string
	scopeByTag     bool
	logger         arbor.ILogger
}

// NewOrchestrator wires the routing, site, and answering stages together.
func NewOrchestrator(
	config *common.Config,
	queryRouter *router.Router,
	pipeline *site.Pipeline,
	retriever interfaces.Retriever,
	synthesizer *answer.Synthesizer,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		router:         queryRouter,
		pipeline:       pipeline,
		retriever:      retriever,
		synthesizer:    synthesizer,
		municipalities: config.Corpus.Municipalities,
		scopeByTag:     config.Retrieval.ScopeByJurisdiction,
		logger:         logger,
	}
}

// Process answers one query. The returned state always carries a Result
// when err is nil; errors mean no answer could be produced at all.
func (o *Orchestrator) Process(ctx context.Context, query string) (*models.QueryState, error) {
	state := &models.QueryState{
		Query: query,
		Phase: models.PhaseStart,
	}

	route, err := o.router.Route(ctx, query)
	if err != nil {
		return nil, err
	}
	state.Route = route
	state.Phase = models.PhaseRouted

	o.logger.Info().
		Str("route", string(route)).
		Str("query", query).
		Msg("Query routed")

	switch route {
	case models.RouteSite:
		state.Phase = models.PhaseSiteProcessing
		result, report := o.pipeline.Analyze(ctx, query)
		state.Result = result
		if report.FailedStage != "" {
			o.logger.Info().
				Str("failed_stage", string(report.FailedStage)).
				Str("detail", report.FailureDetail).
				Msg("Site analysis completed with stage failure")
		}

	case models.RouteMunicipality:
		state.Phase = models.PhaseMunicipalityProcessing
		retrieved, err := o.retriever.Retrieve(ctx, query, o.jurisdictionFilter(query))
		if err != nil {
			return nil, fmt.Errorf("context retrieval failed: %w", err)
		}
		state.Context = retrieved

		result, err := o.synthesizer.Synthesize(ctx, query, retrieved)
		if err != nil {
			return nil, err
		}
		state.Result = result

	default:
		return nil, fmt.Errorf("unroutable query: %q", query)
	}

	state.Phase = models.PhaseDone
	return state, nil
}

// jurisdictionFilter scopes retrieval to a municipality when scoping is
// enabled and the query names exactly one known jurisdiction. Zero or
// multiple mentions leave retrieval corpus-wide.
func (o *Orchestrator) jurisdictionFilter(query string) interfaces.TagFilter {
	if !o.scopeByTag {
		return nil
	}

	lowered := strings.ToLower(query)
	var mentioned string
	for _, municipality := range o.municipalities {
		if strings.Contains(lowered, strings.ToLower(municipality)) {
			if mentioned != "" {
				return nil
			}
			mentioned = municipality
		}
	}
	if mentioned == "" {
		return nil
	}

	o.logger.Debug().Str("municipality", mentioned).Msg("Scoping retrieval to jurisdiction")
	return retrieval.JurisdictionFilter(mentioned)
}

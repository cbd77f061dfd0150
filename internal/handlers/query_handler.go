package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/agent"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries the answer plus routing metadata for the UI.
type QueryResponse struct {
	Answer       string       `json:"answer"`
	Route        models.Route `json:"route"`
	ContextUnits int          `json:"context_units"`
}

// QueryHandler handles question-answering HTTP requests.
type QueryHandler struct {
	orchestrator *agent.Orchestrator
	logger       arbor.ILogger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(orchestrator *agent.Orchestrator, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// QueryHandler handles POST /api/query requests.
func (h *QueryHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode query request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, http.StatusBadRequest, "Query field is required")
		return
	}

	h.logger.Info().
		Int("query_length", len(req.Query)).
		Msg("Processing query")

	state, err := h.orchestrator.Process(r.Context(), req.Query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to process query")
		WriteError(w, http.StatusInternalServerError, "Failed to process query: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, QueryResponse{
		Answer:       state.Result,
		Route:        state.Route,
		ContextUnits: len(state.Context),
	})
}

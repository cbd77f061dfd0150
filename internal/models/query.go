package models

// Route is the binary classification of a query: site-specific analysis or
// municipality-level question answering.
type Route string

const (
	RouteUnset        Route = ""
	RouteSite         Route = "site"
	RouteMunicipality Route = "municipality"
)

// QueryPhase tracks a query's position in the orchestrator state machine.
type QueryPhase string

const (
	PhaseStart                  QueryPhase = "start"
	PhaseRouted                 QueryPhase = "routed"
	PhaseSiteProcessing         QueryPhase = "site_processing"
	PhaseMunicipalityProcessing QueryPhase = "municipality_processing"
	PhaseDone                   QueryPhase = "done"
)

// QueryState carries a query through the orchestrator. It is mutated
// monotonically by one stage at a time, never concurrently.
type QueryState struct {
	Query   string          `json:"query"`
	Route   Route           `json:"route"`
	Phase   QueryPhase      `json:"phase"`
	Context RetrievalResult `json:"context,omitempty"`
	Result  string          `json:"result"`
}

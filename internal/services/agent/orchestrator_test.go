package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"github.com/ternarybob/lumen/internal/services/answer"
	"github.com/ternarybob/lumen/internal/services/router"
	"github.com/ternarybob/lumen/internal/services/site"
)

// promptDrivenLLM answers each prompt kind with its scripted response, so
// one stub serves routing, extraction, and synthesis.
type promptDrivenLLM struct {
	routeResponse   string
	addressResponse string
	answerResponse  string
}

func (l *promptDrivenLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (l *promptDrivenLLM) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "Decide if this question"):
		return l.routeResponse, nil
	case strings.Contains(prompt, "Extract the complete address"):
		return l.addressResponse, nil
	default:
		return l.answerResponse, nil
	}
}

func (l *promptDrivenLLM) HealthCheck(_ context.Context) error { return nil }

func (l *promptDrivenLLM) GetMode() interfaces.LLMMode { return interfaces.LLMModeOffline }

func (l *promptDrivenLLM) Close() error { return nil }

type stubRetriever struct {
	result    models.RetrievalResult
	err       error
	gotFilter interfaces.TagFilter
	called    bool
}

func (r *stubRetriever) Build(_ context.Context) error { return nil }

func (r *stubRetriever) Retrieve(_ context.Context, _ string, filter interfaces.TagFilter) (models.RetrievalResult, error) {
	r.called = true
	r.gotFilter = filter
	return r.result, r.err
}

func (r *stubRetriever) Strategy() string { return "flat" }

type stubGeocoder struct {
	result *models.GeocodeResult
	err    error
}

func (g *stubGeocoder) Geocode(_ context.Context, _ string) (*models.GeocodeResult, error) {
	return g.result, g.err
}

type stubSolar struct {
	result *models.SolarResource
	err    error
}

func (s *stubSolar) Lookup(_ context.Context, _, _ float64) (*models.SolarResource, error) {
	return s.result, s.err
}

func newOrchestrator(t *testing.T, llm interfaces.LLMService, retriever interfaces.Retriever, geocoder interfaces.GeocodeService, solar interfaces.SolarService) *Orchestrator {
	t.Helper()
	logger := common.GetLogger()
	config := common.DefaultConfig()
	config.Retrieval.ScopeByJurisdiction = true

	return NewOrchestrator(
		config,
		router.NewRouter(llm, logger),
		site.NewPipeline(llm, geocoder, solar, logger),
		retriever,
		answer.NewSynthesizer(llm, logger),
		logger,
	)
}

func TestProcessMunicipalityQuery(t *testing.T) {
	llm := &promptDrivenLLM{
		routeResponse:  "municipality",
		answerResponse: "Special permits are required in Barre.",
	}
	retriever := &stubRetriever{result: models.RetrievalResult{
		{
			Document: &models.Document{
				Content: "A special permit is required for large-scale installations.",
				Tags:    map[string]string{models.TagMunicipality: "barre"},
			},
			Score: 0.8,
		},
	}}

	o := newOrchestrator(t, llm, retriever, &stubGeocoder{}, &stubSolar{})
	state, err := o.Process(context.Background(), "What permits does Barre require for solar?")
	require.NoError(t, err)

	assert.Equal(t, models.RouteMunicipality, state.Route)
	assert.Equal(t, models.PhaseDone, state.Phase)
	assert.Equal(t, "Special permits are required in Barre.", state.Result)
	require.Len(t, state.Context, 1)
	assert.True(t, retriever.called)
}

func TestProcessScopesRetrievalToMentionedMunicipality(t *testing.T) {
	llm := &promptDrivenLLM{routeResponse: "municipality", answerResponse: "answer"}
	retriever := &stubRetriever{}

	o := newOrchestrator(t, llm, retriever, &stubGeocoder{}, &stubSolar{})
	_, err := o.Process(context.Background(), "What are Berlin's setback rules?")
	require.NoError(t, err)

	require.NotNil(t, retriever.gotFilter, "query naming one municipality must scope retrieval")
	assert.True(t, retriever.gotFilter(map[string]string{models.TagMunicipality: "berlin"}))
	assert.False(t, retriever.gotFilter(map[string]string{models.TagMunicipality: "barre"}))
}

func TestProcessLeavesRetrievalUnscopedForAmbiguousMentions(t *testing.T) {
	llm := &promptDrivenLLM{routeResponse: "municipality", answerResponse: "answer"}

	tests := []struct {
		name  string
		query string
	}{
		{"no municipality named", "What are typical setback rules?"},
		{"two municipalities named", "Compare Barre and Berlin setback rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &stubRetriever{}
			o := newOrchestrator(t, llm, retriever, &stubGeocoder{}, &stubSolar{})
			_, err := o.Process(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Nil(t, retriever.gotFilter)
		})
	}
}

func TestProcessSiteQuery(t *testing.T) {
	llm := &promptDrivenLLM{
		routeResponse:   "site",
		addressResponse: "47 Newton St, Barre, MA 01005, United States",
	}
	geocoder := &stubGeocoder{result: &models.GeocodeResult{
		Latitude:         42.4,
		Longitude:        -72.1,
		FormattedAddress: "47 Newton Street, Barre, MA",
	}}
	solar := &stubSolar{result: &models.SolarResource{AnnualAvgDNI: 4.5}}
	retriever := &stubRetriever{}

	o := newOrchestrator(t, llm, retriever, geocoder, solar)
	state, err := o.Process(context.Background(), "Evaluate solar potential at 47 Newton St, Barre, MA 01005")
	require.NoError(t, err)

	assert.Equal(t, models.RouteSite, state.Route)
	assert.Equal(t, models.PhaseDone, state.Phase)
	assert.Contains(t, state.Result, "Annual Average DNI: 4.5")
	assert.False(t, retriever.called, "site queries must not hit the corpus")
	assert.Empty(t, state.Context)
}

func TestProcessSiteQueryWithStageFailureStillAnswers(t *testing.T) {
	llm := &promptDrivenLLM{
		routeResponse:   "site",
		addressResponse: "1 Imaginary Way, Nowhere",
	}
	geocoder := &stubGeocoder{err: interfaces.ErrGeocodeNotFound}

	o := newOrchestrator(t, llm, &stubRetriever{}, geocoder, &stubSolar{})
	state, err := o.Process(context.Background(), "Evaluate solar at 1 Imaginary Way, Nowhere")
	require.NoError(t, err)

	assert.Equal(t, models.PhaseDone, state.Phase)
	assert.Contains(t, state.Result, "Could not find coordinates")
}

func TestProcessRetrievalFailurePropagates(t *testing.T) {
	llm := &promptDrivenLLM{routeResponse: "municipality"}
	retriever := &stubRetriever{err: interfaces.ErrRetrievalUnavailable}

	o := newOrchestrator(t, llm, retriever, &stubGeocoder{}, &stubSolar{})
	_, err := o.Process(context.Background(), "What are the setback rules?")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrRetrievalUnavailable))
}

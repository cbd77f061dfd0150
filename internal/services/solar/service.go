// -----------------------------------------------------------------------
// Solar Service - fetch solar resource data from the NREL Solar
// Resource API
// -----------------------------------------------------------------------

package solar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// solarResourceResponse mirrors the fields of the NREL solar_resource
// payload the pipeline needs. The annual value can be a number or, for
// locations outside the dataset, the string "no data".
type solarResourceResponse struct {
	Errors  []string `json:"errors"`
	Outputs struct {
		AvgDNI struct {
			Annual json.RawMessage `json:"annual"`
		} `json:"avg_dni"`
	} `json:"outputs"`
}

// Service implements SolarService against the NREL Solar Resource API.
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.SolarService = (*Service)(nil)

// NewService creates an NREL solar resource client. The API key resolves
// env-first, then KV store, then config.
func NewService(config *common.SolarConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*Service, error) {
	apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "nrel_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("solar service unavailable: %w", err)
	}

	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Service{
		apiKey:     apiKey,
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Lookup fetches the annual average direct normal irradiance for a
// coordinate pair.
func (s *Service) Lookup(ctx context.Context, lat, lon float64) (*models.SolarResource, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("lat", fmt.Sprintf("%g", lat))
	params.Set("lon", fmt.Sprintf("%g", lon))
	fullURL := fmt.Sprintf("%s/api/solar/solar_resource/v1.json?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build solar resource request: %w", err)
	}

	s.logger.Debug().
		Float64("latitude", lat).
		Float64("longitude", lon).
		Msg("Calling NREL solar resource API")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solar resource request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("solar resource API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload solarResourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode solar resource response: %w", err)
	}

	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("solar resource API error: %v", payload.Errors)
	}

	var annual float64
	if err := json.Unmarshal(payload.Outputs.AvgDNI.Annual, &annual); err != nil {
		return nil, fmt.Errorf("no solar resource data for location (%g, %g)", lat, lon)
	}

	return &models.SolarResource{AnnualAvgDNI: annual}, nil
}

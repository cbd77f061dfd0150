// -----------------------------------------------------------------------
// Geocode Service - resolve street addresses to coordinates via the
// Nominatim API
// -----------------------------------------------------------------------

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/common"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
	"golang.org/x/time/rate"
)

// nominatimResult is one entry of a Nominatim search response. Coordinates
// arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Service implements GeocodeService against Nominatim. Nominatim's usage
// policy caps clients at one request per second, enforced here with a
// limiter so callers cannot exceed it.
type Service struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

var _ interfaces.GeocodeService = (*Service)(nil)

// NewService creates a Nominatim geocoding client from configuration.
func NewService(config *common.GeocodeConfig, logger arbor.ILogger) *Service {
	timeout, err := time.ParseDuration(config.RequestTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	return &Service{
		baseURL:    config.BaseURL,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		logger:     logger,
	}
}

// Geocode resolves an address to coordinates. An empty provider result
// returns ErrGeocodeNotFound; transport and decode failures return
// descriptive errors wrapping the cause.
func (s *Service) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limit wait cancelled: %w", err)
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	fullURL := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}
	// Nominatim rejects requests without an identifying User-Agent.
	req.Header.Set("User-Agent", s.userAgent)

	s.logger.Debug().Str("address", address).Msg("Calling Nominatim geocoder")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("address %q: %w", address, interfaces.ErrGeocodeNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	result := &models.GeocodeResult{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: results[0].DisplayName,
	}

	s.logger.Debug().
		Float64("latitude", lat).
		Float64("longitude", lon).
		Msg("Address geocoded")

	return result, nil
}

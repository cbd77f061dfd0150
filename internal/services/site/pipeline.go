// -----------------------------------------------------------------------
// Site Pipeline - address extraction, geocoding, and solar resource
// lookup for site-specific questions
// -----------------------------------------------------------------------

package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lumen/internal/interfaces"
	"github.com/ternarybob/lumen/internal/models"
)

// extractionFailedSentinel is the token the extraction prompt demands
// when the query carries no address.
const extractionFailedSentinel = "ERROR"

// addressPromptTemplate extracts a postal address from free-form text.
// The sentinel keeps the no-address case machine-checkable.
const addressPromptTemplate = `Extract the complete address from the following user query. Return ONLY the address in a standard format.

User query: %s

Return the address in the format: "Street Number Street Name, City, State ZIP Code, Country"
If no address is found, return "ERROR".
`

// Pipeline runs the three-stage site analysis: extract an address from
// the query, geocode it, and look up solar resource data. Each stage
// depends on the previous one; a failure stops the pipeline and is
// reported in the answer text, never as a transport error.
type Pipeline struct {
	llm     interfaces.LLMService
	geocode interfaces.GeocodeService
	solar   interfaces.SolarService
	logger  arbor.ILogger
}

// NewPipeline creates a site analysis pipeline.
func NewPipeline(llm interfaces.LLMService, geocode interfaces.GeocodeService, solar interfaces.SolarService, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		llm:     llm,
		geocode: geocode,
		solar:   solar,
		logger:  logger,
	}
}

// Analyze runs the pipeline for a site-routed query and always returns
// renderable answer text. Stage failures short-circuit the remaining
// stages, so a failed geocode never triggers a solar lookup.
func (p *Pipeline) Analyze(ctx context.Context, query string) (string, *models.SiteReport) {
	report := &models.SiteReport{}

	address, err := p.extractAddress(ctx, query)
	if err != nil {
		report.FailedStage = models.StageAddressExtraction
		report.FailureDetail = err.Error()
		p.logger.Info().Str("stage", string(report.FailedStage)).Msg("Site pipeline stopped")
		return fmt.Sprintf("Could not extract address from query: %s", query), report
	}
	report.ExtractedAddress = address

	geocoded, err := p.geocode.Geocode(ctx, address)
	if err != nil {
		report.FailedStage = models.StageGeocoding
		report.FailureDetail = err.Error()
		p.logger.Info().
			Str("stage", string(report.FailedStage)).
			Str("address", address).
			Msg("Site pipeline stopped")
		if errors.Is(err, interfaces.ErrGeocodeNotFound) {
			return fmt.Sprintf("Could not find coordinates for address: %s", address), report
		}
		return fmt.Sprintf("Geocoding failed for address %s: %s", address, err.Error()), report
	}
	report.Geocode = geocoded

	resource, err := p.solar.Lookup(ctx, geocoded.Latitude, geocoded.Longitude)
	if err != nil {
		report.FailedStage = models.StageSolarLookup
		report.FailureDetail = err.Error()
		p.logger.Info().
			Str("stage", string(report.FailedStage)).
			Float64("latitude", geocoded.Latitude).
			Float64("longitude", geocoded.Longitude).
			Msg("Site pipeline stopped")
		return fmt.Sprintf("Error retrieving solar data for %s: %s", address, err.Error()), report
	}
	report.Solar = resource

	return renderReport(report), report
}

// extractAddress asks the model for the address and rejects the sentinel.
func (p *Pipeline) extractAddress(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(addressPromptTemplate, query)

	response, err := p.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("address extraction failed: %w", err)
	}

	address := strings.TrimSpace(response)
	if address == "" || strings.Contains(address, extractionFailedSentinel) {
		return "", errors.New("no address found in query")
	}
	return address, nil
}

// renderReport composes the success answer from a fully populated report.
func renderReport(report *models.SiteReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extracted Address: %s\n", report.ExtractedAddress)
	fmt.Fprintf(&b, "Latitude: %g, Longitude: %g, Address: %s\n",
		report.Geocode.Latitude, report.Geocode.Longitude, report.Geocode.FormattedAddress)
	fmt.Fprintf(&b, "\nSolar Resource Data:\n")
	fmt.Fprintf(&b, "At latitude %g and longitude %g:\n",
		report.Geocode.Latitude, report.Geocode.Longitude)
	fmt.Fprintf(&b, "- Annual Average DNI: %g kWh/m2/day\n", report.Solar.AnnualAvgDNI)
	return b.String()
}

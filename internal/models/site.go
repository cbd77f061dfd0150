package models

// GeocodeResult is a successful geocoder lookup.
type GeocodeResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address"`
}

// SolarResource is the solar-data service's answer for one coordinate pair.
type SolarResource struct {
	// AnnualAvgDNI is the annual average Direct Normal Irradiance in
	// kWh/m2/day.
	AnnualAvgDNI float64 `json:"annual_avg_dni"`
}

// SiteStage identifies a stage of the site analysis pipeline for failure
// reporting.
type SiteStage string

const (
	StageAddressExtraction SiteStage = "address_extraction"
	StageGeocoding         SiteStage = "geocoding"
	StageSolarLookup       SiteStage = "solar_lookup"
)

// SiteReport is the transient composition of a single site analysis run.
// It is never persisted; it exists only to compose the final answer text and
// to record which stage failed, if any.
type SiteReport struct {
	ExtractedAddress string         `json:"extracted_address,omitempty"`
	Geocode          *GeocodeResult `json:"geocode,omitempty"`
	Solar            *SolarResource `json:"solar,omitempty"`

	// FailedStage and FailureDetail are set when the pipeline short-circuited.
	FailedStage   SiteStage `json:"failed_stage,omitempty"`
	FailureDetail string    `json:"failure_detail,omitempty"`
}

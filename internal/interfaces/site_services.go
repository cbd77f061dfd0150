package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/lumen/internal/models"
)

// ErrGeocodeNotFound means the geocoder answered but found no match for the
// address. It is deliberately distinct from transport/provider failures,
// which surface as ordinary errors wrapping the cause.
var ErrGeocodeNotFound = errors.New("no coordinates found")

// GeocodeService resolves a street address to coordinates.
type GeocodeService interface {
	// Geocode returns ErrGeocodeNotFound (wrapped) when the provider has no
	// match, and a descriptive error on timeout or provider failure.
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)
}

// SolarService fetches solar resource data for a coordinate pair.
type SolarService interface {
	// Lookup returns the annual average DNI for the location. Transport and
	// parsing failures surface as errors; the site pipeline renders them as
	// inline report text rather than propagating them.
	Lookup(ctx context.Context, lat, lon float64) (*models.SolarResource, error)
}

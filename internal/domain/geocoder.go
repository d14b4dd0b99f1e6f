package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	// ForwardGeocode converts an address to coordinates. A zero result
	// with a nil error means the provider had no candidate.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}

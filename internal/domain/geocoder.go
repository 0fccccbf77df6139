package domain

import "context"

// GeocodeResult holds coordinates returned by a geocoding provider.
// Found is false when the provider had no match for the query.
type GeocodeResult struct {
	Lat      float64
	Lon      float64
	Accuracy float64 // provider importance/relevance score, 0.0–1.0
	Found    bool
}

// Geocoder resolves a free-text location mention to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}

package domain

import (
	"context"
	"math"
)

// GeocodeProvider is an external place-name lookup. Implementations return
// candidates best-first; an empty slice means no match.
type GeocodeProvider interface {
	Geocode(ctx context.Context, name string) ([]Coordinates, error)
}

// Geocoder resolves a place name to coordinates. A false result covers empty
// input, provider failure, no match, and non-finite coordinates alike.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (Coordinates, bool)
}

// Finite reports whether both components are finite numbers.
func (c Coordinates) Finite() bool {
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}

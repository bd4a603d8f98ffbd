// Package geo provides coordinate types and great-circle distance calculation.
package geo

import "math"

const earthRadiusKm = 6371.0

// Coordinate is a WGS 84 latitude/longitude pair. It is an immutable value
// type; functions return new values rather than mutating.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether the coordinate is within WGS 84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// IsZero reports whether the coordinate is the unset sentinel (0, 0).
// By convention inherited from the upstream data format, (0, 0) means "no
// location supplied" rather than the real equatorial/prime-meridian point.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// DistanceKm computes the geodesic distance between two points using the
// Haversine formula. Returns distance in kilometers.
//
// The atan2 form is used deliberately: it stays well-defined for antipodal
// points where an asin formulation loses precision.
func DistanceKm(a, b Coordinate) float64 {
	latA := degreesToRadians(a.Lat)
	latB := degreesToRadians(b.Lat)
	deltaLat := degreesToRadians(b.Lat - a.Lat)
	deltaLng := degreesToRadians(b.Lng - a.Lng)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latA)*math.Cos(latB)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// degreesToRadians converts degrees to radians
func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

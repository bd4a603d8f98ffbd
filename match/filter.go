package match

import "goodimpact-server/utils/geo"

// FilterByRadius returns the candidates within radiusKm of ref, each
// annotated with its computed distance. A radius of 0 or an unset (0, 0)
// reference disables geo-filtering entirely: every candidate passes through
// with no distance set. Output order is unspecified; ranking happens later.
func FilterByRadius(ref geo.Coordinate, radiusKm float64, candidates []Entity) []Scored {
	if radiusKm <= 0 || ref.IsZero() {
		out := make([]Scored, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, Scored{Entity: c})
		}
		return out
	}

	var out []Scored
	for _, c := range candidates {
		distance := geo.DistanceKm(ref, c.Coordinate())
		if distance <= radiusKm {
			out = append(out, Scored{Entity: c, DistanceKm: &distance})
		}
	}
	return out
}

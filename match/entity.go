// Package match implements the proximity filtering, ranking and pagination
// core shared by the mission and peer queries.
package match

import "goodimpact-server/utils/geo"

// Entity is anything rankable: it has a stable identity key and a coordinate.
type Entity interface {
	EntityID() string
	Coordinate() geo.Coordinate
}

// Scored annotates an entity with values derived for one query. Distance and
// score depend on the caller's reference location and level, so they are
// recomputed per query and never stored on the entity itself.
//
// DistanceKm is nil when no geo constraint was applied to the query.
type Scored struct {
	Entity     Entity
	DistanceKm *float64
	Score      float64
}

// Page is one slice of a ranked result set. Total is the filtered count
// before slicing, not the unfiltered catalogue size.
type Page struct {
	Items   []Scored
	Offset  int
	Limit   int
	Total   int
	HasMore bool
}

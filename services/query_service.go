package services

import (
	"context"

	"goodimpact-server/location"
	"goodimpact-server/match"
	"goodimpact-server/models"
	"goodimpact-server/observability"
	"goodimpact-server/utils/geo"
)

// Default page sizes.
const (
	DefaultMissionLimit = 20
	DefaultPeerLimit    = 10
)

// Catalog is the candidate source the query layer reads from.
type Catalog interface {
	Missions(ctx context.Context) ([]models.Mission, error)
	Users(ctx context.Context) ([]models.User, error)
}

// LocationProvider supplies the caller's last-known location.
type LocationProvider interface {
	CurrentFor(userID string) (location.Sample, bool)
}

// QueryService answers "missions near me" and "users like me" queries by
// composing the caller's location with the proximity filter and the ranker.
// It is stateless and never blocks waiting for a fresh fix: whatever the
// tracker currently holds (fallback included) is used, and it fails only
// when the candidate source does, surfacing that error unchanged.
type QueryService struct {
	catalog   Catalog
	locations LocationProvider
	scoring   match.ScoringConfig
}

func NewQueryService(catalog Catalog, locations LocationProvider) *QueryService {
	return &QueryService{
		catalog:   catalog,
		locations: locations,
		scoring:   match.DefaultScoring(),
	}
}

// MissionParams are the caller's mission-query inputs after HTTP parsing.
// Lat/Lng of (0, 0) means no override was supplied.
type MissionParams struct {
	SelfID   string
	Lat      float64
	Lng      float64
	RadiusKm float64
	Category string
	Offset   int
	Limit    int
}

// MissionsNear returns the active missions around the caller, newest first.
func (s *QueryService) MissionsNear(ctx context.Context, p MissionParams) (match.Page, error) {
	missions, err := s.catalog.Missions(ctx)
	if err != nil {
		return match.Page{}, err
	}
	observability.ProximityQueries.WithLabelValues("missions").Inc()

	ranked := match.RankMissions(missions, match.MissionQuery{
		Reference: s.reference(p.SelfID, geo.Coordinate{Lat: p.Lat, Lng: p.Lng}),
		RadiusKm:  p.RadiusKm,
		Category:  p.Category,
	})

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultMissionLimit
	}
	return match.Paginate(ranked, p.Offset, limit), nil
}

// PeerParams are the caller's peer-matching inputs after HTTP parsing.
type PeerParams struct {
	SelfID      string
	UserLevel   int
	LevelFilter match.LevelFilter
	Lat         float64
	Lng         float64
	RadiusKm    float64
	Offset      int
	Limit       int
}

// PeersLike returns the peers matching the caller's level band, best match
// first.
func (s *QueryService) PeersLike(ctx context.Context, p PeerParams) (match.Page, error) {
	users, err := s.catalog.Users(ctx)
	if err != nil {
		return match.Page{}, err
	}
	observability.ProximityQueries.WithLabelValues("peers").Inc()

	ranked := match.RankPeers(users, match.PeerQuery{
		SelfID:         p.SelfID,
		ReferenceLevel: p.UserLevel,
		LevelFilter:    p.LevelFilter,
		Reference:      s.reference(p.SelfID, geo.Coordinate{Lat: p.Lat, Lng: p.Lng}),
		RadiusKm:       p.RadiusKm,
		Scoring:        s.scoring,
	})

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPeerLimit
	}
	return match.Paginate(ranked, p.Offset, limit), nil
}

// reference resolves the geo reference for a query: the caller-supplied
// coordinate when set, otherwise the caller's tracker location. The tracker
// read is a single snapshot; its fallback guarantee means the result is
// always usable when a session exists.
func (s *QueryService) reference(selfID string, override geo.Coordinate) geo.Coordinate {
	if !override.IsZero() {
		return override
	}
	if s.locations != nil && selfID != "" {
		if sample, ok := s.locations.CurrentFor(selfID); ok {
			return sample.Coordinate
		}
	}
	return geo.Coordinate{}
}

package match

import (
	"math"
	"sort"

	"goodimpact-server/models"
	"goodimpact-server/utils/geo"
)

// CategoryAll matches every mission category.
const CategoryAll = "Todas"

// LevelFilter selects which band of goodness levels qualifies as a peer match.
type LevelFilter string

const (
	LevelSimilar LevelFilter = "similar"
	LevelHigher  LevelFilter = "higher"
	LevelAny     LevelFilter = "any"
)

// ParseLevelFilter maps a query-parameter value to a LevelFilter,
// defaulting to LevelSimilar.
func ParseLevelFilter(s string) LevelFilter {
	switch LevelFilter(s) {
	case LevelHigher:
		return LevelHigher
	case LevelAny:
		return LevelAny
	default:
		return LevelSimilar
	}
}

// ScoringConfig holds the tunable constants of the peer match score.
type ScoringConfig struct {
	LevelDivisor float64 // level-difference points per score point deducted
	PenaltyCap   float64 // maximum deduction from the base score of 100
	ScoreFloor   float64 // minimum presented score
	SimilarBand  int     // max |level diff| accepted by LevelSimilar
	HigherBand   int     // max level advantage accepted by LevelHigher
}

// DefaultScoring returns the production scoring constants. Cap and floor
// agree (100 - cap == floor), so the floor is reachable and scores stay
// within [ScoreFloor, 100].
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		LevelDivisor: 10,
		PenaltyCap:   50,
		ScoreFloor:   50,
		SimilarBand:  150,
		HigherBand:   300,
	}
}

// Score computes the match score for a goodness-level difference.
func (c ScoringConfig) Score(levelDiff int) float64 {
	penalty := math.Min(float64(levelDiff)/c.LevelDivisor, c.PenaltyCap)
	return math.Max(math.Round(100-penalty), c.ScoreFloor)
}

// MissionQuery narrows and orders the mission catalogue for one caller.
type MissionQuery struct {
	Reference geo.Coordinate
	RadiusKm  float64
	Category  string // empty or CategoryAll means no category filter
}

// RankMissions filters missions to active status, an optional exact category
// and the caller's radius, then orders them newest first. Proximity is a hard
// filter for missions, not a weighted factor: no score beyond recency is
// computed. Ties are broken by id ascending so the order is deterministic.
func RankMissions(missions []models.Mission, q MissionQuery) []Scored {
	var candidates []Entity
	for _, m := range missions {
		if m.Status != models.MissionStatusActive {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && m.Category != q.Category {
			continue
		}
		candidates = append(candidates, m)
	}

	scored := FilterByRadius(q.Reference, q.RadiusKm, candidates)

	sort.SliceStable(scored, func(i, j int) bool {
		a := scored[i].Entity.(models.Mission)
		b := scored[j].Entity.(models.Mission)
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return scored
}

// PeerQuery narrows and scores the user catalogue for one caller.
type PeerQuery struct {
	SelfID         string
	ReferenceLevel int
	LevelFilter    LevelFilter
	Reference      geo.Coordinate // unset disables the geo constraint
	RadiusKm       float64
	Scoring        ScoringConfig // zero value falls back to DefaultScoring
}

// RankPeers selects the peers within the requested level band, scores them by
// level affinity and orders them best match first. The caller is always
// excluded by id, regardless of filter mode. Ties are broken by id ascending.
func RankPeers(peers []models.User, q PeerQuery) []Scored {
	cfg := q.Scoring
	if cfg == (ScoringConfig{}) {
		cfg = DefaultScoring()
	}

	var candidates []Entity
	for _, p := range peers {
		if p.ID == q.SelfID {
			continue
		}
		diff := p.GoodnessLevel - q.ReferenceLevel
		switch q.LevelFilter {
		case LevelHigher:
			if diff <= 0 || diff > cfg.HigherBand {
				continue
			}
		case LevelAny:
			// everyone but self
		default:
			if abs(diff) > cfg.SimilarBand {
				continue
			}
		}
		candidates = append(candidates, p)
	}

	scored := FilterByRadius(q.Reference, q.RadiusKm, candidates)
	for i := range scored {
		p := scored[i].Entity.(models.User)
		scored[i].Score = cfg.Score(abs(p.GoodnessLevel - q.ReferenceLevel))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entity.EntityID() < scored[j].Entity.EntityID()
	})
	return scored
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

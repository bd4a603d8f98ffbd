package models

import (
	"time"

	"goodimpact-server/utils/geo"
)

// User is a community member. GoodnessLevel is the reputation scalar the
// peer matcher ranks against.
type User struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Avatar        string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Location      Place     `json:"location" bson:"location"`
	GoodnessLevel int       `json:"goodnessLevel" bson:"goodness_level"`
	TotalMissions int       `json:"totalMissions" bson:"total_missions"`
	HelpedPeople  int       `json:"helpedPeople" bson:"helped_people"`
	CarbonSaved   float64   `json:"carbonSaved" bson:"carbon_saved"`
	Streak        int       `json:"streak" bson:"streak"`
	Rank          string    `json:"rank" bson:"rank"`
	Badges        []string  `json:"badges" bson:"badges"`
	JoinedAt      time.Time `json:"joinedAt" bson:"joined_at"`
}

// EntityID returns the stable sort/identity key of the user.
func (u User) EntityID() string { return u.ID }

// Coordinate returns the user's last known location.
func (u User) Coordinate() geo.Coordinate { return u.Location.Coordinate }

// FavoriteCategories derives interest tags from the user's leading badges,
// which is how the matcher presents shared interests.
func (u User) FavoriteCategories() []string {
	if len(u.Badges) == 0 {
		return []string{"Medio Ambiente"}
	}
	if len(u.Badges) > 2 {
		return u.Badges[:2]
	}
	return u.Badges
}

package models

import (
	"time"

	"goodimpact-server/utils/geo"
)

// Mission statuses as stored in the catalogue.
const (
	MissionStatusActive    = "active"
	MissionStatusCompleted = "completed"
)

// Place is a coordinate plus a human-readable address.
type Place struct {
	geo.Coordinate `bson:",inline"`
	Address        string `json:"address,omitempty" bson:"address,omitempty"`
}

// Mission is a geo-tagged task with a reward and a participant capacity.
type Mission struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	Title           string    `json:"title" bson:"title"`
	Description     string    `json:"description" bson:"description"`
	Category        string    `json:"category" bson:"category"`
	Location        Place     `json:"location" bson:"location"`
	Reward          int       `json:"reward" bson:"reward"`
	Difficulty      string    `json:"difficulty" bson:"difficulty"`
	Participants    []string  `json:"participants" bson:"participants"`
	MaxParticipants int       `json:"maxParticipants" bson:"max_participants"`
	TimeEstimate    string    `json:"timeEstimate,omitempty" bson:"time_estimate,omitempty"`
	CreatedBy       string    `json:"createdBy" bson:"created_by"`
	Status          string    `json:"status" bson:"status"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
}

// EntityID returns the stable sort/identity key of the mission.
func (m Mission) EntityID() string { return m.ID }

// Coordinate returns the mission's location.
func (m Mission) Coordinate() geo.Coordinate { return m.Location.Coordinate }

// HasParticipant reports whether the user already joined the mission.
func (m Mission) HasParticipant(userID string) bool {
	for _, id := range m.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the mission reached its participant capacity.
// A capacity of 0 means unlimited.
func (m Mission) IsFull() bool {
	return m.MaxParticipants > 0 && len(m.Participants) >= m.MaxParticipants
}

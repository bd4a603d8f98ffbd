package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"goodimpact-server/models"
	"goodimpact-server/store"
	"goodimpact-server/utils/errors"
)

// Key prefixes partitioning the record store.
const (
	missionKeyPrefix = "mission:"
	userKeyPrefix    = "user:"
)

// CatalogService reads and writes the mission and user catalogue through the
// record store. It does not interpret the store's layout beyond the two key
// prefixes.
type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

// Missions loads the full mission catalogue. A malformed record is an
// upstream data error and fails the whole read.
func (s *CatalogService) Missions(ctx context.Context) ([]models.Mission, error) {
	raws, err := s.store.GetByPrefix(ctx, missionKeyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to load missions", http.StatusInternalServerError)
	}
	missions := make([]models.Mission, 0, len(raws))
	for _, raw := range raws {
		var m models.Mission
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, errors.Wrap(err, "STORE_ERROR", "Malformed mission record", http.StatusInternalServerError)
		}
		missions = append(missions, m)
	}
	return missions, nil
}

// Users loads the full user catalogue.
func (s *CatalogService) Users(ctx context.Context) ([]models.User, error) {
	raws, err := s.store.GetByPrefix(ctx, userKeyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "STORE_ERROR", "Failed to load users", http.StatusInternalServerError)
	}
	users := make([]models.User, 0, len(raws))
	for _, raw := range raws {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, errors.Wrap(err, "STORE_ERROR", "Malformed user record", http.StatusInternalServerError)
		}
		users = append(users, u)
	}
	return users, nil
}

// User fetches a single user profile.
func (s *CatalogService) User(ctx context.Context, userID string) (models.User, error) {
	raw, err := s.store.Get(ctx, userKeyPrefix+userID)
	if err != nil {
		if err == store.ErrNotFound {
			return models.User{}, errors.ErrNotFound
		}
		return models.User{}, errors.Wrap(err, "STORE_ERROR", "Failed to load user", http.StatusInternalServerError)
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return models.User{}, errors.Wrap(err, "STORE_ERROR", "Malformed user record", http.StatusInternalServerError)
	}
	return u, nil
}

// Mission fetches a single mission.
func (s *CatalogService) Mission(ctx context.Context, missionID string) (models.Mission, error) {
	raw, err := s.store.Get(ctx, missionKeyPrefix+missionID)
	if err != nil {
		if err == store.ErrNotFound {
			return models.Mission{}, errors.ErrNotFound
		}
		return models.Mission{}, errors.Wrap(err, "STORE_ERROR", "Failed to load mission", http.StatusInternalServerError)
	}
	var m models.Mission
	if err := json.Unmarshal(raw, &m); err != nil {
		return models.Mission{}, errors.Wrap(err, "STORE_ERROR", "Malformed mission record", http.StatusInternalServerError)
	}
	return m, nil
}

// CreateMission stores a new active mission authored by createdBy.
func (s *CatalogService) CreateMission(ctx context.Context, input models.Mission, createdBy string) (models.Mission, error) {
	input.ID = fmt.Sprintf("mission-%s", uuid.New().String())
	input.CreatedBy = createdBy
	input.Participants = []string{}
	input.Status = models.MissionStatusActive
	input.CreatedAt = time.Now().UTC()

	if err := s.putMission(ctx, input); err != nil {
		return models.Mission{}, err
	}
	log.Printf("Created mission %s (%s) by %s", input.ID, input.Title, createdBy)
	return input, nil
}

// JoinMission adds userID to the mission's participants, enforcing the
// capacity and double-join rules.
func (s *CatalogService) JoinMission(ctx context.Context, missionID, userID string) (models.Mission, error) {
	mission, err := s.Mission(ctx, missionID)
	if err != nil {
		return models.Mission{}, err
	}
	if mission.HasParticipant(userID) {
		return models.Mission{}, errors.ErrAlreadyJoined
	}
	if mission.IsFull() {
		return models.Mission{}, errors.ErrMissionFull
	}

	mission.Participants = append(mission.Participants, userID)
	if err := s.putMission(ctx, mission); err != nil {
		return models.Mission{}, err
	}
	log.Printf("User %s joined mission %s", userID, missionID)
	return mission, nil
}

func (s *CatalogService) putMission(ctx context.Context, m models.Mission) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to marshal mission", http.StatusInternalServerError)
	}
	if err := s.store.Set(ctx, missionKeyPrefix+m.ID, raw); err != nil {
		return errors.Wrap(err, "STORE_ERROR", "Failed to store mission", http.StatusInternalServerError)
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"goodimpact-server/middleware"
	"goodimpact-server/models"
	"goodimpact-server/services"
	"goodimpact-server/utils/errors"
)

type MissionHandler struct {
	queries       *services.QueryService
	catalog       *services.CatalogService
	defaultRadius float64
}

func NewMissionHandler(queries *services.QueryService, catalog *services.CatalogService, defaultRadius float64) *MissionHandler {
	return &MissionHandler{queries: queries, catalog: catalog, defaultRadius: defaultRadius}
}

type missionResult struct {
	models.Mission
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type missionsResponse struct {
	Missions []missionResult `json:"missions"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	HasMore  bool            `json:"hasMore"`
}

// GetMissions serves "missions near me": active missions around the caller's
// coordinates (or their tracked location), newest first, paginated.
func (h *MissionHandler) GetMissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 0)
	limit := parseIntDefault(q.Get("limit"), services.DefaultMissionLimit)
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = services.DefaultMissionLimit
	}
	selfID, _ := r.Context().Value("userID").(string)

	result, err := h.queries.MissionsNear(r.Context(), services.MissionParams{
		SelfID:   selfID,
		Lat:      parseFloatDefault(q.Get("lat"), 0),
		Lng:      parseFloatDefault(q.Get("lng"), 0),
		RadiusKm: parseFloatDefault(q.Get("radius"), h.defaultRadius),
		Category: q.Get("category"),
		Offset:   page * limit,
		Limit:    limit,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	missions := make([]missionResult, 0, len(result.Items))
	for _, item := range result.Items {
		missions = append(missions, missionResult{
			Mission:    item.Entity.(models.Mission),
			DistanceKm: item.DistanceKm,
		})
	}

	writeJSON(w, missionsResponse{
		Missions: missions,
		Total:    result.Total,
		Page:     page,
		HasMore:  result.HasMore,
	})
}

// CreateMission stores a new mission authored by the caller.
func (h *MissionHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input models.Mission
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if input.Title == "" || !input.Location.Coordinate.Valid() {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	mission, err := h.catalog.CreateMission(r.Context(), input, selfID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"mission": mission})
}

// JoinMission adds the caller to a mission's participants.
func (h *MissionHandler) JoinMission(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	mission, err := h.catalog.JoinMission(r.Context(), mux.Vars(r)["id"], selfID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"mission": mission, "message": "Successfully joined mission"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloatDefault(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

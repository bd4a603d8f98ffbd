package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"goodimpact-server/location"
	"goodimpact-server/match"
	"goodimpact-server/middleware"
	"goodimpact-server/models"
	"goodimpact-server/services"
	"goodimpact-server/utils/errors"
	"goodimpact-server/utils/geo"
)

type UserHandler struct {
	queries       *services.QueryService
	catalog       *services.CatalogService
	locations     *services.LocationService
	defaultRadius float64
}

func NewUserHandler(queries *services.QueryService, catalog *services.CatalogService, locations *services.LocationService, defaultRadius float64) *UserHandler {
	return &UserHandler{queries: queries, catalog: catalog, locations: locations, defaultRadius: defaultRadius}
}

type matchedUser struct {
	models.User
	MatchScore         float64  `json:"matchScore"`
	DistanceKm         *float64 `json:"distanceKm,omitempty"`
	FavoriteCategories []string `json:"favoriteCategories"`
}

type matchResponse struct {
	Users      []matchedUser `json:"users"`
	TotalCount int           `json:"totalCount"`
	HasMore    bool          `json:"hasMore"`
}

// GetUserMatches serves "users like me": peers in the caller's goodness-level
// band, scored by level affinity.
func (h *UserHandler) GetUserMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	selfID, _ := r.Context().Value("userID").(string)

	offset := parseIntDefault(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	limit := parseIntDefault(q.Get("limit"), services.DefaultPeerLimit)
	if limit <= 0 {
		limit = services.DefaultPeerLimit
	}

	result, err := h.queries.PeersLike(r.Context(), services.PeerParams{
		SelfID:      selfID,
		UserLevel:   parseIntDefault(q.Get("userLevel"), 0),
		LevelFilter: match.ParseLevelFilter(q.Get("levelFilter")),
		Lat:         parseFloatDefault(q.Get("lat"), 0),
		Lng:         parseFloatDefault(q.Get("lng"), 0),
		RadiusKm:    parseFloatDefault(q.Get("radius"), 0),
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	users := make([]matchedUser, 0, len(result.Items))
	for _, item := range result.Items {
		u := item.Entity.(models.User)
		users = append(users, matchedUser{
			User:               u,
			MatchScore:         item.Score,
			DistanceKm:         item.DistanceKm,
			FavoriteCategories: u.FavoriteCategories(),
		})
	}

	writeJSON(w, matchResponse{
		Users:      users,
		TotalCount: result.Total,
		HasMore:    result.HasMore,
	})
}

// GetProfile returns the caller's own profile record.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	user, err := h.catalog.User(r.Context(), selfID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]any{"user": user})
}

type pingInput struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	AccuracyM  *float64 `json:"accuracyM,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	Heading    *float64 `json:"heading,omitempty"`
	CapturedAt int64    `json:"capturedAt,omitempty"` // unix milliseconds
}

// PingLocation records a client-reported position fix.
func (h *UserHandler) PingLocation(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input pingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	capturedAt := time.Now().UTC()
	if input.CapturedAt > 0 {
		capturedAt = time.UnixMilli(input.CapturedAt).UTC()
	}

	err := h.locations.Ping(r.Context(), selfID, location.Sample{
		Coordinate: geo.Coordinate{Lat: input.Lat, Lng: input.Lng},
		AccuracyM:  input.AccuracyM,
		Speed:      input.Speed,
		Heading:    input.Heading,
		CapturedAt: capturedAt,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "success", "message": "Location updated"})
}

type locationErrorInput struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ReportLocationError records a client-side positioning failure; the
// caller's tracker degrades to the fallback coordinate.
func (h *UserHandler) ReportLocationError(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	var input locationErrorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	h.locations.ReportError(selfID, input.Code, input.Message)
	writeJSON(w, map[string]string{"status": "success"})
}

// RestartTracking re-acquires the caller's location subscription after a
// degradation. Restarts are always caller-driven.
func (h *UserHandler) RestartTracking(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	h.locations.Restart(selfID)
	writeJSON(w, map[string]string{"status": "success"})
}

// StopTracking tears down the caller's tracking session.
func (h *UserHandler) StopTracking(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	h.locations.Stop(selfID)
	writeJSON(w, map[string]string{"status": "success", "message": "Tracking stopped"})
}

// GetLocationState returns the caller's tracker snapshot, including the
// current (possibly fallback) coordinate and permission state.
func (h *UserHandler) GetLocationState(w http.ResponseWriter, r *http.Request) {
	selfID, ok := r.Context().Value("userID").(string)
	if !ok || selfID == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	snapshot, ok := h.locations.SnapshotFor(selfID)
	if !ok {
		middleware.WriteError(w, errors.ErrNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"state":      snapshot.State.String(),
		"current":    snapshot.Current,
		"tracking":   snapshot.Tracking,
		"permission": snapshot.Permission,
		"lastError":  snapshot.LastError.String(),
		"lastUpdate": snapshot.LastUpdate,
	})
}

type nearbyUser struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// GetNearbyUsers lists users currently pinging near the caller, resolved
// against the live geo index rather than the stored catalogue.
func (h *UserHandler) GetNearbyUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	selfID, _ := r.Context().Value("userID").(string)

	ref := geo.Coordinate{
		Lat: parseFloatDefault(q.Get("lat"), 0),
		Lng: parseFloatDefault(q.Get("lng"), 0),
	}
	if ref.IsZero() {
		if sample, ok := h.locations.CurrentFor(selfID); ok {
			ref = sample.Coordinate
		}
	}
	radius := parseFloatDefault(q.Get("radius"), h.defaultRadius)

	ids, err := h.locations.NearbyUserIDs(r.Context(), ref, radius)
	if err != nil {
		middleware.WriteError(w, errors.Wrap(err, "STORE_ERROR", "Failed to query nearby users", http.StatusInternalServerError))
		return
	}

	nearby := make([]nearbyUser, 0, len(ids))
	for _, id := range ids {
		if id == selfID {
			continue
		}
		user, err := h.catalog.User(r.Context(), id)
		if err != nil {
			continue
		}
		nearby = append(nearby, nearbyUser{
			UserID: user.ID,
			Name:   user.Name,
			Lat:    user.Location.Lat,
			Lng:    user.Location.Lng,
		})
	}

	writeJSON(w, map[string]any{"nearbyUsers": nearby, "count": len(nearby)})
}

package services

import (
	"context"
	"log"
	"sync"

	"goodimpact-server/location"
	"goodimpact-server/observability"
	"goodimpact-server/utils/errors"
	"goodimpact-server/utils/geo"
)

// GeoIndex mirrors live user positions for presence queries.
type GeoIndex interface {
	GeoUpsert(ctx context.Context, member string, c geo.Coordinate) error
	GeoNearby(ctx context.Context, c geo.Coordinate, radiusKm float64) ([]string, error)
}

// LocationService owns one location Tracker per authenticated user session.
// Client devices report fixes and positioning failures over HTTP; each report
// is pushed into that user's tracker source.
type LocationService struct {
	fallback geo.Coordinate
	geoIndex GeoIndex

	mu       sync.Mutex
	sessions map[string]*trackingSession
}

type trackingSession struct {
	tracker *location.Tracker
	source  *location.PushSource
}

func NewLocationService(fallback geo.Coordinate, geoIndex GeoIndex) *LocationService {
	return &LocationService{
		fallback: fallback,
		geoIndex: geoIndex,
		sessions: make(map[string]*trackingSession),
	}
}

// Ping records a client-reported fix, creating the tracking session on first
// use. The position is also mirrored into the geo index; an index failure is
// logged but does not reject the ping.
func (s *LocationService) Ping(ctx context.Context, userID string, sample location.Sample) error {
	if !sample.Coordinate.Valid() {
		return errors.ErrInvalidInput
	}

	sess := s.session(userID)
	sess.source.Push(sample)
	observability.LocationPings.Inc()

	if s.geoIndex != nil {
		if err := s.geoIndex.GeoUpsert(ctx, userID, sample.Coordinate); err != nil {
			log.Printf("Failed to update geo index for user %s: %v", userID, err)
		}
	}
	return nil
}

// ReportError feeds a client-side positioning failure into the session. The
// tracker classifies it and degrades to the fallback coordinate.
func (s *LocationService) ReportError(userID string, code int, message string) {
	sess := s.session(userID)
	sess.source.Fail(&location.SourceError{Code: code, Message: message})
}

// Restart re-acquires the session's subscription after a degradation.
// Retries are caller-driven; the tracker never restarts on its own.
func (s *LocationService) Restart(userID string) {
	sess := s.session(userID)
	sess.tracker.Start(context.Background())
}

// Stop tears down the user's tracking session, if any.
func (s *LocationService) Stop(userID string) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if ok {
		sess.tracker.Stop()
	}
}

// CurrentFor returns the user's current sample. ok is false when the user
// has no tracking session; callers fall back to their own default reference.
func (s *LocationService) CurrentFor(userID string) (location.Sample, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return location.Sample{}, false
	}
	return sess.tracker.Current(), true
}

// SnapshotFor returns the user's full tracker state.
func (s *LocationService) SnapshotFor(userID string) (location.Snapshot, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return location.Snapshot{}, false
	}
	return sess.tracker.Snapshot(), true
}

// NearbyUserIDs returns ids of users currently pinging within radiusKm of
// ref, nearest first.
func (s *LocationService) NearbyUserIDs(ctx context.Context, ref geo.Coordinate, radiusKm float64) ([]string, error) {
	if s.geoIndex == nil {
		return nil, nil
	}
	return s.geoIndex.GeoNearby(ctx, ref, radiusKm)
}

func (s *LocationService) session(userID string) *trackingSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		source := location.NewPushSource()
		tracker := location.NewTracker(source, s.fallback)
		tracker.Start(context.Background())
		sess = &trackingSession{tracker: tracker, source: source}
		s.sessions[userID] = sess
	}
	return sess
}

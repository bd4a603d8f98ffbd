package location_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"goodimpact-server/location"
	"goodimpact-server/utils/geo"
)

var yumboFallback = geo.Coordinate{Lat: 3.5836, Lng: -76.4951}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTrackerDeliversSamples(t *testing.T) {
	source := location.NewPushSource()
	tracker := location.NewTracker(source, yumboFallback)
	defer tracker.Stop()

	tracker.Start(context.Background())

	fix := location.Sample{
		Coordinate: geo.Coordinate{Lat: 3.5901, Lng: -76.4887},
		CapturedAt: time.Now(),
	}
	source.Push(fix)

	waitFor(t, "sample delivery", func() bool {
		return tracker.Current().Coordinate == fix.Coordinate
	})

	snap := tracker.Snapshot()
	if snap.State != location.StateWatching {
		t.Errorf("expected Watching, got %v", snap.State)
	}
	if !snap.Tracking {
		t.Error("expected tracking to be enabled")
	}
	if snap.Permission != location.PermissionGranted {
		t.Errorf("a successful fix implies granted permission, got %v", snap.Permission)
	}
	if snap.LastError != location.ErrorKindNone {
		t.Errorf("expected no error, got %v", snap.LastError)
	}
	if snap.LastUpdate.IsZero() {
		t.Error("expected lastUpdate to be stamped")
	}
}

func TestTrackerLastDeliveredWins(t *testing.T) {
	source := location.NewPushSource()
	tracker := location.NewTracker(source, yumboFallback)
	defer tracker.Stop()

	tracker.Start(context.Background())

	older := location.Sample{
		Coordinate: geo.Coordinate{Lat: 3.59, Lng: -76.49},
		CapturedAt: time.Now().Add(-time.Minute),
	}
	newerCapture := location.Sample{
		Coordinate: geo.Coordinate{Lat: 3.58, Lng: -76.50},
		CapturedAt: time.Now(),
	}

	// Delivered out of capture order: the later delivery wins.
	source.Push(newerCapture)
	source.Push(older)

	waitFor(t, "out-of-order delivery", func() bool {
		return tracker.Current().Coordinate == older.Coordinate
	})
}

func TestTrackerDegradesOnPermissionDenied(t *testing.T) {
	source := location.NewPushSource()
	tracker := location.NewTracker(source, yumboFallback)
	defer tracker.Stop()

	tracker.Start(context.Background())

	fix := location.Sample{Coordinate: geo.Coordinate{Lat: 3.59, Lng: -76.49}}
	source.Push(fix)
	waitFor(t, "initial fix", func() bool {
		return tracker.Current().Coordinate == fix.Coordinate
	})

	source.Fail(&location.SourceError{Code: location.CodePermissionDenied, Message: "User denied Geolocation"})

	waitFor(t, "degradation", func() bool {
		return tracker.Snapshot().State == location.StateDegraded
	})

	snap := tracker.Snapshot()
	if snap.Current.Coordinate != yumboFallback {
		t.Errorf("current must reset to the fallback, got %v", snap.Current.Coordinate)
	}
	if snap.Tracking {
		t.Error("tracking must be disabled after a delivery error")
	}
	if snap.LastError != location.ErrorKindPermissionDenied {
		t.Errorf("expected PermissionDenied, got %v", snap.LastError)
	}
	if snap.Permission != location.PermissionDenied {
		t.Errorf("expected denied permission, got %v", snap.Permission)
	}
}

func TestTrackerRestartAfterDegradation(t *testing.T) {
	source := location.NewPushSource()
	tracker := location.NewTracker(source, yumboFallback)
	defer tracker.Stop()

	tracker.Start(context.Background())
	source.Fail(&location.SourceError{Code: location.CodeTimeout, Message: "Timeout expired"})
	waitFor(t, "degradation", func() bool {
		return tracker.Snapshot().State == location.StateDegraded
	})

	// No automatic retry: the tracker stays degraded until an explicit restart.
	tracker.Start(context.Background())

	fix := location.Sample{Coordinate: geo.Coordinate{Lat: 3.60, Lng: -76.48}}
	source.Push(fix)
	waitFor(t, "recovery after restart", func() bool {
		return tracker.Current().Coordinate == fix.Coordinate
	})
	if snap := tracker.Snapshot(); snap.State != location.StateWatching {
		t.Errorf("expected Watching after restart, got %v", snap.State)
	}
}

func TestTrackerStopIdempotent(t *testing.T) {
	tracker := location.NewTracker(location.NewPushSource(), yumboFallback)

	// Stop on an idle tracker must not panic and must leave state unchanged.
	tracker.Stop()
	tracker.Stop()

	snap := tracker.Snapshot()
	if snap.State != location.StateIdle {
		t.Errorf("expected Idle, got %v", snap.State)
	}
	if snap.Current.Coordinate != yumboFallback {
		t.Errorf("current must hold the fallback, got %v", snap.Current.Coordinate)
	}
}

func TestTrackerStopIsSynchronization(t *testing.T) {
	source := location.NewPushSource()
	tracker := location.NewTracker(source, yumboFallback)

	tracker.Start(context.Background())
	fix := location.Sample{Coordinate: geo.Coordinate{Lat: 3.59, Lng: -76.49}}
	source.Push(fix)
	waitFor(t, "initial fix", func() bool {
		return tracker.Current().Coordinate == fix.Coordinate
	})

	tracker.Stop()
	before := tracker.Snapshot()
	if before.Tracking {
		t.Error("tracking must be off after Stop")
	}

	// Nothing pushed after Stop may mutate the tracker.
	source.Push(location.Sample{Coordinate: geo.Coordinate{Lat: 1, Lng: 1}})
	time.Sleep(50 * time.Millisecond)

	after := tracker.Snapshot()
	if after.Current.Coordinate != before.Current.Coordinate {
		t.Errorf("state mutated after Stop: %v", after.Current.Coordinate)
	}
}

func TestTrackerWithoutCapability(t *testing.T) {
	tracker := location.NewTracker(nil, yumboFallback)
	tracker.Start(context.Background())

	snap := tracker.Snapshot()
	if snap.State != location.StateDegraded {
		t.Fatalf("expected Degraded, got %v", snap.State)
	}
	if snap.LastError != location.ErrorKindCapabilityUnavailable {
		t.Errorf("expected CapabilityUnavailable, got %v", snap.LastError)
	}
	if snap.Current.Coordinate != yumboFallback {
		t.Errorf("current must hold the fallback, got %v", snap.Current.Coordinate)
	}
}

// countingSource tracks how many watch subscriptions are live at once.
type countingSource struct {
	mu     sync.Mutex
	active int
}

func (s *countingSource) Watch(ctx context.Context, _ location.WatchOptions) (<-chan location.Update, error) {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	ch := make(chan location.Update)
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *countingSource) activeWatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func TestTrackerConcurrentRestarts(t *testing.T) {
	source := &countingSource{}
	tracker := location.NewTracker(source, yumboFallback)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Start(context.Background())
		}()
	}
	wg.Wait()

	waitFor(t, "single live subscription", func() bool {
		return source.activeWatches() == 1
	})
	if snap := tracker.Snapshot(); snap.State != location.StateWatching {
		t.Errorf("expected Watching after racing restarts, got %v", snap.State)
	}

	tracker.Stop()
	waitFor(t, "subscription teardown", func() bool {
		return source.activeWatches() == 0
	})
}

// deniedSource reports denied permission before any watch begins.
type deniedSource struct {
	watched bool
}

func (s *deniedSource) Watch(ctx context.Context, _ location.WatchOptions) (<-chan location.Update, error) {
	s.watched = true
	ch := make(chan location.Update)
	return ch, nil
}

func (s *deniedSource) QueryPermission(context.Context) (location.Permission, error) {
	return location.PermissionDenied, nil
}

func TestTrackerPermissionPrecheck(t *testing.T) {
	source := &deniedSource{}
	tracker := location.NewTracker(source, yumboFallback)
	tracker.Start(context.Background())

	snap := tracker.Snapshot()
	if snap.State != location.StateDegraded {
		t.Fatalf("expected Degraded, got %v", snap.State)
	}
	if snap.LastError != location.ErrorKindPermissionDenied {
		t.Errorf("expected PermissionDenied, got %v", snap.LastError)
	}
	if source.watched {
		t.Error("a denied permission must not open a subscription")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected location.ErrorKind
	}{
		{
			"Permission denied",
			&location.SourceError{Code: location.CodePermissionDenied, Message: "User denied Geolocation"},
			location.ErrorKindPermissionDenied,
		},
		{
			"Position unavailable",
			&location.SourceError{Code: location.CodePositionUnavailable, Message: "Position unavailable"},
			location.ErrorKindPositionUnavailable,
		},
		{
			"Timeout",
			&location.SourceError{Code: location.CodeTimeout, Message: "Timeout expired"},
			location.ErrorKindTimeout,
		},
		{
			"Policy blocked overrides code",
			&location.SourceError{Code: location.CodePermissionDenied, Message: "Geolocation has been disabled by permissions policy"},
			location.ErrorKindPolicyBlocked,
		},
		{
			"Unknown code",
			&location.SourceError{Code: 99, Message: "something odd"},
			location.ErrorKindUnknown,
		},
		{
			"Non-source error",
			errors.New("plain failure"),
			location.ErrorKindUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := location.Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

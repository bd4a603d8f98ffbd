// Package location maintains a live, fallback-aware location state for one
// client session.
package location

import (
	"context"
	"sync"
	"time"

	"goodimpact-server/observability"
	"goodimpact-server/utils/geo"
)

// State names the tracker lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateWatching
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateWatching:
		return "watching"
	default:
		return "degraded"
	}
}

// Snapshot is an atomic copy of the tracker state.
type Snapshot struct {
	State      State      `json:"state"`
	Current    Sample     `json:"current"`
	Tracking   bool       `json:"tracking"`
	Permission Permission `json:"permission"`
	LastError  ErrorKind  `json:"-"`
	LastUpdate time.Time  `json:"lastUpdate,omitzero"`
}

// Tracker owns the location state for one client session. Current is never
// absent: it starts at the configured fallback coordinate and is reset to it
// whenever the source becomes untrustworthy, so downstream geo-queries never
// branch on "no location available".
//
// Delivery callbacks and explicit Start/Stop calls can race, so every state
// mutation is serialized behind mu.
type Tracker struct {
	source   Source
	fallback geo.Coordinate
	opts     WatchOptions

	// startMu serializes Start calls end to end; Stop remains callable
	// concurrently. Without it, two racing restarts could both pass the
	// stop and leave the first subscription delivering unobserved.
	startMu sync.Mutex

	mu         sync.Mutex
	state      State
	current    Sample
	tracking   bool
	permission Permission
	lastErr    ErrorKind
	lastUpdate time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewTracker creates an idle tracker. A nil source means the platform has no
// location capability; Start will degrade immediately. fallback must be a
// real coordinate, never the (0, 0) sentinel.
func NewTracker(source Source, fallback geo.Coordinate) *Tracker {
	t := &Tracker{
		source:     source,
		fallback:   fallback,
		opts:       DefaultWatchOptions(),
		state:      StateIdle,
		permission: PermissionUnknown,
	}
	t.current = t.fallbackSample()
	return t
}

// Start moves the tracker to Acquiring and subscribes to the source. Any
// prior subscription is cancelled first, so Start doubles as the explicit
// restart path out of Degraded and never leaves two subscriptions delivering
// concurrently, even when restarts race.
func (t *Tracker) Start(ctx context.Context) {
	t.startMu.Lock()
	defer t.startMu.Unlock()

	t.Stop()

	t.mu.Lock()
	t.state = StateAcquiring

	if t.source == nil {
		t.degradeLocked(ErrorKindCapabilityUnavailable)
		t.mu.Unlock()
		return
	}

	if pq, ok := t.source.(PermissionQuerier); ok {
		if perm, err := pq.QueryPermission(ctx); err == nil {
			t.permission = perm
			if perm == PermissionDenied {
				t.degradeLocked(ErrorKindPermissionDenied)
				t.mu.Unlock()
				return
			}
		}
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	updates, err := t.source.Watch(watchCtx, t.opts)
	if err != nil {
		cancel()
		t.degradeLocked(Classify(err))
		t.mu.Unlock()
		return
	}

	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.state = StateWatching
	t.tracking = true
	t.mu.Unlock()

	go t.consume(watchCtx, updates, done)
}

// Stop cancels any active subscription and waits for the delivery goroutine
// to finish: no callback mutates state after Stop returns. Valid from any
// state and a no-op when already stopped.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.tracking = false
	if t.state == StateAcquiring || t.state == StateWatching {
		t.state = StateIdle
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Current returns the sample consumers should use right now. Always usable:
// the fallback coordinate when no trusted fix exists.
func (t *Tracker) Current() Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Snapshot returns an atomic copy of the full tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		State:      t.state,
		Current:    t.current,
		Tracking:   t.tracking,
		Permission: t.permission,
		LastError:  t.lastErr,
		LastUpdate: t.lastUpdate,
	}
}

func (t *Tracker) consume(ctx context.Context, updates <-chan Update, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Err != nil {
				t.deliveryError(u.Err)
				return
			}
			if u.Sample != nil {
				t.apply(*u.Sample)
			}
		}
	}
}

// apply records a successful fix. The most recently delivered sample wins;
// capture order is not guaranteed monotonic, so callers needing monotonicity
// must compare CapturedAt themselves.
func (t *Tracker) apply(s Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateWatching {
		return
	}
	t.current = s
	t.permission = PermissionGranted
	t.lastErr = ErrorKindNone
	t.lastUpdate = time.Now()
}

func (t *Tracker) deliveryError(err error) {
	kind := Classify(err)
	t.mu.Lock()
	if t.state != StateWatching {
		t.mu.Unlock()
		return
	}
	t.degradeLocked(kind)
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// degradeLocked resets to the fallback coordinate. A stale fix from an
// erroring source is worse than the fallback, so current is never left at
// the last delivered value. Caller holds mu.
func (t *Tracker) degradeLocked(kind ErrorKind) {
	t.state = StateDegraded
	t.tracking = false
	t.current = t.fallbackSample()
	t.lastErr = kind
	if kind == ErrorKindPermissionDenied || kind == ErrorKindPolicyBlocked {
		t.permission = PermissionDenied
	}
	observability.TrackerDegradations.WithLabelValues(kind.String()).Inc()
}

func (t *Tracker) fallbackSample() Sample {
	return Sample{Coordinate: t.fallback}
}

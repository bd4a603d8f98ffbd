package location

import (
	"context"
	"time"

	"goodimpact-server/utils/geo"
)

// Sample is a single positioning fix delivered by a Source. Immutable once
// created. Optional readings are nil when the platform did not report them.
type Sample struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	AccuracyM  *float64       `json:"accuracyM,omitempty"`
	CapturedAt time.Time      `json:"capturedAt"`
	Speed      *float64       `json:"speed,omitempty"`
	Heading    *float64       `json:"heading,omitempty"`
}

// Update carries either a sample or a delivery error from a Source.
type Update struct {
	Sample *Sample
	Err    error
}

// AcquisitionTimeout is how long a source may take to produce a fix before
// the failure is reported with CodeTimeout.
const AcquisitionTimeout = 10 * time.Second

// WatchOptions mirror the acquisition settings of the platform location API.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultWatchOptions requests fresh, high-accuracy fixes.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		HighAccuracy: true,
		Timeout:      AcquisitionTimeout,
		MaximumAge:   0,
	}
}

// Source is a continuous position feed. Watch delivers updates on the
// returned channel on its own schedule until ctx is cancelled; the tracker
// never polls it.
type Source interface {
	Watch(ctx context.Context, opts WatchOptions) (<-chan Update, error)
}

// Permission mirrors the platform permission state for the location
// capability.
type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// PermissionQuerier is implemented by sources that can report the permission
// state ahead of a watch, letting the tracker skip a subscription that is
// guaranteed to fail.
type PermissionQuerier interface {
	QueryPermission(ctx context.Context) (Permission, error)
}

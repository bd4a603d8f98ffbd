package location

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a positioning failure.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindCapabilityUnavailable
	ErrorKindPermissionDenied
	ErrorKindPositionUnavailable
	ErrorKindTimeout
	ErrorKindPolicyBlocked
	ErrorKindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindCapabilityUnavailable:
		return "capability_unavailable"
	case ErrorKindPermissionDenied:
		return "permission_denied"
	case ErrorKindPositionUnavailable:
		return "position_unavailable"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindPolicyBlocked:
		return "policy_blocked"
	default:
		return "unknown"
	}
}

// Platform geolocation error codes (W3C Geolocation API).
const (
	CodePermissionDenied    = 1
	CodePositionUnavailable = 2
	CodeTimeout             = 3
)

// SourceError is a positioning failure reported by a Source, carrying the
// platform code and message the tracker classifies from.
type SourceError struct {
	Code    int
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("location source error %d: %s", e.Code, e.Message)
}

// Classify maps a delivery error to an ErrorKind. Errors mentioning a
// permissions policy are blocked by the embedder rather than the user; they
// degrade like a permission denial but keep a distinct kind for diagnostics.
func Classify(err error) ErrorKind {
	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		return ErrorKindUnknown
	}
	if strings.Contains(strings.ToLower(srcErr.Message), "permissions policy") {
		return ErrorKindPolicyBlocked
	}
	switch srcErr.Code {
	case CodePermissionDenied:
		return ErrorKindPermissionDenied
	case CodePositionUnavailable:
		return ErrorKindPositionUnavailable
	case CodeTimeout:
		return ErrorKindTimeout
	}
	return ErrorKindUnknown
}

// Package matcherrors holds the sentinel errors surfaced by the matchmaker
// in error events. Used by the matchmaker and tapvalidator packages, so the
// validator's rejections can be matched without importing the matchmaker.
package matcherrors

import "errors"

// Queue/match membership errors.
var (
	ErrAlreadyQueued  = errors.New("already queued")
	ErrAlreadyInMatch = errors.New("already in a match")
	ErrNotQueued      = errors.New("not queued")
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotInMatch     = errors.New("not in match")
	ErrMatchNotActive = errors.New("match not active")
	ErrBadPayload     = errors.New("bad payload")
)

// TapRejectReason distinguishes why a submitted tap was rejected by the
// tap validator (spec §4.3). It is carried by ErrInvalidTap.
type TapRejectReason string

const (
	ReasonClockSkew   TapRejectReason = "ClockSkew"
	ReasonRateLimited TapRejectReason = "RateLimited"
)

// InvalidTapError wraps a tap rejection reason so callers can both
// errors.Is against a shared sentinel and inspect which rule rejected it.
type InvalidTapError struct {
	Reason TapRejectReason
}

func (e *InvalidTapError) Error() string {
	return "invalid tap: " + string(e.Reason)
}

// Is makes errors.Is(err, ErrInvalidTap) succeed for any InvalidTapError,
// regardless of reason.
func (e *InvalidTapError) Is(target error) bool {
	return target == ErrInvalidTap
}

// ErrInvalidTap is the sentinel matched by errors.Is against any *InvalidTapError.
var ErrInvalidTap = errors.New("invalid tap")

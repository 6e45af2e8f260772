// Package tapvalidator implements the authoritative, pure per-tap validation
// rules described in spec.md §4.3. It never reads match-wide state: every
// call is a function of three timestamps and two configured limits.
package tapvalidator

import "taprace-server/matcherrors"

// Validate checks one submitted tap against the server's wall clock.
//
// Rules are evaluated in order:
//  1. Clock skew: |now - clientTimestampMs| must be within skewWindowMs.
//  2. Minimum interval: now - lastTapAtMs must be at least 1000/maxTapsPerSecond.
//
// lastTapAtMs is 0 before a player's first tap in a match; the first tap
// always clears the interval check since now is always far larger than 0.
// All timestamps are server wall-clock milliseconds except clientTimestampMs,
// which is client-supplied and used only for the skew check — never to
// advance or rewind server-held state.
func Validate(lastTapAtMs, nowMs, clientTimestampMs int64, skewWindowMs, maxTapsPerSecond int) error {
	skew := nowMs - clientTimestampMs
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(skewWindowMs) {
		return &matcherrors.InvalidTapError{Reason: matcherrors.ReasonClockSkew}
	}

	minInterval := int64(1000 / maxTapsPerSecond)
	if nowMs-lastTapAtMs < minInterval {
		return &matcherrors.InvalidTapError{Reason: matcherrors.ReasonRateLimited}
	}

	return nil
}

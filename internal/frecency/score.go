package frecency

import (
	"math"
	"time"
)

// DefaultHalfLife is how long it takes an unused item's score to halve.
const DefaultHalfLife = 3 * 24 * time.Hour

// Raw scores are stored relative to a reference time t0. An item whose
// effective score at time t is e has raw score e * 2^((t-t0)/halfLife), so
// decaying every record costs nothing: only new updates grow.

// Decay returns 2^(elapsed/halfLife), the factor between a raw score and
// its effective value after elapsed seconds.
func Decay(elapsed, halfLife float64) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Exp2(elapsed / halfLife)
}

// Effective converts a raw score to its value elapsed seconds after the
// reference time.
func Effective(raw, elapsed, halfLife float64) float64 {
	return raw / Decay(elapsed, halfLife)
}

// Bump returns the raw score after adding weight to the effective score.
func Bump(raw, weight, elapsed, halfLife float64) (float64, error) {
	if !ValidWeight(weight) {
		return raw, ErrInvalidWeight
	}
	factor := Decay(elapsed, halfLife)
	next := (raw/factor + weight) * factor
	if math.IsInf(next, 0) || math.IsNaN(next) {
		return raw, ErrOverflow
	}
	return next, nil
}

// ValidWeight reports whether w may be added to a score.
func ValidWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

// Seconds converts t to fractional unix seconds at millisecond precision.
func Seconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// FromSeconds is the inverse of Seconds.
func FromSeconds(s float64) time.Time {
	return time.UnixMilli(int64(math.Round(s * 1000)))
}

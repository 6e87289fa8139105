package frecency

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidWeight = errors.New("score weight must be finite and non-negative")
	// ErrOverflow is returned when the reference time is so far in the past
	// that decay factors no longer fit a float64. Rebaseline fixes it.
	ErrOverflow = errors.New("score overflow: rebaseline required")
	ErrCorrupt  = errors.New("corrupt database")
	ErrLocked   = errors.New("database lock unavailable")
)

package shared

import "time"

// Clock supplies the current time to domain operations that stamp dates.
// Production code uses SystemClock; tests substitute a fixed clock so that
// set-once stamps (received, ready-for-pickup, picked-up) are deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

// Now returns the current wall-clock time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a Clock frozen at a single instant
type FixedClock struct {
	Instant time.Time
}

// Now returns the frozen instant
func (c FixedClock) Now() time.Time {
	return c.Instant
}

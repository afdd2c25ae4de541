package engine

import "time"

// Clock supplies wall-clock time. Each engine operation reads it exactly
// once, so everything one operation writes shares a single instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. The CLI uses it for --at.
type FixedClock struct {
	At time.Time
}

// Now returns c.At in UTC.
func (c FixedClock) Now() time.Time {
	return c.At.UTC()
}

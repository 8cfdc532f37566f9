/*

This file contains the session clock abstraction. Time-of-day score bonuses read
the clock through this interface so a cycle can be replayed at any fixed instant.

*/

package analyzer

import "time"

// SessionClock supplies the instant used for time-of-day scoring adjustments.
// Production uses SystemClock; tests pin a fixed instant so scoring is
// reproducible instead of depending on when the test happens to run.
type SessionClock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant.
type FixedClock struct {
	Instant time.Time
}

func (f FixedClock) Now() time.Time {
	return f.Instant
}

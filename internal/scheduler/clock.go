/*

This file contains the scheduler's clock abstraction. Every wait in the
scheduler goes through it, so tests simulate hours of cooldown and delay
without sleeping wall-clock time.

*/

package scheduler

import (
	"context"
	"time"
)

// Clock supplies current time and cancellable waits to the scheduler.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock waits on the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

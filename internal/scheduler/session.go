/*

This file contains the session state: the per-UTC-day spend ledger and dispatch
counters. The state is owned by the scheduler instance that created it; nothing
here is process-global, so two schedulers in one process never share a budget.

*/

package scheduler

import (
	"errors"
	"sync"
	"time"
)

var ErrDailySpendExceeded = errors.New("daily spend limit exceeded")

// SessionState tracks what the current UTC day has already committed.
type SessionState struct {
	mu             sync.Mutex
	day            time.Time
	spentTokens    float64
	limitTokens    float64
	dispatchCount  int
	failureCount   int
}

// NewSessionState creates a session ledger with the given daily spend limit in
// token units. A zero or negative limit disables the spend check.
func NewSessionState(limitTokens float64) *SessionState {
	return &SessionState{limitTokens: limitTokens}
}

// ReserveSpend commits amount against the day's budget, rolling the ledger
// over when the UTC day has changed. Returns ErrDailySpendExceeded when the
// commitment would cross the limit; nothing is reserved in that case.
func (s *SessionState) ReserveSpend(amount float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(now)

	if s.limitTokens > 0 && s.spentTokens+amount > s.limitTokens {
		return ErrDailySpendExceeded
	}
	s.spentTokens += amount
	return nil
}

// RefundSpend returns a previously reserved amount after a failed dispatch.
func (s *SessionState) RefundSpend(amount float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(now)

	s.spentTokens -= amount
	if s.spentTokens < 0 {
		s.spentTokens = 0
	}
}

// RecordDispatch updates the day's dispatch counters.
func (s *SessionState) RecordDispatch(success bool, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(now)

	s.dispatchCount++
	if !success {
		s.failureCount++
	}
}

// SessionStats is a point-in-time copy of the day's counters.
type SessionStats struct {
	Day           time.Time `json:"day"`
	SpentTokens   float64   `json:"spent_tokens"`
	LimitTokens   float64   `json:"limit_tokens"`
	DispatchCount int       `json:"dispatch_count"`
	FailureCount  int       `json:"failure_count"`
}

// Stats returns a snapshot of the current day's counters.
func (s *SessionState) Stats(now time.Time) SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollover(now)

	return SessionStats{
		Day:           s.day,
		SpentTokens:   s.spentTokens,
		LimitTokens:   s.limitTokens,
		DispatchCount: s.dispatchCount,
		FailureCount:  s.failureCount,
	}
}

// rollover resets the ledger when the UTC day changed. Must be called with the
// lock held.
func (s *SessionState) rollover(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(s.day) {
		s.day = day
		s.spentTokens = 0
		s.dispatchCount = 0
		s.failureCount = 0
	}
}

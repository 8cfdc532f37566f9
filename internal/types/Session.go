/*

This file contains the per-cycle result handed back to callers and the snapshot
shape persisted to the database after every decision cycle.

*/

package types

import "time"

// CycleResult is what RunDecisionCycle returns. Every cycle yields a directive,
// even when upstream data was unavailable.
type CycleResult struct {
	CycleID   string              `json:"cycle_id"`
	Mint      string              `json:"mint"`
	Score     SurvivabilityResult `json:"score"`
	RiskLevel RiskLevel           `json:"risk_level"`
	Directive Directive           `json:"directive"`
	Reports   SignalReports       `json:"reports"`
	EventCount int                `json:"event_count"`
}

// CycleSnapshot is the persisted record of one completed decision cycle,
// including any dispatch outcomes the scheduler produced for it.
type CycleSnapshot struct {
	SnapshotID   int64             `json:"snapshot_id,omitempty"`
	CycleNumber  int               `json:"cycle_number"`
	CycleID      string            `json:"cycle_id"`
	Mint         string            `json:"mint"`
	Timestamp    time.Time         `json:"timestamp"`
	ParamsID     *int64            `json:"params_id,omitempty"`
	Score        float64           `json:"score"`
	Components   SurvivabilityResult `json:"components"`
	RiskLevel    RiskLevel         `json:"risk_level"`
	Directive    Directive         `json:"directive"`
	Reports      SignalReports     `json:"reports"`
	Outcomes     []DispatchOutcome `json:"outcomes"`
	EventCount   int               `json:"event_count"`
	DurationMs   int64             `json:"duration_ms"`
}

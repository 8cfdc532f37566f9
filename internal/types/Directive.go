/*

This file contains the Directive type, the single output of the decision engine,
and the independent ordinal RiskLevel classification.

*/

package types

// DirectiveAction is the tagged action of a Directive.
type DirectiveAction string

const (
	ActionBuy   DirectiveAction = "BUY"
	ActionSell  DirectiveAction = "SELL"
	ActionHold  DirectiveAction = "HOLD"
	ActionPause DirectiveAction = "PAUSE"
	ActionExit  DirectiveAction = "EXIT"
)

// Directive is the decision engine's single output: what to do, how much of the
// position or budget to move, and the rationale of the rule that fired.
// Invariants (enforced at the planner boundary, not here):
//   - Percentage is within [0,100].
//   - Percentage == 0 only for HOLD and PAUSE.
//   - EXIT always carries Percentage == 100.
type Directive struct {
	Action     DirectiveAction `json:"action"`
	Percentage float64         `json:"percentage"`
	Reason     string          `json:"reason"`
}

// IsActionable reports whether the directive requires the scheduler to do anything.
func (d Directive) IsActionable() bool {
	return d.Action == ActionBuy || d.Action == ActionSell || d.Action == ActionExit
}

// RiskLevel is the ordinal severity classification computed independently of
// which directive rule fired.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank returns the ordinal position of the level, low=0 .. critical=3.
// Unknown values rank as critical so a corrupted level is never treated as safe.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 3
	}
}

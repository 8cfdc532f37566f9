/*

This file contains the risk-level classifier. It runs off the same inputs as
the directive rules but is deliberately independent of which rule fired: a
HOLD cycle can still be high risk, and callers sizing exposure need to know.

*/

package planner

import (
	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var riskLogger = logger.GetForComponent("risk_classifier")

// Risk score boundaries for the four ordinal buckets.
const (
	riskMediumBoundary   = 30.0
	riskHighBoundary     = 55.0
	riskCriticalBoundary = 75.0
)

// ClassifyRisk maps survivability, panic, and insider overhang onto an additive
// 0-100 risk score and buckets it into the four ordinal levels. Each weighted
// term is oriented so that higher means riskier.
func ClassifyRisk(in DecisionInput, params types.StrategyParameters) types.RiskLevel {
	scoreRisk := (100 - in.Score.Score) * params.RiskScoreWeight
	panicRisk := float64(in.Reports.Panic.PanicScore) * params.RiskPanicWeight

	// Remaining insider holdings are the risk, so an exhausted dev contributes
	// nothing here.
	devRisk := in.Reports.Dev.RemainingPercentage * params.RiskDevWeight

	riskScore := scoreRisk + panicRisk + devRisk

	var level types.RiskLevel
	switch {
	case riskScore < riskMediumBoundary:
		level = types.RiskLow
	case riskScore < riskHighBoundary:
		level = types.RiskMedium
	case riskScore < riskCriticalBoundary:
		level = types.RiskHigh
	default:
		level = types.RiskCritical
	}

	riskLogger.Debug().
		Float64("scoreRisk", scoreRisk).
		Float64("panicRisk", panicRisk).
		Float64("devRisk", devRisk).
		Float64("riskScore", riskScore).
		Str("level", string(level)).
		Msg("Risk level classified")

	return level
}

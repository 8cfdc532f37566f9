/*

This file contains the directive decision engine. One cycle's survivability
score and signal reports go in, exactly one validated Directive comes out.

The rules are evaluated in a fixed order and the first match wins. Several rule
conditions can hold at the same time (a panicked token can still look like a
buy on raw score), so the ordering itself is load-bearing: safety overrides
come first, conviction buys next, and the risk-off sell is the default when
nothing else claims the cycle.

*/

package planner

import (
	"errors"
	"fmt"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidDirective     = errors.New("directive failed validation")
	ErrInvalidDecisionInput = errors.New("decision inputs are invalid")
)

var plannerLogger = logger.GetForComponent("planner")

// DecisionInput carries everything the rule set reads. The planner never
// re-derives data from raw events; it trusts the analyzer's reports.
type DecisionInput struct {
	Score   types.SurvivabilityResult
	Reports types.SignalReports
}

// directiveRule is one ordered decision rule. Matches returns the directive and
// true when the rule claims the cycle.
type directiveRule struct {
	name    string
	matches func(in DecisionInput, params types.StrategyParameters) (types.Directive, bool)
}

// rules is the fixed evaluation order. Reordering entries changes behavior;
// every rule below the first match is dead for that cycle.
var rules = []directiveRule{
	{name: "exit_on_panic", matches: exitOnPanic},
	{name: "pause_on_neutral_market", matches: pauseOnNeutralMarket},
	{name: "buy_tier_1", matches: buyTier1},
	{name: "buy_tier_2", matches: buyTier2},
	{name: "buy_tier_3", matches: buyTier3},
	{name: "hold_on_moderate", matches: holdOnModerate},
	{name: "sell_risk_off", matches: sellRiskOff},
}

// DecideDirective evaluates the ordered rule set against one cycle's analysis
// output and returns the first matching directive. The terminal fallback is
// HOLD, so a caller always receives a decision.
// Inputs:
//   - in: The cycle's survivability result and signal reports.
//   - params: The strategy parameters carrying every rule threshold.
//
// Output:
//   - The validated Directive of the first matching rule.
//   - An error only when inputs or the produced directive fail validation.
func DecideDirective(in DecisionInput, params types.StrategyParameters) (types.Directive, error) {
	if in.Score.Score < 0 || in.Score.Score > 100 {
		plannerLogger.Error().
			Float64("score", in.Score.Score).
			Msg("Survivability score out of range")
		return types.Directive{}, fmt.Errorf("%w: score %.2f outside [0,100]", ErrInvalidDecisionInput, in.Score.Score)
	}

	for _, rule := range rules {
		directive, ok := rule.matches(in, params)
		if !ok {
			continue
		}

		if err := ValidateDirective(directive); err != nil {
			// A rule emitting an invalid directive is a programming error, not
			// a market condition. Surface it instead of silently holding.
			plannerLogger.Error().
				Str("rule", rule.name).
				Err(err).
				Msg("Rule produced invalid directive")
			return types.Directive{}, errors.Join(ErrInvalidDirective, err)
		}

		plannerLogger.Info().
			Str("rule", rule.name).
			Str("action", string(directive.Action)).
			Float64("percentage", directive.Percentage).
			Float64("score", in.Score.Score).
			Int("panicScore", in.Reports.Panic.PanicScore).
			Msg("Directive decided")
		return directive, nil
	}

	// Terminal fallback: nothing claimed the cycle, do nothing loudly.
	fallback := types.Directive{
		Action: types.ActionHold,
		Reason: "no rule matched, holding by default",
	}
	plannerLogger.Info().
		Float64("score", in.Score.Score).
		Msg("No rule matched, falling back to HOLD")
	return fallback, nil
}

// Rule 1: unconditional safety override. A panicking crowd against a weak
// score means the token is dying in real time.
func exitOnPanic(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	if float64(in.Reports.Panic.PanicScore) > params.ExitPanicThreshold && in.Score.Score < params.ExitScoreCeiling {
		return types.Directive{
			Action:     types.ActionExit,
			Percentage: 100,
			Reason: fmt.Sprintf("panic score %d with survivability %.1f, exiting full position",
				in.Reports.Panic.PanicScore, in.Score.Score),
		}, true
	}
	return types.Directive{}, false
}

// Rule 2: flat flow and flat sentiment at the same time means there is nothing
// to trade against. Acting in a dead market only leaks fees and pattern.
func pauseOnNeutralMarket(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	inflow := in.Reports.Flow.InflowStrength
	neutralFlow := inflow >= params.PauseInflowLow && inflow <= params.PauseInflowHigh
	abs := in.Reports.Sentiment.NetSentiment
	if abs < 0 {
		abs = -abs
	}
	neutralSentiment := abs <= params.PauseSentimentBand

	if neutralFlow && neutralSentiment {
		return types.Directive{
			Action: types.ActionPause,
			Reason: fmt.Sprintf("neutral market: inflow %.1f, net sentiment %d",
				inflow, in.Reports.Sentiment.NetSentiment),
		}, true
	}
	return types.Directive{}, false
}

// Rule 3a: highest conviction entry. Strong score, calm crowd, real inflow.
func buyTier1(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	if in.Score.Score >= params.BuyTier1Score &&
		float64(in.Reports.Panic.PanicScore) <= params.BuyTier1MaxPanic &&
		in.Reports.Flow.InflowStrength >= params.BuyTier1MinInflow {
		return types.Directive{
			Action:     types.ActionBuy,
			Percentage: withWhaleBonus(params.BuyTier1Percent, in, params),
			Reason:     fmt.Sprintf("tier-1 entry: score %.1f, inflow %.1f", in.Score.Score, in.Reports.Flow.InflowStrength),
		}, true
	}
	return types.Directive{}, false
}

// Rule 3b: solid score with the insider overhang mostly gone.
func buyTier2(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	devClear := in.Reports.Dev.Exhausted || in.Reports.Dev.RemainingPercentage <= params.BuyTier2MinDevRemaining
	if in.Score.Score >= params.BuyTier2Score &&
		float64(in.Reports.Panic.PanicScore) <= params.BuyTier2MaxPanic &&
		devClear {
		return types.Directive{
			Action:     types.ActionBuy,
			Percentage: withWhaleBonus(params.BuyTier2Percent, in, params),
			Reason:     fmt.Sprintf("tier-2 entry: score %.1f, dev remaining %.1f%%", in.Score.Score, in.Reports.Dev.RemainingPercentage),
		}, true
	}
	return types.Directive{}, false
}

// Rule 3c: speculative toe-hold. Moderate score carried by inflow alone.
func buyTier3(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	if in.Score.Score >= params.BuyTier3Score &&
		in.Reports.Flow.InflowStrength >= params.BuyTier3MinInflow {
		return types.Directive{
			Action:     types.ActionBuy,
			Percentage: withWhaleBonus(params.BuyTier3Percent, in, params),
			Reason:     fmt.Sprintf("tier-3 entry: score %.1f on inflow %.1f", in.Score.Score, in.Reports.Flow.InflowStrength),
		}, true
	}
	return types.Directive{}, false
}

// Rule 4: moderate score and a calm crowd. Sit on the position.
func holdOnModerate(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	if in.Score.Score >= params.HoldMinScore &&
		float64(in.Reports.Panic.PanicScore) < params.HoldMaxPanic {
		return types.Directive{
			Action: types.ActionHold,
			Reason: fmt.Sprintf("moderate score %.1f with panic %d, holding", in.Score.Score, in.Reports.Panic.PanicScore),
		}, true
	}
	return types.Directive{}, false
}

// Rule 5: risk-off default. The sell size steps up with panic severity.
func sellRiskOff(in DecisionInput, params types.StrategyParameters) (types.Directive, bool) {
	percentage := params.SellDefaultPercent
	if float64(in.Reports.Panic.PanicScore) >= params.SellSeverePanicThreshold {
		percentage = params.SellSeverePercent
	}
	return types.Directive{
		Action:     types.ActionSell,
		Percentage: percentage,
		Reason:     fmt.Sprintf("risk-off: score %.1f, panic %d", in.Score.Score, in.Reports.Panic.PanicScore),
	}, true
}

// withWhaleBonus adds size to a buy when whale participation clears the
// threshold, capped at a full position.
func withWhaleBonus(base float64, in DecisionInput, params types.StrategyParameters) float64 {
	if in.Reports.Profile.WhalePct >= params.WhaleBonusMinWhalePct {
		base += params.WhaleBonusPercent
	}
	if base > 100 {
		base = 100
	}
	return base
}

// ValidateDirective enforces the directive invariants once, at the decision
// boundary. Everything downstream may assume a valid directive.
//   - Action is one of the five known actions.
//   - Percentage is within [0,100].
//   - HOLD and PAUSE carry zero percentage; BUY and SELL carry a positive one.
//   - EXIT always carries 100.
func ValidateDirective(d types.Directive) error {
	switch d.Action {
	case types.ActionBuy, types.ActionSell, types.ActionHold, types.ActionPause, types.ActionExit:
	default:
		return fmt.Errorf("unknown action %q", d.Action)
	}

	if d.Percentage < 0 || d.Percentage > 100 {
		return fmt.Errorf("percentage %.2f outside [0,100]", d.Percentage)
	}

	switch d.Action {
	case types.ActionHold, types.ActionPause:
		if d.Percentage != 0 {
			return fmt.Errorf("%s must carry zero percentage, got %.2f", d.Action, d.Percentage)
		}
	case types.ActionExit:
		if d.Percentage != 100 {
			return fmt.Errorf("EXIT must carry percentage 100, got %.2f", d.Percentage)
		}
	case types.ActionBuy, types.ActionSell:
		if d.Percentage <= 0 {
			return fmt.Errorf("%s must carry a positive percentage, got %.2f", d.Action, d.Percentage)
		}
	}

	return nil
}

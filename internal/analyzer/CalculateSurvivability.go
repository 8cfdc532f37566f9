/*

This file contains the main function for calculating the survivability score of
a token from one cycle's signal reports.

*/

package analyzer

import (
	"errors"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
)

var ErrInvalidSignalReports = errors.New("invalid signal reports")
var ErrInvalidStrategyParameters = errors.New("invalid strategy parameters")
var survivabilityLogger = logger.GetForComponent("survivability")

// CalculateSurvivability combines all signal module outputs into one 0-100
// score by applying additive adjustments around the configured baseline. Each
// adjustment is keyed on exactly one report, so changing a single signal moves
// the score monotonically without disturbing the contribution of the others.
// Inputs:
//   - reports: The cycle's complete signal output.
//   - capTier: Coarse market-cap classification, used only for score floors.
//   - clock: Session clock used for the time-of-day bonus. Injected so a cycle
//     can be replayed at a fixed instant.
//   - params: The strategy parameters defining every adjustment.
//
// Output:
//   - A SurvivabilityResult with the clamped final score and the component
//     breakdown that produced it.
//   - An error if validation fails or a component is not finite.
func CalculateSurvivability(reports types.SignalReports, capTier types.MarketCapTier, clock SessionClock, params types.StrategyParameters) (types.SurvivabilityResult, error) {
	if err := ValidateSignalReports(reports); err != nil {
		survivabilityLogger.Error().
			Err(err).
			Msg("Signal report validation failed")
		return types.SurvivabilityResult{}, errors.Join(ErrInvalidSignalReports, err)
	}

	if err := ValidateStrategyParameters(params); err != nil {
		survivabilityLogger.Error().
			Err(err).
			Msg("Strategy parameter validation failed")
		return types.SurvivabilityResult{}, errors.Join(ErrInvalidStrategyParameters, err)
	}

	var result types.SurvivabilityResult
	result.Components.Baseline = params.BaselineScore

	// Consumer profile: a crowd of weak hands is a liability.
	if reports.Profile.ShrimpPct > params.ShrimpConcentrationThreshold {
		result.Components.ProfileAdjustment = params.ShrimpConcentrationPenalty
	}

	// Size presence: dolphins and whales buying in are independent positives.
	var presence float64
	if reports.Profile.DolphinPct >= params.PresenceThresholdPct {
		presence += params.DolphinPresenceBonus
	}
	if reports.Profile.WhalePct >= params.PresenceThresholdPct {
		presence += params.WhalePresenceBonus
	}
	result.Components.PresenceBonus = presence

	// Fresh-wallet ratio: a majority of freshly created wallets is wash activity
	// until proven otherwise.
	if reports.Profile.FreshPct/100 >= params.FreshWalletRatioThreshold {
		result.Components.FreshWalletAdj = params.FreshWalletPenalty
	}

	// Dev overhang: exhausted insiders are a bonus, heavy remaining holdings a
	// penalty. The two are mutually exclusive by construction.
	if reports.Dev.Exhausted {
		result.Components.DevAdjustment = params.DevExhaustedBonus
	} else if reports.Dev.RemainingPercentage >= params.DevHeavyRemainingThreshold {
		result.Components.DevAdjustment = params.DevHeavyPenalty
	}

	// Inflow: linear in the distance from neutral, both directions.
	result.Components.InflowAdjustment = params.InflowCoefficient * (reports.Flow.InflowStrength - 50)

	// Sentiment: net crowd direction, clamped before weighting so a runaway
	// count cannot dominate every other signal.
	sentiment := utils.Clamp(float64(reports.Sentiment.NetSentiment), -params.SentimentCap, params.SentimentCap)
	result.Components.SentimentAdj = params.SentimentCoefficient * sentiment

	// Volume trend: only moves the score once the change clears the threshold.
	if reports.Flow.VolumeTrend >= params.VolumeTrendThreshold {
		result.Components.VolumeTrendAdj = params.VolumeTrendBonus
	} else if reports.Flow.VolumeTrend <= -params.VolumeTrendThreshold {
		result.Components.VolumeTrendAdj = params.VolumeTrendPenalty
	}

	// Session time: retail-heavy hours carry deeper exit liquidity.
	hour := clock.Now().UTC().Hour()
	if hour >= params.SessionBonusStartHour && hour < params.SessionBonusEndHour {
		result.Components.SessionBonus = params.SessionTimeBonus
	}

	score := result.Components.Baseline +
		result.Components.ProfileAdjustment +
		result.Components.PresenceBonus +
		result.Components.FreshWalletAdj +
		result.Components.DevAdjustment +
		result.Components.InflowAdjustment +
		result.Components.SentimentAdj +
		result.Components.VolumeTrendAdj +
		result.Components.SessionBonus

	if !isFinite(score) {
		survivabilityLogger.Error().
			Float64("score", score).
			Msg("Score calculation resulted in invalid value")
		return types.SurvivabilityResult{}, errors.New("score calculation resulted in NaN or Inf")
	}

	score = utils.Clamp(score, 0, 100)

	// Market-cap floors may only raise the score, and only under real inflow.
	// A floor that could lower the score would break the additive monotonicity.
	if reports.Flow.InflowStrength >= params.TierFloorInflowGate {
		var floor float64
		switch capTier {
		case types.TierMidCap:
			floor = params.MidCapFloor
		case types.TierLargeCap:
			floor = params.LargeCapFloor
		}
		if floor > score {
			result.Components.TierFloorRaise = floor - score
			score = floor
		}
	}

	result.Score = score

	survivabilityLogger.Debug().
		Float64("finalScore", result.Score).
		Float64("baseline", result.Components.Baseline).
		Float64("profileAdjustment", result.Components.ProfileAdjustment).
		Float64("presenceBonus", result.Components.PresenceBonus).
		Float64("freshWalletAdjustment", result.Components.FreshWalletAdj).
		Float64("devAdjustment", result.Components.DevAdjustment).
		Float64("inflowAdjustment", result.Components.InflowAdjustment).
		Float64("sentimentAdjustment", result.Components.SentimentAdj).
		Float64("volumeTrendAdjustment", result.Components.VolumeTrendAdj).
		Float64("sessionBonus", result.Components.SessionBonus).
		Float64("tierFloorRaise", result.Components.TierFloorRaise).
		Msg("Survivability score calculated")

	return result, nil
}

// ValidateSignalReports checks every numeric field the aggregator reads for
// finiteness and basic range sanity.
func ValidateSignalReports(reports types.SignalReports) error {
	fields := []struct {
		value float64
		name  string
	}{
		{reports.Profile.ShrimpPct, "shrimp percentage"},
		{reports.Profile.DolphinPct, "dolphin percentage"},
		{reports.Profile.WhalePct, "whale percentage"},
		{reports.Profile.FreshPct, "fresh wallet percentage"},
		{reports.Dev.RemainingPercentage, "dev remaining percentage"},
		{reports.Flow.InflowStrength, "inflow strength"},
		{reports.Flow.VolumeTrend, "volume trend"},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return errors.New(f.name + " is not finite")
		}
	}

	if reports.Profile.ShrimpPct < 0 || reports.Profile.DolphinPct < 0 || reports.Profile.WhalePct < 0 {
		return errors.New("profile percentages cannot be negative")
	}
	if reports.Profile.FreshPct < 0 || reports.Profile.FreshPct > 100 {
		return errors.New("fresh wallet percentage must be within [0,100]")
	}
	if reports.Flow.InflowStrength < 0 || reports.Flow.InflowStrength > 100 {
		return errors.New("inflow strength must be within [0,100]")
	}
	if reports.Dev.RemainingPercentage < 0 {
		return errors.New("dev remaining percentage cannot be negative")
	}
	if reports.Panic.PanicScore < 0 || reports.Panic.PanicScore > 100 {
		return errors.New("panic score must be within [0,100]")
	}

	return nil
}

// ValidateStrategyParameters checks the aggregation-relevant parameter fields.
// Scheduler timing fields are validated separately where they are consumed.
func ValidateStrategyParameters(params types.StrategyParameters) error {
	coefficients := []struct {
		value float64
		name  string
	}{
		{params.BaselineScore, "BaselineScore"},
		{params.ShrimpConcentrationPenalty, "ShrimpConcentrationPenalty"},
		{params.DolphinPresenceBonus, "DolphinPresenceBonus"},
		{params.WhalePresenceBonus, "WhalePresenceBonus"},
		{params.FreshWalletPenalty, "FreshWalletPenalty"},
		{params.DevHeavyPenalty, "DevHeavyPenalty"},
		{params.DevExhaustedBonus, "DevExhaustedBonus"},
		{params.InflowCoefficient, "InflowCoefficient"},
		{params.SentimentCoefficient, "SentimentCoefficient"},
		{params.VolumeTrendBonus, "VolumeTrendBonus"},
		{params.VolumeTrendPenalty, "VolumeTrendPenalty"},
		{params.SessionTimeBonus, "SessionTimeBonus"},
		{params.MidCapFloor, "MidCapFloor"},
		{params.LargeCapFloor, "LargeCapFloor"},
	}
	for _, c := range coefficients {
		if !isFinite(c.value) {
			return errors.New(c.name + " must be finite")
		}
	}

	if params.BaselineScore < 0 || params.BaselineScore > 100 {
		return errors.New("BaselineScore must be within [0,100]")
	}
	if params.SentimentCap < 0 {
		return errors.New("SentimentCap cannot be negative")
	}
	if params.ShrimpMaxTokens <= 0 || params.DolphinMaxTokens <= params.ShrimpMaxTokens {
		return errors.New("tier boundaries must be positive and strictly increasing")
	}
	if params.SessionBonusStartHour < 0 || params.SessionBonusStartHour > 23 {
		return errors.New("SessionBonusStartHour must be within [0,23]")
	}
	if params.SessionBonusEndHour < 0 || params.SessionBonusEndHour > 24 {
		return errors.New("SessionBonusEndHour must be within [0,24]")
	}
	if params.MidCapFloor < 0 || params.MidCapFloor > 100 || params.LargeCapFloor < 0 || params.LargeCapFloor > 100 {
		return errors.New("tier floors must be within [0,100]")
	}

	return nil
}

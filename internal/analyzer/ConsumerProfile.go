/*

This file contains the consumer profile classifier: the size distribution of the
wallets participating in the current cycle.

*/

package analyzer

import (
	"math"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var profileLogger = logger.GetForComponent("consumer_profile")

// CalculateConsumerProfile buckets every event by its token amount and returns
// the resulting tier distribution. Percentages sum to 100 for non-empty input.
// Empty input yields the all-zero profile rather than an error; the aggregator
// treats that as neutral.
// Inputs:
//   - events: The cycle's transfer events.
//   - params: Strategy parameters carrying the tier boundaries.
//
// Output:
//   - A ConsumerProfile with shrimp/dolphin/whale/fresh percentages.
func CalculateConsumerProfile(events []types.TransferEvent, params types.StrategyParameters) types.ConsumerProfile {
	if len(events) == 0 {
		profileLogger.Debug().Msg("No events to classify, returning zero profile")
		return types.ConsumerProfile{}
	}

	var shrimp, dolphin, whale, fresh int
	for _, ev := range events {
		switch types.ClassifyWalletTier(ev.Amount, params) {
		case types.TierShrimp:
			shrimp++
		case types.TierDolphin:
			dolphin++
		case types.TierWhale:
			whale++
		}
		if ev.IsFreshWallet {
			fresh++
		}
	}

	total := float64(len(events))
	profile := types.ConsumerProfile{
		ShrimpPct:  float64(shrimp) / total * 100,
		DolphinPct: float64(dolphin) / total * 100,
		WhalePct:   float64(whale) / total * 100,
		FreshPct:   float64(fresh) / total * 100,
		Sampled:    len(events),
	}

	profileLogger.Debug().
		Int("sampled", profile.Sampled).
		Float64("shrimpPct", profile.ShrimpPct).
		Float64("dolphinPct", profile.DolphinPct).
		Float64("whalePct", profile.WhalePct).
		Float64("freshPct", profile.FreshPct).
		Msg("Consumer profile calculated")

	return profile
}

// isFinite reports whether v is a usable float (not NaN, not infinite).
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

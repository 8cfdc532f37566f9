/*

This file contains the dev-wallet exhaustion detector. It measures how much of
the insider wallets' launch holdings have already been sold off, which is the
single strongest predictor of whether the worst dump is still ahead.

*/

package analyzer

import (
	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var devLogger = logger.GetForComponent("dev_exhaustion")

// neutralDevRemaining is reported when no insider registry exists for the token.
// It sits between the exhaustion threshold and the heavy-overhang threshold so
// the aggregator applies neither the exhausted bonus nor the overhang penalty.
const neutralDevRemaining = 50.0

// DetectDevExhaustion sums the registered insiders' initial holdings, subtracts
// what their addresses have sold this cycle's observable history, and reports
// the remaining percentage (clamped at zero; insiders can acquire more than
// they started with, which still means no exhaustion).
// Inputs:
//   - devWallets: The static insider registry with launch balances.
//   - events: The cycle's transfer events.
//   - params: Strategy parameters carrying the exhaustion threshold.
//
// Output:
//   - A DevExhaustionReport; exhausted iff remaining <= threshold.
func DetectDevExhaustion(devWallets []types.DevWallet, events []types.TransferEvent, params types.StrategyParameters) types.DevExhaustionReport {
	if len(devWallets) == 0 {
		devLogger.Debug().Msg("No insider registry for token, reporting neutral remaining percentage")
		return types.DevExhaustionReport{Exhausted: false, RemainingPercentage: neutralDevRemaining}
	}

	devAddresses := make(map[string]bool, len(devWallets))
	var totalInitial float64
	for _, dw := range devWallets {
		devAddresses[dw.Address] = true
		totalInitial += dw.InitialBalance
	}

	if totalInitial <= 0 {
		devLogger.Warn().
			Int("registrySize", len(devWallets)).
			Msg("Insider registry has non-positive total initial balance, reporting neutral")
		return types.DevExhaustionReport{Exhausted: false, RemainingPercentage: neutralDevRemaining}
	}

	var sold float64
	for _, ev := range events {
		if ev.Type == types.TransferSell && devAddresses[ev.Wallet] {
			sold += ev.Amount
		}
	}

	remaining := totalInitial - sold
	if remaining < 0 {
		remaining = 0
	}
	remainingPct := remaining / totalInitial * 100

	report := types.DevExhaustionReport{
		Exhausted:           remainingPct <= params.DevExhaustionThresholdPct,
		RemainingPercentage: remainingPct,
	}

	devLogger.Debug().
		Int("registrySize", len(devWallets)).
		Float64("totalInitial", totalInitial).
		Float64("sold", sold).
		Float64("remainingPct", remainingPct).
		Bool("exhausted", report.Exhausted).
		Msg("Dev exhaustion calculated")

	return report
}

/*

This file contains the panic-sell detector. It looks for near-breakeven exits by
small holders: selling before any meaningful price move is emotional, not
strategic, and a crowd doing it at once is the classic start of a death spiral.

*/

package analyzer

import (
	"math"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var panicLogger = logger.GetForComponent("panic_detector")

// DetectPanicSelling scans the cycle's outgoing events and classifies each one
// as a likely panic exit when the holder is shrimp-sized and the price moved
// less than the configured band since their entry.
// Inputs:
//   - events: The cycle's transfer events; only sells are considered.
//   - params: Strategy parameters carrying the price band and tier boundaries.
//
// Output:
//   - A PanicReport with panicScore = round(likely/total*100), 0 when no exits.
func DetectPanicSelling(events []types.TransferEvent, params types.StrategyParameters) types.PanicReport {
	var likely, total int

	for _, ev := range events {
		if ev.Type != types.TransferSell {
			continue
		}
		total++

		nearBreakeven := math.Abs(ev.PriceChangePercent) < params.PanicPriceBandPercent
		if nearBreakeven && types.ClassifyWalletTier(ev.Amount, params) == types.TierShrimp {
			likely++
		}
	}

	report := types.PanicReport{
		LikelyExitCount: likely,
		TotalExitCount:  total,
	}
	if total > 0 {
		report.PanicScore = int(math.Round(float64(likely) / float64(total) * 100))
	}

	panicLogger.Debug().
		Int("likelyExits", likely).
		Int("totalExits", total).
		Int("panicScore", report.PanicScore).
		Msg("Panic detection completed")

	return report
}

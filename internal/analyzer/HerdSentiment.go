/*

This file contains the herd-sentiment analyzer: crowd direction, the shape of
small-wallet buying, and the hours the crowd is actually awake.

*/

package analyzer

import (
	"math"
	"sort"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var herdLogger = logger.GetForComponent("herd_sentiment")

// AnalyzeHerdSentiment computes net crowd direction (buys minus sells), the mean
// and standard deviation of shrimp-sized buy amounts, and the UTC hours ranked
// by activity. Shrimp buys are the herd; dolphin and whale prints are excluded
// from the amount statistics so one large buyer cannot masquerade as a crowd.
func AnalyzeHerdSentiment(events []types.TransferEvent, params types.StrategyParameters) types.HerdSentimentReport {
	var buyCount, sellCount int
	var shrimpBuys []float64
	hourCounts := make(map[int]int)

	for _, ev := range events {
		switch ev.Type {
		case types.TransferBuy:
			buyCount++
			if types.ClassifyWalletTier(ev.Amount, params) == types.TierShrimp {
				shrimpBuys = append(shrimpBuys, ev.Amount)
			}
		case types.TransferSell:
			sellCount++
		}
		hourCounts[ev.Timestamp.UTC().Hour()]++
	}

	report := types.HerdSentimentReport{
		NetSentiment: buyCount - sellCount,
		ActiveHours:  rankHours(hourCounts),
	}

	if len(shrimpBuys) > 0 {
		var sum float64
		for _, a := range shrimpBuys {
			sum += a
		}
		mean := sum / float64(len(shrimpBuys))

		var sqDiffSum float64
		for _, a := range shrimpBuys {
			sqDiffSum += (a - mean) * (a - mean)
		}
		stddev := math.Sqrt(sqDiffSum / float64(len(shrimpBuys)))

		if isFinite(mean) && isFinite(stddev) {
			report.AverageBuyAmount = mean
			report.Volatility = stddev
		}
	}

	herdLogger.Debug().
		Int("buyCount", buyCount).
		Int("sellCount", sellCount).
		Int("netSentiment", report.NetSentiment).
		Int("shrimpBuys", len(shrimpBuys)).
		Float64("averageBuyAmount", report.AverageBuyAmount).
		Float64("volatility", report.Volatility).
		Msg("Herd sentiment analyzed")

	return report
}

// rankHours returns the observed UTC hours sorted by activity, busiest first.
// Ties break toward the earlier hour so the ordering is deterministic.
func rankHours(hourCounts map[int]int) []int {
	hours := make([]int, 0, len(hourCounts))
	for h := range hourCounts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if hourCounts[hours[i]] != hourCounts[hours[j]] {
			return hourCounts[hours[i]] > hourCounts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	return hours
}

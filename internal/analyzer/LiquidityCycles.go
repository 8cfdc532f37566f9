/*

This file contains the liquidity-cycle mapper: an hour-of-day activity histogram
showing when the token actually trades.

*/

package analyzer

import (
	"github.com/tokenherd/engine/internal/types"
)

// peakHourCount is how many of the busiest hours appear in PeakHours.
const peakHourCount = 3

// MapLiquidityCycles buckets every event into its UTC hour and reports the full
// 24-slot histogram plus the busiest hours. Empty input yields an empty
// histogram and no peaks.
func MapLiquidityCycles(events []types.TransferEvent) types.LiquidityHotZones {
	var zones types.LiquidityHotZones

	hourCounts := make(map[int]int)
	for _, ev := range events {
		hour := ev.Timestamp.UTC().Hour()
		zones.HourlyHistogram[hour]++
		hourCounts[hour]++
	}

	ranked := rankHours(hourCounts)
	if len(ranked) > peakHourCount {
		ranked = ranked[:peakHourCount]
	}
	zones.PeakHours = ranked

	return zones
}

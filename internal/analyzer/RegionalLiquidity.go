/*

This file contains the regional-liquidity mapper. UTC hours are bucketed into
coarse trading regions; the dominant region hints at which session's retail
crowd is carrying the token.

*/

package analyzer

import (
	"github.com/tokenherd/engine/internal/types"
)

// Region names used in the activity map.
const (
	RegionAsia   = "asia"
	RegionEurope = "europe"
	RegionUS     = "us"
)

// regionForHour maps a UTC hour to its coarse trading region. The boundaries
// are session opens, not timezone math: 00-08 Asia, 08-16 Europe, 16-24 US.
func regionForHour(hour int) string {
	switch {
	case hour < 8:
		return RegionAsia
	case hour < 16:
		return RegionEurope
	default:
		return RegionUS
	}
}

// MapRegionalLiquidity buckets the cycle's events into trading regions by UTC
// hour. The dominant region is the one with the most events; empty input yields
// an empty map and no dominant region.
func MapRegionalLiquidity(events []types.TransferEvent) types.RegionalLiquidityReport {
	report := types.RegionalLiquidityReport{
		RegionActivity: make(map[string]int),
	}

	for _, ev := range events {
		report.RegionActivity[regionForHour(ev.Timestamp.UTC().Hour())]++
	}

	best := 0
	// Fixed iteration order so ties resolve the same way every cycle.
	for _, region := range []string{RegionAsia, RegionEurope, RegionUS} {
		if count := report.RegionActivity[region]; count > best {
			best = count
			report.DominantRegion = region
		}
	}

	return report
}

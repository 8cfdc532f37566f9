/*

This file contains the market-flow analyzer. It compares the most recent window
of signed flow against the window before it and expresses the shift on a 0-100
scale centered at 50.

*/

package analyzer

import (
	"math"
	"sort"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
)

var flowLogger = logger.GetForComponent("market_flow")

// AnalyzeMarketFlow derives a signed flow value per event (positive for buys,
// negative for sells), splits the timestamp-ordered tail into two consecutive
// windows of FlowWindowSize events, and maps the change in mean flow onto
// [0,100] with 50 as neutral. With fewer than two full windows of history the
// baseline 50 is reported.
// Inputs:
//   - events: The cycle's transfer events, in any order.
//   - params: Strategy parameters carrying the window size.
//
// Output:
//   - A MarketFlowReport with inflow strength and volume trend.
func AnalyzeMarketFlow(events []types.TransferEvent, params types.StrategyParameters) types.MarketFlowReport {
	window := params.FlowWindowSize
	if window <= 0 || len(events) < 2*window {
		flowLogger.Debug().
			Int("eventCount", len(events)).
			Int("windowSize", window).
			Msg("Insufficient history for flow comparison, reporting neutral baseline")
		return types.MarketFlowReport{InflowStrength: 50, VolumeTrend: 0}
	}

	ordered := make([]types.TransferEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	recent := ordered[len(ordered)-window:]
	prior := ordered[len(ordered)-2*window : len(ordered)-window]

	recentFlow, recentVolume := windowMeans(recent)
	priorFlow, priorVolume := windowMeans(prior)

	// Normalize the flow shift by the typical trade size across both windows so
	// the result is comparable between thin and heavy tokens. tanh keeps one
	// oversized print from pinning the scale.
	scale := (recentVolume + priorVolume) / 2
	if scale <= 0 {
		scale = 1
	}
	inflow := 50 + 50*math.Tanh((recentFlow-priorFlow)/scale)
	inflow = utils.Clamp(inflow, 0, 100)

	var trend float64
	if priorVolume > 0 {
		trend = utils.Clamp((recentVolume-priorVolume)/priorVolume*100, -100, 100)
	}

	report := types.MarketFlowReport{InflowStrength: inflow, VolumeTrend: trend}
	if !isFinite(report.InflowStrength) || !isFinite(report.VolumeTrend) {
		flowLogger.Error().
			Float64("inflow", report.InflowStrength).
			Float64("trend", report.VolumeTrend).
			Msg("Flow calculation produced non-finite value, reporting neutral baseline")
		return types.MarketFlowReport{InflowStrength: 50, VolumeTrend: 0}
	}

	flowLogger.Debug().
		Float64("recentFlowMean", recentFlow).
		Float64("priorFlowMean", priorFlow).
		Float64("recentVolumeMean", recentVolume).
		Float64("priorVolumeMean", priorVolume).
		Float64("inflowStrength", inflow).
		Float64("volumeTrend", trend).
		Msg("Market flow analyzed")

	return report
}

// windowMeans returns the mean signed flow and the mean absolute volume of a
// window of events.
func windowMeans(window []types.TransferEvent) (flow float64, volume float64) {
	if len(window) == 0 {
		return 0, 0
	}
	var flowSum, volumeSum float64
	for _, ev := range window {
		if ev.Type == types.TransferSell {
			flowSum -= ev.Amount
		} else {
			flowSum += ev.Amount
		}
		volumeSum += ev.Amount
	}
	n := float64(len(window))
	return flowSum / n, volumeSum / n
}

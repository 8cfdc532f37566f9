package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tokenherd/engine/internal/config"
	"github.com/tokenherd/engine/internal/types"
)

func eventAt(hour int, evType types.TransferType, amount float64) types.TransferEvent {
	return types.TransferEvent{
		Wallet:    "wallet",
		Amount:    amount,
		Type:      evType,
		Timestamp: time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC),
	}
}

func TestConsumerProfileEmptyInput(t *testing.T) {
	profile := CalculateConsumerProfile(nil, config.DefaultStrategyParameters)

	assert.Zero(t, profile.ShrimpPct)
	assert.Zero(t, profile.DolphinPct)
	assert.Zero(t, profile.WhalePct)
	assert.Zero(t, profile.Sampled)
}

func TestConsumerProfilePercentagesSumTo100(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(1, types.TransferBuy, 100),    // shrimp
		eventAt(2, types.TransferBuy, 2000),   // dolphin
		eventAt(3, types.TransferBuy, 90000),  // whale
		eventAt(4, types.TransferSell, 300),   // shrimp
	}

	profile := CalculateConsumerProfile(events, config.DefaultStrategyParameters)

	assert.Equal(t, 4, profile.Sampled)
	assert.InDelta(t, 100.0, profile.ShrimpPct+profile.DolphinPct+profile.WhalePct, 1e-9)
	assert.InDelta(t, 50.0, profile.ShrimpPct, 1e-9)
	assert.InDelta(t, 25.0, profile.DolphinPct, 1e-9)
	assert.InDelta(t, 25.0, profile.WhalePct, 1e-9)
}

func TestConsumerProfileFreshRatio(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(1, types.TransferBuy, 100),
		eventAt(2, types.TransferBuy, 100),
	}
	events[0].IsFreshWallet = true

	profile := CalculateConsumerProfile(events, config.DefaultStrategyParameters)

	assert.InDelta(t, 50.0, profile.FreshPct, 1e-9)
}

func TestPanicDetectorAllShrimpNearBreakeven(t *testing.T) {
	var events []types.TransferEvent
	for i := 0; i < 10; i++ {
		ev := eventAt(i, types.TransferSell, 50)
		ev.PriceChangePercent = 2.0
		events = append(events, ev)
	}

	report := DetectPanicSelling(events, config.DefaultStrategyParameters)

	assert.Equal(t, 100, report.PanicScore)
	assert.Equal(t, 10, report.LikelyExitCount)
	assert.Equal(t, 10, report.TotalExitCount)
}

func TestPanicDetectorNoExits(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(1, types.TransferBuy, 50),
		eventAt(2, types.TransferBuy, 50),
	}

	report := DetectPanicSelling(events, config.DefaultStrategyParameters)

	assert.Equal(t, 0, report.PanicScore)
	assert.Equal(t, 0, report.TotalExitCount)
}

func TestPanicDetectorIgnoresLargeHoldersAndRealMoves(t *testing.T) {
	whaleExit := eventAt(1, types.TransferSell, 90000)
	whaleExit.PriceChangePercent = 1.0 // near breakeven but not shrimp

	strategicExit := eventAt(2, types.TransferSell, 50)
	strategicExit.PriceChangePercent = -40.0 // shrimp but a real move

	report := DetectPanicSelling([]types.TransferEvent{whaleExit, strategicExit}, config.DefaultStrategyParameters)

	assert.Equal(t, 0, report.LikelyExitCount)
	assert.Equal(t, 2, report.TotalExitCount)
	assert.Equal(t, 0, report.PanicScore)
}

func TestDevExhaustionNinetyPercentSold(t *testing.T) {
	devWallets := []types.DevWallet{{Address: "dev-a", InitialBalance: 1000}}
	sell := eventAt(1, types.TransferSell, 900)
	sell.Wallet = "dev-a"

	report := DetectDevExhaustion(devWallets, []types.TransferEvent{sell}, config.DefaultStrategyParameters)

	assert.InDelta(t, 10.0, report.RemainingPercentage, 1e-9)
	assert.True(t, report.Exhausted)
}

func TestDevExhaustionOversoldClampsToZero(t *testing.T) {
	devWallets := []types.DevWallet{{Address: "dev-a", InitialBalance: 100}}
	sell := eventAt(1, types.TransferSell, 500)
	sell.Wallet = "dev-a"

	report := DetectDevExhaustion(devWallets, []types.TransferEvent{sell}, config.DefaultStrategyParameters)

	assert.Zero(t, report.RemainingPercentage)
	assert.True(t, report.Exhausted)
}

func TestDevExhaustionEmptyRegistryIsNeutral(t *testing.T) {
	report := DetectDevExhaustion(nil, nil, config.DefaultStrategyParameters)

	assert.False(t, report.Exhausted)
	assert.InDelta(t, neutralDevRemaining, report.RemainingPercentage, 1e-9)
}

func TestMarketFlowInsufficientHistoryIsNeutral(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(1, types.TransferBuy, 100),
		eventAt(2, types.TransferSell, 100),
	}

	report := AnalyzeMarketFlow(events, config.DefaultStrategyParameters)

	assert.InDelta(t, 50.0, report.InflowStrength, 1e-9)
	assert.Zero(t, report.VolumeTrend)
}

func TestMarketFlowDetectsShiftTowardBuying(t *testing.T) {
	params := config.DefaultStrategyParameters

	var events []types.TransferEvent
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < params.FlowWindowSize; i++ {
		ev := eventAt(0, types.TransferSell, 100)
		ev.Timestamp = base.Add(time.Duration(i) * time.Minute)
		events = append(events, ev)
	}
	for i := 0; i < params.FlowWindowSize; i++ {
		ev := eventAt(0, types.TransferBuy, 100)
		ev.Timestamp = base.Add(time.Duration(params.FlowWindowSize+i) * time.Minute)
		events = append(events, ev)
	}

	report := AnalyzeMarketFlow(events, params)

	assert.Greater(t, report.InflowStrength, 50.0)
	assert.LessOrEqual(t, report.InflowStrength, 100.0)
}

func TestMarketFlowVolumeTrendClamped(t *testing.T) {
	params := config.DefaultStrategyParameters

	var events []types.TransferEvent
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < params.FlowWindowSize; i++ {
		ev := eventAt(0, types.TransferBuy, 10)
		ev.Timestamp = base.Add(time.Duration(i) * time.Minute)
		events = append(events, ev)
	}
	for i := 0; i < params.FlowWindowSize; i++ {
		ev := eventAt(0, types.TransferBuy, 10000)
		ev.Timestamp = base.Add(time.Duration(params.FlowWindowSize+i) * time.Minute)
		events = append(events, ev)
	}

	report := AnalyzeMarketFlow(events, params)

	assert.InDelta(t, 100.0, report.VolumeTrend, 1e-9)
}

func TestHerdSentimentNetAndShrimpStats(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(10, types.TransferBuy, 100),
		eventAt(10, types.TransferBuy, 300),
		eventAt(10, types.TransferBuy, 90000), // whale, excluded from shrimp stats
		eventAt(11, types.TransferSell, 50),
	}

	report := AnalyzeHerdSentiment(events, config.DefaultStrategyParameters)

	assert.Equal(t, 2, report.NetSentiment)
	assert.InDelta(t, 200.0, report.AverageBuyAmount, 1e-9)
	assert.InDelta(t, 100.0, report.Volatility, 1e-9)
	assert.Equal(t, []int{10, 11}, report.ActiveHours)
}

func TestLiquidityCyclesHistogramAndPeaks(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(3, types.TransferBuy, 10),
		eventAt(3, types.TransferBuy, 10),
		eventAt(3, types.TransferSell, 10),
		eventAt(14, types.TransferBuy, 10),
		eventAt(14, types.TransferBuy, 10),
		eventAt(20, types.TransferBuy, 10),
	}

	zones := MapLiquidityCycles(events)

	assert.Equal(t, 3, zones.HourlyHistogram[3])
	assert.Equal(t, 2, zones.HourlyHistogram[14])
	assert.Equal(t, 1, zones.HourlyHistogram[20])
	assert.Equal(t, []int{3, 14, 20}, zones.PeakHours)
}

func TestRegionalLiquidityDominantRegion(t *testing.T) {
	events := []types.TransferEvent{
		eventAt(2, types.TransferBuy, 10),  // asia
		eventAt(10, types.TransferBuy, 10), // europe
		eventAt(11, types.TransferBuy, 10), // europe
		eventAt(19, types.TransferBuy, 10), // us
	}

	report := MapRegionalLiquidity(events)

	assert.Equal(t, RegionEurope, report.DominantRegion)
	assert.Equal(t, 1, report.RegionActivity[RegionAsia])
	assert.Equal(t, 2, report.RegionActivity[RegionEurope])
	assert.Equal(t, 1, report.RegionActivity[RegionUS])
}

func TestRegionalLiquidityEmptyInput(t *testing.T) {
	report := MapRegionalLiquidity(nil)

	assert.Empty(t, report.DominantRegion)
	assert.Empty(t, report.RegionActivity)
}

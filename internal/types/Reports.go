/*

This file contains the report types produced by the signal modules and the
survivability aggregator. One report variant per module; all of them are plain
data and safe to persist as JSON in cycle snapshots.

*/

package types

// ConsumerProfile describes the size distribution of the cycle's participants.
// Percentages sum to 100 for non-empty input and are all zero on empty input.
type ConsumerProfile struct {
	ShrimpPct  float64 `json:"shrimp_pct"`
	DolphinPct float64 `json:"dolphin_pct"`
	WhalePct   float64 `json:"whale_pct"`
	FreshPct   float64 `json:"fresh_pct"` // Share of events coming from fresh wallets
	Sampled    int     `json:"sampled"`   // Number of events the profile was built from
}

// HerdSentimentReport captures crowd direction and the shape of small-wallet buying.
type HerdSentimentReport struct {
	NetSentiment     int     `json:"net_sentiment"`      // buyCount - sellCount
	AverageBuyAmount float64 `json:"average_buy_amount"` // Mean token amount over shrimp buys
	Volatility       float64 `json:"volatility"`         // Stddev of shrimp buy amounts
	ActiveHours      []int   `json:"active_hours"`       // UTC hours sorted by activity, busiest first
}

// PanicReport flags emotionally-driven near-breakeven shrimp exits.
type PanicReport struct {
	PanicScore      int `json:"panic_score"`       // round(likely/total*100), 0 when no exits
	LikelyExitCount int `json:"likely_exit_count"` // Exits classified as panic
	TotalExitCount  int `json:"total_exit_count"`  // All outgoing events
}

// DevExhaustionReport states how much of the insider wallets' initial holdings remain.
type DevExhaustionReport struct {
	Exhausted           bool    `json:"exhausted"`
	RemainingPercentage float64 `json:"remaining_percentage"` // Clamped to >= 0
}

// MarketFlowReport compares recent flow against the preceding window.
type MarketFlowReport struct {
	InflowStrength float64 `json:"inflow_strength"` // 0-100, 50 = neutral / insufficient history
	VolumeTrend    float64 `json:"volume_trend"`    // Percent change of mean volume, clamped to [-100,100]
}

// LiquidityHotZones is the hour-of-day activity histogram for the token.
type LiquidityHotZones struct {
	HourlyHistogram [24]int `json:"hourly_histogram"`
	PeakHours       []int   `json:"peak_hours"` // Top hours by activity, busiest first
}

// RegionalLiquidityReport buckets activity into coarse trading regions by UTC hour.
type RegionalLiquidityReport struct {
	RegionActivity map[string]int `json:"region_activity"`
	DominantRegion string         `json:"dominant_region"` // Empty when there was no activity
}

// SignalReports bundles one cycle's complete signal output. A module failure is
// represented by that module's neutral zero-value report, never by a missing field.
type SignalReports struct {
	Profile     ConsumerProfile         `json:"profile"`
	Sentiment   HerdSentimentReport     `json:"sentiment"`
	Panic       PanicReport             `json:"panic"`
	Dev         DevExhaustionReport     `json:"dev"`
	Flow        MarketFlowReport        `json:"flow"`
	HotZones    LiquidityHotZones       `json:"hot_zones"`
	Regional    RegionalLiquidityReport `json:"regional"`
}

// SurvivabilityResult is the aggregated 0-100 viability score together with the
// additive component breakdown that produced it.
type SurvivabilityResult struct {
	Score      float64 `json:"final_score"`
	Components struct {
		Baseline          float64 `json:"baseline"`
		ProfileAdjustment float64 `json:"profile_adjustment"`
		PresenceBonus     float64 `json:"presence_bonus"`
		FreshWalletAdj    float64 `json:"fresh_wallet_adjustment"`
		DevAdjustment     float64 `json:"dev_adjustment"`
		InflowAdjustment  float64 `json:"inflow_adjustment"`
		SentimentAdj      float64 `json:"sentiment_adjustment"`
		VolumeTrendAdj    float64 `json:"volume_trend_adjustment"`
		SessionBonus      float64 `json:"session_bonus"`
		TierFloorRaise    float64 `json:"tier_floor_raise,omitempty"`
	} `json:"components"`
}

// MarketCapTier is a coarse size classification supplied by the caller alongside
// the session clock, so scoring stays reproducible (no live environment reads).
type MarketCapTier int

const (
	TierUnknownCap MarketCapTier = iota
	TierMicroCap
	TierMidCap
	TierLargeCap
)

/*

This file contains the default strategy parameters for the engine.

These values are the baseline used when no active parameter set exists in the
database. They lean conservative: the cost of skipping a marginal entry is far
lower than the cost of buying into a dying token.

*/

package config

import (
	"github.com/tokenherd/engine/internal/types"
)

// DefaultStrategyParameters provides a baseline parameter set for the engine.
// These values are used if no active parameters are found in the database
// during initialization.
var DefaultStrategyParameters = types.StrategyParameters{
	// --- Wallet-size classification ---
	ShrimpMaxTokens: 500, // Per-event amounts up to 500 token units classify as shrimp.
	// These tier boundaries were inherited from the original calibration and are
	// deliberately kept as parameters rather than re-derived.
	DolphinMaxTokens: 5000, // Up to 5000 is a dolphin; above that, a whale.

	// --- Signal module thresholds ---
	PanicPriceBandPercent: 5.0, // An exit within +/-5% of entry is near-breakeven.
	// Rationale: exits taken before any meaningful move are emotional, not strategic.

	DevExhaustionThresholdPct: 10.0, // Dev wallets holding <=10% of launch supply count as out.

	FlowWindowSize: 10, // Compare the last 10 events' flow against the prior 10.
	// Rationale: small windows react within a single polling interval; larger ones lag.

	// --- Survivability aggregation ---
	BaselineScore: 50.0, // Neutral starting point; adjustments move it both ways.

	ShrimpConcentrationThreshold: 70.0,
	ShrimpConcentrationPenalty:   -10.0, // A token carried only by shrimp rarely survives a dump.
	PresenceThresholdPct:         10.0,
	DolphinPresenceBonus:         5.0,
	WhalePresenceBonus:           8.0, // Size buying in is the strongest organic signal we have.
	FreshWalletRatioThreshold:    0.5,
	FreshWalletPenalty:           -12.0, // Majority-fresh participation usually means wash activity.
	DevHeavyRemainingThreshold:   70.0,
	DevHeavyPenalty:              -15.0, // An insider still holding most of the supply is overhang.
	DevExhaustedBonus:            10.0,  // Once the dev is out, the worst dump is behind the token.
	InflowCoefficient:            0.3,   // Each point of inflow above/below neutral moves the score.
	SentimentCoefficient:         0.4,
	SentimentCap:                 25.0, // Beyond 25 net buys the crowd signal saturates.
	VolumeTrendThreshold:         10.0,
	VolumeTrendBonus:             5.0,
	VolumeTrendPenalty:           -5.0,
	SessionBonusStartHour:        13, // UTC window overlapping US market hours,
	SessionBonusEndHour:          21, // where retail liquidity is deepest.
	SessionTimeBonus:             5.0,
	TierFloorInflowGate:          55.0,
	MidCapFloor:                  35.0, // Established caps with real inflow rarely score below this.
	LargeCapFloor:                45.0,

	// --- Directive rules ---
	ExitPanicThreshold: 60.0, // Rule 1: EXIT on heavy panic against a weak score.
	ExitScoreCeiling:   40.0,

	PauseInflowLow:     45.0, // Rule 2: dead-neutral flow plus flat sentiment means wait.
	PauseInflowHigh:    55.0,
	PauseSentimentBand: 2,

	BuyTier1Score:     80.0,
	BuyTier1MaxPanic:  20.0,
	BuyTier1MinInflow: 60.0,
	BuyTier1Percent:   75.0,

	BuyTier2Score:           65.0,
	BuyTier2MaxPanic:        30.0,
	BuyTier2MinDevRemaining: 20.0, // Dev mostly out (or fully out) before sizing up.
	BuyTier2Percent:         50.0,

	BuyTier3Score:     55.0,
	BuyTier3MinInflow: 55.0,
	BuyTier3Percent:   25.0,

	WhaleBonusMinWhalePct: 15.0,
	WhaleBonusPercent:     10.0,

	HoldMinScore: 45.0,
	HoldMaxPanic: 40.0,

	SellSeverePanicThreshold: 70.0,
	SellSeverePercent:        75.0,
	SellDefaultPercent:       50.0,

	// --- Risk classification weights ---
	RiskScoreWeight: 0.5,
	RiskPanicWeight: 0.3,
	RiskDevWeight:   0.2,

	// --- Execution timing ---
	ImmediateDelayMinMs: 300,
	ImmediateDelayMaxMs: 1500,
	NormalDelayMinMs:    1500,
	NormalDelayMaxMs:    6000,
	PatientDelayMinMs:   6000,
	PatientDelayMaxMs:   20000,
	// Rationale: even IMMEDIATE keeps a sub-second floor; zero-delay dispatches
	// are the most machine-looking pattern there is.

	AggressiveDelayMult:   0.6,
	BalancedDelayMult:     1.0,
	ConservativeDelayMult: 1.6,

	LoudCooldownBaseSec:   30.0,
	NormalCooldownBaseSec: 90.0,
	SilentCooldownBaseSec: 240.0,
	// Rationale: exponential draws around these means give mostly-short gaps with
	// occasional long dormancy, which is what organic wallets look like.

	JitterPercent: 10.0, // Nominal sizes move +/-10% before dispatch.

	WaveBatchCount: 3,

	// --- Pool constraints ---
	MinWalletBalanceTokens: 0.05,
	DailySpendLimitTokens:  500.0,
	TokenPrecision:         9, // Lamport-scale base units.
}

/*

This file contains the tunable strategy parameters: signal thresholds, the
additive survivability adjustments, directive rule thresholds, and execution
timing knobs. Different sets can exist for different market regimes; the active
set is versioned in the database.

*/

package types

// StrategyParameters holds every tunable weight, threshold, and timing knob used
// by the analysis and execution logic. All percentage-like fields are expressed
// on a 0-100 scale unless noted.
type StrategyParameters struct {
	// --- Wallet-size classification ---
	ShrimpMaxTokens  float64 `json:"shrimp_max_tokens"`  // Per-event amount up to this is a shrimp
	DolphinMaxTokens float64 `json:"dolphin_max_tokens"` // Per-event amount up to this is a dolphin; above is a whale

	// --- Signal module thresholds ---
	PanicPriceBandPercent     float64 `json:"panic_price_band_percent"`     // |price change| below this marks a near-breakeven exit
	DevExhaustionThresholdPct float64 `json:"dev_exhaustion_threshold_pct"` // Remaining pct at or under this means the dev is out
	FlowWindowSize            int     `json:"flow_window_size"`             // Events per comparison window in the flow analyzer

	// --- Survivability aggregation (additive, around the baseline) ---
	BaselineScore                float64 `json:"baseline_score"`
	ShrimpConcentrationThreshold float64 `json:"shrimp_concentration_threshold"` // ShrimpPct above this is a crowd of weak hands
	ShrimpConcentrationPenalty   float64 `json:"shrimp_concentration_penalty"`   // Typically negative
	PresenceThresholdPct         float64 `json:"presence_threshold_pct"`         // Dolphin/whale pct counting as "present"
	DolphinPresenceBonus         float64 `json:"dolphin_presence_bonus"`
	WhalePresenceBonus           float64 `json:"whale_presence_bonus"`
	FreshWalletRatioThreshold    float64 `json:"fresh_wallet_ratio_threshold"` // FreshPct above this is suspicious
	FreshWalletPenalty           float64 `json:"fresh_wallet_penalty"`         // Typically negative
	DevHeavyRemainingThreshold   float64 `json:"dev_heavy_remaining_threshold"` // Dev still holding above this pct is overhang
	DevHeavyPenalty              float64 `json:"dev_heavy_penalty"`             // Typically negative
	DevExhaustedBonus            float64 `json:"dev_exhausted_bonus"`           // No insider overhang left
	InflowCoefficient            float64 `json:"inflow_coefficient"`            // Applied to (inflowStrength - 50)
	SentimentCoefficient         float64 `json:"sentiment_coefficient"`         // Applied to clamped net sentiment
	SentimentCap                 float64 `json:"sentiment_cap"`                 // |net sentiment| is clamped here before weighting
	VolumeTrendThreshold         float64 `json:"volume_trend_threshold"`        // Percent change counting as a real trend
	VolumeTrendBonus             float64 `json:"volume_trend_bonus"`
	VolumeTrendPenalty           float64 `json:"volume_trend_penalty"` // Typically negative
	SessionBonusStartHour        int     `json:"session_bonus_start_hour"` // UTC, inclusive
	SessionBonusEndHour          int     `json:"session_bonus_end_hour"`   // UTC, exclusive
	SessionTimeBonus             float64 `json:"session_time_bonus"`
	TierFloorInflowGate          float64 `json:"tier_floor_inflow_gate"` // Floors apply only when inflow is at least this
	MidCapFloor                  float64 `json:"mid_cap_floor"`          // Floors may only raise the score, never lower it
	LargeCapFloor                float64 `json:"large_cap_floor"`

	// --- Directive rules (evaluated in fixed order, first match wins) ---
	ExitPanicThreshold float64 `json:"exit_panic_threshold"` // Rule 1
	ExitScoreCeiling   float64 `json:"exit_score_ceiling"`
	PauseInflowLow     float64 `json:"pause_inflow_low"` // Rule 2 neutral band
	PauseInflowHigh    float64 `json:"pause_inflow_high"`
	PauseSentimentBand int     `json:"pause_sentiment_band"` // |net sentiment| at or under this is neutral

	BuyTier1Score     float64 `json:"buy_tier1_score"` // Rule 3, strongest conviction first
	BuyTier1MaxPanic  float64 `json:"buy_tier1_max_panic"`
	BuyTier1MinInflow float64 `json:"buy_tier1_min_inflow"`
	BuyTier1Percent   float64 `json:"buy_tier1_percent"`

	BuyTier2Score           float64 `json:"buy_tier2_score"`
	BuyTier2MaxPanic        float64 `json:"buy_tier2_max_panic"`
	BuyTier2MinDevRemaining float64 `json:"buy_tier2_min_dev_remaining"`
	BuyTier2Percent         float64 `json:"buy_tier2_percent"`

	BuyTier3Score     float64 `json:"buy_tier3_score"`
	BuyTier3MinInflow float64 `json:"buy_tier3_min_inflow"`
	BuyTier3Percent   float64 `json:"buy_tier3_percent"`

	WhaleBonusMinWhalePct float64 `json:"whale_bonus_min_whale_pct"` // Whale activity adds size to any BUY tier
	WhaleBonusPercent     float64 `json:"whale_bonus_percent"`

	HoldMinScore float64 `json:"hold_min_score"` // Rule 4
	HoldMaxPanic float64 `json:"hold_max_panic"`

	SellSeverePanicThreshold float64 `json:"sell_severe_panic_threshold"` // Rule 5
	SellSeverePercent        float64 `json:"sell_severe_percent"`
	SellDefaultPercent       float64 `json:"sell_default_percent"`

	// --- Risk classification (independent of which rule fired) ---
	RiskScoreWeight float64 `json:"risk_score_weight"` // Applied to (100 - survivability)
	RiskPanicWeight float64 `json:"risk_panic_weight"`
	RiskDevWeight   float64 `json:"risk_dev_weight"` // Applied to devRemaining (the overhang is the risk)

	// --- Execution timing ---
	ImmediateDelayMinMs   int     `json:"immediate_delay_min_ms"`
	ImmediateDelayMaxMs   int     `json:"immediate_delay_max_ms"`
	NormalDelayMinMs      int     `json:"normal_delay_min_ms"`
	NormalDelayMaxMs      int     `json:"normal_delay_max_ms"`
	PatientDelayMinMs     int     `json:"patient_delay_min_ms"`
	PatientDelayMaxMs     int     `json:"patient_delay_max_ms"`
	AggressiveDelayMult   float64 `json:"aggressive_delay_mult"`   // < 1, faster reactions
	BalancedDelayMult     float64 `json:"balanced_delay_mult"`
	ConservativeDelayMult float64 `json:"conservative_delay_mult"` // > 1, slower reactions

	LoudCooldownBaseSec   float64 `json:"loud_cooldown_base_sec"` // Mean of the exponential cooldown draw
	NormalCooldownBaseSec float64 `json:"normal_cooldown_base_sec"`
	SilentCooldownBaseSec float64 `json:"silent_cooldown_base_sec"`

	JitterPercent float64 `json:"jitter_percent"` // Amount jitter magnitude; asymmetric per personality

	WaveBatchCount int `json:"wave_batch_count"` // Sequential batches in the WAVE strategy

	// --- Pool constraints ---
	MinWalletBalanceTokens float64 `json:"min_wallet_balance_tokens"` // Actors below this are ineligible
	DailySpendLimitTokens  float64 `json:"daily_spend_limit_tokens"`  // Session-wide spend ceiling per UTC day
	TokenPrecision         int     `json:"token_precision"`           // Decimal places of the base unit
}

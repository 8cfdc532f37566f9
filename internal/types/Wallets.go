/*

This file contains the actor-pool types: wallet records with role and usage
state, the execution profile shaping human-like timing, coordinated multi-actor
plans, and per-dispatch outcomes.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// WalletRole determines what a pool actor is allowed to be used for.
type WalletRole string

const (
	RoleMain    WalletRole = "main"
	RoleSniper  WalletRole = "sniper"
	RoleDCA     WalletRole = "dca"
	RoleReserve WalletRole = "reserve"
)

// WalletLimits are the per-actor usage constraints enforced by the pool manager.
type WalletLimits struct {
	MaxPositionTokens float64 `json:"max_position_tokens"` // Largest single dispatch this actor may carry
	DailyTradeLimit   int     `json:"daily_trade_limit"`   // Dispatches allowed per UTC day
	CooldownMinutes   int     `json:"cooldown_minutes"`    // Hard minimum between two uses of this actor
}

// WalletRecord is the pool manager's view of one actor. Created at pool init and
// mutated only by the pool manager; it lives for the process lifetime.
// Key material is never stored here, it stays behind the KeyProvider.
type WalletRecord struct {
	Address       string       `json:"address"`
	Role          WalletRole   `json:"role"`
	Balance       sdkmath.Int  `json:"balance"` // Base units (lamport-scale), see utils conversions
	LastUsed      time.Time    `json:"last_used"`
	CooldownUntil time.Time    `json:"cooldown_until"` // Sampled stealth cooldown, on top of Limits.CooldownMinutes
	TradeCount    int          `json:"trade_count"`
	TradesToday   int          `json:"trades_today"`
	Limits        WalletLimits `json:"limits"`
	Reserved      bool         `json:"reserved"` // Held from selection until dispatch completion
}

// Urgency bands the pre-dispatch reaction delay.
type Urgency string

const (
	UrgencyImmediate Urgency = "IMMEDIATE"
	UrgencyNormal    Urgency = "NORMAL"
	UrgencyPatient   Urgency = "PATIENT"
)

// Personality scales delays and skews amount jitter.
type Personality string

const (
	PersonalityAggressive   Personality = "AGGRESSIVE"
	PersonalityBalanced     Personality = "BALANCED"
	PersonalityConservative Personality = "CONSERVATIVE"
)

// Stealth controls how long cooldowns run between uses of the same actor.
type Stealth string

const (
	StealthLoud   Stealth = "LOUD"
	StealthNormal Stealth = "NORMAL"
	StealthSilent Stealth = "SILENT"
)

// WalletPreference selects the policy used to pick among eligible actors.
type WalletPreference string

const (
	PreferLeastRecent   WalletPreference = "least_recent"
	PreferMostRecent    WalletPreference = "most_recent"
	PreferOldestDormant WalletPreference = "oldest_dormant"
	PreferRandom        WalletPreference = "random"
)

// ExecutionProfile shapes how a single directive is turned into a dispatch.
type ExecutionProfile struct {
	Urgency     Urgency          `json:"urgency"`
	Personality Personality      `json:"personality"`
	Stealth     Stealth          `json:"stealth"`
	Preference  WalletPreference `json:"preference"`
}

// CoordinatedStrategy is the timing shape of a multi-actor plan.
type CoordinatedStrategy string

const (
	StrategyBurst   CoordinatedStrategy = "burst"
	StrategyWave    CoordinatedStrategy = "wave"
	StrategyGradual CoordinatedStrategy = "gradual"
	StrategyRandom  CoordinatedStrategy = "random"
)

// CoordinatedPlan spreads a total amount across several actors inside a time
// window. Created per invocation and consumed immediately.
type CoordinatedPlan struct {
	TargetToken string              `json:"target_token"`
	Side        TransferType        `json:"side"` // buy or sell
	TotalAmount float64             `json:"total_amount"`
	ActorCount  int                 `json:"actor_count"`
	Strategy    CoordinatedStrategy `json:"strategy"`
	Window      time.Duration       `json:"window"`
}

// TradeRequest is handed to the trade-submission collaborator for one dispatch.
type TradeRequest struct {
	Mint          string       `json:"mint"`
	Side          TransferType `json:"side"`
	AmountTokens  float64      `json:"amount_tokens"`
	AmountBase    sdkmath.Int  `json:"amount_base"`
	WalletAddress string       `json:"wallet_address"`
}

// TradeResult is the collaborator's opaque answer.
type TradeResult struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DispatchOutcome records what happened to one scheduled actor execution.
// Outcomes are collected independently; one actor's failure never cancels siblings.
type DispatchOutcome struct {
	WalletAddress     string    `json:"wallet_address,omitempty"`
	AmountTokens      float64   `json:"amount_tokens"`
	Success           bool      `json:"success"`
	Signature         string    `json:"signature,omitempty"`
	Error             string    `json:"error,omitempty"`
	NoWalletAvailable bool      `json:"no_wallet_available,omitempty"`
	DispatchedAt      time.Time `json:"dispatched_at"`
}

/*

This file contains the types for behavioral transfer events, the immutable input
facts of one analysis cycle, and the wallet-size tier derived from them.

*/

package types

import "time"

// TransferType distinguishes the direction of a transfer relative to the token pool.
type TransferType string

const (
	TransferBuy  TransferType = "buy"
	TransferSell TransferType = "sell"
)

// TransferEvent is a single observed transfer for the analyzed token.
// Events live for exactly one analysis cycle and are never mutated.
type TransferEvent struct {
	Wallet             string       `json:"wallet"`               // Address that initiated the transfer
	Counterparty       string       `json:"counterparty"`         // Other side of the transfer (pool, router, wallet)
	Amount             float64      `json:"amount"`               // Token units moved, always positive
	Timestamp          time.Time    `json:"timestamp"`            // Provider-reported time of the transfer
	Type               TransferType `json:"type"`                 // buy or sell
	PriceChangePercent float64      `json:"price_change_percent"` // Price move since the holder's entry, signed
	IsFreshWallet      bool         `json:"is_fresh_wallet"`      // Provider flag: wallet with near-zero prior history
	IsKnownBurner      bool         `json:"is_known_burner"`      // Provider flag: throwaway wallet seen dumping before
	Signature          string       `json:"signature"`            // Chain signature, used for dedupe only
}

// WalletTier is the size bucket derived from a single event's amount.
// Recomputed each cycle, never persisted.
type WalletTier string

const (
	TierShrimp  WalletTier = "shrimp"
	TierDolphin WalletTier = "dolphin"
	TierWhale   WalletTier = "whale"
)

// ClassifyWalletTier buckets a per-event token amount using the configured
// thresholds. The 500/5000 defaults come straight from the strategy parameters
// and are deliberately not hardcoded here.
func ClassifyWalletTier(amount float64, params StrategyParameters) WalletTier {
	switch {
	case amount <= params.ShrimpMaxTokens:
		return TierShrimp
	case amount <= params.DolphinMaxTokens:
		return TierDolphin
	default:
		return TierWhale
	}
}

// DevWallet is one entry of the static insider-wallet registry.
type DevWallet struct {
	Address        string  `json:"address"`
	InitialBalance float64 `json:"initial_balance"` // Token units held at launch
}

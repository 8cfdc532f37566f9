/*

This file contains the actor-pool manager. It is the sole mutator of wallet
records: the scheduler asks it for an eligible actor, gets back a reserved
snapshot, and reports the dispatch result so usage state can be updated.

The reservation flag is the concurrency contract. From the moment an actor is
selected until its dispatch completes it is invisible to every other selection,
so two coordinated strategies running at once can never pick the same actor.

*/

package wallets

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNoEligibleWallet = errors.New("no eligible wallet in pool")
	ErrUnknownWallet    = errors.New("wallet not found in pool")
	ErrNotReserved      = errors.New("wallet is not reserved")
	ErrEmptyPool        = errors.New("pool has no wallets")
)

var poolLogger = logger.GetForComponent("wallet_pool")

// SelectionRequest describes what an eligible actor must satisfy.
type SelectionRequest struct {
	MinBalanceTokens float64                // Floor on the actor's token balance
	AmountTokens     float64                // Intended dispatch size, checked against per-actor limits
	Roles            []types.WalletRole     // Acceptable roles; empty means any role
	Preference       types.WalletPreference // Policy for picking among eligible actors
	Now              time.Time              // Injected so tests can simulate time
}

// PoolManager owns the actor records for the process lifetime.
type PoolManager struct {
	mu        sync.Mutex
	wallets   []*types.WalletRecord
	precision int
	rng       *rand.Rand
}

// NewPoolManager builds a pool over the given records. precision is the token's
// base-unit decimal count, used for balance comparisons. A nil rng falls back
// to a time-seeded source; tests inject a fixed seed.
func NewPoolManager(records []types.WalletRecord, precision int, rng *rand.Rand) (*PoolManager, error) {
	if len(records) == 0 {
		return nil, ErrEmptyPool
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	wallets := make([]*types.WalletRecord, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Address == "" {
			return nil, errors.New("wallet record has empty address")
		}
		if seen[rec.Address] {
			return nil, fmt.Errorf("duplicate wallet address %s", rec.Address)
		}
		seen[rec.Address] = true

		if rec.Balance.IsNil() {
			rec.Balance = sdkmath.ZeroInt()
		}
		cp := rec
		wallets = append(wallets, &cp)
	}

	poolLogger.Info().
		Int("walletCount", len(wallets)).
		Msg("Wallet pool initialized")

	return &PoolManager{wallets: wallets, precision: precision, rng: rng}, nil
}

// SelectAndReserve picks one eligible actor under the request's constraints,
// marks it reserved, and returns a copy of its record. ErrNoEligibleWallet is
// an expected outcome, not a fault; callers report it and try again next cycle.
func (p *PoolManager) SelectAndReserve(req SelectionRequest) (types.WalletRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	eligible := make([]*types.WalletRecord, 0, len(p.wallets))
	for _, w := range p.wallets {
		if p.isEligible(w, req) {
			eligible = append(eligible, w)
		}
	}

	if len(eligible) == 0 {
		poolLogger.Warn().
			Float64("minBalanceTokens", req.MinBalanceTokens).
			Float64("amountTokens", req.AmountTokens).
			Int("poolSize", len(p.wallets)).
			Msg("No eligible wallet for selection request")
		return types.WalletRecord{}, ErrNoEligibleWallet
	}

	chosen := pickByPreference(eligible, req.Preference, p.rng)
	chosen.Reserved = true

	poolLogger.Debug().
		Str("address", chosen.Address).
		Str("role", string(chosen.Role)).
		Str("preference", string(req.Preference)).
		Int("eligibleCount", len(eligible)).
		Msg("Wallet selected and reserved")

	return *chosen, nil
}

// isEligible applies every selection constraint to one record. Must be called
// with the pool lock held.
func (p *PoolManager) isEligible(w *types.WalletRecord, req SelectionRequest) bool {
	if w.Reserved {
		return false
	}

	if len(req.Roles) > 0 {
		match := false
		for _, role := range req.Roles {
			if w.Role == role {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	balanceTokens, err := utils.BaseToTokens(w.Balance, p.precision)
	if err != nil {
		poolLogger.Error().
			Str("address", w.Address).
			Err(err).
			Msg("Balance conversion failed during eligibility check, excluding wallet")
		return false
	}
	if balanceTokens < req.MinBalanceTokens {
		return false
	}

	if w.Limits.MaxPositionTokens > 0 && req.AmountTokens > w.Limits.MaxPositionTokens {
		return false
	}

	// Both cooldowns must have elapsed: the hard role minimum and the sampled
	// stealth cooldown from the last dispatch.
	if w.Limits.CooldownMinutes > 0 && !w.LastUsed.IsZero() {
		hardUntil := w.LastUsed.Add(time.Duration(w.Limits.CooldownMinutes) * time.Minute)
		if req.Now.Before(hardUntil) {
			return false
		}
	}
	if !w.CooldownUntil.IsZero() && req.Now.Before(w.CooldownUntil) {
		return false
	}

	if w.Limits.DailyTradeLimit > 0 && tradesToday(w, req.Now) >= w.Limits.DailyTradeLimit {
		return false
	}

	return true
}

// tradesToday returns the record's dispatch count for the UTC day of now. The
// stored counter belongs to the day of LastUsed; a day rollover resets it.
func tradesToday(w *types.WalletRecord, now time.Time) int {
	if w.LastUsed.IsZero() {
		return 0
	}
	if w.LastUsed.UTC().Truncate(24*time.Hour) != now.UTC().Truncate(24*time.Hour) {
		return 0
	}
	return w.TradesToday
}

// pickByPreference applies the selection policy to the eligible set.
func pickByPreference(eligible []*types.WalletRecord, pref types.WalletPreference, rng *rand.Rand) *types.WalletRecord {
	switch pref {
	case types.PreferMostRecent:
		sort.SliceStable(eligible, func(i, j int) bool {
			return eligible[i].LastUsed.After(eligible[j].LastUsed)
		})
		return eligible[0]
	case types.PreferOldestDormant:
		// Never-used actors first, then the longest-dormant ones.
		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].LastUsed.IsZero() != eligible[j].LastUsed.IsZero() {
				return eligible[i].LastUsed.IsZero()
			}
			return eligible[i].LastUsed.Before(eligible[j].LastUsed)
		})
		return eligible[0]
	case types.PreferRandom:
		return eligible[rng.Intn(len(eligible))]
	default: // PreferLeastRecent
		sort.SliceStable(eligible, func(i, j int) bool {
			return eligible[i].LastUsed.Before(eligible[j].LastUsed)
		})
		return eligible[0]
	}
}

// CompleteDispatch releases a reserved actor after its dispatch finished,
// recording usage and arming the sampled stealth cooldown. Applies to both
// successful and failed dispatches; a failed attempt still burned the actor's
// visibility.
func (p *PoolManager) CompleteDispatch(address string, now time.Time, cooldownUntil time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.find(address)
	if err != nil {
		return err
	}
	if !w.Reserved {
		return fmt.Errorf("%w: %s", ErrNotReserved, address)
	}

	if !w.LastUsed.IsZero() && w.LastUsed.UTC().Truncate(24*time.Hour) != now.UTC().Truncate(24*time.Hour) {
		w.TradesToday = 0
	}

	w.LastUsed = now
	w.TradeCount++
	w.TradesToday++
	w.CooldownUntil = cooldownUntil
	w.Reserved = false

	poolLogger.Debug().
		Str("address", address).
		Time("cooldownUntil", cooldownUntil).
		Int("tradesToday", w.TradesToday).
		Msg("Dispatch completed, wallet released")

	return nil
}

// ReleaseReservation frees a reserved actor without recording a dispatch, used
// when scheduling aborts before the trade was ever attempted.
func (p *PoolManager) ReleaseReservation(address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.find(address)
	if err != nil {
		return err
	}
	if !w.Reserved {
		return fmt.Errorf("%w: %s", ErrNotReserved, address)
	}

	w.Reserved = false
	return nil
}

// SetBalance replaces an actor's base-unit balance, typically after a balance
// refresh from the chain.
func (p *PoolManager) SetBalance(address string, balance sdkmath.Int) error {
	if balance.IsNil() {
		return utils.ErrAmountNil
	}
	if balance.IsNegative() {
		return utils.ErrAmountNegative
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	w, err := p.find(address)
	if err != nil {
		return err
	}
	w.Balance = balance
	return nil
}

// Snapshot returns copies of every record for reporting. The copies are safe
// to hand to the web layer; mutating them has no effect on the pool.
func (p *PoolManager) Snapshot() []types.WalletRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]types.WalletRecord, 0, len(p.wallets))
	for _, w := range p.wallets {
		out = append(out, *w)
	}
	return out
}

// Size returns the number of actors in the pool.
func (p *PoolManager) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.wallets)
}

// find returns the record for address. Must be called with the pool lock held.
func (p *PoolManager) find(address string) (*types.WalletRecord, error) {
	for _, w := range p.wallets {
		if w.Address == address {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownWallet, address)
}

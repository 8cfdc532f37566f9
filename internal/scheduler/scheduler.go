/*

This file contains the execution scheduler core: turning one validated
directive into one human-shaped dispatch. Reaction delay, amount jitter, actor
selection, and the stealth cooldown all happen here; the coordinated
multi-actor strategies build on the same single-dispatch path.

*/

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/planner"
	"github.com/tokenherd/engine/internal/trader"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
	"github.com/tokenherd/engine/internal/wallets"
)

// Error definitions for zero-tolerance error handling
var (
	ErrDirectiveNotActionable = errors.New("directive is not actionable")
	ErrInvalidExecutionInput  = errors.New("invalid execution input")
	ErrInvalidTimingParams    = errors.New("invalid timing parameters")
)

var schedLogger = logger.GetForComponent("scheduler")

// ExecutionRequest carries everything needed to schedule one directive.
type ExecutionRequest struct {
	Mint         string
	Directive    types.Directive
	Profile      types.ExecutionProfile
	AmountTokens float64 // Nominal size before jitter

	// exactAmount suppresses jitter. Coordinated plans set it so per-actor
	// amounts still sum to the plan's total.
	exactAmount bool
}

// Scheduler turns directives into dispatches against the actor pool.
type Scheduler struct {
	pool    *wallets.PoolManager
	keys    wallets.KeyProvider
	trader  trader.Trader
	clock   Clock
	session *SessionState
	params  types.StrategyParameters

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewScheduler wires a scheduler over its collaborators. A nil clock means the
// wall clock; a nil rng means a time-seeded source. Tests inject both.
func NewScheduler(pool *wallets.PoolManager, keys wallets.KeyProvider, t trader.Trader, session *SessionState, params types.StrategyParameters, clock Clock, rng *rand.Rand) (*Scheduler, error) {
	if pool == nil {
		return nil, errors.New("pool manager cannot be nil")
	}
	if keys == nil {
		return nil, errors.New("key provider cannot be nil")
	}
	if t == nil {
		return nil, errors.New("trader cannot be nil")
	}
	if session == nil {
		return nil, errors.New("session state cannot be nil")
	}
	if err := validateTimingParams(params); err != nil {
		return nil, errors.Join(ErrInvalidTimingParams, err)
	}
	if clock == nil {
		clock = RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scheduler{
		pool:    pool,
		keys:    keys,
		trader:  t,
		clock:   clock,
		session: session,
		params:  params,
		rng:     rng,
	}, nil
}

// ScheduleExecution runs one directive end to end: validation, reaction delay,
// actor selection, jitter, dispatch, cooldown. The returned outcome captures
// whatever happened; the error return is reserved for invalid input.
func (s *Scheduler) ScheduleExecution(ctx context.Context, req ExecutionRequest) (types.DispatchOutcome, error) {
	if err := s.validateRequest(req); err != nil {
		schedLogger.Error().
			Err(err).
			Str("action", string(req.Directive.Action)).
			Msg("Execution request rejected")
		return types.DispatchOutcome{}, err
	}

	outcome := s.dispatchOne(ctx, req, 0)

	schedLogger.Info().
		Str("mint", req.Mint).
		Str("action", string(req.Directive.Action)).
		Str("wallet", outcome.WalletAddress).
		Bool("success", outcome.Success).
		Bool("noWallet", outcome.NoWalletAvailable).
		Msg("Execution scheduled")

	return outcome, nil
}

// validateRequest enforces the scheduling boundary: only validated, actionable
// directives with a positive size get in.
func (s *Scheduler) validateRequest(req ExecutionRequest) error {
	if req.Mint == "" {
		return fmt.Errorf("%w: mint cannot be empty", ErrInvalidExecutionInput)
	}
	if err := planner.ValidateDirective(req.Directive); err != nil {
		return errors.Join(ErrInvalidExecutionInput, err)
	}
	if !req.Directive.IsActionable() {
		return fmt.Errorf("%w: %s", ErrDirectiveNotActionable, req.Directive.Action)
	}
	if req.AmountTokens <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %f", ErrInvalidExecutionInput, req.AmountTokens)
	}
	return nil
}

// dispatchOne is the shared single-dispatch path. extraDelay is an additional
// strategy-imposed wait (RANDOM's window draw) applied before the reaction
// delay. All failures are captured in the outcome, never propagated, so a
// coordinated sibling is never affected.
func (s *Scheduler) dispatchOne(ctx context.Context, req ExecutionRequest, extraDelay time.Duration) types.DispatchOutcome {
	side := sideForAction(req.Directive.Action)
	amount := req.AmountTokens
	if !req.exactAmount {
		amount = s.jitteredAmount(amount, req.Profile.Personality)
	}

	// Spend budget applies to buys only; sells free capital.
	if side == types.TransferBuy {
		if err := s.session.ReserveSpend(amount, s.clock.Now()); err != nil {
			return types.DispatchOutcome{
				AmountTokens: amount,
				Error:        err.Error(),
				DispatchedAt: s.clock.Now(),
			}
		}
	}

	outcome := s.dispatchReserved(ctx, req, side, amount, extraDelay)

	if side == types.TransferBuy && !outcome.Success {
		s.session.RefundSpend(amount, s.clock.Now())
	}
	s.session.RecordDispatch(outcome.Success, s.clock.Now())

	return outcome
}

// dispatchReserved selects, waits, and fires. Split out so the spend ledger
// bookkeeping above stays readable.
func (s *Scheduler) dispatchReserved(ctx context.Context, req ExecutionRequest, side types.TransferType, amount float64, extraDelay time.Duration) types.DispatchOutcome {
	record, err := s.pool.SelectAndReserve(wallets.SelectionRequest{
		MinBalanceTokens: s.params.MinWalletBalanceTokens,
		AmountTokens:     amount,
		Preference:       req.Profile.Preference,
		Now:              s.clock.Now(),
	})
	if err != nil {
		// No eligible actor is an expected condition: report it, the caller's
		// next cycle retries.
		return types.DispatchOutcome{
			AmountTokens:      amount,
			NoWalletAvailable: true,
			Error:             err.Error(),
			DispatchedAt:      s.clock.Now(),
		}
	}

	delay := extraDelay + s.reactionDelay(req.Profile)
	if err := s.clock.Sleep(ctx, delay); err != nil {
		// Context cancelled while waiting: free the actor, nothing happened.
		if relErr := s.pool.ReleaseReservation(record.Address); relErr != nil {
			schedLogger.Error().Err(relErr).Str("wallet", record.Address).Msg("Failed to release reservation after cancelled wait")
		}
		return types.DispatchOutcome{
			WalletAddress: record.Address,
			AmountTokens:  amount,
			Error:         err.Error(),
			DispatchedAt:  s.clock.Now(),
		}
	}

	outcome := s.fire(ctx, req.Mint, side, amount, record)

	cooldownUntil := s.clock.Now().Add(s.stealthCooldown(req.Profile.Stealth))
	if err := s.pool.CompleteDispatch(record.Address, s.clock.Now(), cooldownUntil); err != nil {
		schedLogger.Error().Err(err).Str("wallet", record.Address).Msg("Failed to complete dispatch bookkeeping")
	}

	return outcome
}

// fire performs the actual trade submission for a reserved actor.
func (s *Scheduler) fire(ctx context.Context, mint string, side types.TransferType, amount float64, record types.WalletRecord) types.DispatchOutcome {
	outcome := types.DispatchOutcome{
		WalletAddress: record.Address,
		AmountTokens:  amount,
		DispatchedAt:  s.clock.Now(),
	}

	amountBase, err := utils.TokensToBase(amount, s.params.TokenPrecision)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	signingKey, err := s.keys.SigningKey(record.Address)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	result, err := s.trader.Dispatch(ctx, types.TradeRequest{
		Mint:          mint,
		Side:          side,
		AmountTokens:  amount,
		AmountBase:    amountBase,
		WalletAddress: record.Address,
	}, signingKey)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = result.Success
	outcome.Signature = result.Signature
	if !result.Success {
		outcome.Error = result.Error
	}
	return outcome
}

// reactionDelay draws the urgency-banded uniform delay and scales it by the
// personality multiplier. Even IMMEDIATE keeps its configured floor; a
// zero-delay dispatch is the most machine-looking pattern there is.
func (s *Scheduler) reactionDelay(profile types.ExecutionProfile) time.Duration {
	var minMs, maxMs int
	switch profile.Urgency {
	case types.UrgencyImmediate:
		minMs, maxMs = s.params.ImmediateDelayMinMs, s.params.ImmediateDelayMaxMs
	case types.UrgencyPatient:
		minMs, maxMs = s.params.PatientDelayMinMs, s.params.PatientDelayMaxMs
	default:
		minMs, maxMs = s.params.NormalDelayMinMs, s.params.NormalDelayMaxMs
	}

	var mult float64
	switch profile.Personality {
	case types.PersonalityAggressive:
		mult = s.params.AggressiveDelayMult
	case types.PersonalityConservative:
		mult = s.params.ConservativeDelayMult
	default:
		mult = s.params.BalancedDelayMult
	}

	draw := float64(minMs) + s.randFloat()*float64(maxMs-minMs)
	return time.Duration(draw*mult) * time.Millisecond
}

// jitteredAmount perturbs the nominal size. The jitter band is asymmetric by
// personality: aggressive actors skew larger, conservative ones smaller.
func (s *Scheduler) jitteredAmount(nominal float64, personality types.Personality) float64 {
	j := s.params.JitterPercent / 100
	if j <= 0 {
		return nominal
	}

	var lo, hi float64
	switch personality {
	case types.PersonalityAggressive:
		lo, hi = -0.5*j, j
	case types.PersonalityConservative:
		lo, hi = -j, 0.5*j
	default:
		lo, hi = -j, j
	}

	factor := 1 + lo + s.randFloat()*(hi-lo)
	amount := nominal * factor
	if amount <= 0 {
		amount = nominal
	}
	return amount
}

// stealthCooldown samples the exponential cooldown whose mean depends on the
// stealth level. The draw gives mostly-short gaps with occasional long
// dormancy, which is what organic wallets look like.
func (s *Scheduler) stealthCooldown(stealth types.Stealth) time.Duration {
	var baseSec float64
	switch stealth {
	case types.StealthLoud:
		baseSec = s.params.LoudCooldownBaseSec
	case types.StealthSilent:
		baseSec = s.params.SilentCooldownBaseSec
	default:
		baseSec = s.params.NormalCooldownBaseSec
	}

	s.rngMu.Lock()
	draw := s.rng.ExpFloat64()
	s.rngMu.Unlock()

	// Cap the tail so one unlucky draw cannot bench an actor for hours.
	if draw > 5 {
		draw = 5
	}
	return time.Duration(baseSec * draw * float64(time.Second))
}

// randFloat is a mutex-guarded uniform draw; BURST and RANDOM strategies pull
// from the rng concurrently.
func (s *Scheduler) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// sideForAction maps a directive action to a trade side. EXIT is a full sell.
func sideForAction(action types.DirectiveAction) types.TransferType {
	if action == types.ActionBuy {
		return types.TransferBuy
	}
	return types.TransferSell
}

// validateTimingParams rejects timing configurations that would produce
// negative or inverted delay bands.
func validateTimingParams(params types.StrategyParameters) error {
	bands := []struct {
		name     string
		min, max int
	}{
		{"immediate", params.ImmediateDelayMinMs, params.ImmediateDelayMaxMs},
		{"normal", params.NormalDelayMinMs, params.NormalDelayMaxMs},
		{"patient", params.PatientDelayMinMs, params.PatientDelayMaxMs},
	}
	for _, b := range bands {
		if b.min < 0 || b.max < b.min {
			return fmt.Errorf("%s delay band [%d,%d] is invalid", b.name, b.min, b.max)
		}
	}

	if params.AggressiveDelayMult <= 0 || params.BalancedDelayMult <= 0 || params.ConservativeDelayMult <= 0 {
		return errors.New("personality delay multipliers must be positive")
	}
	if params.LoudCooldownBaseSec < 0 || params.NormalCooldownBaseSec < 0 || params.SilentCooldownBaseSec < 0 {
		return errors.New("cooldown bases cannot be negative")
	}
	if params.JitterPercent < 0 || params.JitterPercent >= 100 {
		return errors.New("jitter percent must be within [0,100)")
	}
	if params.WaveBatchCount <= 0 {
		return errors.New("wave batch count must be positive")
	}
	return nil
}

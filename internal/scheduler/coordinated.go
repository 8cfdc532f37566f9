/*

This file contains the coordinated multi-actor strategies. One plan spreads a
total amount across several actors inside a time window; the four strategies
differ only in the timing shape. Per-actor amounts always sum back to the
plan's total, and one actor's failure never touches its siblings.

*/

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tokenherd/engine/internal/types"
)

var ErrInvalidPlan = errors.New("invalid coordinated plan")

// ScheduleCoordinated runs a multi-actor plan and returns one outcome per
// planned actor, in plan order. The error return is reserved for plan
// validation; every runtime failure lands in its actor's outcome.
func (s *Scheduler) ScheduleCoordinated(ctx context.Context, plan types.CoordinatedPlan, profile types.ExecutionProfile) ([]types.DispatchOutcome, error) {
	if err := validatePlan(plan); err != nil {
		schedLogger.Error().Err(err).Str("strategy", string(plan.Strategy)).Msg("Coordinated plan rejected")
		return nil, errors.Join(ErrInvalidPlan, err)
	}

	amounts := splitAmount(plan.TotalAmount, plan.ActorCount)
	requests := make([]ExecutionRequest, plan.ActorCount)
	for i, amount := range amounts {
		requests[i] = ExecutionRequest{
			Mint:         plan.TargetToken,
			Directive:    directiveForSide(plan.Side),
			Profile:      profile,
			AmountTokens: amount,
			exactAmount:  true,
		}
	}

	schedLogger.Info().
		Str("mint", plan.TargetToken).
		Str("strategy", string(plan.Strategy)).
		Str("side", string(plan.Side)).
		Float64("totalAmount", plan.TotalAmount).
		Int("actorCount", plan.ActorCount).
		Dur("window", plan.Window).
		Msg("Running coordinated plan")

	var outcomes []types.DispatchOutcome
	switch plan.Strategy {
	case types.StrategyBurst:
		outcomes = s.runConcurrent(ctx, requests, nil)
	case types.StrategyRandom:
		delays := make([]time.Duration, len(requests))
		for i := range delays {
			delays[i] = time.Duration(s.randFloat() * float64(plan.Window))
		}
		outcomes = s.runConcurrent(ctx, requests, delays)
	case types.StrategyWave:
		outcomes = s.runWave(ctx, requests, plan.Window)
	case types.StrategyGradual:
		outcomes = s.runGradual(ctx, requests, plan.Window)
	}

	var succeeded int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	schedLogger.Info().
		Str("strategy", string(plan.Strategy)).
		Int("succeeded", succeeded).
		Int("planned", len(outcomes)).
		Msg("Coordinated plan finished")

	return outcomes, nil
}

// runConcurrent fires every request in its own goroutine. With per-actor
// delays this is RANDOM; without, BURST. Outcome order matches plan order
// regardless of completion order.
func (s *Scheduler) runConcurrent(ctx context.Context, requests []ExecutionRequest, delays []time.Duration) []types.DispatchOutcome {
	outcomes := make([]types.DispatchOutcome, len(requests))
	var wg sync.WaitGroup

	for i := range requests {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			var extra time.Duration
			if delays != nil {
				extra = delays[idx]
			}
			outcomes[idx] = s.dispatchOne(ctx, requests[idx], extra)
		}(i)
	}

	wg.Wait()
	return outcomes
}

// runWave fires the actors in sequential batches separated by a fixed
// sub-window. Dispatch order inside and across batches is deterministic.
func (s *Scheduler) runWave(ctx context.Context, requests []ExecutionRequest, window time.Duration) []types.DispatchOutcome {
	batches := s.params.WaveBatchCount
	if batches > len(requests) {
		batches = len(requests)
	}
	gap := window / time.Duration(batches)

	outcomes := make([]types.DispatchOutcome, 0, len(requests))
	perBatch := (len(requests) + batches - 1) / batches

	for b := 0; b < batches; b++ {
		start := b * perBatch
		end := start + perBatch
		if end > len(requests) {
			end = len(requests)
		}
		for i := start; i < end; i++ {
			outcomes = append(outcomes, s.dispatchOne(ctx, requests[i], 0))
		}

		if b < batches-1 {
			if err := s.clock.Sleep(ctx, gap); err != nil {
				// Cancelled between batches: remaining actors report the
				// cancellation without having been dispatched.
				for i := end; i < len(requests); i++ {
					outcomes = append(outcomes, types.DispatchOutcome{
						AmountTokens: requests[i].AmountTokens,
						Error:        err.Error(),
						DispatchedAt: s.clock.Now(),
					})
				}
				return outcomes
			}
		}
	}

	return outcomes
}

// runGradual fires one actor at a time, evenly spaced across the window.
func (s *Scheduler) runGradual(ctx context.Context, requests []ExecutionRequest, window time.Duration) []types.DispatchOutcome {
	spacing := window / time.Duration(len(requests))

	outcomes := make([]types.DispatchOutcome, 0, len(requests))
	for i := range requests {
		outcomes = append(outcomes, s.dispatchOne(ctx, requests[i], 0))

		if i < len(requests)-1 {
			if err := s.clock.Sleep(ctx, spacing); err != nil {
				for j := i + 1; j < len(requests); j++ {
					outcomes = append(outcomes, types.DispatchOutcome{
						AmountTokens: requests[j].AmountTokens,
						Error:        err.Error(),
						DispatchedAt: s.clock.Now(),
					})
				}
				return outcomes
			}
		}
	}

	return outcomes
}

// splitAmount divides total across n actors. Every share but the last is the
// even split; the last absorbs the rounding remainder so the parts always sum
// back to the total.
func splitAmount(total float64, n int) []float64 {
	amounts := make([]float64, n)
	share := total / float64(n)
	var allocated float64
	for i := 0; i < n-1; i++ {
		amounts[i] = share
		allocated += share
	}
	amounts[n-1] = total - allocated
	return amounts
}

// directiveForSide builds the internal directive a coordinated dispatch runs
// under. Coordinated plans size in absolute tokens, so the percentage is
// nominal; it exists to satisfy the directive invariants at the boundary.
func directiveForSide(side types.TransferType) types.Directive {
	if side == types.TransferSell {
		return types.Directive{Action: types.ActionSell, Percentage: 100, Reason: "coordinated sell"}
	}
	return types.Directive{Action: types.ActionBuy, Percentage: 100, Reason: "coordinated buy"}
}

// validatePlan rejects structurally broken plans before any actor is touched.
func validatePlan(plan types.CoordinatedPlan) error {
	if plan.TargetToken == "" {
		return errors.New("target token cannot be empty")
	}
	if plan.Side != types.TransferBuy && plan.Side != types.TransferSell {
		return fmt.Errorf("unknown side %q", plan.Side)
	}
	if plan.TotalAmount <= 0 {
		return fmt.Errorf("total amount must be positive, got %f", plan.TotalAmount)
	}
	if plan.ActorCount <= 0 {
		return fmt.Errorf("actor count must be positive, got %d", plan.ActorCount)
	}
	if plan.Window < 0 {
		return errors.New("window cannot be negative")
	}
	switch plan.Strategy {
	case types.StrategyBurst, types.StrategyWave, types.StrategyGradual, types.StrategyRandom:
	default:
		return fmt.Errorf("unknown strategy %q", plan.Strategy)
	}
	return nil
}

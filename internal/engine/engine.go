/*

This file contains the decision engine core: the cycle loop that turns one
window of transfer events into a survivability score, a directive, a risk
level, and (when the directive is actionable) scheduled trade dispatches.

A cycle never aborts on missing data. Provider failures degrade to an empty
event window, an empty window degrades to neutral signals, and neutral
signals resolve to HOLD. The only hard failures are construction-time
configuration errors.

*/

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tokenherd/engine/internal/analyzer"
	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/planner"
	"github.com/tokenherd/engine/internal/scheduler"
	"github.com/tokenherd/engine/internal/state"
	"github.com/tokenherd/engine/internal/types"
)

const (
	DEFAULT_STRATEGY_CONFIG_NAME    = "default_survivability_strategy"
	DEFAULT_STRATEGY_CONFIG_VERSION = 1
)

// EventSource supplies the transfer events a cycle analyzes.
type EventSource interface {
	FetchTransferEvents(ctx context.Context, mint string) ([]types.TransferEvent, error)
}

// Engine runs the analyze-decide-dispatch loop for one token.
type Engine struct {
	logger zerolog.Logger

	events    EventSource
	scheduler *scheduler.Scheduler
	clock     analyzer.SessionClock

	mint       string
	devWallets []types.DevWallet
	params     types.StrategyParameters
	capTier    types.MarketCapTier

	// Dispatch sizing: BUY percentages apply to buyBudgetTokens, SELL and
	// EXIT percentages apply to positionTokens.
	buyBudgetTokens float64
	positionTokens  float64
	profile         types.ExecutionProfile

	configName    string
	configVersion int

	cycleCount int
}

// Config holds the collaborators and sizing basis for a new Engine.
type Config struct {
	Events    EventSource
	Scheduler *scheduler.Scheduler // Optional; nil runs the engine analysis-only
	Clock     analyzer.SessionClock

	Mint       string
	DevWallets []types.DevWallet
	Params     types.StrategyParameters
	CapTier    types.MarketCapTier

	BuyBudgetTokens float64
	PositionTokens  float64
	Profile         types.ExecutionProfile

	ConfigName    string
	ConfigVersion int
}

// NewEngine creates an Engine with dependency injection.
func NewEngine(cfg Config) (*Engine, error) {
	if err := validateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine configuration validation failed: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = analyzer.SystemClock{}
	}

	e := &Engine{
		logger:          logger.GetForToken("engine_core", cfg.Mint),
		events:          cfg.Events,
		scheduler:       cfg.Scheduler,
		clock:           clock,
		mint:            cfg.Mint,
		devWallets:      cfg.DevWallets,
		params:          cfg.Params,
		capTier:         cfg.CapTier,
		buyBudgetTokens: cfg.BuyBudgetTokens,
		positionTokens:  cfg.PositionTokens,
		profile:         cfg.Profile,
		configName:      cfg.ConfigName,
		configVersion:   cfg.ConfigVersion,
	}

	e.logger.Info().
		Str("configName", e.configName).
		Int("configVersion", e.configVersion).
		Bool("dispatchEnabled", e.scheduler != nil).
		Msg("Engine instance created successfully with dependency injection")

	return e, nil
}

func validateEngineConfig(cfg Config) error {
	if cfg.Events == nil {
		return fmt.Errorf("event source cannot be nil")
	}
	if cfg.Mint == "" {
		return fmt.Errorf("mint cannot be empty")
	}
	if cfg.ConfigName == "" {
		return fmt.Errorf("config name cannot be empty")
	}
	if cfg.ConfigVersion <= 0 {
		return fmt.Errorf("config version must be positive")
	}
	if cfg.Scheduler != nil {
		if cfg.BuyBudgetTokens <= 0 {
			return fmt.Errorf("buy budget must be positive when dispatch is enabled")
		}
		if cfg.PositionTokens <= 0 {
			return fmt.Errorf("position size must be positive when dispatch is enabled")
		}
	}
	return nil
}

// RunLoop starts the main decision loop with the specified interval.
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration) {
	e.logger.Info().
		Dur("interval", interval).
		Msg("Starting engine main loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run first cycle immediately
	e.cycleCount++
	e.logger.Info().Int("cycle", e.cycleCount).Msg("Initiating decision cycle")
	e.RunDecisionCycle(ctx)
	e.logger.Info().Int("cycle", e.cycleCount).Msg("Decision cycle completed")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Engine loop stopped due to context cancellation")
			return
		case <-ticker.C:
			e.cycleCount++
			e.logger.Info().Int("cycle", e.cycleCount).Msg("Initiating decision cycle")
			e.RunDecisionCycle(ctx)
			e.logger.Info().Int("cycle", e.cycleCount).Msg("Decision cycle completed")
		}
	}
}

// RunDecisionCycle executes one complete analyze-decide-dispatch cycle.
// It always returns a result with a directive; errors are reserved for
// context cancellation.
func (e *Engine) RunDecisionCycle(ctx context.Context) (types.CycleResult, error) {
	cycleStartTime := time.Now()

	// Unique cycle ID for tracing logs across the entire cycle
	cycleID := uuid.New().String()
	cycleLogger := e.logger.With().Str("cycle_id", cycleID).Logger()

	cycleLogger.Info().Msg("--- Starting Decision Cycle ---")

	snapshot := types.CycleSnapshot{
		CycleNumber: e.getCycleNumber(),
		CycleID:     cycleID,
		Mint:        e.mint,
		Timestamp:   cycleStartTime,
		ParamsID:    e.getStrategyParamsID(),
		Outcomes:    make([]types.DispatchOutcome, 0),
	}

	// --- Step 1: Data Fetching ---
	cycleLogger.Info().Msg("Step 1: Fetching transfer events...")
	events, err := e.events.FetchTransferEvents(ctx, e.mint)
	if err != nil {
		if ctx.Err() != nil {
			return types.CycleResult{}, ctx.Err()
		}
		// Degrade to an empty window: the cycle resolves to HOLD below.
		cycleLogger.Error().Err(err).Msg("Event fetch failed, continuing with empty window")
		events = nil
	}
	cycleLogger.Info().Int("eventCount", len(events)).Msg("Step 1: Data fetching complete.")

	// --- Step 2: Signal Analysis ---
	cycleLogger.Info().Msg("Step 2: Running signal modules...")
	reports := e.runSignalModules(events, cycleLogger)
	cycleLogger.Info().
		Int("netSentiment", reports.Sentiment.NetSentiment).
		Int("panicScore", reports.Panic.PanicScore).
		Float64("inflowStrength", reports.Flow.InflowStrength).
		Float64("devRemainingPct", reports.Dev.RemainingPercentage).
		Msg("Step 2: Signal analysis complete.")

	// --- Step 3: Scoring ---
	cycleLogger.Info().Msg("Step 3: Calculating survivability score...")
	score, err := analyzer.CalculateSurvivability(reports, e.capTier, e.clock, e.params)
	if err != nil {
		// Scoring only rejects malformed reports; substitute the neutral
		// window and score that instead.
		cycleLogger.Error().Err(err).Msg("Scoring rejected reports, falling back to neutral window")
		reports = e.runSignalModules(nil, cycleLogger)
		score, err = analyzer.CalculateSurvivability(reports, e.capTier, e.clock, e.params)
		if err != nil {
			cycleLogger.Error().Err(err).Msg("Neutral window scoring failed, holding")
			score = types.SurvivabilityResult{}
		}
	}
	if len(events) == 0 {
		// No behavioral evidence at all: report zero viability rather than
		// the neutral baseline, so downstream consumers can tell "quiet
		// token" from "average token".
		score = types.SurvivabilityResult{}
		score.Components.Baseline = 0
	}
	cycleLogger.Info().Float64("score", score.Score).Msg("Step 3: Scoring complete.")

	// --- Step 4: Decision ---
	cycleLogger.Info().Msg("Step 4: Deciding directive...")
	decision := planner.DecisionInput{Score: score, Reports: reports}

	var directive types.Directive
	if len(events) == 0 {
		directive = types.Directive{Action: types.ActionHold, Reason: "no_event_data"}
	} else {
		directive, err = planner.DecideDirective(decision, e.params)
		if err != nil {
			cycleLogger.Error().Err(err).Msg("Directive decision failed, holding")
			directive = types.Directive{Action: types.ActionHold, Reason: "decision_error"}
		}
	}
	riskLevel := planner.ClassifyRisk(decision, e.params)

	cycleLogger.Info().
		Str("action", string(directive.Action)).
		Float64("percentage", directive.Percentage).
		Str("reason", directive.Reason).
		Str("riskLevel", string(riskLevel)).
		Msg("Step 4: Decision complete.")

	result := types.CycleResult{
		CycleID:    cycleID,
		Mint:       e.mint,
		Score:      score,
		RiskLevel:  riskLevel,
		Directive:  directive,
		Reports:    reports,
		EventCount: len(events),
	}

	// --- Step 5: Dispatch ---
	if directive.IsActionable() && e.scheduler != nil {
		cycleLogger.Info().Msg("Step 5: Scheduling execution...")
		outcome, err := e.scheduler.ScheduleExecution(ctx, scheduler.ExecutionRequest{
			Mint:         e.mint,
			Directive:    directive,
			Profile:      e.executionProfile(directive),
			AmountTokens: e.dispatchAmount(directive),
		})
		if err != nil {
			cycleLogger.Error().Err(err).Msg("Execution scheduling rejected directive")
		} else {
			snapshot.Outcomes = append(snapshot.Outcomes, outcome)
			cycleLogger.Info().
				Bool("success", outcome.Success).
				Bool("noWalletAvailable", outcome.NoWalletAvailable).
				Str("wallet", outcome.WalletAddress).
				Msg("Step 5: Dispatch complete.")
		}
	} else {
		cycleLogger.Info().Msg("Step 5: No dispatch required.")
	}

	// --- Step 6: Persist Snapshot ---
	snapshot.Score = score.Score
	snapshot.Components = score
	snapshot.RiskLevel = riskLevel
	snapshot.Directive = directive
	snapshot.Reports = reports
	snapshot.EventCount = len(events)
	snapshot.DurationMs = time.Since(cycleStartTime).Milliseconds()
	e.saveCycleSnapshot(snapshot, cycleLogger)

	cycleLogger.Info().
		Str("cycleDuration", time.Since(cycleStartTime).String()).
		Msg("--- Decision Cycle Completed ---")

	return result, nil
}

// runSignalModules produces the full report bundle. A panicking module is
// replaced by its neutral report so one signal can never take down the cycle.
func (e *Engine) runSignalModules(events []types.TransferEvent, cycleLogger zerolog.Logger) types.SignalReports {
	var reports types.SignalReports

	runModule(cycleLogger, "consumer_profile", func() {
		reports.Profile = analyzer.CalculateConsumerProfile(events, e.params)
	}, func() {
		reports.Profile = analyzer.CalculateConsumerProfile(nil, e.params)
	})
	runModule(cycleLogger, "herd_sentiment", func() {
		reports.Sentiment = analyzer.AnalyzeHerdSentiment(events, e.params)
	}, func() {
		reports.Sentiment = analyzer.AnalyzeHerdSentiment(nil, e.params)
	})
	runModule(cycleLogger, "panic_sell", func() {
		reports.Panic = analyzer.DetectPanicSelling(events, e.params)
	}, func() {
		reports.Panic = analyzer.DetectPanicSelling(nil, e.params)
	})
	runModule(cycleLogger, "dev_exhaustion", func() {
		reports.Dev = analyzer.DetectDevExhaustion(e.devWallets, events, e.params)
	}, func() {
		reports.Dev = analyzer.DetectDevExhaustion(nil, nil, e.params)
	})
	runModule(cycleLogger, "market_flow", func() {
		reports.Flow = analyzer.AnalyzeMarketFlow(events, e.params)
	}, func() {
		reports.Flow = analyzer.AnalyzeMarketFlow(nil, e.params)
	})
	runModule(cycleLogger, "liquidity_cycles", func() {
		reports.HotZones = analyzer.MapLiquidityCycles(events)
	}, func() {
		reports.HotZones = analyzer.MapLiquidityCycles(nil)
	})
	runModule(cycleLogger, "regional_liquidity", func() {
		reports.Regional = analyzer.MapRegionalLiquidity(events)
	}, func() {
		reports.Regional = analyzer.MapRegionalLiquidity(nil)
	})

	return reports
}

// runModule executes run, falling back to neutral if it panics.
func runModule(cycleLogger zerolog.Logger, name string, run, neutral func()) {
	defer func() {
		if r := recover(); r != nil {
			cycleLogger.Error().
				Str("module", name).
				Interface("panic", r).
				Msg("Signal module panicked, substituting neutral report")
			neutral()
		}
	}()
	run()
}

// dispatchAmount converts a directive percentage into token units.
func (e *Engine) dispatchAmount(d types.Directive) float64 {
	switch d.Action {
	case types.ActionBuy:
		return e.buyBudgetTokens * d.Percentage / 100.0
	case types.ActionSell, types.ActionExit:
		return e.positionTokens * d.Percentage / 100.0
	default:
		return 0
	}
}

// executionProfile shapes dispatch timing by directive severity: exits leave
// immediately, everything else uses the configured base profile.
func (e *Engine) executionProfile(d types.Directive) types.ExecutionProfile {
	profile := e.profile
	if d.Action == types.ActionExit {
		profile.Urgency = types.UrgencyImmediate
	}
	return profile
}

// getCycleNumber increments and returns the persistent cycle counter.
func (e *Engine) getCycleNumber() int {
	cycleNumber, err := state.IncrementCycleNumber()
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to increment cycle number, using fallback")
		return int(time.Now().Unix() % 1000000)
	}
	return cycleNumber
}

// getStrategyParamsID retrieves the active strategy parameters ID, if stored.
func (e *Engine) getStrategyParamsID() *int64 {
	paramsID, err := state.GetActiveStrategyParametersID(e.configName)
	if err != nil {
		e.logger.Error().Err(err).Str("configName", e.configName).Msg("Failed to get active strategy parameters ID")
		return nil
	}
	return paramsID
}

// saveCycleSnapshot persists the cycle snapshot to the database.
func (e *Engine) saveCycleSnapshot(snapshot types.CycleSnapshot, cycleLogger zerolog.Logger) {
	snapshotID, err := state.SaveCycleSnapshot(snapshot)
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to save cycle snapshot to database")
		return
	}
	cycleLogger.Info().Int64("snapshot_id", snapshotID).Msg("Cycle snapshot saved successfully")
}

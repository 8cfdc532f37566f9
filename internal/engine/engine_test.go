package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmath "cosmossdk.io/math"

	"github.com/tokenherd/engine/internal/analyzer"
	"github.com/tokenherd/engine/internal/config"
	"github.com/tokenherd/engine/internal/scheduler"
	"github.com/tokenherd/engine/internal/trader"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
	"github.com/tokenherd/engine/internal/wallets"
)

type stubEventSource struct {
	events []types.TransferEvent
	err    error
}

func (s *stubEventSource) FetchTransferEvents(ctx context.Context, mint string) ([]types.TransferEvent, error) {
	return s.events, s.err
}

type stubTrader struct {
	requests []types.TradeRequest
}

func (s *stubTrader) Dispatch(ctx context.Context, req types.TradeRequest, signingKey string) (types.TradeResult, error) {
	s.requests = append(s.requests, req)
	return types.TradeResult{Success: true, Signature: "sig-" + req.WalletAddress}, nil
}

func (s *stubTrader) Close() error { return nil }

var _ trader.Trader = (*stubTrader)(nil)

// instantClock satisfies scheduler.Clock without real waiting.
type instantClock struct {
	now time.Time
}

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

func testConfig(source EventSource) Config {
	return Config{
		Events:        source,
		Clock:         analyzer.FixedClock{Instant: time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)},
		Mint:          "mint-abc",
		Params:        config.DefaultStrategyParameters,
		CapTier:       types.TierMicroCap,
		ConfigName:    DEFAULT_STRATEGY_CONFIG_NAME,
		ConfigVersion: DEFAULT_STRATEGY_CONFIG_VERSION,
	}
}

func buyHeavyEvents() []types.TransferEvent {
	ts := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	events := make([]types.TransferEvent, 0, 40)
	for i := 0; i < 30; i++ {
		events = append(events, types.TransferEvent{
			Wallet:    "buyer",
			Amount:    6000,
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			Type:      types.TransferBuy,
		})
	}
	for i := 0; i < 10; i++ {
		events = append(events, types.TransferEvent{
			Wallet:             "seller",
			Amount:             100,
			Timestamp:          ts.Add(time.Duration(i) * time.Minute),
			Type:               types.TransferSell,
			PriceChangePercent: 40,
		})
	}
	return events
}

func TestEmptyEventWindowHoldsWithZeroScore(t *testing.T) {
	eng, err := NewEngine(testConfig(&stubEventSource{}))
	require.NoError(t, err)

	result, err := eng.RunDecisionCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.ActionHold, result.Directive.Action)
	assert.Equal(t, 0.0, result.Score.Score)
	assert.Equal(t, 0, result.EventCount)
}

func TestFetchFailureDegradesToHold(t *testing.T) {
	source := &stubEventSource{err: errors.New("provider down")}
	eng, err := NewEngine(testConfig(source))
	require.NoError(t, err)

	result, err := eng.RunDecisionCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.ActionHold, result.Directive.Action)
	assert.Equal(t, "no_event_data", result.Directive.Reason)
}

func TestCycleProducesDirectiveAndRisk(t *testing.T) {
	eng, err := NewEngine(testConfig(&stubEventSource{events: buyHeavyEvents()}))
	require.NoError(t, err)

	result, err := eng.RunDecisionCycle(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Directive.Action)
	assert.NotEmpty(t, result.Directive.Reason)
	assert.GreaterOrEqual(t, result.Score.Score, 0.0)
	assert.LessOrEqual(t, result.Score.Score, 100.0)
	assert.Contains(t, []types.RiskLevel{
		types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskCritical,
	}, result.RiskLevel)
	assert.Equal(t, 40, result.EventCount)
}

func TestActionableDirectiveDispatchesThroughScheduler(t *testing.T) {
	precision := config.DefaultStrategyParameters.TokenPrecision
	balance, err := utils.TokensToBase(1000, precision)
	require.NoError(t, err)

	pool, err := wallets.NewPoolManager([]types.WalletRecord{{
		Address: "actor-a",
		Role:    types.RoleSniper,
		Balance: balance,
		Limits:  types.WalletLimits{CooldownMinutes: 30},
	}}, precision, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	keys := wallets.NewStaticKeyProvider(map[string]string{"actor-a": "key-a"})
	session := scheduler.NewSessionState(config.DefaultStrategyParameters.DailySpendLimitTokens)
	tr := &stubTrader{}
	clock := &instantClock{now: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)}

	sched, err := scheduler.NewScheduler(pool, keys, tr, session, config.DefaultStrategyParameters, clock, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	cfg := testConfig(&stubEventSource{events: buyHeavyEvents()})
	cfg.Scheduler = sched
	cfg.BuyBudgetTokens = 100
	cfg.PositionTokens = 200
	cfg.Profile = types.ExecutionProfile{
		Urgency:     types.UrgencyNormal,
		Personality: types.PersonalityBalanced,
		Stealth:     types.StealthNormal,
		Preference:  types.PreferLeastRecent,
	}
	// Afternoon clock so the session bonus matches the event window.
	cfg.Clock = analyzer.FixedClock{Instant: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)}

	eng, err := NewEngine(cfg)
	require.NoError(t, err)

	result, err := eng.RunDecisionCycle(context.Background())
	require.NoError(t, err)

	if result.Directive.IsActionable() {
		require.Len(t, tr.requests, 1)
		assert.Equal(t, "mint-abc", tr.requests[0].Mint)
		assert.True(t, tr.requests[0].AmountBase.GT(sdkmath.ZeroInt()))
	}
}

func TestDispatchAmountScalesByAction(t *testing.T) {
	cfg := testConfig(&stubEventSource{})
	cfg.BuyBudgetTokens = 100
	cfg.PositionTokens = 400

	eng, err := NewEngine(cfg)
	require.NoError(t, err)

	assert.Equal(t, 20.0, eng.dispatchAmount(types.Directive{Action: types.ActionBuy, Percentage: 20}))
	assert.Equal(t, 200.0, eng.dispatchAmount(types.Directive{Action: types.ActionSell, Percentage: 50}))
	assert.Equal(t, 400.0, eng.dispatchAmount(types.Directive{Action: types.ActionExit, Percentage: 100}))
	assert.Equal(t, 0.0, eng.dispatchAmount(types.Directive{Action: types.ActionHold}))
}

func TestExitDirectiveEscalatesUrgency(t *testing.T) {
	cfg := testConfig(&stubEventSource{})
	cfg.Profile = types.ExecutionProfile{Urgency: types.UrgencyPatient}

	eng, err := NewEngine(cfg)
	require.NoError(t, err)

	profile := eng.executionProfile(types.Directive{Action: types.ActionExit, Percentage: 100})
	assert.Equal(t, types.UrgencyImmediate, profile.Urgency)

	profile = eng.executionProfile(types.Directive{Action: types.ActionSell, Percentage: 50})
	assert.Equal(t, types.UrgencyPatient, profile.Urgency)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.Error(t, err)

	cfg := testConfig(&stubEventSource{})
	cfg.Mint = ""
	_, err = NewEngine(cfg)
	assert.Error(t, err)

	cfg = testConfig(&stubEventSource{})
	cfg.ConfigVersion = 0
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}

package scheduler

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenherd/engine/internal/config"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/wallets"
)

func burstPlan(total float64, actors int) types.CoordinatedPlan {
	return types.CoordinatedPlan{
		TargetToken: "mint-x",
		Side:        types.TransferBuy,
		TotalAmount: total,
		ActorCount:  actors,
		Strategy:    types.StrategyBurst,
		Window:      time.Minute,
	}
}

func TestCoordinatedPlanValidation(t *testing.T) {
	sched, _ := newTestScheduler(t, 4, &fakeTrader{})

	cases := []types.CoordinatedPlan{
		{Side: types.TransferBuy, TotalAmount: 1, ActorCount: 2, Strategy: types.StrategyBurst},               // empty token
		{TargetToken: "m", Side: "short", TotalAmount: 1, ActorCount: 2, Strategy: types.StrategyBurst},       // bad side
		{TargetToken: "m", Side: types.TransferBuy, TotalAmount: 0, ActorCount: 2, Strategy: types.StrategyBurst},   // zero amount
		{TargetToken: "m", Side: types.TransferBuy, TotalAmount: 1, ActorCount: 0, Strategy: types.StrategyBurst},   // zero actors
		{TargetToken: "m", Side: types.TransferBuy, TotalAmount: 1, ActorCount: 2, Strategy: "drip"},          // bad strategy
	}
	for _, plan := range cases {
		_, err := sched.ScheduleCoordinated(context.Background(), plan, balancedProfile())
		assert.ErrorIs(t, err, ErrInvalidPlan)
	}
}

func TestBurstAmountsSumToTotal(t *testing.T) {
	ft := &fakeTrader{}
	sched, _ := newTestScheduler(t, 4, ft)

	outcomes, err := sched.ScheduleCoordinated(context.Background(), burstPlan(1.0, 4), balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var sum float64
	for _, o := range outcomes {
		assert.True(t, o.Success, "outcome for %s", o.WalletAddress)
		sum += o.AmountTokens
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, ft.requests, 4)
}

func TestBurstSiblingFailureIsolation(t *testing.T) {
	// Actor #2 in selection order is actor-b: least-recent over an unused pool
	// walks the records in insertion order as the burst goroutines reserve them.
	ft := &fakeTrader{failWallets: map[string]bool{"actor-b": true}}
	sched, _ := newTestScheduler(t, 4, ft)

	outcomes, err := sched.ScheduleCoordinated(context.Background(), burstPlan(1.0, 4), balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var succeeded, failed int
	var sum float64
	for _, o := range outcomes {
		sum += o.AmountTokens
		if o.Success {
			succeeded++
		} else {
			failed++
			assert.Equal(t, "actor-b", o.WalletAddress)
			assert.Contains(t, o.Error, "venue rejected")
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 1, failed)
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestBurstUsesDistinctActors(t *testing.T) {
	ft := &fakeTrader{}
	sched, _ := newTestScheduler(t, 4, ft)

	outcomes, err := sched.ScheduleCoordinated(context.Background(), burstPlan(2.0, 4), balancedProfile())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, o := range outcomes {
		require.True(t, o.Success)
		assert.False(t, seen[o.WalletAddress], "actor %s dispatched twice", o.WalletAddress)
		seen[o.WalletAddress] = true
	}
	assert.Len(t, seen, 4)
}

func TestBurstMoreActorsThanPoolReportsShortfall(t *testing.T) {
	ft := &fakeTrader{}

	// Hard role cooldowns so a finished actor cannot slip back into
	// eligibility while the late goroutines are still selecting.
	records := testWalletRecords(2)
	for i := range records {
		records[i].Limits.CooldownMinutes = 60
	}
	pool, err := wallets.NewPoolManager(records, 9, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	sched, err := NewScheduler(pool, testKeys(2), ft, NewSessionState(0), config.DefaultStrategyParameters, newFakeClock(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	outcomes, err := sched.ScheduleCoordinated(context.Background(), burstPlan(1.0, 4), balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var succeeded, noWallet int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
		if o.NoWalletAvailable {
			noWallet++
		}
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, noWallet)
}

func TestWaveIsSequentialAndDeterministic(t *testing.T) {
	ft := &fakeTrader{}
	sched, _ := newTestScheduler(t, 4, ft)

	plan := burstPlan(1.0, 4)
	plan.Strategy = types.StrategyWave
	plan.Window = 3 * time.Minute

	outcomes, err := sched.ScheduleCoordinated(context.Background(), plan, balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	// Deterministic selection-policy order, one actor after another.
	expect := []string{"actor-a", "actor-b", "actor-c", "actor-d"}
	for i, o := range outcomes {
		assert.Equal(t, expect[i], o.WalletAddress)
		assert.True(t, o.Success)
	}

	// Later batches dispatch strictly after earlier ones.
	for i := 1; i < len(outcomes); i++ {
		assert.False(t, outcomes[i].DispatchedAt.Before(outcomes[i-1].DispatchedAt))
	}
}

func TestGradualSpacingAcrossWindow(t *testing.T) {
	ft := &fakeTrader{}
	sched, clock := newTestScheduler(t, 4, ft)

	plan := burstPlan(1.0, 4)
	plan.Strategy = types.StrategyGradual
	plan.Window = 4 * time.Minute

	outcomes, err := sched.ScheduleCoordinated(context.Background(), plan, balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	// Three inter-actor gaps of window/actorCount each, plus four reaction
	// delays, all simulated on the fake clock.
	var spacing int
	for _, d := range clock.slept {
		if d == time.Minute {
			spacing++
		}
	}
	assert.Equal(t, 3, spacing)

	for i := 1; i < len(outcomes); i++ {
		gap := outcomes[i].DispatchedAt.Sub(outcomes[i-1].DispatchedAt)
		assert.GreaterOrEqual(t, gap, time.Minute)
	}
}

func TestRandomStaysInsideWindowAndCompletes(t *testing.T) {
	ft := &fakeTrader{}
	sched, _ := newTestScheduler(t, 4, ft)

	plan := burstPlan(1.0, 4)
	plan.Strategy = types.StrategyRandom
	plan.Window = 2 * time.Minute

	outcomes, err := sched.ScheduleCoordinated(context.Background(), plan, balancedProfile())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	var sum float64
	for _, o := range outcomes {
		assert.True(t, o.Success)
		sum += o.AmountTokens
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSplitAmountConservesTotal(t *testing.T) {
	cases := []struct {
		total float64
		n     int
	}{
		{1.0, 4},
		{0.1, 3},
		{99.99, 7},
		{5, 1},
	}
	for _, tc := range cases {
		parts := splitAmount(tc.total, tc.n)
		require.Len(t, parts, tc.n)
		var sum float64
		for _, p := range parts {
			assert.Greater(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, tc.total, sum, 1e-9)
	}
}

func TestSessionStateRollsOverByDay(t *testing.T) {
	session := NewSessionState(10)
	day1 := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	require.NoError(t, session.ReserveSpend(8, day1))
	assert.ErrorIs(t, session.ReserveSpend(5, day1), ErrDailySpendExceeded)

	day2 := day1.Add(2 * time.Hour)
	require.NoError(t, session.ReserveSpend(5, day2))

	stats := session.Stats(day2)
	assert.InDelta(t, 5.0, stats.SpentTokens, 1e-9)
}

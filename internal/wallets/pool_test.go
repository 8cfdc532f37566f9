package wallets

import (
	"math/rand"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenherd/engine/internal/types"
)

const testPrecision = 9

func tokenBalance(tokens int64) sdkmath.Int {
	return sdkmath.NewInt(tokens).Mul(sdkmath.NewInt(1_000_000_000))
}

func testRecords() []types.WalletRecord {
	return []types.WalletRecord{
		{Address: "main-1", Role: types.RoleMain, Balance: tokenBalance(100), Limits: types.WalletLimits{DailyTradeLimit: 10, CooldownMinutes: 5}},
		{Address: "sniper-1", Role: types.RoleSniper, Balance: tokenBalance(50), Limits: types.WalletLimits{DailyTradeLimit: 10, CooldownMinutes: 5}},
		{Address: "dca-1", Role: types.RoleDCA, Balance: tokenBalance(20), Limits: types.WalletLimits{DailyTradeLimit: 10, CooldownMinutes: 5}},
		{Address: "reserve-1", Role: types.RoleReserve, Balance: tokenBalance(500), Limits: types.WalletLimits{DailyTradeLimit: 10, CooldownMinutes: 5}},
	}
}

func newTestPool(t *testing.T) *PoolManager {
	t.Helper()
	pool, err := NewPoolManager(testRecords(), testPrecision, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return pool
}

func TestNewPoolManagerRejectsBadInput(t *testing.T) {
	_, err := NewPoolManager(nil, testPrecision, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	dupes := []types.WalletRecord{
		{Address: "a", Balance: tokenBalance(1)},
		{Address: "a", Balance: tokenBalance(1)},
	}
	_, err = NewPoolManager(dupes, testPrecision, nil)
	assert.Error(t, err)
}

func TestSelectionHonorsMinBalance(t *testing.T) {
	pool := newTestPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, err := pool.SelectAndReserve(SelectionRequest{
		MinBalanceTokens: 200,
		Preference:       types.PreferLeastRecent,
		Now:              now,
	})
	require.NoError(t, err)
	assert.Equal(t, "reserve-1", rec.Address)
}

func TestSelectionHonorsRoles(t *testing.T) {
	pool := newTestPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec, err := pool.SelectAndReserve(SelectionRequest{
		Roles:      []types.WalletRole{types.RoleSniper},
		Preference: types.PreferLeastRecent,
		Now:        now,
	})
	require.NoError(t, err)
	assert.Equal(t, "sniper-1", rec.Address)
}

func TestReservedWalletIsInvisible(t *testing.T) {
	pool := newTestPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req := SelectionRequest{
		Roles:      []types.WalletRole{types.RoleMain},
		Preference: types.PreferLeastRecent,
		Now:        now,
	}

	rec, err := pool.SelectAndReserve(req)
	require.NoError(t, err)
	assert.Equal(t, "main-1", rec.Address)

	// The only main-role actor is reserved now; a second selection must report
	// no eligible wallet rather than double-booking it.
	_, err = pool.SelectAndReserve(req)
	assert.ErrorIs(t, err, ErrNoEligibleWallet)

	require.NoError(t, pool.CompleteDispatch(rec.Address, now, now.Add(time.Minute)))

	// Released, but now cooling down.
	_, err = pool.SelectAndReserve(req)
	assert.ErrorIs(t, err, ErrNoEligibleWallet)
}

func TestCooldownBlocksReselection(t *testing.T) {
	pool := newTestPool(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req := SelectionRequest{
		Roles:      []types.WalletRole{types.RoleDCA},
		Preference: types.PreferLeastRecent,
		Now:        start,
	}

	rec, err := pool.SelectAndReserve(req)
	require.NoError(t, err)
	require.NoError(t, pool.CompleteDispatch(rec.Address, start, start.Add(90*time.Second)))

	// Under the simulated clock: blocked while either cooldown runs.
	req.Now = start.Add(time.Minute)
	_, err = pool.SelectAndReserve(req)
	assert.ErrorIs(t, err, ErrNoEligibleWallet)

	// Stealth cooldown elapsed at 90s, but the 5-minute role minimum still holds.
	req.Now = start.Add(2 * time.Minute)
	_, err = pool.SelectAndReserve(req)
	assert.ErrorIs(t, err, ErrNoEligibleWallet)

	// Past both cooldowns the actor is selectable again.
	req.Now = start.Add(6 * time.Minute)
	rec2, err := pool.SelectAndReserve(req)
	require.NoError(t, err)
	assert.Equal(t, rec.Address, rec2.Address)
}

func TestDailyTradeLimitWithRollover(t *testing.T) {
	records := []types.WalletRecord{
		{Address: "limited", Role: types.RoleMain, Balance: tokenBalance(100), Limits: types.WalletLimits{DailyTradeLimit: 2}},
	}
	pool, err := NewPoolManager(records, testPrecision, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req := SelectionRequest{Preference: types.PreferLeastRecent, Now: now}

	for i := 0; i < 2; i++ {
		rec, err := pool.SelectAndReserve(req)
		require.NoError(t, err)
		require.NoError(t, pool.CompleteDispatch(rec.Address, req.Now, req.Now))
		req.Now = req.Now.Add(time.Minute)
	}

	_, err = pool.SelectAndReserve(req)
	assert.ErrorIs(t, err, ErrNoEligibleWallet)

	// Next UTC day the counter resets.
	req.Now = now.Add(24 * time.Hour)
	rec, err := pool.SelectAndReserve(req)
	require.NoError(t, err)
	assert.Equal(t, "limited", rec.Address)
}

func TestMaxPositionLimit(t *testing.T) {
	records := []types.WalletRecord{
		{Address: "small", Role: types.RoleMain, Balance: tokenBalance(1000), Limits: types.WalletLimits{MaxPositionTokens: 10}},
	}
	pool, err := NewPoolManager(records, testPrecision, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err = pool.SelectAndReserve(SelectionRequest{AmountTokens: 50, Now: now})
	assert.ErrorIs(t, err, ErrNoEligibleWallet)

	rec, err := pool.SelectAndReserve(SelectionRequest{AmountTokens: 5, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "small", rec.Address)
}

func TestPreferencePolicies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []types.WalletRecord{
		{Address: "w-old", Balance: tokenBalance(10), LastUsed: now.Add(-3 * time.Hour)},
		{Address: "w-mid", Balance: tokenBalance(10), LastUsed: now.Add(-2 * time.Hour)},
		{Address: "w-new", Balance: tokenBalance(10), LastUsed: now.Add(-1 * time.Hour)},
		{Address: "w-never", Balance: tokenBalance(10)},
	}

	cases := []struct {
		pref types.WalletPreference
		want string
	}{
		{types.PreferLeastRecent, "w-never"}, // zero time sorts before everything
		{types.PreferMostRecent, "w-new"},
		{types.PreferOldestDormant, "w-never"},
	}
	for _, tc := range cases {
		pool, err := NewPoolManager(records, testPrecision, rand.New(rand.NewSource(1)))
		require.NoError(t, err)

		rec, err := pool.SelectAndReserve(SelectionRequest{Preference: tc.pref, Now: now})
		require.NoError(t, err)
		assert.Equal(t, tc.want, rec.Address, "preference %s", tc.pref)
	}

	// Random stays within the eligible set.
	pool, err := NewPoolManager(records, testPrecision, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	rec, err := pool.SelectAndReserve(SelectionRequest{Preference: types.PreferRandom, Now: now})
	require.NoError(t, err)
	assert.Contains(t, []string{"w-old", "w-mid", "w-new", "w-never"}, rec.Address)
}

func TestReleaseReservationWithoutDispatch(t *testing.T) {
	pool := newTestPool(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req := SelectionRequest{
		Roles:      []types.WalletRole{types.RoleMain},
		Preference: types.PreferLeastRecent,
		Now:        now,
	}
	rec, err := pool.SelectAndReserve(req)
	require.NoError(t, err)

	require.NoError(t, pool.ReleaseReservation(rec.Address))

	// No dispatch was recorded: no cooldown, immediately selectable again.
	rec2, err := pool.SelectAndReserve(req)
	require.NoError(t, err)
	assert.Equal(t, rec.Address, rec2.Address)
	assert.Zero(t, rec2.TradeCount)
}

func TestSnapshotIsACopy(t *testing.T) {
	pool := newTestPool(t)

	snap := pool.Snapshot()
	require.Len(t, snap, 4)
	snap[0].TradeCount = 999

	fresh := pool.Snapshot()
	assert.Zero(t, fresh[0].TradeCount)
}

func TestStaticKeyProvider(t *testing.T) {
	provider := NewStaticKeyProvider(map[string]string{"addr-1": "key-1"})

	key, err := provider.SigningKey("addr-1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", key)

	_, err = provider.SigningKey("addr-2")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectiveJSONRoundTrip(t *testing.T) {
	original := Directive{
		Action:     ActionBuy,
		Percentage: 62.5,
		Reason:     "tier-2 entry: score 68.0, dev remaining 8.5%",
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var restored Directive
	require.NoError(t, json.Unmarshal(raw, &restored))

	assert.Equal(t, original, restored)
}

func TestDirectiveIsActionable(t *testing.T) {
	assert.True(t, Directive{Action: ActionBuy, Percentage: 10}.IsActionable())
	assert.True(t, Directive{Action: ActionSell, Percentage: 50}.IsActionable())
	assert.True(t, Directive{Action: ActionExit, Percentage: 100}.IsActionable())
	assert.False(t, Directive{Action: ActionHold}.IsActionable())
	assert.False(t, Directive{Action: ActionPause}.IsActionable())
}

func TestRiskLevelRankOrdering(t *testing.T) {
	assert.Less(t, RiskLow.Rank(), RiskMedium.Rank())
	assert.Less(t, RiskMedium.Rank(), RiskHigh.Rank())
	assert.Less(t, RiskHigh.Rank(), RiskCritical.Rank())

	// A corrupted level must never rank as safe.
	assert.Equal(t, RiskCritical.Rank(), RiskLevel("garbage").Rank())
}

func TestClassifyWalletTierBoundaries(t *testing.T) {
	params := StrategyParameters{ShrimpMaxTokens: 500, DolphinMaxTokens: 5000}

	assert.Equal(t, TierShrimp, ClassifyWalletTier(500, params))
	assert.Equal(t, TierDolphin, ClassifyWalletTier(501, params))
	assert.Equal(t, TierDolphin, ClassifyWalletTier(5000, params))
	assert.Equal(t, TierWhale, ClassifyWalletTier(5001, params))
}

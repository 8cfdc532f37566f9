package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenherd/engine/internal/config"
	"github.com/tokenherd/engine/internal/types"
)

func inputWith(score float64, mutate func(*DecisionInput)) DecisionInput {
	in := DecisionInput{
		Score: types.SurvivabilityResult{Score: score},
		Reports: types.SignalReports{
			Profile:   types.ConsumerProfile{ShrimpPct: 40, DolphinPct: 30, WhalePct: 30, Sampled: 10},
			Dev:       types.DevExhaustionReport{Exhausted: false, RemainingPercentage: 50},
			Flow:      types.MarketFlowReport{InflowStrength: 70, VolumeTrend: 0},
			Sentiment: types.HerdSentimentReport{NetSentiment: 10},
		},
	}
	if mutate != nil {
		mutate(&in)
	}
	return in
}

func TestExitOverridesBuyConditions(t *testing.T) {
	params := config.DefaultStrategyParameters

	// Score satisfies tier-3 entry (>=55 with inflow >=55) while panic and the
	// exit ceiling both hold. EXIT must win.
	in := inputWith(38, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 80, LikelyExitCount: 8, TotalExitCount: 10}
		in.Reports.Flow.InflowStrength = 70
	})
	in.Score.Score = 38

	// Sanity: the tier-3 condition alone would match at this inflow if the
	// score were above its threshold; lower the tier-3 threshold to force the
	// overlap the ordering must resolve.
	params.BuyTier3Score = 30

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionExit, directive.Action)
	assert.Equal(t, 100.0, directive.Percentage)
}

func TestPauseOnNeutralMarket(t *testing.T) {
	params := config.DefaultStrategyParameters

	in := inputWith(60, func(in *DecisionInput) {
		in.Reports.Flow.InflowStrength = 50
		in.Reports.Sentiment.NetSentiment = 1
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionPause, directive.Action)
	assert.Zero(t, directive.Percentage)
}

func TestBuyTier1StrongestConviction(t *testing.T) {
	params := config.DefaultStrategyParameters

	in := inputWith(85, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 10}
		in.Reports.Flow.InflowStrength = 70
		in.Reports.Profile.WhalePct = 5 // below the whale bonus threshold
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionBuy, directive.Action)
	assert.Equal(t, params.BuyTier1Percent, directive.Percentage)
}

func TestBuyTier2RequiresDevClear(t *testing.T) {
	params := config.DefaultStrategyParameters

	blocked := inputWith(70, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 20}
		in.Reports.Flow.InflowStrength = 50 // below tier-1 and tier-3 inflow gates
		in.Reports.Sentiment.NetSentiment = 10
		in.Reports.Dev = types.DevExhaustionReport{Exhausted: false, RemainingPercentage: 60}
	})

	directive, err := DecideDirective(blocked, params)
	require.NoError(t, err)
	assert.NotEqual(t, types.ActionBuy, directive.Action)

	clear := blocked
	clear.Reports.Dev = types.DevExhaustionReport{Exhausted: true, RemainingPercentage: 5}

	directive, err = DecideDirective(clear, params)
	require.NoError(t, err)
	assert.Equal(t, types.ActionBuy, directive.Action)
	assert.Equal(t, params.BuyTier2Percent, directive.Percentage)
}

func TestBuyTier3OnInflowAlone(t *testing.T) {
	params := config.DefaultStrategyParameters

	in := inputWith(58, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 35} // too high for tiers 1 and 2
		in.Reports.Flow.InflowStrength = 60
		in.Reports.Profile.WhalePct = 5
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionBuy, directive.Action)
	assert.Equal(t, params.BuyTier3Percent, directive.Percentage)
}

func TestWhaleBonusAddsSize(t *testing.T) {
	params := config.DefaultStrategyParameters

	in := inputWith(85, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 10}
		in.Reports.Flow.InflowStrength = 70
		in.Reports.Profile.WhalePct = params.WhaleBonusMinWhalePct
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionBuy, directive.Action)
	assert.Equal(t, params.BuyTier1Percent+params.WhaleBonusPercent, directive.Percentage)
}

func TestWhaleBonusCappedAtFullPosition(t *testing.T) {
	params := config.DefaultStrategyParameters
	params.BuyTier1Percent = 95

	in := inputWith(85, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 10}
		in.Reports.Flow.InflowStrength = 70
		in.Reports.Profile.WhalePct = 50
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, 100.0, directive.Percentage)
}

func TestHoldOnModerateScoreLowPanic(t *testing.T) {
	params := config.DefaultStrategyParameters

	in := inputWith(50, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 20}
		in.Reports.Flow.InflowStrength = 40 // below every buy gate and the pause band
		in.Reports.Sentiment.NetSentiment = 5
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)

	assert.Equal(t, types.ActionHold, directive.Action)
	assert.Zero(t, directive.Percentage)
}

func TestSellDefaultAndSevere(t *testing.T) {
	params := config.DefaultStrategyParameters

	base := inputWith(30, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 50}
		in.Reports.Flow.InflowStrength = 30
		in.Reports.Sentiment.NetSentiment = -10
	})

	directive, err := DecideDirective(base, params)
	require.NoError(t, err)
	assert.Equal(t, types.ActionSell, directive.Action)
	assert.Equal(t, params.SellDefaultPercent, directive.Percentage)

	// High panic but the score is above the exit ceiling, so rule 1 does not
	// fire and the severe sell takes it instead.
	severe := base
	severe.Score.Score = 42
	severe.Reports.Panic = types.PanicReport{PanicScore: 85}

	directive, err = DecideDirective(severe, params)
	require.NoError(t, err)
	assert.Equal(t, types.ActionSell, directive.Action)
	assert.Equal(t, params.SellSeverePercent, directive.Percentage)
}

func TestDecideRejectsOutOfRangeScore(t *testing.T) {
	params := config.DefaultStrategyParameters

	_, err := DecideDirective(inputWith(140, nil), params)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDecisionInput)
}

func TestValidateDirective(t *testing.T) {
	cases := []struct {
		name      string
		directive types.Directive
		wantErr   bool
	}{
		{"valid buy", types.Directive{Action: types.ActionBuy, Percentage: 25, Reason: "x"}, false},
		{"valid exit", types.Directive{Action: types.ActionExit, Percentage: 100, Reason: "x"}, false},
		{"valid hold", types.Directive{Action: types.ActionHold, Reason: "x"}, false},
		{"unknown action", types.Directive{Action: "SHORT", Percentage: 50}, true},
		{"percentage above range", types.Directive{Action: types.ActionBuy, Percentage: 120}, true},
		{"negative percentage", types.Directive{Action: types.ActionSell, Percentage: -5}, true},
		{"hold with percentage", types.Directive{Action: types.ActionHold, Percentage: 10}, true},
		{"pause with percentage", types.Directive{Action: types.ActionPause, Percentage: 1}, true},
		{"partial exit", types.Directive{Action: types.ActionExit, Percentage: 50}, true},
		{"zero-size buy", types.Directive{Action: types.ActionBuy, Percentage: 0}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDirective(tc.directive)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRiskLevelsAcrossSeverity(t *testing.T) {
	params := config.DefaultStrategyParameters

	calm := inputWith(90, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 0}
		in.Reports.Dev = types.DevExhaustionReport{Exhausted: true, RemainingPercentage: 0}
	})
	assert.Equal(t, types.RiskLow, ClassifyRisk(calm, params))

	middling := inputWith(60, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 30}
		in.Reports.Dev = types.DevExhaustionReport{RemainingPercentage: 50}
	})
	assert.Equal(t, types.RiskMedium, ClassifyRisk(middling, params))

	stressed := inputWith(30, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 60}
		in.Reports.Dev = types.DevExhaustionReport{RemainingPercentage: 80}
	})
	assert.Equal(t, types.RiskHigh, ClassifyRisk(stressed, params))

	dying := inputWith(5, func(in *DecisionInput) {
		in.Reports.Panic = types.PanicReport{PanicScore: 95}
		in.Reports.Dev = types.DevExhaustionReport{RemainingPercentage: 95}
	})
	assert.Equal(t, types.RiskCritical, ClassifyRisk(dying, params))
}

func TestRiskIndependentOfDirective(t *testing.T) {
	params := config.DefaultStrategyParameters

	// A cycle that pauses can still be high risk; the classifier must not care
	// which rule fired.
	in := inputWith(20, func(in *DecisionInput) {
		in.Reports.Flow.InflowStrength = 50
		in.Reports.Sentiment.NetSentiment = 0
		in.Reports.Panic = types.PanicReport{PanicScore: 55}
		in.Reports.Dev = types.DevExhaustionReport{RemainingPercentage: 90}
	})

	directive, err := DecideDirective(in, params)
	require.NoError(t, err)
	assert.Equal(t, types.ActionPause, directive.Action)

	level := ClassifyRisk(in, params)
	assert.GreaterOrEqual(t, level.Rank(), types.RiskHigh.Rank())
}

package utils

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-12.5, 0, 100))
	assert.Equal(t, 100.0, Clamp(180.0, 0, 100))
	assert.Equal(t, 42.0, Clamp(42.0, 0, 100))
	assert.Equal(t, -25.0, Clamp(-30.0, -25, 25))
}

func TestTokenConversionsRoundTrip(t *testing.T) {
	base, err := TokensToBase(1.5, 9)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", base.String())

	tokens, err := BaseToTokens(base, 9)
	require.NoError(t, err)
	assert.Equal(t, 1.5, tokens)
}

func TestConversionRejectsBadInputs(t *testing.T) {
	_, err := TokensToBase(-1, 9)
	assert.ErrorIs(t, err, ErrAmountNegative)

	_, err = TokensToBase(1, -1)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = BaseToTokens(sdkmath.Int{}, 9)
	assert.ErrorIs(t, err, ErrAmountNil)
}

package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaychengg/antig/internal/schema"
)

func constantRangeBars(n int) []schema.CanonicalBar {
	bars := make([]schema.CanonicalBar, n)
	for i := range bars {
		bars[i] = schema.CanonicalBar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 1000,
		}
	}
	return bars
}

func TestATR14_ConstantTrueRange(t *testing.T) {
	// Every bar spans exactly 2 points and closes mid-range, so the true
	// range is 2 throughout and the smoothed average must be 2.
	atr, err := ATR14(constantRangeBars(30))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-9)
}

func TestATR14_InsufficientHistory(t *testing.T) {
	_, err := ATR14(constantRangeBars(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 15 bars")
}

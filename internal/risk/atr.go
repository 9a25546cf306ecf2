package risk

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jaychengg/antig/internal/schema"
)

const atrPeriod = 14

// ATR14 derives the 14-period Average True Range from a bar sequence,
// typically one that already passed the ingestion pipeline. Bars must be
// in ascending date order; the most recent value is returned.
func ATR14(bars []schema.CanonicalBar) (float64, error) {
	if len(bars) < atrPeriod+1 {
		return 0, fmt.Errorf("atr14 needs at least %d bars, got %d", atrPeriod+1, len(bars))
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
	}

	atr := talib.Atr(highs, lows, closes, atrPeriod)
	last := atr[len(atr)-1]
	if math.IsNaN(last) || last <= 0 {
		return 0, fmt.Errorf("atr14 undefined for input series")
	}
	return last, nil
}

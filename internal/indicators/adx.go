package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/tradestack/regime/models"
)

// DirectionalMovement bundles the ADX trio for the latest bar.
type DirectionalMovement struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX computes the Average Directional Index with Wilder smoothing over the
// supplied bars. The smoothed series needs roughly two periods of history to
// stabilize, so anything shorter degrades to ErrInsufficientData.
func ADX(bars []models.Bar, period int) (DirectionalMovement, error) {
	if period < 2 || len(bars) < 2*period+1 {
		return DirectionalMovement{}, models.ErrInsufficientData
	}

	highs, lows, closes := models.Highs(bars), models.Lows(bars), models.Closes(bars)
	adx := talib.Adx(highs, lows, closes, period)
	plusDI := talib.PlusDI(highs, lows, closes, period)
	minusDI := talib.MinusDI(highs, lows, closes, period)

	dm := DirectionalMovement{
		ADX:     last(adx),
		PlusDI:  last(plusDI),
		MinusDI: last(minusDI),
	}
	if math.IsNaN(dm.ADX) || math.IsInf(dm.ADX, 0) {
		return DirectionalMovement{}, models.ErrInsufficientData
	}
	return dm, nil
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

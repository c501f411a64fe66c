package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/tradestack/regime/models"
)

// Bands holds the Bollinger envelope for the latest bar.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes the SMA +/- k*stdev envelope over the close series.
func BollingerBands(closes []float64, period int, stdDev float64) (Bands, error) {
	if period < 2 || len(closes) < period {
		return Bands{}, models.ErrInsufficientData
	}

	// MAType 0 = SMA.
	upper, middle, lower := talib.BBands(closes, period, stdDev, stdDev, 0)

	b := Bands{Upper: last(upper), Middle: last(middle), Lower: last(lower)}
	if math.IsNaN(b.Upper) || math.IsNaN(b.Lower) {
		return Bands{}, models.ErrInsufficientData
	}
	return b, nil
}

// BollingerBreakout flags the latest close crossing outside the envelope.
func BollingerBreakout(bars []models.Bar, period int, stdDev float64) (models.BollingerBreakout, error) {
	if len(bars) == 0 {
		return models.BreakoutNone, models.ErrInsufficientData
	}
	bands, err := BollingerBands(models.Closes(bars), period, stdDev)
	if err != nil {
		return models.BreakoutNone, err
	}

	lastClose := bars[len(bars)-1].Close
	switch {
	case lastClose > bands.Upper:
		return models.BreakoutUpper, nil
	case lastClose < bands.Lower:
		return models.BreakoutLower, nil
	default:
		return models.BreakoutNone, nil
	}
}

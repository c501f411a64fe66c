// Package volatility labels realized volatility over rolling windows.
package volatility

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/tradestack/regime/models"
)

// Window describes one rolling window the classifier evaluates.
type Window struct {
	Name models.VolatilityWindow
	// Bars is the number of returns in the window; Bars+1 bars are required.
	Bars int
	// BarsPerYear annualizes the per-bar stdev for this interval.
	BarsPerYear float64
}

// Thresholds are annualized volatility cut points in percentage points.
type Thresholds struct {
	Low  float64
	High float64
}

// Classifier computes annualized realized volatility from log returns and
// buckets it against per-instrument thresholds. It is a pure function over
// the supplied bars; insufficient history degrades to UNKNOWN, never an
// error, because thin history at market open is an expected condition.
type Classifier struct {
	thresholds Thresholds
	log        zerolog.Logger
}

// New builds a classifier for one instrument's thresholds.
func New(thresholds Thresholds, log zerolog.Logger) *Classifier {
	return &Classifier{
		thresholds: thresholds,
		log:        log.With().Str("component", "volatility").Logger(),
	}
}

// Classify labels the window from the tail of the bar sequence.
func (c *Classifier) Classify(bars []models.Bar, w Window) models.VolatilityRegime {
	unknown := models.VolatilityRegime{Window: w.Name, Label: models.VolatilityUnknown}

	if len(bars) < w.Bars+1 {
		c.log.Debug().
			Str("window", string(w.Name)).
			Int("bars", len(bars)).
			Int("required", w.Bars+1).
			Msg("Insufficient bars, window unknown")
		return unknown
	}

	returns := models.LogReturns(bars[len(bars)-w.Bars-1:])
	if len(returns) < 2 {
		return unknown
	}

	// Sample stdev of per-bar log returns, annualized and expressed in
	// percentage points to match the configured thresholds.
	annualized := stat.StdDev(returns, nil) * math.Sqrt(w.BarsPerYear) * 100
	if math.IsNaN(annualized) {
		return unknown
	}

	label := models.VolatilityMedium
	switch {
	case annualized < c.thresholds.Low:
		label = models.VolatilityLow
	case annualized > c.thresholds.High:
		label = models.VolatilityHigh
	}

	return models.VolatilityRegime{
		Window:          w.Name,
		AnnualizedStdev: annualized,
		Label:           label,
	}
}

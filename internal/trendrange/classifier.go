// Package trendrange fuses ADX, Bollinger breakout, and swing-structure
// signals into a trending/ranging classification.
package trendrange

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/tradestack/regime/internal/indicators"
	"github.com/tradestack/regime/models"
)

// Fusion weights. ADX carries the most evidence, then price action, then the
// Bollinger breakout.
const (
	weightADX         = 0.5
	weightPriceAction = 0.3
	weightBollinger   = 0.2
)

// adxState is the discretized ADX reading.
type adxState int

const (
	adxAbsent adxState = iota
	adxRanging
	adxWeak
	adxStrong
)

// Config tunes the three sub-signals.
type Config struct {
	ADXPeriod       int
	ADXTrendLevel   float64
	ADXRangeLevel   float64
	BollingerPeriod int
	BollingerStdDev float64
	SwingStrength   int
}

// Classifier computes the three sub-signals independently and fuses them
// deterministically. A sub-signal short on bars is treated as absent and
// shrinks confidence proportionally; the classifier never returns an error.
type Classifier struct {
	cfg Config
	log zerolog.Logger
}

// New builds a classifier from validated configuration.
func New(cfg Config, log zerolog.Logger) *Classifier {
	return &Classifier{
		cfg: cfg,
		log: log.With().Str("component", "trendrange").Logger(),
	}
}

// Classify assesses the bar sequence.
func (c *Classifier) Classify(bars []models.Bar) models.TrendRangeAssessment {
	out := models.TrendRangeAssessment{
		BollingerBreakout: models.BreakoutNone,
		PriceActionTrend:  models.PriceActionFlat,
		Classification:    models.Mixed,
	}

	adxOK := true
	dm, err := indicators.ADX(bars, c.cfg.ADXPeriod)
	if err != nil {
		adxOK = false
		c.logInsufficient("adx", err)
	} else {
		out.ADX = dm.ADX
	}

	bbOK := true
	breakout, err := indicators.BollingerBreakout(bars, c.cfg.BollingerPeriod, c.cfg.BollingerStdDev)
	if err != nil {
		bbOK = false
		c.logInsufficient("bollinger", err)
	} else {
		out.BollingerBreakout = breakout
	}

	paOK := true
	paTrend, paStrength, err := indicators.PriceAction(bars, c.cfg.SwingStrength)
	if err != nil {
		paOK = false
		c.logInsufficient("price_action", err)
	} else {
		out.PriceActionTrend = paTrend
		out.TrendStrength = paStrength
	}

	adx := adxAbsent
	if adxOK {
		switch {
		case out.ADX > c.cfg.ADXTrendLevel:
			adx = adxStrong
		case out.ADX < c.cfg.ADXRangeLevel:
			adx = adxRanging
		default:
			adx = adxWeak
		}
	}

	out.Classification = fuse(adx, bbOK, out.BollingerBreakout, paOK, out.PriceActionTrend)
	out.Confidence = confidence(out.Classification, adx, adxOK, bbOK, out.BollingerBreakout, paOK, out.PriceActionTrend, out.TrendStrength)
	return out
}

// fuse is the deterministic classification rule:
//
//	STRONGLY_TRENDING  ADX strong and price action agrees with the breakout direction
//	RANGING            ADX ranging and no breakout
//	WEAKLY_TRENDING    exactly two of the three signals vote for a trend in agreement
//	MIXED              anything else
func fuse(adx adxState, bbOK bool, breakout models.BollingerBreakout, paOK bool, pa models.PriceActionTrend) models.TrendClassification {
	bbDir := breakoutDirection(breakout)
	paDir := priceActionDirection(pa)

	if adx == adxStrong && bbDir != 0 && bbDir == paDir {
		return models.StronglyTrending
	}
	if adx == adxRanging && breakout == models.BreakoutNone {
		return models.Ranging
	}

	// Trend votes: a strong-or-weak ADX, a breakout, a directional swing
	// structure. Directional votes must not contradict each other.
	votes := 0
	if adx == adxStrong || adx == adxWeak {
		votes++
	}
	if bbOK && bbDir != 0 {
		votes++
	}
	if paOK && paDir != 0 {
		votes++
	}
	directionsConflict := bbDir != 0 && paDir != 0 && bbDir != paDir

	if votes == 2 && !directionsConflict {
		return models.WeaklyTrending
	}
	return models.Mixed
}

// confidence weighs how much of the available evidence supports the verdict.
// Absent sub-signals contribute zero, so thin data lowers confidence instead
// of raising errors.
func confidence(class models.TrendClassification, adx adxState, adxOK, bbOK bool, breakout models.BollingerBreakout, paOK bool, pa models.PriceActionTrend, paStrength float64) float64 {
	var score float64

	switch class {
	case models.StronglyTrending, models.WeaklyTrending:
		if adxOK && (adx == adxStrong || adx == adxWeak) {
			w := weightADX
			if adx == adxWeak {
				w *= 0.5
			}
			score += w
		}
		if paOK && pa != models.PriceActionFlat {
			score += weightPriceAction * paStrength
		}
		if bbOK && breakout != models.BreakoutNone {
			score += weightBollinger
		}
	case models.Ranging:
		if adxOK && adx == adxRanging {
			score += weightADX
		}
		if paOK && pa == models.PriceActionFlat {
			score += weightPriceAction
		}
		if bbOK && breakout == models.BreakoutNone {
			score += weightBollinger
		}
	case models.Mixed:
		// Conflicting evidence: confidence reflects only how much of the
		// signal set was computable at all.
		avail := 0.0
		if adxOK {
			avail += weightADX
		}
		if paOK {
			avail += weightPriceAction
		}
		if bbOK {
			avail += weightBollinger
		}
		score = avail * 0.25
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func breakoutDirection(b models.BollingerBreakout) int {
	switch b {
	case models.BreakoutUpper:
		return 1
	case models.BreakoutLower:
		return -1
	default:
		return 0
	}
}

func priceActionDirection(p models.PriceActionTrend) int {
	switch p {
	case models.PriceActionUp:
		return 1
	case models.PriceActionDown:
		return -1
	default:
		return 0
	}
}

func (c *Classifier) logInsufficient(signal string, err error) {
	if errors.Is(err, models.ErrInsufficientData) {
		c.log.Debug().Str("signal", signal).Msg("Sub-signal absent, insufficient bars")
		return
	}
	c.log.Warn().Err(err).Str("signal", signal).Msg("Sub-signal failed")
}

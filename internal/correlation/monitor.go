// Package correlation tracks rolling cross-asset correlations against their
// longer-horizon baselines and flags structural divergences.
package correlation

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/tradestack/regime/models"
)

// Pair identifies two instruments tracked together. For a volatility pair,
// LegA is the price index and LegB the volatility index (fear gauge).
type Pair struct {
	ID             string
	LegA           string
	LegB           string
	VolatilityPair bool
}

// Config tunes the monitor.
type Config struct {
	// RollingWindow is the number of returns in the rolling correlation.
	RollingWindow int
	// BaselineWindow is the longer horizon the rolling value is compared to.
	BaselineWindow int
	// DivergenceThreshold is the absolute rolling-vs-baseline deviation, in
	// correlation points, that flags a structural change.
	DivergenceThreshold float64
	// SentimentCorrelation is the magnitude of negative correlation at which
	// the fear gauge is considered coupled to the index.
	SentimentCorrelation float64
}

// Monitor evaluates one pair per call; pairs run independently and a pair
// with missing data is simply omitted for the cycle.
type Monitor struct {
	cfg Config
	log zerolog.Logger
}

// New builds a monitor from validated configuration.
func New(cfg Config, log zerolog.Logger) *Monitor {
	return &Monitor{
		cfg: cfg,
		log: log.With().Str("component", "correlation").Logger(),
	}
}

// Evaluate computes the rolling and baseline correlation for the pair from
// two synchronized bar sequences. It returns ErrInsufficientData when either
// leg is too short for the baseline window; callers omit the pair for the
// cycle rather than failing.
func (m *Monitor) Evaluate(pair Pair, legA, legB []models.Bar) (*models.CorrelationSnapshot, error) {
	retA := models.LogReturns(legA)
	retB := models.LogReturns(legB)

	n := len(retA)
	if len(retB) < n {
		n = len(retB)
	}
	if n < m.cfg.BaselineWindow {
		m.log.Debug().
			Str("pair", pair.ID).
			Int("returns", n).
			Int("required", m.cfg.BaselineWindow).
			Msg("Pair omitted, insufficient history")
		return nil, models.ErrInsufficientData
	}

	// Align the tails so both legs cover the same bars.
	retA = retA[len(retA)-n:]
	retB = retB[len(retB)-n:]

	rolling := pearson(retA[n-m.cfg.RollingWindow:], retB[n-m.cfg.RollingWindow:])
	baseline := pearson(retA[n-m.cfg.BaselineWindow:], retB[n-m.cfg.BaselineWindow:])
	if math.IsNaN(rolling) || math.IsNaN(baseline) {
		return nil, models.ErrInsufficientData
	}

	snap := &models.CorrelationSnapshot{
		PairID:              pair.ID,
		RollingCorrelation:  rolling,
		BaselineCorrelation: baseline,
		Divergence:          math.Abs(rolling-baseline) > m.cfg.DivergenceThreshold,
		Sentiment:           models.SentimentNeutral,
	}
	if pair.VolatilityPair {
		snap.Sentiment = m.pairSentiment(rolling, legA)
	}

	if snap.Divergence {
		m.log.Info().
			Str("pair", pair.ID).
			Float64("rolling", rolling).
			Float64("baseline", baseline).
			Msg("Correlation divergence detected")
	}
	return snap, nil
}

// pairSentiment reads the fear gauge relationship. The volatility index is
// expected to correlate negatively with the price index; that relationship
// holding while price rises is risk-on, the gauge decoupling while price
// falls precedes stress and is risk-off.
func (m *Monitor) pairSentiment(rolling float64, index []models.Bar) models.PairSentiment {
	rising, ok := priceRising(index, m.cfg.RollingWindow)
	if !ok {
		return models.SentimentNeutral
	}

	coupled := rolling <= -m.cfg.SentimentCorrelation
	switch {
	case coupled && rising:
		return models.RiskOn
	case !coupled && !rising:
		return models.RiskOff
	default:
		return models.SentimentNeutral
	}
}

func priceRising(bars []models.Bar, window int) (rising, ok bool) {
	if len(bars) < window+1 {
		return false, false
	}
	first := bars[len(bars)-window-1].Close
	lastClose := bars[len(bars)-1].Close
	if first <= 0 {
		return false, false
	}
	return lastClose > first, true
}

func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

package trendrange

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tradestack/regime/models"
)

func newTestClassifier() *Classifier {
	return New(Config{
		ADXPeriod:       14,
		ADXTrendLevel:   25,
		ADXRangeLevel:   20,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		SwingStrength:   3,
	}, zerolog.Nop())
}

func rampBars(n int, slope float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100.0 + float64(i)*slope
		bars[i] = models.Bar{Open: c - slope/2, High: c + 0.5, Low: c - 0.5, Close: c}
	}
	return bars
}

func sineBars(n int, amplitude, period float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100.0 + amplitude*math.Sin(float64(i)*2*math.Pi/period)
		bars[i] = models.Bar{Open: c, High: c + 0.5, Low: c - 0.5, Close: c}
	}
	return bars
}

func TestClassifyStronglyTrending(t *testing.T) {
	// Persistent ramp with a final breakout bar: all three signals agree.
	bars := rampBars(120, 1.0)
	bars[119].Close = bars[118].Close + 20
	bars[119].High = bars[119].Close + 0.5

	out := newTestClassifier().Classify(bars)

	assert.Equal(t, models.StronglyTrending, out.Classification)
	assert.Greater(t, out.ADX, 25.0)
	assert.Equal(t, models.BreakoutUpper, out.BollingerBreakout)
	assert.Equal(t, models.PriceActionUp, out.PriceActionTrend)
	assert.Greater(t, out.Confidence, 0.8)
	assert.LessOrEqual(t, out.Confidence, 1.0)
}

func TestClassifyWeaklyTrendingWithoutBreakout(t *testing.T) {
	// Clean ramp: strong ADX and rising structure but the close never
	// escapes the envelope, so only two signals vote for the trend.
	out := newTestClassifier().Classify(rampBars(120, 1.0))

	assert.Equal(t, models.WeaklyTrending, out.Classification)
	assert.Equal(t, models.BreakoutNone, out.BollingerBreakout)
	assert.Equal(t, models.PriceActionUp, out.PriceActionTrend)
}

func TestClassifyRanging(t *testing.T) {
	out := newTestClassifier().Classify(sineBars(120, 2, 10))

	assert.Equal(t, models.Ranging, out.Classification)
	assert.Less(t, out.ADX, 20.0)
	assert.Equal(t, models.BreakoutNone, out.BollingerBreakout)
	assert.Greater(t, out.Confidence, 0.5)
}

func TestClassifyEmptySeriesIsMixedZeroConfidence(t *testing.T) {
	for _, bars := range [][]models.Bar{nil, rampBars(5, 1.0)} {
		out := newTestClassifier().Classify(bars)

		assert.Equal(t, models.Mixed, out.Classification)
		assert.Zero(t, out.Confidence)
		assert.Equal(t, models.BreakoutNone, out.BollingerBreakout)
		assert.Equal(t, models.PriceActionFlat, out.PriceActionTrend)
	}
}

func TestConfidenceGrowsWithAgreement(t *testing.T) {
	c := newTestClassifier()

	breakout := rampBars(120, 1.0)
	breakout[119].Close = breakout[118].Close + 20
	breakout[119].High = breakout[119].Close + 0.5

	full := c.Classify(breakout)
	partial := c.Classify(rampBars(120, 1.0))

	assert.Greater(t, full.Confidence, partial.Confidence)
}

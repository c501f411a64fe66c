package volatility

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tradestack/regime/models"
)

// alternatingBars builds a series whose log returns alternate +r, -r, giving
// a per-bar stdev of roughly r.
func alternatingBars(n int, r float64) []models.Bar {
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		if i > 0 {
			if i%2 == 1 {
				price *= math.Exp(r)
			} else {
				price *= math.Exp(-r)
			}
		}
		bars[i] = models.Bar{Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

func testWindow() Window {
	return Window{Name: models.WindowMedium, Bars: 20, BarsPerYear: 252}
}

func newTestClassifier() *Classifier {
	return New(Thresholds{Low: 12, High: 22}, zerolog.Nop())
}

func TestClassifyShortSeriesIsUnknown(t *testing.T) {
	c := newTestClassifier()

	for _, bars := range [][]models.Bar{nil, alternatingBars(5, 0.01), alternatingBars(20, 0.01)} {
		regime := c.Classify(bars, testWindow())
		assert.Equal(t, models.VolatilityUnknown, regime.Label)
		assert.Equal(t, models.WindowMedium, regime.Window)
	}
}

func TestClassifyLabels(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name     string
		perBar   float64
		expected models.VolatilityLabel
	}{
		// 0.0005/bar annualizes to under 1 point.
		{"low", 0.0005, models.VolatilityLow},
		// 0.01/bar annualizes to roughly 16 points.
		{"medium", 0.01, models.VolatilityMedium},
		// 0.02/bar annualizes to roughly 33 points.
		{"high", 0.02, models.VolatilityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regime := c.Classify(alternatingBars(21, tt.perBar), testWindow())
			assert.Equal(t, tt.expected, regime.Label)
			assert.Greater(t, regime.AnnualizedStdev, 0.0)
		})
	}
}

func TestClassifyUsesWindowTail(t *testing.T) {
	c := newTestClassifier()

	// Calm history followed by a violent tail: only the tail counts.
	calm := alternatingBars(60, 0.0005)
	tail := alternatingBars(21, 0.02)
	offset := calm[len(calm)-1].Close / tail[0].Close
	for i := range tail {
		tail[i].Close *= offset
	}
	bars := append(calm, tail...)

	regime := c.Classify(bars, testWindow())
	assert.Equal(t, models.VolatilityHigh, regime.Label)
}

func TestClassifyNonPositiveClosesDegrade(t *testing.T) {
	c := newTestClassifier()

	bars := alternatingBars(21, 0.01)
	for i := range bars {
		bars[i].Close = 0
	}
	regime := c.Classify(bars, testWindow())
	assert.Equal(t, models.VolatilityUnknown, regime.Label)
}

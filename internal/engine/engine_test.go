package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradestack/regime/config"
	"github.com/tradestack/regime/models"
)

// fakeBarSource serves a synthetic series per instrument, ignoring the
// requested time range the way a canned fixture would.
type fakeBarSource struct {
	series map[string][]models.Bar
	err    error
	calls  int
}

func (f *fakeBarSource) GetBars(_ context.Context, instrument string, _ models.Interval, _, _ time.Time) ([]models.Bar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.series[instrument]
	if !ok {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: models.ErrInsufficientData}
	}
	return bars, nil
}

type captureStore struct {
	saved []*models.RegimeSnapshot
	err   error
}

func (c *captureStore) SaveSnapshot(_ context.Context, snap *models.RegimeSnapshot) error {
	c.saved = append(c.saved, snap)
	return c.err
}

type captureSink struct {
	decisions []models.StrategyDecision
	err       error
}

func (c *captureSink) NotifyDecision(_ context.Context, _ *models.RegimeSnapshot, d models.StrategyDecision) error {
	c.decisions = append(c.decisions, d)
	return c.err
}

func wavySeries(n int, drift float64) []models.Bar {
	bars := make([]models.Bar, n)
	price := 100.0
	base := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	for i := range bars {
		price *= math.Exp(drift + 0.003*math.Sin(float64(i)*1.3))
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price, High: price + 0.5, Low: price - 0.5, Close: price,
			Volume: 1000,
		}
	}
	return bars
}

func testEngine(t *testing.T, bars models.BarSource, store models.SnapshotStore, sink models.DecisionSink) *Engine {
	t.Helper()
	eng, err := Build(config.Default(), bars, store, sink, zerolog.Nop())
	require.NoError(t, err)
	return eng
}

func healthySource() *fakeBarSource {
	return &fakeBarSource{series: map[string][]models.Bar{
		"NIFTY":     wavySeries(130, 0.0002),
		"BANKNIFTY": wavySeries(130, 0.0001),
		"INDIAVIX":  wavySeries(130, -0.0002),
	}}
}

func TestRunCycleProducesSnapshotAndDecision(t *testing.T) {
	store := &captureStore{}
	sink := &captureSink{}
	eng := testEngine(t, healthySource(), store, sink)

	snap, decision, err := eng.RunCycle(context.Background(), models.SentimentBullish)
	require.NoError(t, err)

	require.NotNil(t, snap)
	assert.True(t, decision.Strategy.Valid())
	assert.NotEmpty(t, decision.Reasoning)
	assert.Equal(t, models.AssetOptions, decision.AssetClass)
	assert.Len(t, snap.Correlations, 2)
	assert.Equal(t, models.SentimentBullish, snap.PreMarketSentiment)

	require.Len(t, store.saved, 1)
	assert.Same(t, snap, store.saved[0])
	require.Len(t, sink.decisions, 1)
	assert.Equal(t, decision, sink.decisions[0])
}

// A dead data feed must still yield a decision: every classifier degrades to
// its unknown value and the selector's guard path takes over.
func TestRunCycleSurvivesTotalFeedOutage(t *testing.T) {
	src := &fakeBarSource{err: &models.DataUnavailableError{Instrument: "NIFTY", Err: errors.New("connection refused")}}
	eng := testEngine(t, src, nil, nil)

	snap, decision, err := eng.RunCycle(context.Background(), models.SentimentUnknown)
	require.NoError(t, err)

	for _, w := range []models.VolatilityWindow{models.WindowShort, models.WindowMedium, models.WindowLong} {
		assert.Equal(t, models.VolatilityUnknown, snap.VolatilityLabelFor(w))
	}
	assert.Equal(t, models.Mixed, snap.TrendRange.Classification)
	assert.Empty(t, snap.Correlations)

	assert.True(t, decision.Strategy.Valid())
	assert.NotEmpty(t, decision.Reasoning)
	assert.Less(t, decision.Confidence, 0.5)
}

func TestRunCycleIgnoresStoreAndSinkFailures(t *testing.T) {
	store := &captureStore{err: errors.New("db down")}
	sink := &captureSink{err: errors.New("telegram down")}
	eng := testEngine(t, healthySource(), store, sink)

	_, decision, err := eng.RunCycle(context.Background(), models.SentimentFlat)
	require.NoError(t, err)
	assert.True(t, decision.Strategy.Valid())
	assert.Len(t, store.saved, 1)
	assert.Len(t, sink.decisions, 1)
}

func TestRunCycleWorksWithoutStoreOrSink(t *testing.T) {
	eng := testEngine(t, healthySource(), nil, nil)

	_, decision, err := eng.RunCycle(context.Background(), models.SentimentFlat)
	require.NoError(t, err)
	assert.True(t, decision.Strategy.Valid())
}

func TestRunCycleFetchesEveryConfiguredInput(t *testing.T) {
	src := healthySource()
	eng := testEngine(t, src, nil, nil)

	_, _, err := eng.RunCycle(context.Background(), models.SentimentFlat)
	require.NoError(t, err)

	// Three volatility windows, one trend series, two legs per pair.
	assert.Equal(t, 3+1+2*2, src.calls)
}

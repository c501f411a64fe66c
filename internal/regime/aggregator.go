// Package regime fuses the classifier outputs into one immutable snapshot
// per evaluation cycle.
package regime

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradestack/regime/internal/correlation"
	"github.com/tradestack/regime/internal/trendrange"
	"github.com/tradestack/regime/internal/volatility"
	"github.com/tradestack/regime/models"
)

// PairInput carries one pair's synchronized bar sequences. A pair whose legs
// could not be fetched is passed with nil bars and omitted from the snapshot.
type PairInput struct {
	Pair correlation.Pair
	LegA []models.Bar
	LegB []models.Bar
}

// Inputs are the immutable per-cycle inputs to the aggregator. All fetching
// happens upstream; the aggregator itself never touches I/O.
type Inputs struct {
	WindowBars map[models.VolatilityWindow][]models.Bar
	TrendBars  []models.Bar
	Pairs      []PairInput
	Sentiment  models.Sentiment
}

// Aggregator runs the three classifiers concurrently and joins their outputs
// into a RegimeSnapshot. The classifiers are pure functions over their own
// inputs, so no locking is needed beyond the join itself.
type Aggregator struct {
	vol     *volatility.Classifier
	trend   *trendrange.Classifier
	corr    *correlation.Monitor
	windows []volatility.Window
	log     zerolog.Logger
}

// New wires the aggregator.
func New(vol *volatility.Classifier, windows []volatility.Window, trend *trendrange.Classifier, corr *correlation.Monitor, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		vol:     vol,
		trend:   trend,
		corr:    corr,
		windows: windows,
		log:     log.With().Str("component", "aggregator").Logger(),
	}
}

// Build produces the cycle snapshot. It is deterministic for identical
// inputs: re-running it yields a structurally identical snapshot, timestamp
// aside.
func (a *Aggregator) Build(in Inputs) *models.RegimeSnapshot {
	var (
		wg       sync.WaitGroup
		volOut   = make(map[models.VolatilityWindow]models.VolatilityRegime, len(a.windows))
		trendOut models.TrendRangeAssessment
		corrOut  []models.CorrelationSnapshot
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		for _, w := range a.windows {
			volOut[w.Name] = a.vol.Classify(in.WindowBars[w.Name], w)
		}
	}()

	go func() {
		defer wg.Done()
		trendOut = a.trend.Classify(in.TrendBars)
	}()

	go func() {
		defer wg.Done()
		snaps := make([]models.CorrelationSnapshot, 0, len(in.Pairs))
		for _, p := range in.Pairs {
			snap, err := a.corr.Evaluate(p.Pair, p.LegA, p.LegB)
			if err != nil {
				// Missing or short legs leave a gap for this pair, not an
				// error for the cycle.
				continue
			}
			snaps = append(snaps, *snap)
		}
		// Stable ordering regardless of input ordering.
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].PairID < snaps[j].PairID })
		corrOut = snaps
	}()

	wg.Wait()

	snap := &models.RegimeSnapshot{
		Timestamp:          time.Now().UTC(),
		Volatility:         volOut,
		TrendRange:         trendOut,
		Correlations:       corrOut,
		PreMarketSentiment: normalizeSentiment(in.Sentiment),
	}

	a.log.Info().
		Str("trend", string(snap.TrendRange.Classification)).
		Float64("trend_confidence", snap.TrendRange.Confidence).
		Int("pairs", len(snap.Correlations)).
		Bool("divergence", snap.HasDivergence()).
		Msg("Regime snapshot assembled")
	return snap
}

func normalizeSentiment(s models.Sentiment) models.Sentiment {
	switch s {
	case models.SentimentBullish, models.SentimentBearish, models.SentimentFlat:
		return s
	default:
		return models.SentimentUnknown
	}
}

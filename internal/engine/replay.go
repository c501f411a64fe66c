package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tradestack/regime/internal/correlation"
	"github.com/tradestack/regime/internal/regime"
	"github.com/tradestack/regime/models"
)

// ReplayStep is one historical evaluation: the snapshot and decision the
// engine would have produced at AsOf.
type ReplayStep struct {
	AsOf     time.Time               `json:"as_of"`
	Snapshot *models.RegimeSnapshot  `json:"snapshot"`
	Decision models.StrategyDecision `json:"decision"`
}

// Replay walks a historical range through the engine, re-evaluating every
// step interval using only bars visible at that point in time. The selector
// is pure, so a replay over the same range is deterministic and comparable
// across code changes.
func (e *Engine) Replay(ctx context.Context, from, to time.Time, step time.Duration, sentiment models.Sentiment, fn func(ReplayStep) error) error {
	if !from.Before(to) {
		return fmt.Errorf("replay: from %v must precede to %v", from, to)
	}
	if step <= 0 {
		return fmt.Errorf("replay: step must be positive")
	}

	series, err := e.fetchReplaySeries(ctx, from, to)
	if err != nil {
		return err
	}

	for asOf := from; !asOf.After(to); asOf = asOf.Add(step) {
		if err := ctx.Err(); err != nil {
			return err
		}

		in := regime.Inputs{
			WindowBars: map[models.VolatilityWindow][]models.Bar{
				models.WindowShort:  visible(series[seriesKey{e.cfg.Primary.Instrument, e.cfg.Volatility.Short.Interval}], asOf),
				models.WindowMedium: visible(series[seriesKey{e.cfg.Primary.Instrument, e.cfg.Volatility.Medium.Interval}], asOf),
				models.WindowLong:   visible(series[seriesKey{e.cfg.Primary.Instrument, e.cfg.Volatility.Long.Interval}], asOf),
			},
			TrendBars: visible(series[seriesKey{e.cfg.Primary.Instrument, e.cfg.Trend.Interval}], asOf),
			Sentiment: sentiment,
		}
		for _, p := range e.cfg.Correlation.Pairs {
			in.Pairs = append(in.Pairs, regime.PairInput{
				Pair: correlation.Pair{ID: p.ID, LegA: p.LegA, LegB: p.LegB, VolatilityPair: p.VolatilityPair},
				LegA: visible(series[seriesKey{p.LegA, p.Interval}], asOf),
				LegB: visible(series[seriesKey{p.LegB, p.Interval}], asOf),
			})
		}

		snap := e.agg.Build(in)
		decision := e.sel.Select(snap, e.cfg.Primary.AssetClass)
		if err := fn(ReplayStep{AsOf: asOf, Snapshot: snap, Decision: decision}); err != nil {
			return err
		}
	}
	return nil
}

type seriesKey struct {
	instrument string
	interval   models.Interval
}

// fetchReplaySeries pulls each distinct (instrument, interval) series once,
// with enough lead-in before `from` to warm the longest windows. A series
// that cannot be fetched stays nil and degrades per component, same as live.
func (e *Engine) fetchReplaySeries(ctx context.Context, from, to time.Time) (map[seriesKey][]models.Bar, error) {
	leadIn := map[seriesKey]int{
		{e.cfg.Primary.Instrument, e.cfg.Volatility.Short.Interval}:  e.cfg.Volatility.Short.Bars + 1,
		{e.cfg.Primary.Instrument, e.cfg.Volatility.Medium.Interval}: e.cfg.Volatility.Medium.Bars + 1,
		{e.cfg.Primary.Instrument, e.cfg.Volatility.Long.Interval}:   e.cfg.Volatility.Long.Bars + 1,
	}
	trendKey := seriesKey{e.cfg.Primary.Instrument, e.cfg.Trend.Interval}
	if leadIn[trendKey] < e.cfg.Trend.LookbackBars {
		leadIn[trendKey] = e.cfg.Trend.LookbackBars
	}
	for _, p := range e.cfg.Correlation.Pairs {
		need := e.cfg.Correlation.BaselineWindow + 1
		for _, leg := range []string{p.LegA, p.LegB} {
			key := seriesKey{leg, p.Interval}
			if leadIn[key] < need {
				leadIn[key] = need
			}
		}
	}

	series := make(map[seriesKey][]models.Bar, len(leadIn))
	for key, bars := range leadIn {
		span := time.Duration(bars+e.cfg.Data.HistorySlackBars) * key.interval.Duration()
		if key.interval != models.Interval1Day {
			span += 3 * 24 * time.Hour
		}
		fetched, err := e.bars.GetBars(ctx, key.instrument, key.interval, from.Add(-span), to)
		if err != nil {
			e.log.Warn().
				Str("instrument", key.instrument).
				Str("interval", string(key.interval)).
				Err(err).
				Msg("Replay series unavailable, degrading")
			continue
		}
		series[key] = fetched
	}
	return series, nil
}

// visible truncates the series to bars at or before asOf.
func visible(bars []models.Bar, asOf time.Time) []models.Bar {
	n := len(bars)
	for n > 0 && bars[n-1].Timestamp.After(asOf) {
		n--
	}
	return bars[:n]
}

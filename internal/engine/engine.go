// Package engine runs one evaluation cycle end to end: fetch bars, classify
// concurrently, aggregate, decide, then persist and notify out of band.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradestack/regime/config"
	"github.com/tradestack/regime/internal/correlation"
	"github.com/tradestack/regime/internal/regime"
	"github.com/tradestack/regime/internal/strategy"
	"github.com/tradestack/regime/models"
)

// Engine orchestrates the cycle. Classifier failures degrade inside the
// cycle; only the selector's decision leaves it, and that function is total.
type Engine struct {
	cfg   *config.Config
	bars  models.BarSource
	store models.SnapshotStore // optional
	sink  models.DecisionSink  // optional
	agg   *regime.Aggregator
	sel   *strategy.Selector
	log   zerolog.Logger
}

// New wires an engine. store and sink may be nil.
func New(cfg *config.Config, bars models.BarSource, store models.SnapshotStore, sink models.DecisionSink, agg *regime.Aggregator, sel *strategy.Selector, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:   cfg,
		bars:  bars,
		store: store,
		sink:  sink,
		agg:   agg,
		sel:   sel,
		log:   log.With().Str("component", "engine").Logger(),
	}
}

// RunCycle evaluates the current regime and returns the decision. Fetch
// failures are logged once per input and degrade to UNKNOWN/omitted signals;
// the cycle always completes with best-available information.
func (e *Engine) RunCycle(ctx context.Context, sentiment models.Sentiment) (*models.RegimeSnapshot, models.StrategyDecision, error) {
	now := time.Now().UTC()
	in := regime.Inputs{
		WindowBars: make(map[models.VolatilityWindow][]models.Bar, 3),
		Sentiment:  sentiment,
	}

	windows := []struct {
		name models.VolatilityWindow
		cfg  config.WindowConfig
	}{
		{models.WindowShort, e.cfg.Volatility.Short},
		{models.WindowMedium, e.cfg.Volatility.Medium},
		{models.WindowLong, e.cfg.Volatility.Long},
	}
	for _, w := range windows {
		bars := e.fetch(ctx, e.cfg.Primary.Instrument, w.cfg.Interval, w.cfg.Bars+1, now)
		in.WindowBars[w.name] = bars
	}

	in.TrendBars = e.fetch(ctx, e.cfg.Primary.Instrument, e.cfg.Trend.Interval, e.cfg.Trend.LookbackBars, now)

	for _, p := range e.cfg.Correlation.Pairs {
		// Both legs need baseline-window history plus one bar for returns.
		need := e.cfg.Correlation.BaselineWindow + 1
		legA := e.fetch(ctx, p.LegA, p.Interval, need, now)
		legB := e.fetch(ctx, p.LegB, p.Interval, need, now)
		in.Pairs = append(in.Pairs, regime.PairInput{
			Pair: correlation.Pair{ID: p.ID, LegA: p.LegA, LegB: p.LegB, VolatilityPair: p.VolatilityPair},
			LegA: legA,
			LegB: legB,
		})
	}

	snap := e.agg.Build(in)
	decision := e.sel.Select(snap, e.cfg.Primary.AssetClass)

	e.log.Info().
		Str("strategy", string(decision.Strategy)).
		Str("direction", string(decision.Direction)).
		Float64("confidence", decision.Confidence).
		Msg("Decision computed")

	// The decision is already in hand; persistence and notification are
	// best-effort side channels that never fail the cycle.
	e.persist(ctx, snap)
	e.notify(ctx, snap, decision)

	return snap, decision, nil
}

// fetch pulls enough bars to cover `count` plus configured slack, degrading
// to nil on failure. Degradation is logged once here, not per retry, to
// avoid log storms when upstream is down.
func (e *Engine) fetch(ctx context.Context, instrument string, interval models.Interval, count int, now time.Time) []models.Bar {
	span := time.Duration(count+e.cfg.Data.HistorySlackBars) * interval.Duration()
	// Intraday intervals need extra span to bridge overnight and weekend
	// gaps in bar timestamps.
	if interval != models.Interval1Day {
		span += 3 * 24 * time.Hour
	}

	bars, err := e.bars.GetBars(ctx, instrument, interval, now.Add(-span), now)
	if err != nil {
		e.log.Warn().
			Str("instrument", instrument).
			Str("interval", string(interval)).
			Err(err).
			Msg("Bar fetch failed, degrading")
		return nil
	}
	return bars
}

func (e *Engine) persist(ctx context.Context, snap *models.RegimeSnapshot) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		e.log.Error().Err(err).Msg("Snapshot persistence failed")
	}
}

func (e *Engine) notify(ctx context.Context, snap *models.RegimeSnapshot, decision models.StrategyDecision) {
	if e.sink == nil {
		return
	}
	if err := e.sink.NotifyDecision(ctx, snap, decision); err != nil {
		e.log.Error().Err(err).Msg("Decision notification failed")
	}
}

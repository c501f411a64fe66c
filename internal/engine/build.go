package engine

import (
	"github.com/rs/zerolog"

	"github.com/tradestack/regime/config"
	"github.com/tradestack/regime/internal/correlation"
	"github.com/tradestack/regime/internal/regime"
	"github.com/tradestack/regime/internal/strategy"
	"github.com/tradestack/regime/internal/trendrange"
	"github.com/tradestack/regime/internal/volatility"
	"github.com/tradestack/regime/models"
)

// Build constructs a fully wired engine from validated configuration.
// store and sink may be nil.
func Build(cfg *config.Config, bars models.BarSource, store models.SnapshotStore, sink models.DecisionSink, log zerolog.Logger) (*Engine, error) {
	th := cfg.Volatility.ThresholdsFor(cfg.Primary.Instrument)
	vol := volatility.New(volatility.Thresholds{Low: th.Low, High: th.High}, log)

	windows := []volatility.Window{
		{Name: models.WindowShort, Bars: cfg.Volatility.Short.Bars, BarsPerYear: cfg.Volatility.Short.BarsPerYear},
		{Name: models.WindowMedium, Bars: cfg.Volatility.Medium.Bars, BarsPerYear: cfg.Volatility.Medium.BarsPerYear},
		{Name: models.WindowLong, Bars: cfg.Volatility.Long.Bars, BarsPerYear: cfg.Volatility.Long.BarsPerYear},
	}

	trend := trendrange.New(trendrange.Config{
		ADXPeriod:       cfg.Trend.ADXPeriod,
		ADXTrendLevel:   cfg.Trend.ADXTrendLevel,
		ADXRangeLevel:   cfg.Trend.ADXRangeLevel,
		BollingerPeriod: cfg.Trend.BollingerPeriod,
		BollingerStdDev: cfg.Trend.BollingerStdDev,
		SwingStrength:   cfg.Trend.SwingStrength,
	}, log)

	corr := correlation.New(correlation.Config{
		RollingWindow:        cfg.Correlation.RollingWindow,
		BaselineWindow:       cfg.Correlation.BaselineWindow,
		DivergenceThreshold:  cfg.Correlation.DivergenceThreshold,
		SentimentCorrelation: cfg.Correlation.SentimentCorrelation,
	}, log)

	sel, err := strategy.NewSelector(strategy.Table{
		Trending: cfg.Strategy.Trending,
		Defaults: cfg.Strategy.Defaults,
	}, cfg.Strategy.DirectionConfidenceFloor)
	if err != nil {
		return nil, err
	}

	agg := regime.New(vol, windows, trend, corr, log)
	return New(cfg, bars, store, sink, agg, sel, log), nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradestack/regime/models"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestThresholdsForFallsBackToDefault(t *testing.T) {
	cfg := Default()

	nifty := cfg.Volatility.ThresholdsFor("NIFTY")
	assert.Equal(t, 12.0, nifty.Low)
	assert.Equal(t, 22.0, nifty.High)

	other := cfg.Volatility.ThresholdsFor("SENSEX")
	assert.Equal(t, cfg.Volatility.DefaultThresholds, other)
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty instrument", func(c *Config) { c.Primary.Instrument = "" }, "primary.instrument"},
		{"bad asset class", func(c *Config) { c.Primary.AssetClass = "crypto" }, "primary.asset_class"},
		{"tiny window", func(c *Config) { c.Volatility.Short.Bars = 1 }, "volatility.short.bars"},
		{"inverted thresholds", func(c *Config) {
			c.Volatility.DefaultThresholds = Thresholds{Low: 30, High: 10}
		}, "volatility.default_thresholds"},
		{"adx levels inverted", func(c *Config) { c.Trend.ADXRangeLevel = 40 }, "trend.adx_range_level"},
		{"lookback too short", func(c *Config) { c.Trend.LookbackBars = 10 }, "trend.lookback_bars"},
		{"baseline below rolling", func(c *Config) { c.Correlation.BaselineWindow = 10 }, "correlation.baseline_window"},
		{"pair with same legs", func(c *Config) {
			c.Correlation.Pairs[0].LegB = c.Correlation.Pairs[0].LegA
		}, "correlation.pairs[0]"},
		{"missing trending strategy", func(c *Config) {
			delete(c.Strategy.Trending, models.AssetFutures)
		}, "strategy.trending"},
		{"floor out of range", func(c *Config) { c.Strategy.DirectionConfidenceFloor = 2 }, "strategy.direction_confidence_floor"},
		{"zero cycle timeout", func(c *Config) { c.Schedule.CycleTimeout = 0 }, "schedule.cycle_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *models.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadAppliesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
primary:
  instrument: BANKNIFTY
  asset_class: futures
trend:
  adx_trend_level: 28
correlation:
  divergence_threshold: 0.4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BANKNIFTY", cfg.Primary.Instrument)
	assert.Equal(t, models.AssetFutures, cfg.Primary.AssetClass)
	assert.Equal(t, 28.0, cfg.Trend.ADXTrendLevel)
	assert.Equal(t, 0.4, cfg.Correlation.DivergenceThreshold)
	// Untouched sections keep their defaults.
	assert.Equal(t, 14, cfg.Trend.ADXPeriod)
	assert.Len(t, cfg.Correlation.Pairs, 2)
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedule:\n  cycle_timeout: -1\n"), 0o644))

	_, err := Load(path)
	var cfgErr *models.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParsedSentiment(t *testing.T) {
	tests := []struct {
		raw      string
		expected models.Sentiment
	}{
		{"BULLISH", models.SentimentBullish},
		{"BEARISH", models.SentimentBearish},
		{"NEUTRAL", models.SentimentFlat},
		{"", models.SentimentUnknown},
		{"whatever", models.SentimentUnknown},
	}
	for _, tt := range tests {
		env := Env{PreMarketSentiment: tt.raw}
		assert.Equal(t, tt.expected, env.ParsedSentiment(), tt.raw)
	}
}

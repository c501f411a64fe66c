package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/tradestack/regime/models"
)

// Config is the full engine configuration. It is constructed once at startup,
// validated, and passed by reference into each component. Thresholds are
// per-instrument because volatility baselines differ by index.
type Config struct {
	Primary     PrimaryConfig     `yaml:"primary"`
	Data        DataConfig        `yaml:"data"`
	Volatility  VolatilityConfig  `yaml:"volatility"`
	Trend       TrendConfig       `yaml:"trend"`
	Correlation CorrelationConfig `yaml:"correlation"`
	Strategy    StrategyConfig    `yaml:"strategy"`
	Schedule    ScheduleConfig    `yaml:"schedule"`

	Env Env `yaml:"-"`
}

// PrimaryConfig identifies the instrument whose regime drives decisions.
type PrimaryConfig struct {
	Instrument string            `yaml:"instrument"`
	AssetClass models.AssetClass `yaml:"asset_class"`
}

// DataConfig tunes the market-data client.
type DataConfig struct {
	BaseURL          string `yaml:"base_url"`
	RequestTimeout   int    `yaml:"request_timeout"` // seconds
	RateLimitPerSec  int    `yaml:"rate_limit_per_sec"`
	MaxRetryElapsed  int    `yaml:"max_retry_elapsed"` // seconds
	HistorySlackBars int    `yaml:"history_slack_bars"`
}

// WindowConfig describes one volatility window: how many bars it spans, the
// bar interval to fetch, and the annualization factor (bars per trading year
// at that interval).
type WindowConfig struct {
	Interval    models.Interval `yaml:"interval"`
	Bars        int             `yaml:"bars"`
	BarsPerYear float64         `yaml:"bars_per_year"`
}

// Thresholds are annualized volatility cut points in percentage points.
type Thresholds struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// VolatilityConfig holds the three windows plus per-instrument thresholds.
type VolatilityConfig struct {
	Short             WindowConfig          `yaml:"short"`
	Medium            WindowConfig          `yaml:"medium"`
	Long              WindowConfig          `yaml:"long"`
	Thresholds        map[string]Thresholds `yaml:"thresholds"`
	DefaultThresholds Thresholds            `yaml:"default_thresholds"`
}

// ThresholdsFor resolves the cut points for an instrument, falling back to
// the defaults when no per-instrument entry exists.
func (v VolatilityConfig) ThresholdsFor(instrument string) Thresholds {
	if t, ok := v.Thresholds[instrument]; ok {
		return t
	}
	return v.DefaultThresholds
}

// TrendConfig tunes the trend/range sub-signals.
type TrendConfig struct {
	Interval        models.Interval `yaml:"interval"`
	LookbackBars    int             `yaml:"lookback_bars"`
	ADXPeriod       int             `yaml:"adx_period"`
	ADXTrendLevel   float64         `yaml:"adx_trend_level"`
	ADXRangeLevel   float64         `yaml:"adx_range_level"`
	BollingerPeriod int             `yaml:"bollinger_period"`
	BollingerStdDev float64         `yaml:"bollinger_stddev"`
	SwingStrength   int             `yaml:"swing_strength"`
}

// PairConfig declares one tracked correlation pair. Pairs are configuration
// data, extensible without code change. VolatilityPair marks the VIX/index
// pair used for risk sentiment; LegA is the price index, LegB the fear gauge.
type PairConfig struct {
	ID             string          `yaml:"id"`
	LegA           string          `yaml:"leg_a"`
	LegB           string          `yaml:"leg_b"`
	Interval       models.Interval `yaml:"interval"`
	VolatilityPair bool            `yaml:"volatility_pair"`
}

// CorrelationConfig tunes the correlation monitor.
type CorrelationConfig struct {
	RollingWindow        int          `yaml:"rolling_window"`
	BaselineWindow       int          `yaml:"baseline_window"`
	DivergenceThreshold  float64      `yaml:"divergence_threshold"`
	SentimentCorrelation float64      `yaml:"sentiment_correlation"`
	Pairs                []PairConfig `yaml:"pairs"`
}

// StrategyConfig holds the asset-class mapping tables resolved at startup.
type StrategyConfig struct {
	Trending                 map[models.AssetClass]models.Strategy `yaml:"trending"`
	Defaults                 map[models.AssetClass]models.Strategy `yaml:"defaults"`
	DirectionConfidenceFloor float64                               `yaml:"direction_confidence_floor"`
}

// ScheduleConfig drives the cycle runner. The core itself defines no timers.
type ScheduleConfig struct {
	Cron         string `yaml:"cron"`
	CycleTimeout int    `yaml:"cycle_timeout"` // seconds
}

// Env carries secrets and deployment-specific wiring, never the YAML file.
type Env struct {
	DataAPIKey         string `envconfig:"DATA_API_KEY"`
	DatabaseURL        string `envconfig:"DATABASE_URL"`
	TelegramToken      string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID     int64  `envconfig:"TELEGRAM_CHAT_ID"`
	PreMarketSentiment string `envconfig:"PRE_MARKET_SENTIMENT" default:"UNKNOWN"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
}

// Default returns the configuration used when no YAML file overrides it.
// Window sizing assumes NSE hours: 75 five-minute bars per session, 252
// sessions per year.
func Default() *Config {
	return &Config{
		Primary: PrimaryConfig{
			Instrument: "NIFTY",
			AssetClass: models.AssetOptions,
		},
		Data: DataConfig{
			BaseURL:          "https://api.twelvedata.com",
			RequestTimeout:   30,
			RateLimitPerSec:  5,
			MaxRetryElapsed:  30,
			HistorySlackBars: 10,
		},
		Volatility: VolatilityConfig{
			Short:  WindowConfig{Interval: models.Interval5Min, Bars: 12, BarsPerYear: 75 * 252},
			Medium: WindowConfig{Interval: models.Interval1Hour, Bars: 12, BarsPerYear: 6.25 * 252},
			Long:   WindowConfig{Interval: models.Interval1Day, Bars: 20, BarsPerYear: 252},
			Thresholds: map[string]Thresholds{
				"NIFTY":     {Low: 12, High: 22},
				"BANKNIFTY": {Low: 15, High: 28},
			},
			DefaultThresholds: Thresholds{Low: 10, High: 25},
		},
		Trend: TrendConfig{
			Interval:        models.Interval5Min,
			LookbackBars:    120,
			ADXPeriod:       14,
			ADXTrendLevel:   25,
			ADXRangeLevel:   20,
			BollingerPeriod: 20,
			BollingerStdDev: 2.0,
			SwingStrength:   3,
		},
		Correlation: CorrelationConfig{
			RollingWindow:        20,
			BaselineWindow:       60,
			DivergenceThreshold:  0.3,
			SentimentCorrelation: 0.5,
			Pairs: []PairConfig{
				{ID: "NIFTY_BANKNIFTY", LegA: "NIFTY", LegB: "BANKNIFTY", Interval: models.Interval5Min},
				{ID: "NIFTY_INDIAVIX", LegA: "NIFTY", LegB: "INDIAVIX", Interval: models.Interval5Min, VolatilityPair: true},
			},
		},
		Strategy: StrategyConfig{
			Trending: map[models.AssetClass]models.Strategy{
				models.AssetStock:   models.StrategyVWAP,
				models.AssetFutures: models.StrategyORB,
				models.AssetOptions: models.StrategyScalp,
			},
			Defaults: map[models.AssetClass]models.Strategy{
				models.AssetStock:   models.StrategyVWAP,
				models.AssetFutures: models.StrategyORB,
				models.AssetOptions: models.StrategyScalp,
			},
			DirectionConfidenceFloor: 0.5,
		},
		Schedule: ScheduleConfig{
			Cron:         "0 */5 9-15 * * MON-FRI",
			CycleTimeout: 60,
		},
	}
}

// Load reads the YAML file at path (when non-empty) over the defaults,
// applies environment overrides, and validates the result. Any validation
// failure is fatal: the first cycle must never run on a broken config.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("regime", &cfg.Env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the configuration invariants.
func (c *Config) Validate() error {
	if c.Primary.Instrument == "" {
		return &models.ConfigError{Field: "primary.instrument", Reason: "must not be empty"}
	}
	switch c.Primary.AssetClass {
	case models.AssetStock, models.AssetFutures, models.AssetOptions:
	default:
		return &models.ConfigError{Field: "primary.asset_class", Reason: fmt.Sprintf("unknown asset class %q", c.Primary.AssetClass)}
	}

	for name, w := range map[string]WindowConfig{
		"volatility.short":  c.Volatility.Short,
		"volatility.medium": c.Volatility.Medium,
		"volatility.long":   c.Volatility.Long,
	} {
		if w.Bars < 2 {
			return &models.ConfigError{Field: name + ".bars", Reason: "must be at least 2"}
		}
		if w.BarsPerYear <= 0 {
			return &models.ConfigError{Field: name + ".bars_per_year", Reason: "must be positive"}
		}
	}
	if err := validateThresholds("volatility.default_thresholds", c.Volatility.DefaultThresholds); err != nil {
		return err
	}
	for instrument, t := range c.Volatility.Thresholds {
		if err := validateThresholds("volatility.thresholds."+instrument, t); err != nil {
			return err
		}
	}

	if c.Trend.ADXPeriod < 2 {
		return &models.ConfigError{Field: "trend.adx_period", Reason: "must be at least 2"}
	}
	if c.Trend.ADXRangeLevel >= c.Trend.ADXTrendLevel {
		return &models.ConfigError{Field: "trend.adx_range_level", Reason: "must be below adx_trend_level"}
	}
	if c.Trend.BollingerPeriod < 2 {
		return &models.ConfigError{Field: "trend.bollinger_period", Reason: "must be at least 2"}
	}
	if c.Trend.BollingerStdDev <= 0 {
		return &models.ConfigError{Field: "trend.bollinger_stddev", Reason: "must be positive"}
	}
	if c.Trend.SwingStrength < 1 {
		return &models.ConfigError{Field: "trend.swing_strength", Reason: "must be at least 1"}
	}
	if c.Trend.LookbackBars < c.Trend.BollingerPeriod || c.Trend.LookbackBars < 2*c.Trend.ADXPeriod {
		return &models.ConfigError{Field: "trend.lookback_bars", Reason: "must cover the longest indicator period"}
	}

	if c.Correlation.RollingWindow < 3 {
		return &models.ConfigError{Field: "correlation.rolling_window", Reason: "must be at least 3"}
	}
	if c.Correlation.BaselineWindow <= c.Correlation.RollingWindow {
		return &models.ConfigError{Field: "correlation.baseline_window", Reason: "must exceed rolling_window"}
	}
	if c.Correlation.DivergenceThreshold <= 0 || c.Correlation.DivergenceThreshold >= 2 {
		return &models.ConfigError{Field: "correlation.divergence_threshold", Reason: "must be in (0, 2)"}
	}
	for i, p := range c.Correlation.Pairs {
		field := fmt.Sprintf("correlation.pairs[%d]", i)
		if p.ID == "" || p.LegA == "" || p.LegB == "" {
			return &models.ConfigError{Field: field, Reason: "id and both legs are required"}
		}
		if p.LegA == p.LegB {
			return &models.ConfigError{Field: field, Reason: "legs must differ"}
		}
	}

	for _, class := range models.AssetClasses() {
		s, ok := c.Strategy.Trending[class]
		if !ok || !s.Valid() {
			return &models.ConfigError{Field: "strategy.trending", Reason: fmt.Sprintf("missing or invalid strategy for %s", class)}
		}
		s, ok = c.Strategy.Defaults[class]
		if !ok || !s.Valid() {
			return &models.ConfigError{Field: "strategy.defaults", Reason: fmt.Sprintf("missing or invalid strategy for %s", class)}
		}
	}
	if f := c.Strategy.DirectionConfidenceFloor; f < 0 || f > 1 {
		return &models.ConfigError{Field: "strategy.direction_confidence_floor", Reason: "must be in [0, 1]"}
	}

	if c.Schedule.CycleTimeout <= 0 {
		return &models.ConfigError{Field: "schedule.cycle_timeout", Reason: "must be positive"}
	}
	return nil
}

func validateThresholds(field string, t Thresholds) error {
	if t.Low <= 0 || t.High <= 0 {
		return &models.ConfigError{Field: field, Reason: "thresholds must be positive"}
	}
	if t.Low >= t.High {
		return &models.ConfigError{Field: field, Reason: "low must be below high"}
	}
	return nil
}

// ParsedSentiment parses the externally supplied session bias.
func (e Env) ParsedSentiment() models.Sentiment {
	switch models.Sentiment(e.PreMarketSentiment) {
	case models.SentimentBullish, models.SentimentBearish, models.SentimentFlat:
		return models.Sentiment(e.PreMarketSentiment)
	default:
		return models.SentimentUnknown
	}
}

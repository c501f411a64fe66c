package models

import "time"

// VolatilityWindow identifies one of the three rolling windows the
// volatility classifier evaluates each cycle.
type VolatilityWindow string

const (
	WindowShort  VolatilityWindow = "SHORT"
	WindowMedium VolatilityWindow = "MEDIUM"
	WindowLong   VolatilityWindow = "LONG"
)

// VolatilityLabel buckets annualized realized volatility.
type VolatilityLabel string

const (
	VolatilityLow     VolatilityLabel = "LOW"
	VolatilityMedium  VolatilityLabel = "MEDIUM"
	VolatilityHigh    VolatilityLabel = "HIGH"
	VolatilityUnknown VolatilityLabel = "UNKNOWN"
)

// VolatilityRegime is the classifier output for a single window.
// Label is UNKNOWN when the window had insufficient bars or the fetch failed.
type VolatilityRegime struct {
	Window          VolatilityWindow `json:"window"`
	AnnualizedStdev float64          `json:"annualized_stdev"`
	Label           VolatilityLabel  `json:"label"`
}

// BollingerBreakout flags a close outside the Bollinger envelope.
type BollingerBreakout string

const (
	BreakoutUpper BollingerBreakout = "UPPER"
	BreakoutLower BollingerBreakout = "LOWER"
	BreakoutNone  BollingerBreakout = "NONE"
)

// PriceActionTrend is the swing-structure direction.
type PriceActionTrend string

const (
	PriceActionUp   PriceActionTrend = "UP"
	PriceActionDown PriceActionTrend = "DOWN"
	PriceActionFlat PriceActionTrend = "FLAT"
)

// TrendClassification is the fused trend/range verdict.
type TrendClassification string

const (
	StronglyTrending TrendClassification = "STRONGLY_TRENDING"
	WeaklyTrending   TrendClassification = "WEAKLY_TRENDING"
	Ranging          TrendClassification = "RANGING"
	Mixed            TrendClassification = "MIXED"
)

// TrendRangeAssessment carries the three sub-signals plus their fusion.
// Classification is a deterministic function of the sub-signals; Confidence
// grows with sub-signal agreement.
type TrendRangeAssessment struct {
	ADX               float64             `json:"adx"`
	BollingerBreakout BollingerBreakout   `json:"bollinger_breakout"`
	PriceActionTrend  PriceActionTrend    `json:"price_action_trend"`
	TrendStrength     float64             `json:"trend_strength"`
	Classification    TrendClassification `json:"classification"`
	Confidence        float64             `json:"confidence"`
}

// PairSentiment is derived from the volatility-index pair only.
type PairSentiment string

const (
	RiskOn           PairSentiment = "RISK_ON"
	RiskOff          PairSentiment = "RISK_OFF"
	SentimentNeutral PairSentiment = "NEUTRAL"
)

// CorrelationSnapshot is the per-pair correlation state for one cycle.
type CorrelationSnapshot struct {
	PairID              string        `json:"pair_id"`
	RollingCorrelation  float64       `json:"rolling_correlation"`
	BaselineCorrelation float64       `json:"baseline_correlation"`
	Divergence          bool          `json:"divergence"`
	Sentiment           PairSentiment `json:"sentiment"`
}

// Sentiment is the externally supplied pre-market bias.
type Sentiment string

const (
	SentimentBullish Sentiment = "BULLISH"
	SentimentBearish Sentiment = "BEARISH"
	SentimentFlat    Sentiment = "NEUTRAL"
	SentimentUnknown Sentiment = "UNKNOWN"
)

// RegimeSnapshot is the fused market state for one evaluation cycle.
// It is immutable after construction; each cycle supersedes the previous
// snapshot rather than mutating it.
type RegimeSnapshot struct {
	Timestamp          time.Time                             `json:"timestamp"`
	Volatility         map[VolatilityWindow]VolatilityRegime `json:"volatility_regimes"`
	TrendRange         TrendRangeAssessment                  `json:"trend_range"`
	Correlations       []CorrelationSnapshot                 `json:"correlations"`
	PreMarketSentiment Sentiment                             `json:"pre_market_sentiment"`
}

// VolatilityLabelFor returns the label for a window, UNKNOWN when the window
// is missing from the snapshot.
func (s *RegimeSnapshot) VolatilityLabelFor(w VolatilityWindow) VolatilityLabel {
	if r, ok := s.Volatility[w]; ok {
		return r.Label
	}
	return VolatilityUnknown
}

// HasDivergence reports whether any tracked pair diverged this cycle.
func (s *RegimeSnapshot) HasDivergence() bool {
	for _, c := range s.Correlations {
		if c.Divergence {
			return true
		}
	}
	return false
}

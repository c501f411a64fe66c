// Package strategy maps a regime snapshot to a concrete strategy decision.
package strategy

import (
	"fmt"

	"github.com/tradestack/regime/models"
)

// Rule base certainties. The decision confidence combines these with the
// confidence of the contributing assessments.
const (
	certaintyDivergence = 0.80
	certaintyTrending   = 0.85
	certaintyRanging    = 0.75
	certaintyFallback   = 0.60
	certaintyGuard      = 0.05
)

// Table is the enum-keyed strategy mapping resolved once at startup. No
// string-keyed registry: an unknown asset class is a config error, not a
// runtime lookup miss.
type Table struct {
	Trending map[models.AssetClass]models.Strategy
	Defaults map[models.AssetClass]models.Strategy
}

// Selector is a pure, total function over snapshots: every valid snapshot
// yields a decision, never an error, because a raised error here would halt
// trading for the cycle.
type Selector struct {
	table          Table
	directionFloor float64
}

// NewSelector validates the mapping table up front and fails fast on gaps.
func NewSelector(table Table, directionFloor float64) (*Selector, error) {
	for _, class := range models.AssetClasses() {
		if s, ok := table.Trending[class]; !ok || !s.Valid() {
			return nil, &models.ConfigError{Field: "strategy.trending", Reason: fmt.Sprintf("missing strategy for %s", class)}
		}
		if s, ok := table.Defaults[class]; !ok || !s.Valid() {
			return nil, &models.ConfigError{Field: "strategy.defaults", Reason: fmt.Sprintf("missing strategy for %s", class)}
		}
	}
	if directionFloor < 0 || directionFloor > 1 {
		return nil, &models.ConfigError{Field: "strategy.direction_confidence_floor", Reason: "must be in [0, 1]"}
	}
	return &Selector{table: table, directionFloor: directionFloor}, nil
}

// Select applies the rule ladder in order of precedence; the first matching
// rule wins. The ordering is a deliberate, auditable tie-break policy:
//
//  1. any correlation divergence        -> RANGE_REVERSAL (regime uncertainty)
//  2. strongly trending                 -> per-asset-class trending strategy
//  3. ranging                           -> RANGE_REVERSAL, or SCALP under
//     high medium-window volatility
//  4. weak/mixed                        -> volatility-only fallback
//  5. guard                             -> lowest-confidence SCALP
func (s *Selector) Select(snap *models.RegimeSnapshot, class models.AssetClass) models.StrategyDecision {
	trend := snap.TrendRange
	medVol := snap.VolatilityLabelFor(models.WindowMedium)

	var (
		chosen    models.Strategy
		certainty float64
		reasons   []string
	)

	switch {
	case snap.HasDivergence():
		chosen = models.StrategyRangeReversal
		certainty = certaintyDivergence
		reasons = append(reasons, "correlation divergence on tracked pair: regime uncertainty elevated, conservative strategy preferred")
		for _, c := range snap.Correlations {
			if c.Divergence {
				reasons = append(reasons, fmt.Sprintf("pair %s rolling %.2f vs baseline %.2f", c.PairID, c.RollingCorrelation, c.BaselineCorrelation))
			}
		}

	case trend.Classification == models.StronglyTrending:
		chosen = s.table.Trending[class]
		certainty = certaintyTrending
		reasons = append(reasons,
			fmt.Sprintf("strongly trending (ADX %.1f, price action %s, breakout %s)", trend.ADX, trend.PriceActionTrend, trend.BollingerBreakout),
			fmt.Sprintf("trending strategy for %s: %s", class, chosen))

	case trend.Classification == models.Ranging:
		if medVol == models.VolatilityHigh {
			chosen = models.StrategyScalp
			certainty = certaintyRanging
			reasons = append(reasons,
				"ranging market with high medium-window volatility: fast in/out favored",
			)
		} else {
			chosen = models.StrategyRangeReversal
			certainty = certaintyRanging
			reasons = append(reasons,
				fmt.Sprintf("ranging market (ADX %.1f, no breakout), medium volatility %s", trend.ADX, medVol),
			)
		}

	case trend.Classification == models.WeaklyTrending || trend.Classification == models.Mixed:
		chosen, reasons = s.volatilityFallback(class, medVol, trend.Classification, reasons)
		certainty = certaintyFallback

	default:
		// Unreachable with the current enums; kept so the function stays
		// total if a classification is ever added upstream.
		return models.StrategyDecision{
			Strategy:   models.StrategyScalp,
			Direction:  models.DirectionNeutral,
			Confidence: certaintyGuard,
			Reasoning:  []string{"no_regime_match"},
			AssetClass: class,
		}
	}

	direction, dirReasons := s.direction(snap)
	reasons = append(reasons, dirReasons...)

	return models.StrategyDecision{
		Strategy:   chosen,
		Direction:  direction,
		Confidence: s.confidence(certainty, snap),
		Reasoning:  reasons,
		AssetClass: class,
	}
}

// volatilityFallback is rule 4: with the trend signal inconclusive, fall
// back to the volatility regime alone.
func (s *Selector) volatilityFallback(class models.AssetClass, medVol models.VolatilityLabel, trendClass models.TrendClassification, reasons []string) (models.Strategy, []string) {
	reasons = append(reasons, fmt.Sprintf("trend signal inconclusive (%s), falling back to volatility rule", trendClass))

	switch medVol {
	case models.VolatilityHigh:
		if class == models.AssetOptions {
			reasons = append(reasons, "high volatility: scalp for options")
			return models.StrategyScalp, reasons
		}
		reasons = append(reasons, "high volatility: range reversal")
		return models.StrategyRangeReversal, reasons
	case models.VolatilityLow:
		if class == models.AssetFutures {
			reasons = append(reasons, "low volatility: opening range breakout for futures")
			return models.StrategyORB, reasons
		}
		reasons = append(reasons, "low volatility: vwap participation")
		return models.StrategyVWAP, reasons
	default:
		chosen := s.table.Defaults[class]
		reasons = append(reasons, fmt.Sprintf("volatility %s: asset-class default %s", medVol, chosen))
		return chosen, reasons
	}
}

// direction prefers the live price-action trend once the session is under
// way; stale pre-market sentiment only fills in while trend confidence is
// below the floor.
func (s *Selector) direction(snap *models.RegimeSnapshot) (models.Direction, []string) {
	trend := snap.TrendRange

	if trend.Confidence >= s.directionFloor && trend.PriceActionTrend != models.PriceActionFlat {
		if trend.PriceActionTrend == models.PriceActionUp {
			return models.DirectionBullish, []string{"direction from price action: up"}
		}
		return models.DirectionBearish, []string{"direction from price action: down"}
	}

	switch snap.PreMarketSentiment {
	case models.SentimentBullish:
		return models.DirectionBullish, []string{"direction from pre-market sentiment: bullish"}
	case models.SentimentBearish:
		return models.DirectionBearish, []string{"direction from pre-market sentiment: bearish"}
	default:
		return models.DirectionNeutral, []string{"no directional signal, neutral"}
	}
}

// confidence blends the triggering rule's certainty with the confidence of
// the contributing assessments, clamped to [0, 1].
func (s *Selector) confidence(certainty float64, snap *models.RegimeSnapshot) float64 {
	known := 0
	for _, w := range []models.VolatilityWindow{models.WindowShort, models.WindowMedium, models.WindowLong} {
		if snap.VolatilityLabelFor(w) != models.VolatilityUnknown {
			known++
		}
	}
	volFactor := float64(known) / 3

	conf := certainty * (0.5 + 0.35*snap.TrendRange.Confidence + 0.15*volFactor)
	if conf < 0 {
		return 0
	}
	if conf > 1 {
		return 1
	}
	return conf
}

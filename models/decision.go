package models

// Strategy names a trading strategy whose execution logic lives outside
// this engine.
type Strategy string

const (
	StrategyVWAP          Strategy = "VWAP"
	StrategyORB           Strategy = "ORB"
	StrategyScalp         Strategy = "SCALP"
	StrategyRangeReversal Strategy = "RANGE_REVERSAL"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyVWAP, StrategyORB, StrategyScalp, StrategyRangeReversal:
		return true
	}
	return false
}

// Direction is the trade bias attached to a decision.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// AssetClass selects the per-class strategy mapping.
type AssetClass string

const (
	AssetStock   AssetClass = "stock"
	AssetFutures AssetClass = "futures"
	AssetOptions AssetClass = "options"
)

// AssetClasses lists every supported asset class.
func AssetClasses() []AssetClass {
	return []AssetClass{AssetStock, AssetFutures, AssetOptions}
}

// StrategyDecision is the selector output consumed by execution and risk
// collaborators. Reasoning is an ordered audit trail of the signals that
// drove the decision and is never empty.
type StrategyDecision struct {
	Strategy   Strategy   `json:"strategy"`
	Direction  Direction  `json:"direction"`
	Confidence float64    `json:"confidence"`
	Reasoning  []string   `json:"reasoning"`
	AssetClass AssetClass `json:"asset_class"`
}

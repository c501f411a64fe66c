package models

import (
	"context"
	"time"
)

// BarSource supplies OHLCV bars for an instrument. Implementations own their
// retry and rate-limit policy; callers only see the final error.
type BarSource interface {
	GetBars(ctx context.Context, instrument string, interval Interval, from, to time.Time) ([]Bar, error)
}

// SnapshotStore persists regime snapshots for later audit. Persistence is
// fire-and-forget with a log: a storage failure never blocks the decision
// path.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *RegimeSnapshot) error
}

// DecisionSink receives the decision once it has been computed. Delivery
// failures are logged, not propagated.
type DecisionSink interface {
	NotifyDecision(ctx context.Context, snap *RegimeSnapshot, decision StrategyDecision) error
}

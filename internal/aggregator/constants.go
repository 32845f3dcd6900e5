package aggregator

import "time"

// Defaults for the short-turn aggregator.
const (
	DefaultMinTurnDurationMs          = 1200
	DefaultAggregationMaxDelayMs      = 800
	DefaultAggregationMaxGapMs        = 400
	DefaultAggregationMaxWords        = 50
	DefaultAggregationMaxTotalDurationMs = 12_000
)

// DefaultDelay is DefaultAggregationMaxDelayMs as a time.Duration,
// convenient for wiring into time.AfterFunc.
const DefaultDelay = time.Duration(DefaultAggregationMaxDelayMs) * time.Millisecond

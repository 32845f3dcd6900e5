// Package aggregator merges consecutive short turns into one synthetic
// turn substantial enough to justify an LLM call.
package aggregator

import (
	"strconv"
	"sync"
	"time"

	"github.com/liveremark/core/internal/domain"
)

// Config controls admission, flush triggers and debounce timing.
type Config struct {
	MinTurnDurationMs             float64
	AggregationMaxDelayMs         float64
	AggregationMaxGapMs           float64
	AggregationMaxWords           int // 0 disables the word-cap trigger
	AggregationMaxTotalDurationMs float64 // 0 disables the duration-cap trigger
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinTurnDurationMs:             DefaultMinTurnDurationMs,
		AggregationMaxDelayMs:         DefaultAggregationMaxDelayMs,
		AggregationMaxGapMs:           DefaultAggregationMaxGapMs,
		AggregationMaxWords:           DefaultAggregationMaxWords,
		AggregationMaxTotalDurationMs: DefaultAggregationMaxTotalDurationMs,
	}
}

// Aggregator holds the transient state of one in-progress aggregation
// window. It is safe for concurrent use: mu guards its state against
// both callers and the debounce timer's goroutine.
type Aggregator struct {
	cfg Config

	mu               sync.Mutex
	active           bool
	bufferedContent  string
	bufferedStart    float64
	lastTurnEnd      float64
	wordCount        int
	triggerID        string
	timer            *time.Timer
	onTimeout        func(domain.Turn)
}

// New creates an Aggregator. onTimeout is invoked (on its own goroutine,
// per time.AfterFunc semantics) when the debounce delay elapses without
// an intervening flush; the caller is expected to hand the emitted turn
// to the detection queue the same way a synchronous Add flush would.
func New(cfg Config, onTimeout func(domain.Turn)) *Aggregator {
	return &Aggregator{cfg: cfg, onTimeout: onTimeout}
}

// Add admits turn into the aggregation window, discarding any active
// buffer whose gap to turn is too large, and returns the aggregated
// turn immediately if a flush trigger fires. Returns the zero Turn and
// false if nothing is ready yet (the debounce timer has been
// (re)armed).
func (a *Aggregator) Add(turn domain.Turn) (domain.Turn, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopTimerLocked()

	if a.active {
		gapMs := (turn.StartTime - a.lastTurnEnd) * 1000
		if gapMs > a.cfg.AggregationMaxGapMs {
			a.resetLocked()
		}
	}

	if !a.active {
		a.active = true
		a.bufferedStart = turn.StartTime
		a.bufferedContent = turn.Content
		a.triggerID = turn.ID
	} else {
		a.bufferedContent = a.bufferedContent + " " + turn.Content
		a.triggerID = turn.ID
	}
	a.lastTurnEnd = turn.EndTime
	a.wordCount = countWords(a.bufferedContent)

	if ready, out := a.checkFlushLocked(); ready {
		a.resetLocked()
		return out, true
	}

	a.armTimerLocked()
	return domain.Turn{}, false
}

// checkFlushLocked evaluates the three flush triggers in order:
// elapsed duration, word cap, total duration cap. Caller holds the
// lock.
func (a *Aggregator) checkFlushLocked() (bool, domain.Turn) {
	elapsedMs := (a.lastTurnEnd - a.bufferedStart) * 1000

	if elapsedMs >= a.cfg.MinTurnDurationMs {
		return true, a.snapshotLocked(a.triggerID)
	}
	if a.cfg.AggregationMaxWords > 0 && a.wordCount >= a.cfg.AggregationMaxWords {
		return true, a.snapshotLocked(a.triggerID)
	}
	if a.cfg.AggregationMaxTotalDurationMs > 0 && elapsedMs >= a.cfg.AggregationMaxTotalDurationMs {
		return true, a.snapshotLocked(a.triggerID)
	}
	return false, domain.Turn{}
}

func (a *Aggregator) snapshotLocked(id string) domain.Turn {
	return domain.Turn{
		ID:        id,
		Content:   a.bufferedContent,
		StartTime: a.bufferedStart,
		EndTime:   a.lastTurnEnd,
	}
}

// armTimerLocked (re)schedules the debounce timeout. Caller holds the lock.
func (a *Aggregator) armTimerLocked() {
	delay := time.Duration(a.cfg.AggregationMaxDelayMs) * time.Millisecond
	a.timer = time.AfterFunc(delay, a.fireTimeout)
}

func (a *Aggregator) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// fireTimeout runs on the timer's own goroutine when the debounce
// elapses without a flush. It hands the buffered turn to onTimeout
// using the buffered start time, stringified, as the id.
func (a *Aggregator) fireTimeout() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	out := a.snapshotLocked(strconv.FormatFloat(a.bufferedStart, 'f', -1, 64))
	a.resetLocked()
	a.mu.Unlock()

	if a.onTimeout != nil {
		a.onTimeout(out)
	}
}

// resetLocked clears the aggregation window. Caller holds the lock.
func (a *Aggregator) resetLocked() {
	a.active = false
	a.bufferedContent = ""
	a.bufferedStart = 0
	a.lastTurnEnd = 0
	a.wordCount = 0
	a.triggerID = ""
}

// Clear discards any in-progress aggregation and cancels its timer.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.resetLocked()
}

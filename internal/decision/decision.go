// Package decision implements the Decision Engine: the stateful
// scoring core that turns a triggering turn's detected events into a
// should-comment decision, and self-adjusts its threshold based on
// recent commenting rate.
package decision

import (
	"fmt"
	"math"
	"sync"

	"github.com/liveremark/core/internal/domain"
)

// Weights are the five multipliers applied to the factor scores when
// computing the weighted base score.
type Weights struct {
	Emotion    float64
	Topic      float64
	Timing     float64
	Importance float64
	Keyword    float64
}

// Config tunes the engine. FrequencySuppressionWeight is carried for
// config-schema completeness but is not wired into scoring: the
// modifier is a fixed step function of recent-comment count, not a
// weighted factor (see DESIGN.md).
type Config struct {
	BaseThreshold              float64
	MinInterval                float64 // seconds
	MaxInterval                float64 // seconds
	Weights                    Weights
	FrequencySuppressionWeight float64
	TimeDecayRate              float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BaseThreshold: DefaultBaseThreshold,
		MinInterval:   DefaultMinInterval,
		MaxInterval:   DefaultMaxInterval,
		Weights: Weights{
			Emotion:    DefaultEmotionWeight,
			Topic:      DefaultTopicWeight,
			Timing:     DefaultTimingWeight,
			Importance: DefaultImportanceWeight,
			Keyword:    DefaultKeywordWeight,
		},
		FrequencySuppressionWeight: 0.80,
		TimeDecayRate:              DefaultTimeDecayRate,
	}
}

// Engine holds the per-stream persistent state: last comment time,
// recent comment history, and a self-adjusting threshold.
type Engine struct {
	mu sync.Mutex

	cfg Config

	lastCommentTime  float64
	commentHistory   []domain.Comment
	dynamicThreshold float64
}

// New creates an Engine with dynamicThreshold initialised to
// min(baseThreshold*1.3, 0.85).
func New(cfg Config) *Engine {
	return &Engine{
		cfg:              cfg,
		lastCommentTime:  negInf,
		dynamicThreshold: math.Min(cfg.BaseThreshold*1.3, 0.85),
	}
}

// DynamicThreshold returns the engine's current self-adjusted
// threshold.
func (e *Engine) DynamicThreshold() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dynamicThreshold
}

// LastCommentTime returns the media-seconds timestamp of the most
// recent comment, or negative infinity if none has been recorded yet.
func (e *Engine) LastCommentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCommentTime
}

// Evaluate scores the given events against the triggering turn's end
// time (media seconds), returning a Decision and advancing the
// dynamic threshold. Pure computation; never errors.
func (e *Engine) Evaluate(events []domain.Event, timestamp float64) domain.Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	factors := computeFactors(events, timestamp, e.lastCommentTime, e.cfg.MinInterval, e.cfg.MaxInterval)
	delta := e.deltaLocked(timestamp)

	qualityBonus := 0.0
	for _, ev := range events {
		q := ev.Metadata.ContentQualityScore
		qualityBonus += math.Max(0, (q-3)/10*0.3)
	}
	if qualityBonus > qualityBonusCap {
		qualityBonus = qualityBonusCap
	}

	base := factors.Emotion*e.cfg.Weights.Emotion +
		factors.Topic*e.cfg.Weights.Topic +
		factors.Timing*e.cfg.Weights.Timing +
		factors.Importance*e.cfg.Weights.Importance +
		factors.Keyword*e.cfg.Weights.Keyword

	timeDecay := math.Pow(e.cfg.TimeDecayRate, math.Max(0, decayWindowSeconds-delta)/decayWindowSeconds)
	freqSuppression := e.frequencySuppressionLocked(timestamp)

	final := (base + qualityBonus) * timeDecay * freqSuppression

	priority := priorityFor(events, final)
	shouldComment := final > e.dynamicThreshold
	confidence := math.Min(final/e.dynamicThreshold, 1)

	delayMs := suggestedDelayMs(priority, delta, e.cfg.MinInterval)

	e.updateThresholdLocked(shouldComment, delta)

	return domain.Decision{
		ShouldComment:    shouldComment,
		Score:            final,
		Confidence:       confidence,
		Factors:          factors,
		Priority:         priority,
		SuggestedDelayMs: delayMs,
		Reasoning:        reasoningFor(shouldComment, final, e.dynamicThreshold, factors),
	}
}

// UpdateHistory records a generated comment: appends it, sets
// lastCommentTime from its metadata timestamp, and trims history to
// the 10 newest. The timestamp is mandatory; a comment with a zero
// timestamp is rejected rather than silently contaminating
// lastCommentTime with a wall-clock fallback.
func (e *Engine) UpdateHistory(comment domain.Comment) error {
	if comment.Metadata.Timestamp == 0 {
		return domain.ErrMissingTimestamp
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.commentHistory = append(e.commentHistory, comment)
	if len(e.commentHistory) > maxHistorySize {
		e.commentHistory = e.commentHistory[len(e.commentHistory)-maxHistorySize:]
	}
	e.lastCommentTime = comment.Metadata.Timestamp
	return nil
}

func (e *Engine) deltaLocked(timestamp float64) float64 {
	if math.IsInf(e.lastCommentTime, -1) {
		return 0
	}
	return math.Max(0, timestamp-e.lastCommentTime)
}

// frequencySuppressionLocked counts history entries whose timestamp
// falls in [timestamp-90, timestamp) media-seconds.
func (e *Engine) frequencySuppressionLocked(timestamp float64) float64 {
	count := 0
	windowStart := timestamp - frequencyWindowSeconds
	for _, c := range e.commentHistory {
		ts := c.Metadata.Timestamp
		if ts >= windowStart && ts < timestamp {
			count++
		}
	}
	switch {
	case count >= 3:
		return 0.2
	case count == 2:
		return 0.4
	case count == 1:
		return 0.6
	default:
		return 1.0
	}
}

func (e *Engine) updateThresholdLocked(shouldComment bool, delta float64) {
	switch {
	case shouldComment && delta < 1.5*e.cfg.MinInterval:
		e.dynamicThreshold = math.Min(maxDynamicThreshold, e.dynamicThreshold*1.05)
	case !shouldComment && delta > e.cfg.MaxInterval:
		e.dynamicThreshold = math.Max(minDynamicThreshold, e.dynamicThreshold*0.95)
	default:
		e.dynamicThreshold += 0.1 * (e.cfg.BaseThreshold - e.dynamicThreshold)
	}
	if e.dynamicThreshold < minDynamicThreshold {
		e.dynamicThreshold = minDynamicThreshold
	}
	if e.dynamicThreshold > maxDynamicThreshold {
		e.dynamicThreshold = maxDynamicThreshold
	}
}

func computeFactors(events []domain.Event, timestamp, lastCommentTime, minInterval, maxInterval float64) domain.Factors {
	return domain.Factors{
		Emotion:    maxConfidence(events, domain.EventEmotionPeak),
		Topic:      maxConfidence(events, domain.EventTopicChange),
		Importance: maxConfidenceAny(events, domain.EventConclusionReached, domain.EventKeyPoint, domain.EventSummaryPoint),
		Keyword:    maxConfidence(events, domain.EventQuestionRaised),
		Timing:     timingFactor(timestamp, lastCommentTime, minInterval, maxInterval),
	}
}

func maxConfidence(events []domain.Event, t domain.EventType) float64 {
	return maxConfidenceAny(events, t)
}

func maxConfidenceAny(events []domain.Event, types ...domain.EventType) float64 {
	max := 0.0
	for _, ev := range events {
		for _, t := range types {
			if ev.Type == t && ev.Confidence > max {
				max = ev.Confidence
			}
		}
	}
	return max
}

func timingFactor(timestamp, lastCommentTime, minInterval, maxInterval float64) float64 {
	if timestamp < coldStartCutoffS {
		return coldStartTiming
	}

	delta := 0.0
	if !math.IsInf(lastCommentTime, -1) {
		delta = math.Max(0, timestamp-lastCommentTime)
	}

	switch {
	case delta < minInterval:
		return math.Max(0.05, (delta/minInterval)*0.2)
	case delta > maxInterval:
		return 1
	default:
		return (delta - minInterval) / (maxInterval - minInterval)
	}
}

func priorityFor(events []domain.Event, final float64) domain.Priority {
	hasHighSignal := false
	for _, ev := range events {
		if ev.Type == domain.EventConclusionReached || ev.Type == domain.EventClimaxMoment {
			hasHighSignal = true
			break
		}
	}
	switch {
	case hasHighSignal && final > 0.95:
		return domain.PriorityHigh
	case final > 0.85:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func suggestedDelayMs(priority domain.Priority, delta, minInterval float64) float64 {
	base := map[domain.Priority]float64{
		domain.PriorityHigh:   1500,
		domain.PriorityMedium: 2500,
		domain.PriorityLow:    4000,
	}[priority]
	if delta < minInterval {
		base += (minInterval - delta) * 1000
	}
	return base
}

func reasoningFor(shouldComment bool, final, threshold float64, factors domain.Factors) string {
	if shouldComment {
		return fmt.Sprintf("score %.3f exceeds threshold %.3f", final, threshold)
	}
	return fmt.Sprintf("score %.3f below threshold %.3f", final, threshold)
}

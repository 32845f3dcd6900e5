// Package detector implements the Event Detector adapter: it
// delegates to an external LLM backend, validates the strict JSON
// contract the backend must honor, and filters/enriches the events it
// returns before they reach the decision engine.
package detector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liveremark/core/internal/domain"
	"github.com/liveremark/core/internal/resilience"
	"github.com/liveremark/core/internal/trace"
)

// Config tunes per-event filtering thresholds.
type Config struct {
	DetectionSensitivity      float64
	EmotionThreshold          float64
	TopicTransitionThreshold  float64
	KeypointDensityThreshold  float64
	Model                     string
}

// DefaultConfig returns the documented threshold defaults.
func DefaultConfig() Config {
	return Config{
		DetectionSensitivity:     DefaultDetectionSensitivity,
		EmotionThreshold:         DefaultEmotionThreshold,
		TopicTransitionThreshold: DefaultTopicTransitionThreshold,
		KeypointDensityThreshold: DefaultKeypointDensityThreshold,
	}
}

// Detector wraps a Backend with resilience (circuit breaker + retry)
// and the filtering/enrichment pipeline specified for the adapter.
type Detector struct {
	cfg     Config
	backend Backend
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New builds a Detector around the given backend.
func New(cfg Config, backend Backend) *Detector {
	return &Detector{
		cfg:     cfg,
		backend: backend,
		breaker: resilience.New("detection", resilience.DetectionBreakerConfig()),
		retry:   resilience.LLMRetryConfig(),
	}
}

// Detect runs one detection cycle for the triggering turn against the
// given uncommented and full context, returning filtered, enriched
// events. Network/parse failures are returned verbatim for the caller
// to route onto the queue's error channel; there is no in-adapter
// retry beyond the resilience wrapper's own transient-fault handling,
// which is transport-level, not semantic.
func (d *Detector) Detect(ctx context.Context, turn domain.Turn, uncommentedText, fullContext string) ([]domain.Event, error) {
	ctx, span := trace.StartSpan(ctx, trace.SpanDetect)
	span.SetAttr(trace.AttrTurnID, turn.ID)
	defer span.End()

	prompt := Prompt{
		ImmediateContext: uncommentedText,
		BroadContext:      truncateTail(fullContext, broadContextMaxChars),
		Content:           turn.Content,
	}

	var raw []byte
	err := d.breaker.Execute(func() error {
		return resilience.Retry(ctx, d.retry, func() error {
			r, callErr := d.backend.Detect(ctx, prompt, d.cfg.Model)
			if callErr != nil {
				return callErr
			}
			raw = r
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("detection call failed: %w", err)
	}

	if err := validateResponse(raw); err != nil {
		return nil, err
	}

	var parsed rawResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode detection response: %w", err)
	}

	events := make([]domain.Event, 0, len(parsed.Events))
	for _, re := range parsed.Events {
		et := domain.EventType(re.Type)
		if !et.Valid() {
			continue
		}
		if !d.passesFilter(et, re) {
			continue
		}
		events = append(events, domain.Event{
			ID:         domain.NewEventID(),
			Type:       et,
			Confidence: re.Confidence,
			Intensity:  re.Intensity,
			Timestamp:  turn.EndTime,
			Duration:   0,
			Triggers:   re.Triggers,
			Metadata: domain.EventMetadata{
				Reasoning:           re.Reasoning,
				Language:            parsed.ContextLanguage,
				ContentQualityScore: re.ContentQualityScore,
			},
		})
	}
	return events, nil
}

// passesFilter applies the four filtering rules; all applicable
// rules must pass.
func (d *Detector) passesFilter(et domain.EventType, re rawEvent) bool {
	if re.Confidence < d.cfg.DetectionSensitivity {
		return false
	}
	switch et {
	case domain.EventEmotionPeak, domain.EventTopicChange:
		if re.Intensity < d.cfg.EmotionThreshold {
			return false
		}
	}
	switch et {
	case domain.EventTopicChange, domain.EventQuestionRaised,
		domain.EventConclusionReached, domain.EventSummaryPoint:
		if re.Intensity < d.cfg.TopicTransitionThreshold {
			return false
		}
	}
	if et == domain.EventKeyPoint {
		if re.Intensity < d.cfg.KeypointDensityThreshold {
			return false
		}
	}
	return true
}

// truncateTail returns the last maxChars runes of s, the newest
// portion of the full context.
func truncateTail(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[len(r)-maxChars:])
}

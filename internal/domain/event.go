package domain

import "github.com/google/uuid"

// EventType is the closed set of conversational events the detector can
// report. Represented as a string enum so it round-trips cleanly through
// the LLM's JSON response and through logs.
type EventType string

const (
	EventEmotionPeak       EventType = "emotion_peak"
	EventTopicChange       EventType = "topic_change"
	EventQuestionRaised    EventType = "question_raised"
	EventConclusionReached EventType = "conclusion_reached"
	EventKeyPoint          EventType = "key_point"
	EventClimaxMoment      EventType = "climax_moment"
	EventSummaryPoint      EventType = "summary_point"
)

// Valid reports whether t is one of the seven known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventEmotionPeak, EventTopicChange, EventQuestionRaised,
		EventConclusionReached, EventKeyPoint, EventClimaxMoment, EventSummaryPoint:
		return true
	default:
		return false
	}
}

// EventMetadata carries the detector's free-form rationale alongside the
// language it detected the turn to be in and a content-quality score.
type EventMetadata struct {
	Reasoning           string
	Language            string
	ContentQualityScore float64 // 0..10
}

// Event is a typed observation about the conversation, produced by the
// detector with a confidence and an intensity.
type Event struct {
	ID         string
	Type       EventType
	Confidence float64 // 0..1
	Intensity  float64 // 0..1
	Timestamp  float64 // seconds, media-relative; set to the triggering turn's EndTime
	Duration   float64 // seconds
	Triggers   []string
	Metadata   EventMetadata
}

// NewEventID generates a fresh event identifier.
func NewEventID() string {
	return uuid.New().String()
}

package domain

import "github.com/google/uuid"

// DetectionJob bundles a triggering turn with buffer snapshots taken at
// enqueue time, plus the wall-clock timestamp used for staleness
// eviction by the detection queue.
type DetectionJob struct {
	ID              string
	Turn            Turn
	UncommentedText string
	FullContext     string
	EnqueuedAtMs    int64 // wall-clock, milliseconds since epoch
}

// NewJobID generates a fresh detection job identifier.
func NewJobID() string {
	return uuid.New().String()
}

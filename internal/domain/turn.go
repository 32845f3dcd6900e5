// Package domain holds the shared vocabulary of the commentary pipeline:
// turns, events, decisions, comments and the jobs that move between
// components. Every other package imports this one; it imports nothing
// from the rest of the module.
package domain

import "github.com/google/uuid"

// Turn is an immutable transcription fragment with media-relative
// timestamps. EndTime is always >= StartTime.
type Turn struct {
	ID        string
	Content   string
	StartTime float64 // seconds, media-relative
	EndTime   float64 // seconds, media-relative
}

// DurationMs returns the turn's span in milliseconds.
func (t Turn) DurationMs() float64 {
	return (t.EndTime - t.StartTime) * 1000
}

// NewTurnID generates a random turn identifier for callers that don't
// supply their own (e.g. the WebSocket transport).
func NewTurnID() string {
	return uuid.NewString()
}

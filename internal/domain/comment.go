package domain

import "github.com/google/uuid"

// CommentMetadata carries the media-time anchor a comment is attached
// to. Timestamp is mandatory: the decision engine's lastCommentTime is
// defined in media-seconds and must never be contaminated by wall-clock
// time.
type CommentMetadata struct {
	Timestamp float64 // seconds, media-relative; required
}

// Comment is the final natural-language output for one triggering turn.
type Comment struct {
	ID             string
	Content        string
	Writer         string
	Length         int
	GenerationTime float64 // ms
	Metadata       CommentMetadata
}

// NewCommentID generates a fresh comment identifier.
func NewCommentID() string {
	return uuid.New().String()
}

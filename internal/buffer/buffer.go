// Package buffer implements the time-indexed, append-only text store
// used for both the long-retention context buffer and the
// cleared-on-emit uncommented buffer.
package buffer

import (
	"regexp"
	"strings"
	"sync"

	"github.com/liveremark/core/internal/domain"
)

// Config controls one buffer instance (shared schema between the
// context and uncommented buffers).
type Config struct {
	// BufferSizeWords is an advisory word budget. The buffer never
	// evicts on its own; exceeding this only shows up in Statistics as
	// OverBudget.
	BufferSizeWords int
	// WindowSeconds is the default size passed to GetWindow when the
	// caller doesn't specify one.
	WindowSeconds float64
	// SegmentMaxWords truncates a segment's content to this many words
	// at append time. Zero disables truncation.
	SegmentMaxWords int
	// RetentionSeconds is documented for callers that want to bound
	// memory growth externally (e.g. periodic Clear); the buffer itself
	// does not evict. No eviction runs automatically.
	RetentionSeconds float64
}

// DefaultConfig returns the documented defaults for a context buffer.
func DefaultConfig() Config {
	return Config{
		BufferSizeWords:  DefaultBufferSizeWords,
		WindowSeconds:    DefaultWindowSeconds,
		SegmentMaxWords:  DefaultSegmentMaxWords,
		RetentionSeconds: DefaultRetentionSeconds,
	}
}

// segment is one appended slice of text, keyed by media-time.
type segment struct {
	content   string
	timestamp float64
	position  int
}

// Statistics is the snapshot returned by Buffer.Statistics.
type Statistics struct {
	Count           int
	TotalChars      int
	OldestTimestamp float64
	NewestTimestamp float64
	OverBudget      bool
}

// Buffer is an ordered, append-only sequence of text segments. Its
// operations are synchronous and non-blocking. The facade appends from
// the caller's goroutine, reads from the detection worker and clears
// from the scheduler's goroutine, so every method takes the mutex.
type Buffer struct {
	mu       sync.Mutex
	cfg      Config
	segments []segment
	nextPos  int
}

// New creates a Buffer with the given configuration.
func New(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// Append pushes turn.Content as a new segment, timestamped at
// turn.EndTime, truncated to cfg.SegmentMaxWords if configured.
func (b *Buffer) Append(turn domain.Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	content := turn.Content
	if b.cfg.SegmentMaxWords > 0 {
		content = truncateWords(content, b.cfg.SegmentMaxWords)
	}

	b.segments = append(b.segments, segment{
		content:   content,
		timestamp: turn.EndTime,
		position:  b.nextPos,
	})
	b.nextPos++
}

// GetWindow returns the space-joined content of every segment whose
// timestamp is within sizeSeconds of the newest segment's timestamp. A
// zero or negative sizeSeconds uses the configured default. Per spec
// §9's recommended fix, the cutoff is computed directly in seconds
// (the reference implementation's x1000 unit bug is not reproduced).
func (b *Buffer) GetWindow(sizeSeconds float64) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.segments) == 0 {
		return ""
	}
	if sizeSeconds <= 0 {
		sizeSeconds = b.cfg.WindowSeconds
	}

	newest := b.segments[len(b.segments)-1].timestamp
	cutoff := newest - sizeSeconds

	var parts []string
	for _, s := range b.segments {
		if s.timestamp >= cutoff {
			parts = append(parts, s.content)
		}
	}
	return strings.Join(parts, " ")
}

// GetRange returns the space-joined content of segments whose
// timestamp lies in [start, end].
func (b *Buffer) GetRange(start, end float64) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var parts []string
	for _, s := range b.segments {
		if s.timestamp >= start && s.timestamp <= end {
			parts = append(parts, s.content)
		}
	}
	return strings.Join(parts, " ")
}

// GetLastN returns the space-joined content of the n most recently
// appended segments, oldest first.
func (b *Buffer) GetLastN(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || len(b.segments) == 0 {
		return ""
	}
	start := len(b.segments) - n
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(b.segments)-start)
	for _, s := range b.segments[start:] {
		parts = append(parts, s.content)
	}
	return strings.Join(parts, " ")
}

// Search returns the content of segments matching the regular
// expression pattern, most-recent-first, up to limit matches. A
// limit <= 0 uses DefaultSearchLimit.
func (b *Buffer) Search(pattern string, limit int) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var matches []string
	for i := len(b.segments) - 1; i >= 0 && len(matches) < limit; i-- {
		if re.MatchString(b.segments[i].content) {
			matches = append(matches, b.segments[i].content)
		}
	}
	return matches, nil
}

// Clear drops all segments and resets the position counter. It is the
// only operation that removes data.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = nil
	b.nextPos = 0
}

// Statistics reports aggregate counters over the current segments.
func (b *Buffer) Statistics() Statistics {
	b.mu.Lock()
	defer b.mu.Unlock()

	var stats Statistics
	stats.Count = len(b.segments)
	totalWords := 0
	for i, s := range b.segments {
		stats.TotalChars += len(s.content)
		totalWords += len(strings.Fields(s.content))
		if i == 0 {
			stats.OldestTimestamp = s.timestamp
		}
		stats.NewestTimestamp = s.timestamp
	}
	if b.cfg.BufferSizeWords > 0 && totalWords > b.cfg.BufferSizeWords {
		stats.OverBudget = true
	}
	return stats
}

func truncateWords(s string, maxWords int) string {
	fields := strings.Fields(s)
	if len(fields) <= maxWords {
		return s
	}
	return strings.Join(fields[:maxWords], " ")
}

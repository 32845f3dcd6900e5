package buffer

import (
	"testing"

	"github.com/liveremark/core/internal/domain"
	"github.com/stretchr/testify/require"
)

func turnAt(start, end float64, content string) domain.Turn {
	return domain.Turn{ID: "t", Content: content, StartTime: start, EndTime: end}
}

func TestAppendAndGetWindow(t *testing.T) {
	b := New(DefaultConfig())
	b.Append(turnAt(0, 10, "alpha"))
	b.Append(turnAt(10, 20, "beta"))
	b.Append(turnAt(20, 30, "gamma"))

	require.Equal(t, "alpha beta gamma", b.GetWindow(0))
	require.Equal(t, "beta gamma", b.GetWindow(15))
	require.Equal(t, "gamma", b.GetWindow(5))
}

func TestGetWindowFixesUnitBug(t *testing.T) {
	// The reference implementation multiplies sizeSeconds by 1000 before
	// subtracting, which under-cuts to the point of returning everything.
	// Spec §9 recommends fixing this; verify the fix actually narrows.
	b := New(DefaultConfig())
	for i := 0; i < 100; i++ {
		b.Append(turnAt(float64(i), float64(i)+1, "w"))
	}
	full := len(b.GetWindow(0))
	narrow := len(b.GetWindow(5))
	require.Less(t, narrow, full)
}

func TestGetRange(t *testing.T) {
	b := New(DefaultConfig())
	b.Append(turnAt(0, 5, "a"))
	b.Append(turnAt(5, 10, "b"))
	b.Append(turnAt(10, 15, "c"))

	// Segments are timestamped at each turn's EndTime: 5, 10 and 15.
	require.Equal(t, "a", b.GetRange(0, 9))
	require.Equal(t, "a b c", b.GetRange(5, 15))
}

func TestGetLastN(t *testing.T) {
	b := New(DefaultConfig())
	b.Append(turnAt(0, 1, "a"))
	b.Append(turnAt(1, 2, "b"))
	b.Append(turnAt(2, 3, "c"))

	require.Equal(t, "b c", b.GetLastN(2))
	require.Equal(t, "a b c", b.GetLastN(10))
	require.Equal(t, "", b.GetLastN(0))
}

func TestSearchMostRecentFirst(t *testing.T) {
	b := New(DefaultConfig())
	b.Append(turnAt(0, 1, "the cat sat"))
	b.Append(turnAt(1, 2, "a dog ran"))
	b.Append(turnAt(2, 3, "the cat slept"))

	matches, err := b.Search("cat", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"the cat slept", "the cat sat"}, matches)
}

func TestSearchLimit(t *testing.T) {
	b := New(DefaultConfig())
	for i := 0; i < 20; i++ {
		b.Append(turnAt(float64(i), float64(i)+1, "match"))
	}
	matches, err := b.Search("match", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
}

func TestClearResetsPositionAndStatistics(t *testing.T) {
	b := New(DefaultConfig())
	b.Append(turnAt(0, 1, "a"))
	b.Append(turnAt(1, 2, "b"))
	require.Equal(t, 2, b.Statistics().Count)

	b.Clear()
	stats := b.Statistics()
	require.Equal(t, 0, stats.Count)
	require.Equal(t, "", b.GetWindow(0))
}

func TestSegmentMaxWordsTruncates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SegmentMaxWords = 2
	b := New(cfg)
	b.Append(turnAt(0, 1, "one two three four"))
	require.Equal(t, "one two", b.GetWindow(0))
}

func TestStatisticsOverBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSizeWords = 3
	b := New(cfg)
	b.Append(turnAt(0, 1, "one two three four five"))
	require.True(t, b.Statistics().OverBudget)
}

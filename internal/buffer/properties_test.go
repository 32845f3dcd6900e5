package buffer

import (
	"strings"
	"testing"

	"github.com/liveremark/core/internal/domain"
	"pgregory.net/rapid"
)

// TestSegmentOrderMatchesArrival checks that segment order in a buffer
// matches arrival order, for any sequence of turns.
func TestSegmentOrderMatchesArrival(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := New(DefaultConfig())

		n := rapid.IntRange(0, 30).Draw(t, "n")
		var words []string
		ts := 0.0
		for i := 0; i < n; i++ {
			w := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "word")
			words = append(words, w)
			b.Append(domain.Turn{ID: "t", Content: w, StartTime: ts, EndTime: ts + 1})
			ts++
		}

		got := b.GetLastN(n)
		want := strings.Join(words, " ")
		if got != want {
			t.Fatalf("order mismatch: got %q want %q", got, want)
		}
	})
}

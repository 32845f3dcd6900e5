package decision

import (
	"testing"

	"github.com/liveremark/core/internal/domain"
	"pgregory.net/rapid"
)

// TestDynamicThresholdBounded checks that dynamicThreshold always
// stays in [0.30, 0.95], across arbitrary sequences of evaluations
// with arbitrary event confidences and timestamps.
func TestDynamicThresholdBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(DefaultConfig())
		n := rapid.IntRange(0, 40).Draw(t, "n")
		ts := 0.0
		for i := 0; i < n; i++ {
			ts += rapid.Float64Range(0, 200).Draw(t, "gap")
			conf := rapid.Float64Range(0, 1).Draw(t, "confidence")
			e.Evaluate([]domain.Event{{Type: domain.EventKeyPoint, Confidence: conf}}, ts)

			th := e.DynamicThreshold()
			if th < minDynamicThreshold || th > maxDynamicThreshold {
				t.Fatalf("dynamicThreshold %f left bounds [%f,%f]", th, minDynamicThreshold, maxDynamicThreshold)
			}
		}
	})
}

// TestLastCommentTimeNonDecreasing checks that for any turn sequence
// processed in arrival order (non-decreasing media time),
// lastCommentTime never moves backward across emissions.
func TestLastCommentTimeNonDecreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(DefaultConfig())
		n := rapid.IntRange(0, 30).Draw(t, "n")
		// Start above zero: UpdateHistory rejects a zero timestamp as
		// missing.
		ts := 1.0
		prev := negInf
		for i := 0; i < n; i++ {
			ts += rapid.Float64Range(0, 50).Draw(t, "gap")
			if !rapid.Bool().Draw(t, "emits") {
				continue
			}
			if err := e.UpdateHistory(domain.Comment{Metadata: domain.CommentMetadata{Timestamp: ts}}); err != nil {
				t.Fatal(err)
			}
			current := e.LastCommentTime()
			if current < prev {
				t.Fatalf("lastCommentTime decreased: %f -> %f", prev, current)
			}
			prev = current
		}
	})
}

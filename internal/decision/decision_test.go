package decision

import (
	"math"
	"testing"

	"github.com/liveremark/core/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestColdStartSuppression(t *testing.T) {
	e := New(DefaultConfig())

	events := []domain.Event{
		{
			Type:       domain.EventKeyPoint,
			Confidence: 0.95,
			Intensity:  0.9,
			Metadata:   domain.EventMetadata{ContentQualityScore: 8},
		},
	}

	d := e.Evaluate(events, 3)

	require.False(t, d.ShouldComment)
	require.InDelta(t, 0.1, d.Factors.Timing, 1e-9)
}

func TestFrequencySuppression(t *testing.T) {
	e := New(DefaultConfig())

	require.NoError(t, e.UpdateHistory(domain.Comment{Metadata: domain.CommentMetadata{Timestamp: 100}}))
	require.NoError(t, e.UpdateHistory(domain.Comment{Metadata: domain.CommentMetadata{Timestamp: 120}}))
	require.NoError(t, e.UpdateHistory(domain.Comment{Metadata: domain.CommentMetadata{Timestamp: 140}}))

	events := []domain.Event{
		{Type: domain.EventKeyPoint, Confidence: 1.0},
	}
	d := e.Evaluate(events, 150)

	require.False(t, d.ShouldComment)
}

func TestUpdateHistoryRequiresTimestamp(t *testing.T) {
	e := New(DefaultConfig())
	err := e.UpdateHistory(domain.Comment{})
	require.ErrorIs(t, err, domain.ErrMissingTimestamp)
}

func TestUpdateHistoryTrimsToTen(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 15; i++ {
		require.NoError(t, e.UpdateHistory(domain.Comment{
			Metadata: domain.CommentMetadata{Timestamp: float64(i + 1)},
		}))
	}
	require.Len(t, e.commentHistory, 10)
	require.Equal(t, float64(15), e.lastCommentTime)
}

func TestDynamicThresholdInitialization(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseThreshold = 0.65
	e := New(cfg)
	require.InDelta(t, 0.845, e.DynamicThreshold(), 1e-9)
}

func TestDynamicThresholdStaysBounded(t *testing.T) {
	e := New(DefaultConfig())
	for i := 0; i < 200; i++ {
		e.Evaluate([]domain.Event{{Type: domain.EventKeyPoint, Confidence: 1.0}}, float64(i)*5)
		th := e.DynamicThreshold()
		require.True(t, th >= 0.30 && th <= 0.95, "threshold %f out of bounds", th)
	}
}

func TestNoEventsDoesNotComment(t *testing.T) {
	e := New(DefaultConfig())
	d := e.Evaluate(nil, 100)
	require.False(t, d.ShouldComment)
	require.True(t, math.Abs(d.Score) < 1)
}

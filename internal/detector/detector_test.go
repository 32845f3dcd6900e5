package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/liveremark/core/internal/domain"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	response []byte
	err      error
}

func (s *stubBackend) Detect(ctx context.Context, prompt Prompt, model string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func TestDetectFiltersLowConfidence(t *testing.T) {
	backend := &stubBackend{response: []byte(`{
		"context_language": "en",
		"events": [
			{"type":"key_point","confidence":0.4,"intensity":0.9,"triggers":["x"],"reasoning":"r","content_quality_score":5}
		]
	}`)}
	det := New(DefaultConfig(), backend)

	events, err := det.Detect(context.Background(), domain.Turn{Content: "hello", EndTime: 3}, "", "")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDetectKeepsQualifyingEvent(t *testing.T) {
	backend := &stubBackend{response: []byte(`{
		"context_language": "en",
		"events": [
			{"type":"emotion_peak","confidence":0.9,"intensity":0.8,"triggers":["laugh"],"reasoning":"funny moment","content_quality_score":7}
		]
	}`)}
	det := New(DefaultConfig(), backend)

	events, err := det.Detect(context.Background(), domain.Turn{Content: "haha", EndTime: 12.5}, "", "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventEmotionPeak, events[0].Type)
	require.Equal(t, 12.5, events[0].Timestamp)
	require.Zero(t, events[0].Duration)
	require.NotEmpty(t, events[0].ID)
}

func TestDetectRejectsUnknownEventType(t *testing.T) {
	backend := &stubBackend{response: []byte(`{
		"events": [
			{"type":"plot_twist","confidence":0.99,"intensity":0.99}
		]
	}`)}
	det := New(DefaultConfig(), backend)

	events, err := det.Detect(context.Background(), domain.Turn{Content: "x", EndTime: 5}, "", "")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDetectPropagatesTransportError(t *testing.T) {
	backend := &stubBackend{err: errors.New("connection refused")}
	det := New(DefaultConfig(), backend)

	_, err := det.Detect(context.Background(), domain.Turn{Content: "x", EndTime: 5}, "", "")
	require.Error(t, err)
}

func TestDetectRejectsMalformedJSON(t *testing.T) {
	backend := &stubBackend{response: []byte(`not json at all`)}
	det := New(DefaultConfig(), backend)

	_, err := det.Detect(context.Background(), domain.Turn{Content: "x", EndTime: 5}, "", "")
	require.Error(t, err)
}

func TestDetectRejectsOutOfRangeConfidence(t *testing.T) {
	backend := &stubBackend{response: []byte(`{
		"events": [
			{"type":"key_point","confidence":1.5,"intensity":0.5}
		]
	}`)}
	det := New(DefaultConfig(), backend)

	_, err := det.Detect(context.Background(), domain.Turn{Content: "x", EndTime: 5}, "", "")
	require.Error(t, err)
}

func TestTruncateTailKeepsMostRecent(t *testing.T) {
	s := "0123456789"
	require.Equal(t, "789", truncateTail(s, 3))
	require.Equal(t, s, truncateTail(s, 100))
}

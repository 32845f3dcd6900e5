package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/domain"
	"github.com/stretchr/testify/require"
)

type stubDetectBackend struct {
	response []byte
	err      error
}

func (s *stubDetectBackend) Detect(ctx context.Context, prompt detector.Prompt, model string) ([]byte, error) {
	return s.response, s.err
}

type stubGenBackend struct {
	response []byte
	err      error
}

func (s *stubGenBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	return s.response, s.err
}

func noEventsResponse() []byte {
	b, _ := json.Marshal(map[string]any{"events": []any{}})
	return b
}

func oneKeyPointResponse() []byte {
	b, _ := json.Marshal(map[string]any{
		"events": []map[string]any{
			{"type": "key_point", "confidence": 0.95, "intensity": 0.9, "content_quality_score": 8},
		},
	})
	return b
}

func TestOnTurnCompletedLongTurnEnqueuesImmediately(t *testing.T) {
	det := &stubDetectBackend{response: noEventsResponse()}
	gen := &stubGenBackend{}
	sys := New(context.Background(), DefaultConfig(), det, gen)
	defer sys.Close()

	detected := make(chan EventsDetectedPayload, 1)
	sys.On(EventsDetected, func(p any) { detected <- p.(EventsDetectedPayload) })

	sys.OnTurnCompleted(domain.Turn{ID: "a", Content: "a long enough turn", StartTime: 0, EndTime: 5})

	select {
	case p := <-detected:
		require.Equal(t, "a", p.Turn.ID)
	case <-time.After(time.Second):
		t.Fatal("expected events-detected")
	}
}

func TestOnTurnCompletedShortTurnAggregates(t *testing.T) {
	det := &stubDetectBackend{response: noEventsResponse()}
	gen := &stubGenBackend{}
	cfg := DefaultConfig()
	cfg.Aggregator.MinTurnDurationMs = 5000
	cfg.Aggregator.AggregationMaxWords = 5
	sys := New(context.Background(), cfg, det, gen)
	defer sys.Close()

	detected := make(chan EventsDetectedPayload, 1)
	sys.On(EventsDetected, func(p any) { detected <- p.(EventsDetectedPayload) })

	sys.OnTurnCompleted(domain.Turn{ID: "a", Content: "a b", StartTime: 0, EndTime: 0.3})
	sys.OnTurnCompleted(domain.Turn{ID: "b", Content: "c d e", StartTime: 0.3, EndTime: 0.6})

	select {
	case p := <-detected:
		require.Equal(t, "a b c d e", p.Turn.Content)
		require.Equal(t, 0.0, p.Turn.StartTime)
		require.InDelta(t, 0.6, p.Turn.EndTime, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("expected a flushed aggregated turn")
	}
}

func TestCommentGeneratedClearsUncommentedButNotContextBuffer(t *testing.T) {
	det := &stubDetectBackend{response: oneKeyPointResponse()}
	genResp, _ := json.Marshal(map[string]any{"reject": false, "writer": "hype", "content": "nice moment"})
	gen := &stubGenBackend{response: genResp}

	cfg := DefaultConfig()
	cfg.Writers = []domain.WriterConfig{{Name: "hype", MinLength: 1, MaxLength: 1000}}
	cfg.Decision.BaseThreshold = 0.01 // force shouldComment on the first turn
	// With no prior comment the spacing term adds MinInterval seconds to
	// the delay; zero leaves only the 4000ms low-priority delay.
	cfg.Decision.MinInterval = 0

	sys := New(context.Background(), cfg, det, gen)
	defer sys.Close()

	generated := make(chan CommentGeneratedPayload, 1)
	sys.On(EventCommentGenerated, func(p any) { generated <- p.(CommentGeneratedPayload) })

	sys.OnTurnCompleted(domain.Turn{ID: "t1", Content: "hello everyone", StartTime: 20, EndTime: 25})

	select {
	case <-generated:
	case <-time.After(6 * time.Second):
		t.Fatal("expected comment-generated")
	}

	require.Equal(t, "", sys.uncommentedBuffer.GetWindow(1000))
	require.Zero(t, sys.uncommentedBuffer.Statistics().Count)
	require.Contains(t, sys.contextBuffer.GetWindow(1000), "hello everyone")
}

func TestListenerPanicDoesNotBlockOthers(t *testing.T) {
	det := &stubDetectBackend{response: noEventsResponse()}
	gen := &stubGenBackend{}
	sys := New(context.Background(), DefaultConfig(), det, gen)
	defer sys.Close()

	second := make(chan struct{}, 1)
	sys.On(EventsDetected, func(p any) { panic("boom") })
	sys.On(EventsDetected, func(p any) { second <- struct{}{} })

	sys.OnTurnCompleted(domain.Turn{ID: "a", Content: "x", StartTime: 0, EndTime: 5})

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second listener never ran")
	}
}

func TestClearTeardownResetsState(t *testing.T) {
	det := &stubDetectBackend{response: noEventsResponse()}
	gen := &stubGenBackend{}
	sys := New(context.Background(), DefaultConfig(), det, gen)
	defer sys.Close()

	sys.contextBuffer.Append(domain.Turn{Content: "hi", EndTime: 1})
	sys.Clear()

	require.Equal(t, "", sys.contextBuffer.GetWindow(1000))
}

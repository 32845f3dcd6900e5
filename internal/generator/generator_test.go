package generator

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

func (s *stubBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func defaultWriters() []domain.WriterConfig {
	return []domain.WriterConfig{
		{Name: "hype", Instructions: "react with excitement", MinLength: 5, MaxLength: 200},
	}
}

func TestGenerateAcceptsValidContent(t *testing.T) {
	backend := &stubBackend{response: []byte(`{"reject":false,"writer":"hype","content":"what a moment!"}`)}
	g := New(backend, defaultWriters(), domain.SelectorConfig{})

	res, err := g.Generate(context.Background(), domain.CommentContext{CurrentText: "x"})
	require.NoError(t, err)
	require.False(t, res.Reject)
	require.Equal(t, "hype", res.Writer)
	require.Equal(t, "what a moment!", res.Content)
}

func TestGenerateHonorsSelectorRejection(t *testing.T) {
	backend := &stubBackend{response: []byte(`{"reject":true,"reason":"nothing notable"}`)}
	g := New(backend, defaultWriters(), domain.SelectorConfig{})

	res, err := g.Generate(context.Background(), domain.CommentContext{})
	require.NoError(t, err)
	require.True(t, res.Reject)
	require.Equal(t, "nothing notable", res.Reason)
}

func TestGenerateRejectsUnknownWriter(t *testing.T) {
	backend := &stubBackend{response: []byte(`{"reject":false,"writer":"ghost","content":"hi"}`)}
	g := New(backend, defaultWriters(), domain.SelectorConfig{})

	res, err := g.Generate(context.Background(), domain.CommentContext{})
	require.NoError(t, err)
	require.True(t, res.Reject)
}

func TestGenerateRejectsOutOfBoundsLength(t *testing.T) {
	backend := &stubBackend{response: []byte(`{"reject":false,"writer":"hype","content":"hi"}`)}
	g := New(backend, defaultWriters(), domain.SelectorConfig{})

	res, err := g.Generate(context.Background(), domain.CommentContext{})
	require.NoError(t, err)
	require.True(t, res.Reject)
}

func TestGeneratePropagatesTransportError(t *testing.T) {
	backend := &stubBackend{err: errors.New("timeout")}
	g := New(backend, defaultWriters(), domain.SelectorConfig{})

	_, err := g.Generate(context.Background(), domain.CommentContext{})
	require.Error(t, err)
}

func TestGroundingTextPrefersUncommented(t *testing.T) {
	cc := domain.CommentContext{
		UncommentedText: "short",
		HistoricalText:  "fallback",
	}
	require.Equal(t, "short", groundingText(cc))

	cc2 := domain.CommentContext{HistoricalText: "fallback text"}
	require.Equal(t, "fallback text", groundingText(cc2))
}

func TestSummarizeEventsCapsAtFive(t *testing.T) {
	events := make([]domain.Event, 8)
	for i := range events {
		events[i] = domain.Event{Type: domain.EventKeyPoint, Confidence: 0.9}
	}
	out := summarizeEvents(events)
	require.Equal(t, 5, countLines(out))
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}

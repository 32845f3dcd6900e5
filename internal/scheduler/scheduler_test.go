package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/liveremark/core/internal/domain"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	mu     sync.Mutex
	calls  int
	result domain.GenResult
	err    error
	delay  time.Duration
}

func (s *stubGenerator) Generate(ctx context.Context, cc domain.CommentContext) (domain.GenResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.GenResult{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.result, s.err
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestScheduleEmitsGeneratedOnAccept(t *testing.T) {
	gen := &stubGenerator{result: domain.GenResult{Content: "nice", Writer: "hype"}}

	var generated domain.Comment
	done := make(chan struct{})
	sched := New(gen, Callbacks{
		OnGenerated: func(c domain.Comment, turn domain.Turn) {
			generated = c
			close(done)
		},
	})

	decision := domain.Decision{SuggestedDelayMs: 1}
	sched.Schedule(context.Background(), decision, domain.Turn{ID: "t1"}, domain.CommentContext{}, func(content, writer string) domain.Comment {
		return domain.Comment{Content: content, Writer: writer}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for comment-generated")
	}
	require.Equal(t, "nice", generated.Content)
}

func TestScheduleEmitsRejected(t *testing.T) {
	gen := &stubGenerator{result: domain.GenResult{Reject: true, Reason: "meh"}}

	var reason string
	done := make(chan struct{})
	sched := New(gen, Callbacks{
		OnRejected: func(r string, turn domain.Turn) {
			reason = r
			close(done)
		},
	})

	sched.Schedule(context.Background(), domain.Decision{SuggestedDelayMs: 1}, domain.Turn{}, domain.CommentContext{}, func(content, writer string) domain.Comment {
		t.Fatal("onAccept should not be called on rejection")
		return domain.Comment{}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for comment-rejected")
	}
	require.Equal(t, "meh", reason)
}

func TestScheduleEmitsErrorOnTransportFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}

	var gotErr error
	done := make(chan struct{})
	sched := New(gen, Callbacks{
		OnError: func(err error, turn domain.Turn) {
			gotErr = err
			close(done)
		},
	})

	sched.Schedule(context.Background(), domain.Decision{SuggestedDelayMs: 1}, domain.Turn{}, domain.CommentContext{}, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}
	require.EqualError(t, gotErr, "boom")
}

// delayedGenerator gives the "stale" request a slow path and the
// "fresh" request a fast one, keyed on CommentContext.CurrentText, so
// a single shared generator can stand in for two overlapping calls.
type delayedGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *delayedGenerator) Generate(ctx context.Context, cc domain.CommentContext) (domain.GenResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if cc.CurrentText == "stale" {
		select {
		case <-ctx.Done():
			return domain.GenResult{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
		return domain.GenResult{Content: "stale"}, nil
	}
	return domain.GenResult{Content: "fresh"}, nil
}

func (g *delayedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestNewerScheduleCancelsPrior(t *testing.T) {
	gen := &delayedGenerator{}

	var mu sync.Mutex
	var generatedContents []string
	done := make(chan struct{}, 2)

	sched := New(gen, Callbacks{
		OnGenerated: func(c domain.Comment, turn domain.Turn) {
			mu.Lock()
			generatedContents = append(generatedContents, c.Content)
			mu.Unlock()
			done <- struct{}{}
		},
	})

	sched.Schedule(context.Background(), domain.Decision{SuggestedDelayMs: 1}, domain.Turn{ID: "stale"}, domain.CommentContext{CurrentText: "stale"}, func(content, writer string) domain.Comment {
		return domain.Comment{Content: content}
	})

	time.Sleep(10 * time.Millisecond)
	sched.Schedule(context.Background(), domain.Decision{SuggestedDelayMs: 1}, domain.Turn{ID: "fresh"}, domain.CommentContext{CurrentText: "fresh"}, func(content, writer string) domain.Comment {
		return domain.Comment{Content: content}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the surviving run")
	}

	sched.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"fresh"}, generatedContents)
	require.Equal(t, 2, gen.callCount())
}

func TestAbortPreventsGeneration(t *testing.T) {
	gen := &stubGenerator{result: domain.GenResult{Content: "should not fire"}}
	called := false
	sched := New(gen, Callbacks{
		OnGenerated: func(c domain.Comment, turn domain.Turn) { called = true },
	})

	sched.Schedule(context.Background(), domain.Decision{SuggestedDelayMs: 50}, domain.Turn{}, domain.CommentContext{}, func(content, writer string) domain.Comment {
		return domain.Comment{Content: content}
	})
	sched.Abort()
	sched.Wait()

	require.False(t, called)
}

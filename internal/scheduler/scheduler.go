// Package scheduler implements the Comment Scheduler: it debounces
// a positive decision behind its suggested delay, cancels any prior
// pending attempt when a newer positive decision arrives, and routes
// the generator's outcome to accepted/rejected callbacks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/liveremark/core/internal/domain"
)

// Generator is the contract the scheduler calls into for the
// generation step; internal/generator.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, cc domain.CommentContext) (domain.GenResult, error)
}

// Callbacks are the scheduler's outbound events: comment-started,
// comment-generated, comment-rejected, and error.
type Callbacks struct {
	OnStarted   func(turn domain.Turn)
	OnGenerated func(comment domain.Comment, turn domain.Turn)
	OnRejected  func(reason string, turn domain.Turn)
	OnError     func(err error, turn domain.Turn)
}

// Scheduler holds the single pendingCancellation token.
type Scheduler struct {
	mu         sync.Mutex
	cancel     context.CancelFunc
	generator  Generator
	callbacks  Callbacks
	wg         sync.WaitGroup
}

// New creates a Scheduler bound to a generator and callback set.
func New(generator Generator, callbacks Callbacks) *Scheduler {
	return &Scheduler{generator: generator, callbacks: callbacks}
}

// Schedule aborts any prior pending attempt, then waits delayMs
// (subject to cancellation) before calling the generator. onAccept is
// invoked with the generated content on success so the caller (the
// facade) can perform the atomic history-update + buffer-clear before
// comment-generated fires; it runs on the scheduler's own goroutine,
// so the caller must not block in it.
func (s *Scheduler) Schedule(ctx context.Context, decision domain.Decision, turn domain.Turn, cc domain.CommentContext, onAccept func(content, writer string) domain.Comment) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, decision, turn, cc, onAccept)
}

// Abort cancels any in-flight or pending scheduled attempt (used by
// facade teardown).
func (s *Scheduler) Abort() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// Wait blocks until any in-flight scheduled run has finished. Intended
// for tests and graceful shutdown, not the hot path.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, decision domain.Decision, turn domain.Turn, cc domain.CommentContext, onAccept func(content, writer string) domain.Comment) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(decision.SuggestedDelayMs) * time.Millisecond):
	}

	if ctx.Err() != nil {
		return
	}

	if s.callbacks.OnStarted != nil {
		s.callbacks.OnStarted(turn)
	}

	result, err := s.generator.Generate(ctx, cc)
	if ctx.Err() != nil {
		// Superseded by a newer decision mid-flight; partial work stops,
		// nothing fires.
		return
	}
	if err != nil {
		if s.callbacks.OnError != nil {
			s.callbacks.OnError(err, turn)
		}
		return
	}

	if result.Reject {
		if s.callbacks.OnRejected != nil {
			s.callbacks.OnRejected(result.Reason, turn)
		}
		return
	}

	comment := onAccept(result.Content, result.Writer)
	if s.callbacks.OnGenerated != nil {
		s.callbacks.OnGenerated(comment, turn)
	}
}

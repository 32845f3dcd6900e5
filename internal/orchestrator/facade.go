// Package orchestrator implements the System Facade: it binds the
// buffers, aggregator, detection queue, detector, decision engine, and
// scheduler into one coherent per-stream actor and exposes the
// observable event surface.
package orchestrator

import (
	"context"
	"time"

	"github.com/liveremark/core/internal/aggregator"
	"github.com/liveremark/core/internal/buffer"
	"github.com/liveremark/core/internal/decision"
	"github.com/liveremark/core/internal/detectqueue"
	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/domain"
	"github.com/liveremark/core/internal/generator"
	"github.com/liveremark/core/internal/scheduler"
	"github.com/liveremark/core/internal/trace"
)

// Config bundles every sub-component's configuration.
type Config struct {
	ContextBuffer     buffer.Config
	UncommentedBuffer buffer.Config
	Aggregator        aggregator.Config
	Detector          detector.Config
	Decision          decision.Config
	Writers           []domain.WriterConfig
	Selector          domain.SelectorConfig
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	ctxCfg := buffer.DefaultConfig()
	return Config{
		ContextBuffer:     ctxCfg,
		UncommentedBuffer: ctxCfg,
		Aggregator:        aggregator.DefaultConfig(),
		Detector:          detector.DefaultConfig(),
		Decision:          decision.DefaultConfig(),
	}
}

// Statistics is the snapshot returned by System.GetStatistics.
type Statistics struct {
	ContextBuffer     buffer.Statistics
	UncommentedBuffer buffer.Statistics
	Config            Config
}

// System is one facade instance: a self-contained actor with no
// mutable state shared across other System instances.
type System struct {
	cfg Config

	contextBuffer     *buffer.Buffer
	uncommentedBuffer *buffer.Buffer
	agg               *aggregator.Aggregator
	queue             *detectqueue.Queue
	det               *detector.Detector
	engine            *decision.Engine
	gen               *generator.Generator
	sched             *scheduler.Scheduler
	bus               *bus

	ctx    context.Context
	cancel context.CancelFunc
}

// New wires every component and starts the facade. detBackend and
// genBackend are the two opaque external collaborators: event
// extraction and multi-writer comment synthesis.
func New(ctx context.Context, cfg Config, detBackend detector.Backend, genBackend generator.Backend) *System {
	runCtx, cancel := context.WithCancel(ctx)

	s := &System{
		cfg:               cfg,
		contextBuffer:     buffer.New(cfg.ContextBuffer),
		uncommentedBuffer: buffer.New(cfg.UncommentedBuffer),
		det:               detector.New(cfg.Detector, detBackend),
		engine:            decision.New(cfg.Decision),
		bus:               newBus(),
		ctx:               runCtx,
		cancel:            cancel,
	}
	s.gen = generator.New(genBackend, cfg.Writers, cfg.Selector)
	s.agg = aggregator.New(cfg.Aggregator, s.onAggregatorTimeout)
	s.queue = detectqueue.New(runCtx, s.processJob, s.onDropStale, s.onQueueError)
	s.sched = scheduler.New(s.gen, scheduler.Callbacks{
		OnStarted:   s.onCommentStarted,
		OnGenerated: s.onCommentGenerated,
		OnRejected:  s.onCommentRejected,
		OnError:     s.onGenerationError,
	})
	return s
}

// On registers a listener for kind and returns an unsubscribe function.
func (s *System) On(kind EventKind, fn Listener) func() {
	return s.bus.On(kind, fn)
}

// OnTurnCompleted accepts a completed transcription turn. Acceptance
// is synchronous; all processing beyond the initial buffer append and
// aggregation decision happens asynchronously.
func (s *System) OnTurnCompleted(turn domain.Turn) {
	s.contextBuffer.Append(turn)
	s.uncommentedBuffer.Append(turn)

	durationMs := (turn.EndTime - turn.StartTime) * 1000
	if durationMs >= s.cfg.Aggregator.MinTurnDurationMs {
		s.agg.Clear()
		s.enqueueDetection(turn)
		return
	}

	readyTurn, ready := s.agg.Add(turn)
	if !ready {
		return
	}
	s.enqueueDetection(readyTurn)
}

// onAggregatorTimeout is the aggregator's debounce callback; it
// enqueues using buffer snapshots taken at timeout time, not at the
// time of the original turn.
func (s *System) onAggregatorTimeout(turn domain.Turn) {
	s.enqueueDetection(turn)
}

func (s *System) enqueueDetection(turn domain.Turn) {
	job := domain.DetectionJob{
		ID:              domain.NewJobID(),
		Turn:            turn,
		UncommentedText: s.uncommentedBuffer.GetWindow(0),
		FullContext:     s.contextBuffer.GetWindow(0),
	}
	s.queue.Enqueue(job)
}

// processJob is the detectqueue.Processor: it re-checks staleness
// defensively, runs detection, scores the result, and hands a
// positive decision to the scheduler.
func (s *System) processJob(ctx context.Context, job domain.DetectionJob) error {
	ctx, span := trace.StartSpan(ctx, trace.SpanProcessDetectionJob)
	span.SetAttr(trace.AttrJobID, job.ID)
	span.SetAttr(trace.AttrTurnID, job.Turn.ID)
	defer span.End()

	age := time.Duration(time.Now().UnixMilli()-job.EnqueuedAtMs) * time.Millisecond
	if age > detectqueue.MaxTurnStaleness {
		s.onDropStale(job)
		return nil
	}

	start := time.Now()
	events, err := s.det.Detect(ctx, job.Turn, job.UncommentedText, job.FullContext)
	if err != nil {
		return err
	}
	processingTimeMs := time.Since(start).Milliseconds()

	s.bus.emit(EventsDetected, EventsDetectedPayload{Events: events, Turn: job.Turn, ProcessingTimeMs: processingTimeMs})

	decisionStart := time.Now()
	dec := s.engine.Evaluate(events, job.Turn.EndTime)
	decisionTimeMs := time.Since(decisionStart).Milliseconds()

	s.bus.emit(EventDecisionMade, DecisionMadePayload{Decision: dec, Turn: job.Turn, ProcessingTimeMs: decisionTimeMs})

	if !dec.ShouldComment {
		return nil
	}

	cc := domain.CommentContext{
		CurrentText:     job.Turn.Content,
		HistoricalText:  s.contextBuffer.GetWindow(0),
		UncommentedText: job.UncommentedText,
		Events:          events,
	}

	s.sched.Schedule(s.ctx, dec, job.Turn, cc, func(content, writer string) domain.Comment {
		return s.acceptComment(content, writer, job.Turn)
	})
	return nil
}

// acceptComment performs the atomic history-update + buffer-clear the
// scheduler must complete before comment-generated fires.
func (s *System) acceptComment(content, writer string, turn domain.Turn) domain.Comment {
	comment := domain.Comment{
		ID:      domain.NewCommentID(),
		Content: content,
		Writer:  writer,
		Length:  len(content),
		Metadata: domain.CommentMetadata{
			Timestamp: turn.EndTime,
		},
	}
	if err := s.engine.UpdateHistory(comment); err != nil {
		s.bus.emit(EventError, ErrorPayload{Err: err})
	}
	s.uncommentedBuffer.Clear()
	return comment
}

func (s *System) onCommentStarted(turn domain.Turn) {
	s.bus.emit(EventCommentStarted, CommentStartedPayload{Turn: turn})
}

func (s *System) onCommentGenerated(comment domain.Comment, turn domain.Turn) {
	s.bus.emit(EventCommentGenerated, CommentGeneratedPayload{Comment: comment, Turn: turn})
}

func (s *System) onCommentRejected(reason string, turn domain.Turn) {
	s.bus.emit(EventCommentRejected, CommentRejectedPayload{Reason: reason, Turn: turn})
}

func (s *System) onGenerationError(err error, turn domain.Turn) {
	s.bus.emit(EventError, ErrorPayload{Err: err})
}

func (s *System) onDropStale(job domain.DetectionJob) {
	// Staleness drops are silent; they are not propagated as errors.
}

func (s *System) onQueueError(err error, job domain.DetectionJob) {
	j := job
	s.bus.emit(EventError, ErrorPayload{Err: err, Job: &j})
}

// GetStatistics snapshots both buffers and the active configuration.
func (s *System) GetStatistics() Statistics {
	return Statistics{
		ContextBuffer:     s.contextBuffer.Statistics(),
		UncommentedBuffer: s.uncommentedBuffer.Statistics(),
		Config:            s.cfg,
	}
}

// Clear is the scoped teardown: all buffers clear, the aggregator
// clears (cancelling its timer), the scheduler aborts any pending
// cancellation, and the queue clears.
func (s *System) Clear() {
	s.contextBuffer.Clear()
	s.uncommentedBuffer.Clear()
	s.agg.Clear()
	s.sched.Abort()
	s.queue.Clear()
}

// Close cancels the facade's run context, stopping its queue worker
// after any in-flight job returns.
func (s *System) Close() {
	s.cancel()
}

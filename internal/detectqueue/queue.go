// Package detectqueue implements the single-slot, latest-wins work
// queue that makes event detection behave "realtime" under load (spec
// §4.3): enqueue overwrites any pending job, a serial worker drains the
// slot, and stale jobs are dropped before they reach the processor.
package detectqueue

import (
	"context"
	"sync"
	"time"

	"github.com/liveremark/core/internal/domain"
)

// Processor runs the detection work for one job. It must not be called
// concurrently with itself by the queue; only one invocation runs at
// a time.
type Processor func(ctx context.Context, job domain.DetectionJob) error

// Queue is a single-capacity mailbox with overwrite-on-send semantics.
// It is deliberately not backed by an unbounded channel, which would
// violate the prefer-latest invariant.
type Queue struct {
	mu        sync.Mutex
	pending   *domain.DetectionJob
	running   bool
	staleness time.Duration
	process   Processor
	onDrop    func(domain.DetectionJob)
	onError   func(error, domain.DetectionJob)
	now       func() time.Time
	ctx       context.Context
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithStaleness overrides the default staleness bound (for tests).
func WithStaleness(d time.Duration) Option {
	return func(q *Queue) { q.staleness = d }
}

// WithClock overrides the wall clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New creates a Queue. ctx bounds the worker's lifetime; cancelling it
// stops the worker after the in-flight process call (if any) returns.
// onDrop is invoked for jobs evicted as stale; onError is invoked when
// process returns an error.
func New(ctx context.Context, process Processor, onDrop func(domain.DetectionJob), onError func(error, domain.DetectionJob), opts ...Option) *Queue {
	q := &Queue{
		staleness: MaxTurnStaleness,
		process:   process,
		onDrop:    onDrop,
		onError:   onError,
		now:       time.Now,
		ctx:       ctx,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stamps job with the current wall-clock time, overwrites any
// existing pending job (the newest input always wins, older pending
// work is silently dropped), and ensures the worker is running.
func (q *Queue) Enqueue(job domain.DetectionJob) {
	job.EnqueuedAtMs = q.now().UnixMilli()

	q.mu.Lock()
	q.pending = &job
	startWorker := !q.running
	if startWorker {
		q.running = true
	}
	q.mu.Unlock()

	if startWorker {
		go q.run()
	}
}

// Clear drops the pending job, if any. A job already inside process is
// unaffected; the worker never cancels in-flight work.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// run is the serial worker loop. It exits once the slot is empty and
// restarts (via Enqueue) the next time work arrives.
func (q *Queue) run() {
	for {
		q.mu.Lock()
		job := q.pending
		q.pending = nil
		if job == nil {
			q.running = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if q.isStale(*job) {
			if q.onDrop != nil {
				q.onDrop(*job)
			}
			continue
		}

		if err := q.process(q.ctx, *job); err != nil {
			if q.onError != nil {
				q.onError(err, *job)
			}
		}
	}
}

// isStale reports whether job's wall-clock enqueue age exceeds the
// staleness bound. Staleness is measured in wall-clock milliseconds
// only; media seconds and epoch ms are never compared.
func (q *Queue) isStale(job domain.DetectionJob) bool {
	age := q.now().UnixMilli() - job.EnqueuedAtMs
	return time.Duration(age)*time.Millisecond > q.staleness
}

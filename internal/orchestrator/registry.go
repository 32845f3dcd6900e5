package orchestrator

import (
	"context"

	"github.com/liveremark/core/internal/detector"
	"github.com/liveremark/core/internal/generator"
	"github.com/liveremark/core/internal/syncx"
)

// Registry tracks one System per independent stream. Streams are fully
// isolated from each other; the registry only owns the bookkeeping of
// which stream IDs are currently live.
type Registry struct {
	systems *syncx.KeyedGuard[string, *System]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{systems: syncx.NewKeyedGuard[string, *System]()}
}

// Create builds a new System for streamID and registers it. Replacing
// an existing stream ID closes the prior instance first.
func (r *Registry) Create(ctx context.Context, streamID string, cfg Config, detBackend detector.Backend, genBackend generator.Backend) *System {
	sys := New(ctx, cfg, detBackend, genBackend)
	if prev, had := r.systems.Swap(streamID, sys); had {
		prev.Close()
	}
	return sys
}

// Get returns the System for streamID, if any.
func (r *Registry) Get(streamID string) (*System, bool) {
	return r.systems.Get(streamID)
}

// Remove closes and drops streamID's System.
func (r *Registry) Remove(streamID string) {
	if sys, had := r.systems.Delete(streamID); had {
		sys.Close()
	}
}

// Len reports how many streams are currently live.
func (r *Registry) Len() int {
	return r.systems.Len()
}

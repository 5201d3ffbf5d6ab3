package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
)

// Named entry types pair a hook implementation with the hook name
// captured at registration time. This avoids type-asserting back to
// Hook inside the emit methods.
type beatWrittenEntry struct {
	name string
	hook BeatWritten
}

type beatFailedEntry struct {
	name string
	hook BeatFailed
}

type sweepStartedEntry struct {
	name string
	hook SweepStarted
}

type dispatchCancelledEntry struct {
	name string
	hook DispatchCancelled
}

type sweepCompletedEntry struct {
	name string
	hook SweepCompleted
}

type sweepFailedEntry struct {
	name string
	hook SweepFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant event interface.
//
// A nil *Registry is valid: all emit methods are no-ops.
type Registry struct {
	hooks  []Hook
	logger *slog.Logger

	// Type-cached slices for each lifecycle event.
	beatWritten       []beatWrittenEntry
	beatFailed        []beatFailedEntry
	sweepStarted      []sweepStartedEntry
	dispatchCancelled []dispatchCancelledEntry
	sweepCompleted    []sweepCompletedEntry
	sweepFailed       []sweepFailedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
	name := h.Name()

	if e, ok := h.(BeatWritten); ok {
		r.beatWritten = append(r.beatWritten, beatWrittenEntry{name, e})
	}
	if e, ok := h.(BeatFailed); ok {
		r.beatFailed = append(r.beatFailed, beatFailedEntry{name, e})
	}
	if e, ok := h.(SweepStarted); ok {
		r.sweepStarted = append(r.sweepStarted, sweepStartedEntry{name, e})
	}
	if e, ok := h.(DispatchCancelled); ok {
		r.dispatchCancelled = append(r.dispatchCancelled, dispatchCancelledEntry{name, e})
	}
	if e, ok := h.(SweepCompleted); ok {
		r.sweepCompleted = append(r.sweepCompleted, sweepCompletedEntry{name, e})
	}
	if e, ok := h.(SweepFailed); ok {
		r.sweepFailed = append(r.sweepFailed, sweepFailedEntry{name, e})
	}
	if e, ok := h.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, e})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook {
	if r == nil {
		return nil
	}
	return r.hooks
}

// logHookError reports a hook failure without propagating it.
func (r *Registry) logHookError(name, event string, err error) {
	r.logger.Warn("hook error",
		slog.String("hook", name),
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// EmitBeatWritten notifies hooks that a liveness marker was written.
func (r *Registry) EmitBeatWritten(ctx context.Context, at time.Time) {
	if r == nil {
		return
	}
	for _, e := range r.beatWritten {
		if err := e.hook.OnBeatWritten(ctx, at); err != nil {
			r.logHookError(e.name, "beat_written", err)
		}
	}
}

// EmitBeatFailed notifies hooks that a liveness marker write failed.
func (r *Registry) EmitBeatFailed(ctx context.Context, beatErr error) {
	if r == nil {
		return
	}
	for _, e := range r.beatFailed {
		if err := e.hook.OnBeatFailed(ctx, beatErr); err != nil {
			r.logHookError(e.name, "beat_failed", err)
		}
	}
}

// EmitSweepStarted notifies hooks that a status sweep began.
func (r *Registry) EmitSweepStarted(ctx context.Context, status dispatch.Status) {
	if r == nil {
		return
	}
	for _, e := range r.sweepStarted {
		if err := e.hook.OnSweepStarted(ctx, status); err != nil {
			r.logHookError(e.name, "sweep_started", err)
		}
	}
}

// EmitDispatchCancelled notifies hooks that a dispatch was cancelled.
func (r *Registry) EmitDispatchCancelled(ctx context.Context, dispatchID id.DispatchID) {
	if r == nil {
		return
	}
	for _, e := range r.dispatchCancelled {
		if err := e.hook.OnDispatchCancelled(ctx, dispatchID); err != nil {
			r.logHookError(e.name, "dispatch_cancelled", err)
		}
	}
}

// EmitSweepCompleted notifies hooks that a status sweep finished.
func (r *Registry) EmitSweepCompleted(ctx context.Context, status dispatch.Status, cancelled []id.DispatchID, elapsed time.Duration) {
	if r == nil {
		return
	}
	for _, e := range r.sweepCompleted {
		if err := e.hook.OnSweepCompleted(ctx, status, cancelled, elapsed); err != nil {
			r.logHookError(e.name, "sweep_completed", err)
		}
	}
}

// EmitSweepFailed notifies hooks that a status sweep aborted.
func (r *Registry) EmitSweepFailed(ctx context.Context, status dispatch.Status, sweepErr error) {
	if r == nil {
		return
	}
	for _, e := range r.sweepFailed {
		if err := e.hook.OnSweepFailed(ctx, status, sweepErr); err != nil {
			r.logHookError(e.name, "sweep_failed", err)
		}
	}
}

// EmitShutdown notifies hooks that graceful shutdown began.
func (r *Registry) EmitShutdown(ctx context.Context) {
	if r == nil {
		return
	}
	for _, e := range r.shutdown {
		e.hook.OnShutdown(ctx)
	}
}

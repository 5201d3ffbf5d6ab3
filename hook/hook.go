// Package hook defines the lifecycle hook system for Lifeline.
//
// Hooks are notified of heartbeat and shutdown-sweep events and can
// react to them — recording metrics, emitting alerts, writing audit
// logs, etc. Each lifecycle event is a separate interface so hooks opt
// in only to the events they care about.
//
// # Implementing a Hook
//
//	type MyHook struct{}
//
//	func (h *MyHook) Name() string { return "my-hook" }
//
//	// Opt in to specific events by implementing their interfaces.
//	func (h *MyHook) OnDispatchCancelled(ctx context.Context, dispatchID id.DispatchID) error {
//	    log.Printf("cancelled %s", dispatchID)
//	    return nil
//	}
//
// The [Registry] fans out each event to all registered hooks that
// implement the corresponding interface. Hook errors are logged and
// never propagated to the emitting component.
package hook

import (
	"context"
	"time"

	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
)

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// ──────────────────────────────────────────────────
// Heartbeat events
// ──────────────────────────────────────────────────

// BeatWritten is called after a liveness marker is successfully written.
type BeatWritten interface {
	OnBeatWritten(ctx context.Context, at time.Time) error
}

// BeatFailed is called when a liveness marker write fails. The
// heartbeat loop continues regardless.
type BeatFailed interface {
	OnBeatFailed(ctx context.Context, err error) error
}

// ──────────────────────────────────────────────────
// Sweep events
// ──────────────────────────────────────────────────

// SweepStarted is called when the sweeper begins draining one status.
type SweepStarted interface {
	OnSweepStarted(ctx context.Context, status dispatch.Status) error
}

// DispatchCancelled is called after each successful cancellation.
type DispatchCancelled interface {
	OnDispatchCancelled(ctx context.Context, dispatchID id.DispatchID) error
}

// SweepCompleted is called after one status has been fully drained.
type SweepCompleted interface {
	OnSweepCompleted(ctx context.Context, status dispatch.Status, cancelled []id.DispatchID, elapsed time.Duration) error
}

// SweepFailed is called when the sweep for one status aborts with an
// error. Remaining statuses are still attempted.
type SweepFailed interface {
	OnSweepFailed(ctx context.Context, status dispatch.Status, err error) error
}

// ──────────────────────────────────────────────────
// Other events
// ──────────────────────────────────────────────────

// Shutdown is called once when graceful shutdown begins, before any
// sweeping happens.
type Shutdown interface {
	OnShutdown(ctx context.Context)
}

package hook_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/hook"
	"github.com/arkline/lifeline/id"
)

// trackingHook records which events fired.
type trackingHook struct {
	beats     atomic.Int64
	cancelled atomic.Int64
	completed atomic.Int64
	shutdown  atomic.Bool
}

func (h *trackingHook) Name() string { return "tracker" }

func (h *trackingHook) OnBeatWritten(_ context.Context, _ time.Time) error {
	h.beats.Add(1)
	return nil
}

func (h *trackingHook) OnDispatchCancelled(_ context.Context, _ id.DispatchID) error {
	h.cancelled.Add(1)
	return nil
}

func (h *trackingHook) OnSweepCompleted(_ context.Context, _ dispatch.Status, _ []id.DispatchID, _ time.Duration) error {
	h.completed.Add(1)
	return nil
}

func (h *trackingHook) OnShutdown(_ context.Context) {
	h.shutdown.Store(true)
}

// failingHook always errors; the registry must swallow it.
type failingHook struct {
	calls atomic.Int64
}

func (h *failingHook) Name() string { return "failing" }

func (h *failingHook) OnDispatchCancelled(_ context.Context, _ id.DispatchID) error {
	h.calls.Add(1)
	return errors.New("hook exploded")
}

func TestRegistry_FansOutToImplementedHooks(t *testing.T) {
	r := hook.NewRegistry(nil)
	tracker := &trackingHook{}
	r.Register(tracker)

	ctx := context.Background()
	r.EmitBeatWritten(ctx, time.Now())
	r.EmitBeatWritten(ctx, time.Now())
	r.EmitDispatchCancelled(ctx, id.NewDispatchID())
	r.EmitSweepCompleted(ctx, dispatch.StatusRunning, nil, time.Millisecond)
	r.EmitShutdown(ctx)

	// Events the tracker does not implement must be safe to emit.
	r.EmitBeatFailed(ctx, errors.New("disk full"))
	r.EmitSweepStarted(ctx, dispatch.StatusRunning)
	r.EmitSweepFailed(ctx, dispatch.StatusRunning, errors.New("boom"))

	if got := tracker.beats.Load(); got != 2 {
		t.Errorf("beats = %d, want 2", got)
	}
	if got := tracker.cancelled.Load(); got != 1 {
		t.Errorf("cancelled = %d, want 1", got)
	}
	if got := tracker.completed.Load(); got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
	if !tracker.shutdown.Load() {
		t.Error("expected OnShutdown to fire")
	}
}

func TestRegistry_HookErrorDoesNotStopOthers(t *testing.T) {
	r := hook.NewRegistry(nil)
	failing := &failingHook{}
	tracker := &trackingHook{}
	r.Register(failing)
	r.Register(tracker)

	r.EmitDispatchCancelled(context.Background(), id.NewDispatchID())

	if got := failing.calls.Load(); got != 1 {
		t.Errorf("failing hook calls = %d, want 1", got)
	}
	if got := tracker.cancelled.Load(); got != 1 {
		t.Errorf("tracker cancelled = %d, want 1 (must run after failing hook)", got)
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *hook.Registry

	// Must not panic.
	ctx := context.Background()
	r.EmitBeatWritten(ctx, time.Now())
	r.EmitBeatFailed(ctx, errors.New("x"))
	r.EmitSweepStarted(ctx, dispatch.StatusNewObject)
	r.EmitDispatchCancelled(ctx, id.NewDispatchID())
	r.EmitSweepCompleted(ctx, dispatch.StatusNewObject, nil, 0)
	r.EmitSweepFailed(ctx, dispatch.StatusNewObject, errors.New("x"))
	r.EmitShutdown(ctx)

	if r.Hooks() != nil {
		t.Error("expected nil hooks from nil registry")
	}
}

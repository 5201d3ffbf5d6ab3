package dispatch_test

import (
	"testing"

	"github.com/arkline/lifeline/dispatch"
)

func TestStatus_Terminal(t *testing.T) {
	terminal := []dispatch.Status{
		dispatch.StatusCompleted,
		dispatch.StatusFailed,
		dispatch.StatusCancelled,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}

	active := []dispatch.Status{
		dispatch.StatusNewObject,
		dispatch.StatusRunning,
		dispatch.StatusPendingPostprocessing,
		dispatch.StatusPostprocessing,
	}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestMustCancelStatuses(t *testing.T) {
	want := []dispatch.Status{
		dispatch.StatusNewObject,
		dispatch.StatusPostprocessing,
		dispatch.StatusPendingPostprocessing,
		dispatch.StatusRunning,
	}
	if len(dispatch.MustCancelStatuses) != len(want) {
		t.Fatalf("MustCancelStatuses has %d entries, want %d", len(dispatch.MustCancelStatuses), len(want))
	}
	for i, s := range want {
		if dispatch.MustCancelStatuses[i] != s {
			t.Errorf("MustCancelStatuses[%d] = %s, want %s", i, dispatch.MustCancelStatuses[i], s)
		}
	}
	for _, s := range dispatch.MustCancelStatuses {
		if s.Terminal() {
			t.Errorf("must-cancel status %s is terminal", s)
		}
	}
}

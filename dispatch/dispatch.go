// Package dispatch defines the dispatch record, its status model, and
// the store contracts the lifecycle controller consumes. The dispatch
// execution engine itself lives elsewhere; this package only describes
// what the heartbeat supervisor and shutdown sweeper need to see.
package dispatch

import (
	"time"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/id"
)

// Status represents the lifecycle status of a dispatch. The wire values
// are fixed; external systems filter and report on them verbatim.
type Status string

const (
	// StatusNewObject means the dispatch has been registered but not
	// yet picked up for execution.
	StatusNewObject Status = "NEW_OBJECT"
	// StatusRunning means the dispatch is currently executing.
	StatusRunning Status = "RUNNING"
	// StatusPendingPostprocessing means execution finished and the
	// dispatch is waiting for its postprocessing phase.
	StatusPendingPostprocessing Status = "PENDING_POSTPROCESSING"
	// StatusPostprocessing means the postprocessing phase is executing.
	StatusPostprocessing Status = "POSTPROCESSING"
	// StatusCompleted means the dispatch finished successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed means the dispatch failed terminally.
	StatusFailed Status = "FAILED"
	// StatusCancelled means the dispatch was explicitly cancelled.
	StatusCancelled Status = "CANCELLED"
)

// MustCancelStatuses is the fixed, ordered set of non-terminal statuses
// that require explicit cancellation before the process may exit. The
// shutdown sweeper drains them in this order; the order matters only
// for determinism, each status is swept independently.
var MustCancelStatuses = []Status{
	StatusNewObject,
	StatusPostprocessing,
	StatusPendingPostprocessing,
	StatusRunning,
}

// Terminal reports whether the status is an end state. Cancelling a
// dispatch in a terminal status is a no-op.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Dispatch represents a unit of work tracked by the orchestration
// system.
type Dispatch struct {
	lifeline.Entity

	ID           id.DispatchID `json:"id"`
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
}

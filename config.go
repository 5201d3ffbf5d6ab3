package lifeline

import (
	"os"
	"path/filepath"
	"time"
)

// CancelPolicy selects how the shutdown sweeper reacts to a failed
// cancellation within one status sweep.
type CancelPolicy string

const (
	// CancelFailFast aborts the current status sweep on the first
	// cancellation error, leaving the remaining identifiers in that
	// status un-cancelled. The error propagates to the caller.
	CancelFailFast CancelPolicy = "fail_fast"

	// CancelCollectErrors attempts every identifier, collects all
	// cancellation errors, and returns them joined after the sweep.
	CancelCollectErrors CancelPolicy = "collect_errors"
)

// Config holds configuration for the lifecycle supervisor.
type Config struct {
	// HeartbeatInterval is how often the liveness marker is rewritten.
	HeartbeatInterval time.Duration

	// HeartbeatFile is the path of the liveness marker file.
	HeartbeatFile string

	// SweepPageSize is the number of dispatches requested per listing
	// call during the shutdown sweep.
	SweepPageSize int

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// CancelPolicy selects fail-fast or collect-all-errors behavior for
	// cancellation failures during the sweep.
	CancelPolicy CancelPolicy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		HeartbeatFile:     filepath.Join(os.TempDir(), "lifeline_heartbeat"),
		SweepPageSize:     100,
		ShutdownTimeout:   30 * time.Second,
		CancelPolicy:      CancelFailFast,
	}
}

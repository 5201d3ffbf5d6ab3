// Package heartbeat emits a durable, low-overhead liveness signal.
//
// A Heartbeat overwrites a single marker file with "ALIVE <timestamp>"
// on a fixed interval while the process runs, and writes a terminal
// "DEAD <timestamp>" exactly once during shutdown. External monitors
// poll the file to infer process health; no history is retained.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/hook"
)

// TimestampLayout is the fixed textual pattern for marker timestamps,
// e.g. "2026-08-23 14:03:07.123456+0000". Monitors parse it verbatim.
const TimestampLayout = "2006-01-02 15:04:05.000000-0700"

// markerFileMode is the permission set for the liveness marker file.
const markerFileMode = 0o644

// State is the liveness state recorded in the marker file.
type State string

const (
	// StateAlive means the process was running at the marker timestamp.
	StateAlive State = "ALIVE"
	// StateDead means the process completed its shutdown sequence.
	StateDead State = "DEAD"
)

// Marker is the decoded contents of the liveness file.
type Marker struct {
	State     State
	Timestamp time.Time
}

// String renders the marker in its on-disk form:
// "<ALIVE|DEAD> <timestamp>".
func (m Marker) String() string {
	return string(m.State) + " " + m.Timestamp.Format(TimestampLayout)
}

// ParseMarker decodes the contents of a liveness file.
func ParseMarker(data []byte) (Marker, error) {
	state, ts, ok := strings.Cut(strings.TrimSpace(string(data)), " ")
	if !ok {
		return Marker{}, fmt.Errorf("heartbeat: malformed marker %q", data)
	}

	s := State(state)
	if s != StateAlive && s != StateDead {
		return Marker{}, fmt.Errorf("heartbeat: unknown marker state %q", state)
	}

	at, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return Marker{}, fmt.Errorf("heartbeat: parse marker timestamp: %w", err)
	}

	return Marker{State: s, Timestamp: at}, nil
}

// Heartbeat writes the periodic liveness marker. One instance owns the
// marker file for writes; run a single Start loop per process.
type Heartbeat struct {
	interval time.Duration
	file     string
	logger   *slog.Logger
	hooks    *hook.Registry
}

// Option configures a Heartbeat.
type Option func(*Heartbeat)

// WithInterval overrides the beat interval. Non-positive values are
// ignored.
func WithInterval(d time.Duration) Option {
	return func(h *Heartbeat) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithFile overrides the marker file path. Empty paths are ignored.
func WithFile(path string) Option {
	return func(h *Heartbeat) {
		if path != "" {
			h.file = path
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heartbeat) { h.logger = l }
}

// WithHooks sets the lifecycle hook registry notified on each beat.
func WithHooks(r *hook.Registry) Option {
	return func(h *Heartbeat) { h.hooks = r }
}

// New creates a Heartbeat. Interval and file path default to the
// process-wide configuration defaults and may be overridden per
// instance for testing.
func New(opts ...Option) *Heartbeat {
	cfg := lifeline.DefaultConfig()
	h := &Heartbeat{
		interval: cfg.HeartbeatInterval,
		file:     cfg.HeartbeatFile,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// File returns the marker file path.
func (h *Heartbeat) File() string { return h.file }

// Interval returns the beat interval.
func (h *Heartbeat) Interval() time.Duration { return h.interval }

// Start runs the liveness loop: emit one beat, sleep for the interval,
// repeat. It returns only when ctx is cancelled, with ctx.Err(). A
// failed write is reported and tolerated; the next successful beat
// self-heals monitor visibility, so a transient failure never
// terminates the loop.
func (h *Heartbeat) Start(ctx context.Context) error {
	h.logger.Info("heartbeat starting",
		slog.String("file", h.file),
		slog.Duration("interval", h.interval),
	)

	for {
		if err := h.Beat(); err != nil {
			h.logger.Warn("heartbeat write failed",
				slog.String("file", h.file),
				slog.String("error", err.Error()),
			)
			h.hooks.EmitBeatFailed(ctx, err)
		} else {
			h.hooks.EmitBeatWritten(ctx, time.Now().UTC())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.interval):
		}
	}
}

// Beat writes a single "ALIVE <timestamp>" marker, fully replacing the
// file contents. The file handle is released on every exit path.
func (h *Heartbeat) Beat() error {
	m := Marker{State: StateAlive, Timestamp: time.Now().UTC()}
	if err := os.WriteFile(h.file, []byte(m.String()), markerFileMode); err != nil {
		return fmt.Errorf("heartbeat: write beat: %w", err)
	}
	return nil
}

// Stop writes the terminal "DEAD <timestamp>" marker. Call it exactly
// once during shutdown, after the Start loop has been cancelled and has
// returned; Beat and Stop must never run concurrently. Unlike Beat, a
// write failure here is the final liveness statement going missing and
// is returned to the caller.
func (h *Heartbeat) Stop() error {
	m := Marker{State: StateDead, Timestamp: time.Now().UTC()}
	if err := os.WriteFile(h.file, []byte(m.String()), markerFileMode); err != nil {
		return fmt.Errorf("heartbeat: write terminal marker: %w", err)
	}

	h.logger.Info("heartbeat stopped", slog.String("file", h.file))
	return nil
}

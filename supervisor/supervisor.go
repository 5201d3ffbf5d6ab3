// Package supervisor coordinates the service lifecycle: the periodic
// liveness heartbeat while the process runs, and the shutdown sequence
// that drains cancellable dispatches before the final DEAD marker.
//
// The shutdown ordering is the package's core guarantee. The sweep runs
// to completion first, then the heartbeat loop is stopped and the
// terminal marker written, so the DEAD timestamp postdates every
// cancellation performed during shutdown.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/heartbeat"
	"github.com/arkline/lifeline/hook"
	"github.com/arkline/lifeline/sweep"
)

// Supervisor owns the heartbeat loop and the shutdown sweep for one
// process.
type Supervisor struct {
	cfg    lifeline.Config
	store  dispatch.Store
	logger *slog.Logger
	hooks  *hook.Registry

	hb      *heartbeat.Heartbeat
	sweeper *sweep.Sweeper

	hbOpts    []heartbeat.Option
	sweepOpts []sweep.Option

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	hbDone   chan struct{}
	shutdown sync.Once
	report   *sweep.Report
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithConfig replaces the default configuration.
func WithConfig(cfg lifeline.Config) Option {
	return func(s *Supervisor) { s.cfg = cfg }
}

// WithLogger sets the structured logger, shared with the heartbeat and
// sweeper unless they are given their own.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithHooks sets the lifecycle hook registry. The same registry is
// passed through to the heartbeat and sweeper.
func WithHooks(r *hook.Registry) Option {
	return func(s *Supervisor) { s.hooks = r }
}

// WithHeartbeatOptions appends options applied to the owned heartbeat.
func WithHeartbeatOptions(opts ...heartbeat.Option) Option {
	return func(s *Supervisor) { s.hbOpts = append(s.hbOpts, opts...) }
}

// WithSweepOptions appends options applied to the owned sweeper.
func WithSweepOptions(opts ...sweep.Option) Option {
	return func(s *Supervisor) { s.sweepOpts = append(s.sweepOpts, opts...) }
}

// New creates a Supervisor over the given dispatch store.
func New(store dispatch.Store, opts ...Option) (*Supervisor, error) {
	if store == nil {
		return nil, lifeline.ErrNoStore
	}

	s := &Supervisor{
		cfg:    lifeline.DefaultConfig(),
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Fill unset config fields so a partial Config is usable.
	def := lifeline.DefaultConfig()
	if s.cfg.HeartbeatInterval <= 0 {
		s.cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if s.cfg.HeartbeatFile == "" {
		s.cfg.HeartbeatFile = def.HeartbeatFile
	}
	if s.cfg.SweepPageSize <= 0 {
		s.cfg.SweepPageSize = def.SweepPageSize
	}
	if s.cfg.ShutdownTimeout <= 0 {
		s.cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if s.cfg.CancelPolicy == "" {
		s.cfg.CancelPolicy = def.CancelPolicy
	}

	hbOpts := []heartbeat.Option{
		heartbeat.WithInterval(s.cfg.HeartbeatInterval),
		heartbeat.WithFile(s.cfg.HeartbeatFile),
		heartbeat.WithLogger(s.logger),
		heartbeat.WithHooks(s.hooks),
	}
	s.hb = heartbeat.New(append(hbOpts, s.hbOpts...)...)

	sweepOpts := []sweep.Option{
		sweep.WithPageSize(s.cfg.SweepPageSize),
		sweep.WithPolicy(s.cfg.CancelPolicy),
		sweep.WithLogger(s.logger),
		sweep.WithHooks(s.hooks),
	}
	s.sweeper = sweep.New(store, store, append(sweepOpts, s.sweepOpts...)...)

	return s, nil
}

// Heartbeat returns the owned heartbeat.
func (s *Supervisor) Heartbeat() *heartbeat.Heartbeat { return s.hb }

// Sweeper returns the owned sweeper.
func (s *Supervisor) Sweeper() *sweep.Sweeper { return s.sweeper }

// Report returns the sweep report recorded during shutdown, or nil if
// Shutdown has not run.
func (s *Supervisor) Report() *sweep.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Start launches the heartbeat loop in a background goroutine. Calling
// Start on a running supervisor is a no-op.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	hbCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.hbDone = make(chan struct{})
	s.started = true

	go func() {
		defer close(s.hbDone)
		if err := s.hb.Start(hbCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("heartbeat loop exited",
				slog.String("error", err.Error()),
			)
		}
	}()

	s.logger.Info("supervisor started")
	return nil
}

// Shutdown runs the graceful shutdown sequence exactly once:
//
//  1. notify shutdown hooks
//  2. sweep and cancel every dispatch in a must-cancel status
//  3. stop the heartbeat loop and write the terminal DEAD marker
//  4. close the store if it exposes a Close method
//
// Sweep failures do not short-circuit the later steps; all errors are
// returned joined. Subsequent calls return nil without doing anything.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdown.Do(func() {
		s.logger.Info("supervisor shutting down")
		s.hooks.EmitShutdown(ctx)

		var errs []error

		report, err := s.sweeper.Run(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("supervisor: shutdown sweep: %w", err))
		}

		s.mu.Lock()
		s.report = report
		cancel, hbDone := s.cancel, s.hbDone
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			select {
			case <-hbDone:
			case <-ctx.Done():
				errs = append(errs, fmt.Errorf("supervisor: waiting for heartbeat loop: %w", ctx.Err()))
			}
		}

		if err := s.hb.Stop(); err != nil {
			errs = append(errs, err)
		}

		if storer, ok := s.store.(lifeline.Storer); ok {
			if err := storer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("supervisor: close store: %w", err))
			}
		}

		shutdownErr = errors.Join(errs...)
		s.logger.Info("supervisor stopped",
			slog.Int("cancelled", report.TotalCancelled()),
		)
	})

	return shutdownErr
}

// Run starts the supervisor, blocks until ctx is cancelled, then runs
// the shutdown sequence under the configured timeout. It is the
// typical entry point for a service main.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

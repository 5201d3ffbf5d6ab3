// Package sweep drains cancellable dispatches during graceful shutdown.
//
// A Sweeper enumerates every dispatch whose status is in the
// must-cancel set using paginated listing calls, then cancels each
// collected identifier sequentially in discovery order. Statuses are
// swept independently: a failure in one never prevents the others from
// being attempted.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/hook"
	"github.com/arkline/lifeline/id"
)

// StatusResult is the outcome of draining one status.
type StatusResult struct {
	Status dispatch.Status
	// Cancelled holds the identifiers cancelled for this status, in
	// discovery order. On a fail-fast abort it holds the identifiers
	// cancelled before the failure.
	Cancelled []id.DispatchID
	Elapsed   time.Duration
}

// Report summarizes one full shutdown sweep across all statuses.
type Report struct {
	ID         id.SweepID
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []StatusResult
}

// TotalCancelled returns the number of cancellations across all statuses.
func (r *Report) TotalCancelled() int {
	var n int
	for _, res := range r.Results {
		n += len(res.Cancelled)
	}
	return n
}

// Sweeper cancels every dispatch left in a must-cancel status.
type Sweeper struct {
	lister   dispatch.Lister
	canceler dispatch.Canceler
	pageSize int
	policy   lifeline.CancelPolicy
	statuses []dispatch.Status
	limiter  *rate.Limiter
	hooks    *hook.Registry
	logger   *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithPageSize sets the listing page size. Values below one fall back
// to the default.
func WithPageSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPolicy selects fail-fast or collect-all-errors handling of
// cancellation failures within one status sweep.
func WithPolicy(p lifeline.CancelPolicy) Option {
	return func(s *Sweeper) { s.policy = p }
}

// WithStatuses overrides the must-cancel status set. Intended for
// tests; production sweeps use dispatch.MustCancelStatuses.
func WithStatuses(statuses ...dispatch.Status) Option {
	return func(s *Sweeper) { s.statuses = statuses }
}

// WithRateLimit throttles cancellation calls to at most rps per second
// with the given burst, protecting a shared backend from a cancellation
// storm at shutdown. Zero rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Sweeper) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithHooks sets the lifecycle hook registry notified during the sweep.
func WithHooks(r *hook.Registry) Option {
	return func(s *Sweeper) { s.hooks = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// New creates a Sweeper over the given listing and cancellation
// interfaces. Both are typically the same store, but the canceler may
// equally be an RPC client into the dispatch execution engine.
func New(lister dispatch.Lister, canceler dispatch.Canceler, opts ...Option) *Sweeper {
	cfg := lifeline.DefaultConfig()
	s := &Sweeper{
		lister:   lister,
		canceler: canceler,
		pageSize: cfg.SweepPageSize,
		policy:   cfg.CancelPolicy,
		statuses: dispatch.MustCancelStatuses,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CancelAllWithStatus enumerates every dispatch currently in the given
// status and cancels each one sequentially, in discovery order. It
// returns the identifiers that were cancelled.
//
// Enumeration pages through the listing interface with a fixed page
// size, advancing the offset one page per call, until the cumulative
// number of retrieved items equals the reported total. Termination is
// driven by the monotonically advancing offset, so the loop is safe for
// empty result sets and exact page-size multiples alike.
//
// Under the fail-fast policy the first cancellation error aborts the
// sweep for this status and is returned alongside the identifiers
// cancelled so far. Under the collect-errors policy every identifier is
// attempted and the failures are returned joined.
func (s *Sweeper) CancelAllWithStatus(ctx context.Context, status dispatch.Status) ([]id.DispatchID, error) {
	var dispatchIDs []id.DispatchID

	for page := 0; ; page++ {
		pg, err := s.lister.ListDispatches(ctx, dispatch.ListOpts{
			Count:  s.pageSize,
			Offset: page * s.pageSize,
			Status: status,
		})
		if err != nil {
			return nil, fmt.Errorf("sweep: list %s dispatches at offset %d: %w", status, page*s.pageSize, err)
		}

		for _, d := range pg.Items {
			dispatchIDs = append(dispatchIDs, d.ID)
		}

		if pg.TotalCount == page*s.pageSize+len(pg.Items) {
			break
		}
	}

	cancelled := make([]id.DispatchID, 0, len(dispatchIDs))
	var errs []error

	for _, dispatchID := range dispatchIDs {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return cancelled, fmt.Errorf("sweep: rate limiter: %w", err)
			}
		}

		if err := s.canceler.CancelDispatch(ctx, dispatchID); err != nil {
			wrapped := fmt.Errorf("sweep: cancel dispatch %s: %w", dispatchID, err)
			if s.policy == lifeline.CancelCollectErrors {
				errs = append(errs, wrapped)
				continue
			}
			return cancelled, wrapped
		}

		cancelled = append(cancelled, dispatchID)
		s.hooks.EmitDispatchCancelled(ctx, dispatchID)
	}

	return cancelled, errors.Join(errs...)
}

// Run drains every status in the must-cancel set, in its fixed order.
// Each status is an independent unit: a listing or cancellation failure
// aborts only that status's sweep, and the remaining statuses are still
// attempted. All per-status errors are returned joined; the Report is
// always non-nil and covers whatever was cancelled.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:        id.NewSweepID(),
		StartedAt: time.Now().UTC(),
	}

	var errs []error
	for _, status := range s.statuses {
		s.hooks.EmitSweepStarted(ctx, status)
		start := time.Now()

		cancelled, err := s.CancelAllWithStatus(ctx, status)
		elapsed := time.Since(start)
		report.Results = append(report.Results, StatusResult{
			Status:    status,
			Cancelled: cancelled,
			Elapsed:   elapsed,
		})

		if err != nil {
			errs = append(errs, err)
			s.hooks.EmitSweepFailed(ctx, status, err)
			s.logger.Error("sweep aborted for status",
				slog.String("status", string(status)),
				slog.Int("cancelled", len(cancelled)),
				slog.String("error", err.Error()),
			)
			continue
		}

		s.hooks.EmitSweepCompleted(ctx, status, cancelled, elapsed)
		s.logger.Info("sweep completed for status",
			slog.String("status", string(status)),
			slog.Int("cancelled", len(cancelled)),
			slog.Duration("elapsed", elapsed),
		)
	}

	report.FinishedAt = time.Now().UTC()
	return report, errors.Join(errs...)
}

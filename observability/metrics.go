// Package observability provides a metrics hook for the lifecycle
// supervisor, recording heartbeat and shutdown-sweep activity through
// OpenTelemetry instruments.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/hook"
	"github.com/arkline/lifeline/id"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/arkline/lifeline"

// Compile-time interface checks.
var (
	_ hook.Hook              = (*MetricsHook)(nil)
	_ hook.BeatWritten       = (*MetricsHook)(nil)
	_ hook.BeatFailed        = (*MetricsHook)(nil)
	_ hook.DispatchCancelled = (*MetricsHook)(nil)
	_ hook.SweepCompleted    = (*MetricsHook)(nil)
	_ hook.SweepFailed       = (*MetricsHook)(nil)
)

// MetricsHook records lifecycle metrics. Register it on the hook
// registry to track beat rates, sweep outcomes, and the number of
// dispatches cancelled at shutdown.
//
// Instruments:
//   - lifeline.beats.written (Int64Counter)
//   - lifeline.beats.failed (Int64Counter)
//   - lifeline.dispatches.cancelled (Int64Counter), attribute: status
//   - lifeline.sweeps.completed (Int64Counter), attribute: status
//   - lifeline.sweeps.failed (Int64Counter), attribute: status
//   - lifeline.sweep.duration (Float64Histogram) in seconds, attribute: status
type MetricsHook struct {
	beatsWritten  metric.Int64Counter
	beatsFailed   metric.Int64Counter
	cancelled     metric.Int64Counter
	sweepsOK      metric.Int64Counter
	sweepsFailed  metric.Int64Counter
	sweepDuration metric.Float64Histogram
}

// NewMetricsHook creates a MetricsHook using the global OTel
// MeterProvider. If no MeterProvider is configured, the instruments are
// noops and the hook is a pass-through.
func NewMetricsHook() *MetricsHook {
	return NewMetricsHookWithMeter(otel.Meter(meterName))
}

// NewMetricsHookWithMeter creates a MetricsHook with the provided
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func NewMetricsHookWithMeter(meter metric.Meter) *MetricsHook {
	// On error the OTel API returns noop instruments, so the hook
	// degrades gracefully.
	beatsWritten, _ := meter.Int64Counter(
		"lifeline.beats.written",
		metric.WithDescription("Total liveness markers written"),
		metric.WithUnit("{beat}"),
	)
	beatsFailed, _ := meter.Int64Counter(
		"lifeline.beats.failed",
		metric.WithDescription("Total liveness marker write failures"),
		metric.WithUnit("{beat}"),
	)
	cancelled, _ := meter.Int64Counter(
		"lifeline.dispatches.cancelled",
		metric.WithDescription("Total dispatches cancelled during shutdown sweeps"),
		metric.WithUnit("{dispatch}"),
	)
	sweepsOK, _ := meter.Int64Counter(
		"lifeline.sweeps.completed",
		metric.WithDescription("Total per-status sweeps completed"),
		metric.WithUnit("{sweep}"),
	)
	sweepsFailed, _ := meter.Int64Counter(
		"lifeline.sweeps.failed",
		metric.WithDescription("Total per-status sweeps aborted by an error"),
		metric.WithUnit("{sweep}"),
	)
	sweepDuration, _ := meter.Float64Histogram(
		"lifeline.sweep.duration",
		metric.WithDescription("Duration of per-status sweeps in seconds"),
		metric.WithUnit("s"),
	)

	return &MetricsHook{
		beatsWritten:  beatsWritten,
		beatsFailed:   beatsFailed,
		cancelled:     cancelled,
		sweepsOK:      sweepsOK,
		sweepsFailed:  sweepsFailed,
		sweepDuration: sweepDuration,
	}
}

// Name implements hook.Hook.
func (m *MetricsHook) Name() string { return "observability-metrics" }

// OnBeatWritten implements hook.BeatWritten.
func (m *MetricsHook) OnBeatWritten(ctx context.Context, _ time.Time) error {
	m.beatsWritten.Add(ctx, 1)
	return nil
}

// OnBeatFailed implements hook.BeatFailed.
func (m *MetricsHook) OnBeatFailed(ctx context.Context, _ error) error {
	m.beatsFailed.Add(ctx, 1)
	return nil
}

// OnDispatchCancelled implements hook.DispatchCancelled.
func (m *MetricsHook) OnDispatchCancelled(ctx context.Context, _ id.DispatchID) error {
	m.cancelled.Add(ctx, 1)
	return nil
}

// OnSweepCompleted implements hook.SweepCompleted.
func (m *MetricsHook) OnSweepCompleted(ctx context.Context, status dispatch.Status, _ []id.DispatchID, elapsed time.Duration) error {
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	m.sweepsOK.Add(ctx, 1, attrs)
	m.sweepDuration.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnSweepFailed implements hook.SweepFailed.
func (m *MetricsHook) OnSweepFailed(ctx context.Context, status dispatch.Status, _ error) error {
	m.sweepsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	return nil
}

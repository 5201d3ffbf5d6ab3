package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
	"github.com/arkline/lifeline/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64] data type", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsHook_CountsBeats(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))
	ctx := context.Background()

	_ = h.OnBeatWritten(ctx, time.Now())
	_ = h.OnBeatWritten(ctx, time.Now())
	_ = h.OnBeatFailed(ctx, errors.New("disk full"))

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "lifeline.beats.written"); got != 2 {
		t.Errorf("beats.written = %d, want 2", got)
	}
	if got := counterValue(t, rm, "lifeline.beats.failed"); got != 1 {
		t.Errorf("beats.failed = %d, want 1", got)
	}
}

func TestMetricsHook_CountsCancellations(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = h.OnDispatchCancelled(ctx, id.NewDispatchID())
	}

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "lifeline.dispatches.cancelled"); got != 3 {
		t.Errorf("dispatches.cancelled = %d, want 3", got)
	}
}

func TestMetricsHook_RecordsSweepOutcomes(t *testing.T) {
	reader, mp := setupTestMeter()
	h := observability.NewMetricsHookWithMeter(mp.Meter("test"))
	ctx := context.Background()

	_ = h.OnSweepCompleted(ctx, dispatch.StatusRunning, nil, 42*time.Millisecond)
	_ = h.OnSweepFailed(ctx, dispatch.StatusNewObject, errors.New("store down"))

	rm := collectMetrics(t, reader)
	if got := counterValue(t, rm, "lifeline.sweeps.completed"); got != 1 {
		t.Errorf("sweeps.completed = %d, want 1", got)
	}
	if got := counterValue(t, rm, "lifeline.sweeps.failed"); got != 1 {
		t.Errorf("sweeps.failed = %d, want 1", got)
	}

	m := findMetric(rm, "lifeline.sweep.duration")
	if m == nil {
		t.Fatal("lifeline.sweep.duration metric not found")
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
		t.Error("expected one sweep duration data point")
	}
}

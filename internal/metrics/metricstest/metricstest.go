// Package metricstest records pipeline metrics in memory for assertions.
package metricstest

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Acid-base/researcher/internal/metrics"
)

// Recorder pairs instruments with a manual reader.
type Recorder struct {
	Instruments *metrics.Instruments
	reader      *sdkmetric.ManualReader
}

// New returns a Recorder whose instruments are collected on demand.
func New(t testing.TB) *Recorder {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	inst, err := metrics.New(mp)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	return &Recorder{Instruments: inst, reader: reader}
}

// Counter returns the sum of all data points of the named int64 counter.
func (r *Recorder) Counter(t testing.TB, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

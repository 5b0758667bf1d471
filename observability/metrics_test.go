package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a reader to
// collect from.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
}

func TestRecordCompile(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records compile count and latency", func(t *testing.T) {
		m.RecordCompile(ctx, "allow-admins", 2*time.Millisecond, nil)

		rm := collectMetrics(t, reader)

		count := findMetric(rm, "libcel.compiles")
		require.NotNil(t, count)
		sum, ok := count.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		latency := findMetric(rm, "libcel.compile.latency_ms")
		require.NotNil(t, latency)
		_, ok = latency.Data.(metricdata.Histogram[float64])
		assert.True(t, ok, "Expected Histogram type")
	})

	t.Run("records errors when present", func(t *testing.T) {
		m.RecordCompile(ctx, "broken", time.Millisecond, errors.New("SYNTAX ERROR at 1:3: expected ')'"))

		rm := collectMetrics(t, reader)
		errMetric := findMetric(rm, "libcel.compile.errors")
		require.NotNil(t, errMetric)

		sum, ok := errMetric.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "rule" && attr.Value.AsString() == "broken" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected error datapoint for rule=broken")
	})
}

func TestRecordEvaluation(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records evaluation count", func(t *testing.T) {
		m.RecordEvaluation(ctx, "quota-check", 500*time.Microsecond, nil)
		m.RecordEvaluation(ctx, "quota-check", 700*time.Microsecond, nil)

		rm := collectMetrics(t, reader)
		count := findMetric(rm, "libcel.evaluations")
		require.NotNil(t, count)

		sum, ok := count.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		assert.GreaterOrEqual(t, total, int64(2))
	})

	t.Run("error status feeds the error counter", func(t *testing.T) {
		m.RecordEvaluation(ctx, "quota-check", time.Millisecond, errors.New("EVALUATION ERROR: undefined variable"))

		rm := collectMetrics(t, reader)
		errMetric := findMetric(rm, "libcel.eval.errors")
		require.NotNil(t, errMetric)
	})
}

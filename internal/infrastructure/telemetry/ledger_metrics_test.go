package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"github.com/immo/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestLedgerMetrics_ObserveLedgerOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewLedgerMetrics(provider.Meter(telemetry.MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	sale := finance.SaleRef(uuid.New())
	metrics.ObserveLedgerOperation(ctx, "record_payment", sale, 12*time.Millisecond, nil)
	metrics.ObserveLedgerOperation(ctx, "record_payment", sale, 3*time.Millisecond,
		shared.NewConsistencyError(finance.CodeOverAllocation, "too much", nil))
	metrics.ObserveLedgerOperation(ctx, "cancel_payment", finance.ExpenseRef(uuid.New()), time.Millisecond,
		errors.New("connection reset"))

	got := collect(t, reader)

	ops, ok := got["ledger.operations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var okCount, errCount int64
	for _, dp := range ops.DataPoints {
		outcome, _ := dp.Attributes.Value("outcome")
		if outcome.AsString() == "ok" {
			okCount += dp.Value
		} else {
			errCount += dp.Value
		}
	}
	assert.Equal(t, int64(1), okCount)
	assert.Equal(t, int64(2), errCount)

	failures, ok := got["ledger.failures"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	kinds := map[string]int64{}
	for _, dp := range failures.DataPoints {
		kind, _ := dp.Attributes.Value("error_kind")
		kinds[kind.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"consistency": 1, "storage": 1}, kinds)

	duration, ok := got["ledger.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var samples uint64
	for _, dp := range duration.DataPoints {
		samples += dp.Count
	}
	assert.Equal(t, uint64(3), samples)
}

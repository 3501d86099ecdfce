package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/immo/backend/internal/domain/finance"
	"github.com/immo/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the ledger metrics
const MeterName = "github.com/immo/backend/ledger"

// LedgerMetrics records counts and latencies of ledger mutations.
// It implements the application OperationObserver hook.
type LedgerMetrics struct {
	operations metric.Int64Counter
	failures   metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	operations, err := meter.Int64Counter("ledger.operations",
		metric.WithDescription("Ledger mutations by operation and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger.operations: %w", err)
	}
	failures, err := meter.Int64Counter("ledger.failures",
		metric.WithDescription("Rejected or failed ledger mutations by error kind"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger.failures: %w", err)
	}
	duration, err := meter.Float64Histogram("ledger.duration",
		metric.WithDescription("Wall time of a ledger mutation including the parent lock"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger.duration: %w", err)
	}
	return &LedgerMetrics{operations: operations, failures: failures, duration: duration}, nil
}

// ObserveLedgerOperation records one mutation.
func (m *LedgerMetrics) ObserveLedgerOperation(ctx context.Context, op string, parent finance.ParentRef, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("parent_type", string(parent.Type)),
		attribute.String("outcome", outcome),
	)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)

	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("parent_type", string(parent.Type)),
			attribute.String("error_kind", string(shared.KindOf(err))),
		))
	}
}

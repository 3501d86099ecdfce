package telemetry_test

import (
	"context"
	"testing"

	"github.com/immo/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "immo-test",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, "immo-test", tp.GetConfig().ServiceName)
	assert.NotNil(t, tp.Tracer("ledger"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "immo-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	metrics, err := telemetry.NewLedgerMetrics(mp.Meter(telemetry.MeterName))
	require.NoError(t, err)
	assert.NotNil(t, metrics)
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestLoggerProvider_DisabledBridgeKeepsBaseLogger(t *testing.T) {
	ctx := context.Background()
	base := zap.NewNop()
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Same(t, base, lp.Bridge(base))
	assert.NoError(t, lp.Shutdown(ctx))
}

package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartedKey = "telemetry:query_started_at"

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound variables in span statements; never in production
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// RegisterDBTracing installs the otelgorm plugin and a slow query detector.
// Lock waits on parent rows surface here first, so slow statements are
// logged with their table and flagged on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := registerSlowQueryCallbacks(db, cfg.SlowQueryThresh, logger); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, threshold time.Duration, logger *zap.Logger) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartedKey, time.Now())
	}
	after := func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(queryStartedKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(started)
		if elapsed < threshold {
			return
		}
		logger.Warn("slow query",
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", tx.Statement.RowsAffected),
		)
		if tx.Statement.Context != nil {
			span := trace.SpanFromContext(tx.Statement.Context)
			if span.IsRecording() {
				span.SetAttributes(
					attribute.Bool("db.slow_query", true),
					attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
				)
			}
		}
	}

	cb := db.Callback()
	steps := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
		after    bool
	}{
		{"telemetry:before_create", cb.Create().Before("gorm:create").Register, false},
		{"telemetry:after_create", cb.Create().After("gorm:create").Register, true},
		{"telemetry:before_query", cb.Query().Before("gorm:query").Register, false},
		{"telemetry:after_query", cb.Query().After("gorm:query").Register, true},
		{"telemetry:before_update", cb.Update().Before("gorm:update").Register, false},
		{"telemetry:after_update", cb.Update().After("gorm:update").Register, true},
		{"telemetry:before_delete", cb.Delete().Before("gorm:delete").Register, false},
		{"telemetry:after_delete", cb.Delete().After("gorm:delete").Register, true},
		{"telemetry:before_row", cb.Row().Before("gorm:row").Register, false},
		{"telemetry:after_row", cb.Row().After("gorm:row").Register, true},
		{"telemetry:before_raw", cb.Raw().Before("gorm:raw").Register, false},
		{"telemetry:after_raw", cb.Raw().After("gorm:raw").Register, true},
	}
	for _, s := range steps {
		fn := before
		if s.after {
			fn = after
		}
		if err := s.register(s.name, fn); err != nil {
			return err
		}
	}
	return nil
}
